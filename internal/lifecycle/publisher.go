// Package lifecycle delivers platform persistence lifecycle events to
// registered subscribers through a buffered channel and a single fan-out
// goroutine. Publishing never blocks the caller: when the buffer is full the
// event is dropped and counted.
package lifecycle

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/edly-io/nodebb-sync/internal/datatypes"
	"github.com/edly-io/nodebb-sync/internal/observability"
)

// eventChanBufferSize is the buffer size for the event channel (creates backpressure when full).
const eventChanBufferSize = 1024

// perEventTimeout bounds handler execution per event so one stuck handler
// doesn't freeze the fan-out goroutine forever.
const perEventTimeout = 10 * time.Second

// Event is one persistence lifecycle notification.
type Event struct {
	ID            uuid.UUID           // Unique event id (UUID v7, time-ordered)
	Kind          datatypes.EventKind // Lifecycle transition (e.g. AccountCreated)
	Timestamp     int64               // Unix timestamp
	Data          any                 // Affected record (*models.Account, *models.Enrollment, ...)
	Created       bool                // True when the save created the row
	ChangedFields []string            // Only for updates; names of changed fields
}

// Handler processes one lifecycle event. Handlers must not block for long and
// must not assume any ordering guarantee beyond publish order.
type Handler func(ctx context.Context, event Event)

// Publisher fans lifecycle events out to subscribers registered per event kind.
type Publisher struct {
	eventChan chan Event
	handlers  map[datatypes.EventKind][]Handler
	metrics   observability.SyncMetrics
	wg        sync.WaitGroup
}

// NewPublisher creates a publisher and starts its fan-out goroutine.
// metrics may be nil when metrics are disabled.
func NewPublisher(metrics observability.SyncMetrics) *Publisher {
	p := &Publisher{
		eventChan: make(chan Event, eventChanBufferSize),
		handlers:  make(map[datatypes.EventKind][]Handler),
		metrics:   metrics,
	}

	p.wg.Add(1)
	go p.startWorker()

	return p
}

// Subscribe registers a handler for one event kind.
// Must only be called during startup, before any events are published.
func (p *Publisher) Subscribe(kind datatypes.EventKind, handler Handler) {
	p.handlers[kind] = append(p.handlers[kind], handler)
}

// PublishSave publishes a record-saved event with the created flag and the set
// of changed field names (nil for creates).
func (p *Publisher) PublishSave(ctx context.Context, kind datatypes.EventKind, data any, created bool, changedFields []string) {
	p.publish(ctx, Event{
		ID:            uuid.Must(uuid.NewV7()),
		Kind:          kind,
		Timestamp:     time.Now().Unix(),
		Data:          data,
		Created:       created,
		ChangedFields: changedFields,
	})
}

// PublishDeletePending publishes a record-about-to-be-deleted event. It fires
// before the row is removed, so the record's fields are still readable.
func (p *Publisher) PublishDeletePending(ctx context.Context, kind datatypes.EventKind, data any) {
	p.publish(ctx, Event{
		ID:        uuid.Must(uuid.NewV7()),
		Kind:      kind,
		Timestamp: time.Now().Unix(),
		Data:      data,
	})
}

func (p *Publisher) publish(ctx context.Context, event Event) {
	select {
	case p.eventChan <- event:
		slog.Debug("Lifecycle event published to channel", "event_id", event.ID, "event_kind", event.Kind)
	default:
		if p.metrics != nil {
			p.metrics.RecordEventDropped(ctx, event.Kind.String())
		}

		slog.Warn("Event channel full, lifecycle event dropped", "event_id", event.ID, "event_kind", event.Kind)
	}
}

// startWorker runs in a dedicated goroutine, reading events from the channel
// and invoking the handlers registered for each event's kind. It is started
// with go in NewPublisher and runs for the lifetime of the publisher.
func (p *Publisher) startWorker() {
	defer p.wg.Done()
	bgCtx := context.Background()

	// This loop automatically breaks when p.eventChan is closed
	for event := range p.eventChan {
		ctx, cancel := context.WithTimeout(bgCtx, perEventTimeout)

		for _, handler := range p.handlers[event.Kind] {
			handler(ctx, event)
		}
		cancel()
	}
}

// Shutdown stops the fan-out goroutine and waits for the buffer to drain.
func (p *Publisher) Shutdown() {
	close(p.eventChan)
	p.wg.Wait()
}
