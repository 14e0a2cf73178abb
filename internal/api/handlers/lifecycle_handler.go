package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/edly-io/nodebb-sync/internal/datatypes"
	"github.com/edly-io/nodebb-sync/internal/models"
)

// LifecyclePublisher is the publisher interface the handler needs.
type LifecyclePublisher interface {
	PublishSave(ctx context.Context, kind datatypes.EventKind, data any, created bool, changedFields []string)
	PublishDeletePending(ctx context.Context, kind datatypes.EventKind, data any)
}

// LifecycleHandler accepts lifecycle notifications delivered over HTTP and
// publishes them for the bridge. The platform's persistence layer posts one
// notification per save/delete transition.
type LifecycleHandler struct {
	publisher LifecyclePublisher
}

// NewLifecycleHandler creates a handler publishing to the given publisher.
func NewLifecycleHandler(publisher LifecyclePublisher) *LifecycleHandler {
	return &LifecycleHandler{publisher: publisher}
}

// LifecycleNotification is the wire form of one lifecycle event.
type LifecycleNotification struct {
	Type          string          `json:"type"`
	Created       bool            `json:"created"`
	ChangedFields []string        `json:"changed_fields,omitempty"`
	Data          json.RawMessage `json:"data"`
}

// HandleEvent handles POST /v1/events: it validates the event type, decodes
// the record payload for that type, and publishes the event. The response is
// 202 regardless of what the bridge later does with the event.
func (h *LifecycleHandler) HandleEvent(w http.ResponseWriter, r *http.Request) {
	var notification LifecycleNotification
	if err := json.NewDecoder(r.Body).Decode(&notification); err != nil {
		RespondBadRequest(w, "invalid JSON body")
		return
	}

	kind, err := datatypes.ParseEventKind(notification.Type)
	if err != nil {
		RespondUnprocessable(w, "unknown event type: "+notification.Type)
		return
	}

	data, err := decodeRecord(kind, notification.Data)
	if err != nil {
		RespondBadRequest(w, "invalid record payload for "+notification.Type)
		return
	}

	switch kind {
	case datatypes.AccountDeletePending, datatypes.CategoryLinkDeletePending:
		h.publisher.PublishDeletePending(r.Context(), kind, data)
	default:
		h.publisher.PublishSave(r.Context(), kind, data, notification.Created, notification.ChangedFields)
	}

	slog.Debug("lifecycle notification accepted", "event_type", notification.Type, "created", notification.Created)

	RespondSuccess(w, http.StatusAccepted, map[string]string{"status": "accepted"})
}

// decodeRecord unmarshals the record payload into the model matching the kind.
func decodeRecord(kind datatypes.EventKind, raw json.RawMessage) (any, error) {
	var target any

	switch kind {
	case datatypes.AccountCreated, datatypes.AccountUpdated, datatypes.AccountDeletePending:
		target = &models.Account{}
	case datatypes.ProfileSaved:
		target = &models.Profile{}
	case datatypes.CourseCreated:
		target = &models.Course{}
	case datatypes.CategoryLinkDeletePending:
		target = &models.CategoryLink{}
	case datatypes.EnrollmentSaved:
		target = &models.Enrollment{}
	}

	if err := json.Unmarshal(raw, target); err != nil {
		return nil, err
	}

	return target, nil
}
