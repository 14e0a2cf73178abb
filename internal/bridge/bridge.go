// Package bridge turns platform lifecycle events into outbound forum sync
// actions. Each handler reads a few fields off the affected record, shapes a
// job payload, and enqueues it. Handlers are stateless and fire-and-forget:
// enqueue failures are logged and counted, never returned to the event source.
package bridge

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/riverqueue/river"

	"github.com/edly-io/nodebb-sync/internal/datatypes"
	"github.com/edly-io/nodebb-sync/internal/lifecycle"
	"github.com/edly-io/nodebb-sync/internal/models"
	"github.com/edly-io/nodebb-sync/internal/observability"
	"github.com/edly-io/nodebb-sync/internal/tasks"
)

// lastLoginField is the account field touched by plain logins. An update whose
// changed-field set is exactly this field must not trigger a profile sync.
const lastLoginField = "last_login"

// Bridge subscribes to lifecycle events and enqueues at most one sync action
// per event. It holds no state between events.
type Bridge struct {
	inserter tasks.TaskInserter
	metrics  observability.SyncMetrics
}

// New creates a bridge that enqueues actions via inserter.
// metrics may be nil when metrics are disabled.
func New(inserter tasks.TaskInserter, metrics observability.SyncMetrics) *Bridge {
	return &Bridge{inserter: inserter, metrics: metrics}
}

// Register subscribes the bridge's handlers on the publisher.
// Call once during startup, before any events are published.
func (b *Bridge) Register(pub *lifecycle.Publisher) {
	pub.Subscribe(datatypes.AccountCreated, b.onAccountCreated)
	pub.Subscribe(datatypes.AccountUpdated, b.onAccountUpdated)
	pub.Subscribe(datatypes.AccountDeletePending, b.onAccountDeletePending)
	pub.Subscribe(datatypes.ProfileSaved, b.onProfileSaved)
	pub.Subscribe(datatypes.CourseCreated, b.onCourseCreated)
	pub.Subscribe(datatypes.CategoryLinkDeletePending, b.onCategoryLinkDeletePending)
	pub.Subscribe(datatypes.EnrollmentSaved, b.onEnrollmentSaved)
}

// onAccountCreated enqueues remote user creation for a new account.
func (b *Bridge) onAccountCreated(ctx context.Context, event lifecycle.Event) {
	account, ok := eventData[*models.Account](event)
	if !ok {
		return
	}

	b.enqueue(ctx, event, tasks.UserCreateArgs{
		Username: account.Username,
		Email:    account.Email,
		JoinDate: strconv.FormatInt(account.DateJoined.Unix(), 10),
	})
}

// onAccountUpdated enqueues a remote profile update unless the update changed
// nothing or changed only the last-login timestamp.
func (b *Bridge) onAccountUpdated(ctx context.Context, event lifecycle.Event) {
	if len(event.ChangedFields) == 0 {
		return
	}

	if len(event.ChangedFields) == 1 && event.ChangedFields[0] == lastLoginField {
		return
	}

	account, ok := eventData[*models.Account](event)
	if !ok {
		return
	}

	b.enqueue(ctx, event, tasks.UserUpdateArgs{
		Username: account.Username,
		Fullname: account.FirstName + " " + account.LastName,
	})
}

// onAccountDeletePending enqueues remote user deletion. It fires pre-delete,
// so the username is still readable.
func (b *Bridge) onAccountDeletePending(ctx context.Context, event lifecycle.Event) {
	account, ok := eventData[*models.Account](event)
	if !ok {
		return
	}

	b.enqueue(ctx, event, tasks.UserDeleteArgs{Username: account.Username})
}

// onProfileSaved enqueues a remote profile update for any profile save; no
// create/update distinction is made. Only a birth year is tracked, so the
// birthday is synthesized as Jan 1 of that year.
func (b *Bridge) onProfileSaved(ctx context.Context, event lifecycle.Event) {
	profile, ok := eventData[*models.Profile](event)
	if !ok {
		return
	}

	b.enqueue(ctx, event, tasks.UserUpdateArgs{
		Username: profile.Username,
		Fullname: profile.Name,
		Location: fmt.Sprintf("%s, %s", profile.City, profile.Country),
		Birthday: fmt.Sprintf("01/01/%d", profile.YearOfBirth),
	})
}

// onCourseCreated enqueues remote category creation on the course's first save
// only; subsequent saves enqueue nothing.
func (b *Bridge) onCourseCreated(ctx context.Context, event lifecycle.Event) {
	if !event.Created {
		return
	}

	course, ok := eventData[*models.Course](event)
	if !ok {
		return
	}

	b.enqueue(ctx, event, tasks.CategoryCreateArgs{
		CourseID:    course.ID,
		Name:        fmt.Sprintf("%s-%s-%s-%s", course.DisplayName, course.Org, course.Course, course.Run),
		DisplayName: course.DisplayName,
	})
}

// onCategoryLinkDeletePending enqueues remote category deletion using the
// category id stored on the link row before it is removed.
func (b *Bridge) onCategoryLinkDeletePending(ctx context.Context, event lifecycle.Event) {
	link, ok := eventData[*models.CategoryLink](event)
	if !ok {
		return
	}

	b.enqueue(ctx, event, tasks.CategoryDeleteArgs{
		CourseID:   link.CourseID,
		CategoryID: link.CategoryID,
	})
}

// onEnrollmentSaved enqueues a group join for active enrollments and a group
// unjoin for transitions to inactive. A brand-new inactive row enqueues
// nothing: there is no membership to remove yet.
func (b *Bridge) onEnrollmentSaved(ctx context.Context, event lifecycle.Event) {
	enrollment, ok := eventData[*models.Enrollment](event)
	if !ok {
		return
	}

	switch {
	case enrollment.Active:
		b.enqueue(ctx, event, tasks.GroupJoinArgs{
			Username: enrollment.Username,
			CourseID: enrollment.CourseID,
		})
	case !event.Created:
		b.enqueue(ctx, event, tasks.GroupUnjoinArgs{
			Username: enrollment.Username,
			CourseID: enrollment.CourseID,
		})
	}
}

// enqueue hands one action to the task queue. The outcome is not consulted
// beyond logging and metrics; retry policy lives in the inserter and queue.
func (b *Bridge) enqueue(ctx context.Context, event lifecycle.Event, args river.JobArgs) {
	if err := b.inserter.Insert(ctx, args); err != nil {
		if b.metrics != nil {
			b.metrics.RecordEnqueueError(ctx, event.Kind.String())
		}

		slog.Error("failed to enqueue sync action",
			"event_id", event.ID,
			"event_kind", event.Kind,
			"task_kind", args.Kind(),
			"error", err,
		)

		return
	}

	if b.metrics != nil {
		b.metrics.RecordActionEnqueued(ctx, event.Kind.String())
	}

	slog.Debug("sync action enqueued",
		"event_id", event.ID,
		"event_kind", event.Kind,
		"task_kind", args.Kind(),
	)
}

// eventData extracts the typed record from an event, logging a mismatch.
// A wrong payload type is a programming error at the publish site; the bridge
// skips the event rather than panicking on the fan-out goroutine.
func eventData[T any](event lifecycle.Event) (T, bool) {
	data, ok := event.Data.(T)
	if !ok {
		slog.Error("lifecycle event carries unexpected payload type",
			"event_id", event.ID,
			"event_kind", event.Kind,
			"payload_type", fmt.Sprintf("%T", event.Data),
		)
	}

	return data, ok
}
