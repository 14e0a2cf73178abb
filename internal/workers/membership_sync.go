package workers

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/riverqueue/river"

	"github.com/edly-io/nodebb-sync/internal/models"
	"github.com/edly-io/nodebb-sync/internal/observability"
	"github.com/edly-io/nodebb-sync/internal/tasks"
)

// membershipLinkStore is the minimal link store interface needed by the membership workers.
type membershipLinkStore interface {
	GetUserUID(ctx context.Context, username string) (int64, error)
	GetCategoryLink(ctx context.Context, courseID string) (*models.CategoryLink, error)
}

// resolveMembership looks up the group slug for the course and the uid for the
// username. Missing links are returned as errors so the job retries: the
// category or user create jobs for the same records may still be in flight.
func resolveMembership(ctx context.Context, links membershipLinkStore, username, courseID string) (string, int64, error) {
	link, err := links.GetCategoryLink(ctx, courseID)
	if err != nil {
		return "", 0, fmt.Errorf("resolve category link: %w", err)
	}

	uid, err := links.GetUserUID(ctx, username)
	if err != nil {
		return "", 0, fmt.Errorf("resolve uid: %w", err)
	}

	return link.GroupSlug, uid, nil
}

// GroupJoinWorker adds the user to the course's member group.
type GroupJoinWorker struct {
	river.WorkerDefaults[tasks.GroupJoinArgs]

	client  ForumAPI
	links   membershipLinkStore
	metrics observability.SyncMetrics
}

// NewGroupJoinWorker creates a worker that uses the given client and link store.
// metrics may be nil when metrics are disabled.
func NewGroupJoinWorker(client ForumAPI, links membershipLinkStore, metrics observability.SyncMetrics) *GroupJoinWorker {
	return &GroupJoinWorker{client: client, links: links, metrics: metrics}
}

// Timeout limits how long a single action can run.
func (w *GroupJoinWorker) Timeout(*river.Job[tasks.GroupJoinArgs]) time.Duration {
	return SyncActionTimeout
}

// Work resolves the group and uid, then joins the user to the group.
func (w *GroupJoinWorker) Work(ctx context.Context, job *river.Job[tasks.GroupJoinArgs]) error {
	args := job.Args
	start := time.Now()

	slug, uid, err := resolveMembership(ctx, w.links, args.Username, args.CourseID)
	if err != nil {
		recordRun(ctx, w.metrics, tasks.KindGroupJoin, outcomeForError(job.Attempt, job.MaxAttempts), start)

		slog.Warn("group join: link resolution failed, will retry",
			"username", args.Username,
			"course_id", args.CourseID,
			"error", err,
		)

		return err
	}

	if err := w.client.JoinGroup(ctx, slug, uid); err != nil {
		recordRun(ctx, w.metrics, tasks.KindGroupJoin, outcomeForError(job.Attempt, job.MaxAttempts), start)

		slog.Error("group join failed",
			"username", args.Username,
			"course_id", args.CourseID,
			"group_slug", slug,
			"error", err,
		)

		return fmt.Errorf("join remote group: %w", err)
	}

	recordRun(ctx, w.metrics, tasks.KindGroupJoin, "success", start)

	slog.Info("user joined course group",
		"username", args.Username,
		"course_id", args.CourseID,
		"group_slug", slug,
	)

	return nil
}

// GroupUnjoinWorker removes the user from the course's member group.
type GroupUnjoinWorker struct {
	river.WorkerDefaults[tasks.GroupUnjoinArgs]

	client  ForumAPI
	links   membershipLinkStore
	metrics observability.SyncMetrics
}

// NewGroupUnjoinWorker creates a worker that uses the given client and link store.
// metrics may be nil when metrics are disabled.
func NewGroupUnjoinWorker(client ForumAPI, links membershipLinkStore, metrics observability.SyncMetrics) *GroupUnjoinWorker {
	return &GroupUnjoinWorker{client: client, links: links, metrics: metrics}
}

// Timeout limits how long a single action can run.
func (w *GroupUnjoinWorker) Timeout(*river.Job[tasks.GroupUnjoinArgs]) time.Duration {
	return SyncActionTimeout
}

// Work resolves the group and uid, then removes the user from the group.
func (w *GroupUnjoinWorker) Work(ctx context.Context, job *river.Job[tasks.GroupUnjoinArgs]) error {
	args := job.Args
	start := time.Now()

	slug, uid, err := resolveMembership(ctx, w.links, args.Username, args.CourseID)
	if err != nil {
		recordRun(ctx, w.metrics, tasks.KindGroupUnjoin, outcomeForError(job.Attempt, job.MaxAttempts), start)

		slog.Warn("group unjoin: link resolution failed, will retry",
			"username", args.Username,
			"course_id", args.CourseID,
			"error", err,
		)

		return err
	}

	if err := w.client.LeaveGroup(ctx, slug, uid); err != nil {
		recordRun(ctx, w.metrics, tasks.KindGroupUnjoin, outcomeForError(job.Attempt, job.MaxAttempts), start)

		slog.Error("group unjoin failed",
			"username", args.Username,
			"course_id", args.CourseID,
			"group_slug", slug,
			"error", err,
		)

		return fmt.Errorf("leave remote group: %w", err)
	}

	recordRun(ctx, w.metrics, tasks.KindGroupUnjoin, "success", start)

	slog.Info("user left course group",
		"username", args.Username,
		"course_id", args.CourseID,
		"group_slug", slug,
	)

	return nil
}
