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
	"github.com/edly-io/nodebb-sync/pkg/nodebb"
)

// categoryLinkStore is the minimal link store interface needed by the category workers.
type categoryLinkStore interface {
	SaveCategoryLink(ctx context.Context, link *models.CategoryLink) error
	DeleteCategoryLink(ctx context.Context, courseID string) error
}

// CategoryCreateWorker creates the remote category and its member group for a
// new course, then stores the course-to-category mapping.
type CategoryCreateWorker struct {
	river.WorkerDefaults[tasks.CategoryCreateArgs]

	client  ForumAPI
	links   categoryLinkStore
	metrics observability.SyncMetrics
}

// NewCategoryCreateWorker creates a worker that uses the given client and link store.
// metrics may be nil when metrics are disabled.
func NewCategoryCreateWorker(client ForumAPI, links categoryLinkStore, metrics observability.SyncMetrics) *CategoryCreateWorker {
	return &CategoryCreateWorker{client: client, links: links, metrics: metrics}
}

// Timeout limits how long a single action can run.
func (w *CategoryCreateWorker) Timeout(*river.Job[tasks.CategoryCreateArgs]) time.Duration {
	return SyncActionTimeout
}

// Work creates the category, creates a hidden member group for it, and saves
// the link row. The two remote calls are not transactional: a retry after a
// partial failure can leave an orphan category on the forum.
func (w *CategoryCreateWorker) Work(ctx context.Context, job *river.Job[tasks.CategoryCreateArgs]) error {
	args := job.Args
	start := time.Now()

	cid, err := w.client.CreateCategory(ctx, nodebb.CreateCategoryRequest{
		Name:        args.Name,
		Description: args.DisplayName,
	})
	if err != nil {
		recordRun(ctx, w.metrics, tasks.KindCategoryCreate, outcomeForError(job.Attempt, job.MaxAttempts), start)

		slog.Error("category create failed", "course_id", args.CourseID, "error", err)

		return fmt.Errorf("create remote category: %w", err)
	}

	slug, err := w.client.CreateGroup(ctx, nodebb.CreateGroupRequest{
		Name:    args.Name,
		Hidden:  1,
		Private: 1,
	})
	if err != nil {
		recordRun(ctx, w.metrics, tasks.KindCategoryCreate, outcomeForError(job.Attempt, job.MaxAttempts), start)

		slog.Error("category created but group create failed",
			"course_id", args.CourseID,
			"cid", cid,
			"error", err,
		)

		return fmt.Errorf("create remote group: %w", err)
	}

	err = w.links.SaveCategoryLink(ctx, &models.CategoryLink{
		CourseID:   args.CourseID,
		CategoryID: cid,
		GroupSlug:  slug,
	})
	if err != nil {
		recordRun(ctx, w.metrics, tasks.KindCategoryCreate, outcomeForError(job.Attempt, job.MaxAttempts), start)

		slog.Error("category and group created but link save failed",
			"course_id", args.CourseID,
			"cid", cid,
			"group_slug", slug,
			"error", err,
		)

		return fmt.Errorf("save category link: %w", err)
	}

	recordRun(ctx, w.metrics, tasks.KindCategoryCreate, "success", start)

	slog.Info("remote category created",
		"course_id", args.CourseID,
		"cid", cid,
		"group_slug", slug,
	)

	return nil
}

// CategoryDeleteWorker deletes the remote category and drops the local mapping.
type CategoryDeleteWorker struct {
	river.WorkerDefaults[tasks.CategoryDeleteArgs]

	client  ForumAPI
	links   categoryLinkStore
	metrics observability.SyncMetrics
}

// NewCategoryDeleteWorker creates a worker that uses the given client and link store.
// metrics may be nil when metrics are disabled.
func NewCategoryDeleteWorker(client ForumAPI, links categoryLinkStore, metrics observability.SyncMetrics) *CategoryDeleteWorker {
	return &CategoryDeleteWorker{client: client, links: links, metrics: metrics}
}

// Timeout limits how long a single action can run.
func (w *CategoryDeleteWorker) Timeout(*river.Job[tasks.CategoryDeleteArgs]) time.Duration {
	return SyncActionTimeout
}

// Work deletes the category identified by the id carried in the job args.
func (w *CategoryDeleteWorker) Work(ctx context.Context, job *river.Job[tasks.CategoryDeleteArgs]) error {
	args := job.Args
	start := time.Now()

	if err := w.client.DeleteCategory(ctx, args.CategoryID); err != nil {
		recordRun(ctx, w.metrics, tasks.KindCategoryDelete, outcomeForError(job.Attempt, job.MaxAttempts), start)

		slog.Error("category delete failed",
			"course_id", args.CourseID,
			"cid", args.CategoryID,
			"error", err,
		)

		return fmt.Errorf("delete remote category: %w", err)
	}

	if err := w.links.DeleteCategoryLink(ctx, args.CourseID); err != nil {
		// Remote category is gone; the stale row only wastes cache space.
		slog.Warn("category deleted remotely but link cleanup failed",
			"course_id", args.CourseID,
			"error", err,
		)
	}

	recordRun(ctx, w.metrics, tasks.KindCategoryDelete, "success", start)

	slog.Info("remote category deleted", "course_id", args.CourseID, "cid", args.CategoryID)

	return nil
}
