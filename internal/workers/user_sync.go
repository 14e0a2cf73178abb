package workers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/riverqueue/river"

	"github.com/edly-io/nodebb-sync/internal/observability"
	"github.com/edly-io/nodebb-sync/internal/syncerrors"
	"github.com/edly-io/nodebb-sync/internal/tasks"
	"github.com/edly-io/nodebb-sync/pkg/nodebb"
)

// userLinkStore is the minimal link store interface needed by the user workers.
type userLinkStore interface {
	SaveUserLink(ctx context.Context, username string, uid int64) error
	GetUserUID(ctx context.Context, username string) (int64, error)
	DeleteUserLink(ctx context.Context, username string) error
}

// UserCreateWorker creates the remote forum user and stores the uid mapping.
type UserCreateWorker struct {
	river.WorkerDefaults[tasks.UserCreateArgs]

	client  ForumAPI
	links   userLinkStore
	metrics observability.SyncMetrics
}

// NewUserCreateWorker creates a worker that uses the given client and link store.
// metrics may be nil when metrics are disabled.
func NewUserCreateWorker(client ForumAPI, links userLinkStore, metrics observability.SyncMetrics) *UserCreateWorker {
	return &UserCreateWorker{client: client, links: links, metrics: metrics}
}

// Timeout limits how long a single action can run.
func (w *UserCreateWorker) Timeout(*river.Job[tasks.UserCreateArgs]) time.Duration {
	return SyncActionTimeout
}

// Work creates the user remotely and persists the username-to-uid link.
func (w *UserCreateWorker) Work(ctx context.Context, job *river.Job[tasks.UserCreateArgs]) error {
	args := job.Args
	start := time.Now()

	uid, err := w.client.CreateUser(ctx, nodebb.CreateUserRequest{
		Username: args.Username,
		Email:    args.Email,
		JoinDate: args.JoinDate,
	})
	if err != nil {
		recordRun(ctx, w.metrics, tasks.KindUserCreate, outcomeForError(job.Attempt, job.MaxAttempts), start)

		slog.Error("user create failed", "username", args.Username, "error", err)

		return fmt.Errorf("create remote user: %w", err)
	}

	if err := w.links.SaveUserLink(ctx, args.Username, uid); err != nil {
		recordRun(ctx, w.metrics, tasks.KindUserCreate, outcomeForError(job.Attempt, job.MaxAttempts), start)

		slog.Error("user created remotely but link save failed",
			"username", args.Username,
			"uid", uid,
			"error", err,
		)

		return fmt.Errorf("save user link: %w", err)
	}

	recordRun(ctx, w.metrics, tasks.KindUserCreate, "success", start)

	slog.Info("remote user created", "username", args.Username, "uid", uid)

	return nil
}

// UserUpdateWorker pushes profile field changes to the remote forum user.
type UserUpdateWorker struct {
	river.WorkerDefaults[tasks.UserUpdateArgs]

	client  ForumAPI
	links   userLinkStore
	metrics observability.SyncMetrics
}

// NewUserUpdateWorker creates a worker that uses the given client and link store.
// metrics may be nil when metrics are disabled.
func NewUserUpdateWorker(client ForumAPI, links userLinkStore, metrics observability.SyncMetrics) *UserUpdateWorker {
	return &UserUpdateWorker{client: client, links: links, metrics: metrics}
}

// Timeout limits how long a single action can run.
func (w *UserUpdateWorker) Timeout(*river.Job[tasks.UserUpdateArgs]) time.Duration {
	return SyncActionTimeout
}

// Work resolves the uid for the username and updates the remote profile.
// A missing link is returned as an error so the job retries: the user create
// job for the same account may still be in flight.
func (w *UserUpdateWorker) Work(ctx context.Context, job *river.Job[tasks.UserUpdateArgs]) error {
	args := job.Args
	start := time.Now()

	uid, err := w.links.GetUserUID(ctx, args.Username)
	if err != nil {
		recordRun(ctx, w.metrics, tasks.KindUserUpdate, outcomeForError(job.Attempt, job.MaxAttempts), start)

		slog.Warn("profile update: uid lookup failed, will retry",
			"username", args.Username,
			"error", err,
		)

		return fmt.Errorf("resolve uid: %w", err)
	}

	err = w.client.UpdateProfile(ctx, uid, nodebb.UpdateProfileRequest{
		Fullname: args.Fullname,
		Location: args.Location,
		Birthday: args.Birthday,
	})
	if err != nil {
		recordRun(ctx, w.metrics, tasks.KindUserUpdate, outcomeForError(job.Attempt, job.MaxAttempts), start)

		slog.Error("profile update failed", "username", args.Username, "uid", uid, "error", err)

		return fmt.Errorf("update remote profile: %w", err)
	}

	recordRun(ctx, w.metrics, tasks.KindUserUpdate, "success", start)

	return nil
}

// UserDeleteWorker deletes the remote forum user and removes the uid mapping.
type UserDeleteWorker struct {
	river.WorkerDefaults[tasks.UserDeleteArgs]

	client  ForumAPI
	links   userLinkStore
	metrics observability.SyncMetrics
}

// NewUserDeleteWorker creates a worker that uses the given client and link store.
// metrics may be nil when metrics are disabled.
func NewUserDeleteWorker(client ForumAPI, links userLinkStore, metrics observability.SyncMetrics) *UserDeleteWorker {
	return &UserDeleteWorker{client: client, links: links, metrics: metrics}
}

// Timeout limits how long a single action can run.
func (w *UserDeleteWorker) Timeout(*river.Job[tasks.UserDeleteArgs]) time.Duration {
	return SyncActionTimeout
}

// Work deletes the remote user. No uid mapping means there is nothing to
// delete remotely, so the job completes without retrying.
func (w *UserDeleteWorker) Work(ctx context.Context, job *river.Job[tasks.UserDeleteArgs]) error {
	args := job.Args
	start := time.Now()

	uid, err := w.links.GetUserUID(ctx, args.Username)
	if err != nil {
		if errors.Is(err, syncerrors.ErrNotFound) {
			recordRun(ctx, w.metrics, tasks.KindUserDelete, "skipped", start)

			slog.Info("user delete: no uid mapped, nothing to delete", "username", args.Username)

			return nil
		}

		recordRun(ctx, w.metrics, tasks.KindUserDelete, outcomeForError(job.Attempt, job.MaxAttempts), start)

		return fmt.Errorf("resolve uid: %w", err)
	}

	if err := w.client.DeleteUser(ctx, uid); err != nil {
		recordRun(ctx, w.metrics, tasks.KindUserDelete, outcomeForError(job.Attempt, job.MaxAttempts), start)

		slog.Error("user delete failed", "username", args.Username, "uid", uid, "error", err)

		return fmt.Errorf("delete remote user: %w", err)
	}

	if err := w.links.DeleteUserLink(ctx, args.Username); err != nil {
		// Remote user is gone; a stale link row is harmless for correctness
		// and will be overwritten if the username is ever recreated.
		slog.Warn("user deleted remotely but link cleanup failed",
			"username", args.Username,
			"error", err,
		)
	}

	recordRun(ctx, w.metrics, tasks.KindUserDelete, "success", start)

	slog.Info("remote user deleted", "username", args.Username, "uid", uid)

	return nil
}
