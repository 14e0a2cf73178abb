// Package workers provides the River job workers that execute sync actions
// against the NodeBB Write API.
package workers

import (
	"context"
	"time"

	"github.com/edly-io/nodebb-sync/internal/observability"
	"github.com/edly-io/nodebb-sync/pkg/nodebb"
)

// SyncActionTimeout is the max duration for a single sync action (align with the HTTP client timeout).
const SyncActionTimeout = 35 * time.Second

// ForumAPI is the subset of the NodeBB client the workers use.
type ForumAPI interface {
	CreateUser(ctx context.Context, req nodebb.CreateUserRequest) (int64, error)
	UpdateProfile(ctx context.Context, uid int64, req nodebb.UpdateProfileRequest) error
	DeleteUser(ctx context.Context, uid int64) error
	CreateCategory(ctx context.Context, req nodebb.CreateCategoryRequest) (int64, error)
	DeleteCategory(ctx context.Context, cid int64) error
	CreateGroup(ctx context.Context, req nodebb.CreateGroupRequest) (string, error)
	JoinGroup(ctx context.Context, slug string, uid int64) error
	LeaveGroup(ctx context.Context, slug string, uid int64) error
}

// recordRun records one action execution. metrics may be nil.
func recordRun(ctx context.Context, metrics observability.SyncMetrics, taskKind, outcome string, start time.Time) {
	if metrics == nil {
		return
	}

	metrics.RecordActionRun(ctx, taskKind, outcome, time.Since(start))
}

// outcomeForError maps a failed attempt to its metric outcome.
func outcomeForError(attempt, maxAttempts int) string {
	if attempt >= maxAttempts {
		return "failed_final"
	}

	return "retry"
}
