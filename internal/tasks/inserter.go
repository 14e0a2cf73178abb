package tasks

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/rivertype"
)

// QueueName is the River queue the sync workers consume.
const QueueName = "nodebb_sync"

// TaskInserter enqueues one sync action. The bridge depends on this interface
// so it never touches River directly.
type TaskInserter interface {
	// Insert enqueues a job for args. Returns an error if the job could not
	// be inserted.
	Insert(ctx context.Context, args river.JobArgs) error
}

// RiverTaskInserter implements TaskInserter using the River client.
type RiverTaskInserter struct {
	client      *river.Client[pgx.Tx]
	maxAttempts int
}

// NewRiverTaskInserter creates a River-based task inserter. maxAttempts is the
// per-job retry budget applied by the queue.
func NewRiverTaskInserter(client *river.Client[pgx.Tx], maxAttempts int) *RiverTaskInserter {
	return &RiverTaskInserter{client: client, maxAttempts: maxAttempts}
}

// Insert enqueues a sync job with uniqueness constraints so the same pending
// action is never queued twice.
func (r *RiverTaskInserter) Insert(ctx context.Context, args river.JobArgs) error {
	_, err := r.client.Insert(ctx, args, &river.InsertOpts{
		Queue:       QueueName,
		MaxAttempts: r.maxAttempts,
		UniqueOpts: river.UniqueOpts{
			// Only one pending job per action (by args)
			ByArgs: true,
			// Consider jobs in these states for deduplication
			// Note: JobStatePending is required by River when using ByState
			ByState: []rivertype.JobState{
				rivertype.JobStatePending,
				rivertype.JobStateAvailable,
				rivertype.JobStateRunning,
				rivertype.JobStateRetryable,
				rivertype.JobStateScheduled,
			},
		},
	})
	if err != nil {
		return fmt.Errorf("insert %s job: %w", args.Kind(), err)
	}

	return nil
}

var _ TaskInserter = (*RiverTaskInserter)(nil)
