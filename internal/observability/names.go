package observability

import (
	"github.com/edly-io/nodebb-sync/internal/datatypes"
)

// Metric names (Prometheus / OpenTelemetry).
const (
	MetricNameEventsDropped      = "nodebb_sync_events_dropped_total"
	MetricNameActionsEnqueued    = "nodebb_sync_actions_enqueued_total"
	MetricNameEnqueueErrors      = "nodebb_sync_enqueue_errors_total"
	MetricNameEnqueueRetries     = "nodebb_sync_enqueue_retries_total"
	MetricNameActionRuns         = "nodebb_sync_action_runs_total"
	MetricNameActionRunDuration  = "nodebb_sync_action_run_duration_seconds"
)

// Attribute keys.
const (
	AttrEventKind = "event_kind"
	AttrTaskKind  = "task_kind"
	AttrOutcome   = "outcome"
)

// AllowedOutcomes for nodebb_sync_action_runs_total and the duration histogram.
var AllowedOutcomes = map[string]bool{
	"success":      true,
	"retry":        true,
	"failed_final": true,
	"skipped":      true,
}

// NormalizeEventKind returns kind if allowed, otherwise "unknown" (bounded cardinality).
func NormalizeEventKind(kind string) string {
	if datatypes.IsValidEventKind(kind) {
		return kind
	}

	return "unknown"
}

// NormalizeOutcome returns outcome if allowed, otherwise "unknown".
func NormalizeOutcome(outcome string) string {
	if AllowedOutcomes[outcome] {
		return outcome
	}

	return "unknown"
}
