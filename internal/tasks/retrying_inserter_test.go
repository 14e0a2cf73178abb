package tasks

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/riverqueue/river"
)

type flakyInserter struct {
	failures int
	calls    int
}

func (f *flakyInserter) Insert(_ context.Context, _ river.JobArgs) error {
	f.calls++
	if f.calls <= f.failures {
		return errors.New("transient failure")
	}
	return nil
}

func newTestRetrier(inner TaskInserter, maxRetries int) *RetryingTaskInserter {
	return NewRetryingTaskInserter(inner, RetryingTaskInserterConfig{
		MaxRetries:     maxRetries,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     5 * time.Millisecond,
	})
}

func TestRetryingTaskInserter_SucceedsFirstTry(t *testing.T) {
	inner := &flakyInserter{}
	r := newTestRetrier(inner, 3)

	if err := r.Insert(context.Background(), UserDeleteArgs{Username: "alice"}); err != nil {
		t.Fatalf("Insert() error = %v", err)
	}
	if inner.calls != 1 {
		t.Errorf("calls = %d, want 1", inner.calls)
	}
}

func TestRetryingTaskInserter_RetriesThenSucceeds(t *testing.T) {
	inner := &flakyInserter{failures: 2}
	r := newTestRetrier(inner, 3)

	if err := r.Insert(context.Background(), UserDeleteArgs{Username: "alice"}); err != nil {
		t.Fatalf("Insert() error = %v", err)
	}
	if inner.calls != 3 {
		t.Errorf("calls = %d, want 3", inner.calls)
	}
}

func TestRetryingTaskInserter_ExhaustsRetries(t *testing.T) {
	inner := &flakyInserter{failures: 10}
	r := newTestRetrier(inner, 2)

	err := r.Insert(context.Background(), UserDeleteArgs{Username: "alice"})
	if err == nil {
		t.Fatal("Insert() error = nil, want error")
	}
	if inner.calls != 3 {
		t.Errorf("calls = %d, want 3 (1 attempt + 2 retries)", inner.calls)
	}
}

func TestRetryingTaskInserter_ContextCancelledDuringBackoff(t *testing.T) {
	inner := &flakyInserter{failures: 10}
	r := NewRetryingTaskInserter(inner, RetryingTaskInserterConfig{
		MaxRetries:     5,
		InitialBackoff: time.Minute,
		MaxBackoff:     time.Minute,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	err := r.Insert(ctx, UserDeleteArgs{Username: "alice"})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Insert() error = %v, want context.DeadlineExceeded", err)
	}
	if inner.calls != 1 {
		t.Errorf("calls = %d, want 1", inner.calls)
	}
}

func TestRetryingTaskInserter_ZeroConfigDefaults(t *testing.T) {
	r := NewRetryingTaskInserter(&flakyInserter{}, RetryingTaskInserterConfig{MaxRetries: -1})

	if r.maxRetries != 0 {
		t.Errorf("maxRetries = %d, want 0", r.maxRetries)
	}
	if r.initialBackoff != defaultInitialBackoffWhenZero {
		t.Errorf("initialBackoff = %v, want %v", r.initialBackoff, defaultInitialBackoffWhenZero)
	}
	if r.maxBackoff < r.initialBackoff {
		t.Errorf("maxBackoff = %v, want >= initialBackoff", r.maxBackoff)
	}
}

func TestJitter_WithinBounds(t *testing.T) {
	r := newTestRetrier(&flakyInserter{}, 0)

	d := 100 * time.Millisecond
	for i := 0; i < 50; i++ {
		got := r.jitter(d)
		if got < d/2 || got > d {
			t.Fatalf("jitter(%v) = %v, want in [%v, %v]", d, got, d/2, d)
		}
	}
}
