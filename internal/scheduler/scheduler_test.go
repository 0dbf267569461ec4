package scheduler

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/RutamBhagat/automated-price-tracking/internal/domain"
)

type fakeChecker struct {
	mu    sync.Mutex
	calls int
}

func (f *fakeChecker) RunCheckCycle(ctx context.Context) (domain.CycleReport, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	now := time.Now().UTC()
	return domain.CycleReport{StartedAt: now, FinishedAt: now}, nil
}

func (f *fakeChecker) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func TestScheduler_RunsImmediatelyThenOnTicks(t *testing.T) {
	checker := &fakeChecker{}
	s := New(checker, 20*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		s.Run(ctx)
	}()

	assert.Eventually(t, func() bool {
		return checker.callCount() >= 3
	}, time.Second, 5*time.Millisecond, "expected an immediate cycle plus ticked cycles")

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("scheduler did not stop after context cancellation")
	}
}

func TestScheduler_StopsOnCancelledContext(t *testing.T) {
	checker := &fakeChecker{}
	s := New(checker, time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		s.Run(ctx)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("scheduler did not stop after context cancellation")
	}

	assert.Zero(t, checker.callCount(), "no cycle should run on a dead context")
}
