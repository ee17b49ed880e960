package worker_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"photoshuttle/internal/worker"
)

type scriptedJob struct {
	mu        sync.Mutex
	setups    int
	teardowns int
	ticks     int
	tick      func(ctx context.Context, n int) (bool, error)
	setupErr  error
}

func (j *scriptedJob) Setup(ctx context.Context) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.setups++
	return j.setupErr
}

func (j *scriptedJob) Tick(ctx context.Context) (bool, error) {
	j.mu.Lock()
	j.ticks++
	n := j.ticks
	fn := j.tick
	j.mu.Unlock()
	if fn == nil {
		return false, nil
	}
	return fn(ctx, n)
}

func (j *scriptedJob) Teardown() {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.teardowns++
}

func (j *scriptedJob) counts() (setups, ticks, teardowns int) {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.setups, j.ticks, j.teardowns
}

func TestWorkerRunsLifecycleOnce(t *testing.T) {
	job := &scriptedJob{}
	w := worker.New("test", job, worker.FixedDelay(time.Millisecond), nil)

	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	time.Sleep(20 * time.Millisecond)
	w.Stop()

	setups, ticks, teardowns := job.counts()
	if setups != 1 || teardowns != 1 {
		t.Fatalf("setups=%d teardowns=%d, want 1/1", setups, teardowns)
	}
	if ticks == 0 {
		t.Fatal("expected at least one tick")
	}
	if err := w.Start(context.Background()); err == nil {
		t.Fatal("expected error on second Start")
	}
}

func TestWorkerSurvivesTickErrors(t *testing.T) {
	job := &scriptedJob{
		tick: func(ctx context.Context, n int) (bool, error) {
			if n%2 == 1 {
				return false, errors.New("boom")
			}
			return true, nil
		},
	}
	w := worker.New("flaky", job, worker.FixedDelay(time.Millisecond), nil)
	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	time.Sleep(30 * time.Millisecond)
	w.Stop()

	_, ticks, _ := job.counts()
	if ticks < 4 {
		t.Fatalf("expected the loop to continue past errors, got %d ticks", ticks)
	}
}

func TestWorkerSurvivesTickPanic(t *testing.T) {
	job := &scriptedJob{
		tick: func(ctx context.Context, n int) (bool, error) {
			if n == 1 {
				panic("unexpected")
			}
			return false, nil
		},
	}
	w := worker.New("panicky", job, worker.FixedDelay(time.Millisecond), nil)
	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	time.Sleep(20 * time.Millisecond)
	w.Stop()

	_, ticks, teardowns := job.counts()
	if ticks < 2 {
		t.Fatalf("expected loop to survive panic, got %d ticks", ticks)
	}
	if teardowns != 1 {
		t.Fatalf("teardowns = %d", teardowns)
	}
}

func TestWorkerStopInterruptsBackoffWait(t *testing.T) {
	job := &scriptedJob{}
	// A long fixed delay: Stop must not wait it out.
	w := worker.New("sleepy", job, worker.FixedDelay(time.Hour), nil)
	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	time.Sleep(10 * time.Millisecond)

	stopped := make(chan struct{})
	go func() {
		w.Stop()
		close(stopped)
	}()
	select {
	case <-stopped:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop did not interrupt the wait")
	}
}

func TestWorkerSetupFailureTearsDown(t *testing.T) {
	job := &scriptedJob{setupErr: errors.New("store unreachable")}
	w := worker.New("broken", job, worker.FixedDelay(time.Millisecond), nil)
	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	w.Stop()

	setups, ticks, teardowns := job.counts()
	if setups != 1 || teardowns != 1 {
		t.Fatalf("setups=%d teardowns=%d, want 1/1", setups, teardowns)
	}
	if ticks != 0 {
		t.Fatalf("expected no ticks after setup failure, got %d", ticks)
	}
	if w.Err() == nil {
		t.Fatal("expected Err to surface the setup failure")
	}
}

func TestWorkerLifecycleRunsWhenStoppedBeforeFirstTick(t *testing.T) {
	job := &scriptedJob{}
	w := worker.New("early-stop", job, worker.FixedDelay(time.Millisecond), nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := w.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	w.Stop()

	setups, _, teardowns := job.counts()
	if setups != 1 || teardowns != 1 {
		t.Fatalf("setups=%d teardowns=%d, want 1/1", setups, teardowns)
	}
}

func TestWorkerIdleResetsOnProgress(t *testing.T) {
	var worked atomic.Bool
	job := &scriptedJob{
		tick: func(ctx context.Context, n int) (bool, error) {
			return worked.Load(), nil
		},
	}
	w := worker.New("idle", job, worker.FixedDelay(time.Millisecond), nil)
	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer w.Stop()

	time.Sleep(50 * time.Millisecond)
	idleBefore := w.Idle()
	if idleBefore <= 0 {
		t.Fatalf("idle = %v", idleBefore)
	}

	worked.Store(true)
	time.Sleep(20 * time.Millisecond)
	if idleAfter := w.Idle(); idleAfter >= idleBefore {
		t.Fatalf("idle did not reset: before=%v after=%v", idleBefore, idleAfter)
	}
}
