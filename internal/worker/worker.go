package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"photoshuttle/internal/logging"
)

// Job is one unit of repeating work. Setup and Teardown run exactly once,
// before the first tick and after the last; Tick performs at most one unit of
// progress and reports whether it made any.
type Job interface {
	Setup(ctx context.Context) error
	Tick(ctx context.Context) (bool, error)
	Teardown()
}

// Worker drives a Job on its own goroutine: tick, wait, repeat. A productive
// tick resets the delay policy and stamps the idle clock; an unproductive or
// failing tick lets the delay grow. Tick errors are logged and absorbed so a
// single failing item never halts the loop.
type Worker struct {
	name   string
	job    Job
	policy DelayPolicy
	logger *slog.Logger

	mu         sync.Mutex
	lastWorked time.Time
	setupErr   error

	cancel  context.CancelFunc
	done    chan struct{}
	started bool
}

// New constructs a worker around a job. The delay policy instance must not be
// shared with any other worker.
func New(name string, job Job, policy DelayPolicy, logger *slog.Logger) *Worker {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Worker{
		name:   name,
		job:    job,
		policy: policy,
		logger: logger.With(logging.String(logging.FieldWorker, name)),
		done:   make(chan struct{}),
	}
}

// Name returns the worker's display name.
func (w *Worker) Name() string {
	return w.name
}

// Start launches the worker loop. It may be called once.
func (w *Worker) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.started {
		return errors.New("worker already started")
	}
	w.started = true
	w.lastWorked = time.Now()

	runCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel
	go w.run(runCtx)
	return nil
}

// Stop requests termination, interrupts any in-progress wait, and blocks
// until the loop has torn down. A tick already in flight runs to completion.
func (w *Worker) Stop() {
	w.mu.Lock()
	cancel := w.cancel
	started := w.started
	w.mu.Unlock()
	if !started {
		return
	}
	if cancel != nil {
		cancel()
	}
	<-w.done
}

// Idle returns the elapsed time since the worker last made progress
// (initialized to the start time).
func (w *Worker) Idle() time.Duration {
	w.mu.Lock()
	defer w.mu.Unlock()
	return time.Since(w.lastWorked)
}

// Err reports a setup failure, if any. A worker whose setup failed has
// already torn down and will never tick.
func (w *Worker) Err() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.setupErr
}

func (w *Worker) run(ctx context.Context) {
	defer close(w.done)

	if err := w.job.Setup(ctx); err != nil {
		w.mu.Lock()
		w.setupErr = err
		w.mu.Unlock()
		w.logger.Error("worker setup failed", logging.Error(err))
		w.job.Teardown()
		return
	}
	defer w.job.Teardown()

	w.logger.Info("worker started")
	defer w.logger.Info("worker stopped")

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		worked, err := w.safeTick(ctx)
		if err != nil && !errors.Is(err, context.Canceled) {
			w.logger.Warn("worker tick failed", logging.Error(err))
		}
		if worked {
			w.policy.Reset()
			w.mu.Lock()
			w.lastWorked = time.Now()
			w.mu.Unlock()
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(w.policy.NextDelay()):
		}
	}
}

func (w *Worker) safeTick(ctx context.Context) (worked bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			worked = false
			err = fmt.Errorf("tick panicked: %v", r)
		}
	}()
	return w.job.Tick(ctx)
}
