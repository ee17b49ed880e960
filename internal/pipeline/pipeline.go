package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"photoshuttle/internal/artifact"
	"photoshuttle/internal/config"
	"photoshuttle/internal/logging"
	"photoshuttle/internal/services/gphotos"
	"photoshuttle/internal/services/icloud"
	"photoshuttle/internal/worker"
)

// Pipeline wires the four stage workers and the progress reporter together
// and runs them until the context is cancelled or every stage has been idle
// past the configured threshold.
type Pipeline struct {
	cfg    *config.Config
	store  *artifact.Store
	logger *slog.Logger

	stages   []*worker.Worker
	reporter *worker.Worker
	started  bool
}

// New assembles a pipeline from its collaborators. The store and both
// service clients must outlive the pipeline.
func New(cfg *config.Config, store *artifact.Store, library icloud.Library, photos gphotos.Service, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = logging.NewNop()
	}
	logger = logging.NewComponentLogger(logger, "pipeline")

	backoffMin, backoffMax := cfg.Backoff()
	downloadMin, downloadMax := cfg.DownloadBackoff()
	storageDir := cfg.StorageDir

	stages := []*worker.Worker{
		worker.New("download",
			NewDownloader(store, library, storageDir, logger),
			worker.NewBackoff(downloadMin, downloadMax), logger),
		worker.New("upload",
			NewUploader(store, photos, storageDir, logger),
			worker.NewBackoff(backoffMin, backoffMax), logger),
		worker.New("append",
			NewAlbumAppender(store, photos, cfg.GPhotos.AlbumTitle, logger),
			worker.NewBackoff(backoffMin, backoffMax), logger),
		worker.New("reclaim",
			NewReclaimer(store, storageDir, logger),
			worker.NewBackoff(backoffMin, backoffMax), logger),
	}
	reporter := worker.New("report",
		NewReporter(store, logger),
		worker.FixedDelay(cfg.ReportInterval()), logger)

	return &Pipeline{
		cfg:      cfg,
		store:    store,
		logger:   logger,
		stages:   stages,
		reporter: reporter,
	}
}

// Start launches every worker. It may be called once.
func (p *Pipeline) Start(ctx context.Context) error {
	if p.started {
		return fmt.Errorf("pipeline already started")
	}
	p.started = true
	for _, w := range p.stages {
		if err := w.Start(ctx); err != nil {
			return fmt.Errorf("start %s worker: %w", w.Name(), err)
		}
	}
	if err := p.reporter.Start(ctx); err != nil {
		return fmt.Errorf("start report worker: %w", err)
	}
	p.logger.Info("pipeline started",
		logging.Duration("idle_timeout", p.cfg.IdleTimeout()))
	return nil
}

// Wait blocks until the context is cancelled or every stage worker has been
// idle for at least the configured timeout. A worker whose setup failed
// terminates the wait immediately. The reporter never counts toward idle.
func (p *Pipeline) Wait(ctx context.Context) error {
	idleTimeout := p.cfg.IdleTimeout()
	poll := p.cfg.ShutdownPollInterval()

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("shutdown requested")
			return ctx.Err()
		case <-time.After(poll):
		}

		for _, w := range p.stages {
			if err := w.Err(); err != nil {
				return fmt.Errorf("%s worker: %w", w.Name(), err)
			}
		}

		if idle := p.minIdle(); idle >= idleTimeout {
			p.logger.Info("pipeline idle, shutting down",
				logging.Duration("idle", idle))
			return nil
		}
	}
}

// Stop halts every worker and blocks until all loops have exited. Stage
// workers stop before the reporter so the final progress line reflects their
// last writes.
func (p *Pipeline) Stop() {
	for _, w := range p.stages {
		w.Stop()
	}
	p.reporter.Stop()
	p.logger.Info("pipeline stopped")
}

// Run starts the pipeline, waits for idle shutdown or cancellation, and
// stops all workers before returning. A context cancellation is an orderly
// exit, not an error.
func (p *Pipeline) Run(ctx context.Context) error {
	if err := p.Start(ctx); err != nil {
		return err
	}
	err := p.Wait(ctx)
	p.Stop()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func (p *Pipeline) minIdle() time.Duration {
	lowest := time.Duration(-1)
	for _, w := range p.stages {
		if idle := w.Idle(); lowest < 0 || idle < lowest {
			lowest = idle
		}
	}
	return lowest
}
