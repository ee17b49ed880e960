package pipeline

import (
	"context"
	"log/slog"

	"photoshuttle/internal/artifact"
	"photoshuttle/internal/logging"
)

// Reporter logs aggregate pipeline progress on a fixed interval. It is
// read-only and never reports work, so it has no effect on idle shutdown.
type Reporter struct {
	store  *artifact.Store
	logger *slog.Logger
}

// NewReporter builds the progress reporting job.
func NewReporter(store *artifact.Store, logger *slog.Logger) *Reporter {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Reporter{
		store:  store,
		logger: logging.NewComponentLogger(logger, "reporter"),
	}
}

func (r *Reporter) Setup(ctx context.Context) error { return nil }

func (r *Reporter) Teardown() {}

func (r *Reporter) Tick(ctx context.Context) (bool, error) {
	progress, err := r.store.Progress(ctx)
	if err != nil {
		return false, err
	}
	r.logger.Info("pipeline progress",
		logging.Int("total", progress.Total),
		logging.Int("downloaded", progress.Downloaded),
		logging.Int("uploaded", progress.Uploaded),
		logging.Int("appended", progress.Appended),
		logging.Int("completed", progress.Completed))
	return false, nil
}
