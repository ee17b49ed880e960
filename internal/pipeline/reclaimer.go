package pipeline

import (
	"context"
	"log/slog"

	"photoshuttle/internal/artifact"
	"photoshuttle/internal/fileutil"
	"photoshuttle/internal/logging"
)

// Reclaimer deletes the local byte files of artifacts that have made it into
// the album, completing the pipeline for them. Deletion is idempotent; a file
// already gone still counts as reclaimed.
type Reclaimer struct {
	store      *artifact.Store
	storageDir string
	logger     *slog.Logger
}

// NewReclaimer builds the reclaim stage job.
func NewReclaimer(store *artifact.Store, storageDir string, logger *slog.Logger) *Reclaimer {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Reclaimer{
		store:      store,
		storageDir: storageDir,
		logger:     logging.NewComponentLogger(logger, "reclaimer"),
	}
}

func (r *Reclaimer) Setup(ctx context.Context) error { return nil }

func (r *Reclaimer) Teardown() {}

func (r *Reclaimer) Tick(ctx context.Context) (bool, error) {
	records, err := r.store.PendingReclaim(ctx)
	if err != nil {
		return false, err
	}

	worked := false
	var lastErr error
	for _, record := range records {
		if err := ctx.Err(); err != nil {
			return worked, err
		}
		path := LocalPath(r.storageDir, record.RowID)
		if err := fileutil.RemoveIfExists(path); err != nil {
			r.logger.Warn("reclaim failed",
				logging.Int64(logging.FieldArtifactID, record.RowID),
				logging.Error(err))
			lastErr = err
			continue
		}
		if err := r.store.MarkReclaimed(ctx, record.RemoteID); err != nil {
			return worked, err
		}
		r.logger.Info("reclaimed local file",
			logging.Int64(logging.FieldArtifactID, record.RowID),
			logging.String("name", record.Name))
		worked = true
	}
	return worked, lastErr
}
