package pipeline

import (
	"context"
	"log/slog"
	"os"

	"photoshuttle/internal/artifact"
	"photoshuttle/internal/logging"
	"photoshuttle/internal/services/gphotos"
)

// Uploader pushes downloaded bytes to the destination service and records
// the returned upload token. Each record is handled independently, so one
// failing upload never blocks the rest of the batch.
type Uploader struct {
	store      *artifact.Store
	uploads    gphotos.Uploader
	storageDir string
	logger     *slog.Logger
}

// NewUploader builds the upload stage job.
func NewUploader(store *artifact.Store, uploads gphotos.Uploader, storageDir string, logger *slog.Logger) *Uploader {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Uploader{
		store:      store,
		uploads:    uploads,
		storageDir: storageDir,
		logger:     logging.NewComponentLogger(logger, "uploader"),
	}
}

func (u *Uploader) Setup(ctx context.Context) error { return nil }

func (u *Uploader) Teardown() {}

func (u *Uploader) Tick(ctx context.Context) (bool, error) {
	records, err := u.store.PendingUpload(ctx)
	if err != nil {
		return false, err
	}

	worked := false
	var lastErr error
	for _, record := range records {
		if err := ctx.Err(); err != nil {
			return worked, err
		}
		if err := u.uploadOne(ctx, record); err != nil {
			u.logger.Warn("upload failed",
				logging.Int64(logging.FieldArtifactID, record.RowID),
				logging.String("name", record.Name),
				logging.Error(err))
			lastErr = err
			continue
		}
		worked = true
	}
	return worked, lastErr
}

func (u *Uploader) uploadOne(ctx context.Context, record *artifact.Artifact) error {
	path := LocalPath(u.storageDir, record.RowID)
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()

	token, err := u.uploads.Upload(ctx, file, record.Name)
	if err != nil {
		return err
	}
	if err := u.store.MarkUploaded(ctx, record.RemoteID, token); err != nil {
		return err
	}
	u.logger.Info("uploaded photo",
		logging.Int64(logging.FieldArtifactID, record.RowID),
		logging.String("name", record.Name))
	return nil
}
