package pipeline

import (
	"context"
	"io"
	"log/slog"

	"photoshuttle/internal/artifact"
	"photoshuttle/internal/fileutil"
	"photoshuttle/internal/logging"
	"photoshuttle/internal/services/icloud"
)

// Downloader walks the remote library one photo per tick, registers each
// photo in the store, and pulls its bytes to local storage. Photos already
// marked downloaded are skipped without counting as progress, so a fully
// mirrored library lets the backoff grow toward idle shutdown.
type Downloader struct {
	store      *artifact.Store
	library    icloud.Library
	storageDir string
	logger     *slog.Logger

	cursor icloud.Cursor
}

// NewDownloader builds the fetch/download stage job.
func NewDownloader(store *artifact.Store, library icloud.Library, storageDir string, logger *slog.Logger) *Downloader {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Downloader{
		store:      store,
		library:    library,
		storageDir: storageDir,
		logger:     logging.NewComponentLogger(logger, "downloader"),
	}
}

func (d *Downloader) Setup(ctx context.Context) error { return nil }

func (d *Downloader) Teardown() { d.cursor = nil }

func (d *Downloader) Tick(ctx context.Context) (bool, error) {
	if d.cursor == nil {
		cursor, err := d.library.Photos(ctx)
		if err != nil {
			return false, err
		}
		d.cursor = cursor
	}

	photo, err := d.cursor.Next(ctx)
	if err != nil {
		d.cursor = nil
		return false, err
	}
	if photo == nil {
		// End of the listing. Restart from the beginning next tick so
		// photos added to the library mid-run are picked up.
		d.cursor = nil
		return false, nil
	}

	record, inserted, err := d.store.EnsureArtifact(ctx, photo.ID, photo.Name, photo.Size, photo.Created)
	if err != nil {
		return false, err
	}
	if record.Downloaded {
		return false, nil
	}
	if inserted {
		d.logger.Info("discovered photo",
			logging.Int64(logging.FieldArtifactID, record.RowID),
			logging.String("name", record.Name))
	}

	path := LocalPath(d.storageDir, record.RowID)
	pr, pw := io.Pipe()
	go func() {
		pw.CloseWithError(d.library.Download(ctx, *photo, pw))
	}()
	// Close the read side on every exit so a file-side failure unblocks the
	// download goroutine instead of leaving it pinned on pipe writes.
	defer pr.Close()
	written, err := fileutil.WriteFileAtomic(path, pr)
	if err != nil {
		return false, err
	}
	if err := d.store.MarkDownloaded(ctx, record.RemoteID); err != nil {
		return false, err
	}

	d.logger.Info("downloaded photo",
		logging.Int64(logging.FieldArtifactID, record.RowID),
		logging.String("name", record.Name),
		logging.Int64("bytes", written))
	return true, nil
}
