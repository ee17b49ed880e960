package pipeline

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"photoshuttle/internal/artifact"
	"photoshuttle/internal/logging"
	"photoshuttle/internal/services/gphotos"
)

// AlbumAppender collects uploaded artifacts into one batch per tick and
// appends them to the configured album. The album is resolved by title once
// and cached; per-item outcomes are applied individually, while a failure of
// the whole batch call leaves every record untouched for the next tick.
type AlbumAppender struct {
	store      *artifact.Store
	albums     gphotos.Albums
	albumTitle string
	logger     *slog.Logger

	albumID string
}

// NewAlbumAppender builds the collection-append stage job.
func NewAlbumAppender(store *artifact.Store, albums gphotos.Albums, albumTitle string, logger *slog.Logger) *AlbumAppender {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &AlbumAppender{
		store:      store,
		albums:     albums,
		albumTitle: albumTitle,
		logger:     logging.NewComponentLogger(logger, "appender"),
	}
}

func (a *AlbumAppender) Setup(ctx context.Context) error { return nil }

func (a *AlbumAppender) Teardown() {}

func (a *AlbumAppender) Tick(ctx context.Context) (bool, error) {
	records, err := a.store.PendingAlbum(ctx)
	if err != nil {
		return false, err
	}
	if len(records) == 0 {
		return false, nil
	}

	albumID, err := a.ensureAlbum(ctx)
	if err != nil {
		return false, err
	}

	items := make([]gphotos.NewMediaItem, 0, len(records))
	byRef := make(map[string]*artifact.Artifact, len(records))
	for _, record := range records {
		ref := uuid.NewString()
		byRef[ref] = record
		items = append(items, gphotos.NewMediaItem{
			Ref:         ref,
			Token:       record.UploadToken,
			Description: record.Name,
		})
	}

	results, err := a.albums.Append(ctx, albumID, items)
	if err != nil {
		return false, err
	}

	worked := false
	for _, result := range results {
		record, ok := byRef[result.Ref]
		if !ok {
			continue
		}
		if !result.OK {
			a.logger.Warn("album append rejected",
				logging.Int64(logging.FieldArtifactID, record.RowID),
				logging.String("name", record.Name),
				logging.String("status", result.Status))
			continue
		}
		if err := a.store.MarkInAlbum(ctx, record.RemoteID); err != nil {
			return worked, err
		}
		a.logger.Info("appended to album",
			logging.Int64(logging.FieldArtifactID, record.RowID),
			logging.String("name", record.Name))
		worked = true
	}
	return worked, nil
}

func (a *AlbumAppender) ensureAlbum(ctx context.Context) (string, error) {
	if a.albumID != "" {
		return a.albumID, nil
	}
	albums, err := a.albums.ListAlbums(ctx)
	if err != nil {
		return "", err
	}
	for _, album := range albums {
		if album.Title == a.albumTitle {
			a.albumID = album.ID
			return a.albumID, nil
		}
	}
	album, err := a.albums.CreateAlbum(ctx, a.albumTitle)
	if err != nil {
		return "", err
	}
	a.logger.Info("created album", logging.String("title", album.Title))
	a.albumID = album.ID
	return a.albumID, nil
}
