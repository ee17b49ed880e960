package artifact

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// ErrStageOrder is returned when a mutation would set a forward flag before
// the upstream flag is in place.
var ErrStageOrder = errors.New("stage ordering violated")

// Store manages artifact persistence backed by SQLite. Every pipeline worker
// owns its own Store handle; SQLite's WAL mode plus the busy timeout make
// interleaved access from multiple handles safe.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the artifact database and ensures the
// schema exists.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("ensure database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: path}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

// EnsureArtifact records a photo on first sighting. The insert is
// first-seen-wins: re-scanning a listing containing a known remote id neither
// duplicates the record nor clears existing flags. It returns the stored
// record and whether this call inserted it.
func (s *Store) EnsureArtifact(ctx context.Context, remoteID, name string, size int64, created time.Time) (*Artifact, bool, error) {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	res, err := s.db.ExecContext(
		ctx,
		`INSERT OR IGNORE INTO artifacts (remote_id, name, size, created, created_at, updated_at)
         VALUES (?, ?, ?, ?, ?, ?)`,
		remoteID, name, size, created.Unix(), now, now,
	)
	if err != nil {
		return nil, false, fmt.Errorf("insert artifact: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, false, fmt.Errorf("rows affected: %w", err)
	}

	stored, err := s.GetByRemoteID(ctx, remoteID)
	if err != nil {
		return nil, false, err
	}
	if stored == nil {
		return nil, false, fmt.Errorf("artifact %s missing after insert", remoteID)
	}
	return stored, affected > 0, nil
}

// GetByRemoteID fetches an artifact by its source-service identifier.
func (s *Store) GetByRemoteID(ctx context.Context, remoteID string) (*Artifact, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+artifactColumns+` FROM artifacts WHERE remote_id = ?`, remoteID)
	record, err := scanArtifact(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get artifact: %w", err)
	}
	return record, nil
}

// MarkDownloaded flags an artifact's local bytes as fully written.
func (s *Store) MarkDownloaded(ctx context.Context, remoteID string) error {
	return s.guardedUpdate(ctx, "mark downloaded", remoteID,
		`UPDATE artifacts SET downloaded = 1, updated_at = ? WHERE remote_id = ?`,
		timestamp(), remoteID)
}

// PendingUpload returns artifacts with local bytes but no destination token.
func (s *Store) PendingUpload(ctx context.Context) ([]*Artifact, error) {
	return s.selectArtifacts(ctx,
		`SELECT `+artifactColumns+` FROM artifacts
         WHERE downloaded = 1 AND upload_token IS NULL ORDER BY row_id`)
}

// MarkUploaded records the destination service's upload token. It refuses to
// run ahead of the download flag.
func (s *Store) MarkUploaded(ctx context.Context, remoteID, token string) error {
	if token == "" {
		return errors.New("upload token must not be empty")
	}
	return s.guardedUpdate(ctx, "mark uploaded", remoteID,
		`UPDATE artifacts SET upload_token = ?, updated_at = ? WHERE remote_id = ? AND downloaded = 1`,
		token, timestamp(), remoteID)
}

// PendingAlbum returns uploaded artifacts not yet confirmed in the album.
func (s *Store) PendingAlbum(ctx context.Context) ([]*Artifact, error) {
	return s.selectArtifacts(ctx,
		`SELECT `+artifactColumns+` FROM artifacts
         WHERE upload_token IS NOT NULL AND in_album = 0 ORDER BY row_id`)
}

// MarkInAlbum records confirmed album membership for one artifact.
func (s *Store) MarkInAlbum(ctx context.Context, remoteID string) error {
	return s.guardedUpdate(ctx, "mark in album", remoteID,
		`UPDATE artifacts SET in_album = 1, updated_at = ? WHERE remote_id = ? AND upload_token IS NOT NULL`,
		timestamp(), remoteID)
}

// PendingReclaim returns album-confirmed artifacts whose local bytes remain.
func (s *Store) PendingReclaim(ctx context.Context) ([]*Artifact, error) {
	return s.selectArtifacts(ctx,
		`SELECT `+artifactColumns+` FROM artifacts
         WHERE in_album = 1 AND reclaimed = 0 ORDER BY row_id`)
}

// MarkReclaimed records that the local byte file has been deleted. Local
// bytes are never reclaimed before album membership is confirmed.
func (s *Store) MarkReclaimed(ctx context.Context, remoteID string) error {
	return s.guardedUpdate(ctx, "mark reclaimed", remoteID,
		`UPDATE artifacts SET reclaimed = 1, updated_at = ? WHERE remote_id = ? AND in_album = 1`,
		timestamp(), remoteID)
}

// List returns artifacts, optionally filtered to a single pipeline stage.
func (s *Store) List(ctx context.Context, stages ...Stage) ([]*Artifact, error) {
	records, err := s.selectArtifacts(ctx, `SELECT `+artifactColumns+` FROM artifacts ORDER BY row_id`)
	if err != nil {
		return nil, err
	}
	if len(stages) == 0 {
		return records, nil
	}
	wanted := make(map[Stage]struct{}, len(stages))
	for _, stage := range stages {
		wanted[stage] = struct{}{}
	}
	filtered := records[:0]
	for _, record := range records {
		if _, ok := wanted[record.Stage()]; ok {
			filtered = append(filtered, record)
		}
	}
	return filtered, nil
}

// Progress returns aggregate per-stage counts in a single query.
func (s *Store) Progress(ctx context.Context) (Progress, error) {
	row := s.db.QueryRowContext(ctx, `SELECT
        COUNT(row_id),
        COUNT(CASE WHEN downloaded = 1 THEN 1 END),
        COUNT(CASE WHEN upload_token IS NOT NULL THEN 1 END),
        COUNT(CASE WHEN in_album = 1 THEN 1 END),
        COUNT(CASE WHEN reclaimed = 1 THEN 1 END)
        FROM artifacts`)

	var progress Progress
	if err := row.Scan(&progress.Total, &progress.Downloaded, &progress.Uploaded, &progress.Appended, &progress.Completed); err != nil {
		return Progress{}, fmt.Errorf("aggregate progress: %w", err)
	}
	return progress, nil
}

// guardedUpdate runs a flag transition whose WHERE clause encodes the stage
// ordering invariant. Zero affected rows means the upstream flag was not set
// (or the artifact is unknown), which callers treat as ErrStageOrder.
func (s *Store) guardedUpdate(ctx context.Context, operation, remoteID, query string, args ...any) error {
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%s: %w", operation, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s rows affected: %w", operation, err)
	}
	if affected == 0 {
		return fmt.Errorf("%s %s: %w", operation, remoteID, ErrStageOrder)
	}
	return nil
}

func (s *Store) selectArtifacts(ctx context.Context, query string, args ...any) ([]*Artifact, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query artifacts: %w", err)
	}
	defer rows.Close()

	var records []*Artifact
	for rows.Next() {
		record, err := scanArtifact(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

const artifactColumns = "row_id, remote_id, name, size, created, downloaded, upload_token, in_album, reclaimed, created_at, updated_at"

func timestamp() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}

func scanArtifact(scanner interface{ Scan(dest ...any) error }) (*Artifact, error) {
	var (
		rowID       int64
		remoteID    string
		name        string
		size        int64
		created     int64
		downloaded  int64
		uploadToken sql.NullString
		inAlbum     int64
		reclaimed   int64
		createdRaw  string
		updatedRaw  string
	)

	if err := scanner.Scan(
		&rowID,
		&remoteID,
		&name,
		&size,
		&created,
		&downloaded,
		&uploadToken,
		&inAlbum,
		&reclaimed,
		&createdRaw,
		&updatedRaw,
	); err != nil {
		return nil, err
	}

	record := &Artifact{
		RowID:       rowID,
		RemoteID:    remoteID,
		Name:        name,
		Size:        size,
		Created:     time.Unix(created, 0).UTC(),
		Downloaded:  downloaded != 0,
		UploadToken: uploadToken.String,
		InAlbum:     inAlbum != 0,
		Reclaimed:   reclaimed != 0,
	}
	if parsed, err := time.Parse(time.RFC3339Nano, createdRaw); err == nil {
		record.CreatedAt = parsed
	}
	if parsed, err := time.Parse(time.RFC3339Nano, updatedRaw); err == nil {
		record.UpdatedAt = parsed
	}
	return record, nil
}
