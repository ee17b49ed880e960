package daemon

import (
	"context"
	"io"
	"testing"

	"photoshuttle/internal/config"
	"photoshuttle/internal/pipeline"
	"photoshuttle/internal/services/gphotos"
	"photoshuttle/internal/services/icloud"
	"photoshuttle/internal/testsupport"
)

type emptyLibrary struct{}

func (emptyLibrary) Photos(ctx context.Context) (icloud.Cursor, error) { return emptyCursor{}, nil }

func (emptyLibrary) Download(ctx context.Context, photo icloud.Photo, w io.Writer) error {
	return nil
}

type emptyCursor struct{}

func (emptyCursor) Next(ctx context.Context) (*icloud.Photo, error) { return nil, nil }

type idleService struct{}

func (idleService) Upload(ctx context.Context, r io.Reader, name string) (string, error) {
	return "", nil
}

func (idleService) ListAlbums(ctx context.Context) ([]gphotos.Album, error) { return nil, nil }

func (idleService) CreateAlbum(ctx context.Context, title string) (gphotos.Album, error) {
	return gphotos.Album{Title: title}, nil
}

func (idleService) Append(ctx context.Context, albumID string, items []gphotos.NewMediaItem) ([]gphotos.AppendResult, error) {
	return nil, nil
}

func newTestDaemon(t *testing.T, cfg *config.Config) *Daemon {
	t.Helper()
	store := testsupport.MustOpenStore(t, cfg)
	p := pipeline.New(cfg, store, emptyLibrary{}, idleService{}, nil)
	d, err := New(cfg, store, p, nil)
	if err != nil {
		t.Fatalf("new daemon: %v", err)
	}
	return d
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return testsupport.NewConfig(t)
}

func TestDaemonLifecycle(t *testing.T) {
	cfg := testConfig(t)
	d := newTestDaemon(t, cfg)

	ctx := context.Background()
	if err := d.Start(ctx); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	if err := d.Start(ctx); err == nil {
		t.Fatal("second start on a running daemon must fail")
	}

	status, err := d.Status(ctx)
	if err != nil {
		t.Fatalf("status failed: %v", err)
	}
	if !status.Running {
		t.Fatal("expected running status")
	}
	if status.DatabasePath != cfg.DatabasePath {
		t.Fatalf("unexpected database path %q", status.DatabasePath)
	}

	d.Stop()
	status, err = d.Status(ctx)
	if err != nil {
		t.Fatalf("status failed: %v", err)
	}
	if status.Running {
		t.Fatal("expected stopped status")
	}
}

func TestDaemonSingleInstanceLock(t *testing.T) {
	cfg := testConfig(t)
	first := newTestDaemon(t, cfg)
	ctx := context.Background()
	if err := first.Start(ctx); err != nil {
		t.Fatalf("first instance start failed: %v", err)
	}
	defer first.Stop()

	secondCfg := testConfig(t)
	secondCfg.LogDir = cfg.LogDir // same lock file
	second := newTestDaemon(t, secondCfg)
	if err := second.Start(ctx); err == nil {
		second.Stop()
		t.Fatal("second instance must not acquire the lock")
	}

	// Releasing the lock lets a new instance start.
	first.Stop()
	if err := second.Start(ctx); err != nil {
		t.Fatalf("start after lock release failed: %v", err)
	}
	second.Stop()
}

func TestDaemonStopIsIdempotent(t *testing.T) {
	cfg := testConfig(t)
	d := newTestDaemon(t, cfg)
	d.Stop()
	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	d.Stop()
	d.Stop()
}
