package testsupport

import (
	"path/filepath"
	"testing"

	"photoshuttle/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test
// and fast worker cadences. It defaults common fields and applies any
// provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.StorageDir = filepath.Join(base, "downloaded")
	cfgVal.DatabasePath = filepath.Join(base, "artifacts.sqlite")
	cfgVal.LogDir = filepath.Join(base, "logs")
	cfgVal.ICloud.SessionFile = filepath.Join(base, "session.json")
	cfgVal.GPhotos.TokenFile = filepath.Join(base, "token.json")
	cfgVal.Pipeline.BackoffMinMS = 1
	cfgVal.Pipeline.BackoffMaxMS = 10
	cfgVal.Pipeline.DownloadBackoffMinMS = 1
	cfgVal.Pipeline.DownloadBackoffMaxMS = 10
	cfgVal.Pipeline.IdleTimeout = 1
	cfgVal.Pipeline.ShutdownPollInterval = 1

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	if err := builder.cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}
	return builder.cfg
}

// WithAlbumTitle overrides the destination album title on the test config.
func WithAlbumTitle(title string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.GPhotos.AlbumTitle = title
	}
}

// WithIdleTimeout overrides the idle shutdown threshold, in seconds.
func WithIdleTimeout(seconds int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Pipeline.IdleTimeout = seconds
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.StorageDir)
}
