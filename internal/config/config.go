package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// ICloud contains configuration for the source photo library service.
type ICloud struct {
	BaseURL        string `toml:"base_url"`
	SessionFile    string `toml:"session_file"`
	PageSize       int    `toml:"page_size"`
	RequestTimeout int    `toml:"request_timeout"`
}

// GPhotos contains configuration for the destination photo service.
type GPhotos struct {
	BaseURL           string  `toml:"base_url"`
	UploadURL         string  `toml:"upload_url"`
	TokenFile         string  `toml:"token_file"`
	AlbumTitle        string  `toml:"album_title"`
	RequestTimeout    int     `toml:"request_timeout"`
	RequestsPerSecond float64 `toml:"requests_per_second"`
}

// Pipeline contains daemon timing and backoff intervals.
type Pipeline struct {
	IdleTimeout          int `toml:"idle_timeout"`
	ShutdownPollInterval int `toml:"shutdown_poll_interval"`
	ReportInterval       int `toml:"report_interval"`
	BackoffMinMS         int `toml:"backoff_min_ms"`
	BackoffMaxMS         int `toml:"backoff_max_ms"`
	DownloadBackoffMinMS int `toml:"download_backoff_min_ms"`
	DownloadBackoffMaxMS int `toml:"download_backoff_max_ms"`
}

// Config encapsulates all configuration values for photoshuttle.
type Config struct {
	StorageDir   string `toml:"storage_dir"`
	DatabasePath string `toml:"database_path"`
	LogDir       string `toml:"log_dir"`
	LogLevel     string `toml:"log_level"`
	LogFormat    string `toml:"log_format"`

	ICloud   ICloud   `toml:"icloud"`
	GPhotos  GPhotos  `toml:"gphotos"`
	Pipeline Pipeline `toml:"pipeline"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/photoshuttle/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned
// config has all path fields expanded and normalized. The second return value
// is the resolved path, the third reports whether the file existed.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		if _, err := os.Stat(expanded); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}
	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	return defaultPath, false, nil
}

func (c *Config) normalize() error {
	var err error
	if c.StorageDir, err = expandPath(c.StorageDir); err != nil {
		return fmt.Errorf("storage_dir: %w", err)
	}
	if c.DatabasePath, err = expandPath(c.DatabasePath); err != nil {
		return fmt.Errorf("database_path: %w", err)
	}
	if c.LogDir, err = expandPath(c.LogDir); err != nil {
		return fmt.Errorf("log_dir: %w", err)
	}
	if c.ICloud.SessionFile, err = expandPath(c.ICloud.SessionFile); err != nil {
		return fmt.Errorf("icloud.session_file: %w", err)
	}
	if c.GPhotos.TokenFile, err = expandPath(c.GPhotos.TokenFile); err != nil {
		return fmt.Errorf("gphotos.token_file: %w", err)
	}

	if value := strings.TrimSpace(os.Getenv("PHOTOSHUTTLE_ICLOUD_SESSION_FILE")); value != "" {
		if c.ICloud.SessionFile, err = expandPath(value); err != nil {
			return fmt.Errorf("PHOTOSHUTTLE_ICLOUD_SESSION_FILE: %w", err)
		}
	}
	if value := strings.TrimSpace(os.Getenv("PHOTOSHUTTLE_GPHOTOS_TOKEN_FILE")); value != "" {
		if c.GPhotos.TokenFile, err = expandPath(value); err != nil {
			return fmt.Errorf("PHOTOSHUTTLE_GPHOTOS_TOKEN_FILE: %w", err)
		}
	}
	return nil
}

// EnsureDirectories creates the directories the pipeline writes to.
func (c *Config) EnsureDirectories() error {
	dirs := []string{c.StorageDir, c.LogDir, filepath.Dir(c.DatabasePath)}
	for _, dir := range dirs {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// IdleTimeout returns the all-workers-idle threshold that ends the migration.
func (c *Config) IdleTimeout() time.Duration {
	return time.Duration(c.Pipeline.IdleTimeout) * time.Second
}

// ShutdownPollInterval returns the cadence of the orchestrator idle check.
func (c *Config) ShutdownPollInterval() time.Duration {
	return time.Duration(c.Pipeline.ShutdownPollInterval) * time.Second
}

// ReportInterval returns the progress reporter cadence.
func (c *Config) ReportInterval() time.Duration {
	return time.Duration(c.Pipeline.ReportInterval) * time.Second
}

// Backoff returns the store-polling worker backoff band.
func (c *Config) Backoff() (min, max time.Duration) {
	return time.Duration(c.Pipeline.BackoffMinMS) * time.Millisecond,
		time.Duration(c.Pipeline.BackoffMaxMS) * time.Millisecond
}

// DownloadBackoff returns the listing/download worker backoff band.
func (c *Config) DownloadBackoff() (min, max time.Duration) {
	return time.Duration(c.Pipeline.DownloadBackoffMinMS) * time.Millisecond,
		time.Duration(c.Pipeline.DownloadBackoffMaxMS) * time.Millisecond
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

// Sample returns the embedded sample configuration text.
func Sample() string {
	return sampleConfig
}
