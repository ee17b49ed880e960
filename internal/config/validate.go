package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateICloud(); err != nil {
		return err
	}
	if err := c.validateGPhotos(); err != nil {
		return err
	}
	if err := c.validatePipeline(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.StorageDir) == "" {
		return errors.New("storage_dir must be set")
	}
	if strings.TrimSpace(c.DatabasePath) == "" {
		return errors.New("database_path must be set")
	}
	return nil
}

func (c *Config) validateICloud() error {
	if strings.TrimSpace(c.ICloud.SessionFile) == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = "~/.config/photoshuttle/config.toml"
		}
		return fmt.Errorf("icloud.session_file is required. Set PHOTOSHUTTLE_ICLOUD_SESSION_FILE or edit %s (create with 'photoshuttle config init')", defaultPath)
	}
	if c.ICloud.PageSize <= 0 {
		return errors.New("icloud.page_size must be positive")
	}
	if c.ICloud.RequestTimeout <= 0 {
		return errors.New("icloud.request_timeout must be positive")
	}
	return nil
}

func (c *Config) validateGPhotos() error {
	if strings.TrimSpace(c.GPhotos.TokenFile) == "" {
		return errors.New("gphotos.token_file must be set")
	}
	if strings.TrimSpace(c.GPhotos.AlbumTitle) == "" {
		return errors.New("gphotos.album_title must be set")
	}
	if c.GPhotos.RequestTimeout <= 0 {
		return errors.New("gphotos.request_timeout must be positive")
	}
	if c.GPhotos.RequestsPerSecond <= 0 {
		return errors.New("gphotos.requests_per_second must be positive")
	}
	return nil
}

func (c *Config) validatePipeline() error {
	if c.Pipeline.IdleTimeout <= 0 {
		return errors.New("pipeline.idle_timeout must be positive")
	}
	if c.Pipeline.ShutdownPollInterval <= 0 {
		return errors.New("pipeline.shutdown_poll_interval must be positive")
	}
	if c.Pipeline.ReportInterval <= 0 {
		return errors.New("pipeline.report_interval must be positive")
	}
	pairs := []struct {
		name     string
		min, max int
	}{
		{"backoff", c.Pipeline.BackoffMinMS, c.Pipeline.BackoffMaxMS},
		{"download_backoff", c.Pipeline.DownloadBackoffMinMS, c.Pipeline.DownloadBackoffMaxMS},
	}
	for _, pair := range pairs {
		if pair.min <= 0 {
			return fmt.Errorf("pipeline.%s_min_ms must be positive", pair.name)
		}
		if pair.max < pair.min {
			return fmt.Errorf("pipeline.%s_max_ms must be >= pipeline.%s_min_ms", pair.name, pair.name)
		}
	}
	return nil
}
