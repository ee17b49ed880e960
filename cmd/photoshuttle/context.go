package main

import (
	"strings"
	"sync"

	"photoshuttle/internal/artifact"
	"photoshuttle/internal/config"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

// withStore opens the artifact store for read-side commands and closes it
// when the callback returns.
func (c *commandContext) withStore(fn func(*config.Config, *artifact.Store) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	store, err := artifact.Open(cfg.DatabasePath)
	if err != nil {
		return err
	}
	defer store.Close()
	return fn(cfg, store)
}
