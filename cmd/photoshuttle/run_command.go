package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"photoshuttle/internal/artifact"
	"photoshuttle/internal/daemon"
	"photoshuttle/internal/logging"
	"photoshuttle/internal/pipeline"
	"photoshuttle/internal/services/gphotos"
	"photoshuttle/internal/services/icloud"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the migration pipeline in the foreground",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPipelineProcess(cmd.Context(), ctx)
		},
	}
}

func runPipelineProcess(cmdCtx context.Context, ctx *commandContext) error {
	if cmdCtx == nil {
		cmdCtx = context.Background()
	}
	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, err := ctx.ensureConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	library, err := icloud.NewClient(cfg)
	if err != nil {
		return err
	}
	photos, err := gphotos.NewClient(cfg)
	if err != nil {
		return err
	}

	store, err := artifact.Open(cfg.DatabasePath)
	if err != nil {
		logger.Error("open artifact store", logging.Error(err))
		return err
	}

	p := pipeline.New(cfg, store, library, photos, logger)
	d, err := daemon.New(cfg, store, p, logger)
	if err != nil {
		store.Close()
		return fmt.Errorf("create daemon: %w", err)
	}
	defer d.Close()

	if err := d.Start(signalCtx); err != nil {
		return err
	}
	if err := d.Wait(signalCtx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
