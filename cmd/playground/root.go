package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/playground/internal/domain/source"
	"github.com/GriffinCanCode/playground/internal/infrastructure/config"
	"github.com/GriffinCanCode/playground/internal/infrastructure/logging"
	"github.com/GriffinCanCode/playground/internal/infrastructure/server"
	"github.com/GriffinCanCode/playground/internal/providers/workspace"
)

// cli holds what every command needs after flags are parsed
type cli struct {
	config *config.Config
	logger *logging.Logger
}

func newRootCmd() *cobra.Command {
	app := &cli{}

	root := &cobra.Command{
		Use:   "playground",
		Short: "Live HTML/CSS/JavaScript playground",
		Long: `Playground keeps three editable fragments (markup, style and script),
composes them into a sandboxed preview, captures console output and errors
from the running script, and exports the project as one standalone file.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return app.setup(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if app.logger != nil {
				_ = app.logger.Sync()
			}
		},
	}

	flags := root.PersistentFlags()
	flags.String("storage", "", "Storage backend: file, sqlite, redis or memory (env STORAGE_BACKEND)")
	flags.String("storage-path", "", "File or SQLite path (env STORAGE_PATH)")
	flags.String("seed", "", "YAML file with the reset fragments (env SEED_PATH)")
	flags.String("log-level", "", "Log level: debug, info, warn or error (env LOG_LEVEL)")

	root.AddCommand(
		newServeCmd(app),
		newRunCmd(app),
		newExportCmd(app),
		newPreviewCmd(app),
		newResetCmd(app),
		newWatchCmd(app),
	)
	return root
}

func (c *cli) setup(cmd *cobra.Command) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if v, _ := flags.GetString("storage"); v != "" {
		cfg.Storage.Backend = v
	}
	if v, _ := flags.GetString("storage-path"); v != "" {
		cfg.Storage.Path = v
	}
	if v, _ := flags.GetString("seed"); v != "" {
		cfg.Storage.SeedPath = v
	}
	if v, _ := flags.GetString("log-level"); v != "" {
		cfg.Logging.Level = v
	}

	output := logging.Stderr
	if cmd.Name() == "serve" {
		output = logging.Stdout
	}
	logger, err := logging.New(logging.FromSettings(cfg.Logging, output))
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}

	c.config = cfg
	c.logger = logger
	return nil
}

// core builds the playground for one command
func (c *cli) core(ctx context.Context) (*server.Core, error) {
	return server.NewCore(ctx, c.config, c.logger.Logger, nil)
}

// syncWorkspace overlays the fragment files of dir onto the playground
func syncWorkspace(core *server.Core, dir string, logger *zap.Logger) error {
	ws := workspace.New(dir)
	state, err := ws.Load(core.Store.Get())
	if err != nil {
		return err
	}
	for _, kind := range source.Kinds() {
		if state.Get(kind) == core.Store.Get().Get(kind) {
			continue
		}
		if err := core.Playground.Edit(kind, state.Get(kind)); err != nil {
			return err
		}
		logger.Debug("Loaded fragment from workspace", zap.String("file", ws.Path(kind)))
	}
	return nil
}
