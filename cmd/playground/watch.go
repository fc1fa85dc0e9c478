package main

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/playground/internal/domain/playground"
	"github.com/GriffinCanCode/playground/internal/infrastructure/config"
	"github.com/GriffinCanCode/playground/internal/infrastructure/server"
	"github.com/GriffinCanCode/playground/internal/providers/workspace"
)

func newWatchCmd(app *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Sync fragment files from a directory and rerun on save",
		Long: `Writes any missing index.html, style.css and script.js into --dir, then
keeps the playground in sync with them. Saving script.js runs the script;
console output is printed as it arrives. With --serve the HTTP server runs
alongside, so a browser shows the same preview.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")
			serve, _ := cmd.Flags().GetBool("serve")
			if serve {
				if mode, _ := cmd.Flags().GetString("sandbox"); mode != "" {
					app.config.Sandbox.Mode = mode
				}
			} else {
				app.config.Sandbox.Mode = config.SandboxHeadless
			}
			if err := app.config.Validate(); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			var (
				core *server.Core
				srv  *server.Server
				err  error
			)
			if serve {
				srv, err = server.NewServer(ctx, app.config, app.logger)
				if err != nil {
					return err
				}
				defer srv.Close()
				core = srv.Core()
			} else {
				core, err = app.core(ctx)
				if err != nil {
					return err
				}
				defer core.Close()
			}

			ws := workspace.New(dir)
			if err := ws.WriteMissing(core.Store.Get()); err != nil {
				return err
			}
			if err := syncWorkspace(core, dir, app.logger.Logger); err != nil {
				return err
			}

			unsubscribe := core.Playground.Subscribe(printEvents(cmd.OutOrStdout()))
			defer unsubscribe()

			if !serve {
				if err := core.Playground.Start(); err != nil {
					return err
				}
			}

			watcher, err := workspace.NewWatcher(ws, core.Playground,
				workspace.WithLogger(app.logger.Component("workspace")))
			if err != nil {
				return err
			}
			if err := watcher.Start(ctx); err != nil {
				return err
			}
			defer watcher.Stop()

			fmt.Fprintf(cmd.ErrOrStderr(), "Watching %s (Ctrl+C to stop)\n", ws.Dir())

			if serve {
				return srv.Run(ctx)
			}
			<-ctx.Done()
			app.logger.Debug("Watch stopped", zap.Any("stats", watcher.Stats()))
			return nil
		},
	}

	cmd.Flags().String("dir", ".", "Directory holding index.html, style.css and script.js")
	cmd.Flags().Bool("serve", false, "Also start the HTTP server")
	cmd.Flags().String("sandbox", "", "Sandbox mode with --serve: headless or browser")
	return cmd
}

// printEvents writes console lines to out as they arrive
func printEvents(out io.Writer) func(playground.Event) {
	return func(ev playground.Event) {
		switch ev.Type {
		case playground.EventCleared:
			fmt.Fprintln(out, "--- run ---")
		case playground.EventConsole:
			fmt.Fprintln(out, ev.Line)
		}
	}
}
