package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/playground/internal/infrastructure/server"
)

func newServeCmd(app *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the playground HTTP server",
		Long: `Serves the host page, the fragment API, the preview documents and the
/bridge WebSocket that relays console output from browser sandboxes.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if port, _ := cmd.Flags().GetString("port"); port != "" {
				app.config.Server.Port = port
			}
			if host, _ := cmd.Flags().GetString("host"); host != "" {
				app.config.Server.Host = host
			}
			if mode, _ := cmd.Flags().GetString("sandbox"); mode != "" {
				app.config.Sandbox.Mode = mode
			}
			if err := app.config.Validate(); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			srv, err := server.NewServer(ctx, app.config, app.logger)
			if err != nil {
				return err
			}
			defer func() {
				if err := srv.Close(); err != nil {
					app.logger.Error("Error during shutdown", zap.Error(err))
				}
			}()

			return srv.Run(ctx)
		},
	}

	cmd.Flags().StringP("port", "p", "", "Port to listen on (env PORT)")
	cmd.Flags().String("host", "", "Host to bind (env HOST)")
	cmd.Flags().String("sandbox", "", "Sandbox mode: headless or browser (env SANDBOX_MODE)")
	return cmd
}
