package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/GriffinCanCode/playground/internal/infrastructure/config"
)

func newExportCmd(app *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the project as one standalone HTML file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			output, _ := cmd.Flags().GetString("output")
			dir, _ := cmd.Flags().GetString("dir")

			app.config.Sandbox.Mode = config.SandboxBrowser
			core, err := app.core(cmd.Context())
			if err != nil {
				return err
			}
			defer core.Close()

			if dir != "" {
				if err := syncWorkspace(core, dir, app.logger.Logger); err != nil {
					return err
				}
			}

			artifact := core.Playground.Export()
			if output == "-" {
				_, err := cmd.OutOrStdout().Write(append(artifact.Content, '\n'))
				return err
			}
			if output == "" {
				output = artifact.Name
			}
			if err := os.WriteFile(output, artifact.Content, 0o644); err != nil {
				return fmt.Errorf("failed to write export: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported %s (%d bytes)\n", output, len(artifact.Content))
			return nil
		},
	}

	cmd.Flags().StringP("output", "o", "", `Output file, "-" for stdout (default "project.html")`)
	cmd.Flags().String("dir", "", "Export the files of this directory instead of the stored fragments")
	return cmd
}
