package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/GriffinCanCode/playground/internal/infrastructure/config"
)

func newResetCmd(app *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Restore the seed fragments",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app.config.Sandbox.Mode = config.SandboxBrowser
			core, err := app.core(cmd.Context())
			if err != nil {
				return err
			}
			defer core.Close()

			core.Playground.Reset()
			fmt.Fprintf(cmd.OutOrStdout(), "Fragments restored in %s storage\n", app.config.Storage.Backend)
			return nil
		},
	}
}
