package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/GriffinCanCode/playground/internal/domain/preview"
	"github.com/GriffinCanCode/playground/internal/domain/source"
	"github.com/GriffinCanCode/playground/internal/infrastructure/config"
)

func newPreviewCmd(app *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "preview",
		Short: "Print a composed document",
		Long: `Prints one of the composed documents for the stored fragments:
  live        markup and style only, as shown while editing
  run         markup, style and the instrumented script
  standalone  markup, style and the unmodified script`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			variant, _ := cmd.Flags().GetString("variant")

			app.config.Sandbox.Mode = config.SandboxBrowser
			core, err := app.core(cmd.Context())
			if err != nil {
				return err
			}
			defer core.Close()

			doc, err := compose(preview.Variant(variant), core.Store.Get())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), doc)
			return nil
		},
	}

	cmd.Flags().String("variant", string(preview.VariantLive), "Document variant: live, run or standalone")
	return cmd
}

func compose(variant preview.Variant, state source.State) (string, error) {
	switch variant {
	case preview.VariantLive:
		return preview.ComposeLive(state), nil
	case preview.VariantRun:
		return preview.ComposeWithScript(state, state.Script), nil
	case preview.VariantStandalone:
		return preview.Standalone(state), nil
	}
	return "", fmt.Errorf("unknown variant %q", variant)
}
