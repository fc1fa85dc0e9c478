package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/GriffinCanCode/playground/internal/infrastructure/config"
	"github.com/GriffinCanCode/playground/internal/infrastructure/persistence"
)

func newRunCmd(app *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the script headlessly and print the console",
		Long: `Composes the stored fragments (or the files of --dir) into a document,
runs it in a fresh headless sandbox and prints every captured console line.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")
			failOnError, _ := cmd.Flags().GetBool("fail-on-error")
			timeout, _ := cmd.Flags().GetDuration("timeout")

			app.config.Sandbox.Mode = config.SandboxHeadless
			app.config.Sandbox.PoolSize = 1
			if timeout > 0 {
				app.config.Sandbox.Timeout = timeout
			}
			if dir != "" {
				// the workspace is the source of truth
				app.config.Storage.Backend = persistence.BackendMemory
			}

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
			if err := core.Playground.Start(); err != nil {
				return err
			}

			inst := core.Playground.Current()
			select {
			case <-inst.Done():
			case <-cmd.Context().Done():
				return cmd.Context().Err()
			}

			out := cmd.OutOrStdout()
			lines := core.Playground.Console().Lines()
			for _, line := range lines {
				fmt.Fprintln(out, line)
			}

			result := inst.Result()
			if result == nil {
				return fmt.Errorf("sandbox did not run")
			}
			if result.Interrupted {
				return fmt.Errorf("script interrupted after %s", app.config.Sandbox.Timeout)
			}
			if failOnError {
				if n := max(countErrors(lines), result.Uncaught); n > 0 {
					return fmt.Errorf("script reported %d error(s)", n)
				}
			}
			return nil
		},
	}

	cmd.Flags().String("dir", "", "Run index.html, style.css and script.js from this directory")
	cmd.Flags().Bool("fail-on-error", false, "Exit non-zero when the script throws")
	cmd.Flags().Duration("timeout", 0, "Sandbox time budget (env SANDBOX_TIMEOUT)")
	return cmd
}

// countErrors counts the lines the instrumented script posts for errors
func countErrors(lines []string) int {
	n := 0
	for _, line := range lines {
		if strings.HasPrefix(line, "Error: ") {
			n++
		}
	}
	return n
}
