// File: cmd/form.go
package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/nexuslabs/nexus-cli/internal/formarchitect"
)

// newFormCmd creates the `form` command: describe a form in plain language,
// get a validated declarative schema back.
func newFormCmd() *cobra.Command {
	formCmd := &cobra.Command{
		Use:   "form [description...]",
		Short: "Build a declarative form schema from a natural-language description",
		Args:  cobra.MinimumNArgs(1),
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return viper.BindPFlags(cmd.Flags())
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			comps, err := initializeComponents()
			if err != nil {
				return err
			}
			defer comps.Shutdown()

			architect := formarchitect.New(comps.Pipeline, comps.Logger)
			result, err := architect.Build(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return err
			}

			encoded, err := json.MarshalIndent(result.Schema, "", "  ")
			if err != nil {
				return fmt.Errorf("encoding form schema: %w", err)
			}

			if result.Degraded {
				fmt.Fprintln(cmd.ErrOrStderr(), "[degraded: provider unavailable, canned schema]")
			}

			if output := viper.GetString("output"); output != "" {
				if err := os.WriteFile(output, append(encoded, '\n'), 0o644); err != nil {
					return fmt.Errorf("writing form schema: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Form schema written to %s\n", output)
				return nil
			}

			fmt.Fprintln(cmd.OutOrStdout(), string(encoded))
			return nil
		},
	}

	formCmd.Flags().StringP("output", "o", "", "Write the schema to a file instead of stdout.")
	return formCmd
}
