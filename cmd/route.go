// File: cmd/route.go
package cmd

import (
	"encoding/json"
	"strings"

	"github.com/spf13/cobra"
)

// newRouteCmd creates the `route` command: classify an utterance onto an
// agent and print the verdict as JSON.
func newRouteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "route [utterance...]",
		Short: "Classify an utterance onto one of the known agents",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			comps, err := initializeComponents()
			if err != nil {
				return err
			}
			defer comps.Shutdown()

			routing, err := comps.Pipeline.Route(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(routing)
		},
	}
}
