// File: cmd/ask.go
package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/nexuslabs/nexus-cli/api/schemas"
)

// newAskCmd creates the one-shot `ask` command: route (or target) an agent,
// generate once, print the answer.
func newAskCmd() *cobra.Command {
	askCmd := &cobra.Command{
		Use:   "ask [prompt...]",
		Short: "Ask the agent pipeline a single question",
		Args:  cobra.MinimumNArgs(1),
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return viper.BindPFlags(cmd.Flags())
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			prompt := strings.Join(args, " ")

			comps, err := initializeComponents()
			if err != nil {
				return err
			}
			defer comps.Shutdown()

			agent := schemas.AgentID(viper.GetString("agent"))
			refined := prompt
			if agent == "" || agent == schemas.AgentRouter {
				routing, err := comps.Pipeline.Route(ctx, prompt)
				if err != nil {
					return err
				}
				agent = routing.Agent
				refined = routing.RefinedPrompt
				comps.Logger.Debug("Routed prompt", zap.String("agent", string(agent)))
			} else if !schemas.IsKnownAgent(agent) {
				return fmt.Errorf("unknown agent %q (known: %v)", agent, schemas.KnownAgents())
			}

			result, err := comps.Pipeline.Generate(ctx, agent, refined,
				viper.GetString("context"), viper.GetBool("high-reasoning"))
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if result.Degraded {
				fmt.Fprintln(out, "[degraded: provider unavailable, canned response]")
			}
			fmt.Fprintln(out, result.Text)
			return nil
		},
	}

	askCmd.Flags().StringP("agent", "a", "", "Target agent; empty or 'router' classifies the prompt first.")
	askCmd.Flags().String("context", "", "Free-form context injected into the system instruction.")
	askCmd.Flags().Bool("high-reasoning", false, "Force the powerful model tier.")

	return askCmd
}
