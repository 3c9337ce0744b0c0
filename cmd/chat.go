// File: cmd/chat.go
package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/nexuslabs/nexus-cli/api/schemas"
	"github.com/nexuslabs/nexus-cli/internal/workspace"
)

const chatBanner = `nexus-cli workspace. Type a message, or:
  /agent <id>    switch the active agent (/agents lists them)
  /memory <text> replace the session's agent memory
  /exit          leave the workspace
`

// newChatCmd creates the interactive `chat` command: a workspace session over
// stdin.
func newChatCmd() *cobra.Command {
	chatCmd := &cobra.Command{
		Use:   "chat",
		Short: "Start an interactive workspace session",
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return viper.BindPFlags(cmd.Flags())
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			comps, err := initializeComponents()
			if err != nil {
				return err
			}
			defer comps.Shutdown()

			agent := schemas.AgentID(viper.GetString("agent"))
			if agent != "" && !schemas.IsKnownAgent(agent) {
				return fmt.Errorf("unknown agent %q (known: %v)", agent, schemas.KnownAgents())
			}

			session := workspace.NewSession(comps.Pipeline, workspace.Options{
				Agent:         agent,
				Project:       comps.Config.Project,
				Memory:        comps.Config.Workspace.Memory,
				HighReasoning: viper.GetBool("high-reasoning"),
			}, comps.Logger)
			defer session.Close()

			out := cmd.OutOrStdout()
			fmt.Fprint(out, chatBanner)

			scanner := bufio.NewScanner(cmd.InOrStdin())
			for {
				if ctx.Err() != nil {
					break
				}
				fmt.Fprintf(out, "%s > ", session.Agent())
				if !scanner.Scan() {
					break // EOF (Ctrl+D)
				}

				line := strings.TrimSpace(scanner.Text())
				switch {
				case line == "":
					continue
				case line == "/exit" || line == "/quit":
					fmt.Fprintln(out, "Leaving workspace.")
					return scanner.Err()
				case handleSlashCommand(session, out, line):
					continue
				}

				msg, err := session.Submit(line)
				if err != nil {
					if errors.Is(err, ctx.Err()) && ctx.Err() != nil {
						break
					}
					fmt.Fprintf(out, "error: %v\n", err)
					continue
				}

				if msg.Degraded {
					fmt.Fprintln(out, "[degraded: provider unavailable]")
				}
				fmt.Fprintln(out, msg.Content)
				for _, att := range msg.Attachments {
					fmt.Fprintf(out, "[%s] %s\n", att.Type, previewAttachment(att.URL))
				}
			}

			fmt.Fprintln(out, "\nSession ended.")
			return scanner.Err()
		},
	}

	chatCmd.Flags().StringP("agent", "a", "", "Active agent; empty routes every message automatically.")
	chatCmd.Flags().Bool("high-reasoning", false, "Force the powerful model tier for every turn.")

	return chatCmd
}

// handleSlashCommand processes workspace directives. Returns false when the
// line is a normal message.
func handleSlashCommand(session *workspace.Session, out io.Writer, line string) bool {
	switch {
	case line == "/agents":
		for _, id := range schemas.KnownAgents() {
			fmt.Fprintf(out, "  %s\n", id)
		}
		return true
	case strings.HasPrefix(line, "/agent "):
		id := schemas.AgentID(strings.TrimSpace(strings.TrimPrefix(line, "/agent ")))
		if err := session.SetAgent(id); err != nil {
			fmt.Fprintf(out, "error: %v\n", err)
			return true
		}
		session.Notice("active agent switched to " + string(id))
		fmt.Fprintf(out, "Active agent is now %s.\n", id)
		return true
	case line == "/memory":
		if mem := session.Memory(); mem != "" {
			fmt.Fprintf(out, "Agent memory: %s\n", mem)
		} else {
			fmt.Fprintln(out, "Agent memory is empty.")
		}
		return true
	case strings.HasPrefix(line, "/memory "):
		session.SetMemory(strings.TrimSpace(strings.TrimPrefix(line, "/memory ")))
		fmt.Fprintln(out, "Agent memory updated.")
		return true
	case strings.HasPrefix(line, "/"):
		fmt.Fprintf(out, "Unknown command %q.\n", strings.Fields(line)[0])
		return true
	}
	return false
}

// previewAttachment keeps inline data URIs from flooding the terminal.
func previewAttachment(url string) string {
	const max = 80
	if len(url) > max && strings.HasPrefix(url, "data:") {
		return url[:max] + fmt.Sprintf("... (%d bytes inline)", len(url))
	}
	return url
}
