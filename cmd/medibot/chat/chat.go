// Package chatcmder provides the chat command for an interactive terminal
// session with a running medibot server.
package chatcmder

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/papercomputeco/medibot/api/client"
	"github.com/papercomputeco/medibot/cmd/medibot/components"
	"github.com/papercomputeco/medibot/pkg/cliui"
	"github.com/papercomputeco/medibot/pkg/config"
)

var (
	userPrompt      = lipgloss.NewStyle().Foreground(lipgloss.Color("82")).Bold(true).Render("you> ")
	assistantPrompt = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Render("medibot> ")
)

type chatCommander struct {
	serverTarget string
	cfg          *config.Config
}

const chatLongDesc string = `Start an interactive chat session with a running medibot server.

Each line is sent to the server's /get endpoint on its own, the same way the
chat page sends messages; the server keeps no conversation history.

Type /exit or press Ctrl+D to quit.

Examples:
  medibot chat
  medibot chat --server-target http://localhost:9000`

const chatShortDesc string = "Chat with a running medibot server"

func NewChatCmd() *cobra.Command {
	cmder := &chatCommander{}

	cmd := &cobra.Command{
		Use:   "chat",
		Short: chatShortDesc,
		Long:  chatLongDesc,
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			cmder.cfg, _, err = components.ResolveConfig(cmd, []string{config.FlagServerTarget})
			return err
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			timeout, err := config.Duration(cmder.cfg.Server.RequestTimeout, 0)
			if err != nil {
				return err
			}
			cl := client.New(cmder.cfg.Client.ServerTarget, timeout)
			return cmder.run(cmd.Context(), cl, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}

	config.AddStringFlag(cmd, config.Registry, config.FlagServerTarget, &cmder.serverTarget)

	return cmd
}

// asker is the part of client.Client the REPL uses.
type asker interface {
	Ask(ctx context.Context, msg string) (string, error)
}

func (c *chatCommander) run(ctx context.Context, cl asker, in io.Reader, out io.Writer) error {
	fmt.Fprintf(out, "\n  %s %s\n",
		cliui.KeyStyle.Render("Server:"),
		cliui.NameStyle.Render(c.cfg.Client.ServerTarget),
	)
	fmt.Fprintf(out, "  %s\n\n", cliui.DimStyle.Render("Type your question and press Enter. /exit or Ctrl+D to quit."))

	scanner := bufio.NewScanner(in)

	for {
		fmt.Fprint(out, userPrompt)
		if !scanner.Scan() {
			// EOF or error
			break
		}

		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}
		if input == "/exit" {
			break
		}

		answer, err := cl.Ask(ctx, input)
		if err != nil {
			fmt.Fprintf(out, "  %s %v\n\n", cliui.FailMark, err)
			continue
		}

		fmt.Fprintf(out, "%s%s\n\n", assistantPrompt, answer)
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading input: %w", err)
	}

	fmt.Fprintln(out)
	return nil
}
