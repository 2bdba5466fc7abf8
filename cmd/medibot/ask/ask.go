// Package askcmder provides the ask command for asking a running medibot
// server a single question.
package askcmder

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/medibot/api/client"
	"github.com/papercomputeco/medibot/cmd/medibot/components"
	"github.com/papercomputeco/medibot/pkg/cliui"
	"github.com/papercomputeco/medibot/pkg/config"
)

type askCommander struct {
	serverTarget string
	cfg          *config.Config
}

const askLongDesc string = `Ask a running medibot server a single question.

The question is posted to the server's /get endpoint exactly as the chat page
does, and the answer is rendered as markdown.

Examples:
  medibot ask "What are the symptoms of measles?"
  medibot ask --server-target http://localhost:9000 What is aspirin used for?`

const askShortDesc string = "Ask a running medibot server a question"

func NewAskCmd() *cobra.Command {
	cmder := &askCommander{}

	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: askShortDesc,
		Long:  askLongDesc,
		Args:  cobra.MinimumNArgs(1),
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			cmder.cfg, _, err = components.ResolveConfig(cmd, []string{config.FlagServerTarget, config.FlagRequestTimeout})
			return err
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmder.run(cmd, strings.Join(args, " "))
		},
	}

	config.AddStringFlag(cmd, config.Registry, config.FlagServerTarget, &cmder.serverTarget)

	return cmd
}

func (c *askCommander) run(cmd *cobra.Command, question string) error {
	timeout, err := config.Duration(c.cfg.Server.RequestTimeout, 0)
	if err != nil {
		return err
	}

	cl := client.New(c.cfg.Client.ServerTarget, timeout)

	var answer string
	err = cliui.Step(cmd.ErrOrStderr(), "Thinking", func() error {
		var askErr error
		answer, askErr = cl.Ask(cmd.Context(), question)
		return askErr
	})
	if err != nil {
		return fmt.Errorf("asking %s: %w", c.cfg.Client.ServerTarget, err)
	}

	cliui.PrintAnswer(cmd.OutOrStdout(), answer)
	return nil
}
