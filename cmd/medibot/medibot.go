// Package medibotcmder
package medibotcmder

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	askcmder "github.com/papercomputeco/medibot/cmd/medibot/ask"
	chatcmder "github.com/papercomputeco/medibot/cmd/medibot/chat"
	configcmder "github.com/papercomputeco/medibot/cmd/medibot/config"
	ingestcmder "github.com/papercomputeco/medibot/cmd/medibot/ingest"
	initcmder "github.com/papercomputeco/medibot/cmd/medibot/init"
	servecmder "github.com/papercomputeco/medibot/cmd/medibot/serve"
	versioncmder "github.com/papercomputeco/medibot/cmd/version"
)

const medibotLongDesc string = `Medibot answers medical questions from a corpus of PDF reference books.

Build the index, then serve it:
  medibot init         Create a local .medibot/ config directory
  medibot ingest       Load, chunk, embed, and index the PDFs in ./data
  medibot serve        Run the chat page and query API
  medibot ask          Ask a running server a single question
  medibot chat         Chat with a running server in the terminal

Secrets such as PINECONE_API_KEY are read from the environment or a .env file
in the working directory.`

const medibotShortDesc string = "Medibot - Medical PDF Chatbot"

func NewMedibotCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "medibot",
		Short:         medibotShortDesc,
		Long:          medibotLongDesc,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			return loadDotEnv(".env")
		},
	}

	// Global flags
	cmd.PersistentFlags().BoolP("debug", "D", false, "Enable debug logging")
	cmd.PersistentFlags().String("config-dir", "", "Override path to .medibot/ config directory")

	// Add subcommands
	cmd.AddCommand(initcmder.NewInitCmd())
	cmd.AddCommand(ingestcmder.NewIngestCmd())
	cmd.AddCommand(servecmder.NewServeCmd())
	cmd.AddCommand(askcmder.NewAskCmd())
	cmd.AddCommand(chatcmder.NewChatCmd())
	cmd.AddCommand(configcmder.NewConfigCmd())
	cmd.AddCommand(versioncmder.NewVersionCmd())

	return cmd
}

// loadDotEnv loads path into the environment without overriding variables
// that are already set. A missing file is fine.
func loadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("loading %s: %w", path, err)
	}
	return nil
}
