// Package configcmder provides the config command for managing persistent
// medibot configuration stored in the .medibot/ directory.
package configcmder

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/medibot/pkg/config"
)

const configLongDesc string = `Manage persistent medibot configuration.

Configuration is stored as config.toml in the .medibot/ directory and provides
default values for command flags. CLI flags and MEDIBOT_* environment
variables take precedence over config file values.

Keys use dotted notation matching the TOML section structure:
  server.listen, server.top_k, server.request_timeout,
  client.server_target,
  ingest.data_dir, ingest.chunk_size, ingest.chunk_overlap,
  vector_store.provider, vector_store.target, vector_store.index,
  embedding.model, embedding.dimensions,
  llm.model, llm.max_tokens, llm.temperature,
  events.provider, events.brokers

Use subcommands to get, set, or list configuration values:
  medibot config set <key> <value>    Set a configuration value
  medibot config get <key>            Get a configuration value
  medibot config list                 List all configuration values

Examples:
  medibot config set vector_store.provider qdrant
  medibot config set llm.model llama2:7b-chat
  medibot config get vector_store.index
  medibot config list`

const configShortDesc string = "Manage persistent medibot configuration"

func NewConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: configShortDesc,
		Long:  configLongDesc,
	}

	cmd.AddCommand(newSetCmd())
	cmd.AddCommand(newGetCmd())
	cmd.AddCommand(newListCmd())

	return cmd
}

func checkKey(key string) error {
	if !config.IsValidConfigKey(key) {
		return fmt.Errorf("unknown config key: %q\n\nValid keys: %s",
			key, strings.Join(config.ValidConfigKeys(), ", "))
	}
	return nil
}

func completeKeys(_ *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
	if len(args) == 0 {
		return config.ValidConfigKeys(), cobra.ShellCompDirectiveNoFileComp
	}
	return nil, cobra.ShellCompDirectiveNoFileComp
}
