package components

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/medibot/pkg/config"
)

// ResolveConfig reads config.toml and the environment for cmd, binds the
// given registry flags over them, and returns the result with the config dir
// override.
func ResolveConfig(cmd *cobra.Command, flagKeys []string) (*config.Config, string, error) {
	configDir, _ := cmd.Flags().GetString("config-dir")

	v, err := config.InitViper(configDir)
	if err != nil {
		return nil, "", fmt.Errorf("loading config: %w", err)
	}

	config.BindRegisteredFlags(v, cmd, config.Registry, flagKeys)

	return config.FromViper(v), configDir, nil
}
