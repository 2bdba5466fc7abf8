// Package initcmder provides the init command for initializing a local
// .medibot directory in the current working directory.
package initcmder

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/medibot/pkg/config"
	"github.com/papercomputeco/medibot/pkg/dotdir"
)

const initLongDesc string = `Initialize a new .medibot/ directory in the current working directory.

Creates a local .medibot/ directory that takes precedence over the default
~/.medibot/ directory, and writes a config.toml into it.

Use --preset to start from a named vector store setup or from a config.toml
served over HTTP. Presets: pinecone (default), qdrant, local.

Examples:
  medibot init
  medibot init --preset local
  medibot init --preset https://example.com/medibot/config.toml`

const initShortDesc string = "Initialize a local .medibot/ directory"

const fetchTimeout = 30 * time.Second

type initer struct {
	preset string
}

func NewInitCmd() *cobra.Command {
	cmder := &initer{}

	cmd := &cobra.Command{
		Use:   "init",
		Short: initShortDesc,
		Long:  initLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmder.run(cmd.Context(), cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&cmder.preset, "preset", "", "Named preset or URL of a config.toml to start from")

	return cmd
}

func (i *initer) run(ctx context.Context, out io.Writer) error {
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("getting current directory: %w", err)
	}

	dir := filepath.Join(cwd, dotdir.DirName)

	_, statErr := os.Stat(dir)
	existed := statErr == nil

	cfger, err := config.NewConfiger(dir)
	if err != nil {
		return fmt.Errorf("creating %s directory: %w", dotdir.DirName, err)
	}

	// Re-running init without a preset keeps whatever is already there.
	if existed && i.preset == "" {
		fmt.Fprintf(out, "Already initialized: %s\n", dir)
		return nil
	}

	cfg, err := i.resolve(ctx)
	if err != nil {
		return err
	}

	if err := cfger.SaveConfig(cfg); err != nil {
		return err
	}

	fmt.Fprintf(out, "Initialized %s directory: %s\n", dotdir.DirName, dir)
	return nil
}

func (i *initer) resolve(ctx context.Context) (*config.Config, error) {
	switch {
	case i.preset == "":
		return config.NewDefaultConfig(), nil
	case strings.HasPrefix(i.preset, "http://"), strings.HasPrefix(i.preset, "https://"):
		return fetchRemote(ctx, i.preset)
	default:
		return config.PresetConfig(i.preset)
	}
}

func fetchRemote(ctx context.Context, url string) (*config.Config, error) {
	ctx, cancel := context.WithTimeout(ctx, fetchTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("fetching remote config: %w", err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching remote config: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetching remote config: HTTP %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading remote config: %w", err)
	}

	return config.ParseConfigTOML(data)
}
