package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/papercomputeco/medibot/pkg/dotdir"
)

const (
	configFile = "config.toml"

	// v0 is the alpha version of the config
	v0 = 0

	// CurrentV is the currently supported version, points to v0
	CurrentV = v0
)

type Configer struct {
	ddm        *dotdir.Manager
	targetPath string
}

func NewConfiger(override string) (*Configer, error) {
	cfger := &Configer{}

	cfger.ddm = dotdir.NewManager()
	target, err := cfger.ddm.Target(override)
	if err != nil {
		return nil, err
	}

	if target == "" {
		return cfger, nil
	}

	path := filepath.Join(target, configFile)
	_, err = os.Stat(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	cfger.targetPath = path

	return cfger, nil
}

// orderedKeys lists config keys in TOML section order.
var orderedKeys = []string{
	"server.listen",
	"server.top_k",
	"server.request_timeout",
	"client.server_target",
	"ingest.data_dir",
	"ingest.chunk_size",
	"ingest.chunk_overlap",
	"ingest.workers",
	"ingest.batch_size",
	"vector_store.provider",
	"vector_store.target",
	"vector_store.index",
	"vector_store.cloud",
	"vector_store.region",
	"vector_store.dimensions",
	"embedding.provider",
	"embedding.target",
	"embedding.model",
	"embedding.dimensions",
	"llm.provider",
	"llm.target",
	"llm.model",
	"llm.max_tokens",
	"llm.temperature",
	"llm.timeout",
	"events.provider",
	"events.brokers",
	"events.topic",
}

// ValidConfigKeys returns the list of all supported configuration key names
// in a stable order matching the TOML section layout.
func ValidConfigKeys() []string {
	result := make([]string, 0, len(configKeys))
	seen := make(map[string]bool, len(configKeys))
	for _, k := range orderedKeys {
		if _, ok := configKeys[k]; ok {
			result = append(result, k)
			seen[k] = true
		}
	}

	for k := range configKeys {
		if !seen[k] {
			result = append(result, k)
		}
	}

	return result
}

// IsValidConfigKey returns true if the given key is a supported configuration key.
func IsValidConfigKey(key string) bool {
	_, ok := configKeys[key]
	return ok
}

func (c *Configer) GetTarget() string {
	return c.targetPath
}

// LoadConfig loads config.toml from the target .medibot/ directory.
// A missing file yields NewDefaultConfig(); fields set in the file override
// the defaults.
func (c *Configer) LoadConfig() (*Config, error) {
	if c.targetPath == "" {
		return NewDefaultConfig(), nil
	}

	data, err := os.ReadFile(c.targetPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return NewDefaultConfig(), nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	cfg, err := ParseConfigTOML(data)
	if err != nil {
		return nil, err
	}

	applyDefaults(cfg)

	return cfg, nil
}

// applyDefaults fills zero-value fields in cfg with values from NewDefaultConfig().
func applyDefaults(cfg *Config) {
	d := NewDefaultConfig()

	fillString := func(dst *string, def string) {
		if *dst == "" {
			*dst = def
		}
	}
	fillUint := func(dst *uint, def uint) {
		if *dst == 0 {
			*dst = def
		}
	}

	fillString(&cfg.Server.Listen, d.Server.Listen)
	fillUint(&cfg.Server.TopK, d.Server.TopK)
	fillString(&cfg.Server.RequestTimeout, d.Server.RequestTimeout)

	fillString(&cfg.Client.ServerTarget, d.Client.ServerTarget)

	fillString(&cfg.Ingest.DataDir, d.Ingest.DataDir)
	fillUint(&cfg.Ingest.ChunkSize, d.Ingest.ChunkSize)
	fillUint(&cfg.Ingest.ChunkOverlap, d.Ingest.ChunkOverlap)
	fillUint(&cfg.Ingest.Workers, d.Ingest.Workers)
	fillUint(&cfg.Ingest.BatchSize, d.Ingest.BatchSize)

	fillString(&cfg.VectorStore.Provider, d.VectorStore.Provider)
	fillString(&cfg.VectorStore.Index, d.VectorStore.Index)
	fillString(&cfg.VectorStore.Cloud, d.VectorStore.Cloud)
	fillString(&cfg.VectorStore.Region, d.VectorStore.Region)
	fillUint(&cfg.VectorStore.Dimensions, d.VectorStore.Dimensions)

	fillString(&cfg.Embedding.Provider, d.Embedding.Provider)
	fillString(&cfg.Embedding.Target, d.Embedding.Target)
	fillString(&cfg.Embedding.Model, d.Embedding.Model)
	fillUint(&cfg.Embedding.Dimensions, d.Embedding.Dimensions)

	fillString(&cfg.LLM.Provider, d.LLM.Provider)
	fillString(&cfg.LLM.Target, d.LLM.Target)
	fillString(&cfg.LLM.Model, d.LLM.Model)
	fillUint(&cfg.LLM.MaxTokens, d.LLM.MaxTokens)
	if cfg.LLM.Temperature == 0 {
		cfg.LLM.Temperature = d.LLM.Temperature
	}
	fillString(&cfg.LLM.Timeout, d.LLM.Timeout)

	fillString(&cfg.Events.Provider, d.Events.Provider)
	fillString(&cfg.Events.Topic, d.Events.Topic)
}

// SaveConfig persists the configuration to config.toml in the target
// .medibot/ directory. The vector store API key is never written.
func (c *Configer) SaveConfig(cfg *Config) error {
	if cfg == nil {
		return errors.New("cannot save nil config")
	}

	if c.targetPath == "" {
		return errors.New("cannot save empty target path")
	}

	out := *cfg
	out.VectorStore.APIKey = ""

	var buf bytes.Buffer
	encoder := toml.NewEncoder(&buf)
	if err := encoder.Encode(out); err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}

	if err := os.WriteFile(c.targetPath, buf.Bytes(), 0o600); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	return nil
}

// SetConfigValue loads the config, sets the given key to the given value, and saves it.
func (c *Configer) SetConfigValue(key string, value string) error {
	info, ok := configKeys[key]
	if !ok {
		return fmt.Errorf("unknown config key: %q", key)
	}

	cfg, err := c.LoadConfig()
	if err != nil {
		return err
	}

	if err := info.set(cfg, value); err != nil {
		return err
	}

	return c.SaveConfig(cfg)
}

// GetConfigValue loads the config and returns the string representation of the given key.
func (c *Configer) GetConfigValue(key string) (string, error) {
	info, ok := configKeys[key]
	if !ok {
		return "", fmt.Errorf("unknown config key: %q", key)
	}

	cfg, err := c.LoadConfig()
	if err != nil {
		return "", err
	}

	return info.get(cfg), nil
}

// PresetConfig returns a Config with defaults for the named vector store preset.
// Supported presets: "pinecone", "qdrant", "local".
func PresetConfig(name string) (*Config, error) {
	cfg := NewDefaultConfig()

	switch strings.ToLower(name) {
	case "pinecone":
		return cfg, nil

	case "qdrant":
		cfg.VectorStore.Provider = "qdrant"
		cfg.VectorStore.Target = "localhost:6334"
		return cfg, nil

	case "local":
		cfg.VectorStore.Provider = "sqlite"
		cfg.VectorStore.Target = "vectors.db"
		return cfg, nil

	default:
		return nil, fmt.Errorf("unknown preset: %q (available: %s)", name, strings.Join(ValidPresetNames(), ", "))
	}
}

// ValidPresetNames returns the list of recognized preset names.
func ValidPresetNames() []string {
	return []string{"pinecone", "qdrant", "local"}
}

// ParseConfigTOML parses raw TOML bytes into a Config.
// Returns an error if the version field is present and not equal to CurrentV.
func ParseConfigTOML(data []byte) (*Config, error) {
	cfg := &Config{}
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config TOML: %w", err)
	}

	if cfg.Version != 0 && cfg.Version != CurrentV {
		return nil, fmt.Errorf("unsupported config version %d (expected %d)", cfg.Version, CurrentV)
	}

	return cfg, nil
}
