package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/papercomputeco/medibot/pkg/dotdir"
)

// EnvPrefix is the prefix for medibot environment variables.
const EnvPrefix = "MEDIBOT"

// InitViper creates and returns a configured *viper.Viper.
// It sets defaults from NewDefaultConfig(), reads the config.toml file
// (if found via dotdir resolution), and binds environment variables
// with the MEDIBOT_ prefix.
//
// Config precedence (highest to lowest):
//  1. CLI flags (once bound via BindRegisteredFlags)
//  2. Environment variables (MEDIBOT_SERVER_LISTEN, PINECONE_API_KEY, etc.)
//  3. config.toml file values
//  4. Defaults from NewDefaultConfig()
func InitViper(configDir string) (*viper.Viper, error) {
	v := viper.New()

	setViperDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("toml")

	ddm := dotdir.NewManager()
	target, err := ddm.Target(configDir)
	if err != nil {
		return nil, fmt.Errorf("resolving config dir: %w", err)
	}

	if target != "" {
		v.AddConfigPath(target)
	}

	if err := v.ReadInConfig(); err != nil {
		// Config file not found errors are fine, defaults will apply.
		if !errors.As(err, &viper.ConfigFileNotFoundError{}) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// The Pinecone SDK convention takes precedence over the prefixed form.
	_ = v.BindEnv("vector_store.api_key", "PINECONE_API_KEY", EnvPrefix+"_VECTOR_STORE_API_KEY")

	return v, nil
}

// setViperDefaults registers defaults from NewDefaultConfig() into viper
// using dotted-key notation. This keeps defaults.go as the single source of truth.
func setViperDefaults(v *viper.Viper) {
	d := NewDefaultConfig()

	v.SetDefault("version", d.Version)

	v.SetDefault("server.listen", d.Server.Listen)
	v.SetDefault("server.top_k", d.Server.TopK)
	v.SetDefault("server.request_timeout", d.Server.RequestTimeout)

	v.SetDefault("client.server_target", d.Client.ServerTarget)

	v.SetDefault("ingest.data_dir", d.Ingest.DataDir)
	v.SetDefault("ingest.chunk_size", d.Ingest.ChunkSize)
	v.SetDefault("ingest.chunk_overlap", d.Ingest.ChunkOverlap)
	v.SetDefault("ingest.workers", d.Ingest.Workers)
	v.SetDefault("ingest.batch_size", d.Ingest.BatchSize)

	v.SetDefault("vector_store.provider", d.VectorStore.Provider)
	v.SetDefault("vector_store.target", d.VectorStore.Target)
	v.SetDefault("vector_store.api_key", "")
	v.SetDefault("vector_store.index", d.VectorStore.Index)
	v.SetDefault("vector_store.cloud", d.VectorStore.Cloud)
	v.SetDefault("vector_store.region", d.VectorStore.Region)
	v.SetDefault("vector_store.dimensions", d.VectorStore.Dimensions)

	v.SetDefault("embedding.provider", d.Embedding.Provider)
	v.SetDefault("embedding.target", d.Embedding.Target)
	v.SetDefault("embedding.model", d.Embedding.Model)
	v.SetDefault("embedding.dimensions", d.Embedding.Dimensions)

	v.SetDefault("llm.provider", d.LLM.Provider)
	v.SetDefault("llm.target", d.LLM.Target)
	v.SetDefault("llm.model", d.LLM.Model)
	v.SetDefault("llm.max_tokens", d.LLM.MaxTokens)
	v.SetDefault("llm.temperature", d.LLM.Temperature)
	v.SetDefault("llm.timeout", d.LLM.Timeout)

	v.SetDefault("events.provider", d.Events.Provider)
	v.SetDefault("events.brokers", d.Events.Brokers)
	v.SetDefault("events.topic", d.Events.Topic)
}

// FromViper materializes a Config from the resolved viper precedence chain.
func FromViper(v *viper.Viper) *Config {
	return &Config{
		Version: v.GetInt("version"),
		Server: ServerConfig{
			Listen:         v.GetString("server.listen"),
			TopK:           v.GetUint("server.top_k"),
			RequestTimeout: v.GetString("server.request_timeout"),
		},
		Client: ClientConfig{
			ServerTarget: v.GetString("client.server_target"),
		},
		Ingest: IngestConfig{
			DataDir:      v.GetString("ingest.data_dir"),
			ChunkSize:    v.GetUint("ingest.chunk_size"),
			ChunkOverlap: v.GetUint("ingest.chunk_overlap"),
			Workers:      v.GetUint("ingest.workers"),
			BatchSize:    v.GetUint("ingest.batch_size"),
		},
		VectorStore: VectorStoreConfig{
			Provider:   v.GetString("vector_store.provider"),
			Target:     v.GetString("vector_store.target"),
			APIKey:     v.GetString("vector_store.api_key"),
			Index:      v.GetString("vector_store.index"),
			Cloud:      v.GetString("vector_store.cloud"),
			Region:     v.GetString("vector_store.region"),
			Dimensions: v.GetUint("vector_store.dimensions"),
		},
		Embedding: EmbeddingConfig{
			Provider:   v.GetString("embedding.provider"),
			Target:     v.GetString("embedding.target"),
			Model:      v.GetString("embedding.model"),
			Dimensions: v.GetUint("embedding.dimensions"),
		},
		LLM: LLMConfig{
			Provider:    v.GetString("llm.provider"),
			Target:      v.GetString("llm.target"),
			Model:       v.GetString("llm.model"),
			MaxTokens:   v.GetUint("llm.max_tokens"),
			Temperature: v.GetFloat64("llm.temperature"),
			Timeout:     v.GetString("llm.timeout"),
		},
		Events: EventsConfig{
			Provider: v.GetString("events.provider"),
			Brokers:  v.GetString("events.brokers"),
			Topic:    v.GetString("events.topic"),
		},
	}
}

// Duration parses a duration setting, falling back to def when s is empty.
func Duration(s string, def time.Duration) (time.Duration, error) {
	if s == "" {
		return def, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q: %w", s, err)
	}
	return d, nil
}
