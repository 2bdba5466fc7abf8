package config

import (
	"fmt"
	"strconv"
)

// Config represents the persistent medibot configuration stored as
// config.toml in the .medibot/ directory.
type Config struct {
	Version     int               `toml:"version"`
	Server      ServerConfig      `toml:"server"`
	Client      ClientConfig      `toml:"client"`
	Ingest      IngestConfig      `toml:"ingest"`
	VectorStore VectorStoreConfig `toml:"vector_store"`
	Embedding   EmbeddingConfig   `toml:"embedding"`
	LLM         LLMConfig         `toml:"llm"`
	Events      EventsConfig      `toml:"events"`
}

// ServerConfig holds query service settings.
type ServerConfig struct {
	Listen         string `toml:"listen,omitempty"`
	TopK           uint   `toml:"top_k,omitempty"`
	RequestTimeout string `toml:"request_timeout,omitempty"`
}

// ClientConfig holds settings for CLI commands that talk to a running server
// (medibot ask, medibot chat). Values are full URLs.
type ClientConfig struct {
	ServerTarget string `toml:"server_target,omitempty"`
}

// IngestConfig holds ingestion pipeline settings.
type IngestConfig struct {
	DataDir      string `toml:"data_dir,omitempty"`
	ChunkSize    uint   `toml:"chunk_size,omitempty"`
	ChunkOverlap uint   `toml:"chunk_overlap,omitempty"`
	Workers      uint   `toml:"workers,omitempty"`
	BatchSize    uint   `toml:"batch_size,omitempty"`
}

// VectorStoreConfig holds vector store settings. APIKey is normally supplied
// through PINECONE_API_KEY rather than written to disk.
type VectorStoreConfig struct {
	Provider   string `toml:"provider,omitempty"`
	Target     string `toml:"target,omitempty"`
	APIKey     string `toml:"api_key,omitempty"`
	Index      string `toml:"index,omitempty"`
	Cloud      string `toml:"cloud,omitempty"`
	Region     string `toml:"region,omitempty"`
	Dimensions uint   `toml:"dimensions,omitempty"`
}

// EmbeddingConfig holds embedding provider settings.
type EmbeddingConfig struct {
	Provider   string `toml:"provider,omitempty"`
	Target     string `toml:"target,omitempty"`
	Model      string `toml:"model,omitempty"`
	Dimensions uint   `toml:"dimensions,omitempty"`
}

// LLMConfig holds answer generation settings.
type LLMConfig struct {
	Provider    string  `toml:"provider,omitempty"`
	Target      string  `toml:"target,omitempty"`
	Model       string  `toml:"model,omitempty"`
	MaxTokens   uint    `toml:"max_tokens,omitempty"`
	Temperature float64 `toml:"temperature,omitempty"`
	Timeout     string  `toml:"timeout,omitempty"`
}

// EventsConfig holds ingest event publishing settings.
type EventsConfig struct {
	Provider string `toml:"provider,omitempty"`
	Brokers  string `toml:"brokers,omitempty"`
	Topic    string `toml:"topic,omitempty"`
}

// configKeyInfo maps a user-facing dotted key name to a getter and setter on *Config.
type configKeyInfo struct {
	get func(c *Config) string
	set func(c *Config, v string) error
}

func stringKey(field func(c *Config) *string) configKeyInfo {
	return configKeyInfo{
		get: func(c *Config) string { return *field(c) },
		set: func(c *Config, v string) error { *field(c) = v; return nil },
	}
}

func uintKey(name string, field func(c *Config) *uint) configKeyInfo {
	return configKeyInfo{
		get: func(c *Config) string {
			if *field(c) == 0 {
				return ""
			}
			return strconv.FormatUint(uint64(*field(c)), 10)
		},
		set: func(c *Config, v string) error {
			n, err := strconv.ParseUint(v, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid value for %s: %w", name, err)
			}
			*field(c) = uint(n)
			return nil
		},
	}
}

// configKeys is the authoritative map of all supported config keys.
// Keys use dotted notation matching the TOML section structure.
var configKeys = map[string]configKeyInfo{
	"server.listen":          stringKey(func(c *Config) *string { return &c.Server.Listen }),
	"server.top_k":           uintKey("server.top_k", func(c *Config) *uint { return &c.Server.TopK }),
	"server.request_timeout": stringKey(func(c *Config) *string { return &c.Server.RequestTimeout }),

	"client.server_target": stringKey(func(c *Config) *string { return &c.Client.ServerTarget }),

	"ingest.data_dir":      stringKey(func(c *Config) *string { return &c.Ingest.DataDir }),
	"ingest.chunk_size":    uintKey("ingest.chunk_size", func(c *Config) *uint { return &c.Ingest.ChunkSize }),
	"ingest.chunk_overlap": uintKey("ingest.chunk_overlap", func(c *Config) *uint { return &c.Ingest.ChunkOverlap }),
	"ingest.workers":       uintKey("ingest.workers", func(c *Config) *uint { return &c.Ingest.Workers }),
	"ingest.batch_size":    uintKey("ingest.batch_size", func(c *Config) *uint { return &c.Ingest.BatchSize }),

	"vector_store.provider":   stringKey(func(c *Config) *string { return &c.VectorStore.Provider }),
	"vector_store.target":     stringKey(func(c *Config) *string { return &c.VectorStore.Target }),
	"vector_store.index":      stringKey(func(c *Config) *string { return &c.VectorStore.Index }),
	"vector_store.cloud":      stringKey(func(c *Config) *string { return &c.VectorStore.Cloud }),
	"vector_store.region":     stringKey(func(c *Config) *string { return &c.VectorStore.Region }),
	"vector_store.dimensions": uintKey("vector_store.dimensions", func(c *Config) *uint { return &c.VectorStore.Dimensions }),

	"embedding.provider":   stringKey(func(c *Config) *string { return &c.Embedding.Provider }),
	"embedding.target":     stringKey(func(c *Config) *string { return &c.Embedding.Target }),
	"embedding.model":      stringKey(func(c *Config) *string { return &c.Embedding.Model }),
	"embedding.dimensions": uintKey("embedding.dimensions", func(c *Config) *uint { return &c.Embedding.Dimensions }),

	"llm.provider":   stringKey(func(c *Config) *string { return &c.LLM.Provider }),
	"llm.target":     stringKey(func(c *Config) *string { return &c.LLM.Target }),
	"llm.model":      stringKey(func(c *Config) *string { return &c.LLM.Model }),
	"llm.max_tokens": uintKey("llm.max_tokens", func(c *Config) *uint { return &c.LLM.MaxTokens }),
	"llm.temperature": {
		get: func(c *Config) string { return strconv.FormatFloat(c.LLM.Temperature, 'f', -1, 64) },
		set: func(c *Config, v string) error {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return fmt.Errorf("invalid value for llm.temperature: %w", err)
			}
			c.LLM.Temperature = f
			return nil
		},
	},
	"llm.timeout": stringKey(func(c *Config) *string { return &c.LLM.Timeout }),

	"events.provider": stringKey(func(c *Config) *string { return &c.Events.Provider }),
	"events.brokers":  stringKey(func(c *Config) *string { return &c.Events.Brokers }),
	"events.topic":    stringKey(func(c *Config) *string { return &c.Events.Topic }),
}
