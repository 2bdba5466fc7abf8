package config

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Flag is the single source of truth for a CLI flag.
// Commands reference flags by registry key rather than hard-coding names,
// shorthands, defaults, and descriptions inline, so the same logical flag
// (e.g. --vector-store-provider on both "medibot ingest" and "medibot serve")
// cannot drift.
type Flag struct {
	// Name is the long flag name (e.g. "listen").
	Name string

	// Shorthand is the one-letter short flag (e.g. "l"). Empty for no shorthand.
	Shorthand string

	// ViperKey is the dotted config key this flag maps to (e.g. "server.listen").
	ViperKey string

	// Description is the help text shown in --help output.
	Description string
}

// FlagSet is a mapping of flag names to Flag structs that hold their name,
// shorthand, viper key, etc.
type FlagSet map[string]Flag

// Flag registry keys.
const (
	FlagListen          = "listen"
	FlagTopK            = "top-k"
	FlagRequestTimeout  = "request-timeout"
	FlagServerTarget    = "server-target"
	FlagDataDir         = "data"
	FlagChunkSize       = "chunk-size"
	FlagChunkOverlap    = "chunk-overlap"
	FlagWorkers         = "workers"
	FlagBatchSize       = "batch-size"
	FlagVectorStoreProv = "vector-store-provider"
	FlagVectorStoreTgt  = "vector-store-target"
	FlagIndex           = "index"
	FlagEmbeddingProv   = "embedding-provider"
	FlagEmbeddingTgt    = "embedding-target"
	FlagEmbeddingModel  = "embedding-model"
	FlagEmbeddingDims   = "embedding-dimensions"
	FlagLLMTarget       = "llm-target"
	FlagLLMModel        = "llm-model"
	FlagMaxTokens       = "max-tokens"
	FlagTemperature     = "temperature"
	FlagEventsProvider  = "events-provider"
	FlagEventsBrokers   = "events-brokers"
)

// Registry holds every flag shared between medibot commands.
var Registry = FlagSet{
	FlagListen:          {Name: "listen", Shorthand: "l", ViperKey: "server.listen", Description: "Address for the query server to listen on"},
	FlagTopK:            {Name: "top-k", Shorthand: "k", ViperKey: "server.top_k", Description: "Number of chunks retrieved per question"},
	FlagRequestTimeout:  {Name: "request-timeout", ViperKey: "server.request_timeout", Description: "Timeout for answering a single question"},
	FlagServerTarget:    {Name: "server-target", Shorthand: "s", ViperKey: "client.server_target", Description: "Medibot server URL"},
	FlagDataDir:         {Name: "data", Shorthand: "d", ViperKey: "ingest.data_dir", Description: "Directory containing the PDF corpus"},
	FlagChunkSize:       {Name: "chunk-size", ViperKey: "ingest.chunk_size", Description: "Maximum chunk length in characters"},
	FlagChunkOverlap:    {Name: "chunk-overlap", ViperKey: "ingest.chunk_overlap", Description: "Overlap between consecutive chunks in characters"},
	FlagWorkers:         {Name: "workers", Shorthand: "w", ViperKey: "ingest.workers", Description: "Number of concurrent embedding workers"},
	FlagBatchSize:       {Name: "batch-size", ViperKey: "ingest.batch_size", Description: "Number of entries per vector store upsert"},
	FlagVectorStoreProv: {Name: "vector-store-provider", ViperKey: "vector_store.provider", Description: "Vector store provider (pinecone, qdrant, chroma, sqlite, pgvector, memory)"},
	FlagVectorStoreTgt:  {Name: "vector-store-target", ViperKey: "vector_store.target", Description: "Vector store address, URL, DSN, or database path"},
	FlagIndex:           {Name: "index", Shorthand: "i", ViperKey: "vector_store.index", Description: "Vector index or collection name"},
	FlagEmbeddingProv:   {Name: "embedding-provider", ViperKey: "embedding.provider", Description: "Embedding provider (ollama)"},
	FlagEmbeddingTgt:    {Name: "embedding-target", ViperKey: "embedding.target", Description: "Embedding provider URL"},
	FlagEmbeddingModel:  {Name: "embedding-model", ViperKey: "embedding.model", Description: "Embedding model name"},
	FlagEmbeddingDims:   {Name: "embedding-dimensions", ViperKey: "embedding.dimensions", Description: "Embedding dimensionality"},
	FlagLLMTarget:       {Name: "llm-target", ViperKey: "llm.target", Description: "LLM provider URL"},
	FlagLLMModel:        {Name: "llm-model", Shorthand: "m", ViperKey: "llm.model", Description: "LLM model used to answer questions"},
	FlagMaxTokens:       {Name: "max-tokens", ViperKey: "llm.max_tokens", Description: "Maximum generated tokens per answer"},
	FlagTemperature:     {Name: "temperature", ViperKey: "llm.temperature", Description: "LLM sampling temperature"},
	FlagEventsProvider:  {Name: "events-provider", ViperKey: "events.provider", Description: "Ingest event publisher (nop, kafka)"},
	FlagEventsBrokers:   {Name: "events-brokers", ViperKey: "events.brokers", Description: "Comma separated Kafka brokers"},
}

// AddStringFlag registers a string flag on cmd from the given FlagSet.
// The flag's name, shorthand, default, and description all come from the
// FlagSet entry so they cannot drift across commands.
func AddStringFlag(cmd *cobra.Command, fs FlagSet, key string, target *string) {
	def, ok := fs[key]
	if !ok {
		return
	}

	defaultVal := defaultViper().GetString(def.ViperKey)
	if def.Shorthand != "" {
		cmd.Flags().StringVarP(target, def.Name, def.Shorthand, defaultVal, def.Description)
	} else {
		cmd.Flags().StringVar(target, def.Name, defaultVal, def.Description)
	}
}

// AddUintFlag registers a uint flag on cmd from the given FlagSet.
func AddUintFlag(cmd *cobra.Command, fs FlagSet, registryKey string, target *uint) {
	def, ok := fs[registryKey]
	if !ok {
		return
	}

	defaultVal := defaultViper().GetUint(def.ViperKey)
	if def.Shorthand != "" {
		cmd.Flags().UintVarP(target, def.Name, def.Shorthand, defaultVal, def.Description)
	} else {
		cmd.Flags().UintVar(target, def.Name, defaultVal, def.Description)
	}
}

// AddFloatFlag registers a float64 flag on cmd from the given FlagSet.
func AddFloatFlag(cmd *cobra.Command, fs FlagSet, registryKey string, target *float64) {
	def, ok := fs[registryKey]
	if !ok {
		return
	}

	defaultVal := defaultViper().GetFloat64(def.ViperKey)
	if def.Shorthand != "" {
		cmd.Flags().Float64VarP(target, def.Name, def.Shorthand, defaultVal, def.Description)
	} else {
		cmd.Flags().Float64Var(target, def.Name, defaultVal, def.Description)
	}
}

// BindRegisteredFlags binds already-registered flags to viper using definitions
// from the given FlagSet. Call this in PreRunE after InitViper to connect flags
// to the viper precedence chain (flag > env > config file > default).
func BindRegisteredFlags(v *viper.Viper, cmd *cobra.Command, fs FlagSet, registryKeys []string) {
	for _, registryKey := range registryKeys {
		def, ok := fs[registryKey]
		if !ok {
			continue
		}

		f := cmd.Flags().Lookup(def.Name)
		if f == nil {
			continue
		}

		_ = v.BindPFlag(def.ViperKey, f)
	}
}

func defaultViper() *viper.Viper {
	v := viper.New()
	setViperDefaults(v)
	return v
}
