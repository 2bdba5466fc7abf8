package config

const (
	defaultListen       = ":8080"
	defaultTopK         = 2
	defaultReqTimeout   = "3m"
	defaultServerTarget = "http://localhost:8080"

	defaultDataDir      = "data"
	defaultChunkSize    = 500
	defaultChunkOverlap = 20
	defaultWorkers      = 4
	defaultBatchSize    = 100

	defaultVectorProvider = "pinecone"
	defaultIndex          = "medical-bot-llama2-7b"
	defaultCloud          = "aws"
	defaultRegion         = "us-east-1"
	defaultDimensions     = 384

	defaultOllamaTarget   = "http://localhost:11434"
	defaultEmbeddingModel = "all-minilm"

	defaultLLMModel       = "llama2:7b-chat-q4_0"
	defaultMaxTokens      = 512
	defaultTemperature    = 0.8
	defaultLLMTimeout     = "2m"
	defaultEventsProvider = "nop"
	defaultEventsTopic    = "medibot.ingest"
)

// NewDefaultConfig returns a Config with sane defaults for all fields.
// This is the single source of truth for default values.
func NewDefaultConfig() *Config {
	return &Config{
		Version: CurrentV,
		Server: ServerConfig{
			Listen:         defaultListen,
			TopK:           defaultTopK,
			RequestTimeout: defaultReqTimeout,
		},
		Client: ClientConfig{
			ServerTarget: defaultServerTarget,
		},
		Ingest: IngestConfig{
			DataDir:      defaultDataDir,
			ChunkSize:    defaultChunkSize,
			ChunkOverlap: defaultChunkOverlap,
			Workers:      defaultWorkers,
			BatchSize:    defaultBatchSize,
		},
		VectorStore: VectorStoreConfig{
			Provider:   defaultVectorProvider,
			Index:      defaultIndex,
			Cloud:      defaultCloud,
			Region:     defaultRegion,
			Dimensions: defaultDimensions,
		},
		Embedding: EmbeddingConfig{
			Provider:   "ollama",
			Target:     defaultOllamaTarget,
			Model:      defaultEmbeddingModel,
			Dimensions: defaultDimensions,
		},
		LLM: LLMConfig{
			Provider:    "ollama",
			Target:      defaultOllamaTarget,
			Model:       defaultLLMModel,
			MaxTokens:   defaultMaxTokens,
			Temperature: defaultTemperature,
			Timeout:     defaultLLMTimeout,
		},
		Events: EventsConfig{
			Provider: defaultEventsProvider,
			Topic:    defaultEventsTopic,
		},
	}
}
