package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	ProviderGemini = "gemini"
	ProviderOllama = "ollama"

	BackendMongo   = "mongo"
	BackendMemory  = "memory"
	BackendQdrant  = "qdrant"
	BackendChromem = "chromem"

	// Above this many entries the embedding cache starts to cost real memory.
	CacheSizeWarnThreshold = 10000
)

type Config struct {
	Port        string
	GinMode     string
	CORSOrigins []string
	MaxFileSize int64

	// Model provider
	ModelProvider    string
	GeminiAPIKey     string
	GeminiChatModel  string
	GeminiEmbedModel string
	GeminiTier       string
	OllamaBaseURL    string
	OllamaChatModel  string
	OllamaEmbedModel string

	// Embeddings
	EmbeddingBatchSize int
	EmbeddingCacheSize int
	EmbeddingCacheTTL  time.Duration

	// Chunking
	ChunkTokens       int
	ChunkOverlapRatio float64
	MinChunkTokens    int

	// Retrieval
	DefaultTopK     int
	MaxHistoryPairs int

	// Storage
	StoreBackend     string
	VectorBackend    string
	MongoURI         string
	DBName           string
	VectorIndexName  string
	VectorDim        int
	QdrantHost       string
	QdrantPort       int
	QdrantUseTLS     bool
	QdrantAPIKey     string
	QdrantCollection string
	ChromemPath      string

	// Redis Configuration
	RedisURL      string
	RedisPassword string
	RedisDB       int

	RateLimitEnabled bool
	RateLimitReqs    int
	RateLimitWindow  int

	AsyncIngestionEnabled bool

	// Observability
	OTELEnabled        bool
	OTELEndpoint       string
	CacheStatsInterval time.Duration
	LogLevel           string
	LogFormat          string
}

func LoadConfig() (*Config, error) {
	// Load .env file if exists
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(); err != nil {
			return nil, fmt.Errorf("error loading .env file: %v", err)
		}
	}

	cfg := &Config{
		Port:        getEnv("PORT", "8080"),
		GinMode:     getEnv("GIN_MODE", "debug"),
		CORSOrigins: strings.Split(getEnv("CORS_ORIGINS", "http://localhost:3000,http://localhost:8080"), ","),
		MaxFileSize: getEnvInt64("MAX_FILE_SIZE", 20971520), // 20MB

		ModelProvider:    strings.ToLower(getEnv("MODEL_PROVIDER", ProviderGemini)),
		GeminiAPIKey:     getEnv("GEMINI_API_KEY", ""),
		GeminiChatModel:  getEnv("GEMINI_CHAT_MODEL", "gemini-2.0-flash"),
		GeminiEmbedModel: getEnv("GEMINI_EMBED_MODEL", "text-embedding-004"),
		GeminiTier:       getEnv("GEMINI_TIER", "free"),
		OllamaBaseURL:    getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
		OllamaChatModel:  getEnv("OLLAMA_CHAT_MODEL", "qwen2.5:7b"),
		OllamaEmbedModel: getEnv("OLLAMA_EMBED_MODEL", "nomic-embed-text:latest"),

		EmbeddingBatchSize: getEnvInt("EMBEDDING_BATCH_SIZE", 50),
		EmbeddingCacheSize: getEnvInt("EMBEDDING_CACHE_SIZE", 1000),
		EmbeddingCacheTTL:  getEnvDuration("EMBEDDING_CACHE_TTL", time.Hour),

		ChunkTokens:       getEnvInt("CHUNK_TOKENS", 300),
		ChunkOverlapRatio: getEnvFloat64("CHUNK_OVERLAP_RATIO", 0.15),
		MinChunkTokens:    getEnvInt("MIN_CHUNK_TOKENS", 80),

		DefaultTopK:     getEnvInt("DEFAULT_TOP_K", 5),
		MaxHistoryPairs: getEnvInt("MAX_HISTORY_PAIRS", 5),

		StoreBackend:     strings.ToLower(getEnv("STORE_BACKEND", BackendMongo)),
		VectorBackend:    strings.ToLower(getEnv("VECTOR_BACKEND", BackendMongo)),
		MongoURI:         getEnv("MONGO_URI", "mongodb://localhost:27017/findocbot"),
		DBName:           getEnv("DB_NAME", "findocbot"),
		VectorIndexName:  getEnv("MONGODB_VECTOR_INDEX", "chunks_vector"),
		VectorDim:        getEnvInt("VECTOR_DIM", 768),
		QdrantHost:       getEnv("QDRANT_HOST", "localhost"),
		QdrantPort:       getEnvInt("QDRANT_PORT", 6334),
		QdrantUseTLS:     getEnvBool("QDRANT_USE_TLS", false),
		QdrantAPIKey:     getEnv("QDRANT_API_KEY", ""),
		QdrantCollection: getEnv("QDRANT_COLLECTION", "findocbot_chunks"),
		ChromemPath:      getEnv("CHROMEM_PATH", ""),

		RedisURL:      getEnv("REDIS_URL", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		RateLimitEnabled: getEnvBool("RATE_LIMIT_ENABLED", false),
		RateLimitReqs:    getEnvInt("RATE_LIMIT_REQUESTS", 100),
		RateLimitWindow:  getEnvInt("RATE_LIMIT_WINDOW", 60),

		AsyncIngestionEnabled: getEnvBool("ASYNC_INGESTION_ENABLED", false),

		OTELEnabled:        getEnvBool("OTEL_ENABLED", false),
		OTELEndpoint:       getEnv("OTEL_ENDPOINT", "localhost:4317"),
		CacheStatsInterval: getEnvDuration("CACHE_STATS_INTERVAL", 5*time.Minute),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		LogFormat:          getEnv("LOG_FORMAT", ""),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks value ranges and the backend/provider combinations.
func (c *Config) Validate() error {
	switch c.ModelProvider {
	case ProviderGemini:
		if c.GeminiAPIKey == "" {
			return fmt.Errorf("GEMINI_API_KEY is required when MODEL_PROVIDER=gemini - set it in .env file")
		}
	case ProviderOllama:
		if c.OllamaBaseURL == "" {
			return fmt.Errorf("OLLAMA_BASE_URL is required when MODEL_PROVIDER=ollama")
		}
	default:
		return fmt.Errorf("unsupported MODEL_PROVIDER %q", c.ModelProvider)
	}

	switch c.StoreBackend {
	case BackendMongo, BackendMemory:
	default:
		return fmt.Errorf("unsupported STORE_BACKEND %q", c.StoreBackend)
	}
	switch c.VectorBackend {
	case BackendMongo, BackendMemory, BackendQdrant, BackendChromem:
	default:
		return fmt.Errorf("unsupported VECTOR_BACKEND %q", c.VectorBackend)
	}
	if c.VectorBackend == BackendMongo && c.StoreBackend != BackendMongo {
		return fmt.Errorf("VECTOR_BACKEND=mongo requires STORE_BACKEND=mongo")
	}

	if c.ChunkTokens < 1 {
		return fmt.Errorf("CHUNK_TOKENS must be >= 1, got %d", c.ChunkTokens)
	}
	if c.ChunkOverlapRatio < 0 || c.ChunkOverlapRatio >= 1 {
		return fmt.Errorf("CHUNK_OVERLAP_RATIO must be in [0, 1), got %v", c.ChunkOverlapRatio)
	}
	if c.MinChunkTokens < 0 {
		return fmt.Errorf("MIN_CHUNK_TOKENS must be >= 0, got %d", c.MinChunkTokens)
	}
	if c.EmbeddingCacheSize < 1 {
		return fmt.Errorf("EMBEDDING_CACHE_SIZE must be >= 1, got %d", c.EmbeddingCacheSize)
	}
	if c.EmbeddingCacheTTL < 0 {
		return fmt.Errorf("EMBEDDING_CACHE_TTL must not be negative")
	}
	if c.EmbeddingBatchSize < 1 {
		return fmt.Errorf("EMBEDDING_BATCH_SIZE must be >= 1, got %d", c.EmbeddingBatchSize)
	}
	if c.DefaultTopK < 1 || c.DefaultTopK > 20 {
		return fmt.Errorf("DEFAULT_TOP_K must be between 1 and 20, got %d", c.DefaultTopK)
	}
	if c.MaxHistoryPairs < 0 {
		return fmt.Errorf("MAX_HISTORY_PAIRS must be >= 0, got %d", c.MaxHistoryPairs)
	}
	if c.VectorDim < 1 {
		return fmt.Errorf("VECTOR_DIM must be >= 1, got %d", c.VectorDim)
	}
	return nil
}
