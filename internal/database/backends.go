package database

import (
	"context"
	"errors"
	"fmt"

	"findocbot/internal/config"
	"findocbot/internal/logger"
	"findocbot/models"
)

// RecordStore holds documents and chat history.
type RecordStore interface {
	Create(ctx context.Context, doc models.Document) error
	AddTurn(ctx context.Context, turn models.ChatTurn) error
	ListRecent(ctx context.Context, sessionID string, limit int) ([]models.ChatTurn, error)
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}

// ChunkIndex stores chunk rows with their vectors and answers nearest-neighbor queries.
type ChunkIndex interface {
	AddChunksWithEmbeddings(ctx context.Context, chunks []models.Chunk, embeddings [][]float32) error
	SearchByEmbedding(ctx context.Context, embedding []float32, topK int) ([]models.ChunkWithScore, error)
	Close(ctx context.Context) error
}

// Backends is the storage selected by STORE_BACKEND and VECTOR_BACKEND.
type Backends struct {
	Records RecordStore
	Chunks  ChunkIndex
}

// Open connects the configured backends. When both roles are served by the
// same store, the same value is used for both.
func Open(ctx context.Context, cfg *config.Config) (*Backends, error) {
	var records RecordStore
	switch cfg.StoreBackend {
	case config.BackendMongo:
		client, err := config.ConnectMongoDB(cfg)
		if err != nil {
			return nil, err
		}
		records = NewMongoStore(client, cfg.DBName, cfg.VectorIndexName)
	case config.BackendMemory:
		records = NewMemoryStore()
	default:
		return nil, fmt.Errorf("unsupported store backend: %s", cfg.StoreBackend)
	}

	b, err := withChunkIndex(ctx, cfg, records)
	if err != nil {
		return nil, err
	}
	logger.Info("Storage backends ready", "store", cfg.StoreBackend, "vectors", cfg.VectorBackend)
	return b, nil
}

// withChunkIndex pairs records with the configured chunk index. records is
// closed when the index cannot be opened.
func withChunkIndex(ctx context.Context, cfg *config.Config, records RecordStore) (*Backends, error) {
	chunks, err := openChunkIndex(ctx, cfg, records)
	if err != nil {
		if closeErr := records.Close(ctx); closeErr != nil {
			logger.Warn("Failed to close record store", "error", closeErr)
		}
		return nil, err
	}
	return &Backends{Records: records, Chunks: chunks}, nil
}

func openChunkIndex(ctx context.Context, cfg *config.Config, records RecordStore) (ChunkIndex, error) {
	switch cfg.VectorBackend {
	case config.BackendMongo:
		mongoStore, ok := records.(*MongoStore)
		if !ok {
			return nil, errors.New("mongo vector backend requires the mongo store backend")
		}
		return mongoStore, nil
	case config.BackendMemory:
		if mem, ok := records.(*MemoryStore); ok {
			return mem, nil
		}
		return NewMemoryStore(), nil
	case config.BackendQdrant:
		q, err := NewQdrantStore(QdrantOptions{
			Host:       cfg.QdrantHost,
			Port:       cfg.QdrantPort,
			UseTLS:     cfg.QdrantUseTLS,
			APIKey:     cfg.QdrantAPIKey,
			Collection: cfg.QdrantCollection,
			VectorDim:  cfg.VectorDim,
		})
		if err != nil {
			return nil, err
		}
		if err := q.EnsureCollection(ctx); err != nil {
			_ = q.Close(ctx)
			return nil, err
		}
		return q, nil
	case config.BackendChromem:
		return NewChromemStore(cfg.ChromemPath)
	default:
		return nil, fmt.Errorf("unsupported vector backend: %s", cfg.VectorBackend)
	}
}

// Close releases both backends, closing a shared store once.
func (b *Backends) Close(ctx context.Context) error {
	var errs []error
	if b.Chunks != nil {
		if shared, ok := b.Chunks.(RecordStore); !ok || shared != b.Records {
			errs = append(errs, b.Chunks.Close(ctx))
		}
	}
	if b.Records != nil {
		errs = append(errs, b.Records.Close(ctx))
	}
	return errors.Join(errs...)
}
