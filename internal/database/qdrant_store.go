package database

import (
	"context"
	"fmt"

	"findocbot/models"

	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"
)

type QdrantOptions struct {
	Host       string
	Port       int
	UseTLS     bool
	APIKey     string
	Collection string
	VectorDim  int
}

// QdrantStore keeps chunk rows as Qdrant points with cosine distance.
type QdrantStore struct {
	client     *qdrant.Client
	collection string
	vectorDim  int
}

func NewQdrantStore(opts QdrantOptions) (*QdrantStore, error) {
	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   opts.Host,
		Port:   opts.Port,
		UseTLS: opts.UseTLS,
		APIKey: opts.APIKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Qdrant: %w", err)
	}
	return &QdrantStore{client: client, collection: opts.Collection, vectorDim: opts.VectorDim}, nil
}

// EnsureCollection creates the collection when it does not exist yet.
func (s *QdrantStore) EnsureCollection(ctx context.Context) error {
	exists, err := s.client.CollectionExists(ctx, s.collection)
	if err != nil {
		return fmt.Errorf("failed to check collection %s: %w", s.collection, err)
	}
	if exists {
		return nil
	}
	err = s.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: s.collection,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     uint64(s.vectorDim),
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		return fmt.Errorf("failed to create collection %s: %w", s.collection, err)
	}
	return nil
}

// pointID maps a chunk id onto the UUID space Qdrant accepts.
func pointID(chunkID string) string {
	if id, err := uuid.Parse(chunkID); err == nil {
		return id.String()
	}
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(chunkID)).String()
}

func chunkPayload(c models.Chunk) map[string]*qdrant.Value {
	return qdrant.NewValueMap(map[string]any{
		"chunk_id":    c.ID,
		"document_id": c.DocumentID,
		"chunk_index": int64(c.ChunkIndex),
		"text":        c.Text,
		"section":     c.Section,
	})
}

func chunkFromPayload(payload map[string]*qdrant.Value) models.Chunk {
	return models.Chunk{
		ID:         payload["chunk_id"].GetStringValue(),
		DocumentID: payload["document_id"].GetStringValue(),
		ChunkIndex: int(payload["chunk_index"].GetIntegerValue()),
		Text:       payload["text"].GetStringValue(),
		Section:    payload["section"].GetStringValue(),
	}
}

// AddChunksWithEmbeddings upserts all points in a single request and waits for it to apply.
func (s *QdrantStore) AddChunksWithEmbeddings(ctx context.Context, chunks []models.Chunk, embeddings [][]float32) error {
	if err := checkLengths(chunks, embeddings); err != nil {
		return err
	}
	if len(chunks) == 0 {
		return nil
	}

	points := make([]*qdrant.PointStruct, len(chunks))
	for i, c := range chunks {
		points[i] = &qdrant.PointStruct{
			Id:      qdrant.NewIDUUID(pointID(c.ID)),
			Vectors: qdrant.NewVectors(embeddings[i]...),
			Payload: chunkPayload(c),
		}
	}

	_, err := s.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: s.collection,
		Wait:           qdrant.PtrOf(true),
		Points:         points,
	})
	if err != nil {
		return fmt.Errorf("upserting points to collection %s: %w", s.collection, err)
	}
	return nil
}

func (s *QdrantStore) SearchByEmbedding(ctx context.Context, embedding []float32, topK int) ([]models.ChunkWithScore, error) {
	if topK <= 0 {
		return []models.ChunkWithScore{}, nil
	}
	res, err := s.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: s.collection,
		Query:          qdrant.NewQuery(embedding...),
		Limit:          qdrant.PtrOf(uint64(topK)),
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("querying collection %s: %w", s.collection, err)
	}

	out := make([]models.ChunkWithScore, len(res))
	for i, p := range res {
		out[i] = models.ChunkWithScore{Chunk: chunkFromPayload(p.GetPayload()), Score: float64(p.GetScore())}
	}
	return out, nil
}

func (s *QdrantStore) Close(ctx context.Context) error {
	return s.client.Close()
}
