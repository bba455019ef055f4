package database

import (
	"context"
	"fmt"

	"findocbot/internal/config"
	"findocbot/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// numCandidatesFactor widens the HNSW candidate pool relative to the result limit.
const numCandidatesFactor = 20

// MongoStore persists documents, chunk rows and chat turns in MongoDB. Vector
// search uses an Atlas $vectorSearch index over chunks.embedding.
type MongoStore struct {
	client      *mongo.Client
	db          *mongo.Database
	vectorIndex string
}

func NewMongoStore(client *mongo.Client, dbName, vectorIndex string) *MongoStore {
	return &MongoStore{
		client:      client,
		db:          client.Database(dbName),
		vectorIndex: vectorIndex,
	}
}

func (s *MongoStore) Create(ctx context.Context, doc models.Document) error {
	_, err := s.db.Collection(config.DocumentsCollection).ReplaceOne(ctx,
		bson.M{"_id": doc.ID}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to store document: %w", err)
	}
	return nil
}

// AddChunksWithEmbeddings inserts every chunk row inside one transaction.
// Requires a replica set or Atlas cluster.
func (s *MongoStore) AddChunksWithEmbeddings(ctx context.Context, chunks []models.Chunk, embeddings [][]float32) error {
	if err := checkLengths(chunks, embeddings); err != nil {
		return err
	}
	if len(chunks) == 0 {
		return nil
	}

	docs := make([]interface{}, len(chunks))
	for i, c := range chunks {
		docs[i] = models.NewChunkIndexEntry(c, embeddings[i])
	}

	sess, err := s.client.StartSession()
	if err != nil {
		return fmt.Errorf("failed to start session: %w", err)
	}
	defer sess.EndSession(ctx)

	col := s.db.Collection(config.ChunksCollection)
	_, err = sess.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return col.InsertMany(sc, docs)
	})
	if err != nil {
		return fmt.Errorf("failed to insert chunks: %w", err)
	}
	return nil
}

// vectorSearchPipeline builds the $vectorSearch aggregation for the chunks collection.
func vectorSearchPipeline(index string, embedding []float32, topK int) mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$vectorSearch", Value: bson.D{
			{Key: "index", Value: index},
			{Key: "path", Value: "embedding"},
			{Key: "queryVector", Value: embedding},
			{Key: "numCandidates", Value: topK * numCandidatesFactor},
			{Key: "limit", Value: topK},
		}}},
		{{Key: "$project", Value: bson.D{
			{Key: "_id", Value: 1},
			{Key: "document_id", Value: 1},
			{Key: "chunk_index", Value: 1},
			{Key: "text", Value: 1},
			{Key: "section", Value: 1},
			{Key: "score", Value: bson.D{{Key: "$meta", Value: "vectorSearchScore"}}},
		}}},
	}
}

// atlasScoreToCosine undoes Atlas' (1 + cos) / 2 normalization for cosine indexes.
func atlasScoreToCosine(score float64) float64 {
	return 2*score - 1
}

type scoredChunkRow struct {
	ID         string  `bson:"_id"`
	DocumentID string  `bson:"document_id"`
	ChunkIndex int     `bson:"chunk_index"`
	Text       string  `bson:"text"`
	Section    string  `bson:"section,omitempty"`
	Score      float64 `bson:"score"`
}

func (s *MongoStore) SearchByEmbedding(ctx context.Context, embedding []float32, topK int) ([]models.ChunkWithScore, error) {
	if topK <= 0 {
		return []models.ChunkWithScore{}, nil
	}
	cursor, err := s.db.Collection(config.ChunksCollection).Aggregate(ctx, vectorSearchPipeline(s.vectorIndex, embedding, topK))
	if err != nil {
		return nil, fmt.Errorf("vector search failed: %w", err)
	}
	defer cursor.Close(ctx)

	var rows []scoredChunkRow
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("failed to decode vector search results: %w", err)
	}

	out := make([]models.ChunkWithScore, len(rows))
	for i, r := range rows {
		out[i] = models.ChunkWithScore{
			Chunk: models.Chunk{
				ID:         r.ID,
				DocumentID: r.DocumentID,
				ChunkIndex: r.ChunkIndex,
				Text:       r.Text,
				Section:    r.Section,
			},
			Score: atlasScoreToCosine(r.Score),
		}
	}
	return out, nil
}

func (s *MongoStore) AddTurn(ctx context.Context, turn models.ChatTurn) error {
	seq, err := s.nextTurnSeq(ctx, turn.SessionID)
	if err != nil {
		return err
	}
	turn.Seq = seq

	_, err = s.db.Collection(config.ChatTurnsCollection).InsertOne(ctx, turn)
	if err != nil {
		return fmt.Errorf("failed to insert chat turn: %w", err)
	}
	return nil
}

// nextTurnSeq increments the session's turn counter, creating it on first use.
func (s *MongoStore) nextTurnSeq(ctx context.Context, sessionID string) (int64, error) {
	var counter struct {
		TurnSeq int64 `bson:"turn_seq"`
	}
	err := s.db.Collection(config.ChatSessionsCollection).FindOneAndUpdate(ctx,
		bson.M{"_id": sessionID},
		bson.M{"$inc": bson.M{"turn_seq": 1}},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&counter)
	if err != nil {
		return 0, fmt.Errorf("failed to allocate turn sequence: %w", err)
	}
	return counter.TurnSeq, nil
}

// historyFindOptions selects the newest limit turns. Seq orders turns that
// share a timestamp.
func historyFindOptions(limit int) *options.FindOptions {
	return options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "seq", Value: -1}}).
		SetLimit(int64(limit))
}

// ListRecent loads the newest limit turns of a session and returns them oldest first.
func (s *MongoStore) ListRecent(ctx context.Context, sessionID string, limit int) ([]models.ChatTurn, error) {
	turns := []models.ChatTurn{}
	if limit <= 0 {
		return turns, nil
	}

	cursor, err := s.db.Collection(config.ChatTurnsCollection).Find(ctx, bson.M{"session_id": sessionID}, historyFindOptions(limit))
	if err != nil {
		return nil, fmt.Errorf("failed to load chat history: %w", err)
	}
	defer cursor.Close(ctx)

	if err := cursor.All(ctx, &turns); err != nil {
		return nil, fmt.Errorf("failed to decode chat history: %w", err)
	}

	// Reverse to chronological order
	for i, j := 0, len(turns)-1; i < j; i, j = i+1, j-1 {
		turns[i], turns[j] = turns[j], turns[i]
	}
	return turns, nil
}

func (s *MongoStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, nil)
}

func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// VectorIndexModel is the Atlas vector search definition over chunks.embedding.
func VectorIndexModel(name string, dim int) mongo.SearchIndexModel {
	return mongo.SearchIndexModel{
		Definition: bson.D{
			{Key: "fields", Value: bson.A{
				bson.D{
					{Key: "type", Value: "vector"},
					{Key: "path", Value: "embedding"},
					{Key: "numDimensions", Value: dim},
					{Key: "similarity", Value: "cosine"},
				},
				bson.D{
					{Key: "type", Value: "filter"},
					{Key: "path", Value: "document_id"},
				},
			}},
		},
		Options: options.SearchIndexes().SetName(name).SetType("vectorSearch"),
	}
}

// EnsureVectorIndex creates the vector search index unless one with the same
// name already exists.
func (s *MongoStore) EnsureVectorIndex(ctx context.Context, dim int) error {
	view := s.db.Collection(config.ChunksCollection).SearchIndexes()

	cursor, err := view.List(ctx, options.SearchIndexes().SetName(s.vectorIndex))
	if err != nil {
		return fmt.Errorf("failed to list search indexes: %w", err)
	}
	var existing []bson.M
	if err := cursor.All(ctx, &existing); err != nil {
		return fmt.Errorf("failed to read search indexes: %w", err)
	}
	if len(existing) > 0 {
		return nil
	}

	if _, err := view.CreateOne(ctx, VectorIndexModel(s.vectorIndex, dim)); err != nil {
		return fmt.Errorf("failed to create vector index %s: %w", s.vectorIndex, err)
	}
	return nil
}
