package models

// Chunk is one retrieval passage of a document.
// ChunkIndex is contiguous per document, starting at 0.
type Chunk struct {
	ID         string `bson:"_id" json:"chunk_id"`
	DocumentID string `bson:"document_id" json:"document_id"`
	ChunkIndex int    `bson:"chunk_index" json:"chunk_index"`
	Text       string `bson:"text" json:"text"`
	Section    string `bson:"section,omitempty" json:"section,omitempty"`
}

// ChunkWithScore pairs a chunk with its cosine similarity to a query vector.
type ChunkWithScore struct {
	Chunk Chunk
	Score float64
}

// ChunkIndexEntry is the denormalized row stored for vector search.
// Keeping the vector next to the text enables $vectorSearch without a lookup.
type ChunkIndexEntry struct {
	ID         string    `bson:"_id"`
	DocumentID string    `bson:"document_id"`
	ChunkIndex int       `bson:"chunk_index"`
	Text       string    `bson:"text"`
	Section    string    `bson:"section,omitempty"`
	Embedding  []float32 `bson:"embedding"`
}

// NewChunkIndexEntry builds the stored row for a chunk and its vector
func NewChunkIndexEntry(chunk Chunk, embedding []float32) ChunkIndexEntry {
	return ChunkIndexEntry{
		ID:         chunk.ID,
		DocumentID: chunk.DocumentID,
		ChunkIndex: chunk.ChunkIndex,
		Text:       chunk.Text,
		Section:    chunk.Section,
		Embedding:  embedding,
	}
}

// ToChunk drops the vector
func (e ChunkIndexEntry) ToChunk() Chunk {
	return Chunk{
		ID:         e.ID,
		DocumentID: e.DocumentID,
		ChunkIndex: e.ChunkIndex,
		Text:       e.Text,
		Section:    e.Section,
	}
}
