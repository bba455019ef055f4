package database

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"findocbot/models"
)

// ErrLengthMismatch is returned when chunks and embeddings differ in count.
var ErrLengthMismatch = errors.New("chunks and embeddings length mismatch")

func checkLengths(chunks []models.Chunk, embeddings [][]float32) error {
	if len(chunks) != len(embeddings) {
		return fmt.Errorf("%w: %d chunks, %d embeddings", ErrLengthMismatch, len(chunks), len(embeddings))
	}
	return nil
}

// CosineSimilarity returns the cosine of the angle between a and b, computed in
// float64. Vectors of different length or with zero norm score 0.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// rankByCosine scores every entry against query and keeps the topK best,
// highest first. Ties keep insertion order.
func rankByCosine(entries []models.ChunkIndexEntry, query []float32, topK int) []models.ChunkWithScore {
	if topK <= 0 || len(entries) == 0 {
		return []models.ChunkWithScore{}
	}
	scored := make([]models.ChunkWithScore, len(entries))
	for i, e := range entries {
		scored[i] = models.ChunkWithScore{Chunk: e.ToChunk(), Score: CosineSimilarity(query, e.Embedding)}
	}
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})
	if len(scored) > topK {
		scored = scored[:topK]
	}
	return scored
}
