package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sectionReport = "Section 1\nRevenue grew by 20 percent.\n\nSection 2\nProfit was stable."

func TestUploadChunksAndIndexesDocument(t *testing.T) {
	p := newPipeline(t, ChunkerOptions{ChunkTokens: 10, OverlapRatio: 0.15, MinChunkTokens: 1})

	doc, err := p.upload.Execute(context.Background(), "report.pdf", []byte(sectionReport))
	require.NoError(t, err)
	assert.Equal(t, "report.pdf", doc.Filename)
	assert.Equal(t, p.clock.Now(), doc.CreatedAt)
	assert.Len(t, p.store.Documents(), 1)

	chunks := p.store.Chunks()
	require.GreaterOrEqual(t, len(chunks), 2)
	assert.Equal(t, "Section 1", chunks[0].Section)
	assert.Contains(t, chunks[0].Text, "Revenue")
	assert.Equal(t, "Section 2", chunks[1].Section)
	for i, c := range chunks {
		assert.Equal(t, i, c.ChunkIndex)
		assert.Equal(t, doc.ID, c.DocumentID)
	}
	// one batch call, never the single-text path
	assert.Equal(t, 1, p.provider.embedMany)
	assert.Equal(t, 0, p.provider.embedOne)
}

func TestUploadWhitespaceOnlyIsEmptyDocument(t *testing.T) {
	p := newPipeline(t, DefaultChunkerOptions())

	_, err := p.upload.Execute(context.Background(), "blank.pdf", []byte(" \n\n\t  \n"))
	require.ErrorIs(t, err, ErrEmptyDocument)
	assert.Empty(t, p.store.Documents())
	assert.Empty(t, p.store.Chunks())
	assert.Equal(t, 0, p.provider.embedMany)
}

func TestUploadExtractionFailure(t *testing.T) {
	p := newPipeline(t, DefaultChunkerOptions())
	p.upload.extractor = plainTextExtractor{err: errBoom}

	_, err := p.upload.Execute(context.Background(), "broken.pdf", []byte("x"))
	require.ErrorIs(t, err, errBoom)
	assert.Empty(t, p.store.Documents())
}

func TestUploadChunkInsertFailureWritesNoChunks(t *testing.T) {
	p := newPipeline(t, DefaultChunkerOptions())
	p.upload.chunks = failingChunkRepository{ChunkRepository: p.store, err: errBoom}

	_, err := p.upload.Execute(context.Background(), "report.pdf", []byte(sectionReport))
	require.ErrorIs(t, err, errBoom)
	assert.Empty(t, p.store.Chunks())
}

func TestUploadRetryWithSameIDKeepsOneDocument(t *testing.T) {
	p := newPipeline(t, DefaultChunkerOptions())
	p.upload.chunks = failingChunkRepository{ChunkRepository: p.store, err: errBoom}

	_, err := p.upload.ExecuteWithID(context.Background(), "doc-1", "report.pdf", []byte(sectionReport))
	require.ErrorIs(t, err, errBoom)
	require.Len(t, p.store.Documents(), 1)

	p.upload.chunks = p.store
	doc, err := p.upload.ExecuteWithID(context.Background(), "doc-1", "report.pdf", []byte(sectionReport))
	require.NoError(t, err)
	assert.Equal(t, "doc-1", doc.ID)

	docs := p.store.Documents()
	require.Len(t, docs, 1)
	assert.Equal(t, "doc-1", docs[0].ID)
	require.NotEmpty(t, p.store.Chunks())
	for _, c := range p.store.Chunks() {
		assert.Equal(t, "doc-1", c.DocumentID)
	}
}

func TestUploadEmbeddingCountMismatchPanics(t *testing.T) {
	p := newPipeline(t, DefaultChunkerOptions())
	p.provider.shortBy = 1

	assert.Panics(t, func() {
		_, _ = p.upload.Execute(context.Background(), "report.pdf", []byte(sectionReport))
	})
	assert.Empty(t, p.store.Chunks())
}

func TestBuildChunksSkipsBlankPiecesWithContiguousIndex(t *testing.T) {
	p := newPipeline(t, DefaultChunkerOptions())
	chunks := p.upload.buildChunks("doc", []TextPiece{
		{Text: "first"},
		{Text: "   "},
		{Text: "second", Section: "Section 2"},
	})
	require.Len(t, chunks, 2)
	assert.Equal(t, 0, chunks[0].ChunkIndex)
	assert.Equal(t, 1, chunks[1].ChunkIndex)
	assert.Equal(t, "Section 2", chunks[1].Section)
	assert.NotEqual(t, chunks[0].ID, chunks[1].ID)
}

func TestPDFExtractorRejectsGarbage(t *testing.T) {
	_, err := NewPDFExtractor().ExtractText([]byte("definitely not a pdf"))
	assert.ErrorIs(t, err, ErrInvalidPDF)

	_, err = NewPDFExtractor().ExtractText(nil)
	assert.ErrorIs(t, err, ErrInvalidPDF)
}
