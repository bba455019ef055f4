package services

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	// A token is a run of word characters or one other non-space character.
	tokenRegex     = regexp.MustCompile(`[\p{L}\p{M}\p{N}_]+|[^\p{L}\p{M}\p{N}_\s\p{Z}\x{0B}\x{1C}-\x{1F}\x{85}]`)
	paragraphRegex = regexp.MustCompile(`\n{2,}`)
	sectionRegex   = regexp.MustCompile(`(?i)^(?:section|chapter|глава|раздел)(?:[^\p{L}\p{M}\p{N}_]|$)`)
)

// TextPiece is one chunk produced by the chunker. Section is empty when no
// heading has been seen yet.
type TextPiece struct {
	Text    string
	Section string
}

type ChunkerOptions struct {
	ChunkTokens    int
	OverlapRatio   float64
	MinChunkTokens int
}

// DefaultChunkerOptions: 300-token chunks, 15% overlap, 80-token minimum tail.
func DefaultChunkerOptions() ChunkerOptions {
	return ChunkerOptions{ChunkTokens: 300, OverlapRatio: 0.15, MinChunkTokens: 80}
}

// Chunker splits extracted text into overlapping, section-tagged passages
// while keeping paragraphs together where they fit.
type Chunker struct {
	chunkTokens    int
	overlapTokens  int
	minChunkTokens int
}

func NewChunker(opts ChunkerOptions) (*Chunker, error) {
	if opts.ChunkTokens < 1 {
		return nil, fmt.Errorf("chunk size must be at least 1 token, got %d", opts.ChunkTokens)
	}
	if opts.OverlapRatio < 0 || opts.OverlapRatio >= 1 {
		return nil, fmt.Errorf("overlap ratio must be in [0, 1), got %v", opts.OverlapRatio)
	}
	if opts.MinChunkTokens < 0 {
		return nil, fmt.Errorf("min chunk size must not be negative, got %d", opts.MinChunkTokens)
	}
	overlap := int(float64(opts.ChunkTokens) * opts.OverlapRatio)
	if overlap < 1 {
		overlap = 1
	}
	return &Chunker{
		chunkTokens:    opts.ChunkTokens,
		overlapTokens:  overlap,
		minChunkTokens: opts.MinChunkTokens,
	}, nil
}

func tokenize(text string) []string {
	return tokenRegex.FindAllString(text, -1)
}

func countTokens(text string) int {
	return len(tokenRegex.FindAllStringIndex(text, -1))
}

func splitParagraphs(text string) []string {
	var out []string
	for _, p := range paragraphRegex.Split(text, -1) {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// sectionLabel returns the trimmed first line when it opens with a section keyword.
func sectionLabel(paragraph string) (string, bool) {
	first := paragraph
	if i := strings.IndexAny(paragraph, "\r\n"); i >= 0 {
		first = paragraph[:i]
	}
	first = strings.TrimSpace(first)
	if sectionRegex.MatchString(first) {
		return first, true
	}
	return "", false
}

// Split returns the chunks of text in document order.
func (c *Chunker) Split(text string) []TextPiece {
	pieces := []TextPiece{}
	var buffer []string
	bufferTokens := 0
	section := ""

	for _, paragraph := range splitParagraphs(text) {
		paraTokens := countTokens(paragraph)
		label, isHeading := sectionLabel(paragraph)

		if bufferTokens+paraTokens <= c.chunkTokens {
			if isHeading {
				section = label
			}
			buffer = append(buffer, paragraph)
			bufferTokens += paraTokens
			continue
		}

		if len(buffer) == 0 {
			if isHeading {
				section = label
			}
			pieces = append(pieces, c.splitLongParagraph(paragraph, section)...)
			continue
		}

		// The closed chunk belongs to the section that was in force while it filled.
		closed := strings.TrimSpace(strings.Join(buffer, "\n\n"))
		pieces = append(pieces, TextPiece{Text: closed, Section: section})
		if isHeading {
			section = label
		}

		buffer = buffer[:0]
		bufferTokens = 0
		if overlap := c.overlapOf(closed); overlap != "" {
			buffer = append(buffer, overlap)
			bufferTokens = countTokens(overlap)
		}
		if len(buffer) == 0 || paragraph != buffer[0] {
			buffer = append(buffer, paragraph)
			bufferTokens += paraTokens
		}
	}

	if len(buffer) == 0 {
		return pieces
	}
	last := strings.TrimSpace(strings.Join(buffer, "\n\n"))
	if bufferTokens >= c.minChunkTokens || len(pieces) == 0 {
		return append(pieces, TextPiece{Text: last, Section: section})
	}
	prev := &pieces[len(pieces)-1]
	prev.Text = strings.TrimSpace(prev.Text + "\n\n" + last)
	return pieces
}

// overlapOf joins the trailing overlap tokens of a closed chunk with single spaces.
func (c *Chunker) overlapOf(chunk string) string {
	tokens := tokenize(chunk)
	if len(tokens) > c.overlapTokens {
		tokens = tokens[len(tokens)-c.overlapTokens:]
	}
	return strings.Join(tokens, " ")
}

// splitLongParagraph cuts a paragraph that alone exceeds the limit into fixed
// token windows sharing overlapTokens tokens.
func (c *Chunker) splitLongParagraph(paragraph, section string) []TextPiece {
	tokens := tokenize(paragraph)
	if len(tokens) <= c.chunkTokens {
		return []TextPiece{{Text: paragraph, Section: section}}
	}

	step := c.chunkTokens - c.overlapTokens
	if step < 1 {
		step = 1
	}
	var out []TextPiece
	for start := 0; start < len(tokens); start += step {
		end := start + c.chunkTokens
		if end > len(tokens) {
			end = len(tokens)
		}
		if piece := strings.Join(tokens[start:end], " "); piece != "" {
			out = append(out, TextPiece{Text: piece, Section: section})
		}
		if end == len(tokens) {
			break
		}
	}
	return out
}
