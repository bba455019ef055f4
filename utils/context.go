package utils

import (
	"context"
	"time"
)

const (
	// DefaultTimeout is the default timeout for store round trips
	DefaultTimeout = 10 * time.Second

	// LongTimeout covers ingestion: extraction, batch embedding and the chunk insert
	LongTimeout = 5 * time.Minute

	// GenerationTimeout bounds a single ask, retrieval plus generation
	GenerationTimeout = 2 * time.Minute

	// ShortTimeout is for pings and health checks
	ShortTimeout = 2 * time.Second
)

// WithTimeout creates a context with default timeout
func WithTimeout(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, DefaultTimeout)
}

// WithLongTimeout creates a context for uploads
func WithLongTimeout(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, LongTimeout)
}

// WithGenerationTimeout creates a context for question answering
func WithGenerationTimeout(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, GenerationTimeout)
}

// WithShortTimeout creates a context with short timeout for quick operations
func WithShortTimeout(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, ShortTimeout)
}
