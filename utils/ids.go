package utils

import (
	"fmt"
	"sync/atomic"

	"github.com/google/uuid"
)

// IDGenerator produces opaque unique identifiers for new entities
type IDGenerator interface {
	NewID() string
}

// UUIDGenerator issues random v4 UUIDs
type UUIDGenerator struct{}

func (UUIDGenerator) NewID() string {
	return uuid.NewString()
}

// SequenceGenerator issues prefix-1, prefix-2, ... Deterministic, used in tests.
type SequenceGenerator struct {
	Prefix string
	next   atomic.Int64
}

func (s *SequenceGenerator) NewID() string {
	return fmt.Sprintf("%s-%d", s.Prefix, s.next.Add(1))
}
