// Package idgen produces opaque identifiers for new catalog records.
package idgen

import (
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// Prefix is prepended to every generated identifier.
const Prefix = "_"

// Generator produces unique opaque string identifiers.
type Generator interface {
	Generate() string
}

// UUID generates identifiers from random (version 4) UUIDs.
// Uniqueness is best effort: no re-check against existing ids is made.
type UUID struct{}

// NewUUID creates a new UUID generator.
func NewUUID() *UUID {
	return &UUID{}
}

// Generate returns the prefix followed by the 32 lowercase hex digits of a new UUID.
func (UUID) Generate() string {
	return Prefix + strings.ReplaceAll(uuid.NewString(), "-", "")
}

// Sequence is a deterministic generator yielding _1, _2, _3 and so on.
// It is intended for tests.
type Sequence struct {
	mu   sync.Mutex
	next int
}

// NewSequence creates a Sequence whose first identifier is _1.
func NewSequence() *Sequence {
	return &Sequence{next: 1}
}

// Generate returns the next identifier in the sequence.
func (s *Sequence) Generate() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := fmt.Sprintf("%s%d", Prefix, s.next)
	s.next++

	return id
}
