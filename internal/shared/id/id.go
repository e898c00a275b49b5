// Package id provides centralized ID generation for the island engine.
//
// This package offers type-safe ULID generation with:
//   - Lexicographic sortability: Enables efficient time-based digest queries
//   - Prefixed types: Type-specific prefixes for debugging (isl_*, dig_*, act_*)
//   - Type safety: Separate types prevent ID misuse
//
// Design Principles:
//   - ULIDs only: Single ID format across the engine
//   - K-sortable: Digest timeline queries without extra timestamps
//   - Debuggable: Prefixes make logs readable
package id

import (
	"crypto/rand"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// IslandID identifies one ActiveIsland instance
type IslandID string

// DigestID identifies one digest log row
type DigestID string

// ActionID identifies one dispatched user action
type ActionID string

const (
	IslandPrefix = "isl"
	DigestPrefix = "dig"
	ActionPrefix = "act"
)

// Generator generates ULIDs with optional prefixes
type Generator struct {
	entropy   io.Reader
	entropyMu sync.Mutex // Protects entropy reader
}

var (
	defaultGenerator *Generator
	once             sync.Once
)

// Default returns the singleton generator instance
func Default() *Generator {
	once.Do(func() {
		defaultGenerator = NewGenerator()
	})
	return defaultGenerator
}

// NewGenerator creates a new ULID generator
func NewGenerator() *Generator {
	return &Generator{
		entropy: rand.Reader,
	}
}

// NewGeneratorWithEntropy creates a generator with custom entropy source
// Useful for testing with deterministic entropy
func NewGeneratorWithEntropy(entropy io.Reader) *Generator {
	return &Generator{
		entropy: entropy,
	}
}

// Generate creates a new ULID
func (g *Generator) Generate() ulid.ULID {
	g.entropyMu.Lock()
	defer g.entropyMu.Unlock()

	return ulid.MustNew(ulid.Timestamp(time.Now()), g.entropy)
}

// GenerateString creates a new ULID as a string
func (g *Generator) GenerateString() string {
	return g.Generate().String()
}

// GenerateWithPrefix creates a prefixed ULID string
func (g *Generator) GenerateWithPrefix(prefix string) string {
	return fmt.Sprintf("%s_%s", prefix, g.GenerateString())
}

// NewIslandID generates a new island instance ID
func NewIslandID() IslandID {
	return IslandID(Default().GenerateWithPrefix(IslandPrefix))
}

// NewDigestID generates a new digest row ID
func NewDigestID() DigestID {
	return DigestID(Default().GenerateWithPrefix(DigestPrefix))
}

// NewActionID generates a new action dispatch ID
func NewActionID() ActionID {
	return ActionID(Default().GenerateWithPrefix(ActionPrefix))
}

func (id IslandID) String() string { return string(id) }
func (id DigestID) String() string { return string(id) }
func (id ActionID) String() string { return string(id) }

// IsValid checks if an ID string is a valid ULID
func IsValid(id string) bool {
	_, err := ulid.Parse(id)
	return err == nil
}

// Parse parses a ULID string
func Parse(id string) (ulid.ULID, error) {
	return ulid.Parse(id)
}

// Timestamp extracts the timestamp from a ULID
func Timestamp(id string) (time.Time, error) {
	parsed, err := Parse(id)
	if err != nil {
		return time.Time{}, err
	}
	return ulid.Time(parsed.Time()), nil
}
