package engine

import "github.com/google/uuid"

// EvalIDGenerator produces identifiers for match events.
//
// Production uses UUIDv7Generator. Tests inject a fixed-sequence
// generator for deterministic golden output.
type EvalIDGenerator interface {
	Generate() string
}

// UUIDv7Generator generates time-sortable UUIDv7 event identifiers.
//
// UUIDv7 embeds a timestamp in the most significant bits, so match
// events sort by creation time, which helps when correlating alerts
// across stores.
//
// Thread-safety: UUIDv7Generator is stateless and safe for concurrent
// use.
type UUIDv7Generator struct{}

// Generate creates a new UUIDv7 and returns it as a hyphenated string.
//
// Panics if UUID generation fails (should never happen in practice).
func (g UUIDv7Generator) Generate() string {
	return uuid.Must(uuid.NewV7()).String()
}
