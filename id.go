package batchsched

import (
	"github.com/google/uuid"
)

// JobID identifies a submitted job for its whole lifetime, retries included.
type JobID string

// IDGenerator produces job identifiers and validates caller-supplied ones.
//
// Implementations must be safe for concurrent use.
type IDGenerator interface {
	NewID() JobID
	Valid(id JobID) bool
}

// UUIDGenerator issues random (version 4) UUIDs.
type UUIDGenerator struct{}

func (UUIDGenerator) NewID() JobID { return JobID(uuid.NewString()) }

// Valid reports whether id parses as a UUID.
func (UUIDGenerator) Valid(id JobID) bool {
	if id == "" {
		return false
	}
	_, err := uuid.Parse(string(id))
	return err == nil
}
