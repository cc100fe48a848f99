package types

import (
	"github.com/google/uuid"
)

// JobID represents a UUIDv7 print job identifier.
// String alias enables type safety while maintaining JSON string serialization.
// UUIDv7 time-ordering ensures sequential IDs cluster in B-tree indexes.
type JobID string

// RuleID represents a UUIDv7 rule identifier.
type RuleID string

// NewJobID generates a UUIDv7 job identifier.
// Panics on clock regression (uuid.Must); acceptable for ID generation.
func NewJobID() JobID {
	return JobID(uuid.Must(uuid.NewV7()).String())
}

// NewRuleID generates a UUIDv7 rule identifier.
func NewRuleID() RuleID {
	return RuleID(uuid.Must(uuid.NewV7()).String())
}

// ParseJobID validates and converts a string to JobID.
// Rejects malformed UUIDs to prevent invalid IDs from entering the system.
func ParseJobID(s string) (JobID, error) {
	if _, err := uuid.Parse(s); err != nil {
		return "", err
	}
	return JobID(s), nil
}
