package idgen

import (
	"github.com/google/uuid"
)

// ID prefixes for different models
const (
	PrefixSession = "fs_"
	PrefixTask    = "fst_"
)

// NewSession generates a new focus session ID with fs_ prefix
func NewSession() string {
	return PrefixSession + uuid.New().String()
}

// NewTask generates a new focus task ID with fst_ prefix
func NewTask() string {
	return PrefixTask + uuid.New().String()
}

// New generates a generic UUID without prefix (request IDs, etc.)
func New() string {
	return uuid.New().String()
}
