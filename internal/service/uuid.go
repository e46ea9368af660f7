package service

import "github.com/google/uuid"

// UUIDGenerator mints ids for content items and invalidation jobs.
type UUIDGenerator interface {
	NewString() string
}

// DefaultUUIDGenerator returns random (v4) ids.
type DefaultUUIDGenerator struct{}

func (g *DefaultUUIDGenerator) NewString() string {
	return uuid.NewString()
}
