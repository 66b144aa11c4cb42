// Package repository defines the leaderboard record store interface and errors.
package repository

import (
	"context"

	"github.com/okian/hotlap/internal/domain/model"
)

// Wildcard matches any value for a category filter field.
const Wildcard = -1

// Filter selects records by category codes. Any field set to Wildcard
// matches every value of that field.
type Filter struct {
	Car       int
	Track     int
	Layout    int
	Condition int
	Weather   int
}

// NewFilter returns a filter matching everything.
func NewFilter() Filter {
	return Filter{Car: Wildcard, Track: Wildcard, Layout: Wildcard, Condition: Wildcard, Weather: Wildcard}
}

// Matches reports whether a record satisfies the filter.
func (f Filter) Matches(r *model.Record) bool {
	switch {
	case f.Car != Wildcard && f.Car != r.Car:
		return false
	case f.Track != Wildcard && f.Track != r.Track:
		return false
	case f.Layout != Wildcard && f.Layout != r.Layout:
		return false
	case f.Condition != Wildcard && f.Condition != r.Condition:
		return false
	case f.Weather != Wildcard && f.Weather != r.Weather:
		return false
	}
	return true
}

// Store provides access to the persistent leaderboard record collection.
//
// The store serializes its own internal state, but the read-modify-write
// sequence of a mutation together with the Save that follows it must be
// serialized by the caller (the app service holds one lock across it).
type Store interface {
	// Load reads the persisted document. Corrupted content is quarantined
	// and replaced with an empty collection; Load fails only on I/O errors.
	Load(ctx context.Context) error

	// Save rewrites the persisted document from the in-memory collection.
	Save(ctx context.Context) error

	// NextID returns one greater than the maximum id present, 1 when empty.
	NextID() int64

	// Find returns the record for a key.
	// Returns ErrNotFound if no record exists for the key.
	Find(ctx context.Context, key model.Key) (model.Record, error)

	// Insert adds a new record. The key must not be present yet.
	Insert(ctx context.Context, rec model.Record) error

	// Update replaces the record with the same id.
	Update(ctx context.Context, rec model.Record) error

	// List returns all matching records ordered ascending by timing,
	// insertion order preserved on ties.
	List(ctx context.Context, f Filter) []model.Record

	// BestGhost returns the minimum-timing match that has a ghost attached,
	// optionally restricted to one driver. Returns ErrNotFound if none.
	BestGhost(ctx context.Context, f Filter, driverID string) (model.Record, error)

	// Count returns the number of records tracked.
	Count(ctx context.Context) int
}
