// Package model contains domain models passed between layers.
package model

import "time"

// SubmitOutcome tags the result of a lap-time submission.
type SubmitOutcome string

// Submission outcomes.
const (
	OutcomeCreated       SubmitOutcome = "created"
	OutcomeUpdatedBest   SubmitOutcome = "updated_best"
	OutcomeIgnoredSlower SubmitOutcome = "ignored_slower"
)

// Combo identifies one leaderboard context: the five category codes a
// lap was driven under.
type Combo struct {
	Car       int `json:"car"`
	Track     int `json:"track"`
	Layout    int `json:"layout"`
	Condition int `json:"condition"`
	Weather   int `json:"weather"`
}

// Key identifies at most one record in the store.
type Key struct {
	DriverID string
	Combo    Combo
}

// Record is one leaderboard row. The JSON tags define the schema of the
// persisted document; UpdatedAt marshals as RFC3339.
type Record struct {
	ID          int64   `json:"id"`
	DriverID    string  `json:"driverId"`
	Name        string  `json:"name"`
	Car         int     `json:"car"`
	Track       int     `json:"track"`
	Layout      int     `json:"layout"`
	Condition   int     `json:"condition"`
	Weather     int     `json:"weather"`
	Timing      float64 `json:"timing"`
	GhostLength int     `json:"ghostLength"`

	// Blob reference. Exactly one of ObjectKey/LocalPath is set when a
	// ghost is attached; SHA256 is empty iff neither is.
	ObjectKey string `json:"objectKey,omitempty"`
	LocalPath string `json:"localPath,omitempty"`
	SHA256    string `json:"sha256,omitempty"`
	ByteSize  int64  `json:"byteSize,omitempty"`

	UpdatedAt time.Time `json:"lastUpdatedAt"`
}

// Key returns the composite identity of the record.
func (r *Record) Key() Key {
	return Key{DriverID: r.DriverID, Combo: r.Combo()}
}

// Combo returns the five category codes of the record.
func (r *Record) Combo() Combo {
	return Combo{
		Car:       r.Car,
		Track:     r.Track,
		Layout:    r.Layout,
		Condition: r.Condition,
		Weather:   r.Weather,
	}
}

// HasGhost reports whether a replay blob is attached.
func (r *Record) HasGhost() bool {
	return r.SHA256 != ""
}

// Locator returns the backend-specific blob address.
func (r *Record) Locator() string {
	if r.ObjectKey != "" {
		return r.ObjectKey
	}
	return r.LocalPath
}

// Submission is a validated lap-time submission from a game client.
type Submission struct {
	DriverID    string
	Name        string
	Combo       Combo
	Timing      float64
	GhostLength int
}

// GhostUpload is a validated ghost upload: a submission plus the replay
// payload and the digest the client declared for it. DeclaredSize is kept
// for diagnostics only and never trusted.
type GhostUpload struct {
	Submission
	SHA256       string
	DeclaredSize int64
}
