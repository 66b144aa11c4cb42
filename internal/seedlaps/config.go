// Package seedlaps generates plausible lap submissions against a running
// hotlap instance, for load testing and demo data.
package seedlaps

import "flag"

// Config controls the seeding run.
type Config struct {
	// BaseURL of the target instance, e.g. http://localhost:9080.
	BaseURL string

	// Drivers is the number of distinct driver identities to simulate.
	Drivers int

	// Submissions is the total number of lap submissions to send.
	Submissions int

	// GhostRatio is the fraction of submissions that also upload a ghost.
	GhostRatio float64

	// GhostBytes is the size of each generated ghost payload.
	GhostBytes int
}

// ParseFlags builds a Config from command-line flags.
func ParseFlags() *Config {
	cfg := &Config{}
	flag.StringVar(&cfg.BaseURL, "base-url", "http://localhost:9080", "target instance base URL")
	flag.IntVar(&cfg.Drivers, "drivers", 20, "number of simulated drivers")
	flag.IntVar(&cfg.Submissions, "submissions", 200, "total lap submissions to send")
	flag.Float64Var(&cfg.GhostRatio, "ghost-ratio", 0.3, "fraction of submissions uploading a ghost")
	flag.IntVar(&cfg.GhostBytes, "ghost-bytes", 4096, "size of each generated ghost payload")
	flag.Parse()
	return cfg
}
