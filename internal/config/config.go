// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() to build a Config with defaults; Load layers file and env.
// - External errors must be wrapped via this package's error helpers.
package config

import "path/filepath"

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// DataDir is the root for locally persisted state.
	DataDir string `koanf:"data_dir"`

	// RecordsFile is the leaderboard document, relative to DataDir unless
	// absolute.
	RecordsFile string `koanf:"records_file"`

	// GhostDir is the local ghost blob directory, relative to DataDir
	// unless absolute. Used only when the disk backend is selected.
	GhostDir string `koanf:"ghost_dir"`

	// GhostExt is the stored replay file extension, without the dot.
	GhostExt string `koanf:"ghost_ext"`

	// MaxGhostBytes caps accepted ghost upload payloads.
	MaxGhostBytes int64 `koanf:"max_ghost_bytes"`

	// S3 settings. The remote backend is selected iff Endpoint, AccessKey
	// and SecretKey are all set.
	S3Endpoint  string `koanf:"s3_endpoint"`
	S3AccessKey string `koanf:"s3_access_key"`
	S3SecretKey string `koanf:"s3_secret_key"`
	S3Bucket    string `koanf:"s3_bucket"`
	S3Secure    bool   `koanf:"s3_secure"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:      "info",
		Addr:          ":9080",
		DataDir:       "data",
		RecordsFile:   "records.json",
		GhostDir:      "ghosts",
		GhostExt:      "tsreplay",
		MaxGhostBytes: 32 << 20,
		S3Bucket:      "hotlap-ghosts",
		S3Secure:      true,
	}
}

// UseS3 reports whether the remote blob backend is configured. Backend
// selection is a pure function of credential presence and happens once at
// startup.
func (c *Config) UseS3() bool {
	return c.S3Endpoint != "" && c.S3AccessKey != "" && c.S3SecretKey != ""
}

// RecordsPath resolves the leaderboard document path.
func (c *Config) RecordsPath() string {
	if filepath.IsAbs(c.RecordsFile) {
		return c.RecordsFile
	}
	return filepath.Join(c.DataDir, c.RecordsFile)
}

// GhostPath resolves the local ghost directory path.
func (c *Config) GhostPath() string {
	if filepath.IsAbs(c.GhostDir) {
		return c.GhostDir
	}
	return filepath.Join(c.DataDir, c.GhostDir)
}
