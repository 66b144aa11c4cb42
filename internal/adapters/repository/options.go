// Package repository defines the leaderboard record store interface and errors.
package repository

import "github.com/okian/hotlap/pkg/logger"

// Option applies a configuration option to the FileStore.
type Option func(*FileStore)

// WithLogger sets a custom logger for the store.
func WithLogger(l logger.Logger) Option {
	return func(s *FileStore) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithCompactJSON disables indentation in the persisted document.
func WithCompactJSON() Option {
	return func(s *FileStore) {
		s.indent = false
	}
}
