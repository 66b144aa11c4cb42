// Package blob provides content-addressed storage for ghost replay blobs.
//
// Two backends implement the same contract: an S3-compatible object store
// and a local directory. The backend is chosen once at startup from
// configuration and never switched afterward. Blobs are addressed by the
// lowercase hex SHA-256 of their bytes; integrity verification happens in
// the caller before Put, not here.
package blob

import (
	"context"
	"io"
	"strings"
)

// DefaultExt is the file extension used for stored replays.
const DefaultExt = "tsreplay"

// remotePrefix namespaces ghost objects inside the bucket.
const remotePrefix = "ghosts/"

// Backend identifiers.
const (
	BackendS3   = "s3"
	BackendDisk = "disk"
)

// Store writes and reads ghost blobs addressed by digest.
type Store interface {
	// Put writes the blob for a digest and returns its backend-specific
	// locator (object key or filename). Re-putting an existing digest
	// succeeds; at worst it performs a redundant write.
	Put(ctx context.Context, digest string, r io.Reader, size int64) (string, error)

	// Open returns the blob bytes for a locator and the content length
	// when known ahead of time. Returns ErrNotFound for missing blobs.
	Open(ctx context.Context, locator string) (io.ReadCloser, int64, error)

	// Backend identifies the implementation, BackendS3 or BackendDisk.
	Backend() string
}

// NormalizeDigest lowercases a client-declared hex digest so that
// comparisons and derived storage keys are case-insensitive.
func NormalizeDigest(digest string) string {
	return strings.ToLower(strings.TrimSpace(digest))
}

// objectKey derives the remote storage key for a digest.
func objectKey(digest, ext string) string {
	return remotePrefix + digest + "." + ext
}

// fileName derives the local filename for a digest.
func fileName(digest, ext string) string {
	return digest + "." + ext
}
