package blob

import "errors"

// Sentinel kinds for blob store errors.
var (
	ErrNotFound = errors.New("blob not found")
	ErrPut      = errors.New("blob write failed")
	ErrOpen     = errors.New("blob open failed")
	ErrBackend  = errors.New("blob backend unavailable")
)
