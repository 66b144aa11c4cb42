package repository

import "errors"

// Sentinel kinds for record store errors.
var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("record already exists for key")
	ErrLoad      = errors.New("record store load failed")
	ErrSave      = errors.New("record store save failed")
)
