package app

import (
	"errors"
	"fmt"
)

// Sentinel kinds for service errors.
var (
	ErrNotStarted = errors.New("service not started")
)

// IntegrityError reports a mismatch between the digest a client declared
// and the digest computed over the bytes actually received. Both values are
// carried for diagnosis.
type IntegrityError struct {
	Declared string
	Computed string
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("ghost digest mismatch: declared %s, computed %s", e.Declared, e.Computed)
}
