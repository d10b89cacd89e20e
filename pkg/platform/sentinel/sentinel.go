package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores return these (optionally
// wrapped) so handlers can translate them into API errors.
//
// For validation errors (bad input, missing fields), use pkg/apierrors directly.
var (
	// ErrNotFound means no entry exists under the key.
	ErrNotFound = errors.New("not found")
)
