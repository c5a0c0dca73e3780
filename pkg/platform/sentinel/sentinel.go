package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores, fetchers, and other
// infrastructure layers return these (optionally wrapped) so services can
// translate them into domain errors.
//
// These represent factual states about resources, not validation failures:
// - ErrNotFound: entity or artifact does not exist in the store
// - ErrConflict: uniqueness constraint would be violated
// - ErrUnavailable: an external source or resource is unreachable
var (
	ErrNotFound    = errors.New("not found")
	ErrConflict    = errors.New("conflict")
	ErrUnavailable = errors.New("unavailable")
)
