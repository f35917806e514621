package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores and infrastructure layers
// return these (optionally wrapped) so services can translate them into domain
// errors.
//
// These represent factual states about resources, not validation failures:
// - ErrNotFound: document does not exist in the store
// - ErrNoIdentity: a user-scoped operation ran without a resolved identity
// - ErrDuplicate: an identical submission is already outstanding
// - ErrClosed: the store or subscription has been shut down
// - ErrUnavailable: backing service temporarily unreachable
//
// For validation errors (bad input, missing fields), use pkg/domain-errors.
var (
	ErrNotFound    = errors.New("not found")
	ErrNoIdentity  = errors.New("no identity")
	ErrDuplicate   = errors.New("duplicate submission")
	ErrClosed      = errors.New("closed")
	ErrUnavailable = errors.New("unavailable")
)
