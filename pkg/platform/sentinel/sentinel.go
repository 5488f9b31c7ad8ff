package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores return these (optionally
// wrapped) so services can translate them into coded domain errors.
//
// These represent factual states about stored resources, not rule outcomes:
// - ErrNotFound: record does not exist in the store
// - ErrConflict: record already exists / unique constraint hit
// - ErrInvalidState: record is in the wrong lifecycle state for the mutation
// - ErrUnavailable: backing service temporarily unavailable
//
// Compliance and verification outcomes are never sentinels; they are coded
// errors from pkg/platform/errs.
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrInvalidState = errors.New("invalid state")
	ErrUnavailable  = errors.New("unavailable")
)
