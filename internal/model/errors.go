package model

import "errors"

// Sentinel errors shared across layers. Handlers translate them into HTTP
// status codes; services and repositories wrap them with %w so callers can
// use errors.Is.
var (
	// ErrValidation marks a malformed or out-of-range configuration
	// (quantity outside bounds, missing required participant, past-dated
	// window). Rejected before anything is persisted.
	ErrValidation = errors.New("validation error")

	// ErrConflict marks an availability check failing at commit time or a
	// stale configuration. Retryable with a fresh configuration.
	ErrConflict = errors.New("conflict")

	// ErrAlreadyDecided marks a second decision by the same participant.
	// The original decision stands; no transition happens.
	ErrAlreadyDecided = errors.New("participant already decided")

	// ErrForbidden marks an actor that is neither a participant of the
	// reservation nor an administrator.
	ErrForbidden = errors.New("forbidden")

	// ErrNotFound marks a missing reservation, provider or catalog item.
	ErrNotFound = errors.New("not found")

	// ErrUnknownProvider marks a failed provider-data lookup. Callers must
	// treat the provider as unavailable, never as free.
	ErrUnknownProvider = errors.New("provider data unavailable")

	// ErrPartialWrite marks line items failing to persist after the
	// reservation header succeeded; the orphaned header has been
	// compensating-deleted.
	ErrPartialWrite = errors.New("partial persistence failure")
)
