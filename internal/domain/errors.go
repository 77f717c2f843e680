package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound signals a missing resource.
	ErrNotFound = errors.New("not found")
	// ErrUnknownKind signals a record kind with no schema.
	ErrUnknownKind = errors.New("unknown record kind")
	// ErrBatchNotLoaded signals that no record batch exists for a kind yet.
	ErrBatchNotLoaded = errors.New("record batch not loaded")
	// ErrInvalidFilter signals an unusable filter state (bad date bound, min > max, ...).
	ErrInvalidFilter = errors.New("invalid filter")
	// ErrInvalidBatch signals an upload that could not be decoded into records.
	ErrInvalidBatch = errors.New("invalid record batch")
	// ErrBatchTooLarge signals an upload above the configured size limit.
	ErrBatchTooLarge = errors.New("record batch too large")

	// ErrInvalidRequest signals a malformed request body.
	ErrInvalidRequest = errors.New("invalid request")

	// ErrAssistantDisabled signals that no assistant provider is configured.
	ErrAssistantDisabled = errors.New("assistant not configured")
	// ErrAssistantProviderError signals an assistant provider failure.
	ErrAssistantProviderError = errors.New("assistant provider error")
	// ErrAssistantQuotaExceeded signals an exhausted assistant token budget.
	ErrAssistantQuotaExceeded = errors.New("assistant token quota exceeded")
	// ErrRateLimited signals a rate limit hit.
	ErrRateLimited = errors.New("rate limited")
)

// FieldError wraps ErrInvalidFilter with the offending filter parameter.
type FieldError struct {
	Field  string
	Reason string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %s: %s", ErrInvalidFilter.Error(), e.Field, e.Reason)
}

func (e *FieldError) Unwrap() error { return ErrInvalidFilter }

// NewFieldError creates an invalid filter error for a single parameter.
func NewFieldError(field, reason string) error {
	return &FieldError{Field: field, Reason: reason}
}
