package services

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrValidation    = errors.New("validation error")
	ErrConfiguration = errors.New("configuration error")
	ErrNotFound      = errors.New("not found")
	ErrConflict      = errors.New("conflict")
	ErrTimeout       = errors.New("timeout")
	ErrUpstream      = errors.New("upstream unavailable")
)

// Wrap builds an error message that includes component context while tagging it
// with the provided marker for later classification. The marker should be one
// of the exported sentinel errors above.
func Wrap(marker error, component, operation, message string, err error) error {
	detail := buildDetail(component, operation, message)
	if marker == nil {
		marker = ErrUpstream
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// UpstreamError reports a provider request that failed after the retry budget
// was spent. Status is the last HTTP status observed (0 for transport errors).
// Retryable records whether the failure class was eligible for retries, so
// callers can distinguish exhausted-retries from hard rejections.
type UpstreamError struct {
	Status     int
	Retryable  bool
	RetryAfter time.Duration
	Err        error
}

func (e *UpstreamError) Error() string {
	var b strings.Builder
	b.WriteString("upstream request failed")
	if e.Status > 0 {
		fmt.Fprintf(&b, " (status %d)", e.Status)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

// Unwrap tags the error with ErrUpstream, and additionally with ErrTimeout when
// the underlying cause was a deadline, so errors.Is works against both markers.
func (e *UpstreamError) Unwrap() []error {
	markers := []error{ErrUpstream}
	if e.Err != nil {
		markers = append(markers, e.Err)
	}
	return markers
}

// IsNotFound reports whether err represents a missing entity.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsValidation reports whether err represents a rejected payload or argument.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}

// IsConflict reports whether err represents a concurrent-modification conflict.
func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict)
}

// IsUpstream reports whether err represents a provider failure.
func IsUpstream(err error) bool {
	return errors.Is(err, ErrUpstream)
}

// IsRetryable reports whether err describes a failure that a later identical
// call could plausibly succeed on: timeouts and upstream failures flagged
// retryable (5xx, 429, transport errors).
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	var upstream *UpstreamError
	if errors.As(err, &upstream) {
		return upstream.Retryable
	}
	return errors.Is(err, ErrTimeout)
}

func buildDetail(component, operation, message string) string {
	parts := make([]string, 0, 3)
	if component = strings.TrimSpace(component); component != "" {
		parts = append(parts, component)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
