// Package services implements the review backend use-cases: review creation
// and regeneration, hybrid search suggestions, voting, image backfills and
// catalog browsing. This file centralizes the service-level error values so
// that service methods return them consistently and handlers can map them to
// HTTP status codes.
package services

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrInvalidInput is returned when required request fields are blank or a
	// value is outside its allowed set.
	ErrInvalidInput = errors.New("invalid input")

	// ErrProductNotFound indicates that no product exists for the slug.
	ErrProductNotFound = errors.New("product not found")

	// ErrImageNotFound is returned when no image provider produced a URL.
	ErrImageNotFound = errors.New("image not found")

	// ErrCooldown is matched by every *CooldownError.
	ErrCooldown = errors.New("review regeneration cooling down")

	// ErrProviderFailed wraps a mandatory provider step that failed after
	// retries. The underlying *providers.Error stays reachable via errors.As.
	ErrProviderFailed = errors.New("provider failed")

	// ErrParse is returned when generated output does not match the expected
	// schema. It is also an ErrProviderFailed.
	ErrParse = errors.New("unparseable model output")
)

// CooldownError reports how long until the product may be regenerated.
type CooldownError struct {
	Remaining time.Duration
	RetryAt   time.Time
}

func (e *CooldownError) Error() string {
	return fmt.Sprintf("%v: retry in %s", ErrCooldown, e.Remaining.Round(time.Second))
}

func (e *CooldownError) Is(target error) bool { return target == ErrCooldown }

// invalid wraps ErrInvalidInput with a field-specific message.
func invalid(msg string) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, msg)
}

// parseError marks err as a schema mismatch of a mandatory provider step.
func parseError(err error) error {
	return fmt.Errorf("%w: %w: %w", ErrProviderFailed, ErrParse, err)
}
