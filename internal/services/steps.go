package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/trace"
)

// stepPolicy decides what a failing provider step means for the request.
type stepPolicy int

const (
	// mandatory failures abort the operation with ErrProviderFailed and
	// nothing is persisted.
	mandatory stepPolicy = iota
	// bestEffort failures are logged and replaced by the zero value.
	bestEffort
)

func (p stepPolicy) String() string {
	if p == bestEffort {
		return "best_effort"
	}
	return "mandatory"
}

// runStep executes one provider step under policy.
func runStep[T any](ctx context.Context, name string, policy stepPolicy, fn func(context.Context) (T, error)) (T, error) {
	out, err := fn(ctx)
	if err == nil {
		return out, nil
	}
	var zero T
	span := trace.SpanFromContext(ctx)
	span.RecordError(err)

	if policy == bestEffort {
		log.Ctx(ctx).Warn().Err(err).Str("step", name).Str("policy", policy.String()).Msg("provider step degraded")
		return zero, nil
	}
	if errors.Is(err, context.Canceled) {
		return zero, err
	}
	if errors.Is(err, ErrProviderFailed) {
		return zero, err
	}
	return zero, fmt.Errorf("%w: %s: %w", ErrProviderFailed, name, err)
}
