package services

import (
	"context"
	"errors"
	"testing"

	"github.com/tbourn/go-review-backend/internal/providers"
)

func TestRunStep_Policies(t *testing.T) {
	ctx := context.Background()
	boom := &providers.Error{Provider: "pexels", Kind: providers.KindRateLimited, Err: errors.New("429")}

	v, err := runStep(ctx, "search", bestEffort, func(context.Context) ([]string, error) {
		return []string{"x"}, boom
	})
	if err != nil || v != nil {
		t.Fatalf("best effort should swallow errors and return zero, got %v %v", v, err)
	}

	_, err = runStep(ctx, "generate", mandatory, func(context.Context) (string, error) { return "", boom })
	if !errors.Is(err, ErrProviderFailed) {
		t.Fatalf("expected ErrProviderFailed, got %v", err)
	}
	var pe *providers.Error
	if !errors.As(err, &pe) || pe.Provider != "pexels" {
		t.Fatalf("provider error lost: %v", err)
	}

	_, err = runStep(ctx, "generate", mandatory, func(context.Context) (string, error) {
		return "", parseError(errors.New("bad"))
	})
	if !errors.Is(err, ErrParse) {
		t.Fatalf("already-classified errors should pass through, got %v", err)
	}

	_, err = runStep(ctx, "generate", mandatory, func(context.Context) (string, error) {
		return "", context.Canceled
	})
	if !errors.Is(err, context.Canceled) || errors.Is(err, ErrProviderFailed) {
		t.Fatalf("cancellation should not be reported as a provider failure, got %v", err)
	}

	out, err := runStep(ctx, "ok", mandatory, func(context.Context) (int, error) { return 7, nil })
	if err != nil || out != 7 {
		t.Fatalf("success path: %v %v", out, err)
	}
}
