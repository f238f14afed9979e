// Package providers adapts the external generative and image APIs used by the
// review backend. Every adapter is a thin REST client over net/http that:
//
//   - classifies failures into *Error (see Kind) at the adapter boundary
//   - runs each attempt through the shared Retry policy and a per-provider
//     circuit breaker
//   - records provider_requests_total / provider_request_duration_seconds
//
// Adapters are constructed explicitly and injected into services; nothing in
// this package holds process-wide client state.
package providers

import "context"

// TextGenerator produces free-form text for an instruction prompt.
type TextGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Embedder converts text into a fixed-dimension vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float64, error)
}

// ImageSearcher returns up to n candidate image URLs for a query.
// Upstream failures degrade to an empty slice.
type ImageSearcher interface {
	SearchImages(ctx context.Context, query string, n int) ([]string, error)
}

// ImageGenerator returns the URL of a freshly rendered image.
// Callers verify reachability before trusting it.
type ImageGenerator interface {
	GenerateImage(ctx context.Context, prompt string) (string, error)
}

// Prober performs a lightweight existence check on a URL.
type Prober interface {
	Reachable(ctx context.Context, url string) bool
}
