package handlers

// Error codes carried in ErrorResponse.Code. Clients branch on these, not on
// the message text, so values are stable once published.
const (
	ErrCodeBadRequest       = "bad_request"
	ErrCodeNotFound         = "not_found"
	ErrCodeMethodNotAllowed = "method_not_allowed"
	ErrCodeInternal         = "internal_error"

	// written by the rate limiter middleware, listed for clients
	ErrCodeRateLimited = "rate_limited"

	ErrCodeCooldown       = "cooldown_active" // review regenerated within the cooldown window
	ErrCodeProviderFailed = "provider_failed" // AI provider error or unparseable output
	ErrCodeImageNotFound  = "image_not_found" // no search backend produced a usable image
	ErrCodeUpstream       = "upstream_error"  // image proxy could not fetch the URL
	ErrCodeNotImage       = "not_an_image"    // proxied URL answered with a non-image type
)
