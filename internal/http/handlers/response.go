// Package handlers implements the gin handlers of the review API. Every
// failure leaves through fail or serviceError so clients always get the same
// envelope:
//
//	HTTP/1.1 404 Not Found
//	{"request_id": "5f0c…", "code": "not_found", "message": "product not found"}
package handlers

import (
	"errors"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-review-backend/internal/http/middleware"
	"github.com/tbourn/go-review-backend/internal/providers"
	"github.com/tbourn/go-review-backend/internal/services"
)

// ErrorResponse is the error envelope returned by all endpoints.
type ErrorResponse struct {
	// ID of the request, also sent as X-Request-ID
	RequestID string `json:"request_id,omitempty" example:"123e4567-e89b-12d3-a456-426614174000"`
	// Stable machine-readable code, see errors.go
	Code string `json:"code" example:"not_found"`
	// Human-readable, safe to show to users
	Message string `json:"message" example:"product not found"`
}

// CooldownResponse is returned with 429 when a review was regenerated too
// recently.
type CooldownResponse struct {
	ErrorResponse
	RemainingSeconds int64     `json:"remainingSeconds" example:"11520"`
	RetryAt          time.Time `json:"retryAt"`
}

// fail aborts with the error envelope. 5xx responses are logged on the
// request logger.
func fail(c *gin.Context, status int, code, msg string) {
	if status >= http.StatusInternalServerError {
		middleware.LoggerFrom(c).Error().
			Int("status", status).
			Str("code", code).
			Str("message", msg).
			Msg("api error")
	}
	c.AbortWithStatusJSON(status, ErrorResponse{
		RequestID: middleware.RequestIDFrom(c),
		Code:      code,
		Message:   msg,
	})
}

// Fail lets the router answer NoRoute and NoMethod with the same envelope.
func Fail(c *gin.Context, status int, code, msg string) { fail(c, status, code, msg) }

func ok(c *gin.Context, status int, body any) {
	c.JSON(status, body)
}

// serviceError maps a service error onto a status and code:
//
//	ErrInvalidInput     400 bad_request, message from the service
//	ErrProductNotFound  404 not_found
//	ErrImageNotFound    404 image_not_found
//	*CooldownError      429 cooldown_active, with Retry-After
//	ErrProviderFailed   500 provider_failed, details only in the log
//	anything else       500 internal_error, details only in the log
func serviceError(c *gin.Context, err error) {
	var cd *services.CooldownError
	switch {
	case errors.Is(err, services.ErrInvalidInput):
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
	case errors.Is(err, services.ErrProductNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotFound, "product not found")
	case errors.Is(err, services.ErrImageNotFound):
		fail(c, http.StatusNotFound, ErrCodeImageNotFound, "no image found")
	case errors.As(err, &cd):
		cooldown(c, cd)
	case errors.Is(err, services.ErrProviderFailed):
		ev := middleware.LoggerFrom(c).Error().Err(err)
		var pe *providers.Error
		if errors.As(err, &pe) {
			ev = ev.Str("provider", pe.Provider).Str("kind", pe.Kind.String())
		}
		ev.Msg("provider step failed")
		fail(c, http.StatusInternalServerError, ErrCodeProviderFailed, "review generation failed")
	default:
		middleware.LoggerFrom(c).Error().Err(err).Msg("unhandled service error")
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "internal error")
	}
}

func cooldown(c *gin.Context, cd *services.CooldownError) {
	secs := int64(cd.Remaining.Round(time.Second) / time.Second)
	c.Header("Retry-After", strconv.FormatInt(int64(math.Ceil(max(cd.Remaining.Seconds(), 1))), 10))
	c.AbortWithStatusJSON(http.StatusTooManyRequests, CooldownResponse{
		ErrorResponse: ErrorResponse{
			RequestID: middleware.RequestIDFrom(c),
			Code:      ErrCodeCooldown,
			Message:   "review was regenerated recently; retry later",
		},
		RemainingSeconds: secs,
		RetryAt:          cd.RetryAt,
	})
}
