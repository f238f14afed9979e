// Package middleware holds the Gin middleware shared by the HTTP layer:
// request correlation, redacting access logs, panic recovery, Prometheus
// instrumentation, per-client rate limiting and security headers.
//
// Recommended order is RequestID, RedactingLogger, Recovery, then the rest,
// so every log line and error envelope carries the request id.
package middleware
