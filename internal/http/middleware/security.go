package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

// SecurityOptions configures SecurityHeaders.
//
// HSTS is only ever sent on HTTPS requests (directly or via
// X-Forwarded-Proto); enable it only when TLS runs end-to-end. HSTSMaxAge
// defaults to 180 days.
//
// CrossOriginPaths are registered routes embedded by other origins, i.e. the
// image proxy. They get Cross-Origin-Resource-Policy: cross-origin, are
// never marked no-store, and carry a sandboxing CSP because proxied bytes
// may be SVG. Every other route is same-site.
type SecurityOptions struct {
	EnableHSTS       bool
	HSTSMaxAge       time.Duration
	NoStore          bool     // Cache-Control: no-store on API responses
	EnablePolicy     bool     // Permissions-Policy, X-Permitted-Cross-Domain-Policies
	CrossOriginPaths []string // e.g. "/api/image-proxy"
}

const defaultHSTSMaxAge = 180 * 24 * time.Hour

// proxiedContentCSP stops scripts embedded in proxied images from running
// when the proxy URL is opened directly.
const proxiedContentCSP = "default-src 'none'; img-src 'self' data:; style-src 'unsafe-inline'; sandbox"

type header struct{ key, value string }

// SecurityHeaders returns middleware that sets nosniff, frame denial, a
// no-referrer policy, CORP, and the optional headers enabled in opt. No CSP
// is sent for JSON routes.
func SecurityHeaders(opt SecurityOptions) gin.HandlerFunc {
	maxAge := opt.HSTSMaxAge
	if maxAge <= 0 {
		maxAge = defaultHSTSMaxAge
	}
	hsts := "max-age=" + strconv.Itoa(int(maxAge.Seconds())) + "; includeSubDomains; preload"

	common := []header{
		{"X-Content-Type-Options", "nosniff"},
		{"X-Frame-Options", "DENY"},
		{"Referrer-Policy", "no-referrer"},
	}
	if opt.EnablePolicy {
		common = append(common,
			header{"Permissions-Policy", "geolocation=(), microphone=(), camera=(), payment=()"},
			header{"X-Permitted-Cross-Domain-Policies", "none"},
		)
	}

	api := append([]header{{"Cross-Origin-Resource-Policy", "same-site"}}, common...)
	if opt.NoStore {
		api = append(api,
			header{"Cache-Control", "no-store"},
			header{"Pragma", "no-cache"},
			header{"Expires", "0"},
		)
	}
	embed := append([]header{
		{"Cross-Origin-Resource-Policy", "cross-origin"},
		{"Content-Security-Policy", proxiedContentCSP},
	}, common...)

	crossOrigin := make(map[string]struct{}, len(opt.CrossOriginPaths))
	for _, p := range opt.CrossOriginPaths {
		crossOrigin[p] = struct{}{}
	}

	return func(c *gin.Context) {
		set := api
		if _, ok := crossOrigin[c.FullPath()]; ok {
			set = embed
		}
		h := c.Writer.Header()
		for _, kv := range set {
			h.Set(kv.key, kv.value)
		}
		if opt.EnableHSTS && isHTTPS(c.Request) {
			h.Set("Strict-Transport-Security", hsts)
		}
		if h.Get(requestIDHeader) != "" {
			exposeHeader(h, requestIDHeader)
		}
		c.Next()
	}
}

// exposeHeader appends name to Access-Control-Expose-Headers once.
func exposeHeader(h http.Header, name string) {
	const key = "Access-Control-Expose-Headers"
	cur := h.Get(key)
	switch {
	case cur == "":
		h.Set(key, name)
	case !strings.Contains(cur, name):
		h.Set(key, cur+", "+name)
	}
}

func isHTTPS(r *http.Request) bool {
	if r.TLS != nil {
		return true
	}
	return strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https")
}
