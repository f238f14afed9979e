// Package httpapi wires the HTTP transport (Gin) to application services,
// middleware, and route handlers. It centralizes cross-cutting concerns such
// as tracing, correlation IDs, logging/redaction, panic recovery, metrics,
// CORS, security headers, compression, and rate limiting.
//
// Design goals:
//   - Put observability first (OTel + Prometheus)
//   - Safe-by-default middleware ordering (RequestID → logging → recovery)
//   - Deterministic, minimal router setup; all dependencies injected
//   - Production-ready CORS and security header posture
package httpapi

import (
	"net/http"
	"path"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/tbourn/go-review-backend/internal/config"
	"github.com/tbourn/go-review-backend/internal/http/handlers"
	"github.com/tbourn/go-review-backend/internal/http/middleware"
	"github.com/tbourn/go-review-backend/internal/providers"
	"github.com/tbourn/go-review-backend/internal/services"
)

// Deps are the infrastructure adapters the services are built from. Nil
// providers disable the features that need them; Catalog is required.
type Deps struct {
	Catalog services.Catalog
	Cache   services.ImageCache

	Text      providers.TextGenerator
	Embedder  providers.Embedder
	Primary   providers.ImageSearcher // Google Custom Search
	Secondary providers.ImageSearcher // Unsplash
	Generator providers.ImageGenerator
	Prober    providers.Prober

	// ProxyClient serves /image-proxy; nil uses the handler default.
	ProxyClient *http.Client
}

// generationCost is the token price of routes that call the text or image
// generator.
const generationCost = 3

// corsAllowHeaders are the request headers browsers may send cross-origin.
var corsAllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization", "If-None-Match"}

// RegisterRoutes attaches all middleware and HTTP endpoints to the given Gin
// engine. It configures observability (tracing, metrics), rate limiting, CORS
// and security headers, compression, health, metrics and docs endpoints, and
// then mounts the public API under cfg.APIBasePath.
//
// Middleware order matters:
//  1. OpenTelemetry: trace everything
//  2. RequestID: generate/propagate correlation id
//  3. RedactingLogger: structured logs with secret/PII scrubbing
//  4. Recovery: capture panics after logger
//  5. Body size limiter
//  6. Metrics
//  7. Rate limiter (per IP; health and metrics exempt)
//  8. CORS and Security headers
//  9. Gzip (image proxy excluded, it streams already-compressed bytes)
func RegisterRoutes(r *gin.Engine, deps Deps, cfg config.Config) {
	r.HandleMethodNotAllowed = true
	handlers.RegisterValidators()

	apiBase := cfg.APIBasePath // e.g. "/api"
	proxyPath := joinPath(apiBase, "/image-proxy")

	// 1) Trace all HTTP requests
	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))

	// 2) Correlate requests and logs
	r.Use(middleware.RequestID())

	// 3) Structured logging with redaction
	r.Use(middleware.RedactingLogger(middleware.RedactOptions{
		MaskHeaders: []string{
			"X-Goog-Api-Key",
		},
	}))

	// 4) Panic recovery to JSON 500 (with request id)
	r.Use(middleware.Recovery())

	// 5) Global body size limit (1 MiB)
	r.Use(limitBody(1 << 20))

	// 6) Prometheus metrics and /metrics endpoint
	r.Use(middleware.Metrics("/metrics"))
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// 7) Token-bucket rate limiter per IP; provider-backed routes cost more
	rl := middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyByClientIP()).
		Exempt("/health", "/metrics").
		Cost(generationCost,
			joinPath(apiBase, "/create-product"),
			joinPath(apiBase, "/regenerate-review"),
			joinPath(apiBase, "/interpret-search"),
			joinPath(apiBase, "/generate-image"),
		)
	r.Use(rl.Handler())

	// 8) CORS posture (safe defaults: allow all if none configured)
	if len(cfg.CORS.AllowedOrigins) == 0 {
		// Force ACAO: * even for requests without an Origin header (helps <img> embeds of the proxy).
		r.Use(func(c *gin.Context) {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
			c.Next()
		})
		r.Use(cors.New(cors.Config{
			AllowAllOrigins:  true,
			AllowMethods:     []string{"GET", "POST", "OPTIONS"},
			AllowHeaders:     corsAllowHeaders,
			ExposeHeaders:    []string{"X-Request-ID", "Content-Length", "ETag"},
			AllowCredentials: false, // must remain false with AllowAllOrigins
			MaxAge:           12 * time.Hour,
		}))
	} else {
		// Echo ACAO with the request Origin when it is in the allowlist (in addition to gin-contrib/cors).
		allowed := make(map[string]struct{}, len(cfg.CORS.AllowedOrigins))
		for _, o := range cfg.CORS.AllowedOrigins {
			allowed[o] = struct{}{}
		}
		r.Use(func(c *gin.Context) {
			if origin := c.GetHeader("Origin"); origin != "" {
				if _, ok := allowed[origin]; ok {
					h := c.Writer.Header()
					h.Set("Access-Control-Allow-Origin", origin)
					h.Add("Vary", "Origin")
				}
			}
			c.Next()
		})
		r.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.CORS.AllowedOrigins,
			AllowMethods:     []string{"GET", "POST", "OPTIONS"},
			AllowHeaders:     corsAllowHeaders,
			ExposeHeaders:    []string{"X-Request-ID", "Content-Length", "ETag"},
			AllowCredentials: false,
			MaxAge:           12 * time.Hour,
		}))
	}

	// Security headers (HSTS only when enabled and request is HTTPS)
	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS:       cfg.Security.EnableHSTS,
		HSTSMaxAge:       cfg.Security.HSTSMaxAge,
		NoStore:          false,
		EnablePolicy:     true,
		CrossOriginPaths: []string{proxyPath},
	}))

	// 9) Compression
	r.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{proxyPath, "/metrics"})))

	// Fallbacks
	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.ErrCodeMethodNotAllowed, "method not allowed")
	})

	// Liveness/health
	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	// API docs
	if cfg.SwaggerEnabled {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	// Dependency injection: services ← store/providers
	imgSvc := &services.ImageService{
		Catalog:   deps.Catalog,
		Primary:   deps.Primary,
		Secondary: deps.Secondary,
		Generator: deps.Generator,
		Prober:    deps.Prober,
		Cache:     deps.Cache,
	}
	reviewSvc := &services.ReviewService{
		Catalog:  deps.Catalog,
		Text:     deps.Text,
		Embedder: deps.Embedder,
		Images:   deps.Primary,
		Cooldown: cfg.RegenCooldown,
	}
	suggestSvc := &services.SuggestService{
		Catalog:    deps.Catalog,
		Text:       deps.Text,
		Embedder:   deps.Embedder,
		Images:     imgSvc,
		TopK:       cfg.Suggest.TopK,
		MaxNew:     cfg.Suggest.MaxNew,
		ImageDelay: cfg.Suggest.ImageDelay,
	}

	h := handlers.New(handlers.Services{
		Reviews:     reviewSvc,
		Suggest:     suggestSvc,
		Images:      imgSvc,
		Votes:       &services.VoteService{Catalog: deps.Catalog},
		Catalog:     &services.CatalogService{Catalog: deps.Catalog},
		ProxyClient: deps.ProxyClient,
	})

	// Public API
	api := groupWithPrefix(r, apiBase)
	{
		// Reviews
		api.POST("/create-product", h.CreateProduct)
		api.POST("/regenerate-review", h.RegenerateReview)
		api.POST("/verify-review", h.VerifyReview)
		api.GET("/products/*slug", h.GetProduct)

		// Search
		api.POST("/interpret-search", h.InterpretSearch)

		// Images
		api.POST("/fetch-images", h.FetchImages)
		api.POST("/generate-image", h.GenerateImage)
		api.POST("/get-image-url", h.GetImageURL)
		api.GET("/image-proxy", h.ImageProxy)

		// Browsing
		api.GET("/categories", h.ListCategories)
		api.GET("/categories/:slug/products", h.ListCategoryProducts)
	}
}

// limitBody returns a Gin middleware that caps the request body size for all
// endpoints to maxBytes using http.MaxBytesReader. Requests exceeding the cap
// will cause downstream body reads to error.
func limitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

// groupWithPrefix mounts a group at prefix, treating "/" (or empty) as root.
func groupWithPrefix(r *gin.Engine, prefix string) *gin.RouterGroup {
	if prefix == "" || prefix == "/" {
		return r.Group("")
	}
	return r.Group(prefix)
}

// joinPath joins a route prefix and a relative route the way gin groups do.
func joinPath(prefix, route string) string {
	if prefix == "" || prefix == "/" {
		return route
	}
	return path.Join(prefix, route)
}
