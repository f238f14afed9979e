package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	sqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/go-review-backend/internal/config"
	"github.com/tbourn/go-review-backend/internal/repo"
)

// --- fake providers ---

const reviewJSON = `{"summary":"Solid everyday sneaker.","rating":4.4,"pros":["comfort"],"cons":["narrow"],
"detailedBody":"## Verdict\nGood.","callToAction":"Try a pair.","imageSearchQuery":"new balance 574"}`

type fakeText struct{}

func (fakeText) Generate(context.Context, string) (string, error) { return reviewJSON, nil }

type fakeEmbedder struct{}

func (fakeEmbedder) Embed(context.Context, string) ([]float64, error) { return []float64{1, 0, 0}, nil }

type fakeSearch struct{}

func (fakeSearch) SearchImages(_ context.Context, _ string, n int) ([]string, error) {
	return []string{"https://img.example.com/1.jpg"}[:min(n, 1)], nil
}

// --- test DB helper (pure-Go sqlite, no CGO) ---
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:router_%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := repo.AutoMigrate(db); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

func testDeps(db *gorm.DB) Deps {
	return Deps{
		Catalog:   repo.NewStore(db),
		Cache:     repo.NewImageCache(db, time.Hour),
		Text:      fakeText{},
		Embedder:  fakeEmbedder{},
		Primary:   fakeSearch{},
		Secondary: fakeSearch{},
	}
}

func testConfig() config.Config {
	return config.Config{
		APIBasePath:   "/api",
		RateRPS:       100,
		RateBurst:     100,
		RegenCooldown: 24 * time.Hour,
		CORS:          config.CORSConfig{AllowedOrigins: nil}, // triggers AllowAllOrigins branch
		Security:      config.SecurityConfig{EnableHSTS: false, HSTSMaxAge: 0},
		OTEL:          config.OTELConfig{ServiceName: "test-svc"},
		Suggest:       config.SuggestConfig{ImageDelay: time.Millisecond},
	}
}

func do(r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	var rd io.Reader
	if body != nil {
		b, _ := json.Marshal(body)
		rd = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRegisterRoutes_CORSAllowAll_Health_Metrics_Fallbacks(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	RegisterRoutes(r, testDeps(newTestDB(t)), testConfig())

	// /health works
	w := do(r, http.MethodGet, "/health", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("GET /health = %d", w.Code)
	}
	// CORS (AllowAllOrigins) → header "*"
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Fatalf("AllowAllOrigins expected '*', got %q", got)
	}

	// /metrics is wired
	w = do(r, http.MethodGet, "/metrics", nil)
	if w.Code != http.StatusOK || len(w.Body.Bytes()) == 0 {
		t.Fatalf("GET /metrics bad: code=%d len=%d", w.Code, w.Body.Len())
	}

	// NoRoute → 404
	if w = do(r, http.MethodGet, "/nope", nil); w.Code != http.StatusNotFound {
		t.Fatalf("GET /nope expected 404, got %d", w.Code)
	}

	// NoMethod → 405 (POST /health)
	if w = do(r, http.MethodPost, "/health", nil); w.Code != http.StatusMethodNotAllowed {
		t.Fatalf("POST /health expected 405, got %d", w.Code)
	}

	// Swagger is off unless enabled
	if w = do(r, http.MethodGet, "/swagger/index.html", nil); w.Code != http.StatusNotFound {
		t.Fatalf("swagger should be disabled, got %d", w.Code)
	}
}

func TestRegisterRoutes_CORSWithOrigins_HeaderEcho(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()

	cfg := testConfig()
	cfg.CORS = config.CORSConfig{AllowedOrigins: []string{"http://example.com"}}
	cfg.SwaggerEnabled = true
	RegisterRoutes(r, testDeps(newTestDB(t)), cfg)

	// Any request runs through CORS middleware; header should reflect origin.
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "http://example.com")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("GET /health = %d", w.Code)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "http://example.com" {
		t.Fatalf("expected ACAO echo, got %q", got)
	}

	if w = do(r, http.MethodGet, "/swagger/index.html", nil); w.Code != http.StatusOK {
		t.Fatalf("swagger UI expected 200, got %d", w.Code)
	}
}

func TestRegisterRoutes_ReviewLifecycle(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	RegisterRoutes(r, testDeps(newTestDB(t)), testConfig())

	body := gin.H{"productName": "New Balance 574", "category": "Shoes"}
	w := do(r, http.MethodPost, "/api/create-product", body)
	if w.Code != http.StatusCreated {
		t.Fatalf("create = %d body=%s", w.Code, w.Body.String())
	}
	var created struct {
		Message string `json:"message"`
		Product struct {
			Slug          string   `json:"slug"`
			Images        []string `json:"images"`
			ReviewHistory []struct {
				Rating float64 `json:"rating"`
			} `json:"reviewHistory"`
		} `json:"product"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &created); err != nil {
		t.Fatalf("json: %v", err)
	}
	if created.Product.Slug != "shoes/new-balance-574" || len(created.Product.ReviewHistory) != 1 || len(created.Product.Images) != 1 {
		t.Fatalf("unexpected product: %+v", created)
	}

	// Second create of the same identity returns the stored product.
	if w = do(r, http.MethodPost, "/api/create-product", gin.H{"productName": "new balance 574", "category": "shoes"}); w.Code != http.StatusOK {
		t.Fatalf("re-create = %d", w.Code)
	}

	if w = do(r, http.MethodGet, "/api/products/shoes/new-balance-574", nil); w.Code != http.StatusOK {
		t.Fatalf("get = %d", w.Code)
	}

	w = do(r, http.MethodPost, "/api/verify-review", gin.H{"productId": "shoes/new-balance-574", "action": "upvote"})
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"newScore":1`) {
		t.Fatalf("vote = %d body=%s", w.Code, w.Body.String())
	}

	// A fresh review is inside the cooldown window.
	w = do(r, http.MethodPost, "/api/regenerate-review", gin.H{"productId": "shoes/new-balance-574"})
	if w.Code != http.StatusTooManyRequests || !strings.Contains(w.Body.String(), "remainingSeconds") {
		t.Fatalf("regenerate = %d body=%s", w.Code, w.Body.String())
	}

	w = do(r, http.MethodGet, "/api/categories", nil)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"slug":"shoes"`) {
		t.Fatalf("categories = %d body=%s", w.Code, w.Body.String())
	}

	w = do(r, http.MethodGet, "/api/categories/shoes/products", nil)
	if w.Code != http.StatusOK || w.Header().Get("ETag") == "" {
		t.Fatalf("category products = %d etag=%q", w.Code, w.Header().Get("ETag"))
	}
}

// Smoke test that a request traverses ratelimit + otel + security headers + gzip pipeline.
func TestPipeline_Smoke(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()

	cfg := testConfig()
	cfg.Security = config.SecurityConfig{EnableHSTS: true, HSTSMaxAge: time.Hour} // enabled (but only set on https)
	RegisterRoutes(r, testDeps(newTestDB(t)), cfg)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Forwarded-Proto", "https")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("pipeline GET /health = %d", w.Code)
	}
	// RequestID header should be present (from RequestID middleware)
	if rid := w.Header().Get("X-Request-ID"); rid == "" {
		t.Fatalf("expected X-Request-ID header to be set")
	}
	if w.Header().Get("Strict-Transport-Security") == "" {
		t.Fatalf("expected HSTS on https request")
	}
	if got := w.Header().Get("Cross-Origin-Resource-Policy"); got != "same-site" {
		t.Fatalf("CORP = %q", got)
	}

	// JSON responses are compressed when the client accepts gzip.
	req = httptest.NewRequest(http.MethodGet, "/api/categories", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK || w.Header().Get("Content-Encoding") != "gzip" {
		t.Fatalf("expected gzip encoding, got code=%d enc=%q", w.Code, w.Header().Get("Content-Encoding"))
	}

	// The image proxy is mounted, embeddable cross-origin and refuses loopback targets.
	req = httptest.NewRequest(http.MethodGet, "/api/image-proxy?url=http://127.0.0.1/x.png", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("proxy to loopback expected 400, got %d", w.Code)
	}
	if w.Header().Get("Content-Encoding") != "" {
		t.Fatalf("image proxy must not be gzip-wrapped")
	}
	if got := w.Header().Get("Cross-Origin-Resource-Policy"); got != "cross-origin" {
		t.Fatalf("proxy CORP = %q", got)
	}
}

func Test_limitBody_Middleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	// tiny cap to trigger MaxBytesReader
	r.Use(limitBody(10))
	r.POST("/echo", func(c *gin.Context) {
		_, err := io.ReadAll(c.Request.Body)
		if err != nil {
			c.String(http.StatusRequestEntityTooLarge, "too big")
			return
		}
		c.String(http.StatusOK, "ok")
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/echo", bytes.NewBufferString("0123456789AB")) // 12 bytes
	r.ServeHTTP(w, req)
	if w.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413 from limitBody, got %d", w.Code)
	}
}

func Test_groupWithPrefix_joinPath(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()

	groupWithPrefix(r, "").GET("/root", func(c *gin.Context) { c.Status(http.StatusOK) })
	groupWithPrefix(r, "/api").GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	for _, p := range []string{"/root", "/api/x"} {
		if w := do(r, http.MethodGet, p, nil); w.Code != http.StatusOK {
			t.Fatalf("GET %s = %d", p, w.Code)
		}
	}

	cases := map[[2]string]string{
		{"", "/image-proxy"}:      "/image-proxy",
		{"/", "/image-proxy"}:     "/image-proxy",
		{"/api", "/image-proxy"}:  "/api/image-proxy",
		{"/api/", "/image-proxy"}: "/api/image-proxy",
	}
	for in, want := range cases {
		if got := joinPath(in[0], in[1]); got != want {
			t.Fatalf("joinPath(%q, %q) = %q; want %q", in[0], in[1], got, want)
		}
	}
}
