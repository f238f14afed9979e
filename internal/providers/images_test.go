package providers

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCustomSearch_FiltersNonImages(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "k", r.Header.Get("X-Goog-Api-Key"))
		assert.Empty(t, q.Get("key"))
		assert.Equal(t, "image", q.Get("searchType"))
		assert.Equal(t, "5", q.Get("num"))
		assert.Equal(t, "cx1", q.Get("cx"))
		assert.Equal(t, "glow leash", q.Get("q"))
		_, _ = w.Write([]byte(`{"items":[
			{"link":"https://a.example/1","mime":"image/jpeg"},
			{"link":"https://a.example/page.html","mime":"text/html"},
			{"link":"https://a.example/2.PNG"},
			{"link":""}
		]}`))
	}))
	defer srv.Close()

	s := NewCustomSearch(CustomSearchConfig{APIKey: "k", EngineID: "cx1", BaseURL: srv.URL}, fastOptions())
	got, err := s.SearchImages(context.Background(), "glow leash", 5)
	require.NoError(t, err)
	assert.Equal(t, []string{"https://a.example/1", "https://a.example/2.PNG"}, got)
}

func TestCustomSearch_UpstreamErrorIsEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	s := NewCustomSearch(CustomSearchConfig{APIKey: "k", EngineID: "cx", BaseURL: srv.URL}, fastOptions())
	got, err := s.SearchImages(context.Background(), "q", 1)
	require.NoError(t, err)
	assert.Empty(t, got)

	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`not json`))
	}))
	defer bad.Close()
	s2 := NewCustomSearch(CustomSearchConfig{APIKey: "k", EngineID: "cx", BaseURL: bad.URL}, fastOptions())
	got, err = s2.SearchImages(context.Background(), "q", 1)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestCustomSearch_KeyNeverLogged(t *testing.T) {
	const key = "AIzaSECRET123"
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	base := srv.URL
	srv.Close() // every attempt fails with connection refused

	var buf bytes.Buffer
	prev := log.Logger
	log.Logger = zerolog.New(&buf)
	t.Cleanup(func() { log.Logger = prev })
	ctx := zerolog.New(&buf).WithContext(context.Background())

	s := NewCustomSearch(CustomSearchConfig{APIKey: key, EngineID: "cx", BaseURL: base}, fastOptions())
	got, err := s.SearchImages(ctx, "glow leash", 3)
	require.NoError(t, err)
	assert.Empty(t, got)

	out := buf.String()
	assert.Contains(t, out, "retrying")
	assert.Contains(t, out, "custom search returned no images")
	assert.NotContains(t, out, key)
}

func TestTransportError_DropsURL(t *testing.T) {
	_, err := http.Get("http://127.0.0.1:0/v1?key=AIzaSECRET123")
	require.Error(t, err)

	pe := transportError("customsearch", err)
	assert.Equal(t, KindUnavailable, pe.Kind)
	assert.NotContains(t, pe.Error(), "AIzaSECRET123")
	assert.Contains(t, pe.Error(), "Get request")
}

func TestCustomSearch_MissingCredentials(t *testing.T) {
	s := NewCustomSearch(CustomSearchConfig{APIKey: "k"}, Options{})
	got, err := s.SearchImages(context.Background(), "q", 3)
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestIsImageItem(t *testing.T) {
	assert.True(t, isImageItem("https://x/y", "image/webp"))
	assert.True(t, isImageItem("https://x/y.svg?w=1", ""))
	assert.False(t, isImageItem("https://x/y.php", ""))
	assert.False(t, isImageItem("", "image/png"))
}

func TestUnsplash_SearchImages(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search/photos", r.URL.Path)
		assert.Equal(t, "Client-ID ak", r.Header.Get("Authorization"))
		assert.Equal(t, "squarish", r.URL.Query().Get("orientation"))
		_, _ = w.Write([]byte(`{"results":[{"urls":{"small":"https://u/1"}},{"urls":{"small":""}},{"urls":{"small":"https://u/2"}}]}`))
	}))
	defer srv.Close()

	u := NewUnsplash(UnsplashConfig{AccessKey: "ak", BaseURL: srv.URL}, fastOptions())
	got, err := u.SearchImages(context.Background(), "leash pets", 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"https://u/1"}, got)

	none := NewUnsplash(UnsplashConfig{}, Options{})
	got, err = none.SearchImages(context.Background(), "x", 1)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestPollinations_GenerateImage(t *testing.T) {
	p := NewPollinations("")
	u, err := p.GenerateImage(context.Background(), "A studio photo of a leash")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(u, "https://image.pollinations.ai/prompt/"))
	assert.Contains(t, u, "A%20studio%20photo")

	_, err = p.GenerateImage(context.Background(), "  ")
	assert.Equal(t, KindRejected, KindOf(err))
}

func TestHTTPProber_Reachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodHead, r.Method)
		if r.URL.Path == "/missing" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	p := NewHTTPProber(nil, 0)
	assert.True(t, p.Reachable(context.Background(), srv.URL+"/ok"))
	assert.False(t, p.Reachable(context.Background(), srv.URL+"/missing"))
	assert.False(t, p.Reachable(context.Background(), "::not a url"))
}
