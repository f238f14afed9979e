package providers

import (
	"context"
	"net/http"
	"net/url"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

const defaultCustomSearchURL = "https://www.googleapis.com/customsearch/v1"

// imageExts are accepted when an item carries no image MIME type.
var imageExts = map[string]struct{}{
	"jpg": {}, "jpeg": {}, "png": {}, "gif": {}, "webp": {}, "svg": {},
}

// CustomSearchConfig configures the Google Custom Search image adapter.
type CustomSearchConfig struct {
	APIKey   string
	EngineID string
	BaseURL  string
	Timeout  time.Duration
}

// CustomSearch is the primary ImageSearcher.
type CustomSearch struct {
	cfg CustomSearchConfig
	c   *caller
}

func NewCustomSearch(cfg CustomSearchConfig, o Options) *CustomSearch {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultCustomSearchURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 8 * time.Second
	}
	return &CustomSearch{cfg: cfg, c: newCaller("customsearch", o.withDefaults(cfg.Timeout))}
}

type customSearchResponse struct {
	Items []struct {
		Link string `json:"link"`
		Mime string `json:"mime"`
	} `json:"items"`
}

// SearchImages returns up to n image links. Missing credentials, upstream
// errors and malformed bodies all yield an empty result.
func (s *CustomSearch) SearchImages(ctx context.Context, query string, n int) ([]string, error) {
	if s.cfg.APIKey == "" || s.cfg.EngineID == "" {
		return []string{}, nil
	}
	if n <= 0 {
		n = 1
	}
	if n > 10 {
		n = 10 // API maximum
	}
	q := url.Values{}
	q.Set("cx", s.cfg.EngineID)
	q.Set("q", query)
	q.Set("searchType", "image")
	q.Set("num", strconv.Itoa(n))
	endpoint := s.cfg.BaseURL + "?" + q.Encode()
	h := http.Header{}
	h.Set("X-Goog-Api-Key", s.cfg.APIKey)

	links, err := call(ctx, s.c, "search_images", 0, func(ctx context.Context) ([]string, error) {
		var out customSearchResponse
		if err := s.c.doJSON(ctx, http.MethodGet, endpoint, h, nil, &out); err != nil {
			return nil, err
		}
		links := make([]string, 0, len(out.Items))
		for _, it := range out.Items {
			if isImageItem(it.Link, it.Mime) {
				links = append(links, it.Link)
			}
		}
		return links, nil
	})
	if err != nil {
		log.Ctx(ctx).Warn().Err(err).Str("query", query).Msg("custom search returned no images")
		return []string{}, nil
	}
	return links, nil
}

// isImageItem trusts the MIME type when present, otherwise the URL extension.
func isImageItem(link, mime string) bool {
	if link == "" {
		return false
	}
	if strings.HasPrefix(strings.ToLower(mime), "image/") {
		return true
	}
	u, err := url.Parse(link)
	if err != nil {
		return false
	}
	ext := strings.TrimPrefix(strings.ToLower(path.Ext(u.Path)), ".")
	_, ok := imageExts[ext]
	return ok
}
