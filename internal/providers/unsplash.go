package providers

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"
)

const defaultUnsplashURL = "https://api.unsplash.com"

// UnsplashConfig configures the secondary image search provider.
type UnsplashConfig struct {
	AccessKey string
	BaseURL   string
	Timeout   time.Duration
}

// Unsplash is the fallback ImageSearcher.
type Unsplash struct {
	cfg UnsplashConfig
	c   *caller
}

func NewUnsplash(cfg UnsplashConfig, o Options) *Unsplash {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultUnsplashURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 8 * time.Second
	}
	return &Unsplash{cfg: cfg, c: newCaller("unsplash", o.withDefaults(cfg.Timeout))}
}

type unsplashResponse struct {
	Results []struct {
		URLs struct {
			Small string `json:"small"`
		} `json:"urls"`
	} `json:"results"`
}

// SearchImages returns up to n small-size photo URLs, squarish orientation.
func (u *Unsplash) SearchImages(ctx context.Context, query string, n int) ([]string, error) {
	if u.cfg.AccessKey == "" {
		return []string{}, nil
	}
	if n <= 0 {
		n = 1
	}
	q := url.Values{}
	q.Set("query", query)
	q.Set("per_page", strconv.Itoa(n))
	q.Set("orientation", "squarish")
	endpoint := u.cfg.BaseURL + "/search/photos?" + q.Encode()

	h := http.Header{}
	h.Set("Authorization", "Client-ID "+u.cfg.AccessKey)

	links, err := call(ctx, u.c, "search_images", 0, func(ctx context.Context) ([]string, error) {
		var out unsplashResponse
		if err := u.c.doJSON(ctx, http.MethodGet, endpoint, h, nil, &out); err != nil {
			return nil, err
		}
		links := make([]string, 0, len(out.Results))
		for _, r := range out.Results {
			if r.URLs.Small != "" {
				links = append(links, r.URLs.Small)
			}
		}
		return links, nil
	})
	if err != nil {
		log.Ctx(ctx).Warn().Err(err).Str("query", query).Msg("unsplash returned no images")
		return []string{}, nil
	}
	if len(links) > n {
		links = links[:n]
	}
	return links, nil
}
