package providers

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	defaultGeminiBaseURL    = "https://generativelanguage.googleapis.com/v1beta"
	defaultGeminiModel      = "gemini-1.5-flash"
	defaultGeminiEmbedModel = "text-embedding-004"
)

// GeminiConfig configures the Gemini text and embedding adapter.
type GeminiConfig struct {
	APIKey       string
	BaseURL      string
	Model        string
	EmbedModel   string
	TextTimeout  time.Duration
	EmbedTimeout time.Duration
}

// Gemini implements TextGenerator and Embedder over the Generative Language
// REST API.
type Gemini struct {
	cfg GeminiConfig
	c   *caller
}

// NewGemini builds the adapter. A missing key is not an error here; each call
// returns KindNotConfigured instead.
func NewGemini(cfg GeminiConfig, o Options) *Gemini {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultGeminiBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.Model == "" {
		cfg.Model = defaultGeminiModel
	}
	if cfg.EmbedModel == "" {
		cfg.EmbedModel = defaultGeminiEmbedModel
	}
	if cfg.TextTimeout <= 0 {
		cfg.TextTimeout = 30 * time.Second
	}
	if cfg.EmbedTimeout <= 0 {
		cfg.EmbedTimeout = 10 * time.Second
	}
	return &Gemini{cfg: cfg, c: newCaller("gemini", o.withDefaults(cfg.TextTimeout))}
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type generateRequest struct {
	Contents []geminiContent `json:"contents"`
}

type generateResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
}

type embedRequest struct {
	Model   string        `json:"model"`
	Content geminiContent `json:"content"`
}

type embedResponse struct {
	Embedding struct {
		Values []float64 `json:"values"`
	} `json:"embedding"`
}

// Generate returns the concatenated text of the first candidate.
func (g *Gemini) Generate(ctx context.Context, prompt string) (string, error) {
	if g.cfg.APIKey == "" {
		return "", notConfigured("gemini", "GOOGLE_API_KEY")
	}
	endpoint := g.cfg.BaseURL + "/models/" + url.PathEscape(g.cfg.Model) + ":generateContent"
	body := generateRequest{Contents: []geminiContent{{Parts: []geminiPart{{Text: prompt}}}}}

	return call(ctx, g.c, "generate", g.cfg.TextTimeout, func(ctx context.Context) (string, error) {
		var out generateResponse
		if err := g.c.doJSON(ctx, http.MethodPost, endpoint, g.header(), body, &out); err != nil {
			return "", err
		}
		if len(out.Candidates) == 0 {
			return "", malformed("gemini", errors.New("no candidates"))
		}
		var b strings.Builder
		for _, p := range out.Candidates[0].Content.Parts {
			b.WriteString(p.Text)
		}
		if strings.TrimSpace(b.String()) == "" {
			return "", malformed("gemini", errors.New("empty candidate"))
		}
		return b.String(), nil
	})
}

// Embed returns the embedding vector for text.
func (g *Gemini) Embed(ctx context.Context, text string) ([]float64, error) {
	if g.cfg.APIKey == "" {
		return nil, notConfigured("gemini", "GOOGLE_API_KEY")
	}
	endpoint := g.cfg.BaseURL + "/models/" + url.PathEscape(g.cfg.EmbedModel) + ":embedContent"
	body := embedRequest{
		Model:   "models/" + g.cfg.EmbedModel,
		Content: geminiContent{Parts: []geminiPart{{Text: text}}},
	}

	return call(ctx, g.c, "embed", g.cfg.EmbedTimeout, func(ctx context.Context) ([]float64, error) {
		var out embedResponse
		if err := g.c.doJSON(ctx, http.MethodPost, endpoint, g.header(), body, &out); err != nil {
			return nil, err
		}
		if len(out.Embedding.Values) == 0 {
			return nil, malformed("gemini", errors.New("empty embedding"))
		}
		return out.Embedding.Values, nil
	})
}

func (g *Gemini) header() http.Header {
	h := http.Header{}
	h.Set("x-goog-api-key", g.cfg.APIKey)
	return h
}
