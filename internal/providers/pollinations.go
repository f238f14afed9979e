package providers

import (
	"context"
	"errors"
	"net/url"
	"strings"
)

const defaultPollinationsURL = "https://image.pollinations.ai/prompt/"

// Pollinations is a URL-addressed ImageGenerator: the image is rendered by the
// upstream when the URL is first fetched.
type Pollinations struct {
	base string
}

func NewPollinations(baseURL string) *Pollinations {
	if baseURL == "" {
		baseURL = defaultPollinationsURL
	}
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	return &Pollinations{base: baseURL}
}

// GenerateImage returns the render URL for prompt.
func (p *Pollinations) GenerateImage(_ context.Context, prompt string) (string, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return "", &Error{Provider: "pollinations", Kind: KindRejected, Err: errors.New("empty prompt")}
	}
	return p.base + url.PathEscape(prompt), nil
}
