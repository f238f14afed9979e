package services

import (
	"errors"
	"math"
	"strings"

	"github.com/goccy/go-json"

	"github.com/tbourn/go-review-backend/internal/domain"
	"github.com/tbourn/go-review-backend/internal/providers"
)

// reviewPayload is the generated review. Legacy key names are accepted as
// aliases of the current ones.
type reviewPayload struct {
	Summary          string   `json:"summary"`
	ShortSummary     string   `json:"shortSummary"`
	Rating           *float64 `json:"rating"`
	Pros             []string `json:"pros"`
	Cons             []string `json:"cons"`
	DetailedBody     string   `json:"detailedBody"`
	DetailedReview   string   `json:"detailedReview"`
	CallToAction     string   `json:"callToAction"`
	CTA              string   `json:"cta"`
	ImageSearchQuery string   `json:"imageSearchQuery"`
}

// parseReview turns raw model output into a review version without a
// timestamp. Missing required keys are a parse error.
func parseReview(raw string) (domain.ReviewVersion, error) {
	p, err := providers.DecodeObject[reviewPayload](raw)
	if err != nil {
		return domain.ReviewVersion{}, parseError(err)
	}
	v := domain.ReviewVersion{
		Summary:          firstNonBlank(p.Summary, p.ShortSummary),
		Pros:             cleanList(p.Pros),
		Cons:             cleanList(p.Cons),
		DetailedBody:     firstNonBlank(p.DetailedBody, p.DetailedReview),
		CallToAction:     firstNonBlank(p.CallToAction, p.CTA),
		ImageSearchQuery: strings.TrimSpace(p.ImageSearchQuery),
	}
	switch {
	case v.Summary == "":
		return domain.ReviewVersion{}, parseError(errors.New("missing summary"))
	case v.DetailedBody == "":
		return domain.ReviewVersion{}, parseError(errors.New("missing detailedBody"))
	case v.ImageSearchQuery == "":
		return domain.ReviewVersion{}, parseError(errors.New("missing imageSearchQuery"))
	case p.Rating != nil && (math.IsNaN(*p.Rating) || math.IsInf(*p.Rating, 0)):
		return domain.ReviewVersion{}, parseError(errors.New("non-finite rating"))
	}
	if p.Rating != nil {
		v.Rating = domain.ClampRating(*p.Rating)
	}
	return v, nil
}

type brainstormIdea struct {
	Name     string `json:"name"`
	Category string `json:"category"`
}

// parseBrainstorm accepts either {"products": [...]} or a bare JSON array.
func parseBrainstorm(raw string) ([]brainstormIdea, error) {
	type wrapped struct {
		Products []brainstormIdea `json:"products"`
	}
	if w, err := providers.DecodeObject[wrapped](raw); err == nil && len(w.Products) > 0 {
		return w.Products, nil
	}
	start := strings.IndexByte(raw, '[')
	end := strings.LastIndexByte(raw, ']')
	if start < 0 || end < start {
		return nil, parseError(errors.New("no product list in model output"))
	}
	var ideas []brainstormIdea
	if err := json.Unmarshal([]byte(raw[start:end+1]), &ideas); err != nil {
		return nil, parseError(err)
	}
	return ideas, nil
}

func firstNonBlank(vals ...string) string {
	for _, v := range vals {
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
	}
	return ""
}

// cleanList trims entries, drops blanks and never returns nil.
func cleanList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
