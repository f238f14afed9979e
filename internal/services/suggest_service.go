// Package services – SuggestService
//
// This file implements hybrid search suggestions. Existing catalog entries
// are found by a keyword filter, refined by embedding similarity, and merged
// with freshly brainstormed products. Brainstormed entries are deduplicated
// by derived slug and illustrated one at a time under an inter-request delay
// to respect image provider rate limits.
package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/tbourn/go-review-backend/internal/domain"
	"github.com/tbourn/go-review-backend/internal/providers"
)

// QueryTypeHybrid labels results produced by keyword filter + vector ranking.
const QueryTypeHybrid = "hybrid_filtered"

const (
	defaultTopK       = 5
	defaultMaxNew     = 6
	minMaxNew         = 4
	maxMaxNew         = 8
	defaultImageDelay = 275 * time.Millisecond
	keywordLimit      = 50
)

// ImageResolver finds one illustrative image for a product.
type ImageResolver interface {
	ResolveImage(ctx context.Context, name, category string) (string, error)
}

// SearchResult is the response of Interpret.
type SearchResult struct {
	QueryType   string              `json:"query_type"`
	Suggestions []domain.Suggestion `json:"suggestions"`
}

// SuggestService answers free-text product searches.
type SuggestService struct {
	Catalog  Catalog
	Text     providers.TextGenerator
	Embedder providers.Embedder
	Images   ImageResolver

	// TopK caps existing matches (default 5).
	TopK int
	// MaxNew caps brainstormed products, clamped to [4,8] (default 6).
	MaxNew int
	// ImageDelay spaces image lookups for new candidates (default 275ms).
	ImageDelay time.Duration
}

// Interpret returns existing matches (exists=true, by descending score)
// followed by brainstormed products (exists=false, in model order). Only a
// catalog failure is an error; every provider step is best effort.
func (s *SuggestService) Interpret(ctx context.Context, query string) (*SearchResult, error) {
	tr := otel.Tracer("services/SuggestService")
	ctx, span := tr.Start(ctx, "Interpret",
		trace.WithAttributes(attribute.String("query", query)),
	)
	defer span.End()

	query = strings.TrimSpace(query)
	if query == "" {
		return nil, invalid("query is required")
	}

	var (
		existing []domain.Suggestion
		ideas    []brainstormIdea
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		existing, err = s.existingMatches(gctx, query)
		return err
	})
	g.Go(func() error {
		ideas = s.brainstorm(gctx, query)
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	seen := make(map[string]struct{}, len(existing)+len(ideas))
	for _, e := range existing {
		seen[e.Slug] = struct{}{}
	}
	fresh := make([]domain.Suggestion, 0, len(ideas))
	for _, idea := range ideas {
		name, category := strings.TrimSpace(idea.Name), strings.TrimSpace(idea.Category)
		if name == "" || category == "" {
			continue
		}
		slug := domain.ProductKey(name, category)
		if !domain.ValidProductKey(slug) {
			continue
		}
		if _, dup := seen[slug]; dup {
			continue
		}
		seen[slug] = struct{}{}
		fresh = append(fresh, domain.Suggestion{Name: name, Category: category, Slug: slug})
		if len(fresh) == s.maxNew() {
			break
		}
	}

	if err := s.illustrate(ctx, fresh); err != nil {
		return nil, err
	}
	span.SetAttributes(
		attribute.Int("suggestions.existing", len(existing)),
		attribute.Int("suggestions.new", len(fresh)),
	)
	return &SearchResult{
		QueryType:   QueryTypeHybrid,
		Suggestions: append(existing, fresh...),
	}, nil
}

// existingMatches runs the keyword filter and, when an embedding is
// available, ranks the candidates by similarity. Any embedding or ranking
// failure falls back to unscored keyword matches.
func (s *SuggestService) existingMatches(ctx context.Context, query string) ([]domain.Suggestion, error) {
	candidates, err := s.Catalog.KeywordCandidates(ctx, query, keywordLimit)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return []domain.Suggestion{}, nil
	}
	k := s.topK()

	var vec []float64
	if s.Embedder != nil {
		vec, _ = runStep(ctx, "embed_query", bestEffort, func(ctx context.Context) ([]float64, error) {
			return s.Embedder.Embed(ctx, query)
		})
	}
	if len(vec) > 0 {
		ranked, err := s.Catalog.RankBySimilarity(ctx, vec, candidates, k)
		if err == nil && len(ranked) > 0 {
			out := make([]domain.Suggestion, 0, len(ranked))
			for _, r := range ranked {
				score := r.Score
				out = append(out, suggestionOf(&r.Product, &score))
			}
			return out, nil
		}
		if err != nil {
			log.Ctx(ctx).Warn().Err(err).Msg("similarity ranking failed; using keyword matches")
		}
	}

	products, err := s.Catalog.FindBySlugs(ctx, candidates[:min(k, len(candidates))])
	if err != nil {
		return nil, err
	}
	out := make([]domain.Suggestion, 0, len(products))
	for i := range products {
		out = append(out, suggestionOf(&products[i], nil))
	}
	return out, nil
}

// brainstorm asks the text model for new products. Failures yield nil.
func (s *SuggestService) brainstorm(ctx context.Context, query string) []brainstormIdea {
	if s.Text == nil {
		return nil
	}
	ideas, _ := runStep(ctx, "brainstorm", bestEffort, func(ctx context.Context) ([]brainstormIdea, error) {
		raw, err := s.Text.Generate(ctx, brainstormPrompt(query, s.maxNew()))
		if err != nil {
			return nil, err
		}
		return parseBrainstorm(raw)
	})
	return ideas
}

// illustrate resolves images for new suggestions sequentially, spaced by
// ImageDelay. Cancellation stops the loop and is returned.
func (s *SuggestService) illustrate(ctx context.Context, items []domain.Suggestion) error {
	if s.Images == nil || len(items) == 0 {
		return nil
	}
	lim := rate.NewLimiter(rate.Every(s.imageDelay()), 1)
	for i := range items {
		if err := lim.Wait(ctx); err != nil {
			return ctx.Err()
		}
		u, err := s.Images.ResolveImage(ctx, items[i].Name, items[i].Category)
		if err != nil && !errors.Is(err, ErrImageNotFound) {
			log.Ctx(ctx).Warn().Err(err).Str("slug", items[i].Slug).Msg("suggestion image lookup failed")
		}
		items[i].ImageURL = u
	}
	return nil
}

func suggestionOf(p *domain.Product, score *float64) domain.Suggestion {
	return domain.Suggestion{
		Name:     p.Name,
		Category: p.Category,
		Slug:     p.Slug,
		Exists:   true,
		ImageURL: p.PrimaryImage(),
		Score:    score,
	}
}

func (s *SuggestService) topK() int {
	if s.TopK > 0 {
		return s.TopK
	}
	return defaultTopK
}

func (s *SuggestService) maxNew() int {
	n := s.MaxNew
	if n <= 0 {
		n = defaultMaxNew
	}
	return min(max(n, minMaxNew), maxMaxNew)
}

func (s *SuggestService) imageDelay() time.Duration {
	if s.ImageDelay > 0 {
		return s.ImageDelay
	}
	return defaultImageDelay
}
