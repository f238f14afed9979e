// Package services – ReviewService
//
// This file implements the review lifecycle: the first generation of a
// product (text generation, parsing, image search and embedding) and
// cooldown-gated regeneration that appends a new version to the history.
// No partial product is ever persisted; a failed or unparseable generation
// aborts the request.
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

	"github.com/tbourn/go-review-backend/internal/domain"
	"github.com/tbourn/go-review-backend/internal/providers"
)

// DefaultCooldown is the minimum time between two review versions.
const DefaultCooldown = 24 * time.Hour

// ReviewService creates and regenerates product reviews.
type ReviewService struct {
	Catalog  Catalog
	Text     providers.TextGenerator
	Embedder providers.Embedder
	Images   providers.ImageSearcher

	// Cooldown defaults to DefaultCooldown.
	Cooldown time.Duration
	// ImageCount is how many images are searched for a new product (default 5).
	ImageCount int
	// Now is the clock; tests override it.
	Now func() time.Time
}

func (s *ReviewService) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

func (s *ReviewService) cooldown() time.Duration {
	if s.Cooldown > 0 {
		return s.Cooldown
	}
	return DefaultCooldown
}

// Create returns the product for (name, category), generating and storing
// its first review when absent. created is false when the product already
// existed, including when a concurrent request stored it first.
func (s *ReviewService) Create(ctx context.Context, name, category string) (p *domain.Product, created bool, err error) {
	tr := otel.Tracer("services/ReviewService")
	ctx, span := tr.Start(ctx, "Create",
		trace.WithAttributes(
			attribute.String("product.name", name),
			attribute.String("product.category", category),
		),
	)
	defer span.End()

	name, category = strings.TrimSpace(name), strings.TrimSpace(category)
	if name == "" || category == "" {
		return nil, false, invalid("product name and category are required")
	}
	slug := domain.ProductKey(name, category)
	if !domain.ValidProductKey(slug) {
		return nil, false, invalid("product name and category must contain letters or digits")
	}
	span.SetAttributes(attribute.String("product.slug", slug))

	existing, err := s.Catalog.FindBySlug(ctx, slug)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, false, err
	}

	raw, err := runStep(ctx, "generate_review", mandatory, func(ctx context.Context) (string, error) {
		return s.Text.Generate(ctx, reviewPrompt(name, category))
	})
	if err != nil {
		return nil, false, err
	}
	v, err := parseReview(raw)
	if err != nil {
		return nil, false, err
	}

	// Images and the embedding only depend on the parsed review.
	var (
		images    []string
		embedding []float64
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if s.Images == nil {
			return nil
		}
		images, _ = runStep(gctx, "search_images", bestEffort, func(ctx context.Context) ([]string, error) {
			return s.Images.SearchImages(ctx, v.ImageSearchQuery, s.imageCount())
		})
		return nil
	})
	g.Go(func() error {
		var err error
		embedding, err = runStep(gctx, "embed_name", mandatory, func(ctx context.Context) ([]float64, error) {
			return s.Embedder.Embed(ctx, name)
		})
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, false, err
	}
	if images == nil {
		images = []string{}
	}

	// Document stores keep millisecond precision; truncating keeps the
	// conditional append guard comparable after a round trip.
	now := s.now().Truncate(time.Millisecond)
	v.GeneratedAt = now
	p = &domain.Product{
		Slug:                 slug,
		Name:                 name,
		Category:             category,
		ReviewHistory:        []domain.ReviewVersion{v},
		Images:               images,
		Embedding:            embedding,
		LastImageSearchQuery: v.ImageSearchQuery,
		LastReviewAt:         now,
		AffiliateURL:         domain.AffiliateSearchURL(name),
		CreatedAt:            now,
	}

	created, err = s.Catalog.InsertIfAbsent(ctx, p)
	if err != nil {
		return nil, false, err
	}
	if !created {
		log.Ctx(ctx).Info().Str("slug", slug).Msg("product created concurrently; returning stored copy")
		stored, err := s.Catalog.FindBySlug(ctx, slug)
		if err != nil {
			return nil, false, err
		}
		return stored, false, nil
	}
	return p, true, nil
}

// Regenerate appends a fresh review version to slug once the cooldown since
// the current version has elapsed. Early requests fail with *CooldownError
// and leave the history untouched.
func (s *ReviewService) Regenerate(ctx context.Context, slug string) (domain.ReviewVersion, error) {
	tr := otel.Tracer("services/ReviewService")
	ctx, span := tr.Start(ctx, "Regenerate",
		trace.WithAttributes(attribute.String("product.slug", slug)),
	)
	defer span.End()

	p, err := s.Get(ctx, slug)
	if err != nil {
		return domain.ReviewVersion{}, err
	}
	now := s.now()
	if cerr := s.checkCooldown(p, now); cerr != nil {
		return domain.ReviewVersion{}, cerr
	}

	raw, err := runStep(ctx, "regenerate_review", mandatory, func(ctx context.Context) (string, error) {
		return s.Text.Generate(ctx, regeneratePrompt(p.Name, p.Category))
	})
	if err != nil {
		return domain.ReviewVersion{}, err
	}
	v, err := parseReview(raw)
	if err != nil {
		return domain.ReviewVersion{}, err
	}
	v.GeneratedAt = s.now().Truncate(time.Millisecond)

	err = s.Catalog.AppendReviewVersion(ctx, slug, v, p.LastReviewAt)
	switch {
	case err == nil:
		return v, nil
	case errors.Is(err, domain.ErrNotFound):
		return domain.ReviewVersion{}, ErrProductNotFound
	case errors.Is(err, domain.ErrStaleWrite):
		// Another regeneration won; report the cooldown it started.
		if fresh, ferr := s.Catalog.FindBySlug(ctx, slug); ferr == nil {
			if cerr := s.checkCooldown(fresh, s.now()); cerr != nil {
				return domain.ReviewVersion{}, cerr
			}
		}
		return domain.ReviewVersion{}, &CooldownError{Remaining: s.cooldown(), RetryAt: now.Add(s.cooldown())}
	default:
		return domain.ReviewVersion{}, err
	}
}

// Get loads a product by slug.
func (s *ReviewService) Get(ctx context.Context, slug string) (*domain.Product, error) {
	if strings.TrimSpace(slug) == "" {
		return nil, invalid("productId is required")
	}
	p, err := s.Catalog.FindBySlug(ctx, slug)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, ErrProductNotFound
	}
	return p, err
}

// checkCooldown returns a *CooldownError while the tail version is younger
// than the cooldown.
func (s *ReviewService) checkCooldown(p *domain.Product, now time.Time) error {
	tail, ok := p.CurrentReview()
	if !ok {
		return nil
	}
	retryAt := tail.GeneratedAt.Add(s.cooldown())
	if remaining := retryAt.Sub(now); remaining > 0 {
		return &CooldownError{Remaining: remaining, RetryAt: retryAt}
	}
	return nil
}

func (s *ReviewService) imageCount() int {
	if s.ImageCount > 0 {
		return s.ImageCount
	}
	return 5
}
