package services

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/tbourn/go-review-backend/internal/domain"
	"github.com/tbourn/go-review-backend/internal/providers"
)

// ImageService backfills product photography. All provider calls are best
// effort: a failing provider yields fewer images, never an error.
type ImageService struct {
	Catalog   Catalog
	Primary   providers.ImageSearcher
	Secondary providers.ImageSearcher
	Generator providers.ImageGenerator
	Prober    providers.Prober
	Cache     ImageCache

	// PrimaryCount is how many images a fetch asks the primary search for
	// (default 5).
	PrimaryCount int
}

// FetchImages returns the product's images for searchQuery. Stored images are
// reused when they were produced by the same query; otherwise the primary
// search runs, falling back to one secondary image, and the result (possibly
// empty) is persisted.
func (s *ImageService) FetchImages(ctx context.Context, slug, searchQuery string) ([]string, error) {
	tr := otel.Tracer("services/ImageService")
	ctx, span := tr.Start(ctx, "FetchImages",
		trace.WithAttributes(attribute.String("product.slug", slug)),
	)
	defer span.End()

	searchQuery = strings.TrimSpace(searchQuery)
	if slug == "" || searchQuery == "" {
		return nil, invalid("productId and searchQuery are required")
	}
	p, err := s.find(ctx, slug)
	if err != nil {
		return nil, err
	}
	if len(p.Images) > 0 && p.LastImageSearchQuery == searchQuery {
		span.SetAttributes(attribute.Bool("images.reused", true))
		return p.Images, nil
	}

	images := s.search(ctx, s.Primary, searchQuery, s.primaryCount())
	if len(images) == 0 {
		images = s.search(ctx, s.Secondary, searchQuery, 1)
	}
	if err := s.Catalog.UpdateImages(ctx, slug, images, searchQuery); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}
	return images, nil
}

// GenerateImage renders a studio photo for the product. The generated URL is
// kept only if the prober can reach it; otherwise one secondary search image
// is used. Non-empty results replace the stored images.
func (s *ImageService) GenerateImage(ctx context.Context, slug, name, category string) ([]string, error) {
	tr := otel.Tracer("services/ImageService")
	ctx, span := tr.Start(ctx, "GenerateImage",
		trace.WithAttributes(attribute.String("product.slug", slug)),
	)
	defer span.End()

	name, category = strings.TrimSpace(name), strings.TrimSpace(category)
	if slug == "" || name == "" || category == "" {
		return nil, invalid("productId, productName and category are required")
	}
	p, err := s.find(ctx, slug)
	if err != nil {
		return nil, err
	}

	images := []string{}
	if s.Generator != nil {
		u, _ := runStep(ctx, "generate_image", bestEffort, func(ctx context.Context) (string, error) {
			return s.Generator.GenerateImage(ctx, imagePrompt(name, category))
		})
		if u != "" && (s.Prober == nil || s.Prober.Reachable(ctx, u)) {
			images = append(images, u)
		} else if u != "" {
			log.Ctx(ctx).Warn().Str("slug", slug).Msg("generated image unreachable; falling back to search")
		}
	}
	if len(images) == 0 {
		images = s.search(ctx, s.Secondary, name+" "+category, 1)
	}
	if len(images) == 0 {
		return images, nil
	}
	if err := s.Catalog.UpdateImages(ctx, slug, images, p.LastImageSearchQuery); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}
	return images, nil
}

// ResolveImage finds one illustrative image for a product that may not be in
// the catalog: cache, then primary search, then secondary search. Hits are
// cached. ErrImageNotFound means every source came back empty.
func (s *ImageService) ResolveImage(ctx context.Context, name, category string) (string, error) {
	name, category = strings.TrimSpace(name), strings.TrimSpace(category)
	if name == "" || category == "" {
		return "", invalid("productName and category are required")
	}
	key := name + " " + category
	cache := s.cache()

	if u, ok, err := cache.Get(ctx, key); err != nil {
		log.Ctx(ctx).Warn().Err(err).Msg("image cache read failed")
	} else if ok {
		return u, nil
	}

	var u string
	if imgs := s.search(ctx, s.Primary, key+" product photo", 1); len(imgs) > 0 {
		u = imgs[0]
	} else if imgs := s.search(ctx, s.Secondary, key, 1); len(imgs) > 0 {
		u = imgs[0]
	}
	if u == "" {
		return "", ErrImageNotFound
	}
	if err := cache.Put(ctx, key, u); err != nil {
		log.Ctx(ctx).Warn().Err(err).Msg("image cache write failed")
	}
	return u, nil
}

func (s *ImageService) find(ctx context.Context, slug string) (*domain.Product, error) {
	p, err := s.Catalog.FindBySlug(ctx, slug)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, ErrProductNotFound
	}
	return p, err
}

// search is a best-effort image search that never returns nil.
func (s *ImageService) search(ctx context.Context, searcher providers.ImageSearcher, q string, n int) []string {
	if searcher == nil {
		return []string{}
	}
	imgs, _ := runStep(ctx, "search_images", bestEffort, func(ctx context.Context) ([]string, error) {
		return searcher.SearchImages(ctx, q, n)
	})
	if imgs == nil {
		return []string{}
	}
	return imgs
}

func (s *ImageService) cache() ImageCache {
	if s.Cache == nil {
		return noCache{}
	}
	return s.Cache
}

func (s *ImageService) primaryCount() int {
	if s.PrimaryCount > 0 {
		return s.PrimaryCount
	}
	return 5
}
