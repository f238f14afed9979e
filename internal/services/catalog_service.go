package services

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/tbourn/go-review-backend/internal/domain"
	"github.com/tbourn/go-review-backend/internal/utils"
)

// CatalogService serves read-only browsing of categories.
type CatalogService struct {
	Catalog Catalog
}

// Categories lists every category with its product count, ordered by slug.
func (s *CatalogService) Categories(ctx context.Context) ([]domain.CategorySummary, error) {
	tr := otel.Tracer("services/CatalogService")
	ctx, span := tr.Start(ctx, "Categories")
	defer span.End()

	cats, err := s.Catalog.ListCategories(ctx)
	if err != nil {
		return nil, err
	}
	if cats == nil {
		cats = []domain.CategorySummary{}
	}
	return cats, nil
}

// ListPage returns one page of a category's products, newest first.
func (s *CatalogService) ListPage(ctx context.Context, categorySlug string, page, pageSize int) ([]domain.Product, int64, error) {
	tr := otel.Tracer("services/CatalogService")
	ctx, span := tr.Start(ctx, "ListPage",
		trace.WithAttributes(
			attribute.String("category.slug", categorySlug),
			attribute.Int("page", page),
			attribute.Int("page_size", pageSize),
		),
	)
	defer span.End()

	if categorySlug == "" {
		return nil, 0, invalid("category is required")
	}
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	items, total, err := s.Catalog.ListByCategory(ctx, categorySlug, utils.Offset(page, pageSize), pageSize)
	if err != nil {
		return nil, 0, err
	}
	if items == nil {
		items = []domain.Product{}
	}
	return items, total, nil
}

// Stats returns the category's product count and latest update, for ETags.
func (s *CatalogService) Stats(ctx context.Context, categorySlug string) (int64, *time.Time, error) {
	return s.Catalog.CategoryStats(ctx, categorySlug)
}
