package services

import (
	"context"
	"time"

	"github.com/tbourn/go-review-backend/internal/domain"
)

// Catalog is the product store contract. Both the MongoDB and the GORM
// stores implement it. Missing products are reported as domain.ErrNotFound.
type Catalog interface {
	FindBySlug(ctx context.Context, slug string) (*domain.Product, error)

	// InsertIfAbsent never reports a duplicate key as an error; a lost race
	// returns created=false.
	InsertIfAbsent(ctx context.Context, p *domain.Product) (created bool, err error)

	UpdateImages(ctx context.Context, slug string, images []string, query string) error

	// AppendReviewVersion returns domain.ErrStaleWrite when the tail is no
	// longer prev.
	AppendReviewVersion(ctx context.Context, slug string, v domain.ReviewVersion, prev time.Time) error

	IncrementVote(ctx context.Context, slug string, dir domain.VoteDirection) (int, error)

	KeywordCandidates(ctx context.Context, query string, limit int) ([]string, error)
	RankBySimilarity(ctx context.Context, vector []float64, slugs []string, k int) ([]domain.ScoredProduct, error)
	FindBySlugs(ctx context.Context, slugs []string) ([]domain.Product, error)

	ListCategories(ctx context.Context) ([]domain.CategorySummary, error)
	ListByCategory(ctx context.Context, categorySlug string, offset, limit int) ([]domain.Product, int64, error)
	CategoryStats(ctx context.Context, categorySlug string) (int64, *time.Time, error)
}

// ImageCache maps an image query to a previously resolved URL.
type ImageCache interface {
	Get(ctx context.Context, query string) (url string, ok bool, err error)
	Put(ctx context.Context, query, url string) error
}

type noCache struct{}

func (noCache) Get(context.Context, string) (string, bool, error) { return "", false, nil }
func (noCache) Put(context.Context, string, string) error         { return nil }
