package repo

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-review-backend/internal/domain"
)

// Store adapts the repository functions to the catalog contract used by the
// services layer.
type Store struct {
	DB *gorm.DB
}

func NewStore(db *gorm.DB) *Store { return &Store{DB: db} }

func (s *Store) FindBySlug(ctx context.Context, slug string) (*domain.Product, error) {
	return FindProduct(ctx, s.DB, slug)
}

func (s *Store) InsertIfAbsent(ctx context.Context, p *domain.Product) (bool, error) {
	return InsertProductIfAbsent(ctx, s.DB, p)
}

func (s *Store) UpdateImages(ctx context.Context, slug string, images []string, query string) error {
	return UpdateProductImages(ctx, s.DB, slug, images, query)
}

func (s *Store) AppendReviewVersion(ctx context.Context, slug string, v domain.ReviewVersion, prev time.Time) error {
	return AppendReviewVersion(ctx, s.DB, slug, v, prev)
}

func (s *Store) IncrementVote(ctx context.Context, slug string, dir domain.VoteDirection) (int, error) {
	return IncrementVote(ctx, s.DB, slug, dir)
}

func (s *Store) KeywordCandidates(ctx context.Context, query string, limit int) ([]string, error) {
	return KeywordCandidates(ctx, s.DB, query, limit)
}

func (s *Store) RankBySimilarity(ctx context.Context, vector []float64, slugs []string, k int) ([]domain.ScoredProduct, error) {
	return RankBySimilarity(ctx, s.DB, vector, slugs, k)
}

func (s *Store) FindBySlugs(ctx context.Context, slugs []string) ([]domain.Product, error) {
	return FindProducts(ctx, s.DB, slugs)
}

func (s *Store) ListCategories(ctx context.Context) ([]domain.CategorySummary, error) {
	return ListCategories(ctx, s.DB)
}

func (s *Store) ListByCategory(ctx context.Context, categorySlug string, offset, limit int) ([]domain.Product, int64, error) {
	return ListProductsByCategory(ctx, s.DB, categorySlug, offset, limit)
}

func (s *Store) CategoryStats(ctx context.Context, categorySlug string) (int64, *time.Time, error) {
	return CategoryStats(ctx, s.DB, categorySlug)
}

// ImageCache stores resolved image lookups in the image_cache table.
type ImageCache struct {
	DB  *gorm.DB
	TTL time.Duration
}

func NewImageCache(db *gorm.DB, ttl time.Duration) *ImageCache {
	if ttl <= 0 {
		ttl = domain.ImageCacheTTL
	}
	return &ImageCache{DB: db, TTL: ttl}
}

// Get reports a cached URL. A miss is not an error.
func (c *ImageCache) Get(ctx context.Context, query string) (string, bool, error) {
	u, err := GetCachedImage(ctx, c.DB, query, time.Now().UTC())
	if errors.Is(err, ErrNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return u, true, nil
}

func (c *ImageCache) Put(ctx context.Context, query, url string) error {
	return PutCachedImage(ctx, c.DB, query, url, c.TTL)
}

// Purge removes expired rows. SQL stores have no TTL index, so the server
// calls this periodically.
func (c *ImageCache) Purge(ctx context.Context) (int64, error) {
	return PurgeExpiredImages(ctx, c.DB, time.Now().UTC())
}
