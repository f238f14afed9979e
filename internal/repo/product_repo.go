// Package repo implements the SQL catalog backed by GORM. This file provides
// repository functions for the Product model.
//
// All functions are context-aware and accept a *gorm.DB handle, making them
// safe for use within transactions or connection-scoped operations.
// They follow the "thin repository" approach: no business logic, only
// persistence and query composition.
//
// Error semantics:
//   - When a product is not found, functions return domain.ErrNotFound
//     (also exported here as ErrNotFound).
//   - A conditional review append that matched no row returns
//     domain.ErrStaleWrite.
//   - Other DB errors are propagated unchanged.
package repo

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tbourn/go-review-backend/internal/domain"
	"github.com/tbourn/go-review-backend/internal/search"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = domain.ErrNotFound

// keywordScanLimit bounds how many LIKE matches are scored in-process.
const keywordScanLimit = 500

// FindProduct loads one product by slug.
func FindProduct(ctx context.Context, db *gorm.DB, slug string) (*domain.Product, error) {
	var p domain.Product
	err := db.WithContext(ctx).Where("slug = ?", slug).Take(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// InsertProductIfAbsent inserts p unless a row with the same slug exists.
// A conflicting insert is not an error: created is false and the caller is
// expected to re-read.
func InsertProductIfAbsent(ctx context.Context, db *gorm.DB, p *domain.Product) (created bool, err error) {
	now := time.Now().UTC()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now
	p.SearchText = search.Fold(p.Name + " " + p.Category)
	res := db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "slug"}}, DoNothing: true}).
		Create(p)
	if res.Error != nil {
		if isUniqueViolation(res.Error) {
			return false, nil
		}
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// UpdateProductImages replaces images and the query that produced them.
func UpdateProductImages(ctx context.Context, db *gorm.DB, slug string, images []string, query string) error {
	if images == nil {
		images = []string{}
	}
	res := db.WithContext(ctx).Model(&domain.Product{}).
		Where("slug = ?", slug).
		Select("images", "last_image_search_query", "updated_at").
		Updates(&domain.Product{
			Images:               images,
			LastImageSearchQuery: query,
			UpdatedAt:            time.Now().UTC(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// AppendReviewVersion appends v to the product's history, provided the
// current tail was generated at prev. The read and the conditional write
// share one transaction; the write is guarded on last_review_at so a
// concurrent append makes this one fail with domain.ErrStaleWrite.
func AppendReviewVersion(ctx context.Context, db *gorm.DB, slug string, v domain.ReviewVersion, prev time.Time) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		p, err := FindProduct(ctx, tx, slug)
		if err != nil {
			return err
		}
		if !p.LastReviewAt.Equal(prev) {
			return domain.ErrStaleWrite
		}
		history := append(p.ReviewHistory, v)
		res := tx.Model(&domain.Product{}).
			Where("slug = ? AND last_review_at = ?", slug, p.LastReviewAt).
			Select("review_history", "last_review_at", "updated_at").
			Updates(&domain.Product{
				ReviewHistory: history,
				LastReviewAt:  v.GeneratedAt,
				UpdatedAt:     time.Now().UTC(),
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return domain.ErrStaleWrite
		}
		return nil
	})
}

// IncrementVote applies one vote with single-statement increments and
// returns the post-update verification score.
func IncrementVote(ctx context.Context, db *gorm.DB, slug string, dir domain.VoteDirection) (int, error) {
	var row struct{ VerificationScore int }
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		col := dir.CounterColumn()
		res := tx.Model(&domain.Product{}).
			Where("slug = ?", slug).
			UpdateColumns(map[string]any{
				"verification_score": gorm.Expr("verification_score + ?", dir.ScoreDelta()),
				col:                  gorm.Expr(col + " + 1"),
				"updated_at":         time.Now().UTC(),
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return tx.Model(&domain.Product{}).
			Select("verification_score").
			Where("slug = ?", slug).
			Take(&row).Error
	})
	if err != nil {
		return 0, err
	}
	return row.VerificationScore, nil
}

// KeywordCandidates returns slugs whose name or category contains any query
// token, ranked by token overlap. Tokens are matched accent-folded against
// search_text; rows written before that column existed are still matched on
// the raw name and category.
func KeywordCandidates(ctx context.Context, db *gorm.DB, query string, limit int) ([]string, error) {
	tokens := search.Tokens(search.Fold(query), search.DefaultStopwords)
	if len(tokens) == 0 {
		return []string{}, nil
	}
	if limit <= 0 {
		limit = 50
	}

	q := db.WithContext(ctx).Model(&domain.Product{}).Select("slug", "name", "category")
	raw := search.Tokens(query, search.DefaultStopwords)
	conds := make([]string, 0, len(tokens)+len(raw))
	args := make([]any, 0, len(tokens)+len(raw)*2)
	for _, tok := range tokens {
		conds = append(conds, "search_text LIKE ?")
		args = append(args, "%"+tok+"%")
	}
	for _, tok := range raw {
		conds = append(conds, "(LOWER(name) LIKE ? OR LOWER(category) LIKE ?)")
		like := "%" + tok + "%"
		args = append(args, like, like)
	}
	var rows []struct {
		Slug     string
		Name     string
		Category string
	}
	if err := q.Where(strings.Join(conds, " OR "), args...).
		Order("updated_at DESC").
		Limit(keywordScanLimit).
		Find(&rows).Error; err != nil {
		return nil, err
	}

	docs := make([]search.Document, 0, len(rows))
	for _, r := range rows {
		docs = append(docs, search.Document{ID: r.Slug, Name: r.Name, Category: r.Category})
	}
	ranked := search.NewIndex(docs, search.WithStopwords(search.DefaultStopwords)).TopK(query, limit)
	out := make([]string, 0, len(ranked))
	for _, r := range ranked {
		out = append(out, r.ID)
	}
	return out, nil
}

// RankBySimilarity scores the candidate products by cosine similarity of
// their embeddings to vector and returns the best k, highest first.
func RankBySimilarity(ctx context.Context, db *gorm.DB, vector []float64, slugs []string, k int) ([]domain.ScoredProduct, error) {
	if len(slugs) == 0 || len(vector) == 0 {
		return []domain.ScoredProduct{}, nil
	}
	products, err := FindProducts(ctx, db, slugs)
	if err != nil {
		return nil, err
	}
	bySlug := make(map[string]domain.Product, len(products))
	vecs := make([]search.Vector, 0, len(products))
	for _, p := range products {
		bySlug[p.Slug] = p
		vecs = append(vecs, search.Vector{ID: p.Slug, Values: p.Embedding})
	}
	ranked := search.TopKBySimilarity(vector, vecs, k)
	out := make([]domain.ScoredProduct, 0, len(ranked))
	for _, r := range ranked {
		out = append(out, domain.ScoredProduct{Product: bySlug[r.ID], Score: r.Score})
	}
	return out, nil
}

// FindProducts loads products by slug, preserving the order of slugs.
// Unknown slugs are skipped.
func FindProducts(ctx context.Context, db *gorm.DB, slugs []string) ([]domain.Product, error) {
	if len(slugs) == 0 {
		return []domain.Product{}, nil
	}
	var rows []domain.Product
	if err := db.WithContext(ctx).Where("slug IN ?", slugs).Find(&rows).Error; err != nil {
		return nil, err
	}
	bySlug := make(map[string]domain.Product, len(rows))
	for _, p := range rows {
		bySlug[p.Slug] = p
	}
	out := make([]domain.Product, 0, len(rows))
	for _, s := range slugs {
		if p, ok := bySlug[s]; ok {
			out = append(out, p)
			delete(bySlug, s)
		}
	}
	return out, nil
}

// ListCategories returns one summary per category slug.
func ListCategories(ctx context.Context, db *gorm.DB) ([]domain.CategorySummary, error) {
	var rows []domain.CategorySummary
	if err := db.WithContext(ctx).Model(&domain.Product{}).
		Select("category AS name, COUNT(*) AS count").
		Group("category").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	return domain.MergeCategories(rows), nil
}

// ListProductsByCategory returns one page of products in a category,
// newest first, plus the category total.
func ListProductsByCategory(ctx context.Context, db *gorm.DB, categorySlug string, offset, limit int) ([]domain.Product, int64, error) {
	var total int64
	if err := db.WithContext(ctx).Model(&domain.Product{}).
		Where("slug LIKE ?", categorySlug+"/%").
		Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var out []domain.Product
	if err := db.WithContext(ctx).
		Where("slug LIKE ?", categorySlug+"/%").
		Order("created_at desc").
		Order("slug asc").
		Offset(offset).
		Limit(limit).
		Find(&out).Error; err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// isUniqueViolation matches duplicate-key errors across drivers.
// glebarez/sqlite often returns plain-text errors for UNIQUE violations.
func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	low := strings.ToLower(err.Error())
	return strings.Contains(low, "unique constraint failed") ||
		strings.Contains(low, "constraint failed: unique") ||
		strings.Contains(low, "duplicate key value")
}
