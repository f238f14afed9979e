// Package repo implements the SQL catalog backed by GORM. This file provides
// repository helpers for the image cache: free-text query → resolved URL with
// a fixed expiry.
package repo

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tbourn/go-review-backend/internal/domain"
)

// GetCachedImage returns a non-expired URL for query or ErrNotFound.
func GetCachedImage(ctx context.Context, db *gorm.DB, query string, now time.Time) (string, error) {
	query = normalizeCacheKey(query)
	if query == "" {
		return "", ErrNotFound
	}
	var rec domain.ImageCacheEntry
	err := db.WithContext(ctx).
		Where("query = ? AND expires_at > ?", query, now).
		Take(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", err
	}
	return rec.URL, nil
}

// PutCachedImage upserts the URL for query, restarting its TTL.
func PutCachedImage(ctx context.Context, db *gorm.DB, query, url string, ttl time.Duration) error {
	query = normalizeCacheKey(query)
	if query == "" || url == "" {
		return nil
	}
	now := time.Now().UTC()
	rec := &domain.ImageCacheEntry{
		ID:        uuid.NewString(),
		Query:     query,
		URL:       url,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}
	return db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "query"}},
			DoUpdates: clause.AssignmentColumns([]string{"url", "created_at", "expires_at"}),
		}).
		Create(rec).Error
}

// PurgeExpiredImages deletes expired cache rows and returns how many went.
func PurgeExpiredImages(ctx context.Context, db *gorm.DB, now time.Time) (int64, error) {
	res := db.WithContext(ctx).Where("expires_at <= ?", now).Delete(&domain.ImageCacheEntry{})
	return res.RowsAffected, res.Error
}

func normalizeCacheKey(q string) string {
	return strings.ToLower(strings.Join(strings.Fields(q), " "))
}
