package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-review-backend/internal/domain"
)

// CategoryStats counts the products under categorySlug and reports the most
// recent UpdatedAt among them, for category ETags. An empty category yields
// (0, nil, nil).
func CategoryStats(ctx context.Context, db *gorm.DB, categorySlug string) (int64, *time.Time, error) {
	inCategory := func() *gorm.DB {
		return db.WithContext(ctx).Model(&domain.Product{}).Where("slug LIKE ?", categorySlug+"/%")
	}

	var n int64
	if err := inCategory().Count(&n).Error; err != nil || n == 0 {
		return 0, nil, err
	}

	// ORDER BY instead of MAX(): SQLite returns MAX over a datetime as TEXT
	var latest []time.Time
	if err := inCategory().Order("updated_at DESC").Limit(1).Pluck("updated_at", &latest).Error; err != nil {
		return 0, nil, err
	}
	if len(latest) == 0 {
		return n, nil, nil
	}
	return n, &latest[0], nil
}
