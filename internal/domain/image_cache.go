package domain

import "time"

// ImageCacheTTL is how long a resolved image lookup stays valid.
const ImageCacheTTL = 7 * 24 * time.Hour

// ImageCacheEntry maps a free-text image query to a previously resolved URL.
// Document stores expire entries with a TTL index on CreatedAt; SQL stores
// filter on ExpiresAt.
type ImageCacheEntry struct {
	ID        string    `json:"-"          bson:"-"         gorm:"type:char(36);primaryKey"`
	Query     string    `json:"query"      bson:"query"     gorm:"type:varchar(512);not null;uniqueIndex:ux_image_cache_query"`
	URL       string    `json:"url"        bson:"url"       gorm:"type:varchar(2048);not null"`
	CreatedAt time.Time `json:"created_at" bson:"createdAt" gorm:"not null"`
	ExpiresAt time.Time `json:"expires_at" bson:"expiresAt" gorm:"not null;index"`
}

// TableName implements the GORM tabler interface.
func (ImageCacheEntry) TableName() string { return "image_cache" }
