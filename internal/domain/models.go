// Package domain defines the persistence models for products, review versions,
// suggestions, and cached image lookups. The same types are mapped with GORM
// (SQL stores), tagged for BSON (document store), and serialized as JSON by the
// HTTP layer.
package domain

import (
	"math"
	"net/url"
	"time"
)

// ReviewVersion is one immutable, timestamped generation of review content.
// Versions are appended to Product.ReviewHistory and never mutated afterwards.
type ReviewVersion struct {
	Summary          string    `json:"summary"          bson:"summary"`
	Rating           float64   `json:"rating"           bson:"rating"`
	Pros             []string  `json:"pros"             bson:"pros"`
	Cons             []string  `json:"cons"             bson:"cons"`
	DetailedBody     string    `json:"detailedBody"     bson:"detailedBody"`
	CallToAction     string    `json:"callToAction"     bson:"callToAction"`
	ImageSearchQuery string    `json:"imageSearchQuery" bson:"imageSearchQuery"`
	GeneratedAt      time.Time `json:"generatedAt"      bson:"generatedAt"`
}

// Product is a catalog entry keyed by its slug ("{category}/{name}").
//
// Fields:
//   - Slug: canonical key derived from Name and Category (see ProductKey).
//   - ReviewHistory: append-only, non-empty once stored; the tail is current.
//   - Images: ordered image URLs, replaced wholesale by image backfills.
//   - Embedding: semantic vector of Name, used only for similarity search.
//   - LastImageSearchQuery: query that produced Images.
//   - LastReviewAt: GeneratedAt of the tail version, guards concurrent appends.
//   - VerificationScore/Upvotes/Downvotes: adjusted only by atomic increments.
type Product struct {
	Slug                 string          `json:"slug"                 bson:"_id"                  gorm:"type:varchar(255);primaryKey"`
	Name                 string          `json:"name"                 bson:"name"                 gorm:"type:varchar(255);not null"`
	Category             string          `json:"category"             bson:"category"             gorm:"type:varchar(255);not null;index:idx_products_category"`
	ReviewHistory        []ReviewVersion `json:"reviewHistory"        bson:"reviewHistory"        gorm:"serializer:json;type:text;not null"`
	Images               []string        `json:"images"               bson:"images"               gorm:"serializer:json;type:text"`
	Embedding            []float64       `json:"-"                    bson:"embedding"            gorm:"serializer:json;type:text"`
	LastImageSearchQuery string          `json:"lastImageSearchQuery" bson:"lastImageSearchQuery" gorm:"type:varchar(512)"`
	SearchText           string          `json:"-"                    bson:"-"                    gorm:"type:varchar(512)"`
	LastReviewAt         time.Time       `json:"lastReviewAt"         bson:"lastReviewAt"         gorm:"not null"`
	AffiliateURL         string          `json:"affiliateUrl"         bson:"affiliateUrl"         gorm:"type:varchar(1024)"`
	VerificationScore    int             `json:"verificationScore"    bson:"verificationScore"    gorm:"not null;default:0"`
	Upvotes              int             `json:"upvotes"              bson:"upvotes"              gorm:"not null;default:0"`
	Downvotes            int             `json:"downvotes"            bson:"downvotes"            gorm:"not null;default:0"`
	CreatedAt            time.Time       `json:"createdAt"            bson:"createdAt"`
	UpdatedAt            time.Time       `json:"updatedAt"            bson:"updatedAt"            gorm:"index:idx_products_updated"`
}

// TableName returns the database table name for Product.
func (Product) TableName() string { return "products" }

// CurrentReview returns the most recent review version, if any.
func (p *Product) CurrentReview() (ReviewVersion, bool) {
	if p == nil || len(p.ReviewHistory) == 0 {
		return ReviewVersion{}, false
	}
	return p.ReviewHistory[len(p.ReviewHistory)-1], true
}

// PrimaryImage returns the first image URL or "" when there are none.
func (p *Product) PrimaryImage() string {
	if p == nil || len(p.Images) == 0 {
		return ""
	}
	return p.Images[0]
}

// AffiliateSearchURL builds the storefront search link stored on new products.
func AffiliateSearchURL(name string) string {
	return "https://www.amazon.com/s?k=" + url.QueryEscape(name)
}

// ClampRating bounds a model-produced rating to [0,5] with one decimal.
// Non-finite values clamp to 0.
func ClampRating(r float64) float64 {
	if math.IsNaN(r) || math.IsInf(r, 0) || r < 0 {
		return 0
	}
	if r > 5 {
		r = 5
	}
	return math.Round(r*10) / 10
}

// ScoredProduct pairs a catalog product with its similarity to a query.
type ScoredProduct struct {
	Product Product
	Score   float64
}

// Suggestion is one entry of a hybrid search result. Existing catalog entries
// carry Exists=true and a Score when vector ranking succeeded; brainstormed
// candidates carry Exists=false and no score.
type Suggestion struct {
	Name     string   `json:"name"`
	Category string   `json:"category"`
	Slug     string   `json:"slug"`
	Exists   bool     `json:"exists"`
	ImageURL string   `json:"imageUrl,omitempty"`
	Score    *float64 `json:"score,omitempty"`
}

// CategorySummary describes one category present in the catalog.
type CategorySummary struct {
	Name  string `json:"name"  bson:"_id"`
	Slug  string `json:"slug"  bson:"-"`
	Count int64  `json:"count" bson:"count"`
}

// VoteDirection is the trust signal applied by the vote ledger.
type VoteDirection string

const (
	VoteUp   VoteDirection = "upvote"
	VoteDown VoteDirection = "downvote"
)

// ParseVoteDirection validates a wire value.
func ParseVoteDirection(s string) (VoteDirection, bool) {
	switch VoteDirection(s) {
	case VoteUp:
		return VoteUp, true
	case VoteDown:
		return VoteDown, true
	}
	return "", false
}

// ScoreDelta returns the verification score change for the direction.
func (d VoteDirection) ScoreDelta() int {
	if d == VoteUp {
		return 1
	}
	return -1
}

// CounterColumn returns the counter incremented alongside the score.
func (d VoteDirection) CounterColumn() string {
	if d == VoteUp {
		return "upvotes"
	}
	return "downvotes"
}
