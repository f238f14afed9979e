package mongostore

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/tbourn/go-review-backend/internal/domain"
)

// ImageCache stores resolved image lookups in the imageCache collection.
// Expiry is enforced by the TTL index from EnsureIndexes; reads also ignore
// entries past the TTL because the TTL monitor runs only once a minute.
type ImageCache struct {
	coll *mongo.Collection
	ttl  time.Duration
}

func NewImageCache(db *mongo.Database, ttl time.Duration) *ImageCache {
	if ttl <= 0 {
		ttl = domain.ImageCacheTTL
	}
	return &ImageCache{coll: db.Collection(imageCacheCollection), ttl: ttl}
}

// Get reports a cached URL. A miss is not an error.
func (c *ImageCache) Get(ctx context.Context, query string) (string, bool, error) {
	query = normalizeQuery(query)
	if query == "" {
		return "", false, nil
	}
	var doc struct {
		URL string `bson:"url"`
	}
	err := c.coll.FindOne(ctx, bson.M{
		"query":     query,
		"createdAt": bson.M{"$gt": time.Now().UTC().Add(-c.ttl)},
	}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return doc.URL, true, nil
}

// Put upserts the URL for query and restarts its TTL.
func (c *ImageCache) Put(ctx context.Context, query, url string) error {
	query = normalizeQuery(query)
	if query == "" || url == "" {
		return nil
	}
	_, err := c.coll.UpdateOne(ctx,
		bson.M{"query": query},
		bson.M{"$set": bson.M{"url": url, "createdAt": time.Now().UTC()}},
		options.Update().SetUpsert(true),
	)
	return err
}

func normalizeQuery(q string) string {
	return strings.ToLower(strings.Join(strings.Fields(q), " "))
}
