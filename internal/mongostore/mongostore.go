// Package mongostore implements the catalog and image cache on MongoDB.
//
// Products live in the "products" collection keyed by slug (_id). Keyword
// candidates come from a text index over name and category; similarity
// ranking uses an Atlas $vectorSearch index over the embedding field. Cached
// image lookups live in "imageCache" and are expired by a TTL index.
package mongostore

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/tbourn/go-review-backend/internal/domain"
)

const (
	productsCollection   = "products"
	imageCacheCollection = "imageCache"

	// VectorIndexName is the Atlas search index expected on products.embedding.
	VectorIndexName = "vector_index"
	vectorPath      = "embedding"
	numCandidates   = 50
)

// IsMongoURI reports whether uri selects the document store.
func IsMongoURI(uri string) bool {
	return strings.HasPrefix(uri, "mongodb://") || strings.HasPrefix(uri, "mongodb+srv://")
}

// Connect dials MongoDB and verifies the primary is reachable.
func Connect(ctx context.Context, uri string) (*mongo.Client, error) {
	client, err := mongo.Connect(ctx, options.Client().
		ApplyURI(uri).
		SetServerSelectionTimeout(10*time.Second))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo ping: %w", err)
	}
	return client, nil
}

// EnsureIndexes creates the text index on products and the unique + TTL
// indexes on the image cache. Creating an existing index is a no-op.
// The $vectorSearch index is an Atlas search index and is managed outside
// the driver.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection(productsCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "name", Value: "text"}, {Key: "category", Value: "text"}},
		Options: options.Index().SetName("products_text"),
	})
	if err != nil {
		return fmt.Errorf("products text index: %w", err)
	}

	_, err = db.Collection(imageCacheCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "query", Value: 1}},
			Options: options.Index().SetName("image_cache_query").SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "createdAt", Value: 1}},
			Options: options.Index().
				SetName("image_cache_ttl").
				SetExpireAfterSeconds(int32(domain.ImageCacheTTL / time.Second)),
		},
	})
	if err != nil {
		return fmt.Errorf("image cache indexes: %w", err)
	}
	return nil
}
