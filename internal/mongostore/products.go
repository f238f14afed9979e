package mongostore

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/tbourn/go-review-backend/internal/domain"
)

// Store is the MongoDB catalog.
type Store struct {
	products *mongo.Collection
}

// NewStore returns a catalog over db's products collection.
func NewStore(db *mongo.Database) *Store {
	return &Store{products: db.Collection(productsCollection)}
}

func (s *Store) FindBySlug(ctx context.Context, slug string) (*domain.Product, error) {
	var p domain.Product
	err := s.products.FindOne(ctx, bson.M{"_id": slug}).Decode(&p)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// InsertIfAbsent inserts p keyed by its slug. A duplicate key means another
// writer won the race; that is reported as created=false, not an error.
func (s *Store) InsertIfAbsent(ctx context.Context, p *domain.Product) (bool, error) {
	now := time.Now().UTC().Truncate(time.Millisecond)
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now
	if p.Images == nil {
		p.Images = []string{}
	}
	if _, err := s.products.InsertOne(ctx, p); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (s *Store) UpdateImages(ctx context.Context, slug string, images []string, query string) error {
	if images == nil {
		images = []string{}
	}
	res, err := s.products.UpdateOne(ctx, bson.M{"_id": slug}, bson.M{"$set": bson.M{
		"images":               images,
		"lastImageSearchQuery": query,
		"updatedAt":            time.Now().UTC(),
	}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// AppendReviewVersion pushes v onto the history only while the stored tail
// is still prev.
func (s *Store) AppendReviewVersion(ctx context.Context, slug string, v domain.ReviewVersion, prev time.Time) error {
	res, err := s.products.UpdateOne(ctx,
		bson.M{"_id": slug, "lastReviewAt": prev},
		bson.M{
			"$push": bson.M{"reviewHistory": v},
			"$set": bson.M{
				"lastReviewAt": v.GeneratedAt,
				"updatedAt":    time.Now().UTC(),
			},
		})
	if err != nil {
		return err
	}
	if res.MatchedCount == 1 {
		return nil
	}
	n, err := s.products.CountDocuments(ctx, bson.M{"_id": slug})
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return domain.ErrStaleWrite
}

func (s *Store) IncrementVote(ctx context.Context, slug string, dir domain.VoteDirection) (int, error) {
	var out struct {
		VerificationScore int `bson:"verificationScore"`
	}
	err := s.products.FindOneAndUpdate(ctx,
		bson.M{"_id": slug},
		bson.M{
			"$inc": bson.M{"verificationScore": dir.ScoreDelta(), dir.CounterColumn(): 1},
			"$set": bson.M{"updatedAt": time.Now().UTC()},
		},
		options.FindOneAndUpdate().
			SetReturnDocument(options.After).
			SetProjection(bson.M{"verificationScore": 1}),
	).Decode(&out)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return 0, domain.ErrNotFound
	}
	if err != nil {
		return 0, err
	}
	return out.VerificationScore, nil
}

// KeywordCandidates runs a $text query and returns slugs by text score.
func (s *Store) KeywordCandidates(ctx context.Context, query string, limit int) ([]string, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []string{}, nil
	}
	if limit <= 0 {
		limit = 50
	}
	score := bson.M{"$meta": "textScore"}
	cur, err := s.products.Find(ctx,
		bson.M{"$text": bson.M{"$search": query}},
		options.Find().
			SetProjection(bson.M{"_id": 1, "score": score}).
			SetSort(bson.D{{Key: "score", Value: score}}).
			SetLimit(int64(limit)),
	)
	if err != nil {
		return nil, err
	}
	var rows []struct {
		ID string `bson:"_id"`
	}
	if err := cur.All(ctx, &rows); err != nil {
		return nil, err
	}
	out := make([]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.ID)
	}
	return out, nil
}

// RankBySimilarity runs $vectorSearch restricted to slugs.
func (s *Store) RankBySimilarity(ctx context.Context, vector []float64, slugs []string, k int) ([]domain.ScoredProduct, error) {
	if len(slugs) == 0 || len(vector) == 0 {
		return []domain.ScoredProduct{}, nil
	}
	cur, err := s.products.Aggregate(ctx, vectorSearchPipeline(vector, slugs, k))
	if err != nil {
		return nil, err
	}
	var rows []scoredDoc
	if err := cur.All(ctx, &rows); err != nil {
		return nil, err
	}
	out := make([]domain.ScoredProduct, 0, len(rows))
	for _, r := range rows {
		out = append(out, domain.ScoredProduct{Product: r.Product, Score: r.Score})
	}
	return out, nil
}

type scoredDoc struct {
	domain.Product `bson:",inline"`
	Score          float64 `bson:"score"`
}

// vectorSearchPipeline ranks the candidate slugs against vector.
// The vector index must declare _id as a filter field.
func vectorSearchPipeline(vector []float64, slugs []string, k int) mongo.Pipeline {
	if k <= 0 {
		k = 5
	}
	return mongo.Pipeline{
		{{Key: "$vectorSearch", Value: bson.D{
			{Key: "index", Value: VectorIndexName},
			{Key: "path", Value: vectorPath},
			{Key: "queryVector", Value: vector},
			{Key: "numCandidates", Value: max(numCandidates, k)},
			{Key: "limit", Value: k},
			{Key: "filter", Value: bson.M{"_id": bson.M{"$in": slugs}}},
		}}},
		{{Key: "$set", Value: bson.M{"score": bson.M{"$meta": "vectorSearchScore"}}}},
	}
}

// FindBySlugs returns products in the order of slugs, skipping unknown ones.
func (s *Store) FindBySlugs(ctx context.Context, slugs []string) ([]domain.Product, error) {
	if len(slugs) == 0 {
		return []domain.Product{}, nil
	}
	cur, err := s.products.Find(ctx, bson.M{"_id": bson.M{"$in": slugs}})
	if err != nil {
		return nil, err
	}
	var rows []domain.Product
	if err := cur.All(ctx, &rows); err != nil {
		return nil, err
	}
	bySlug := make(map[string]domain.Product, len(rows))
	for _, p := range rows {
		bySlug[p.Slug] = p
	}
	out := make([]domain.Product, 0, len(rows))
	for _, slug := range slugs {
		if p, ok := bySlug[slug]; ok {
			out = append(out, p)
			delete(bySlug, slug)
		}
	}
	return out, nil
}

func (s *Store) ListCategories(ctx context.Context) ([]domain.CategorySummary, error) {
	cur, err := s.products.Aggregate(ctx, mongo.Pipeline{
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$category"},
			{Key: "count", Value: bson.M{"$sum": 1}},
		}}},
	})
	if err != nil {
		return nil, err
	}
	var rows []domain.CategorySummary
	if err := cur.All(ctx, &rows); err != nil {
		return nil, err
	}
	return domain.MergeCategories(rows), nil
}

func categoryFilter(categorySlug string) bson.M {
	return bson.M{"_id": bson.M{"$regex": "^" + regexp.QuoteMeta(categorySlug) + "/"}}
}

func (s *Store) ListByCategory(ctx context.Context, categorySlug string, offset, limit int) ([]domain.Product, int64, error) {
	filter := categoryFilter(categorySlug)
	total, err := s.products.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	cur, err := s.products.Find(ctx, filter, options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: 1}}).
		SetSkip(int64(offset)).
		SetLimit(int64(limit)).
		SetProjection(bson.M{"embedding": 0}))
	if err != nil {
		return nil, 0, err
	}
	out := []domain.Product{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// CategoryStats returns the product count of a category and its latest
// updatedAt; maxUpdatedAt is nil for an empty category.
func (s *Store) CategoryStats(ctx context.Context, categorySlug string) (int64, *time.Time, error) {
	filter := categoryFilter(categorySlug)
	count, err := s.products.CountDocuments(ctx, filter)
	if err != nil || count == 0 {
		return 0, nil, err
	}
	var row struct {
		UpdatedAt time.Time `bson:"updatedAt"`
	}
	err = s.products.FindOne(ctx, filter, options.FindOne().
		SetSort(bson.D{{Key: "updatedAt", Value: -1}}).
		SetProjection(bson.M{"updatedAt": 1})).Decode(&row)
	if err != nil {
		return 0, nil, err
	}
	return count, &row.UpdatedAt, nil
}
