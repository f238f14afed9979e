package repo

import (
	"context"
	"errors"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-review-backend/internal/domain"
)

func seedProduct(t *testing.T, db *gorm.DB, name, category string, embedding []float64) *domain.Product {
	t.Helper()
	at := time.Now().UTC().Add(-48 * time.Hour).Truncate(time.Millisecond)
	p := &domain.Product{
		Slug:          domain.ProductKey(name, category),
		Name:          name,
		Category:      category,
		ReviewHistory: []domain.ReviewVersion{{Summary: "v1", Rating: 4, GeneratedAt: at}},
		Images:        []string{"https://img.example/" + domain.Slugify(name) + ".jpg"},
		Embedding:     embedding,
		LastReviewAt:  at,
	}
	created, err := InsertProductIfAbsent(context.Background(), db, p)
	if err != nil || !created {
		t.Fatalf("seed %s: created=%v err=%v", p.Slug, created, err)
	}
	return p
}

func TestFindProduct_NotFound(t *testing.T) {
	db := newTestDB(t, &domain.Product{})
	_, err := FindProduct(context.Background(), db, "shoes/none")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestInsertProductIfAbsent_DuplicateIsNotAnError(t *testing.T) {
	db := newTestDB(t, &domain.Product{})
	p := seedProduct(t, db, "New Balance 574", "Shoes", []float64{1, 0})

	dup := *p
	dup.Name = "Impostor"
	created, err := InsertProductIfAbsent(context.Background(), db, &dup)
	if err != nil {
		t.Fatalf("duplicate insert should not error: %v", err)
	}
	if created {
		t.Fatalf("duplicate insert must report created=false")
	}

	got, err := FindProduct(context.Background(), db, p.Slug)
	if err != nil {
		t.Fatalf("FindProduct: %v", err)
	}
	if got.Name != "New Balance 574" {
		t.Fatalf("original row was overwritten: %+v", got)
	}
	var n int64
	db.Model(&domain.Product{}).Count(&n)
	if n != 1 {
		t.Fatalf("expected exactly one row, got %d", n)
	}
}

func TestInsertProductIfAbsent_ErrorNoTable(t *testing.T) {
	db := newTestDB(t /* no migrations */)
	_, err := InsertProductIfAbsent(context.Background(), db, &domain.Product{Slug: "a/b"})
	if err == nil {
		t.Fatalf("expected error without table")
	}
}

func TestUpdateProductImages(t *testing.T) {
	db := newTestDB(t, &domain.Product{})
	p := seedProduct(t, db, "Glow Leash", "Pets", nil)

	if err := UpdateProductImages(context.Background(), db, p.Slug, []string{"u1", "u2"}, "glow leash photo"); err != nil {
		t.Fatalf("UpdateProductImages: %v", err)
	}
	got, _ := FindProduct(context.Background(), db, p.Slug)
	if len(got.Images) != 2 || got.Images[0] != "u1" || got.LastImageSearchQuery != "glow leash photo" {
		t.Fatalf("images not updated: %+v", got)
	}

	// nil persists as an empty list
	if err := UpdateProductImages(context.Background(), db, p.Slug, nil, "q2"); err != nil {
		t.Fatalf("UpdateProductImages(nil): %v", err)
	}
	got, _ = FindProduct(context.Background(), db, p.Slug)
	if got.Images == nil || len(got.Images) != 0 {
		t.Fatalf("expected empty images, got %#v", got.Images)
	}

	if err := UpdateProductImages(context.Background(), db, "pets/missing", []string{"x"}, "q"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestAppendReviewVersion_ConditionalOnTail(t *testing.T) {
	db := newTestDB(t, &domain.Product{})
	p := seedProduct(t, db, "Glow Leash", "Pets", nil)
	ctx := context.Background()

	cur, _ := FindProduct(ctx, db, p.Slug)
	prev := cur.LastReviewAt
	v2 := domain.ReviewVersion{Summary: "v2", ImageSearchQuery: "leash v2", GeneratedAt: time.Now().UTC().Truncate(time.Millisecond)}
	if err := AppendReviewVersion(ctx, db, p.Slug, v2, prev); err != nil {
		t.Fatalf("AppendReviewVersion: %v", err)
	}

	got, _ := FindProduct(ctx, db, p.Slug)
	if len(got.ReviewHistory) != 2 {
		t.Fatalf("expected 2 versions, got %d", len(got.ReviewHistory))
	}
	if tail, _ := got.CurrentReview(); tail.Summary != "v2" {
		t.Fatalf("tail should be v2, got %+v", tail)
	}
	if !got.LastReviewAt.Equal(v2.GeneratedAt) {
		t.Fatalf("tail metadata not updated: %+v", got)
	}
	if got.LastImageSearchQuery != cur.LastImageSearchQuery {
		t.Fatalf("append must not touch the image query: %q", got.LastImageSearchQuery)
	}

	// A second writer holding the old tail loses.
	v3 := domain.ReviewVersion{Summary: "v3", GeneratedAt: time.Now().UTC()}
	if err := AppendReviewVersion(ctx, db, p.Slug, v3, prev); !errors.Is(err, domain.ErrStaleWrite) {
		t.Fatalf("expected ErrStaleWrite, got %v", err)
	}
	got, _ = FindProduct(ctx, db, p.Slug)
	if len(got.ReviewHistory) != 2 {
		t.Fatalf("stale append must not mutate history, got %d versions", len(got.ReviewHistory))
	}

	if err := AppendReviewVersion(ctx, db, "pets/missing", v3, prev); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestIncrementVote_Arithmetic(t *testing.T) {
	db := newTestDB(t, &domain.Product{})
	p := seedProduct(t, db, "New Balance 574", "Shoes", nil)
	ctx := context.Background()

	for _, step := range []struct {
		dir  domain.VoteDirection
		want int
	}{
		{domain.VoteUp, 1},
		{domain.VoteUp, 2},
		{domain.VoteDown, 1},
	} {
		score, err := IncrementVote(ctx, db, p.Slug, step.dir)
		if err != nil {
			t.Fatalf("IncrementVote(%s): %v", step.dir, err)
		}
		if score != step.want {
			t.Fatalf("after %s: score=%d want %d", step.dir, score, step.want)
		}
	}

	got, _ := FindProduct(ctx, db, p.Slug)
	if got.Upvotes != 2 || got.Downvotes != 1 || got.VerificationScore != got.Upvotes-got.Downvotes {
		t.Fatalf("counters inconsistent: %+v", got)
	}
}

func TestIncrementVote_UnknownSlugNoMutation(t *testing.T) {
	db := newTestDB(t, &domain.Product{})
	p := seedProduct(t, db, "New Balance 574", "Shoes", nil)

	if _, err := IncrementVote(context.Background(), db, "shoes/unknown", domain.VoteUp); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	got, _ := FindProduct(context.Background(), db, p.Slug)
	if got.Upvotes != 0 || got.VerificationScore != 0 {
		t.Fatalf("unrelated product mutated: %+v", got)
	}
}

func TestKeywordCandidatesAndSimilarity(t *testing.T) {
	db := newTestDB(t, &domain.Product{})
	ctx := context.Background()
	seedProduct(t, db, "New Balance 574", "Shoes", []float64{1, 0, 0})
	seedProduct(t, db, "New Balance 990", "Shoes", []float64{0.6, 0.8, 0})
	seedProduct(t, db, "Glow Leash", "Pets", []float64{0, 0, 1})

	got, err := KeywordCandidates(ctx, db, "new balance", 10)
	if err != nil {
		t.Fatalf("KeywordCandidates: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 candidates, got %v", got)
	}
	for _, s := range got {
		if s == "pets/glow-leash" {
			t.Fatalf("unrelated product matched: %v", got)
		}
	}

	none, err := KeywordCandidates(ctx, db, "glow-in-the-dark dog collar zeppelin", 10)
	if err != nil {
		t.Fatalf("KeywordCandidates: %v", err)
	}
	// "glow" matches the leash; nothing else should.
	if len(none) != 1 || none[0] != "pets/glow-leash" {
		t.Fatalf("unexpected candidates: %v", none)
	}

	seedProduct(t, db, "Café Grinder", "Kitchen", []float64{0, 1, 0})
	for _, q := range []string{"cafe grinder", "CAFÉ", "café"} {
		got, err := KeywordCandidates(ctx, db, q, 10)
		if err != nil {
			t.Fatalf("KeywordCandidates(%q): %v", q, err)
		}
		if len(got) != 1 || got[0] != "kitchen/cafe-grinder" {
			t.Fatalf("KeywordCandidates(%q) = %v", q, got)
		}
	}

	empty, err := KeywordCandidates(ctx, db, "the and", 10)
	if err != nil || len(empty) != 0 {
		t.Fatalf("stopword-only query: got %v err=%v", empty, err)
	}

	ranked, err := RankBySimilarity(ctx, db, []float64{1, 0, 0}, got, 5)
	if err != nil {
		t.Fatalf("RankBySimilarity: %v", err)
	}
	if len(ranked) != 2 || ranked[0].Product.Slug != "shoes/new-balance-574" {
		t.Fatalf("unexpected ranking: %+v", ranked)
	}
	if ranked[0].Score < ranked[1].Score {
		t.Fatalf("scores must be descending: %+v", ranked)
	}
}

func TestFindProducts_PreservesOrder(t *testing.T) {
	db := newTestDB(t, &domain.Product{})
	ctx := context.Background()
	a := seedProduct(t, db, "A", "Cat", nil)
	b := seedProduct(t, db, "B", "Cat", nil)

	got, err := FindProducts(ctx, db, []string{b.Slug, "cat/missing", a.Slug, b.Slug})
	if err != nil {
		t.Fatalf("FindProducts: %v", err)
	}
	if len(got) != 2 || got[0].Slug != b.Slug || got[1].Slug != a.Slug {
		t.Fatalf("unexpected order: %+v", got)
	}
}

func TestListCategoriesAndByCategory(t *testing.T) {
	db := newTestDB(t, &domain.Product{})
	ctx := context.Background()
	seedProduct(t, db, "New Balance 574", "Shoes", nil)
	seedProduct(t, db, "New Balance 990", "Shoes", nil)
	seedProduct(t, db, "Glow Leash", "Pets", nil)

	cats, err := ListCategories(ctx, db)
	if err != nil {
		t.Fatalf("ListCategories: %v", err)
	}
	if len(cats) != 2 || cats[0].Slug != "pets" || cats[1].Slug != "shoes" || cats[1].Count != 2 {
		t.Fatalf("unexpected categories: %+v", cats)
	}

	page, total, err := ListProductsByCategory(ctx, db, "shoes", 0, 1)
	if err != nil {
		t.Fatalf("ListProductsByCategory: %v", err)
	}
	if total != 2 || len(page) != 1 {
		t.Fatalf("expected total=2 and 1 item, got total=%d items=%d", total, len(page))
	}
	page2, _, _ := ListProductsByCategory(ctx, db, "shoes", 1, 1)
	if len(page2) != 1 || page2[0].Slug == page[0].Slug {
		t.Fatalf("second page should hold the other product: %+v", page2)
	}
}
