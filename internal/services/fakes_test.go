package services

import (
	"context"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/tbourn/go-review-backend/internal/domain"
	"github.com/tbourn/go-review-backend/internal/search"
)

// ----- Fake catalog -----

type fakeCatalog struct {
	mu       sync.Mutex
	products map[string]*domain.Product

	keywordErr error
	rankErr    error
	appendErr  error

	inserts int32
}

func newFakeCatalog(ps ...*domain.Product) *fakeCatalog {
	c := &fakeCatalog{products: map[string]*domain.Product{}}
	for _, p := range ps {
		c.products[p.Slug] = p
	}
	return c
}

func clone(p *domain.Product) *domain.Product {
	cp := *p
	cp.ReviewHistory = append([]domain.ReviewVersion(nil), p.ReviewHistory...)
	cp.Images = append([]string(nil), p.Images...)
	return &cp
}

func (c *fakeCatalog) get(slug string) *domain.Product {
	c.mu.Lock()
	defer c.mu.Unlock()
	if p, ok := c.products[slug]; ok {
		return clone(p)
	}
	return nil
}

func (c *fakeCatalog) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.products)
}

func (c *fakeCatalog) FindBySlug(_ context.Context, slug string) (*domain.Product, error) {
	if p := c.get(slug); p != nil {
		return p, nil
	}
	return nil, domain.ErrNotFound
}

func (c *fakeCatalog) InsertIfAbsent(_ context.Context, p *domain.Product) (bool, error) {
	atomic.AddInt32(&c.inserts, 1)
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.products[p.Slug]; ok {
		return false, nil
	}
	c.products[p.Slug] = clone(p)
	return true, nil
}

func (c *fakeCatalog) UpdateImages(_ context.Context, slug string, images []string, query string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, ok := c.products[slug]
	if !ok {
		return domain.ErrNotFound
	}
	p.Images = append([]string{}, images...)
	p.LastImageSearchQuery = query
	return nil
}

func (c *fakeCatalog) AppendReviewVersion(_ context.Context, slug string, v domain.ReviewVersion, prev time.Time) error {
	if c.appendErr != nil {
		return c.appendErr
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	p, ok := c.products[slug]
	if !ok {
		return domain.ErrNotFound
	}
	if !p.LastReviewAt.Equal(prev) {
		return domain.ErrStaleWrite
	}
	p.ReviewHistory = append(p.ReviewHistory, v)
	p.LastReviewAt = v.GeneratedAt
	return nil
}

func (c *fakeCatalog) IncrementVote(_ context.Context, slug string, dir domain.VoteDirection) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, ok := c.products[slug]
	if !ok {
		return 0, domain.ErrNotFound
	}
	if dir == domain.VoteUp {
		p.Upvotes++
	} else {
		p.Downvotes++
	}
	p.VerificationScore += dir.ScoreDelta()
	return p.VerificationScore, nil
}

func (c *fakeCatalog) KeywordCandidates(_ context.Context, query string, limit int) ([]string, error) {
	if c.keywordErr != nil {
		return nil, c.keywordErr
	}
	tokens := search.Tokens(query, search.DefaultStopwords)
	c.mu.Lock()
	defer c.mu.Unlock()
	out := []string{}
	for slug, p := range c.products {
		text := strings.ToLower(p.Name + " " + p.Category)
		for _, tok := range tokens {
			if strings.Contains(text, tok) {
				out = append(out, slug)
				break
			}
		}
	}
	sort.Strings(out)
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (c *fakeCatalog) RankBySimilarity(_ context.Context, vector []float64, slugs []string, k int) ([]domain.ScoredProduct, error) {
	if c.rankErr != nil {
		return nil, c.rankErr
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	vecs := make([]search.Vector, 0, len(slugs))
	for _, s := range slugs {
		if p, ok := c.products[s]; ok {
			vecs = append(vecs, search.Vector{ID: s, Values: p.Embedding})
		}
	}
	out := []domain.ScoredProduct{}
	for _, r := range search.TopKBySimilarity(vector, vecs, k) {
		out = append(out, domain.ScoredProduct{Product: *clone(c.products[r.ID]), Score: r.Score})
	}
	return out, nil
}

func (c *fakeCatalog) FindBySlugs(_ context.Context, slugs []string) ([]domain.Product, error) {
	out := []domain.Product{}
	for _, s := range slugs {
		if p := c.get(s); p != nil {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (c *fakeCatalog) ListCategories(context.Context) ([]domain.CategorySummary, error) {
	c.mu.Lock()
	rows := map[string]int64{}
	for _, p := range c.products {
		rows[p.Category]++
	}
	c.mu.Unlock()
	out := make([]domain.CategorySummary, 0, len(rows))
	for name, n := range rows {
		out = append(out, domain.CategorySummary{Name: name, Count: n})
	}
	return domain.MergeCategories(out), nil
}

func (c *fakeCatalog) ListByCategory(_ context.Context, categorySlug string, offset, limit int) ([]domain.Product, int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	var all []domain.Product
	for slug, p := range c.products {
		if strings.HasPrefix(slug, categorySlug+"/") {
			all = append(all, *clone(p))
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Slug < all[j].Slug })
	total := int64(len(all))
	if offset >= len(all) {
		return []domain.Product{}, total, nil
	}
	end := min(offset+limit, len(all))
	return all[offset:end], total, nil
}

func (c *fakeCatalog) CategoryStats(context.Context, string) (int64, *time.Time, error) {
	return 0, nil, nil
}

// ----- Fake providers -----

type fakeText struct {
	calls int32
	fn    func(prompt string) (string, error)
}

func (f *fakeText) Generate(_ context.Context, prompt string) (string, error) {
	atomic.AddInt32(&f.calls, 1)
	return f.fn(prompt)
}

type fakeEmbedder struct {
	vec []float64
	err error
}

func (f *fakeEmbedder) Embed(context.Context, string) ([]float64, error) { return f.vec, f.err }

type fakeSearcher struct {
	mu      sync.Mutex
	queries []string
	urls    []string
	err     error
}

func (f *fakeSearcher) SearchImages(_ context.Context, q string, n int) ([]string, error) {
	f.mu.Lock()
	f.queries = append(f.queries, q)
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return f.urls[:min(n, len(f.urls))], nil
}

type fakeGenerator struct {
	url string
	err error
}

func (f *fakeGenerator) GenerateImage(context.Context, string) (string, error) { return f.url, f.err }

type fakeProber struct{ ok bool }

func (f fakeProber) Reachable(context.Context, string) bool { return f.ok }

type memCache struct {
	mu sync.Mutex
	m  map[string]string
}

func (c *memCache) Get(_ context.Context, q string) (string, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	u, ok := c.m[q]
	return u, ok, nil
}

func (c *memCache) Put(_ context.Context, q, u string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.m == nil {
		c.m = map[string]string{}
	}
	c.m[q] = u
	return nil
}

// ----- Fixtures -----

const validReviewJSON = "```json\n" + `{
  "summary": "Comfortable everyday sneaker.",
  "rating": 4.25,
  "pros": ["comfort", " ", "durable"],
  "cons": ["narrow"],
  "detailedBody": "## Verdict\nGreat.",
  "callToAction": "Buy it.",
  "imageSearchQuery": "new balance 574 sneaker"
}` + "\n```"

func seeded(name, category string, at time.Time, embedding []float64) *domain.Product {
	return &domain.Product{
		Slug:          domain.ProductKey(name, category),
		Name:          name,
		Category:      category,
		ReviewHistory: []domain.ReviewVersion{{Summary: "v1", GeneratedAt: at}},
		Images:        []string{"https://img/" + domain.Slugify(name) + ".jpg"},
		Embedding:     embedding,
		LastReviewAt:  at,
	}
}
