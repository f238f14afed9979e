package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/tbourn/go-review-backend/internal/domain"
)

func brainstormText(raw string, err error) *fakeText {
	return &fakeText{fn: func(string) (string, error) { return raw, err }}
}

func newSuggestSvc(cat *fakeCatalog, text *fakeText) (*SuggestService, *fakeSearcher) {
	primary := &fakeSearcher{urls: []string{"https://img/new.jpg"}}
	return &SuggestService{
		Catalog:    cat,
		Text:       text,
		Embedder:   &fakeEmbedder{vec: []float64{1, 0}},
		Images:     &ImageService{Catalog: cat, Primary: primary, Cache: &memCache{}},
		ImageDelay: time.Millisecond,
	}, primary
}

func shoeCatalog() *fakeCatalog {
	at := time.Now().UTC().Add(-time.Hour)
	return newFakeCatalog(
		seeded("New Balance 574", "Shoes", at, []float64{1, 0}),
		seeded("New Balance 990", "Shoes", at, []float64{0.6, 0.8}),
		seeded("Glow Collar", "Pets", at, []float64{0, 1}),
	)
}

func TestSuggest_ExistingMatchRankedAndMerged(t *testing.T) {
	text := brainstormText(`{"products": [
		{"name": "New Balance 574", "category": "Shoes"},
		{"name": "New Balance Fresh Foam", "category": "Shoes"},
		{"name": "new balance fresh-foam", "category": "shoes"},
		{"name": "", "category": "Shoes"}
	]}`, nil)
	svc, _ := newSuggestSvc(shoeCatalog(), text)

	res, err := svc.Interpret(context.Background(), "new balance")
	if err != nil {
		t.Fatalf("Interpret: %v", err)
	}
	if res.QueryType != QueryTypeHybrid {
		t.Fatalf("queryType = %q", res.QueryType)
	}
	got := res.Suggestions
	if len(got) != 3 {
		t.Fatalf("expected 2 existing + 1 new, got %+v", got)
	}
	if got[0].Slug != "shoes/new-balance-574" || !got[0].Exists || got[0].Score == nil {
		t.Fatalf("first suggestion should be the best-scored existing product: %+v", got[0])
	}
	if *got[0].Score < *got[1].Score {
		t.Fatalf("existing matches must be ordered by descending score")
	}
	if got[0].ImageURL != "https://img/new-balance-574.jpg" {
		t.Fatalf("existing match should carry its first image, got %q", got[0].ImageURL)
	}
	nw := got[2]
	if nw.Exists || nw.Score != nil || nw.Slug != "shoes/new-balance-fresh-foam" || nw.ImageURL == "" {
		t.Fatalf("unexpected new suggestion: %+v", nw)
	}

	seen := map[string]bool{}
	for _, s := range got {
		if seen[s.Slug] {
			t.Fatalf("duplicate slug %q in %+v", s.Slug, got)
		}
		seen[s.Slug] = true
	}
}

func TestSuggest_NovelQueryReturnsOnlyBrainstormed(t *testing.T) {
	text := brainstormText(`[{"name": "Lumi Leash Pro", "category": "Pet Supplies"}, {"name": "NiteDog Glow Lead", "category": "Pet Supplies"}]`, nil)
	svc, _ := newSuggestSvc(newFakeCatalog(), text)

	res, err := svc.Interpret(context.Background(), "glow-in-the-dark dog leash")
	if err != nil {
		t.Fatalf("Interpret: %v", err)
	}
	if len(res.Suggestions) != 2 {
		t.Fatalf("expected 2 suggestions, got %+v", res.Suggestions)
	}
	for _, s := range res.Suggestions {
		if s.Exists {
			t.Fatalf("no existing products expected: %+v", s)
		}
		if !domain.ValidProductKey(s.Slug) || !strings.HasPrefix(s.Slug, "pet-supplies/") {
			t.Fatalf("invalid derived slug %q", s.Slug)
		}
	}
}

func TestSuggest_BrainstormFailureStillSucceeds(t *testing.T) {
	for name, text := range map[string]*fakeText{
		"provider error": brainstormText("", errors.New("quota")),
		"garbage":        brainstormText("sorry, no JSON today", nil),
	} {
		svc, _ := newSuggestSvc(shoeCatalog(), text)
		res, err := svc.Interpret(context.Background(), "new balance")
		if err != nil {
			t.Fatalf("%s: brainstorm failure must not fail the request: %v", name, err)
		}
		for _, s := range res.Suggestions {
			if !s.Exists {
				t.Fatalf("%s: only existing matches expected, got %+v", name, s)
			}
		}
		if len(res.Suggestions) != 2 {
			t.Fatalf("%s: expected both existing matches, got %d", name, len(res.Suggestions))
		}
	}
}

func TestSuggest_SimilarityFailureFallsBackUnscored(t *testing.T) {
	cat := shoeCatalog()
	cat.rankErr = errors.New("vector index missing")
	svc, _ := newSuggestSvc(cat, brainstormText("[]", nil))

	res, err := svc.Interpret(context.Background(), "new balance")
	if err != nil {
		t.Fatalf("Interpret: %v", err)
	}
	if len(res.Suggestions) != 2 {
		t.Fatalf("expected keyword matches, got %+v", res.Suggestions)
	}
	for _, s := range res.Suggestions {
		if !s.Exists || s.Score != nil {
			t.Fatalf("fallback matches must be unscored: %+v", s)
		}
	}

	svc.Embedder = &fakeEmbedder{err: errors.New("embed down")}
	cat.rankErr = nil
	res, err = svc.Interpret(context.Background(), "new balance")
	if err != nil || len(res.Suggestions) != 2 || res.Suggestions[0].Score != nil {
		t.Fatalf("embedding failure should also fall back unscored: %+v %v", res, err)
	}
}

func TestSuggest_StoreFailureIsFatal(t *testing.T) {
	cat := shoeCatalog()
	cat.keywordErr = errors.New("db down")
	svc, _ := newSuggestSvc(cat, brainstormText("[]", nil))
	if _, err := svc.Interpret(context.Background(), "new balance"); err == nil {
		t.Fatalf("expected store failure to propagate")
	}
	if _, err := svc.Interpret(context.Background(), "  "); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestSuggest_MaxNewClampAndSpacing(t *testing.T) {
	var b strings.Builder
	b.WriteString(`{"products": [`)
	for i := 0; i < 12; i++ {
		if i > 0 {
			b.WriteString(",")
		}
		b.WriteString(`{"name": "Widget ` + string(rune('A'+i)) + `", "category": "Gadgets"}`)
	}
	b.WriteString(`]}`)

	svc, primary := newSuggestSvc(newFakeCatalog(), brainstormText(b.String(), nil))
	svc.MaxNew = 20
	svc.ImageDelay = 10 * time.Millisecond

	start := time.Now()
	res, err := svc.Interpret(context.Background(), "widgets")
	if err != nil {
		t.Fatalf("Interpret: %v", err)
	}
	if len(res.Suggestions) != maxMaxNew {
		t.Fatalf("expected %d suggestions, got %d", maxMaxNew, len(res.Suggestions))
	}
	if len(primary.queries) != maxMaxNew {
		t.Fatalf("expected one image lookup per new suggestion, got %d", len(primary.queries))
	}
	// burst of one: n lookups need at least (n-1) delays
	if elapsed := time.Since(start); elapsed < time.Duration(maxMaxNew-1)*10*time.Millisecond {
		t.Fatalf("image lookups were not spaced: %v", elapsed)
	}

	svc.MaxNew = 1
	if svc.maxNew() != minMaxNew {
		t.Fatalf("maxNew should clamp to %d, got %d", minMaxNew, svc.maxNew())
	}
}

func TestSuggest_CancelStopsImageLoop(t *testing.T) {
	svc, _ := newSuggestSvc(newFakeCatalog(), brainstormText(`[{"name":"A1","category":"C"},{"name":"B2","category":"C"}]`, nil))
	svc.ImageDelay = time.Hour

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if _, err := svc.Interpret(ctx, "anything"); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline error, got %v", err)
	}
}
