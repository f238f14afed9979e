// Package search provides the in-process ranking used by SQL-backed catalogs:
// a deterministic keyword index over product documents and cosine similarity
// over embedding vectors. Document stores delegate both to the database.
//
// The library never logs and an Index is immutable once built, so it is safe
// for concurrent use.
package search

import (
	"regexp"
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Document is one product as seen by the keyword index.
type Document struct {
	ID       string // product slug
	Name     string
	Category string
}

// Result is a ranked document with its similarity score in (0, 1].
type Result struct {
	ID    string
	Score float64
}

// Index ranks documents against a free-text query.
type Index interface {
	TopK(query string, k int) []Result
}

// DefaultStopwords are dropped from product queries before matching.
var DefaultStopwords = []string{"a", "an", "and", "the", "for", "of", "with", "in", "on", "to", "best"}

// DefaultCategoryWeight is how much a query token matching only the category
// counts relative to one matching the product name.
const DefaultCategoryWeight = 0.5

type Option func(*config)

type config struct {
	stopwords      map[string]struct{}
	maxDocs        int
	categoryWeight float64
}

func defaultConfig() config {
	return config{categoryWeight: DefaultCategoryWeight}
}

func WithStopwords(words []string) Option {
	return func(c *config) {
		if m := stopSet(words); len(m) > 0 {
			c.stopwords = m
		}
	}
}

func WithMaxDocs(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.maxDocs = n
		}
	}
}

// WithCategoryWeight sets the weight of category-only matches; w is clamped
// to [0, 1].
func WithCategoryWeight(w float64) Option {
	return func(c *config) {
		c.categoryWeight = min(max(w, 0), 1)
	}
}

type doc struct {
	id       string
	name     map[string]struct{}
	category map[string]struct{} // tokens not already in name
}

type index struct {
	cfg  config
	docs []doc
}

// NewIndex builds an Index over docs. Documents without tokens are skipped.
func NewIndex(docs []Document, opts ...Option) Index {
	cfg := defaultConfig()
	for _, o := range opts {
		o(&cfg)
	}
	out := make([]doc, 0, len(docs))
	for _, d := range docs {
		name := tokenize(d.Name, cfg.stopwords)
		cat := tokenize(d.Category, cfg.stopwords)
		for t := range name {
			delete(cat, t)
		}
		if len(name)+len(cat) == 0 {
			continue
		}
		out = append(out, doc{id: d.ID, name: name, category: cat})
		if cfg.maxDocs > 0 && len(out) >= cfg.maxDocs {
			break
		}
	}
	return &index{cfg: cfg, docs: out}
}

// TopK returns up to k (default 5) documents ranked by weighted Jaccard
// similarity:
//
//	score = (|Q∩N| + w·|Q∩C|) / |Q ∪ N ∪ C|
//
// where N are name tokens and C the remaining category tokens. Ties are
// broken by ID so results are stable across calls.
func (i *index) TopK(q string, k int) []Result {
	if len(i.docs) == 0 {
		return nil
	}
	if k <= 0 {
		k = 5
	}
	qTokens := tokenize(q, i.cfg.stopwords)
	if len(qTokens) == 0 {
		return nil
	}

	buf := make([]Result, 0, min(k*4, len(i.docs)))
	for _, d := range i.docs {
		inName := overlap(qTokens, d.name)
		inCat := overlap(qTokens, d.category)
		hit := float64(inName) + i.cfg.categoryWeight*float64(inCat)
		if hit == 0 {
			continue
		}
		union := len(qTokens) + len(d.name) + len(d.category) - inName - inCat
		buf = append(buf, Result{ID: d.id, Score: hit / float64(union)})
	}
	if len(buf) == 0 {
		return nil
	}

	sortResults(buf)
	return buf[:min(k, len(buf))]
}

// Tokens returns the distinct lowercase tokens of s in first-seen order,
// without stop words. Accents are kept; pass Fold(s) to match a column
// written with Fold.
func Tokens(s string, stopwords []string) []string {
	stop := stopSet(stopwords)
	words := wordRE.FindAllString(strings.ToLower(s), -1)
	seen := make(map[string]struct{}, len(words))
	out := make([]string, 0, len(words))
	for _, w := range words {
		if _, skip := stop[w]; skip {
			continue
		}
		if _, dup := seen[w]; dup {
			continue
		}
		seen[w] = struct{}{}
		out = append(out, w)
	}
	return out
}

var wordRE = regexp.MustCompile(`[\p{L}\p{N}]+`)

func stopSet(words []string) map[string]struct{} {
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		if w = strings.ToLower(strings.TrimSpace(w)); w != "" {
			m[w] = struct{}{}
		}
	}
	return m
}

// tokenize lowercases and accent-folds s the same way slugs are derived, so
// "Café" and "cafe" are one token. Stop words are checked after folding.
func tokenize(s string, stop map[string]struct{}) map[string]struct{} {
	words := wordRE.FindAllString(strings.ToLower(fold(s)), -1)
	if len(words) == 0 {
		return nil
	}
	out := make(map[string]struct{}, len(words))
	for _, w := range words {
		if _, skip := stop[w]; skip {
			continue
		}
		out[w] = struct{}{}
	}
	return out
}

// Fold lowercases s and strips combining marks, so "Café" becomes "cafe".
func Fold(s string) string { return strings.ToLower(fold(s)) }

func fold(s string) string {
	t := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

func overlap(a, b map[string]struct{}) int {
	if len(a) > len(b) {
		a, b = b, a
	}
	n := 0
	for k := range a {
		if _, ok := b[k]; ok {
			n++
		}
	}
	return n
}

// sortResults orders by descending score, then ascending ID.
func sortResults(rs []Result) {
	sort.SliceStable(rs, func(a, b int) bool {
		if rs[a].Score != rs[b].Score {
			return rs[a].Score > rs[b].Score
		}
		return rs[a].ID < rs[b].ID
	})
}
