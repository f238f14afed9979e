package domain

import "sort"

// MergeCategories folds per-display-name counts into one summary per category
// slug. The display name with the most products wins; results are sorted by
// slug. Entries whose name slugifies to "" are dropped.
func MergeCategories(rows []CategorySummary) []CategorySummary {
	type acc struct {
		best      string
		bestCount int64
		total     int64
	}
	byslug := make(map[string]*acc, len(rows))
	for _, r := range rows {
		s := Slugify(r.Name)
		if s == "" {
			continue
		}
		a, ok := byslug[s]
		if !ok {
			a = &acc{}
			byslug[s] = a
		}
		a.total += r.Count
		if r.Count > a.bestCount || (r.Count == a.bestCount && r.Name < a.best) || a.best == "" {
			a.best, a.bestCount = r.Name, r.Count
		}
	}
	out := make([]CategorySummary, 0, len(byslug))
	for s, a := range byslug {
		out = append(out, CategorySummary{Name: a.best, Slug: s, Count: a.total})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Slug < out[j].Slug })
	return out
}
