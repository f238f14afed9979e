package domain

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/gosimple/slug"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var nonSlugRunRE = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify turns arbitrary text into a URL-safe identifier segment.
//
// Accents are folded to ASCII (é → e), the text is lowercased, "&" becomes
// "and", every run of characters outside [a-z0-9] becomes a single hyphen, and
// leading/trailing hyphens are trimmed. Slugify is total and idempotent:
// Slugify(Slugify(x)) == Slugify(x).
func Slugify(text string) string {
	s := strings.ToLower(foldASCII(text))
	s = strings.ReplaceAll(s, "&", "and")
	s = nonSlugRunRE.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

// ProductKey derives the canonical document key "{category}/{name}".
func ProductKey(name, category string) string {
	return Slugify(category) + "/" + Slugify(name)
}

// SplitProductKey returns the category and name segments of a key.
func SplitProductKey(key string) (category, name string, ok bool) {
	category, name, ok = strings.Cut(key, "/")
	if !ok || category == "" || name == "" || strings.Contains(name, "/") {
		return "", "", false
	}
	return category, name, true
}

// ValidProductKey reports whether key has exactly two canonical slug segments.
func ValidProductKey(key string) bool {
	category, name, ok := SplitProductKey(key)
	if !ok {
		return false
	}
	return isCanonicalSegment(category) && isCanonicalSegment(name)
}

func isCanonicalSegment(s string) bool {
	return slug.IsSlug(s) && !strings.Contains(s, "_") && Slugify(s) == s
}

// foldASCII strips combining marks after compatibility decomposition.
// Characters without an ASCII decomposition are left for Slugify to drop.
func foldASCII(s string) string {
	t := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}
