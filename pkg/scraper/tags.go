package scraper

import (
	"sort"
	"strings"
)

// NormalizeTags lowercases and trims tags and puts them in a
// deterministic order: plain tags first, negated and meta tags
// (-tag, key:value) after, each group sorted lexicographically. The same
// tag set always produces the same query string and therefore the same
// download directory.
func NormalizeTags(tags []string) []string {
	normalized := make([]string, 0, len(tags))
	for _, t := range tags {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" {
			continue
		}
		normalized = append(normalized, t)
	}

	sort.SliceStable(normalized, func(i, j int) bool {
		mi, mj := isMetaTag(normalized[i]), isMetaTag(normalized[j])
		if mi != mj {
			return !mi
		}
		return normalized[i] < normalized[j]
	})

	return normalized
}

// isMetaTag reports whether a tag is a negation or a key:value filter.
func isMetaTag(tag string) bool {
	return strings.HasPrefix(tag, "-") || strings.Contains(tag, ":")
}

// QueryString joins normalized tags into the service's query form.
func QueryString(tags []string) string {
	return strings.Join(NormalizeTags(tags), " ")
}
