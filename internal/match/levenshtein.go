package match

import (
	"cmp"
	"slices"
)

// Levenshtein computes the Levenshtein distance (edit distance) between two strings.
// The distance is the minimum number of single-rune edits (insertions, deletions,
// or substitutions) required to transform one string into the other.
func Levenshtein(a, b string) int {
	if a == b {
		return 0
	}

	ra, rb := []rune(a), []rune(b)
	if len(ra) > len(rb) {
		ra, rb = rb, ra
	}

	if len(ra) == 0 {
		return len(rb)
	}

	// two rows over the shorter string
	prev := make([]int, len(ra)+1)
	curr := make([]int, len(ra)+1)

	for i := range prev {
		prev[i] = i
	}

	for j := 1; j <= len(rb); j++ {
		curr[0] = j

		for i := 1; i <= len(ra); i++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}

			curr[i] = min(prev[i]+1, curr[i-1]+1, prev[i-1]+cost)
		}

		prev, curr = curr, prev
	}

	return prev[len(ra)]
}

// MaxSuggestions bounds the result of Suggest.
const MaxSuggestions = 3

// Suggest returns up to MaxSuggestions candidates whose normalized form is
// within a third of the normalized name's length (at least 2 edits) of it,
// closest first. Ties keep candidate order; repeated candidates are
// reported once.
func Suggest(name string, candidates []string) []string {
	norm := Normalize(name)
	limit := max(2, len([]rune(norm))/3)

	type scored struct {
		name string
		dist int
	}

	var found []scored

	seen := make(map[string]bool, len(candidates))

	for _, c := range candidates {
		if seen[c] {
			continue
		}

		seen[c] = true

		if d := Levenshtein(norm, Normalize(c)); d <= limit {
			found = append(found, scored{c, d})
		}
	}

	slices.SortStableFunc(found, func(x, y scored) int {
		return cmp.Compare(x.dist, y.dist)
	})

	out := make([]string, 0, min(len(found), MaxSuggestions))
	for _, s := range found {
		if len(out) == MaxSuggestions {
			break
		}

		out = append(out, s.name)
	}

	return out
}
