package search

import (
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"
)

// fallbackLimit bounds the no-substring-match fallback so a hopeless
// query still yields a short suggestion list instead of nothing.
const fallbackLimit = 5

// Candidate is one ranked match for a query.
type Candidate struct {
	ID    uint
	Title string
	Score float64
}

// FindMatches ranks index entries against a free-text query, best
// first. Entries whose title contains any whitespace-delimited query
// word as a substring are scored and sorted; when no entry passes that
// filter, the whole index is ranked instead and the top few returned,
// with fellBack reporting which path produced the result. The result
// is a pure function of its inputs: equal-score entries keep index
// order.
func FindMatches(query string, entries []Entry) (candidates []Candidate, fellBack bool) {
	words := strings.Fields(strings.ToLower(strings.TrimSpace(query)))

	var filtered []Entry
	for _, e := range entries {
		title := strings.ToLower(e.Title)
		for _, w := range words {
			if strings.Contains(title, w) {
				filtered = append(filtered, e)
				break
			}
		}
	}

	if len(filtered) == 0 {
		ranked := rank(query, entries)
		if len(ranked) > fallbackLimit {
			ranked = ranked[:fallbackLimit]
		}
		return ranked, true
	}
	return rank(query, filtered), false
}

func rank(query string, entries []Entry) []Candidate {
	candidates := make([]Candidate, 0, len(entries))
	for _, e := range entries {
		candidates = append(candidates, Candidate{
			ID:    e.ID,
			Title: e.Title,
			Score: Score(query, e.Title),
		})
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		// A title equal to the raw query outranks everything,
		// including case-insensitive twins with the same score.
		iExact := candidates[i].Title == query
		jExact := candidates[j].Title == query
		if iExact != jExact {
			return iExact
		}
		return candidates[i].Score > candidates[j].Score
	})
	return candidates
}

// Score is a weighted composite similarity in [0, 100]: the best of
// the whole-string ratio and the order-insensitive token-sort and
// token-set ratios, the token variants slightly discounted so a full
// literal match stays on top. Case-insensitive.
func Score(a, b string) float64 {
	a = strings.ToLower(strings.TrimSpace(a))
	b = strings.ToLower(strings.TrimSpace(b))
	if a == b {
		return 100
	}

	score := ratio(a, b)
	if s := 0.95 * tokenSortRatio(a, b); s > score {
		score = s
	}
	if s := 0.95 * tokenSetRatio(a, b); s > score {
		score = s
	}
	return score
}

// ratio is an edit-distance similarity: identical strings score 100,
// completely disjoint equal-length ones 0.
func ratio(a, b string) float64 {
	longest := len([]rune(a))
	if l := len([]rune(b)); l > longest {
		longest = l
	}
	if longest == 0 {
		return 100
	}
	dist := levenshtein.ComputeDistance(a, b)
	return 100 * (1 - float64(dist)/float64(longest))
}

// tokenSortRatio compares the strings with their tokens sorted, so
// word order stops mattering.
func tokenSortRatio(a, b string) float64 {
	return ratio(sortedTokens(a), sortedTokens(b))
}

// tokenSetRatio compares the shared token core against each full
// token set, rewarding one string being a superset of the other.
func tokenSetRatio(a, b string) float64 {
	setA := tokenSet(a)
	setB := tokenSet(b)
	if len(setA) == 0 || len(setB) == 0 {
		return 0
	}

	var common, onlyA, onlyB []string
	for tok := range setA {
		if setB[tok] {
			common = append(common, tok)
		} else {
			onlyA = append(onlyA, tok)
		}
	}
	for tok := range setB {
		if !setA[tok] {
			onlyB = append(onlyB, tok)
		}
	}
	sort.Strings(common)
	sort.Strings(onlyA)
	sort.Strings(onlyB)

	base := strings.Join(common, " ")
	full1 := strings.TrimSpace(base + " " + strings.Join(onlyA, " "))
	full2 := strings.TrimSpace(base + " " + strings.Join(onlyB, " "))

	best := ratio(base, full1)
	if s := ratio(base, full2); s > best {
		best = s
	}
	if s := ratio(full1, full2); s > best {
		best = s
	}
	return best
}

func sortedTokens(s string) string {
	tokens := strings.Fields(s)
	sort.Strings(tokens)
	return strings.Join(tokens, " ")
}

func tokenSet(s string) map[string]bool {
	set := make(map[string]bool)
	for _, tok := range strings.Fields(s) {
		set[tok] = true
	}
	return set
}
