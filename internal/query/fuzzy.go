package query

import "sort"

// maxAliasEdits is how many edits a hyphenated dimension word may be from a known alias
// and still resolve to it. Words shorter than minFuzzyLen must match exactly.
const (
	maxAliasEdits = 1
	minFuzzyLen   = 5
)

var sortedAliases = func() []string {
	out := make([]string, 0, len(dimensionAliases))
	for a := range dimensionAliases {
		out = append(out, a)
	}
	sort.Strings(out)
	return out
}()

// nearestAlias returns the dimension of the closest alias to word, if one is within maxAliasEdits.
// Ties go to the alphabetically first alias.
func nearestAlias(word string) (string, bool) {
	if len([]rune(word)) < minFuzzyLen {
		return "", false
	}
	best, bestDist := "", maxAliasEdits+1
	for _, alias := range sortedAliases {
		if abs(len(alias)-len(word)) > maxAliasEdits {
			continue
		}
		if d := editDistance(word, alias); d < bestDist {
			best, bestDist = alias, d
		}
	}
	if best == "" {
		return "", false
	}
	return dimensionAliases[best], true
}

// editDistance is the Damerau-Levenshtein distance (optimal string alignment) between a and b,
// counting an adjacent transposition as one edit.
func editDistance(a, b string) int {
	if a == b {
		return 0
	}
	ra, rb := []rune(a), []rune(b)
	if len(ra) == 0 {
		return len(rb)
	}
	if len(rb) == 0 {
		return len(ra)
	}

	d := make([][]int, len(ra)+1)
	for i := range d {
		d[i] = make([]int, len(rb)+1)
		d[i][0] = i
	}
	for j := 0; j <= len(rb); j++ {
		d[0][j] = j
	}
	for i := 1; i <= len(ra); i++ {
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			d[i][j] = min(d[i-1][j]+1, d[i][j-1]+1, d[i-1][j-1]+cost)
			if i > 1 && j > 1 && ra[i-1] == rb[j-2] && ra[i-2] == rb[j-1] {
				d[i][j] = min(d[i][j], d[i-2][j-2]+cost)
			}
		}
	}
	return d[len(ra)][len(rb)]
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
