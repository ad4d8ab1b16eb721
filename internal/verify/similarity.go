package verify

import "github.com/panchambanerjee/cite-verify-cli/internal/norm"

// TitleSimilarity returns an edit-distance-derived ratio in [0,1] between
// two titles. Both are folded (lower-cased, punctuation stripped) before
// comparison, so cosmetic differences do not count as edits. The ratio is
// symmetric and reflexive: TitleSimilarity(t, t) == 1 for any t.
func TitleSimilarity(a, b string) float64 {
	fa, fb := norm.FoldTitle(a), norm.FoldTitle(b)
	if fa == "" || fb == "" {
		return 0
	}
	if fa == fb {
		return 1
	}
	ra, rb := []rune(fa), []rune(fb)
	longest := len(ra)
	if len(rb) > longest {
		longest = len(rb)
	}
	return 1 - float64(levenshtein(ra, rb))/float64(longest)
}

// levenshtein computes the edit distance between two rune slices with a
// two-row dynamic program.
func levenshtein(a, b []rune) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j]+1, min(curr[j-1]+1, prev[j-1]+cost))
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}
