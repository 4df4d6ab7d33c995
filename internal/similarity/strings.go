package similarity

import (
	"sort"
	"strings"
)

// StringRatio scores how alike two strings are on a [0,1] scale. The
// default is edit-distance based; callers may plug in something smarter.
type StringRatio interface {
	Ratio(a, b string) float64
}

// EditDistance is the default StringRatio, built on Levenshtein distance
// over runes.
type EditDistance struct{}

func (EditDistance) Ratio(a, b string) float64 {
	if a == b {
		return 1.0
	}
	ra, rb := []rune(a), []rune(b)
	longest := len(ra)
	if len(rb) > longest {
		longest = len(rb)
	}
	if longest == 0 {
		return 1.0
	}
	return 1.0 - float64(levenshtein(ra, rb))/float64(longest)
}

func levenshtein(a, b []rune) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}
	prev := make([]int, len(b)+1)
	cur := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(a); i++ {
		cur[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			cur[j] = min3(cur[j-1]+1, prev[j]+1, prev[j-1]+cost)
		}
		prev, cur = cur, prev
	}
	return prev[len(b)]
}

func min3(a, b, c int) int {
	if b < a {
		a = b
	}
	if c < a {
		a = c
	}
	return a
}

// partialRatio slides the shorter string across the longer one and keeps
// the best window score.
func partialRatio(r StringRatio, a, b string) float64 {
	ra, rb := []rune(a), []rune(b)
	if len(ra) > len(rb) {
		ra, rb = rb, ra
	}
	if len(ra) == 0 {
		return 0.0
	}
	if len(ra) == len(rb) {
		return r.Ratio(string(ra), string(rb))
	}
	best := 0.0
	for i := 0; i+len(ra) <= len(rb); i++ {
		score := r.Ratio(string(ra), string(rb[i:i+len(ra)]))
		if score > best {
			best = score
		}
		if best == 1.0 {
			break
		}
	}
	return best
}

// tokenSortRatio compares the strings with their tokens in sorted order.
func tokenSortRatio(r StringRatio, a, b string) float64 {
	return r.Ratio(sortedTokens(a), sortedTokens(b))
}

// tokenSetRatio compares the token intersection against each side's
// remainder, so shared words dominate word order and extras.
func tokenSetRatio(r StringRatio, a, b string) float64 {
	ta, tb := tokenSet(a), tokenSet(b)
	if len(ta) == 0 || len(tb) == 0 {
		return 0.0
	}
	var common, onlyA, onlyB []string
	for tok := range ta {
		if _, ok := tb[tok]; ok {
			common = append(common, tok)
		} else {
			onlyA = append(onlyA, tok)
		}
	}
	for tok := range tb {
		if _, ok := ta[tok]; !ok {
			onlyB = append(onlyB, tok)
		}
	}
	sort.Strings(common)
	sort.Strings(onlyA)
	sort.Strings(onlyB)

	base := strings.Join(common, " ")
	left := strings.TrimSpace(base + " " + strings.Join(onlyA, " "))
	right := strings.TrimSpace(base + " " + strings.Join(onlyB, " "))

	best := r.Ratio(base, left)
	if s := r.Ratio(base, right); s > best {
		best = s
	}
	if s := r.Ratio(left, right); s > best {
		best = s
	}
	return best
}

// charJaccard measures overlap between the rune sets of the two strings.
// Japanese titles rarely share token boundaries, so character overlap is
// often the strongest available signal.
func charJaccard(a, b string) float64 {
	sa, sb := runeSet(a), runeSet(b)
	if len(sa) == 0 || len(sb) == 0 {
		return 0.0
	}
	inter := 0
	for r := range sa {
		if _, ok := sb[r]; ok {
			inter++
		}
	}
	union := len(sa) + len(sb) - inter
	return float64(inter) / float64(union)
}

func sortedTokens(s string) string {
	toks := strings.Fields(s)
	sort.Strings(toks)
	return strings.Join(toks, " ")
}

func tokenSet(s string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, tok := range strings.Fields(s) {
		set[tok] = struct{}{}
	}
	return set
}

func runeSet(s string) map[rune]struct{} {
	set := make(map[rune]struct{})
	for _, r := range s {
		if r == ' ' || r == '　' {
			continue
		}
		set[r] = struct{}{}
	}
	return set
}
