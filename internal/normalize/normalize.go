// Package normalize reduces scraped Japanese event titles and location
// names to canonical comparison keys. Normalization is deterministic and
// idempotent; the similarity engine compares only normalized forms.
package normalize

import (
	"regexp"
	"strings"
)

// Normalizer holds the compiled rule set. Rules are fixed at construction
// and never mutated, so one Normalizer is safe for concurrent use.
type Normalizer struct {
	synonyms       *strings.Replacer
	titleRules     []rule
	locationRules  []rule
	collapseSpace  *regexp.Regexp
	separatorRunes *strings.Replacer
	stopwords      map[string]struct{}
}

type rule struct {
	re   *regexp.Regexp
	repl string
}

// defaultSynonyms maps romanized event words onto their Japanese canonical
// form so cross-language listings of the same event compare equal.
var defaultSynonyms = []string{
	"tanabata", "七夕",
	"matsuri", "まつり",
	"festival", "まつり",
	"fireworks", "花火",
	"hanabi", "花火",
	"illumination", "イルミネーション",
	"marathon", "マラソン",
	"toyama", "富山",
	"takaoka", "高岡",
	"uozu", "魚津",
	"himi", "氷見",
	"kurobe", "黒部",
	"tonami", "砺波",
}

// New builds a Normalizer with the default rule set.
func New() *Normalizer {
	titlePatterns := []struct {
		pat  string
		repl string
	}{
		// Ordinal counters and year prefixes.
		{`^第\s*\d+\s*回\s*`, ""},
		{`\s*第\s*\d+\s*回$`, ""},
		{`^\d{4}\s*年?\s*`, ""},
		{`\s*\d{4}\s*年?$`, ""},
		{`^令和\s*\d+\s*年?\s*`, ""},
		{`^平成\s*\d+\s*年?\s*`, ""},
		{`^西暦\s*\d+\s*年?\s*`, ""},
		{`^市制\s*\d+\s*周年記念\s*`, ""},

		// Bracketed annotations, any bracket style.
		{`（[^）]*）`, ""},
		{`\([^)]*\)`, ""},
		{`\[[^\]]*\]`, ""},
		{`［[^］]*］`, ""},
		{`〈[^〉]*〉`, ""},
		{`【[^】]*】`, ""},

		// Trailing time, date, and venue annotations.
		{`\s*\d{1,2}:\d{2}.*$`, ""},
		{`\s*午前\d+時.*$`, ""},
		{`\s*午後\d+時.*$`, ""},
		{`\s*\d+月\d+日.*$`, ""},
		{`\s*[～〜].*$`, ""},
		{`\s+-.*$`, ""},
		{`\s*＠.*$`, ""},
		{`\s+at\s+.*$`, ""},
		{`\s+in\s+.*$`, ""},
		{`\s*会場.*$`, ""},
		{`\s*にて.*$`, ""},
		{`\s*開催.*$`, ""},

		// Booking and status boilerplate.
		{`\s*※.*$`, ""},
		{`\s*\*.*$`, ""},
		{`要予約`, ""},
		{`チケット(販売|発売)中?`, ""},
		{`入場無料`, ""},
	}

	locationPatterns := []struct {
		pat  string
		repl string
	}{
		{`富山県\s*`, ""},
		// Municipal suffixes collapse to the bare city name. The guard
		// group keeps 市民 intact, so venue names like 富山市民会館 are
		// not mangled. Historic district names such as 越中八尾 stay
		// untouched.
		{`富山市\s*([^民\s]|$)`, "富山$1"},
		{`高岡市\s*([^民\s]|$)`, "高岡$1"},
		{`魚津市\s*([^民\s]|$)`, "魚津$1"},
		{`氷見市\s*([^民\s]|$)`, "氷見$1"},
		{`黒部市\s*([^民\s]|$)`, "黒部$1"},
		{`砺波市\s*([^民\s]|$)`, "砺波$1"},
		{`小矢部市\s*([^民\s]|$)`, "小矢部$1"},
		{`南砺市\s*([^民\s]|$)`, "南砺$1"},
		{`射水市\s*([^民\s]|$)`, "射水$1"},
		{`滑川市\s*([^民\s]|$)`, "滑川$1"},
		{`会館`, "ホール"},
	}

	n := &Normalizer{
		synonyms:      strings.NewReplacer(defaultSynonyms...),
		collapseSpace: regexp.MustCompile(`[　\s]+`),
		separatorRunes: strings.NewReplacer(
			"・", " ", "·", " ", "•", " ",
			"！", "", "!", "", "？", "", "?", "", "。", "", "、", "",
			"，", "", ",", "", "：", "", ":", "", "；", "", ";", "",
			"\"", "", "'", "", "“", "", "”", "", "‘", "", "’", "",
			"『", "", "』", "", "「", "", "」", "",
		),
		stopwords: map[string]struct{}{
			"イベント": {}, "event": {}, "開催": {}, "実施": {},
			"無料": {}, "有料": {}, "free": {},
		},
	}
	for _, p := range titlePatterns {
		n.titleRules = append(n.titleRules, rule{re: regexp.MustCompile(p.pat), repl: p.repl})
	}
	for _, p := range locationPatterns {
		n.locationRules = append(n.locationRules, rule{re: regexp.MustCompile(p.pat), repl: p.repl})
	}
	return n
}

// Title reduces an event title to its comparison key. Returns "" when the
// result is one character or shorter, which callers treat as "cannot
// compare".
func (n *Normalizer) Title(title string) string {
	s := strings.ToLower(strings.TrimSpace(title))
	if s == "" {
		return ""
	}
	s = n.synonyms.Replace(s)
	// Stripping one annotation can expose another, for example a bracket
	// suffix hiding a trailing year. Every title rule only deletes text,
	// so re-running the set until nothing changes terminates and makes
	// normalization idempotent.
	for {
		prev := s
		for _, r := range n.titleRules {
			s = r.re.ReplaceAllString(s, r.repl)
		}
		if s == prev {
			break
		}
	}
	s = n.separatorRunes.Replace(s)
	s = strings.TrimSpace(n.collapseSpace.ReplaceAllString(s, " "))

	words := strings.Fields(s)
	kept := words[:0]
	for _, w := range words {
		if _, drop := n.stopwords[w]; drop {
			continue
		}
		kept = append(kept, w)
	}
	s = strings.Join(kept, " ")
	if len([]rune(s)) <= 1 {
		return ""
	}
	return s
}

// Location reduces a location name to its comparison key.
func (n *Normalizer) Location(location string) string {
	s := strings.ToLower(strings.TrimSpace(location))
	if s == "" {
		return ""
	}
	s = n.synonyms.Replace(s)
	for _, r := range n.locationRules {
		s = r.re.ReplaceAllString(s, r.repl)
	}
	s = strings.TrimSpace(n.collapseSpace.ReplaceAllString(s, " "))
	if len([]rune(s)) <= 1 {
		return ""
	}
	return s
}
