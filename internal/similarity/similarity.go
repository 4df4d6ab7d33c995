// Package similarity scores how alike two event records are across
// several dimensions. Scores feed the deduplication classifier.
package similarity

import (
	"math"
	"strings"
	"time"

	"github.com/sasayosh1/sasayosh1-event-toyama2/internal/event"
	"github.com/sasayosh1/sasayosh1-event-toyama2/internal/normalize"
)

// Weights for the overall score. Content similarity is kept out of the
// weighted overall and reported only as a secondary signal.
const (
	weightTitle    = 0.4
	weightDate     = 0.25
	weightLocation = 0.2
	weightCategory = 0.1
	weightSource   = 0.05
)

// Same-site pairs are less interesting duplicates, so they score low on
// the source dimension.
const (
	sameSourceScore      = 0.3
	differentSourceScore = 1.0
)

// Scores is the per-dimension similarity breakdown for one event pair.
// All values are in [0,1].
type Scores struct {
	Title    float64 `json:"title"`
	Date     float64 `json:"date"`
	Location float64 `json:"location"`
	Category float64 `json:"category"`
	Source   float64 `json:"source"`
	Content  float64 `json:"content"`
	Overall  float64 `json:"overall"`
}

// Calculator compares event records. It is safe for concurrent use.
type Calculator struct {
	norm  *normalize.Normalizer
	ratio StringRatio
}

// NewCalculator builds a Calculator with the default edit-distance
// string scorer.
func NewCalculator(norm *normalize.Normalizer) *Calculator {
	return &Calculator{norm: norm, ratio: EditDistance{}}
}

// NewCalculatorWithRatio plugs in an alternative string scorer.
func NewCalculatorWithRatio(norm *normalize.Normalizer, ratio StringRatio) *Calculator {
	return &Calculator{norm: norm, ratio: ratio}
}

// Compare scores a pair of records. The result is symmetric in a and b.
func (c *Calculator) Compare(a, b *event.Record) Scores {
	s := Scores{
		Title:    c.titleSimilarity(a.Title, b.Title),
		Date:     dateSimilarity(a.Timing.StartDate, b.Timing.StartDate),
		Location: c.locationSimilarity(a.Location, b.Location),
		Category: categoryAffinity(a.Category, b.Category),
		Source:   sourceSimilarity(a.SourceSite, b.SourceSite),
		Content:  c.contentSimilarity(a.Description, b.Description),
	}
	s.Overall = s.Title*weightTitle +
		s.Date*weightDate +
		s.Location*weightLocation +
		s.Category*weightCategory +
		s.Source*weightSource
	return s
}

// titleSimilarity takes the maximum over several string comparison
// methods. Any one strong signal is enough to flag a candidate pair; the
// classifier thresholds refine from there.
func (c *Calculator) titleSimilarity(a, b string) float64 {
	na, nb := c.norm.Title(a), c.norm.Title(b)
	if na == "" || nb == "" {
		return 0.0
	}
	if na == nb {
		return 1.0
	}

	best := c.ratio.Ratio(na, nb)
	if s := partialRatio(c.ratio, na, nb); s > best {
		best = s
	}
	if s := tokenSortRatio(c.ratio, na, nb); s > best {
		best = s
	}
	if s := tokenSetRatio(c.ratio, na, nb); s > best {
		best = s
	}
	if s := containmentRatio(na, nb); s > best {
		best = s
	}
	if s := charJaccard(na, nb); s > best {
		best = s
	}
	return best
}

// containmentRatio scores a literal-substring relationship between the
// normalized titles. Short fragments are ignored.
func containmentRatio(a, b string) float64 {
	ra, rb := []rune(a), []rune(b)
	short, long := a, b
	shortLen, longLen := len(ra), len(rb)
	if shortLen > longLen {
		short, long = b, a
		shortLen, longLen = longLen, shortLen
	}
	if shortLen <= 3 || !strings.Contains(long, short) {
		return 0.0
	}
	return float64(shortLen) / float64(longLen)
}

// dateSimilarity decays with the day difference between start dates.
// Within a week the decay is steep; within the same calendar month it is
// gentler; beyond a year the score is zero.
func dateSimilarity(a, b time.Time) float64 {
	if a.IsZero() || b.IsZero() {
		return 0.0
	}
	if a.Equal(b) {
		return 1.0
	}
	diff := int(math.Abs(a.Sub(b).Hours()) / 24)
	switch {
	case diff <= 7:
		return 0.8 - float64(diff)/7*0.3
	case a.Year() == b.Year() && a.Month() == b.Month():
		return 0.5 - float64(diff)/31*0.2
	case diff > 365:
		return 0.0
	default:
		return math.Max(0.0, 0.3-float64(diff)/365*0.3)
	}
}

func (c *Calculator) locationSimilarity(a, b *event.Location) float64 {
	if a == nil || b == nil {
		return 0.0
	}
	na, nb := c.norm.Location(a.Name), c.norm.Location(b.Name)
	if na == "" || nb == "" {
		return 0.0
	}
	if na == nb {
		return 1.0
	}
	best := c.ratio.Ratio(na, nb)
	// Sources report the same venue at different granularity, one side a
	// district and the other a spot inside it. The sliding window credits
	// that containment, capped so only identical names score a full 1.0.
	if s := 0.9 * partialRatio(c.ratio, na, nb); s > best {
		best = s
	}
	return best
}

// categoryAffinities lists category pairs that often describe the same
// real-world event from different editorial angles.
var categoryAffinities = map[[2]event.Category]float64{
	{event.CategoryFestival, event.CategoryEntertainment}: 0.7,
	{event.CategoryCulture, event.CategoryEducation}:      0.6,
	{event.CategoryMarket, event.CategoryFood}:            0.8,
	{event.CategorySports, event.CategoryNature}:          0.5,
}

func categoryAffinity(a, b event.Category) float64 {
	if a == b {
		return 1.0
	}
	if s, ok := categoryAffinities[[2]event.Category{a, b}]; ok {
		return s
	}
	if s, ok := categoryAffinities[[2]event.Category{b, a}]; ok {
		return s
	}
	return 0.0
}

func sourceSimilarity(a, b string) float64 {
	if a == b {
		return sameSourceScore
	}
	return differentSourceScore
}

// contentSimilarity compares descriptions with the token-set method.
func (c *Calculator) contentSimilarity(a, b string) float64 {
	da, db := strings.ToLower(strings.TrimSpace(a)), strings.ToLower(strings.TrimSpace(b))
	if da == "" || db == "" {
		return 0.0
	}
	if da == db {
		return 1.0
	}
	return tokenSetRatio(c.ratio, da, db)
}
