// Package dedup finds and merges duplicate event records collected from
// multiple source sites.
package dedup

import (
	"sort"

	"github.com/sasayosh1/sasayosh1-event-toyama2/internal/event"
	"github.com/sasayosh1/sasayosh1-event-toyama2/internal/similarity"
)

// MatchType classifies how strongly a pair of records point at the same
// real-world event.
type MatchType string

const (
	ExactDuplicate  MatchType = "exact_duplicate"
	LikelyDuplicate MatchType = "likely_duplicate"
	SimilarEvent    MatchType = "similar_event"
	RelatedEvent    MatchType = "related_event"
	DifferentEvent  MatchType = "different_event"
)

// Confidence buckets a numeric confidence for reporting.
type Confidence string

const (
	ConfidenceVeryHigh Confidence = "very_high"
	ConfidenceHigh     Confidence = "high"
	ConfidenceMedium   Confidence = "medium"
	ConfidenceLow      Confidence = "low"
	ConfidenceVeryLow  Confidence = "very_low"
)

// ConfidenceFor buckets a [0,1] confidence value.
func ConfidenceFor(c float64) Confidence {
	switch {
	case c >= 0.95:
		return ConfidenceVeryHigh
	case c >= 0.85:
		return ConfidenceHigh
	case c >= 0.7:
		return ConfidenceMedium
	case c >= 0.5:
		return ConfidenceLow
	default:
		return ConfidenceVeryLow
	}
}

// Match is one candidate duplicate pair. IndexA and IndexB are positions
// in the input slice and stay valid for the whole pass; the merge step
// consumes records by index, never by pointer identity.
type Match struct {
	IndexA, IndexB  int
	A, B            *event.Record
	Type            MatchType
	Confidence      float64
	ConfidenceLevel Confidence
	Scores          similarity.Scores
	Reasoning       []string
	AutoMergeable   bool
	MergeSuggestion *event.Record
}

// Result summarizes one deduplication pass.
type Result struct {
	OriginalCount     int
	DeduplicatedCount int
	Matches           []Match
	Events            []*event.Record
	ConfidenceCounts  map[Confidence]int
	AutoMergedPairs   int
}

// Engine runs duplicate detection and merging.
type Engine struct {
	calc               *similarity.Calculator
	autoMergeThreshold float64
}

// NewEngine builds an Engine. autoMergeThreshold is the confidence a pair
// must exceed before it may be merged without review; pass 0 for the
// default of 0.9.
func NewEngine(calc *similarity.Calculator, autoMergeThreshold float64) *Engine {
	if autoMergeThreshold <= 0 {
		autoMergeThreshold = 0.9
	}
	return &Engine{calc: calc, autoMergeThreshold: autoMergeThreshold}
}

// FindDuplicates evaluates every unordered pair and returns the non-trivial
// matches sorted by descending confidence. O(n²), fine for the low hundreds
// of events one run handles.
func (e *Engine) FindDuplicates(events []*event.Record) []Match {
	var matches []Match
	for i := 0; i < len(events); i++ {
		for j := i + 1; j < len(events); j++ {
			m := e.analyzePair(i, j, events[i], events[j])
			if m.Type != DifferentEvent {
				matches = append(matches, m)
			}
		}
	}
	sort.SliceStable(matches, func(a, b int) bool {
		return matches[a].Confidence > matches[b].Confidence
	})
	return matches
}

func (e *Engine) analyzePair(i, j int, a, b *event.Record) Match {
	scores := e.calc.Compare(a, b)
	mt := classify(scores)
	conf := scores.Overall

	m := Match{
		IndexA:          i,
		IndexB:          j,
		A:               a,
		B:               b,
		Type:            mt,
		Confidence:      conf,
		ConfidenceLevel: ConfidenceFor(conf),
		Scores:          scores,
		Reasoning:       reasoning(scores, mt),
	}
	if mt == ExactDuplicate || mt == LikelyDuplicate {
		m.MergeSuggestion = Merge(a, b)
		m.AutoMergeable = conf > e.autoMergeThreshold
	}
	return m
}

// classify maps a similarity breakdown to a match type. Rules are checked
// strongest first.
func classify(s similarity.Scores) MatchType {
	switch {
	case s.Overall > 0.95 && s.Title > 0.9 && s.Date > 0.8:
		return ExactDuplicate
	case s.Overall > 0.85 && s.Title > 0.8 && s.Date > 0.7:
		return LikelyDuplicate
	case s.Overall > 0.7 && (s.Title > 0.7 || (s.Date > 0.9 && s.Location > 0.8)):
		return SimilarEvent
	case s.Overall > 0.5 && (s.Title > 0.5 || s.Date > 0.8):
		return RelatedEvent
	default:
		return DifferentEvent
	}
}

// reasoning builds the human-readable explanation shown in review reports.
func reasoning(s similarity.Scores, mt MatchType) []string {
	var out []string
	switch {
	case s.Title > 0.9:
		out = append(out, "タイトルがほぼ同一です")
	case s.Title > 0.7:
		out = append(out, "タイトルが非常に類似しています")
	case s.Title > 0.5:
		out = append(out, "タイトルに類似性があります")
	}
	switch {
	case s.Date > 0.9:
		out = append(out, "開催日が同一または非常に近いです")
	case s.Date > 0.7:
		out = append(out, "開催日が近いです")
	}
	switch {
	case s.Location > 0.8:
		out = append(out, "開催場所が同一または非常に類似しています")
	case s.Location > 0.5:
		out = append(out, "開催場所に類似性があります")
	}
	switch mt {
	case ExactDuplicate:
		out = append(out, "完全に同一のイベントと判定されます")
	case LikelyDuplicate:
		out = append(out, "重複イベントの可能性が高いです")
	}
	return out
}

// Merge combines two records into a new one. The higher-quality record is
// the base; the other record only fills gaps or supplies strictly more
// complete fields. Inputs are never mutated.
func Merge(a, b *event.Record) *event.Record {
	base, other := a, b
	if b.QualityScore > a.QualityScore {
		base, other = b, a
	}
	merged := base.Clone()

	if len(other.Description) > len(merged.Description) {
		merged.Description = other.Description
	}
	if merged.Location == nil && other.Location != nil {
		loc := *other.Location
		merged.Location = &loc
	} else if merged.Location != nil && other.Location != nil {
		if merged.Location.Address == "" && other.Location.Address != "" {
			merged.Location.Address = other.Location.Address
		}
		if merged.Location.City == "" && other.Location.City != "" {
			merged.Location.City = other.Location.City
		}
		if !merged.Location.HasCoordinates() && other.Location.HasCoordinates() {
			lat, lng := *other.Location.Latitude, *other.Location.Longitude
			merged.Location.Latitude = &lat
			merged.Location.Longitude = &lng
		}
		if merged.Location.Capacity == nil && other.Location.Capacity != nil {
			n := *other.Location.Capacity
			merged.Location.Capacity = &n
		}
	}
	if merged.Pricing == nil && other.Pricing != nil {
		merged.Pricing = other.Pricing.Clone()
	}
	if merged.Contact == nil && other.Contact != nil {
		c := *other.Contact
		merged.Contact = &c
	} else if merged.Contact != nil && other.Contact != nil {
		if merged.Contact.Phone == "" {
			merged.Contact.Phone = other.Contact.Phone
		}
		if merged.Contact.Email == "" {
			merged.Contact.Email = other.Contact.Email
		}
		if merged.Contact.Website == "" {
			merged.Contact.Website = other.Contact.Website
		}
	}
	if merged.Timing.EndDate.IsZero() && !other.Timing.EndDate.IsZero() &&
		!other.Timing.EndDate.Before(merged.Timing.StartDate) {
		merged.Timing.EndDate = other.Timing.EndDate
	}
	if merged.Timing.StartTime == nil && other.Timing.StartTime != nil {
		st := *other.Timing.StartTime
		merged.Timing.StartTime = &st
	}
	if merged.Timing.EndTime == nil && other.Timing.EndTime != nil {
		et := *other.Timing.EndTime
		merged.Timing.EndTime = &et
	}

	for _, tag := range other.Tags {
		found := false
		for _, t := range merged.Tags {
			if t == tag {
				found = true
				break
			}
		}
		if !found {
			merged.Tags = append(merged.Tags, tag)
		}
	}
	sort.Strings(merged.Tags)

	merged.AddSource(base.SourceSite)
	merged.AddSource(other.SourceSite)
	for _, s := range other.Sources {
		merged.AddSource(s)
	}

	merged.RecomputeQuality()
	return merged
}

// Deduplicate runs a full pass: detect, then greedily merge by descending
// confidence. A record participates in at most one merge per pass; there
// is no transitive cluster building.
func (e *Engine) Deduplicate(events []*event.Record, autoMerge bool) Result {
	matches := e.FindDuplicates(events)

	res := Result{
		OriginalCount:    len(events),
		Matches:          matches,
		ConfidenceCounts: make(map[Confidence]int),
	}

	consumed := make(map[int]bool)
	var out []*event.Record
	for _, m := range matches {
		res.ConfidenceCounts[m.ConfidenceLevel]++
		if !autoMerge || !m.AutoMergeable || m.MergeSuggestion == nil {
			continue
		}
		if consumed[m.IndexA] || consumed[m.IndexB] {
			continue
		}
		consumed[m.IndexA] = true
		consumed[m.IndexB] = true
		out = append(out, m.MergeSuggestion)
		res.AutoMergedPairs++
	}
	for i, ev := range events {
		if !consumed[i] {
			out = append(out, ev)
		}
	}

	res.Events = out
	res.DeduplicatedCount = len(out)
	return res
}
