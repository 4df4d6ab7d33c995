// Package schedule assigns priorities to events, detects scheduling
// conflicts between them, and attempts limited automatic resolution.
package schedule

import (
	"regexp"

	"github.com/sasayosh1/sasayosh1-event-toyama2/internal/event"
)

// Priority ranks how immovable an event is. Higher wins when a conflict
// resolution has to shift one of the two sides.
type Priority int

const (
	PriorityFlexible Priority = iota + 1
	PriorityLow
	PriorityMedium
	PriorityHigh
	PriorityCritical
)

func (p Priority) String() string {
	switch p {
	case PriorityCritical:
		return "critical"
	case PriorityHigh:
		return "high"
	case PriorityMedium:
		return "medium"
	case PriorityLow:
		return "low"
	default:
		return "flexible"
	}
}

// ConflictType names the kind of scheduling conflict.
type ConflictType string

const (
	TimeOverlap   ConflictType = "time_overlap"
	VenueCapacity ConflictType = "venue_capacity"
	TravelTime    ConflictType = "travel_time"
	CategoryClash ConflictType = "category_clash"
)

// Conflict is one pairwise scheduling conflict with a severity in [0,1].
type Conflict struct {
	A, B           *event.Record
	Type           ConflictType
	Severity       float64
	Description    string
	Suggestions    []string
	AutoResolvable bool
}

// Venue is static knowledge about a known event venue. The registry is
// fixed at construction; the scheduler never mutates it.
type Venue struct {
	Name     string
	Capacity int
	Type     string
	Address  string
}

// DefaultVenues covers the major Toyama venues that routinely host
// overlapping events.
func DefaultVenues() map[string]Venue {
	venues := []Venue{
		{Name: "富山市民会館", Capacity: 2000, Type: "ホール", Address: "富山市新総曲輪4-18"},
		{Name: "高岡市民会館", Capacity: 1500, Type: "ホール", Address: "高岡市中川1-1-25"},
		{Name: "富山城址公園", Capacity: 10000, Type: "公園", Address: "富山市本丸1"},
		{Name: "環水公園", Capacity: 5000, Type: "公園", Address: "富山市湊入船町"},
	}
	out := make(map[string]Venue, len(venues))
	for _, v := range venues {
		out[v.Name] = v
	}
	return out
}

// Options tunes the travel and resolution heuristics.
type Options struct {
	TravelSpeedKmh      float64
	InterCityTravelMin  float64
	IntraCityTravelMin  float64
	ResolveShiftMinutes int
}

// DefaultOptions returns the production defaults.
func DefaultOptions() Options {
	return Options{
		TravelSpeedKmh:      30,
		InterCityTravelMin:  45,
		IntraCityTravelMin:  15,
		ResolveShiftMinutes: 30,
	}
}

// Scheduler detects and resolves conflicts. Safe for concurrent use once
// constructed.
type Scheduler struct {
	venues map[string]Venue
	opts   Options
}

// New builds a Scheduler. A nil venue map falls back to DefaultVenues.
func New(venues map[string]Venue, opts Options) *Scheduler {
	if venues == nil {
		venues = DefaultVenues()
	}
	if opts.TravelSpeedKmh <= 0 {
		opts = DefaultOptions()
	}
	return &Scheduler{venues: venues, opts: opts}
}

var criticalPatterns = []*regexp.Regexp{
	regexp.MustCompile(`第\d+回.*まつり`),
	regexp.MustCompile(`花火大会`),
	regexp.MustCompile(`おわら風の盆`),
	regexp.MustCompile(`官公庁`),
	regexp.MustCompile(`市制.*周年`),
	regexp.MustCompile(`県.*主催`),
}

var highPatterns = []*regexp.Regexp{
	regexp.MustCompile(`まつり`),
	regexp.MustCompile(`フェスティバル`),
	regexp.MustCompile(`コンサート`),
	regexp.MustCompile(`展示会`),
	regexp.MustCompile(`限定`),
	regexp.MustCompile(`特別`),
}

// Priority classifies one event. Rules run in order and the first match
// wins: critical title patterns, high-priority keywords, category, then
// quality score.
func (s *Scheduler) Priority(rec *event.Record) Priority {
	for _, re := range criticalPatterns {
		if re.MatchString(rec.Title) {
			return PriorityCritical
		}
	}
	for _, re := range highPatterns {
		if re.MatchString(rec.Title) {
			return PriorityHigh
		}
	}
	switch rec.Category {
	case event.CategoryFestival:
		return PriorityHigh
	case event.CategoryCulture, event.CategorySports:
		return PriorityMedium
	case event.CategoryMarket, event.CategoryFood:
		return PriorityLow
	}
	switch {
	case rec.QualityScore >= 80:
		return PriorityMedium
	case rec.QualityScore >= 60:
		return PriorityLow
	default:
		return PriorityFlexible
	}
}
