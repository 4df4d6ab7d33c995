package schedule

import (
	"math"
	"testing"
	"time"

	"github.com/sasayosh1/sasayosh1-event-toyama2/internal/event"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func clock(h, m int) *event.ClockTime {
	return &event.ClockTime{Hour: h, Minute: m}
}

func newScheduler() *Scheduler {
	return New(nil, DefaultOptions())
}

func TestPriorityRuleOrder(t *testing.T) {
	t.Parallel()

	s := newScheduler()
	cases := []struct {
		name string
		rec  *event.Record
		want Priority
	}{
		{
			name: "named heritage festival is critical",
			rec:  &event.Record{Title: "おわら風の盆", Category: event.CategoryOther},
			want: PriorityCritical,
		},
		{
			name: "numbered festival is critical",
			rec:  &event.Record{Title: "第47回となみ夜高まつり", Category: event.CategoryOther},
			want: PriorityCritical,
		},
		{
			name: "fireworks is critical",
			rec:  &event.Record{Title: "北日本新聞納涼花火大会", Category: event.CategoryOther},
			want: PriorityCritical,
		},
		{
			name: "special keyword is high",
			rec:  &event.Record{Title: "ほたるいか特別展", Category: event.CategoryOther, QualityScore: 90},
			want: PriorityHigh,
		},
		{
			name: "festival category is high",
			rec:  &event.Record{Title: "夜高行事", Category: event.CategoryFestival},
			want: PriorityHigh,
		},
		{
			name: "culture category is medium",
			rec:  &event.Record{Title: "収蔵品展示", Category: event.CategoryCulture},
			want: PriorityMedium,
		},
		{
			name: "market category is low",
			rec:  &event.Record{Title: "朝市", Category: event.CategoryMarket},
			want: PriorityLow,
		},
		{
			name: "high quality fallback is medium",
			rec:  &event.Record{Title: "サイクリング体験", Category: event.CategoryOther, QualityScore: 85},
			want: PriorityMedium,
		},
		{
			name: "low quality fallback is flexible",
			rec:  &event.Record{Title: "体験会", Category: event.CategoryOther, QualityScore: 30},
			want: PriorityFlexible,
		},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := s.Priority(tc.rec); got != tc.want {
				t.Fatalf("Priority = %s, want %s", got, tc.want)
			}
		})
	}
}

func TestDetectTimeOverlapTimed(t *testing.T) {
	t.Parallel()

	a := &event.Record{
		Title:    "コンサートA",
		Category: event.CategoryEntertainment,
		Timing:   event.Timing{StartDate: day(2025, 9, 6), StartTime: clock(10, 0), EndTime: clock(12, 0)},
	}
	b := &event.Record{
		Title:    "コンサートB",
		Category: event.CategoryCulture,
		Timing:   event.Timing{StartDate: day(2025, 9, 6), StartTime: clock(11, 0), EndTime: clock(13, 0)},
	}

	conflicts := newScheduler().DetectConflicts([]*event.Record{a, b})
	if len(conflicts) != 1 {
		t.Fatalf("conflicts = %d, want 1", len(conflicts))
	}
	c := conflicts[0]
	if c.Type != TimeOverlap {
		t.Fatalf("type = %s, want %s", c.Type, TimeOverlap)
	}
	// 60 minutes of overlap against the longer 120-minute event.
	if math.Abs(c.Severity-0.5) > 1e-9 {
		t.Fatalf("severity = %v, want 0.5", c.Severity)
	}
	if c.AutoResolvable {
		t.Fatalf("half-overlap marked auto-resolvable")
	}
}

func TestDetectTimeOverlapAllDay(t *testing.T) {
	t.Parallel()

	a := &event.Record{Title: "展示A", Timing: event.Timing{StartDate: day(2025, 9, 6)}}
	b := &event.Record{Title: "展示B", Timing: event.Timing{StartDate: day(2025, 9, 6)}}

	conflicts := newScheduler().DetectConflicts([]*event.Record{a, b})
	if len(conflicts) != 1 || conflicts[0].Severity != 0.8 {
		t.Fatalf("all-day overlap not flagged at 0.8: %+v", conflicts)
	}
	if conflicts[0].AutoResolvable {
		t.Fatalf("all-day overlap should not be auto-resolvable")
	}
}

func TestDetectNoConflictDifferentDays(t *testing.T) {
	t.Parallel()

	a := &event.Record{Title: "展示A", Timing: event.Timing{StartDate: day(2025, 9, 6)}}
	b := &event.Record{Title: "展示B", Timing: event.Timing{StartDate: day(2025, 9, 8)}}
	if got := newScheduler().DetectConflicts([]*event.Record{a, b}); len(got) != 0 {
		t.Fatalf("non-overlapping events conflicted: %+v", got)
	}
}

func TestDetectVenueCapacity(t *testing.T) {
	t.Parallel()

	venues := map[string]Venue{
		"テストホール": {Name: "テストホール", Capacity: 1000},
	}
	s := New(venues, DefaultOptions())

	// Saturday festivals with perfect quality: 100 * 5.0 * 1.5 = 750 each.
	mk := func(title string) *event.Record {
		return &event.Record{
			Title:        title,
			Category:     event.CategoryFestival,
			QualityScore: 100,
			Timing:       event.Timing{StartDate: day(2025, 9, 6)},
			Location:     &event.Location{Name: "テストホール"},
		}
	}
	conflicts := s.DetectConflicts([]*event.Record{mk("まつりA"), mk("まつりB")})

	var found *Conflict
	for i := range conflicts {
		if conflicts[i].Type == VenueCapacity {
			found = &conflicts[i]
		}
	}
	if found == nil {
		t.Fatalf("venue capacity conflict not detected: %+v", conflicts)
	}
	// 1500 attendees over a 1000 cap: severity 0.5.
	if math.Abs(found.Severity-0.5) > 1e-9 {
		t.Fatalf("severity = %v, want 0.5", found.Severity)
	}
	if found.AutoResolvable {
		t.Fatalf("capacity conflicts are never auto-resolvable")
	}
}

func TestDetectTravelTime(t *testing.T) {
	t.Parallel()

	lat1, lon := 36.70, 137.21
	lat2 := 36.79 // roughly 10 km north
	a := &event.Record{
		Title:    "午後の部",
		Timing:   event.Timing{StartDate: day(2025, 9, 8), StartTime: clock(13, 0), EndTime: clock(14, 0)},
		Location: &event.Location{Name: "会場A", Latitude: &lat1, Longitude: &lon},
	}
	b := &event.Record{
		Title:    "夕方の部",
		Timing:   event.Timing{StartDate: day(2025, 9, 8), StartTime: clock(14, 15), EndTime: clock(16, 0)},
		Location: &event.Location{Name: "会場B", Latitude: &lat2, Longitude: &lon},
	}

	conflicts := newScheduler().DetectConflicts([]*event.Record{a, b})
	var found *Conflict
	for i := range conflicts {
		if conflicts[i].Type == TravelTime {
			found = &conflicts[i]
		}
	}
	if found == nil {
		t.Fatalf("travel time conflict not detected: %+v", conflicts)
	}
	// ~20 minutes needed, 15 available: severity ~0.25, auto-resolvable.
	if found.Severity < 0.1 || found.Severity > 0.4 {
		t.Fatalf("severity = %v, want about 0.25", found.Severity)
	}
	if !found.AutoResolvable {
		t.Fatalf("mild travel shortfall should be auto-resolvable")
	}
}

func TestNoTravelTimeForOverlappingPair(t *testing.T) {
	t.Parallel()

	a := &event.Record{
		Title:    "昼の部",
		Timing:   event.Timing{StartDate: day(2025, 9, 8), StartTime: clock(10, 0), EndTime: clock(16, 0)},
		Location: &event.Location{Name: "会場A", City: "富山"},
	}
	b := &event.Record{
		Title:    "夜の部",
		Timing:   event.Timing{StartDate: day(2025, 9, 8), StartTime: clock(14, 0), EndTime: clock(20, 0)},
		Location: &event.Location{Name: "会場B", City: "高岡"},
	}

	// Travel time applies to back-to-back events only, so the pair
	// raises a single time overlap.
	conflicts := newScheduler().DetectConflicts([]*event.Record{a, b})
	if len(conflicts) != 1 {
		t.Fatalf("conflicts = %+v, want only the time overlap", conflicts)
	}
	if conflicts[0].Type != TimeOverlap {
		t.Fatalf("type = %s, want %s", conflicts[0].Type, TimeOverlap)
	}
}

func TestTravelMinutesHeuristics(t *testing.T) {
	t.Parallel()

	s := newScheduler()
	interCity := s.travelMinutes(
		&event.Location{Name: "会場A", City: "富山"},
		&event.Location{Name: "会場B", City: "高岡"},
	)
	if interCity != 45 {
		t.Fatalf("inter-city travel = %v, want 45", interCity)
	}
	intraCity := s.travelMinutes(
		&event.Location{Name: "会場A", City: "富山"},
		&event.Location{Name: "会場B", City: "富山"},
	)
	if intraCity != 15 {
		t.Fatalf("intra-city travel = %v, want 15", intraCity)
	}
	if same := s.travelMinutes(&event.Location{Name: "会場A"}, &event.Location{Name: "会場A"}); same != 0 {
		t.Fatalf("same venue travel = %v, want 0", same)
	}
}

func TestDetectCategoryClash(t *testing.T) {
	t.Parallel()

	a := &event.Record{
		Title:    "富山まつり",
		Category: event.CategoryFestival,
		Timing:   event.Timing{StartDate: day(2025, 9, 6), EndDate: day(2025, 9, 7)},
	}
	b := &event.Record{
		Title:    "となみ夜高まつり",
		Category: event.CategoryFestival,
		Timing:   event.Timing{StartDate: day(2025, 9, 7), EndDate: day(2025, 9, 8)},
	}

	conflicts := newScheduler().DetectConflicts([]*event.Record{a, b})
	var found bool
	for _, c := range conflicts {
		if c.Type == CategoryClash {
			found = true
			if c.Severity != 0.6 {
				t.Fatalf("clash severity = %v, want 0.6", c.Severity)
			}
		}
	}
	if !found {
		t.Fatalf("category clash not detected: %+v", conflicts)
	}
}

func TestEstimateAttendance(t *testing.T) {
	t.Parallel()

	s := newScheduler()

	weekendFestival := &event.Record{
		Category:     event.CategoryFestival,
		QualityScore: 100,
		Timing:       event.Timing{StartDate: day(2025, 9, 6)}, // Saturday
	}
	if got := s.EstimateAttendance(weekendFestival); got != 750 {
		t.Fatalf("weekend festival attendance = %d, want 750", got)
	}

	expensive := &event.Record{
		Category:     event.CategoryEntertainment,
		QualityScore: 100,
		Pricing:      &event.Pricing{Free: false, Amount: 5000},
		Timing:       event.Timing{StartDate: day(2025, 9, 8)}, // Monday
	}
	if got := s.EstimateAttendance(expensive); got != 210 {
		t.Fatalf("expensive weekday attendance = %d, want 210", got)
	}

	if got := s.EstimateAttendance(&event.Record{Category: event.CategoryOther}); got != 10 {
		t.Fatalf("zero-quality attendance = %d, want floor of 10", got)
	}
}

func TestOptimizeShiftsLowerPriority(t *testing.T) {
	t.Parallel()

	fireworks := &event.Record{
		Title:    "北日本新聞納涼花火大会",
		Category: event.CategoryFestival,
		Timing:   event.Timing{StartDate: day(2025, 8, 4), StartTime: clock(19, 0), EndTime: clock(21, 15)},
	}
	minor := &event.Record{
		Title:        "体験会",
		Category:     event.CategoryOther,
		QualityScore: 30,
		Timing:       event.Timing{StartDate: day(2025, 8, 4), StartTime: clock(21, 0), EndTime: clock(22, 0)},
	}

	opt := newScheduler().Optimize([]*event.Record{fireworks, minor})

	if len(opt.Resolved) != 1 || len(opt.Remaining) != 0 {
		t.Fatalf("resolved/remaining = %d/%d, want 1/0", len(opt.Resolved), len(opt.Remaining))
	}
	if opt.Score != 1.0 {
		t.Fatalf("score = %v, want 1.0", opt.Score)
	}

	var shifted *event.Record
	for _, rec := range opt.Events {
		if rec.Title == "体験会" {
			shifted = rec
		}
	}
	if shifted == nil {
		t.Fatalf("shifted record missing from optimized set")
	}
	if got := shifted.Timing.StartTime.String(); got != "21:30" {
		t.Fatalf("shifted start = %s, want 21:30", got)
	}
	if got := shifted.Timing.EndTime.String(); got != "22:30" {
		t.Fatalf("shifted end = %s, want 22:30", got)
	}

	// The input record is untouched.
	if got := minor.Timing.StartTime.String(); got != "21:00" {
		t.Fatalf("input record mutated: start = %s", got)
	}
}

func TestOptimizeEqualPriorityNotResolved(t *testing.T) {
	t.Parallel()

	mk := func(title string) *event.Record {
		return &event.Record{
			Title:        title,
			Category:     event.CategoryOther,
			QualityScore: 30,
			Timing:       event.Timing{StartDate: day(2025, 8, 4), StartTime: clock(10, 0), EndTime: clock(12, 0)},
		}
	}
	a := mk("体験会A")
	b := mk("体験会B")
	b.Timing.StartTime = clock(11, 50)
	b.Timing.EndTime = clock(13, 50)

	opt := newScheduler().Optimize([]*event.Record{a, b})
	if len(opt.Resolved) != 0 {
		t.Fatalf("equal-priority conflict resolved: %+v", opt.Resolved)
	}
	if len(opt.Remaining) != 1 {
		t.Fatalf("remaining = %d, want 1", len(opt.Remaining))
	}
	if opt.Score != 0.0 {
		t.Fatalf("score = %v, want 0 when nothing was resolved", opt.Score)
	}
	if len(opt.Recommendations) == 0 {
		t.Fatalf("unresolved conflicts produced no recommendations")
	}
}

func TestOptimizeNoConflicts(t *testing.T) {
	t.Parallel()

	a := &event.Record{Title: "展示A", Timing: event.Timing{StartDate: day(2025, 9, 6)}}
	b := &event.Record{Title: "展示B", Timing: event.Timing{StartDate: day(2025, 10, 6)}}

	opt := newScheduler().Optimize([]*event.Record{a, b})
	if opt.Score != 1.0 {
		t.Fatalf("score without conflicts = %v, want 1.0", opt.Score)
	}
	if len(opt.Resolved)+len(opt.Remaining) != 0 {
		t.Fatalf("phantom conflicts: %+v %+v", opt.Resolved, opt.Remaining)
	}
}
