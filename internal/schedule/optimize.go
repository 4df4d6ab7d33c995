package schedule

import (
	"fmt"
	"sort"

	"github.com/sasayosh1/sasayosh1-event-toyama2/internal/event"
)

// Optimization is the result of a conflict-resolution pass.
type Optimization struct {
	Events          []*event.Record
	Resolved        []Conflict
	Remaining       []Conflict
	Score           float64
	Recommendations []string
}

// Optimize detects conflicts and tries to resolve the auto-resolvable
// ones, worst first. The only resolution strategy is shifting the
// lower-priority event's times by a fixed offset; inputs are cloned, not
// mutated. Score is the severity fraction removed, 1.0 when there were
// no conflicts at all.
func (s *Scheduler) Optimize(events []*event.Record) Optimization {
	conflicts := s.DetectConflicts(events)

	optimized := make([]*event.Record, len(events))
	copy(optimized, events)
	index := make(map[*event.Record]int, len(events))
	for i, rec := range events {
		index[rec] = i
	}

	sort.SliceStable(conflicts, func(i, j int) bool {
		return conflicts[i].Severity > conflicts[j].Severity
	})

	var resolved, remaining []Conflict
	for _, c := range conflicts {
		if c.AutoResolvable && s.resolveByShift(c, optimized, index) {
			resolved = append(resolved, c)
		} else {
			remaining = append(remaining, c)
		}
	}

	var initial, left float64
	for _, c := range conflicts {
		initial += c.Severity
	}
	for _, c := range remaining {
		left += c.Severity
	}
	score := 1.0
	if initial > 0 {
		score = 1.0 - left/initial
	}

	return Optimization{
		Events:          optimized,
		Resolved:        resolved,
		Remaining:       remaining,
		Score:           score,
		Recommendations: recommendations(remaining),
	}
}

// resolveByShift moves the lower-priority side later by the configured
// offset. Equal priorities are left alone.
func (s *Scheduler) resolveByShift(c Conflict, optimized []*event.Record, index map[*event.Record]int) bool {
	if !hasTimes(c.A) || !hasTimes(c.B) {
		return false
	}
	pa, pb := s.Priority(c.A), s.Priority(c.B)
	var victim *event.Record
	switch {
	case pa > pb:
		victim = c.B
	case pb > pa:
		victim = c.A
	default:
		return false
	}

	i, ok := index[victim]
	if !ok {
		return false
	}
	shifted := optimized[i].Clone()
	shifted.Timing.StartTime = shiftClock(shifted.Timing.StartTime, s.opts.ResolveShiftMinutes)
	shifted.Timing.EndTime = shiftClock(shifted.Timing.EndTime, s.opts.ResolveShiftMinutes)
	optimized[i] = shifted
	return true
}

// shiftClock adds minutes to a clock time, wrapping at midnight.
func shiftClock(ct *event.ClockTime, minutes int) *event.ClockTime {
	if ct == nil {
		return nil
	}
	total := (ct.Minutes() + minutes) % (24 * 60)
	if total < 0 {
		total += 24 * 60
	}
	return &event.ClockTime{Hour: total / 60, Minute: total % 60}
}

// recommendations summarizes what still needs a human decision.
func recommendations(remaining []Conflict) []string {
	byType := make(map[ConflictType]int)
	for _, c := range remaining {
		byType[c.Type]++
	}

	var out []string
	if n := byType[TimeOverlap]; n > 0 {
		out = append(out, fmt.Sprintf("%d件の時間重複があります。イベント時間の調整を検討してください。", n))
	}
	if n := byType[VenueCapacity]; n > 0 {
		out = append(out, fmt.Sprintf("%d件の会場定員不足があります。より大きな会場への変更を検討してください。", n))
	}
	if n := byType[TravelTime]; n > 0 {
		out = append(out, fmt.Sprintf("%d件の移動時間不足があります。イベント間の時間調整を検討してください。", n))
	}
	if n := byType[CategoryClash]; n > 0 {
		out = append(out, fmt.Sprintf("%d件のカテゴリー競合があります。イベントの連携や差別化を検討してください。", n))
	}
	return out
}
