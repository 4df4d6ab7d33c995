package schedule

import (
	"fmt"
	"math"
	"time"

	"github.com/sasayosh1/sasayosh1-event-toyama2/internal/event"
)

const earthRadiusKm = 6371

// DetectConflicts evaluates every unordered pair of events against all
// conflict rules.
func (s *Scheduler) DetectConflicts(events []*event.Record) []Conflict {
	var conflicts []Conflict
	for i := 0; i < len(events); i++ {
		for j := i + 1; j < len(events); j++ {
			a, b := events[i], events[j]
			if c := s.checkTimeOverlap(a, b); c != nil {
				conflicts = append(conflicts, *c)
			}
			if c := s.checkVenueCapacity(a, b); c != nil {
				conflicts = append(conflicts, *c)
			}
			if c := s.checkTravelTime(a, b); c != nil {
				conflicts = append(conflicts, *c)
			}
			if c := s.checkCategoryClash(a, b); c != nil {
				conflicts = append(conflicts, *c)
			}
		}
	}
	return conflicts
}

// datesOverlap treats a zero end date as a single-day event.
func datesOverlap(a, b *event.Record) bool {
	if a.Timing.StartDate.IsZero() || b.Timing.StartDate.IsZero() {
		return false
	}
	endA := a.Timing.EndDate
	if endA.IsZero() {
		endA = a.Timing.StartDate
	}
	endB := b.Timing.EndDate
	if endB.IsZero() {
		endB = b.Timing.StartDate
	}
	return !endA.Before(b.Timing.StartDate) && !endB.Before(a.Timing.StartDate)
}

func hasTimes(r *event.Record) bool {
	return r.Timing.StartTime != nil && r.Timing.EndTime != nil
}

func (s *Scheduler) checkTimeOverlap(a, b *event.Record) *Conflict {
	if !datesOverlap(a, b) {
		return nil
	}
	sameStart := a.Timing.StartDate.Equal(b.Timing.StartDate)

	if sameStart && hasTimes(a) && hasTimes(b) {
		startA, endA := a.Timing.StartTime.Minutes(), a.Timing.EndTime.Minutes()
		startB, endB := b.Timing.StartTime.Minutes(), b.Timing.EndTime.Minutes()
		if endA <= startB || endB <= startA {
			return nil
		}
		overlap := minInt(endA, endB) - maxInt(startA, startB)
		longest := maxInt(endA-startA, endB-startB)
		if overlap <= 0 || longest <= 0 {
			return nil
		}
		severity := math.Min(float64(overlap)/float64(longest), 1.0)
		return &Conflict{
			A: a, B: b,
			Type:        TimeOverlap,
			Severity:    severity,
			Description: fmt.Sprintf("イベントが%d分間重複しています", overlap),
			Suggestions: []string{
				"イベント時間を調整する",
				"どちらか一方の日程を変更する",
				"イベントを短縮する",
			},
			AutoResolvable: severity < 0.3,
		}
	}

	if sameStart {
		return &Conflict{
			A: a, B: b,
			Type:        TimeOverlap,
			Severity:    0.8,
			Description: "同日に終日イベントが重複しています",
			Suggestions: []string{
				"日程を分散する",
				"時間を指定して分割開催する",
				"会場を分ける",
			},
		}
	}
	return nil
}

func (s *Scheduler) checkVenueCapacity(a, b *event.Record) *Conflict {
	if a.Location == nil || b.Location == nil {
		return nil
	}
	if a.Location.Name != b.Location.Name || !datesOverlap(a, b) {
		return nil
	}
	venue, ok := s.venues[a.Location.Name]
	if !ok || venue.Capacity == 0 {
		return nil
	}
	combined := s.EstimateAttendance(a) + s.EstimateAttendance(b)
	if combined <= venue.Capacity {
		return nil
	}
	severity := math.Min(float64(combined)/float64(venue.Capacity)-1.0, 1.0)
	return &Conflict{
		A: a, B: b,
		Type:        VenueCapacity,
		Severity:    severity,
		Description: fmt.Sprintf("会場定員(%d名)を超過する可能性があります", venue.Capacity),
		Suggestions: []string{
			"より大きな会場に変更する",
			"時間を分けて開催する",
			"事前予約制にする",
		},
	}
}

func (s *Scheduler) checkTravelTime(a, b *event.Record) *Conflict {
	if a.Location == nil || b.Location == nil {
		return nil
	}
	if a.Timing.StartDate.IsZero() || !a.Timing.StartDate.Equal(b.Timing.StartDate) {
		return nil
	}
	if a.Timing.StartTime == nil || b.Timing.StartTime == nil {
		return nil
	}

	// Travel time only matters for back-to-back events. Overlapping
	// pairs are the time-overlap rule's concern.
	first, second := a, b
	if second.Timing.StartTime.Before(*first.Timing.StartTime) {
		first, second = b, a
	}
	if first.Timing.EndTime == nil ||
		second.Timing.StartTime.Before(*first.Timing.EndTime) {
		return nil
	}

	travel := s.travelMinutes(first.Location, second.Location)
	if travel <= 0 {
		return nil
	}
	gap := float64(second.Timing.StartTime.Minutes() - first.Timing.EndTime.Minutes())
	if gap >= travel {
		return nil
	}
	severity := math.Min((travel-gap)/travel, 1.0)
	return &Conflict{
		A: first, B: second,
		Type:        TravelTime,
		Severity:    severity,
		Description: fmt.Sprintf("移動時間(%.0f分)が不足しています", travel),
		Suggestions: []string{
			"イベント間の時間を増やす",
			"近い会場に変更する",
			"移動手段を確保する",
		},
		AutoResolvable: severity < 0.5,
	}
}

// highCompetitionCategories compete hardest for the same audience.
var highCompetitionCategories = map[event.Category]bool{
	event.CategoryFestival:      true,
	event.CategoryEntertainment: true,
	event.CategoryMarket:        true,
}

func (s *Scheduler) checkCategoryClash(a, b *event.Record) *Conflict {
	if !datesOverlap(a, b) {
		return nil
	}
	if a.Category != b.Category || !highCompetitionCategories[a.Category] {
		return nil
	}
	return &Conflict{
		A: a, B: b,
		Type:        CategoryClash,
		Severity:    0.6,
		Description: fmt.Sprintf("同じカテゴリー(%s)のイベントが競合しています", a.Category),
		Suggestions: []string{
			"ターゲット層を分ける",
			"連携してイベントを合同開催する",
			"日程を調整する",
		},
	}
}

// attendanceMultipliers scales the base attendance guess per category.
var attendanceMultipliers = map[event.Category]float64{
	event.CategoryFestival:      5.0,
	event.CategoryEntertainment: 3.0,
	event.CategoryCulture:       2.0,
	event.CategorySports:        2.5,
	event.CategoryMarket:        1.5,
	event.CategoryFood:          2.0,
	event.CategoryNature:        1.8,
	event.CategoryEducation:     1.2,
	event.CategoryBusiness:      1.0,
	event.CategoryOther:         0.8,
}

// EstimateAttendance guesses attendance from category, quality, pricing
// and weekday. A rough heuristic, floored at 10.
func (s *Scheduler) EstimateAttendance(rec *event.Record) int {
	const base = 100.0

	multiplier, ok := attendanceMultipliers[rec.Category]
	if !ok {
		multiplier = 1.0
	}
	if rec.Pricing != nil && !rec.Pricing.Free && rec.Pricing.Amount > 1000 {
		multiplier *= 0.7
	}
	if !rec.Timing.StartDate.IsZero() {
		wd := rec.Timing.StartDate.Weekday()
		if wd == time.Saturday || wd == time.Sunday {
			multiplier *= 1.5
		}
	}

	estimated := int(math.Round(base * multiplier * rec.QualityScore / 100.0))
	if estimated < 10 {
		return 10
	}
	return estimated
}

// travelMinutes estimates travel time between venues. With a geocode on
// both sides it uses haversine distance at city driving speed, else a
// flat inter/intra-city heuristic.
func (s *Scheduler) travelMinutes(a, b *event.Location) float64 {
	if a.Name == "" || b.Name == "" || a.Name == b.Name {
		return 0
	}
	if a.HasCoordinates() && b.HasCoordinates() {
		km := haversineKm(*a.Latitude, *a.Longitude, *b.Latitude, *b.Longitude)
		return km / s.opts.TravelSpeedKmh * 60
	}
	if a.City != "" && b.City != "" && a.City != b.City {
		return s.opts.InterCityTravelMin
	}
	return s.opts.IntraCityTravelMin
}

func haversineKm(lat1, lon1, lat2, lon2 float64) float64 {
	dlat := radians(lat2 - lat1)
	dlon := radians(lon2 - lon1)
	a := math.Sin(dlat/2)*math.Sin(dlat/2) +
		math.Cos(radians(lat1))*math.Cos(radians(lat2))*math.Sin(dlon/2)*math.Sin(dlon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusKm * c
}

func radians(deg float64) float64 { return deg * math.Pi / 180 }

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
