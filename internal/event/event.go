// Package event defines the canonical record type shared by every stage of
// the aggregation pipeline. All stages exchange values of Record; mutation
// happens on clones so that upstream snapshots stay stable.
package event

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
	"time"
)

// ClockTime is a time of day without a date. Records carry it separately
// from the date range because most scraped sources publish the two
// independently and either may be missing.
type ClockTime struct {
	Hour   int `json:"hour"`
	Minute int `json:"minute"`
}

// ParseClockTime parses "HH:MM" (24h). Single-digit hours are accepted.
func ParseClockTime(s string) (ClockTime, error) {
	var h, m int
	if _, err := fmt.Sscanf(strings.TrimSpace(s), "%d:%d", &h, &m); err != nil {
		return ClockTime{}, fmt.Errorf("parse clock time %q: %w", s, err)
	}
	ct := ClockTime{Hour: h, Minute: m}
	if !ct.Valid() {
		return ClockTime{}, fmt.Errorf("clock time %q out of range", s)
	}
	return ct, nil
}

func (c ClockTime) Valid() bool {
	return c.Hour >= 0 && c.Hour <= 23 && c.Minute >= 0 && c.Minute <= 59
}

func (c ClockTime) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour, c.Minute)
}

// Minutes returns the offset from midnight.
func (c ClockTime) Minutes() int { return c.Hour*60 + c.Minute }

// Before reports whether c is strictly earlier in the day than other.
func (c ClockTime) Before(other ClockTime) bool { return c.Minutes() < other.Minutes() }

// On anchors the clock time on the given date in the date's location.
func (c ClockTime) On(date time.Time) time.Time {
	return time.Date(date.Year(), date.Month(), date.Day(), c.Hour, c.Minute, 0, 0, date.Location())
}

// Timing holds the resolved date range and optional start/end times.
// StartDate and EndDate are midnight UTC dates; EndDate is never before
// StartDate on a validated record.
type Timing struct {
	StartDate time.Time  `json:"startDate"`
	EndDate   time.Time  `json:"endDate"`
	StartTime *ClockTime `json:"startTime,omitempty"`
	EndTime   *ClockTime `json:"endTime,omitempty"`
	AllDay    bool       `json:"allDay"`
	RawText   string     `json:"rawText,omitempty"`
}

// MultiDay reports whether the event spans more than one calendar day.
func (t Timing) MultiDay() bool {
	return !t.EndDate.IsZero() && !t.EndDate.Equal(t.StartDate)
}

// DurationDays counts calendar days covered, inclusive of both endpoints.
func (t Timing) DurationDays() int {
	if t.StartDate.IsZero() {
		return 0
	}
	end := t.EndDate
	if end.IsZero() {
		end = t.StartDate
	}
	return int(end.Sub(t.StartDate).Hours()/24) + 1
}

// DurationMinutes derives the within-day duration. Zero when either time
// is missing or the pair is inverted.
func (t Timing) DurationMinutes() int {
	if t.StartTime == nil || t.EndTime == nil {
		return 0
	}
	d := t.EndTime.Minutes() - t.StartTime.Minutes()
	if d < 0 {
		return 0
	}
	return d
}

// Location describes where an event happens. Coordinates are optional and
// only trusted for scheduling travel-time checks when both are set.
type Location struct {
	Name       string   `json:"name"`
	Address    string   `json:"address,omitempty"`
	City       string   `json:"city,omitempty"`
	Prefecture string   `json:"prefecture,omitempty"`
	Latitude   *float64 `json:"latitude,omitempty"`
	Longitude  *float64 `json:"longitude,omitempty"`
	Capacity   *int     `json:"capacity,omitempty"`
}

// HasCoordinates reports whether both latitude and longitude are present.
func (l Location) HasCoordinates() bool {
	return l.Latitude != nil && l.Longitude != nil
}

// Pricing describes admission cost. Amount is the representative adult
// or single-tier price; the optional tiers carry per-audience prices
// when the source publishes them. Free events keep every amount at zero.
type Pricing struct {
	Free         bool     `json:"free"`
	Amount       float64  `json:"amount,omitempty"`
	AdultPrice   *float64 `json:"adultPrice,omitempty"`
	ChildPrice   *float64 `json:"childPrice,omitempty"`
	SeniorPrice  *float64 `json:"seniorPrice,omitempty"`
	AdvancePrice *float64 `json:"advancePrice,omitempty"`
	Currency     string   `json:"currency,omitempty"`
	RawText      string   `json:"rawText,omitempty"`
}

// Clone returns a deep copy.
func (p *Pricing) Clone() *Pricing {
	if p == nil {
		return nil
	}
	cp := *p
	cp.AdultPrice = copyFloat(p.AdultPrice)
	cp.ChildPrice = copyFloat(p.ChildPrice)
	cp.SeniorPrice = copyFloat(p.SeniorPrice)
	cp.AdvancePrice = copyFloat(p.AdvancePrice)
	return &cp
}

func copyFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

// Contact carries organizer contact details extracted from the source page.
type Contact struct {
	Phone   string `json:"phone,omitempty"`
	Email   string `json:"email,omitempty"`
	Website string `json:"website,omitempty"`
}

// Record is one aggregated event. A record may be the merge of several
// source records; Sources then lists every contributing origin.
type Record struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	Category    Category `json:"category"`
	Tags        []string `json:"tags,omitempty"`

	Timing   Timing    `json:"timing"`
	Location *Location `json:"location,omitempty"`
	Pricing  *Pricing  `json:"pricing,omitempty"`
	Contact  *Contact  `json:"contact,omitempty"`

	SourceURL  string   `json:"sourceUrl,omitempty"`
	SourceSite string   `json:"sourceSite,omitempty"`
	Sources    []string `json:"sources,omitempty"`

	QualityScore float64      `json:"qualityScore"`
	QualityLevel QualityLevel `json:"qualityLevel"`
	Confidence   float64      `json:"confidence,omitempty"`

	CollectedAt time.Time `json:"collectedAt,omitempty"`
	UpdatedAt   time.Time `json:"updatedAt,omitempty"`
}

// IdentityHash is a stable fingerprint over the fields that identify an
// event across scrapes. It survives merges because merging keeps the
// higher-quality record's title and location.
func (r *Record) IdentityHash() string {
	var loc string
	if r.Location != nil {
		loc = r.Location.Name
	}
	sum := sha256.Sum256([]byte(strings.TrimSpace(r.Title) + "|" + strings.TrimSpace(loc)))
	return hex.EncodeToString(sum[:])[:16]
}

// AddSource records an origin, keeping Sources deduplicated and sorted.
func (r *Record) AddSource(src string) {
	src = strings.TrimSpace(src)
	if src == "" {
		return
	}
	for _, s := range r.Sources {
		if s == src {
			return
		}
	}
	r.Sources = append(r.Sources, src)
	sort.Strings(r.Sources)
}

// Clone returns a deep copy. Merge and auto-fix operate on clones so that
// callers holding the original see no mutation.
func (r *Record) Clone() *Record {
	cp := *r
	cp.Tags = append([]string(nil), r.Tags...)
	cp.Sources = append([]string(nil), r.Sources...)
	if r.Timing.StartTime != nil {
		st := *r.Timing.StartTime
		cp.Timing.StartTime = &st
	}
	if r.Timing.EndTime != nil {
		et := *r.Timing.EndTime
		cp.Timing.EndTime = &et
	}
	if r.Location != nil {
		loc := *r.Location
		if r.Location.Latitude != nil {
			v := *r.Location.Latitude
			loc.Latitude = &v
		}
		if r.Location.Longitude != nil {
			v := *r.Location.Longitude
			loc.Longitude = &v
		}
		if r.Location.Capacity != nil {
			v := *r.Location.Capacity
			loc.Capacity = &v
		}
		cp.Location = &loc
	}
	cp.Pricing = r.Pricing.Clone()
	if r.Contact != nil {
		c := *r.Contact
		cp.Contact = &c
	}
	return &cp
}

// RecomputeQuality rescores the record from its current fields and updates
// QualityScore and QualityLevel. Ten fields contribute equally. A record
// without a title is unusable no matter how complete the rest is, so it
// scores zero.
func (r *Record) RecomputeQuality() {
	if strings.TrimSpace(r.Title) == "" {
		r.QualityScore = 0
		r.QualityLevel = QualityPoor
		return
	}
	present := 1
	if strings.TrimSpace(r.Description) != "" {
		present++
	}
	if !r.Timing.StartDate.IsZero() {
		present++
	}
	if r.Timing.StartTime != nil {
		present++
	}
	if r.Location != nil && strings.TrimSpace(r.Location.Name) != "" {
		present++
	}
	if r.Location != nil && strings.TrimSpace(r.Location.Address) != "" {
		present++
	}
	if r.Category.Valid() && r.Category != CategoryOther {
		present++
	}
	if r.Pricing != nil {
		present++
	}
	if r.Contact != nil && (r.Contact.Phone != "" || r.Contact.Email != "" || r.Contact.Website != "") {
		present++
	}
	if r.SourceURL != "" {
		present++
	}
	r.QualityScore = float64(present) * 10
	r.QualityLevel = QualityLevelForScore(r.QualityScore)
}
