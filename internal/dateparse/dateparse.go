// Package dateparse resolves Japanese and ISO date-range strings scraped
// from municipal event listings into concrete calendar dates.
package dateparse

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// DefaultMaxFutureDays bounds how far ahead a resolved date may land.
// Anything past it is treated as misparsed garbage.
const DefaultMaxFutureDays = 730

// yearInferencePastDays is how far in the past a year-less date may fall
// before we assume the writer meant next year.
const yearInferencePastDays = 30

// ParseError reports that no date could be recovered from a piece of text.
// Callers skip the offending record and continue the batch.
type ParseError struct {
	Text   string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse date range %q: %s", e.Text, e.Reason)
}

// Range is a resolved date range. End is nil for single-day listings.
type Range struct {
	Start time.Time
	End   *time.Time
}

// Parser resolves date text relative to a "today" supplied per call, so
// year inference is reproducible in tests.
type Parser struct {
	maxFutureDays int
}

// New returns a Parser with the default future-date bound.
func New() *Parser {
	return &Parser{maxFutureDays: DefaultMaxFutureDays}
}

// NewWithMaxFuture overrides the future-date bound. days <= 0 falls back
// to the default.
func NewWithMaxFuture(days int) *Parser {
	if days <= 0 {
		days = DefaultMaxFutureDays
	}
	return &Parser{maxFutureDays: days}
}

var (
	weekdayParenRe  = regexp.MustCompile(`[（(][月火水木金土日祝休・、,\s]+[)）]`)
	circledWeekdays = strings.NewReplacer("㈪", "", "㈫", "", "㈬", "", "㈭", "", "㈮", "", "㈯", "", "㈰", "")

	adjacentRe = regexp.MustCompile(`^(\d{4})年(\d{1,2})月(\d{1,2})日\D{0,3}?(\d{1,2})日$`)
	bareDayRe  = regexp.MustCompile(`^(\d{1,2})日?$`)
	monthDayRe = regexp.MustCompile(`^(\d{1,2})月(\d{1,2})日?$`)
	fullDateRe = regexp.MustCompile(`^(\d{4})[/-](\d{1,2})[/-](\d{1,2})$`)
	isoDateRe  = regexp.MustCompile(`^\d{4}-\d{1,2}-\d{1,2}$`)
	shortRe    = regexp.MustCompile(`^(\d{1,2})[/](\d{1,2})$`)

	rangeSeps = strings.NewReplacer("〜", "~", "～", "~", "–", "~", "—", "~", "-", "~")
	listSepRe = regexp.MustCompile(`[・、]`)
)

// ParseRange resolves text into a date range. The four recognized shapes
// are tried in order, each falling through to the next on failure:
// adjacent-day shorthand, multi-date list, explicit separator, single date.
func (p *Parser) ParseRange(text string, today time.Time) (Range, error) {
	cleaned := stripWeekdays(text)
	if strings.TrimSpace(cleaned) == "" {
		return Range{}, &ParseError{Text: text, Reason: "empty after stripping annotations"}
	}

	if r, ok := p.parseAdjacent(cleaned, today); ok {
		return r, nil
	}
	if r, ok := p.parseList(cleaned, today); ok {
		return r, nil
	}
	if r, ok := p.parseSeparated(cleaned, today); ok {
		return r, nil
	}

	start, err := p.parseSingle(cleaned, today)
	if err != nil {
		return Range{}, &ParseError{Text: text, Reason: err.Error()}
	}
	return Range{Start: start}, nil
}

// stripWeekdays drops parenthetical weekday annotations and the
// single-character circled weekday glyphs.
func stripWeekdays(text string) string {
	out := weekdayParenRe.ReplaceAllString(text, "")
	return circledWeekdays.Replace(out)
}

// parseAdjacent handles "2025年8月2日・3日" style shorthand where the
// second day inherits month and year from the first.
func (p *Parser) parseAdjacent(text string, today time.Time) (Range, bool) {
	m := adjacentRe.FindStringSubmatch(strings.TrimSpace(text))
	if m == nil {
		return Range{}, false
	}
	year, _ := strconv.Atoi(m[1])
	month, _ := strconv.Atoi(m[2])
	day, _ := strconv.Atoi(m[3])
	endDay, _ := strconv.Atoi(m[4])

	start, ok := makeDate(year, month, day)
	if !ok || p.tooFarFuture(start, today) {
		return Range{}, false
	}
	end, ok := makeDate(year, month, endDay)
	if !ok {
		return Range{}, false
	}
	return orderedRange(start, &end), true
}

// parseList handles multi-date lists split on "・" or "、". The first
// token anchors the range; the last date-like token closes it.
func (p *Parser) parseList(text string, today time.Time) (Range, bool) {
	if !listSepRe.MatchString(text) {
		return Range{}, false
	}
	parts := listSepRe.Split(text, -1)
	tokens := make([]string, 0, len(parts))
	for _, part := range parts {
		if s := strings.TrimSpace(part); s != "" {
			tokens = append(tokens, s)
		}
	}
	if len(tokens) < 2 {
		return Range{}, false
	}

	start, err := p.parseSingle(tokens[0], today)
	if err != nil {
		return Range{}, false
	}
	for i := len(tokens) - 1; i >= 1; i-- {
		end, err := p.parseRelative(tokens[i], start, today)
		if err != nil {
			continue
		}
		return orderedRange(start, &end), true
	}
	return Range{Start: start}, true
}

// parseSeparated handles an explicit range separator splitting the text
// into exactly two date expressions.
func (p *Parser) parseSeparated(text string, today time.Time) (Range, bool) {
	// An ISO date's dashes are not range separators.
	if isoDateRe.MatchString(strings.TrimSpace(text)) {
		return Range{}, false
	}
	norm := rangeSeps.Replace(text)
	if !strings.Contains(norm, "~") {
		return Range{}, false
	}
	parts := make([]string, 0, 2)
	for _, part := range strings.Split(norm, "~") {
		if s := strings.TrimSpace(part); s != "" {
			parts = append(parts, s)
		}
	}
	if len(parts) != 2 {
		return Range{}, false
	}

	start, err := p.parseSingle(parts[0], today)
	if err != nil {
		return Range{}, false
	}
	end, err := p.parseRelative(parts[1], start, today)
	if err != nil {
		return Range{Start: start}, true
	}
	return orderedRange(start, &end), true
}

// parseRelative parses an end expression that may be a bare day or a
// month+day, inheriting missing parts from the start date.
func (p *Parser) parseRelative(text string, start, today time.Time) (time.Time, error) {
	s := strings.TrimSpace(text)
	if m := bareDayRe.FindStringSubmatch(s); m != nil {
		day, _ := strconv.Atoi(m[1])
		if d, ok := makeDate(start.Year(), int(start.Month()), day); ok {
			return d, nil
		}
		return time.Time{}, fmt.Errorf("day %d invalid for %s", day, start.Format("2006-01"))
	}
	if m := monthDayRe.FindStringSubmatch(s); m != nil {
		month, _ := strconv.Atoi(m[1])
		day, _ := strconv.Atoi(m[2])
		if d, ok := makeDate(start.Year(), month, day); ok {
			return d, nil
		}
		return time.Time{}, fmt.Errorf("month/day %s invalid", s)
	}
	return p.parseSingle(s, today)
}

// parseSingle resolves one date expression, inferring the year for
// year-less forms.
func (p *Parser) parseSingle(text string, today time.Time) (time.Time, error) {
	cleaned := strings.NewReplacer("年", "/", "月", "/", "日", "", ".", "/").Replace(text)
	cleaned = strings.ReplaceAll(strings.TrimSpace(cleaned), " ", "")

	if m := fullDateRe.FindStringSubmatch(cleaned); m != nil {
		year, _ := strconv.Atoi(m[1])
		month, _ := strconv.Atoi(m[2])
		day, _ := strconv.Atoi(m[3])
		d, ok := makeDate(year, month, day)
		if !ok {
			return time.Time{}, fmt.Errorf("invalid calendar date %q", text)
		}
		if p.tooFarFuture(d, today) {
			return time.Time{}, fmt.Errorf("date %q too far in the future", text)
		}
		return d, nil
	}

	if m := shortRe.FindStringSubmatch(cleaned); m != nil {
		month, _ := strconv.Atoi(m[1])
		day, _ := strconv.Atoi(m[2])
		year := inferYear(month, today)
		d, ok := makeDate(year, month, day)
		if !ok {
			return time.Time{}, fmt.Errorf("invalid calendar date %q", text)
		}
		if d.Before(today.AddDate(0, 0, -yearInferencePastDays)) {
			d = d.AddDate(1, 0, 0)
		}
		if p.tooFarFuture(d, today) {
			return time.Time{}, fmt.Errorf("date %q too far in the future", text)
		}
		return d, nil
	}

	return time.Time{}, fmt.Errorf("no date token in %q", text)
}

// inferYear picks the year for a year-less month/day. Listings published
// late in the year routinely advertise early-next-year dates.
func inferYear(month int, today time.Time) int {
	cur := int(today.Month())
	if (cur == 11 || cur == 12) && month >= 1 && month <= 4 {
		return today.Year() + 1
	}
	return today.Year()
}

func (p *Parser) tooFarFuture(d, today time.Time) bool {
	return d.After(today.AddDate(0, 0, p.maxFutureDays))
}

// makeDate builds a UTC midnight date and rejects overflowed components
// such as February 30th.
func makeDate(year, month, day int) (time.Time, bool) {
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return time.Time{}, false
	}
	d := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if int(d.Month()) != month || d.Day() != day {
		return time.Time{}, false
	}
	return d, true
}

// orderedRange keeps the start<=end invariant. A year-crossing range such
// as "12/30〜1/2" resolves its end into the following year.
func orderedRange(start time.Time, end *time.Time) Range {
	if end == nil || !end.Before(start) {
		return Range{Start: start, End: end}
	}
	bumped := end.AddDate(1, 0, 0)
	if bumped.Before(start) {
		return Range{Start: start}
	}
	return Range{Start: start, End: &bumped}
}
