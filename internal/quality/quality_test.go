package quality

import (
	"strings"
	"testing"
	"time"

	"github.com/sasayosh1/sasayosh1-event-toyama2/internal/event"
	"github.com/sasayosh1/sasayosh1-event-toyama2/internal/globaltime"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func mockToday(t *testing.T, d time.Time) {
	t.Helper()
	globaltime.SetMockTime(d)
	t.Cleanup(globaltime.ResetTime)
}

func validRecord() *event.Record {
	st := event.ClockTime{Hour: 18}
	et := event.ClockTime{Hour: 21}
	return &event.Record{
		Title:       "高岡御車山祭り",
		Description: "ユネスコ無形文化遺産に登録された高岡の伝統的な曳山祭りです。",
		Category:    event.CategoryFestival,
		Timing: event.Timing{
			StartDate: day(2025, 9, 6),
			EndDate:   day(2025, 9, 6),
			StartTime: &st,
			EndTime:   &et,
		},
		Location:  &event.Location{Name: "高岡市山町筋", Address: "富山県高岡市守山町", City: "高岡"},
		Pricing:   &event.Pricing{Free: true},
		Contact:   &event.Contact{Phone: "0766-20-1301", Email: "info@takaoka.example.jp"},
		SourceURL: "https://www.takaoka.example.jp/mikurumayama",
	}
}

func hasIssue(issues []Issue, cat IssueCategory, sev Severity) bool {
	for _, is := range issues {
		if is.Category == cat && is.Severity == sev {
			return true
		}
	}
	return false
}

func TestValidateCleanRecord(t *testing.T) {
	mockToday(t, day(2025, 8, 29))

	issues := NewValidator(false).Validate(validRecord())
	for _, is := range issues {
		if is.Severity == SeverityCritical || is.Severity == SeverityHigh {
			t.Fatalf("clean record flagged: %+v", is)
		}
	}
}

func TestValidateEmptyTitle(t *testing.T) {
	mockToday(t, day(2025, 8, 29))

	rec := validRecord()
	rec.Title = ""
	issues := NewValidator(false).Validate(rec)
	if !hasIssue(issues, CategoryIntegrity, SeverityCritical) {
		t.Fatalf("empty title not flagged critical: %+v", issues)
	}

	m := Score(rec, issues)
	if m.Accuracy > 70 {
		t.Fatalf("critical issue barely dented accuracy: %v", m.Accuracy)
	}
}

func TestValidateDateBounds(t *testing.T) {
	mockToday(t, day(2025, 8, 29))
	v := NewValidator(false)

	past := validRecord()
	past.Timing.StartDate = day(2025, 6, 1)
	past.Timing.EndDate = day(2025, 6, 1)
	if !hasIssue(v.Validate(past), CategoryIntegrity, SeverityHigh) {
		t.Fatalf("stale start date not flagged")
	}

	future := validRecord()
	future.Timing.StartDate = day(2031, 1, 1)
	future.Timing.EndDate = day(2031, 1, 1)
	if !hasIssue(v.Validate(future), CategoryIntegrity, SeverityMedium) {
		t.Fatalf("far-future start date not flagged")
	}
}

func TestValidateSuspiciousTitle(t *testing.T) {
	mockToday(t, day(2025, 8, 29))
	v := NewValidator(false)

	cases := []string{"テストイベント", "sample event", "12345", "ああああああ祭り"}
	for _, title := range cases {
		rec := validRecord()
		rec.Title = title
		if !hasIssue(v.Validate(rec), CategorySuspicious, SeverityHigh) {
			t.Fatalf("suspicious title %q not flagged", title)
		}
	}
}

func TestAutoFixEndDateClamp(t *testing.T) {
	mockToday(t, day(2025, 8, 29))

	rec := validRecord()
	rec.Timing.EndDate = day(2025, 9, 1)

	v := NewValidator(true)
	res := v.ProcessAll([]*event.Record{rec})
	if res.AutoFixesApplied == 0 {
		t.Fatalf("end-date clamp not applied")
	}
	if !rec.Timing.EndDate.Equal(rec.Timing.StartDate) {
		t.Fatalf("end date = %v, want clamped to %v", rec.Timing.EndDate, rec.Timing.StartDate)
	}
}

func TestAutoFixTimeSwap(t *testing.T) {
	mockToday(t, day(2025, 8, 29))

	rec := validRecord()
	st := event.ClockTime{Hour: 21}
	et := event.ClockTime{Hour: 18}
	rec.Timing.StartTime = &st
	rec.Timing.EndTime = &et

	NewValidator(true).ProcessAll([]*event.Record{rec})
	if !rec.Timing.StartTime.Before(*rec.Timing.EndTime) {
		t.Fatalf("times not swapped: start %v end %v", rec.Timing.StartTime, rec.Timing.EndTime)
	}
}

func TestAutoFixPriceSignAndWhitespace(t *testing.T) {
	mockToday(t, day(2025, 8, 29))

	rec := validRecord()
	rec.Title = "高岡  御車山   祭り"
	rec.Pricing = &event.Pricing{Free: false, Amount: -500}

	NewValidator(true).ProcessAll([]*event.Record{rec})
	if strings.Contains(rec.Title, "  ") {
		t.Fatalf("whitespace not collapsed: %q", rec.Title)
	}
	if rec.Pricing.Amount != 500 {
		t.Fatalf("price = %v, want 500", rec.Pricing.Amount)
	}
}

func TestAutoFixNegativeTierPrices(t *testing.T) {
	mockToday(t, day(2025, 8, 29))

	adult := -1500.0
	child := -500.0
	rec := validRecord()
	rec.Pricing = &event.Pricing{Free: false, Amount: 1500, AdultPrice: &adult, ChildPrice: &child}

	NewValidator(true).ProcessAll([]*event.Record{rec})
	if *rec.Pricing.AdultPrice != 1500 || *rec.Pricing.ChildPrice != 500 {
		t.Fatalf("tier prices not flipped: adult %v child %v",
			*rec.Pricing.AdultPrice, *rec.Pricing.ChildPrice)
	}
	if rec.Pricing.Amount != 1500 {
		t.Fatalf("amount changed: %v", rec.Pricing.Amount)
	}
}

func TestAutoFixIdempotent(t *testing.T) {
	mockToday(t, day(2025, 8, 29))

	rec := validRecord()
	rec.Title = "高岡   御車山祭り"
	rec.Timing.EndDate = day(2025, 9, 1)
	rec.Pricing = &event.Pricing{Free: false, Amount: -1000}

	v := NewValidator(true)
	v.ProcessAll([]*event.Record{rec})

	second := v.ProcessAll([]*event.Record{rec})
	if second.AutoFixesApplied != 0 {
		t.Fatalf("second pass applied %d fixes, want 0", second.AutoFixesApplied)
	}
}

func TestScoreFullRecord(t *testing.T) {
	mockToday(t, day(2025, 8, 29))

	rec := validRecord()
	issues := NewValidator(false).Validate(rec)
	m := Score(rec, issues)

	if m.Completeness != 100 {
		t.Fatalf("completeness = %v, want 100", m.Completeness)
	}
	if m.Reliability != 100 {
		t.Fatalf("reliability = %v, want 100 (https + full contact)", m.Reliability)
	}
	if m.Overall < 90 {
		t.Fatalf("overall = %v, want >= 90", m.Overall)
	}
}

func TestProcessAllEmptyBatch(t *testing.T) {
	mockToday(t, day(2025, 8, 29))

	res := NewValidator(true).ProcessAll(nil)
	if res.TotalEvents != 0 || len(res.Issues) != 0 {
		t.Fatalf("empty batch produced findings: %+v", res)
	}
}
