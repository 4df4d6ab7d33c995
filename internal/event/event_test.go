package event

import (
	"testing"
	"time"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestParseClockTime(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in      string
		want    ClockTime
		wantErr bool
	}{
		{in: "19:00", want: ClockTime{Hour: 19}},
		{in: "9:30", want: ClockTime{Hour: 9, Minute: 30}},
		{in: " 08:05 ", want: ClockTime{Hour: 8, Minute: 5}},
		{in: "24:00", wantErr: true},
		{in: "12:60", wantErr: true},
		{in: "noon", wantErr: true},
	}
	for _, tc := range cases {
		got, err := ParseClockTime(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Fatalf("ParseClockTime(%q): expected error, got %v", tc.in, got)
			}
			continue
		}
		if err != nil {
			t.Fatalf("ParseClockTime(%q): %v", tc.in, err)
		}
		if got != tc.want {
			t.Fatalf("ParseClockTime(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestTimingDurationDays(t *testing.T) {
	t.Parallel()

	single := Timing{StartDate: date(2025, 8, 1), EndDate: date(2025, 8, 1)}
	if single.MultiDay() {
		t.Fatalf("single-day timing reported as multi-day")
	}
	if got := single.DurationDays(); got != 1 {
		t.Fatalf("single day duration = %d, want 1", got)
	}

	span := Timing{StartDate: date(2025, 9, 1), EndDate: date(2025, 9, 3)}
	if !span.MultiDay() {
		t.Fatalf("three-day timing not reported as multi-day")
	}
	if got := span.DurationDays(); got != 3 {
		t.Fatalf("three-day duration = %d, want 3", got)
	}
}

func TestIdentityHashStableAcrossClones(t *testing.T) {
	t.Parallel()

	rec := &Record{
		Title:    "第71回北日本新聞納涼花火（高岡会場）",
		Location: &Location{Name: "高岡市庄川河川敷"},
	}
	h := rec.IdentityHash()
	if len(h) != 16 {
		t.Fatalf("identity hash length = %d, want 16", len(h))
	}
	if got := rec.Clone().IdentityHash(); got != h {
		t.Fatalf("clone identity hash = %s, want %s", got, h)
	}

	other := &Record{Title: rec.Title, Location: &Location{Name: "富山市環水公園"}}
	if other.IdentityHash() == h {
		t.Fatalf("different locations produced the same identity hash")
	}
}

func TestCloneIsDeep(t *testing.T) {
	t.Parallel()

	lat, lng := 36.7, 137.0
	adult := 1500.0
	st := ClockTime{Hour: 19, Minute: 30}
	rec := &Record{
		Title:    "おわら風の盆",
		Tags:     []string{"祭り", "伝統"},
		Timing:   Timing{StartDate: date(2025, 9, 1), EndDate: date(2025, 9, 3), StartTime: &st},
		Location: &Location{Name: "越中八尾", Latitude: &lat, Longitude: &lng},
		Pricing:  &Pricing{Amount: 1500, AdultPrice: &adult},
		Contact:  &Contact{Website: "https://www.yatsuo.net"},
	}

	cp := rec.Clone()
	cp.Tags[0] = "changed"
	cp.Timing.StartTime.Hour = 10
	*cp.Location.Latitude = 0
	cp.Pricing.Free = true
	*cp.Pricing.AdultPrice = 0
	cp.Contact.Website = ""

	if rec.Tags[0] != "祭り" {
		t.Fatalf("clone shares tags slice")
	}
	if rec.Timing.StartTime.Hour != 19 {
		t.Fatalf("clone shares start time pointer")
	}
	if *rec.Location.Latitude != 36.7 {
		t.Fatalf("clone shares latitude pointer")
	}
	if rec.Pricing.Free || *rec.Pricing.AdultPrice != 1500 {
		t.Fatalf("clone shares pricing pointers")
	}
	if rec.Contact.Website == "" {
		t.Fatalf("clone shares contact pointer")
	}
}

func TestAddSourceDeduplicates(t *testing.T) {
	t.Parallel()

	rec := &Record{}
	rec.AddSource("info-toyama")
	rec.AddSource("toyama-life")
	rec.AddSource("info-toyama")
	rec.AddSource("  ")
	if got := len(rec.Sources); got != 2 {
		t.Fatalf("sources length = %d, want 2", got)
	}
	if rec.Sources[0] != "info-toyama" || rec.Sources[1] != "toyama-life" {
		t.Fatalf("sources not sorted: %v", rec.Sources)
	}
}

func TestRecomputeQuality(t *testing.T) {
	t.Parallel()

	empty := &Record{}
	empty.RecomputeQuality()
	if empty.QualityScore != 0 || empty.QualityLevel != QualityPoor {
		t.Fatalf("empty record quality = %v/%v, want 0/poor", empty.QualityScore, empty.QualityLevel)
	}

	st := ClockTime{Hour: 19}
	full := &Record{
		Title:       "環水公園サマーファウンテン",
		Description: "夜の噴水ショー",
		Category:    CategoryEntertainment,
		Timing:      Timing{StartDate: date(2025, 8, 1), StartTime: &st},
		Location:    &Location{Name: "富岩運河環水公園", Address: "富山市湊入船町"},
		Pricing:     &Pricing{Free: true},
		Contact:     &Contact{Phone: "076-444-6041"},
		SourceURL:   "https://www.kansui-park.jp",
	}
	full.RecomputeQuality()
	if full.QualityScore != 100 || full.QualityLevel != QualityHigh {
		t.Fatalf("full record quality = %v/%v, want 100/high", full.QualityScore, full.QualityLevel)
	}

	full.Category = CategoryOther
	full.RecomputeQuality()
	if full.QualityScore != 90 {
		t.Fatalf("score with category other = %v, want 90", full.QualityScore)
	}

	full.Category = CategoryEntertainment
	full.Title = "  "
	full.RecomputeQuality()
	if full.QualityScore != 0 || full.QualityLevel != QualityPoor {
		t.Fatalf("untitled record quality = %v/%v, want 0/poor", full.QualityScore, full.QualityLevel)
	}
}

func TestTimingDurationMinutes(t *testing.T) {
	t.Parallel()

	st := ClockTime{Hour: 10}
	et := ClockTime{Hour: 16, Minute: 30}
	timed := Timing{StartDate: date(2025, 8, 1), StartTime: &st, EndTime: &et}
	if got := timed.DurationMinutes(); got != 390 {
		t.Fatalf("duration = %d, want 390", got)
	}

	if got := (Timing{StartDate: date(2025, 8, 1), StartTime: &st}).DurationMinutes(); got != 0 {
		t.Fatalf("duration without end time = %d, want 0", got)
	}

	inverted := Timing{StartDate: date(2025, 8, 1), StartTime: &et, EndTime: &st}
	if got := inverted.DurationMinutes(); got != 0 {
		t.Fatalf("inverted duration = %d, want 0", got)
	}
}

func TestQualityLevelForScore(t *testing.T) {
	t.Parallel()

	cases := []struct {
		score float64
		want  QualityLevel
	}{
		{score: 95, want: QualityHigh},
		{score: 80, want: QualityHigh},
		{score: 79.9, want: QualityMedium},
		{score: 60, want: QualityMedium},
		{score: 45, want: QualityLow},
		{score: 10, want: QualityPoor},
	}
	for _, tc := range cases {
		if got := QualityLevelForScore(tc.score); got != tc.want {
			t.Fatalf("QualityLevelForScore(%v) = %v, want %v", tc.score, got, tc.want)
		}
	}
}
