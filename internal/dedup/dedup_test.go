package dedup

import (
	"testing"
	"time"

	"github.com/sasayosh1/sasayosh1-event-toyama2/internal/event"
	"github.com/sasayosh1/sasayosh1-event-toyama2/internal/normalize"
	"github.com/sasayosh1/sasayosh1-event-toyama2/internal/similarity"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func newEngine() *Engine {
	return NewEngine(similarity.NewCalculator(normalize.New()), 0)
}

func fireworksRecord(site, desc string) *event.Record {
	rec := &event.Record{
		Title:       "第71回北日本新聞納涼花火（高岡会場）",
		Description: desc,
		Category:    event.CategoryFestival,
		Timing:      event.Timing{StartDate: day(2025, 8, 4), EndDate: day(2025, 8, 4)},
		Location:    &event.Location{Name: "高岡市庄川河川敷"},
		SourceSite:  site,
	}
	rec.RecomputeQuality()
	return rec
}

func TestFindDuplicatesExactPair(t *testing.T) {
	t.Parallel()

	a := fireworksRecord("info-toyama", "夏の夜空を彩る花火大会")
	b := fireworksRecord("toyama-life", "庄川河川敷で開催される恒例の花火大会です")

	matches := newEngine().FindDuplicates([]*event.Record{a, b})
	if len(matches) != 1 {
		t.Fatalf("matches = %d, want 1", len(matches))
	}
	m := matches[0]
	if m.Type != ExactDuplicate {
		t.Fatalf("match type = %s, want %s", m.Type, ExactDuplicate)
	}
	if !m.AutoMergeable {
		t.Fatalf("exact duplicate with confidence %v not auto-mergeable", m.Confidence)
	}
	if m.ConfidenceLevel != ConfidenceVeryHigh {
		t.Fatalf("confidence level = %s, want %s", m.ConfidenceLevel, ConfidenceVeryHigh)
	}
	if len(m.Reasoning) == 0 {
		t.Fatalf("match carries no reasoning")
	}
	if m.MergeSuggestion == nil {
		t.Fatalf("exact duplicate carries no merge suggestion")
	}
}

func TestFindDuplicatesTitleVariantPair(t *testing.T) {
	t.Parallel()

	a := &event.Record{
		Title:      "第71回北日本新聞納涼花火高岡会場",
		Category:   event.CategoryFestival,
		Timing:     event.Timing{StartDate: day(2025, 8, 4)},
		Location:   &event.Location{Name: "高岡市中心部"},
		SourceSite: "info-toyama",
	}
	a.RecomputeQuality()
	b := &event.Record{
		Title:      "北日本新聞納涼花火大会　高岡会場",
		Category:   event.CategoryFestival,
		Timing:     event.Timing{StartDate: day(2025, 8, 4)},
		Location:   &event.Location{Name: "高岡市"},
		SourceSite: "toyama-life",
	}
	b.RecomputeQuality()

	matches := newEngine().FindDuplicates([]*event.Record{a, b})
	if len(matches) != 1 {
		t.Fatalf("matches = %d, want 1", len(matches))
	}
	m := matches[0]
	if m.Type != ExactDuplicate && m.Type != LikelyDuplicate {
		t.Fatalf("match type = %s (conf %v), want a duplicate classification", m.Type, m.Confidence)
	}
	if !m.AutoMergeable {
		t.Fatalf("title-variant duplicate with confidence %v not auto-mergeable", m.Confidence)
	}

	res := newEngine().Deduplicate([]*event.Record{a, b}, true)
	if res.DeduplicatedCount != 1 {
		t.Fatalf("deduplicated count = %d, want 1", res.DeduplicatedCount)
	}
	if len(res.Events[0].Sources) != 2 {
		t.Fatalf("merged sources = %v, want both sites", res.Events[0].Sources)
	}
}

func TestFindDuplicatesUnrelatedPair(t *testing.T) {
	t.Parallel()

	a := fireworksRecord("info-toyama", "")
	b := &event.Record{
		Title:      "となみチューリップフェア",
		Category:   event.CategoryNature,
		Timing:     event.Timing{StartDate: day(2026, 4, 22)},
		Location:   &event.Location{Name: "砺波チューリップ公園"},
		SourceSite: "tonami-city",
	}
	b.RecomputeQuality()

	if matches := newEngine().FindDuplicates([]*event.Record{a, b}); len(matches) != 0 {
		t.Fatalf("unrelated events matched: %+v", matches[0])
	}
}

func TestMergePrefersHigherQualityBase(t *testing.T) {
	t.Parallel()

	lat, lng := 36.73, 137.02
	rich := fireworksRecord("info-toyama", "夏の夜空を彩る恒例の花火大会。約3000発を打ち上げます。")
	rich.Contact = &event.Contact{Phone: "0766-21-1600"}
	rich.Tags = []string{"花火", "夏"}
	rich.RecomputeQuality()

	poor := fireworksRecord("toyama-life", "花火大会")
	poor.Location.Latitude = &lat
	poor.Location.Longitude = &lng
	poor.Tags = []string{"花火", "屋台"}
	poor.Contact = &event.Contact{Website: "https://example.jp/hanabi"}
	poor.RecomputeQuality()

	merged := Merge(rich, poor)

	if merged.Description != rich.Description {
		t.Fatalf("merged description = %q, want the longer one", merged.Description)
	}
	if !merged.Location.HasCoordinates() {
		t.Fatalf("merged record lost the geocode")
	}
	if merged.Contact.Phone != "0766-21-1600" || merged.Contact.Website != "https://example.jp/hanabi" {
		t.Fatalf("contact not merged: %+v", merged.Contact)
	}
	if len(merged.Tags) != 3 {
		t.Fatalf("tags not unioned: %v", merged.Tags)
	}
	if len(merged.Sources) != 2 {
		t.Fatalf("sources = %v, want both sites", merged.Sources)
	}

	// Inputs stay untouched.
	if rich.Location.HasCoordinates() {
		t.Fatalf("merge mutated an input record")
	}
	if len(poor.Tags) != 2 {
		t.Fatalf("merge mutated the other input's tags")
	}
}

func TestMergeBackfillsEndDateAndCity(t *testing.T) {
	t.Parallel()

	rich := fireworksRecord("info-toyama", "夏の夜空を彩る恒例の花火大会。約3000発を打ち上げます。")
	rich.Timing.EndDate = time.Time{}
	rich.Contact = &event.Contact{Phone: "0766-21-1600"}
	rich.RecomputeQuality()

	poor := fireworksRecord("toyama-life", "")
	poor.Timing.EndDate = day(2025, 8, 5)
	poor.Location.City = "高岡市"
	poor.RecomputeQuality()

	merged := Merge(rich, poor)

	if !merged.Timing.EndDate.Equal(day(2025, 8, 5)) {
		t.Fatalf("merged end date = %v, want the absorbed record's", merged.Timing.EndDate)
	}
	if merged.Location.City != "高岡市" {
		t.Fatalf("merged city = %q, want 高岡市", merged.Location.City)
	}
	if !rich.Timing.EndDate.IsZero() || rich.Location.City != "" {
		t.Fatalf("merge mutated an input record")
	}
}

func TestMergeSymmetricBaseSelection(t *testing.T) {
	t.Parallel()

	rich := fireworksRecord("info-toyama", "長い説明のある高品質なレコードです")
	rich.Contact = &event.Contact{Phone: "0766-21-1600"}
	rich.RecomputeQuality()
	poor := fireworksRecord("toyama-life", "")
	poor.RecomputeQuality()

	if got := Merge(poor, rich); got.Description != rich.Description {
		t.Fatalf("argument order changed the merge base")
	}
}

func TestDeduplicateGreedyNonTransitive(t *testing.T) {
	t.Parallel()

	a := fireworksRecord("info-toyama", "")
	b := fireworksRecord("toyama-life", "")
	c := fireworksRecord("takaoka-city", "")

	res := newEngine().Deduplicate([]*event.Record{a, b, c}, true)

	if res.OriginalCount != 3 {
		t.Fatalf("original count = %d", res.OriginalCount)
	}
	// One merge consumes two records; the third passes through untouched.
	if res.AutoMergedPairs != 1 {
		t.Fatalf("auto merged pairs = %d, want 1", res.AutoMergedPairs)
	}
	if res.DeduplicatedCount != 2 {
		t.Fatalf("deduplicated count = %d, want 2", res.DeduplicatedCount)
	}
}

func TestDeduplicateAutoMergeOff(t *testing.T) {
	t.Parallel()

	a := fireworksRecord("info-toyama", "")
	b := fireworksRecord("toyama-life", "")

	res := newEngine().Deduplicate([]*event.Record{a, b}, false)
	if res.DeduplicatedCount != 2 {
		t.Fatalf("auto-merge disabled but records merged: count = %d", res.DeduplicatedCount)
	}
	if len(res.Matches) != 1 {
		t.Fatalf("matches still reported off-merge: %d", len(res.Matches))
	}
	if res.Events[0] != a && res.Events[1] != a {
		t.Fatalf("original records not passed through")
	}
}

func TestDeduplicateEmptyInput(t *testing.T) {
	t.Parallel()

	res := newEngine().Deduplicate(nil, true)
	if res.OriginalCount != 0 || res.DeduplicatedCount != 0 || len(res.Matches) != 0 {
		t.Fatalf("empty input produced non-empty result: %+v", res)
	}
}
