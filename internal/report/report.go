// Package report aggregates the output of one pipeline run into the
// summary consumed by the process command and the HTTP API.
package report

import (
	"fmt"
	"sort"
	"time"

	"github.com/sasayosh1/sasayosh1-event-toyama2/internal/dedup"
	"github.com/sasayosh1/sasayosh1-event-toyama2/internal/event"
	"github.com/sasayosh1/sasayosh1-event-toyama2/internal/globaltime"
	"github.com/sasayosh1/sasayosh1-event-toyama2/internal/quality"
	"github.com/sasayosh1/sasayosh1-event-toyama2/internal/schedule"
)

// topEventCount caps the quality leaderboard.
const topEventCount = 10

// peakDayThreshold is the event count above which a date is called out
// as crowded.
const peakDayThreshold = 3

type Summary struct {
	TotalEvents       int     `json:"totalEvents"`
	OriginalCount     int     `json:"originalCount"`
	DuplicatesMerged  int     `json:"duplicatesMerged"`
	ConflictsDetected int     `json:"conflictsDetected"`
	ConflictsResolved int     `json:"conflictsResolved"`
	OptimizationScore float64 `json:"optimizationScore"`
	AverageQuality    float64 `json:"averageQuality"`
}

type Distribution struct {
	ByCategory map[string]int `json:"byCategory"`
	ByQuality  map[string]int `json:"byQuality"`
	BySource   map[string]int `json:"bySource"`
	ByMonth    map[string]int `json:"byMonth"`
	ByDate     map[string]int `json:"byDate"`
}

type DuplicateSummary struct {
	MatchesFound     int            `json:"matchesFound"`
	AutoMerged       int            `json:"autoMerged"`
	ConfidenceCounts map[string]int `json:"confidenceCounts"`
	Pairs            []MatchSummary `json:"pairs,omitempty"`
}

type MatchSummary struct {
	TitleA     string   `json:"titleA"`
	TitleB     string   `json:"titleB"`
	Type       string   `json:"type"`
	Confidence float64  `json:"confidence"`
	Reasoning  []string `json:"reasoning"`
	AutoMerged bool     `json:"autoMerged"`
}

type ConflictSummary struct {
	Type           string  `json:"type"`
	Severity       float64 `json:"severity"`
	Description    string  `json:"description"`
	TitleA         string  `json:"titleA"`
	TitleB         string  `json:"titleB"`
	AutoResolvable bool    `json:"autoResolvable"`
	Resolved       bool    `json:"resolved"`
}

type EventSummary struct {
	ID           string  `json:"id"`
	Title        string  `json:"title"`
	Category     string  `json:"category"`
	StartDate    string  `json:"startDate"`
	City         string  `json:"city,omitempty"`
	QualityScore float64 `json:"qualityScore"`
	QualityLevel string  `json:"qualityLevel"`
}

// Report is the aggregate view of one pipeline run.
type Report struct {
	GeneratedAt     time.Time         `json:"generatedAt"`
	RunID           string            `json:"runId,omitempty"`
	Summary         Summary           `json:"summary"`
	Distribution    Distribution      `json:"distribution"`
	Quality         quality.Metrics   `json:"quality"`
	Duplicates      DuplicateSummary  `json:"duplicates"`
	Conflicts       []ConflictSummary `json:"conflicts"`
	TopEvents       []EventSummary    `json:"topEvents"`
	Insights        []string          `json:"insights"`
	Recommendations []string          `json:"recommendations"`
}

// Build assembles the report from the stage outputs. Any of the stage
// results may be nil when the run skipped that stage.
func Build(events []*event.Record, qualityRes *quality.Result, dedupRes *dedup.Result, opt *schedule.Optimization) *Report {
	rep := &Report{
		GeneratedAt: globaltime.Now().UTC(),
		Distribution: Distribution{
			ByCategory: map[string]int{},
			ByQuality:  map[string]int{},
			BySource:   map[string]int{},
			ByMonth:    map[string]int{},
			ByDate:     map[string]int{},
		},
	}

	rep.Summary.TotalEvents = len(events)
	rep.Summary.OriginalCount = len(events)

	var qualitySum float64
	for _, rec := range events {
		rep.Distribution.ByCategory[string(rec.Category)]++
		rep.Distribution.ByQuality[string(rec.QualityLevel)]++
		for _, src := range rec.Sources {
			rep.Distribution.BySource[src]++
		}
		if len(rec.Sources) == 0 && rec.SourceSite != "" {
			rep.Distribution.BySource[rec.SourceSite]++
		}
		if !rec.Timing.StartDate.IsZero() {
			rep.Distribution.ByMonth[rec.Timing.StartDate.Format("2006-01")]++
			rep.Distribution.ByDate[rec.Timing.StartDate.Format("2006-01-02")]++
		}
		qualitySum += rec.QualityScore
	}
	if len(events) > 0 {
		rep.Summary.AverageQuality = qualitySum / float64(len(events))
	}

	if qualityRes != nil {
		rep.Quality = qualityRes.Metrics
		rep.Recommendations = append(rep.Recommendations, qualityRes.Suggestions...)
	}

	if dedupRes != nil {
		rep.Summary.OriginalCount = dedupRes.OriginalCount
		rep.Summary.DuplicatesMerged = dedupRes.OriginalCount - dedupRes.DeduplicatedCount
		rep.Duplicates = summarizeDuplicates(dedupRes)
	}

	if opt != nil {
		rep.Summary.ConflictsDetected = len(opt.Resolved) + len(opt.Remaining)
		rep.Summary.ConflictsResolved = len(opt.Resolved)
		rep.Summary.OptimizationScore = opt.Score
		rep.Conflicts = summarizeConflicts(opt)
		rep.Recommendations = append(rep.Recommendations, opt.Recommendations...)
	}

	rep.TopEvents = topByQuality(events)
	rep.Insights = insights(rep)
	return rep
}

func summarizeDuplicates(res *dedup.Result) DuplicateSummary {
	sum := DuplicateSummary{
		MatchesFound:     len(res.Matches),
		AutoMerged:       res.AutoMergedPairs,
		ConfidenceCounts: map[string]int{},
	}
	for level, n := range res.ConfidenceCounts {
		sum.ConfidenceCounts[string(level)] = n
	}
	for _, m := range res.Matches {
		sum.Pairs = append(sum.Pairs, MatchSummary{
			TitleA:     m.A.Title,
			TitleB:     m.B.Title,
			Type:       string(m.Type),
			Confidence: m.Confidence,
			Reasoning:  m.Reasoning,
			AutoMerged: m.AutoMergeable,
		})
	}
	return sum
}

func summarizeConflicts(opt *schedule.Optimization) []ConflictSummary {
	var out []ConflictSummary
	for _, c := range opt.Resolved {
		out = append(out, conflictSummary(c, true))
	}
	for _, c := range opt.Remaining {
		out = append(out, conflictSummary(c, false))
	}
	return out
}

func conflictSummary(c schedule.Conflict, resolved bool) ConflictSummary {
	return ConflictSummary{
		Type:           string(c.Type),
		Severity:       c.Severity,
		Description:    c.Description,
		TitleA:         c.A.Title,
		TitleB:         c.B.Title,
		AutoResolvable: c.AutoResolvable,
		Resolved:       resolved,
	}
}

func topByQuality(events []*event.Record) []EventSummary {
	ranked := append([]*event.Record(nil), events...)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].QualityScore > ranked[j].QualityScore
	})
	if len(ranked) > topEventCount {
		ranked = ranked[:topEventCount]
	}
	out := make([]EventSummary, 0, len(ranked))
	for _, rec := range ranked {
		es := EventSummary{
			ID:           rec.ID,
			Title:        rec.Title,
			Category:     string(rec.Category),
			QualityScore: rec.QualityScore,
			QualityLevel: string(rec.QualityLevel),
		}
		if !rec.Timing.StartDate.IsZero() {
			es.StartDate = rec.Timing.StartDate.Format("2006-01-02")
		}
		if rec.Location != nil {
			es.City = rec.Location.City
		}
		out = append(out, es)
	}
	return out
}

// insights produces the operator-facing observations about the batch.
func insights(rep *Report) []string {
	var out []string

	if date, count := maxEntry(rep.Distribution.ByDate); count > peakDayThreshold {
		out = append(out, fmt.Sprintf("%sに%d件のイベントが集中しています", date, count))
	}
	if cat, count := maxEntry(rep.Distribution.ByCategory); cat != "" {
		out = append(out, fmt.Sprintf("%sカテゴリーが最多で%d件です", cat, count))
	}
	lowCount := rep.Distribution.ByQuality[string(event.QualityLow)] +
		rep.Distribution.ByQuality[string(event.QualityPoor)]
	if float64(lowCount) > float64(rep.Summary.TotalEvents)*0.3 {
		out = append(out, fmt.Sprintf("データ品質の低いイベントが%d件あります", lowCount))
	}
	if rep.Summary.DuplicatesMerged > 0 {
		out = append(out, fmt.Sprintf("%d件の重複イベントを統合しました", rep.Summary.DuplicatesMerged))
	}
	return out
}

// maxEntry picks the entry with the highest count. Ties break on the
// smaller key so the output is deterministic.
func maxEntry(m map[string]int) (string, int) {
	bestKey := ""
	bestCount := 0
	for key, count := range m {
		if count > bestCount || (count == bestCount && bestKey != "" && key < bestKey) {
			bestKey, bestCount = key, count
		}
	}
	return bestKey, bestCount
}
