package quality

import (
	"fmt"
	"strings"

	"github.com/sasayosh1/sasayosh1-event-toyama2/internal/event"
)

// Score computes the quality metrics for one record given its validation
// findings.
func Score(rec *event.Record, issues []Issue) Metrics {
	counts := make(map[Severity]int)
	var accuracyIssues, consistencyIssues, suspiciousIssues, criticalIssues int
	for _, is := range issues {
		counts[is.Severity]++
		if is.Severity == SeverityCritical {
			criticalIssues++
		}
		switch is.Category {
		case CategoryAccuracy:
			accuracyIssues++
		case CategoryConsistency:
			consistencyIssues++
		case CategorySuspicious:
			suspiciousIssues++
		}
	}

	completeness := completenessScore(rec)

	accuracy := 100.0 - 30*float64(criticalIssues) - 15*float64(accuracyIssues)
	if accuracy < 0 {
		accuracy = 0
	}

	consistency := 100.0 - 20*float64(consistencyIssues)
	if consistency < 0 {
		consistency = 0
	}

	reliability := 100.0 - 25*float64(suspiciousIssues)
	if strings.HasPrefix(rec.SourceURL, "https") {
		reliability += 5
	}
	if rec.Contact != nil && rec.Contact.Phone != "" && rec.Contact.Email != "" {
		reliability += 5
	}
	if reliability > 100 {
		reliability = 100
	}
	if reliability < 0 {
		reliability = 0
	}

	return Metrics{
		Completeness: completeness,
		Accuracy:     accuracy,
		Consistency:  consistency,
		Reliability:  reliability,
		Overall:      completeness*0.3 + accuracy*0.25 + consistency*0.25 + reliability*0.2,
		IssueCounts:  counts,
	}
}

// completenessScore counts filled fields out of the ten that matter.
func completenessScore(rec *event.Record) float64 {
	filled := 0
	if strings.TrimSpace(rec.Title) != "" {
		filled++
	}
	if len([]rune(strings.TrimSpace(rec.Description))) > 10 {
		filled++
	}
	if !rec.Timing.StartDate.IsZero() {
		filled++
	}
	if rec.Timing.StartTime != nil {
		filled++
	}
	if rec.Location != nil && rec.Location.Name != "" {
		filled++
	}
	if rec.Location != nil && rec.Location.Address != "" {
		filled++
	}
	if rec.Contact != nil && (rec.Contact.Phone != "" || rec.Contact.Email != "") {
		filled++
	}
	if rec.Pricing != nil {
		filled++
	}
	if strings.HasPrefix(rec.SourceURL, "http") {
		filled++
	}
	if rec.Category != event.CategoryOther && rec.Category.Valid() {
		filled++
	}
	return float64(filled) / 10 * 100
}

// AutoFix repairs the known-safe subset of issues in place and returns
// how many fixes were applied. Each fix is idempotent.
func (v *Validator) AutoFix(rec *event.Record, issues []Issue) int {
	fixes := 0
	for _, is := range issues {
		if !is.AutoFixable {
			continue
		}
		switch {
		case is.Field == "title" && strings.Contains(is.Message, "余分な空白"):
			rec.Title = anySpaceRunRe.ReplaceAllString(strings.TrimSpace(rec.Title), " ")
			fixes++
		case is.Field == "timing.endDate":
			if !rec.Timing.EndDate.IsZero() && rec.Timing.EndDate.Before(rec.Timing.StartDate) {
				rec.Timing.EndDate = rec.Timing.StartDate
				fixes++
			}
		case is.Field == "timing.startTime":
			if rec.Timing.StartTime != nil && rec.Timing.EndTime != nil &&
				rec.Timing.EndTime.Before(*rec.Timing.StartTime) {
				rec.Timing.StartTime, rec.Timing.EndTime = rec.Timing.EndTime, rec.Timing.StartTime
				fixes++
			}
		case strings.HasPrefix(is.Field, "pricing."):
			if v := pricingAmount(rec.Pricing, is.Field); v != nil && *v < 0 {
				*v = -*v
				fixes++
			}
		}
	}
	return fixes
}

// ProcessAll validates a batch. With auto-fix on, safe repairs happen in
// place and each record is re-validated before scoring, so reported
// findings reflect the repaired state. Per-record problems never abort
// the batch.
func (v *Validator) ProcessAll(events []*event.Record) Result {
	var (
		allIssues  []Issue
		allMetrics []Metrics
		fixes      int
	)
	for _, rec := range events {
		issues := v.Validate(rec)
		if v.autoFix {
			if n := v.AutoFix(rec, issues); n > 0 {
				fixes += n
				issues = v.Validate(rec)
			}
		}
		rec.RecomputeQuality()
		allIssues = append(allIssues, issues...)
		allMetrics = append(allMetrics, Score(rec, issues))
	}

	res := Result{
		TotalEvents:      len(events),
		Issues:           allIssues,
		Metrics:          averageMetrics(allMetrics),
		AutoFixesApplied: fixes,
	}
	res.Suggestions = suggestions(allIssues, res.Metrics)
	return res
}

func averageMetrics(list []Metrics) Metrics {
	if len(list) == 0 {
		return Metrics{IssueCounts: map[Severity]int{}}
	}
	out := Metrics{IssueCounts: make(map[Severity]int)}
	for _, m := range list {
		out.Completeness += m.Completeness
		out.Accuracy += m.Accuracy
		out.Consistency += m.Consistency
		out.Reliability += m.Reliability
		out.Overall += m.Overall
		for sev, n := range m.IssueCounts {
			out.IssueCounts[sev] += n
		}
	}
	n := float64(len(list))
	out.Completeness /= n
	out.Accuracy /= n
	out.Consistency /= n
	out.Reliability /= n
	out.Overall /= n
	return out
}

// suggestions turns aggregate findings into operator-facing advice.
func suggestions(issues []Issue, m Metrics) []string {
	var out []string
	byCategory := make(map[IssueCategory]int)
	for _, is := range issues {
		byCategory[is.Category]++
	}

	if n := m.IssueCounts[SeverityCritical]; n > 0 {
		out = append(out, fmt.Sprintf("緊急対応が必要な問題が%d件あります。データ整合性を確認してください。", n))
	}
	if n := byCategory[CategoryCompleteness]; n > 0 {
		out = append(out, fmt.Sprintf("データの不完全性が%d件検出されました。欠損情報の補完を検討してください。", n))
	}
	if n := byCategory[CategorySuspicious]; n > 0 {
		out = append(out, fmt.Sprintf("疑わしいデータが%d件検出されました。テストデータの混入を確認してください。", n))
	}
	if m.Overall < 70 {
		out = append(out, "全体的なデータ品質が低下しています。収集元の見直しを検討してください。")
	}
	return out
}
