// Package quality validates event records, scores their data quality,
// and applies a small set of known-safe automatic fixes.
package quality

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/sasayosh1/sasayosh1-event-toyama2/internal/event"
	"github.com/sasayosh1/sasayosh1-event-toyama2/internal/globaltime"
)

// Severity ranks how bad a validation finding is.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityMedium   Severity = "medium"
	SeverityLow      Severity = "low"
	SeverityInfo     Severity = "info"
)

// IssueCategory groups findings by the rule family that produced them.
type IssueCategory string

const (
	CategoryIntegrity     IssueCategory = "data_integrity"
	CategoryCompleteness  IssueCategory = "completeness"
	CategoryConsistency   IssueCategory = "consistency"
	CategoryAccuracy      IssueCategory = "accuracy"
	CategoryFormatting    IssueCategory = "formatting"
	CategoryBusinessLogic IssueCategory = "business_logic"
	CategorySuspicious    IssueCategory = "suspicious_data"
)

// Issue is one structured validation finding. Issues are never errors;
// they are reported and, when safe, auto-fixed.
type Issue struct {
	EventID      string        `json:"eventId"`
	EventTitle   string        `json:"eventTitle"`
	Category     IssueCategory `json:"category"`
	Severity     Severity      `json:"severity"`
	Message      string        `json:"message"`
	Field        string        `json:"field"`
	SuggestedFix string        `json:"suggestedFix,omitempty"`
	AutoFixable  bool          `json:"autoFixable"`
}

// Metrics is the four-dimension quality breakdown for a record or a
// whole dataset, each on a 0-100 scale.
type Metrics struct {
	Completeness float64              `json:"completeness"`
	Accuracy     float64              `json:"accuracy"`
	Consistency  float64              `json:"consistency"`
	Reliability  float64              `json:"reliability"`
	Overall      float64              `json:"overall"`
	IssueCounts  map[Severity]int     `json:"issueCounts"`
}

// Result summarizes validation of a batch.
type Result struct {
	TotalEvents      int      `json:"totalEvents"`
	Issues           []Issue  `json:"issues"`
	Metrics          Metrics  `json:"metrics"`
	Suggestions      []string `json:"suggestions"`
	AutoFixesApplied int      `json:"autoFixesApplied"`
}

const (
	maxTitleLen    = 200
	minTitleLen    = 3
	maxPriceYen    = 50000
	pastGraceDays  = 30
	futureBoundDur = 5 * 365 * 24 * time.Hour
	maxDurationDay = 365
)

var suspiciousPatterns = []struct {
	re   *regexp.Regexp
	desc string
}{
	{regexp.MustCompile(`(?i)test|テスト`), "テストデータの可能性"},
	{regexp.MustCompile(`(?i)sample|サンプル`), "サンプルデータの可能性"},
	{regexp.MustCompile(`(?i)dummy|ダミー`), "ダミーデータの可能性"},
	{regexp.MustCompile(`(?i)example|例示`), "例示データの可能性"},
	{regexp.MustCompile(`^\d+$`), "数字のみのタイトル"},
	{regexp.MustCompile(`^[a-zA-Z]+$`), "英字のみのタイトル"},
	{regexp.MustCompile(`未定|未確定|TBD|TBA`), "未確定情報"},
}

// commonTypos maps frequent scrape artifacts onto their corrected form.
var commonTypos = map[string]string{
	"ﾏﾂﾘ":    "まつり",
	"マツリ":    "まつり",
	"Festival": "フェスティバル",
	"festival": "フェスティバル",
	"富山県富山県": "富山県",
	"富山市富山市": "富山市",
	"－":      "ー",
}

var cities = []string{"富山", "高岡", "魚津", "氷見", "黒部"}

var (
	festivalTitleRe = regexp.MustCompile(`(?i)まつり|祭り|祭|フェスティバル|festival`)
	excessSpaceRe   = regexp.MustCompile(`\s{3,}`)
	anySpaceRunRe   = regexp.MustCompile(`\s+`)
	urlRe           = regexp.MustCompile(`^https?://.+`)
)

// Validator runs the rule groups against records.
type Validator struct {
	autoFix bool
}

// NewValidator builds a Validator. When autoFix is on, ProcessAll repairs
// known-safe issues in place and re-validates before scoring.
func NewValidator(autoFix bool) *Validator {
	return &Validator{autoFix: autoFix}
}

// Validate runs every rule group against one record. Findings are
// reported, never fatal.
func (v *Validator) Validate(rec *event.Record) []Issue {
	var issues []Issue
	id := rec.ID
	if id == "" {
		id = rec.IdentityHash()
	}

	issues = append(issues, v.checkIntegrity(rec, id)...)
	issues = append(issues, v.checkCompleteness(rec, id)...)
	issues = append(issues, v.checkConsistency(rec, id)...)
	issues = append(issues, v.checkAccuracy(rec, id)...)
	issues = append(issues, v.checkFormatting(rec, id)...)
	issues = append(issues, v.checkBusinessLogic(rec, id)...)
	issues = append(issues, v.checkSuspicious(rec, id)...)
	return issues
}

func issue(id string, rec *event.Record, cat IssueCategory, sev Severity, msg, field, fix string, fixable bool) Issue {
	return Issue{
		EventID:      id,
		EventTitle:   rec.Title,
		Category:     cat,
		Severity:     sev,
		Message:      msg,
		Field:        field,
		SuggestedFix: fix,
		AutoFixable:  fixable,
	}
}

func (v *Validator) checkIntegrity(rec *event.Record, id string) []Issue {
	var out []Issue
	if strings.TrimSpace(rec.Title) == "" {
		out = append(out, issue(id, rec, CategoryIntegrity, SeverityCritical,
			"タイトルが空です", "title", "有効なタイトルを設定してください", false))
	}
	if !rec.Timing.StartDate.IsZero() {
		today := globaltime.Today()
		if rec.Timing.StartDate.Before(today.AddDate(0, 0, -pastGraceDays)) {
			out = append(out, issue(id, rec, CategoryIntegrity, SeverityHigh,
				fmt.Sprintf("開始日が過去すぎます: %s", rec.Timing.StartDate.Format("2006-01-02")),
				"timing.startDate", "現在または近い将来の日付に修正してください", false))
		}
		if rec.Timing.StartDate.After(today.Add(futureBoundDur)) {
			out = append(out, issue(id, rec, CategoryIntegrity, SeverityMedium,
				fmt.Sprintf("開始日が未来すぎます: %s", rec.Timing.StartDate.Format("2006-01-02")),
				"timing.startDate", "より近い将来の日付に修正してください", false))
		}
		if !rec.Timing.EndDate.IsZero() && rec.Timing.EndDate.Before(rec.Timing.StartDate) {
			out = append(out, issue(id, rec, CategoryIntegrity, SeverityCritical,
				"終了日が開始日より前です", "timing.endDate",
				"終了日を開始日以降に設定してください", true))
		}
	}
	return out
}

func (v *Validator) checkCompleteness(rec *event.Record, id string) []Issue {
	var out []Issue
	if rec.Timing.StartDate.IsZero() {
		out = append(out, issue(id, rec, CategoryCompleteness, SeverityHigh,
			"日時情報が不足しています", "timing", "開始日時を設定してください", false))
	}
	if rec.Location == nil || strings.TrimSpace(rec.Location.Name) == "" {
		out = append(out, issue(id, rec, CategoryCompleteness, SeverityHigh,
			"開催場所が不足しています", "location.name", "開催場所を設定してください", false))
	}
	if len([]rune(strings.TrimSpace(rec.Description))) < 10 {
		out = append(out, issue(id, rec, CategoryCompleteness, SeverityMedium,
			"説明文が不足または短すぎます", "description", "詳細な説明を追加してください", false))
	}
	if !strings.HasPrefix(rec.SourceURL, "http") {
		out = append(out, issue(id, rec, CategoryCompleteness, SeverityLow,
			"有効なソースURLが設定されていません", "sourceUrl", "正しいURLを設定してください", false))
	}
	return out
}

func (v *Validator) checkConsistency(rec *event.Record, id string) []Issue {
	var out []Issue
	if rec.Category == event.CategoryFestival && !festivalTitleRe.MatchString(rec.Title) {
		out = append(out, issue(id, rec, CategoryConsistency, SeverityLow,
			"タイトルとカテゴリー(祭り)が一致していません", "category",
			"カテゴリーを見直すか、タイトルを確認してください", false))
	}
	if rec.Location != nil && rec.Location.City != "" {
		titleCity := firstCity(rec.Title)
		locCity := firstCity(rec.Location.Name)
		if titleCity != "" && locCity != "" && titleCity != locCity {
			out = append(out, issue(id, rec, CategoryConsistency, SeverityMedium,
				"タイトルと開催地の都市が一致していません", "location.city",
				"タイトルと開催地の都市を統一してください", false))
		}
	}
	if rec.Timing.StartTime != nil && rec.Timing.EndTime != nil &&
		!rec.Timing.StartTime.Before(*rec.Timing.EndTime) {
		// Equal times cannot be repaired by swapping.
		fixable := rec.Timing.EndTime.Before(*rec.Timing.StartTime)
		out = append(out, issue(id, rec, CategoryConsistency, SeverityHigh,
			"開始時刻が終了時刻以降になっています", "timing.startTime",
			"開始時刻を終了時刻より前に設定してください", fixable))
	}
	return out
}

func (v *Validator) checkAccuracy(rec *event.Record, id string) []Issue {
	var out []Issue
	corrected := rec.Title
	for typo, fix := range commonTypos {
		corrected = strings.ReplaceAll(corrected, typo, fix)
	}
	if corrected != rec.Title {
		out = append(out, issue(id, rec, CategoryAccuracy, SeverityLow,
			"タイトルに一般的な誤字が含まれている可能性があります", "title",
			fmt.Sprintf("修正候補: %s", corrected), false))
	}
	if rec.Pricing != nil && !rec.Pricing.Free {
		if rec.Pricing.Amount > maxPriceYen {
			out = append(out, issue(id, rec, CategoryAccuracy, SeverityMedium,
				"料金が異常に高額です", "pricing.amount", "料金を確認してください", false))
		}
		for _, field := range pricingFields {
			if v := pricingAmount(rec.Pricing, field); v != nil && *v < 0 {
				out = append(out, issue(id, rec, CategoryAccuracy, SeverityHigh,
					"料金が負の値です", field, "正の値に修正してください", true))
			}
		}
	}
	return out
}

var pricingFields = []string{
	"pricing.amount",
	"pricing.adultPrice",
	"pricing.childPrice",
	"pricing.seniorPrice",
	"pricing.advancePrice",
}

// pricingAmount maps an issue field onto the price it refers to. Nil when
// the tier is absent.
func pricingAmount(p *event.Pricing, field string) *float64 {
	if p == nil {
		return nil
	}
	switch field {
	case "pricing.amount":
		return &p.Amount
	case "pricing.adultPrice":
		return p.AdultPrice
	case "pricing.childPrice":
		return p.ChildPrice
	case "pricing.seniorPrice":
		return p.SeniorPrice
	case "pricing.advancePrice":
		return p.AdvancePrice
	}
	return nil
}

func (v *Validator) checkFormatting(rec *event.Record, id string) []Issue {
	var out []Issue
	titleLen := len([]rune(rec.Title))
	if titleLen > maxTitleLen {
		out = append(out, issue(id, rec, CategoryFormatting, SeverityMedium,
			fmt.Sprintf("タイトルが長すぎます (%d文字)", titleLen), "title",
			fmt.Sprintf("%d文字以下に短縮してください", maxTitleLen), false))
	}
	if titleLen > 0 && titleLen < minTitleLen {
		out = append(out, issue(id, rec, CategoryFormatting, SeverityHigh,
			fmt.Sprintf("タイトルが短すぎます (%d文字)", titleLen), "title",
			fmt.Sprintf("%d文字以上にしてください", minTitleLen), false))
	}
	if excessSpaceRe.MatchString(rec.Title) {
		out = append(out, issue(id, rec, CategoryFormatting, SeverityLow,
			"タイトルに余分な空白があります", "title", "余分な空白を削除してください", true))
	}
	if rec.SourceURL != "" && !urlRe.MatchString(rec.SourceURL) {
		out = append(out, issue(id, rec, CategoryFormatting, SeverityMedium,
			"URLの形式が正しくありません", "sourceUrl",
			"http://またはhttps://で始まるURLにしてください", false))
	}
	return out
}

func (v *Validator) checkBusinessLogic(rec *event.Record, id string) []Issue {
	var out []Issue
	if !rec.Timing.StartDate.IsZero() && !rec.Timing.EndDate.IsZero() {
		days := int(rec.Timing.EndDate.Sub(rec.Timing.StartDate).Hours() / 24)
		if days > maxDurationDay {
			out = append(out, issue(id, rec, CategoryBusinessLogic, SeverityMedium,
				fmt.Sprintf("イベント期間が異常に長いです (%d日)", days), "timing.endDate",
				"期間を確認してください", false))
		}
	}
	if !rec.Timing.StartDate.IsZero() && rec.Category == event.CategoryFestival {
		wd := rec.Timing.StartDate.Weekday()
		if wd != time.Saturday && wd != time.Sunday {
			out = append(out, issue(id, rec, CategoryBusinessLogic, SeverityInfo,
				"祭りイベントが平日に開催されます", "timing.startDate",
				"日程を確認してください", false))
		}
	}
	return out
}

func (v *Validator) checkSuspicious(rec *event.Record, id string) []Issue {
	var out []Issue
	for _, p := range suspiciousPatterns {
		if p.re.MatchString(rec.Title) {
			out = append(out, issue(id, rec, CategorySuspicious, SeverityHigh,
				fmt.Sprintf("疑わしいデータ: %s", p.desc), "title",
				"実際のイベントデータかどうか確認してください", false))
		}
	}
	if run := longestRuneRun(rec.Title); run >= 6 {
		out = append(out, issue(id, rec, CategorySuspicious, SeverityHigh,
			"疑わしいデータ: 同一文字の連続", "title",
			"実際のイベントデータかどうか確認してください", false))
	}
	return out
}

// longestRuneRun finds the longest run of one repeated rune.
func longestRuneRun(s string) int {
	var prev rune
	run, best := 0, 0
	for _, r := range s {
		if r == prev {
			run++
		} else {
			prev, run = r, 1
		}
		if run > best {
			best = run
		}
	}
	return best
}

func firstCity(s string) string {
	for _, c := range cities {
		if strings.Contains(s, c) {
			return c
		}
	}
	return ""
}
