package ingest

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/sasayosh1/sasayosh1-event-toyama2/internal/event"
)

// categoryPatterns drive keyword-count category scoring. The category
// with the most pattern hits across title and description wins.
var categoryPatterns = map[event.Category][]*regexp.Regexp{
	event.CategoryFestival: {
		regexp.MustCompile(`(?i)まつり|祭り|festival|フェスティバル|盆踊り|花火|hanabi|fireworks`),
		regexp.MustCompile(`(?i)おわら|風の盆|七夕|tanabata|神楽|kagura|太鼓`),
	},
	event.CategoryMarket: {
		regexp.MustCompile(`(?i)朝市|市場|マーケット|market|マルシェ|marche|バザー|販売会`),
		regexp.MustCompile(`(?i)物産展|特産品|直売|farmers|産直`),
	},
	event.CategorySports: {
		regexp.MustCompile(`(?i)スポーツ|運動|競技|sports|マラソン|marathon|サッカー|soccer`),
		regexp.MustCompile(`(?i)野球|baseball|テニス|tennis|ゴルフ|golf|水泳|swimming`),
	},
	event.CategoryCulture: {
		regexp.MustCompile(`(?i)展示|exhibition|美術館|博物館|museum|アート|art|文化`),
		regexp.MustCompile(`(?i)コンサート|concert|演奏|音楽|music|劇場|theater`),
	},
	event.CategoryFood: {
		regexp.MustCompile(`(?i)グルメ|料理|食べ物|food|レストラン|restaurant|酒|sake`),
		regexp.MustCompile(`(?i)ワイン|wine|ビール|beer|フード|食材|cooking`),
	},
	event.CategoryNature: {
		regexp.MustCompile(`(?i)自然|nature|公園|park|山|mountain|川|river|海|beach`),
		regexp.MustCompile(`(?i)花|flower|桜|cherry|紅葉|autumn|ハイキング|hiking`),
	},
	event.CategoryEntertainment: {
		regexp.MustCompile(`(?i)エンターテイメント|entertainment|ショー|show|パフォーマンス`),
		regexp.MustCompile(`(?i)映画|movie|アニメ|anime|ゲーム|game|イルミネーション`),
	},
	event.CategoryEducation: {
		regexp.MustCompile(`(?i)講座|lecture|セミナー|seminar|教室|class|学習|learning`),
		regexp.MustCompile(`(?i)体験|experience|ワークショップ|workshop|教育|education`),
	},
	event.CategoryBusiness: {
		regexp.MustCompile(`(?i)ビジネス|business|企業|company|会議|meeting|展示会`),
		regexp.MustCompile(`(?i)カンファレンス|conference|商談|networking|startup`),
	},
}

var timePatterns = []*regexp.Regexp{
	// Range forms first so a lone start match cannot shadow them.
	regexp.MustCompile(`(\d{1,2}):(\d{2})\s*[～〜\-–—]\s*(\d{1,2}):(\d{2})`),
	regexp.MustCompile(`(\d{1,2})時(\d{2})?分?\s*[～〜\-–—]\s*(\d{1,2})時(\d{2})?分?`),
	regexp.MustCompile(`(\d{1,2}):(\d{2})\s*開始`),
	regexp.MustCompile(`(\d{1,2})時(\d{2})?分?\s*開始`),
	regexp.MustCompile(`午前(\d{1,2})時(\d{2})?分?`),
	regexp.MustCompile(`午後(\d{1,2})時(\d{2})?分?`),
	regexp.MustCompile(`(\d{1,2}):(\d{2})`),
}

var (
	freeRe  = regexp.MustCompile(`(?i)入場無料|無料|free`)
	priceRe = regexp.MustCompile(`(\d+)[円￥]`)

	adultPriceRe   = regexp.MustCompile(`(?:大人|一般)\s*[:：]?\s*(\d+)[円￥]`)
	childPriceRe   = regexp.MustCompile(`(?:小中学生|小学生|小人|子供|こども)\s*[:：]?\s*(\d+)[円￥]`)
	seniorPriceRe  = regexp.MustCompile(`(?:シニア|高齢者|\d+歳以上)\s*[:：]?\s*(\d+)[円￥]`)
	advancePriceRe = regexp.MustCompile(`前売り?\s*[:：]?\s*(\d+)[円￥]`)

	phoneRe   = regexp.MustCompile(`(?i)(?:TEL|電話)[\s:：]*(\d{2,4}[-\s]?\d{2,4}[-\s]?\d{2,4})`)
	emailRe   = regexp.MustCompile(`([a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,})`)
	websiteRe = regexp.MustCompile(`(https?://[^\s　]+)`)
)

var tagPatterns = map[string]*regexp.Regexp{
	"outdoor":     regexp.MustCompile(`(?i)屋外|野外|アウトドア|outdoor`),
	"indoor":      regexp.MustCompile(`(?i)屋内|室内|インドア|indoor|ホール`),
	"family":      regexp.MustCompile(`(?i)家族|ファミリー|親子|family|子供`),
	"traditional": regexp.MustCompile(`(?i)伝統|和風|traditional|古典`),
	"seasonal":    regexp.MustCompile(`(?i)季節|春|夏|秋|冬|seasonal`),
	"limited":     regexp.MustCompile(`(?i)限定|special|期間限定|数量限定`),
}

// cityPatterns map venue text onto the municipality it sits in.
var cityPatterns = []struct {
	re   *regexp.Regexp
	city string
}{
	{regexp.MustCompile(`富山市|富山駅`), "富山市"},
	{regexp.MustCompile(`高岡市|高岡駅`), "高岡市"},
	{regexp.MustCompile(`魚津市|魚津駅`), "魚津市"},
	{regexp.MustCompile(`氷見市|氷見駅`), "氷見市"},
	{regexp.MustCompile(`黒部市|黒部駅`), "黒部市"},
	{regexp.MustCompile(`砺波市|砺波駅`), "砺波市"},
	{regexp.MustCompile(`小矢部市`), "小矢部市"},
	{regexp.MustCompile(`南砺市|南砺`), "南砺市"},
	{regexp.MustCompile(`射水市|射水`), "射水市"},
	{regexp.MustCompile(`滑川市|滑川`), "滑川市"},
	{regexp.MustCompile(`上市町|上市`), "上市町"},
	{regexp.MustCompile(`立山町|立山`), "立山町"},
	{regexp.MustCompile(`入善町|入善`), "入善町"},
	{regexp.MustCompile(`朝日町`), "朝日町"},
	{regexp.MustCompile(`舟橋村|舟橋`), "舟橋村"},
}

// extractTimes pulls start and end clock times out of free text.
func extractTimes(text string) (*event.ClockTime, *event.ClockTime) {
	for _, re := range timePatterns {
		m := re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		groups := m[1:]
		if len(groups) >= 4 && groups[0] != "" && groups[2] != "" {
			start := clockFrom(groups[0], groups[1])
			end := clockFrom(groups[2], groups[3])
			if start != nil && end != nil {
				return start, end
			}
			continue
		}
		if groups[0] != "" {
			minute := ""
			if len(groups) > 1 {
				minute = groups[1]
			}
			start := clockFrom(groups[0], minute)
			if start != nil {
				// 午後 forms carry a 12-hour offset.
				if strings.Contains(re.String(), "午後") && start.Hour < 12 {
					start.Hour += 12
				}
				return start, nil
			}
		}
	}
	return nil, nil
}

func clockFrom(hourStr, minuteStr string) *event.ClockTime {
	hour, err := strconv.Atoi(hourStr)
	if err != nil {
		return nil
	}
	minute := 0
	if minuteStr != "" {
		if minute, err = strconv.Atoi(minuteStr); err != nil {
			return nil
		}
	}
	ct := event.ClockTime{Hour: hour, Minute: minute}
	if !ct.Valid() {
		return nil
	}
	return &ct
}

// detectCategory scores every category's keyword hits and keeps the best.
func detectCategory(title, description string) event.Category {
	combined := title + " " + description
	best := event.CategoryOther
	bestScore := 0
	for _, cat := range event.Categories() {
		score := 0
		for _, re := range categoryPatterns[cat] {
			score += len(re.FindAllStringIndex(combined, -1))
		}
		if score > bestScore {
			best, bestScore = cat, score
		}
	}
	return best
}

// parsePricing reads admission pricing from description text. Labeled
// audience tiers are captured separately; the adult price doubles as the
// representative amount, falling back to the first bare price.
func parsePricing(text string) *event.Pricing {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	if freeRe.MatchString(text) {
		return &event.Pricing{Free: true, Currency: "JPY", RawText: text}
	}
	p := event.Pricing{Currency: "JPY", RawText: text}
	p.AdultPrice = tierPrice(adultPriceRe, text)
	p.ChildPrice = tierPrice(childPriceRe, text)
	p.SeniorPrice = tierPrice(seniorPriceRe, text)
	p.AdvancePrice = tierPrice(advancePriceRe, text)

	if p.AdultPrice != nil {
		p.Amount = *p.AdultPrice
	} else if m := priceRe.FindStringSubmatch(text); m != nil {
		if v, err := strconv.Atoi(m[1]); err == nil {
			p.Amount = float64(v)
		}
	}
	if p.Amount == 0 && p.ChildPrice == nil && p.SeniorPrice == nil && p.AdvancePrice == nil {
		return nil
	}
	return &p
}

func tierPrice(re *regexp.Regexp, text string) *float64 {
	m := re.FindStringSubmatch(text)
	if m == nil {
		return nil
	}
	v, err := strconv.Atoi(m[1])
	if err != nil {
		return nil
	}
	f := float64(v)
	return &f
}

// parseContact reads phone, email, and website from description text.
func parseContact(text string) *event.Contact {
	c := event.Contact{}
	if m := phoneRe.FindStringSubmatch(text); m != nil {
		c.Phone = m[1]
	}
	if m := emailRe.FindStringSubmatch(text); m != nil {
		c.Email = m[1]
	}
	if m := websiteRe.FindStringSubmatch(text); m != nil {
		c.Website = strings.TrimRight(m[1], "。、)")
	}
	if c.Phone == "" && c.Email == "" && c.Website == "" {
		return nil
	}
	return &c
}

// extractTags collects descriptive tags in a stable order.
func extractTags(title, description string) []string {
	combined := title + " " + description
	var tags []string
	for _, name := range []string{"outdoor", "indoor", "family", "traditional", "seasonal", "limited"} {
		if tagPatterns[name].MatchString(combined) {
			tags = append(tags, name)
		}
	}
	return tags
}

// detectCity finds the municipality referenced by the combined text.
func detectCity(text string) string {
	for _, p := range cityPatterns {
		if p.re.MatchString(text) {
			return p.city
		}
	}
	return ""
}

// parseConfidence scores how much of the record was recoverable from the
// raw payload, on a 0-100 scale.
func parseConfidence(rec *event.Record) float64 {
	confidence := 0.0
	if len([]rune(strings.TrimSpace(rec.Title))) > 5 {
		confidence += 25
	}
	if !rec.Timing.StartDate.IsZero() {
		confidence += 20
		if rec.Timing.StartTime != nil {
			confidence += 10
		}
	}
	if rec.Location != nil && rec.Location.Name != "" {
		confidence += 20
		if rec.Location.City != "" {
			confidence += 10
		}
	}
	if len([]rune(rec.Description)) > 20 {
		confidence += 15
	}
	return confidence
}
