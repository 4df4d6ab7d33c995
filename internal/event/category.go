package event

// Category classifies an event. Inferred from scraped text, not authoritative.
type Category string

const (
	CategoryFestival      Category = "festival"
	CategoryMarket        Category = "market"
	CategorySports        Category = "sports"
	CategoryCulture       Category = "culture"
	CategoryFood          Category = "food"
	CategoryNature        Category = "nature"
	CategoryEntertainment Category = "entertainment"
	CategoryEducation     Category = "education"
	CategoryBusiness      Category = "business"
	CategoryOther         Category = "other"
)

// Categories lists every known category in a stable order.
func Categories() []Category {
	return []Category{
		CategoryFestival,
		CategoryMarket,
		CategorySports,
		CategoryCulture,
		CategoryFood,
		CategoryNature,
		CategoryEntertainment,
		CategoryEducation,
		CategoryBusiness,
		CategoryOther,
	}
}

func (c Category) Valid() bool {
	switch c {
	case CategoryFestival, CategoryMarket, CategorySports, CategoryCulture,
		CategoryFood, CategoryNature, CategoryEntertainment, CategoryEducation,
		CategoryBusiness, CategoryOther:
		return true
	}
	return false
}

func (c Category) String() string { return string(c) }

// QualityLevel is the coarse bucket derived from a record's quality score.
type QualityLevel string

const (
	QualityHigh   QualityLevel = "high"
	QualityMedium QualityLevel = "medium"
	QualityLow    QualityLevel = "low"
	QualityPoor   QualityLevel = "poor"
)

// QualityLevelForScore buckets a 0-100 quality score.
func QualityLevelForScore(score float64) QualityLevel {
	switch {
	case score >= 80:
		return QualityHigh
	case score >= 60:
		return QualityMedium
	case score >= 40:
		return QualityLow
	default:
		return QualityPoor
	}
}
