package score

import "github.com/nao1215/linkaudit/internal/model"

// Category caps.
const (
	MaxBasicSEO    = 30
	MaxSocial      = 25
	MaxTechnical   = 25
	MaxPerformance = 20
	MaxTotal       = MaxBasicSEO + MaxSocial + MaxTechnical + MaxPerformance
)

// Thresholds used by the rubric.
const (
	minTitleLength       = 11
	maxTitleLength       = 59
	minDescriptionLength = 121
	maxDescriptionLength = 159
	maxPageSize          = 100 * 1024
	minInternalLinks     = 11
	maxExternalLinks     = 9
)

// Score rates the signals of one page.
func Score(s model.Signals) model.ScoreBreakdown {
	b := model.ScoreBreakdown{
		BasicSEO:    min(basicSEO(s), MaxBasicSEO),
		Social:      min(social(s), MaxSocial),
		Technical:   min(technical(s), MaxTechnical),
		Performance: min(performance(s), MaxPerformance),
	}
	b.Total = b.BasicSEO + b.Social + b.Technical + b.Performance
	return b
}

func basicSEO(s model.Signals) int {
	points := 0
	if s.TitleLength >= minTitleLength && s.TitleLength <= maxTitleLength {
		points += 8
	}
	if s.MetaDescLength >= minDescriptionLength && s.MetaDescLength <= maxDescriptionLength {
		points += 8
	}
	if s.H1Count == 1 {
		points += 6
	}
	if s.H2Count > 0 {
		points += 4
	}
	if s.ImageCount > 0 && s.ImagesMissingAlt == 0 {
		points += 4
	}
	return points
}

func social(s model.Signals) int {
	points := 0
	if s.TwitterCard {
		points += 5
	}
	if s.TwitterTitle {
		points += 3
	}
	if s.TwitterDescription {
		points += 3
	}
	if s.TwitterImage {
		points += 4
	}
	if s.OGType && s.OGTitle && s.OGDescription && s.OGImage {
		points += 10
	}
	return points
}

func technical(s model.Signals) int {
	points := 0
	if s.Canonical != "" {
		points += 5
	}
	if s.HTTPS {
		points += 5
	}
	if s.ResponsiveViewport {
		points += 5
	}
	if s.StructuredDataCount > 0 {
		points += 10
	}
	return points
}

func performance(s model.Signals) int {
	points := 0
	if s.PageSize < maxPageSize {
		points += 5
	}
	if s.LazyLoading {
		points += 5
	}
	if s.InternalLinks >= minInternalLinks {
		points += 5
	}
	if s.ExternalLinks <= maxExternalLinks {
		points += 5
	}
	return points
}

// Grade maps a total score to a letter.
func Grade(total int) string {
	switch {
	case total >= 90:
		return "A"
	case total >= 80:
		return "B"
	case total >= 70:
		return "C"
	case total >= 60:
		return "D"
	default:
		return "F"
	}
}

// Average returns the mean total of scores, or 0 when there are none.
func Average(scores []model.PageScore) float64 {
	if len(scores) == 0 {
		return 0
	}
	sum := 0
	for _, s := range scores {
		sum += s.Score.Total
	}
	return float64(sum) / float64(len(scores))
}
