package models

// Score bounds enforced on everything the generator sends back.
const (
	MinIdeaScore   = 1
	MaxIdeaScore   = 10
	MinMarketScore = 1
	MaxMarketScore = 100
)

// Idea is one generated concept. IDs are assigned locally, never by the model.
type Idea struct {
	ID               string   `json:"id"`
	Title            string   `json:"title"`
	ShortDescription string   `json:"shortDescription"`
	Tags             []string `json:"tags"`
	Emoji            string   `json:"emoji"`
	ImpactScore      float64  `json:"impactScore"`
	FeasibilityScore float64  `json:"feasibilityScore"`
	ColorTheme       string   `json:"colorTheme"`
}

// CardTags returns the tags shown on an idea card (at most three).
func (i Idea) CardTags() []string {
	if len(i.Tags) > 3 {
		return i.Tags[:3]
	}
	return i.Tags
}

type CompetitorDensity string

const (
	CompetitorLow    CompetitorDensity = "Low"
	CompetitorMedium CompetitorDensity = "Medium"
	CompetitorHigh   CompetitorDensity = "High"
)

// CompetitorDensities lists the values accepted in a market analysis.
var CompetitorDensities = []CompetitorDensity{CompetitorLow, CompetitorMedium, CompetitorHigh}

func (d CompetitorDensity) Valid() bool {
	switch d {
	case CompetitorLow, CompetitorMedium, CompetitorHigh:
		return true
	}
	return false
}

type MarketAnalysis struct {
	CompetitorCount CompetitorDensity `json:"competitorCount"`
	DemandLevel     float64           `json:"demandLevel"`
	GrowthPotential float64           `json:"growthPotential"`
	Difficulty      float64           `json:"difficulty"`
}

// IdeaAnalysis is the deep dive for a single Idea. It is fetched on demand
// and never stored.
type IdeaAnalysis struct {
	TargetAudience          []string       `json:"targetAudience"`
	RevenueModels           []string       `json:"revenueModels"`
	TechStackRecommendation []string       `json:"techStackRecommendation"`
	MarketAnalysis          MarketAnalysis `json:"marketAnalysis"`
	NextSteps               []string       `json:"nextSteps"`
	DetailedDescription     string         `json:"detailedDescription"`
}

// Clamp bounds v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
