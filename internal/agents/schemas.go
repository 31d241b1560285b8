package agents

import (
	"google.golang.org/genai"

	"github.com/shubh-37/ideaflow/internal/models"
)

var stringList = &genai.Schema{
	Type:  genai.TypeArray,
	Items: &genai.Schema{Type: genai.TypeString},
}

var ideaListSchema = &genai.Schema{
	Type: genai.TypeArray,
	Items: &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"title":            {Type: genai.TypeString},
			"shortDescription": {Type: genai.TypeString},
			"tags":             stringList,
			"emoji":            {Type: genai.TypeString},
			"impactScore":      {Type: genai.TypeNumber, Description: "Score from 1 to 10 representing potential impact"},
			"feasibilityScore": {Type: genai.TypeNumber, Description: "Score from 1 to 10 representing ease of implementation"},
			"colorTheme":       {Type: genai.TypeString, Description: "A hex color code suitable for this idea branding"},
		},
		Required: []string{"title", "shortDescription", "tags", "emoji", "impactScore", "feasibilityScore", "colorTheme"},
	},
}

var analysisSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"targetAudience":          stringList,
		"revenueModels":           stringList,
		"techStackRecommendation": stringList,
		"marketAnalysis": {
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"competitorCount": {Type: genai.TypeString, Enum: competitorEnum()},
				"demandLevel":     {Type: genai.TypeNumber, Description: "1-100"},
				"growthPotential": {Type: genai.TypeNumber, Description: "1-100"},
				"difficulty":      {Type: genai.TypeNumber, Description: "1-100"},
			},
			Required: []string{"competitorCount", "demandLevel", "growthPotential", "difficulty"},
		},
		"nextSteps":           stringList,
		"detailedDescription": {Type: genai.TypeString},
	},
	Required: []string{"targetAudience", "revenueModels", "techStackRecommendation", "marketAnalysis", "nextSteps", "detailedDescription"},
}

var relatedTopicsSchema = stringList

func competitorEnum() []string {
	out := make([]string, len(models.CompetitorDensities))
	for i, d := range models.CompetitorDensities {
		out[i] = string(d)
	}
	return out
}
