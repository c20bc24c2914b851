package domain

// Category is one of the fixed evaluation dimensions
type Category string

const (
	CategoryEngagement       Category = "engagement"
	CategoryQuality          Category = "quality"
	CategoryRelevance        Category = "relevance"
	CategoryAudienceBehavior Category = "audience_behavior"
)

// Categories lists every category in result order
var Categories = []Category{
	CategoryEngagement,
	CategoryQuality,
	CategoryRelevance,
	CategoryAudienceBehavior,
}

// Title is the heading used in the rendered detail text
func (c Category) Title() string {
	switch c {
	case CategoryEngagement:
		return "Engagement"
	case CategoryQuality:
		return "Quality"
	case CategoryRelevance:
		return "Relevance"
	case CategoryAudienceBehavior:
		return "Audience_Behavior"
	}
	return string(c)
}

type Commentary struct {
	Positive string `json:"positive"`
	Neutral  string `json:"neutral"`
	Negative string `json:"negative"`
}

type CategoryAnalysis struct {
	Score      int        `json:"score"`
	Commentary Commentary `json:"commentary"`
	Pros       []string   `json:"pros"`
	Cons       []string   `json:"cons"`
	Tips       []string   `json:"tips"`
}

type Result struct {
	Engagement       CategoryAnalysis `json:"engagement"`
	Quality          CategoryAnalysis `json:"quality"`
	Relevance        CategoryAnalysis `json:"relevance"`
	AudienceBehavior CategoryAnalysis `json:"audience_behavior"`
	AverageScore     int              `json:"average_score"`
	OverallPros      []string         `json:"overall_pros"`
	OverallCons      []string         `json:"overall_cons"`
	Detail           string           `json:"detail"`
}

// Category returns the analysis for c
func (r *Result) Category(c Category) CategoryAnalysis {
	switch c {
	case CategoryEngagement:
		return r.Engagement
	case CategoryQuality:
		return r.Quality
	case CategoryRelevance:
		return r.Relevance
	case CategoryAudienceBehavior:
		return r.AudienceBehavior
	}
	return CategoryAnalysis{}
}
