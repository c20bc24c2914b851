package analysis

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"testing"

	"github.com/orgball2608/insta-post-analyzer/internal/domain"
	"github.com/orgball2608/insta-post-analyzer/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadResponse(t *testing.T) string {
	t.Helper()
	raw, err := os.ReadFile("testdata/response.json")
	require.NoError(t, err)
	return string(raw)
}

// responseWithScores builds a valid model response with the given scores
func responseWithScores(scores ...int) string {
	parts := make([]string, 0, len(domain.Categories))
	for i, c := range domain.Categories {
		parts = append(parts, fmt.Sprintf(`%q: {
			"score": %d,
			"commentary": {"positive": "p-%[1]s", "neutral": "n-%[1]s", "negative": "x-%[1]s"},
			"pros": ["pro-%[1]s"],
			"cons": ["con-%[1]s"],
			"tips": ["tip-%[1]s"]
		}`, string(c), scores[i]))
	}
	return "{" + strings.Join(parts, ",") + "}"
}

func TestAggregate(t *testing.T) {
	result, err := Aggregate(loadResponse(t))
	require.NoError(t, err)

	assert.Equal(t, 78, result.Engagement.Score)
	assert.Equal(t, 85, result.Quality.Score)
	assert.Equal(t, 64, result.Relevance.Score)
	assert.Equal(t, 70, result.AudienceBehavior.Score)
	assert.Equal(t, (78+85+64+70)/4, result.AverageScore)
	assert.Equal(t, "Framing is standard.", result.Quality.Commentary.Neutral)

	assert.Equal(t, []string{
		"Clear call to action", "Warm tone",
		"Sharp focus", "Good lighting",
		"On-topic hashtags",
		"Familiar format",
	}, result.OverallPros)
	assert.Equal(t, []string{
		"Few comments so far",
		"Muted colors",
		"Generic niche", "No location",
		"Low shareability",
	}, result.OverallCons)
}

func TestAggregateAverageScore(t *testing.T) {
	tests := []struct {
		scores []int
		want   int
	}{
		{[]int{1, 1, 1, 1}, 1},
		{[]int{100, 100, 100, 100}, 100},
		{[]int{1, 100, 1, 100}, 50},
		{[]int{80, 81, 80, 80}, 80},
		{[]int{99, 100, 100, 100}, 99},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.scores), func(t *testing.T) {
			result, err := Aggregate(responseWithScores(tt.scores...))
			require.NoError(t, err)
			assert.Equal(t, tt.want, result.AverageScore)
		})
	}
}

func TestAverageScoreFloorsNegativeSums(t *testing.T) {
	assert.Equal(t, -1, AverageScore(-3))
	assert.Equal(t, -1, AverageScore(-4))
	assert.Equal(t, 0, AverageScore(3))
}

func TestAggregateAcceptsOutOfRangeScores(t *testing.T) {
	result, err := Aggregate(responseWithScores(0, 120, 50, 50))
	require.NoError(t, err)
	assert.Equal(t, 0, result.Engagement.Score)
	assert.Equal(t, 120, result.Quality.Score)
	assert.Equal(t, 55, result.AverageScore)
}

func TestAggregateStripsCodeFence(t *testing.T) {
	raw := "```json\n" + responseWithScores(10, 20, 30, 40) + "\n```"

	result, err := Aggregate(raw)
	require.NoError(t, err)
	assert.Equal(t, 25, result.AverageScore)
}

func TestAggregateDetail(t *testing.T) {
	result, err := Aggregate(responseWithScores(10, 20, 30, 40))
	require.NoError(t, err)

	want := strings.Join([]string{
		"Engagement Analysis:",
		"Score: 10",
		"Commentary:",
		"Positive: p-engagement",
		"Neutral: n-engagement",
		"Negative: x-engagement",
		"Tips:",
		"- tip-engagement",
		"",
		"Quality Analysis:",
		"Score: 20",
		"Commentary:",
		"Positive: p-quality",
		"Neutral: n-quality",
		"Negative: x-quality",
		"Tips:",
		"- tip-quality",
		"",
		"Relevance Analysis:",
		"Score: 30",
		"Commentary:",
		"Positive: p-relevance",
		"Neutral: n-relevance",
		"Negative: x-relevance",
		"Tips:",
		"- tip-relevance",
		"",
		"Audience_Behavior Analysis:",
		"Score: 40",
		"Commentary:",
		"Positive: p-audience_behavior",
		"Neutral: n-audience_behavior",
		"Negative: x-audience_behavior",
		"Tips:",
		"- tip-audience_behavior",
		"",
	}, "\n")
	assert.Equal(t, want, result.Detail)
}

func TestAggregateErrors(t *testing.T) {
	valid := loadResponse(t)

	mutate := func(fn func(map[string]map[string]interface{})) string {
		var cp map[string]map[string]interface{}
		require.NoError(t, json.Unmarshal([]byte(valid), &cp))
		fn(cp)
		out, err := json.Marshal(cp)
		require.NoError(t, err)
		return string(out)
	}

	tests := []struct {
		name  string
		raw   string
		code  string
		field string
	}{
		{
			name: "not json",
			raw:  "Sorry, I cannot evaluate this post.",
			code: errors.CodeAnalysisParse,
		},
		{
			name: "truncated",
			raw:  valid[:len(valid)/2],
			code: errors.CodeAnalysisParse,
		},
		{
			name: "array",
			raw:  "[1, 2, 3]",
			code: errors.CodeAnalysisShape,
		},
		{
			name: "null",
			raw:  "null",
			code: errors.CodeAnalysisShape,
		},
		{
			name: "category missing",
			raw: mutate(func(d map[string]map[string]interface{}) {
				delete(d, "relevance")
			}),
			code:  errors.CodeAnalysisShape,
			field: "relevance",
		},
		{
			name: "score missing",
			raw: mutate(func(d map[string]map[string]interface{}) {
				delete(d["engagement"], "score")
			}),
			code:  errors.CodeAnalysisShape,
			field: "engagement.score",
		},
		{
			name: "neutral missing",
			raw: mutate(func(d map[string]map[string]interface{}) {
				delete(d["quality"]["commentary"].(map[string]interface{}), "neutral")
			}),
			code:  errors.CodeAnalysisShape,
			field: "quality.commentary.neutral",
		},
		{
			name: "tips missing",
			raw: mutate(func(d map[string]map[string]interface{}) {
				delete(d["audience_behavior"], "tips")
			}),
			code:  errors.CodeAnalysisShape,
			field: "audience_behavior.tips",
		},
		{
			name: "score is text",
			raw: mutate(func(d map[string]map[string]interface{}) {
				d["quality"]["score"] = "high"
			}),
			code:  errors.CodeAnalysisShape,
			field: "quality.score",
		},
		{
			name: "extra category",
			raw: mutate(func(d map[string]map[string]interface{}) {
				d["virality"] = map[string]interface{}{"score": 1}
			}),
			code:  errors.CodeAnalysisShape,
			field: "virality",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := Aggregate(tt.raw)
			require.Error(t, err)
			assert.Nil(t, result)
			assert.Equal(t, tt.code, errors.GetCode(err))
			if tt.field != "" {
				assert.Equal(t, tt.field, errors.GetField(err))
			}
			assert.True(t, errors.Retryable(err))
		})
	}
}
