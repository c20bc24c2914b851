package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/orgball2608/insta-post-analyzer/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteJSON(t *testing.T) {
	dir := t.TempDir()
	post := domain.Post{
		Shortcode: "DIG9r12pVc6",
		Author:    domain.Author{Username: "cafe", ID: "1"},
		Caption:   "Káva & croissant <3 #café",
		Hashtags:  []string{"café"},
	}

	path, err := writeJSON(dir, post.Shortcode, dataFile, post)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "DIG9r12pVc6", "data.json"), path)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"caption": "Káva & croissant <3 #café"`)

	var got domain.Post
	require.NoError(t, json.Unmarshal(raw, &got))
	assert.Equal(t, post.Caption, got.Caption)
}

func TestWriteJSONOverwrites(t *testing.T) {
	dir := t.TempDir()

	_, err := writeJSON(dir, "abc", analysisFile, map[string]int{"average_score": 10})
	require.NoError(t, err)
	path, err := writeJSON(dir, "abc", analysisFile, map[string]int{"average_score": 74})
	require.NoError(t, err)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.JSONEq(t, `{"average_score":74}`, string(raw))
}

func TestSummary(t *testing.T) {
	out := summary(&domain.Result{
		Engagement:       domain.CategoryAnalysis{Score: 78},
		Quality:          domain.CategoryAnalysis{Score: 85},
		Relevance:        domain.CategoryAnalysis{Score: 64},
		AudienceBehavior: domain.CategoryAnalysis{Score: 70},
		AverageScore:     74,
	})

	assert.Contains(t, out, "Average score: 74/100")
	assert.Contains(t, out, "Audience_Behavior")
	assert.Contains(t, out, " 85\n")
}
