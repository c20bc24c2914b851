package analysisrequest

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/orgball2608/insta-post-analyzer/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInsertQuery(t *testing.T) {
	score := 72
	id := uuid.New()
	created := time.Date(2025, 4, 1, 10, 0, 0, 0, time.UTC)

	query, args, err := insertQuery(domain.AnalysisRequest{
		ID:           id,
		Shortcode:    "DIGYx2ZMwFv",
		Source:       domain.SourceHTTP,
		Status:       domain.StatusSucceeded,
		AverageScore: &score,
		Duration:     1500 * time.Millisecond,
		CreatedAt:    created,
	})
	require.NoError(t, err)

	assert.Equal(t,
		"INSERT INTO analysis_requests (id,shortcode,source,status,error_code,average_score,duration_ms,created_at) VALUES ($1,$2,$3,$4,$5,$6,$7,$8)",
		query)
	require.Len(t, args, 8)
	assert.Equal(t, id, args[0])
	assert.Nil(t, args[4].(*string))
	assert.Equal(t, &score, args[5])
	assert.Equal(t, int64(1500), args[6])
	assert.Equal(t, created, args[7])
}

func TestInsertQueryFillsDefaults(t *testing.T) {
	_, args, err := insertQuery(domain.AnalysisRequest{
		Shortcode: "abc",
		Source:    domain.SourceCLI,
		Status:    domain.StatusFailed,
		ErrorCode: "UPSTREAM_SHAPE",
	})
	require.NoError(t, err)

	assert.NotEqual(t, uuid.Nil, args[0])
	code, ok := args[4].(*string)
	require.True(t, ok)
	require.NotNil(t, code)
	assert.Equal(t, "UPSTREAM_SHAPE", *code)
	assert.False(t, args[7].(time.Time).IsZero())
}

func TestCleanupQuery(t *testing.T) {
	cutoff := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

	query, args, err := cleanupQuery(cutoff)
	require.NoError(t, err)

	assert.Equal(t, "DELETE FROM analysis_requests WHERE created_at < $1", query)
	assert.Equal(t, []interface{}{cutoff}, args)
}
