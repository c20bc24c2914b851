package domain

import (
	"time"

	"github.com/google/uuid"
)

// Request sources
const (
	SourceHTTP     = "http"
	SourceTelegram = "telegram"
	SourceCLI      = "cli"
)

// Request outcomes
const (
	StatusSucceeded = "succeeded"
	StatusFailed    = "failed"
)

// AnalysisRequest is the audit record of one pipeline run.
// It never carries the analysis content.
type AnalysisRequest struct {
	ID           uuid.UUID
	Shortcode    string
	Source       string
	Status       string
	ErrorCode    string
	AverageScore *int
	Duration     time.Duration
	CreatedAt    time.Time
}
