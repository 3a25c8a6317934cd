// RiskWatch - Intrusion Detection Risk Scoring and Live Dashboard
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package api is the HTTP transport: request decoding, validation, the
// response envelope, and routing to the ingestion, aggregation, and
// websocket components.
package api

import (
	"context"

	"github.com/nurrustem/riskwatch/internal/config"
	"github.com/nurrustem/riskwatch/internal/models"
	"github.com/nurrustem/riskwatch/internal/websocket"
)

// Ingestor processes validated alert submissions.
type Ingestor interface {
	Ingest(ctx context.Context, input *models.AlertInput) (*models.Alert, error)
}

// AlertReader serves the recent-alerts feed.
type AlertReader interface {
	ListRecentAlerts(ctx context.Context, limit int) ([]*models.Alert, error)
}

// FeedbackWriter persists analyst verdicts.
type FeedbackWriter interface {
	InsertFeedback(ctx context.Context, f *models.Feedback) (int64, error)
}

// Aggregator serves the leaderboard and KPI views.
type Aggregator interface {
	Leaderboard(ctx context.Context, weights *models.WeightConfig) []*models.RiskEntry
	KPI(ctx context.Context) *models.KPISummary
}

// Server holds the handler dependencies.
type Server struct {
	ingestor  Ingestor
	alerts    AlertReader
	feedback  FeedbackWriter
	aggregate Aggregator
	hub       *websocket.Hub
	security  config.SecurityConfig
}

// NewServer wires the API against its collaborators.
func NewServer(
	ingestor Ingestor,
	alerts AlertReader,
	feedback FeedbackWriter,
	aggregate Aggregator,
	hub *websocket.Hub,
	security config.SecurityConfig,
) *Server {
	return &Server{
		ingestor:  ingestor,
		alerts:    alerts,
		feedback:  feedback,
		aggregate: aggregate,
		hub:       hub,
		security:  security,
	}
}
