// RiskWatch - Intrusion Detection Risk Scoring and Live Dashboard
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"net/http"
	"time"

	"github.com/nurrustem/riskwatch/internal/logging"
	"github.com/nurrustem/riskwatch/internal/models"
)

const (
	defaultRecentLimit = 50
	maxRecentLimit     = 500
)

// handleIngest accepts one IDS alert, scores it, and returns the persisted
// record. The ML score in the response is only populated when a recent
// duplicate supplied it; otherwise enrichment lands later over the
// websocket feed.
func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	input := &models.AlertInput{}
	if !decodeAndValidate(w, r, input) {
		return
	}

	alert, err := s.ingestor.Ingest(r.Context(), input)
	if err != nil {
		logging.Err(err).
			Str("src_ip", sanitizeLogValue(input.SrcIP)).
			Str("signature", sanitizeLogValue(input.Signature)).
			Msg("Ingestion failed")
		respondError(w, http.StatusInternalServerError, &models.APIError{
			Code:    codeIngest,
			Message: "Failed to ingest alert",
		})
		return
	}

	respondJSON(w, http.StatusOK, alert, start)
}

// handleRecentAlerts returns the newest alerts, most recent first. A store
// failure yields an empty list so the dashboard keeps rendering.
func (s *Server) handleRecentAlerts(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	limit := queryInt(r, "limit", defaultRecentLimit, 1, maxRecentLimit)

	alerts, err := s.alerts.ListRecentAlerts(r.Context(), limit)
	if err != nil {
		logging.Err(err).Msg("Recent alerts query failed, returning empty list")
		alerts = []*models.Alert{}
	}
	respondJSON(w, http.StatusOK, alerts, start)
}
