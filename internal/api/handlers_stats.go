// RiskWatch - Intrusion Detection Risk Scoring and Live Dashboard
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/nurrustem/riskwatch/internal/database"
	"github.com/nurrustem/riskwatch/internal/logging"
	"github.com/nurrustem/riskwatch/internal/models"
)

// handleLeaderboard returns source IPs ranked by weighted combined risk.
// Optional rule and ml query parameters override the configured weights;
// both must be present and valid to take effect.
func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var weights *models.WeightConfig
	rule, ruleOK := queryFloat(r, "rule")
	ml, mlOK := queryFloat(r, "ml")
	if ruleOK && mlOK {
		weights = &models.WeightConfig{Rule: rule, ML: ml}
	}

	entries := s.aggregate.Leaderboard(r.Context(), weights)
	respondJSON(w, http.StatusOK, entries, start)
}

// handleKPI returns the fleet detection-quality summary.
func (s *Server) handleKPI(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	respondJSON(w, http.StatusOK, s.aggregate.KPI(r.Context()), start)
}

// handleFeedback records an analyst verdict on an alert.
func (s *Server) handleFeedback(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	input := &models.FeedbackInput{}
	if !decodeAndValidate(w, r, input) {
		return
	}

	fb := &models.Feedback{
		AlertID:        input.AlertID,
		IsTruePositive: input.IsTruePositive,
		Timestamp:      time.Now().UTC(),
	}
	id, err := s.feedback.InsertFeedback(r.Context(), fb)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			respondError(w, http.StatusNotFound, &models.APIError{
				Code:    codeNotFound,
				Message: "Alert not found",
			})
			return
		}
		logging.Err(err).Int64("alert_id", input.AlertID).Msg("Failed to record feedback")
		respondError(w, http.StatusInternalServerError, &models.APIError{
			Code:    codeDatabase,
			Message: "Failed to record feedback",
		})
		return
	}
	fb.ID = id

	respondJSON(w, http.StatusOK, fb, start)
}

// handleSimulate acknowledges a requested attack simulation. Traffic
// generation happens out of band; the endpoint exists so dashboards can
// trigger demo scenarios.
func (s *Server) handleSimulate(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	attack := chi.URLParam(r, "attack_name")

	logging.Info().Str("attack", sanitizeLogValue(attack)).Msg("Attack simulation requested")
	respondJSON(w, http.StatusOK, map[string]string{
		"status":      "simulated",
		"attack_name": attack,
	}, start)
}

// handleHealth reports liveness and the connected client count.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	respondJSON(w, http.StatusOK, map[string]any{
		"status":            "ok",
		"websocket_clients": s.hub.ClientCount(),
	}, start)
}
