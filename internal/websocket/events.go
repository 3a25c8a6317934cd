// RiskWatch - Intrusion Detection Risk Scoring and Live Dashboard
// SPDX-License-Identifier: AGPL-3.0-or-later

package websocket

import (
	"fmt"
	"time"

	json "github.com/goccy/go-json"

	"github.com/nurrustem/riskwatch/internal/models"
)

// Event types pushed to dashboard clients.
const (
	EventNewAlert    = "new_alert"
	EventScoreUpdate = "score_update"
)

// Event is the envelope for every pushed message.
type Event struct {
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data"`
}

// ScoreUpdate carries the oracle result for an already-broadcast alert.
type ScoreUpdate struct {
	AlertID     int64   `json:"alert_id"`
	MLScore     float64 `json:"ml_score"`
	Explanation string  `json:"explanation"`
}

// NewAlertEvent serializes a new_alert event for the given alert.
func NewAlertEvent(a *models.Alert) ([]byte, error) {
	return marshalEvent(EventNewAlert, a)
}

// ScoreUpdateEvent serializes a score_update event.
func ScoreUpdateEvent(u ScoreUpdate) ([]byte, error) {
	return marshalEvent(EventScoreUpdate, u)
}

func marshalEvent(typ string, data any) ([]byte, error) {
	b, err := json.Marshal(Event{
		Type:      typ,
		Timestamp: time.Now().UTC(),
		Data:      data,
	})
	if err != nil {
		return nil, fmt.Errorf("marshaling %s event: %w", typ, err)
	}
	return b, nil
}
