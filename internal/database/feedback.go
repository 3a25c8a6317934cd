// RiskWatch - Intrusion Detection Risk Scoring and Live Dashboard
// SPDX-License-Identifier: AGPL-3.0-or-later

package database

import (
	"context"
	"fmt"

	"github.com/nurrustem/riskwatch/internal/models"
)

// InsertFeedback records an analyst verdict. The referenced alert must
// exist; repeated verdicts on the same alert are allowed and all retained.
func (db *DB) InsertFeedback(ctx context.Context, f *models.Feedback) (int64, error) {
	if _, err := db.GetAlert(ctx, f.AlertID); err != nil {
		return 0, err
	}
	var id int64
	err := db.conn.QueryRowContext(ctx, `
		INSERT INTO feedback (alert_id, is_true_positive, timestamp)
		VALUES (?, ?, ?)
		RETURNING id`,
		f.AlertID, f.IsTruePositive, f.Timestamp,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("inserting feedback: %w", err)
	}
	return id, nil
}

// FeedbackCounts holds the verdict tallies used for KPI ratios.
type FeedbackCounts struct {
	TruePositives  int64
	FalsePositives int64
}

// CountFeedback tallies true and false positive verdicts across all feedback.
func (db *DB) CountFeedback(ctx context.Context) (FeedbackCounts, error) {
	var c FeedbackCounts
	err := db.conn.QueryRowContext(ctx, `
		SELECT
			COUNT(*) FILTER (WHERE is_true_positive),
			COUNT(*) FILTER (WHERE NOT is_true_positive)
		FROM feedback`).Scan(&c.TruePositives, &c.FalsePositives)
	if err != nil {
		return FeedbackCounts{}, fmt.Errorf("counting feedback: %w", err)
	}
	return c, nil
}

// MeanFeedbackLatencyMs returns the mean interval between alert creation and
// analyst verdict, in milliseconds. Returns 0 when no feedback exists.
func (db *DB) MeanFeedbackLatencyMs(ctx context.Context) (float64, error) {
	var ms *float64
	err := db.conn.QueryRowContext(ctx, `
		SELECT AVG(epoch(f.timestamp) - epoch(a.timestamp)) * 1000
		FROM feedback f
		JOIN alerts a ON a.id = f.alert_id`).Scan(&ms)
	if err != nil {
		return 0, fmt.Errorf("computing feedback latency: %w", err)
	}
	if ms == nil {
		return 0, nil
	}
	return *ms, nil
}
