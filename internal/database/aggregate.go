// RiskWatch - Intrusion Detection Risk Scoring and Live Dashboard
// SPDX-License-Identifier: AGPL-3.0-or-later

package database

import (
	"context"
	"fmt"

	"github.com/nurrustem/riskwatch/internal/models"
)

// Leaderboard ranks source IPs by weighted combined risk. The combined
// score is computed in SQL so ordering and the returned values agree
// exactly.
func (db *DB) Leaderboard(ctx context.Context, weights models.WeightConfig, limit int) ([]*models.RiskEntry, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT
			src_ip,
			AVG(rule_score)                    AS avg_rule,
			AVG(ml_score)                      AS avg_ml,
			AVG(rule_score) * ? + AVG(ml_score) * ? AS combined,
			COUNT(*)                           AS alert_count
		FROM alerts
		GROUP BY src_ip
		ORDER BY combined DESC, src_ip ASC
		LIMIT ?`,
		weights.Rule, weights.ML, limit)
	if err != nil {
		return nil, fmt.Errorf("querying leaderboard: %w", err)
	}
	defer rows.Close()

	entries := make([]*models.RiskEntry, 0, limit)
	for rows.Next() {
		e := &models.RiskEntry{}
		if err := rows.Scan(&e.SrcIP, &e.AvgRuleScore, &e.AvgMLScore, &e.CombinedScore, &e.Count); err != nil {
			return nil, fmt.Errorf("scanning leaderboard row: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
