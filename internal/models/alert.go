// RiskWatch - Intrusion Detection Risk Scoring and Live Dashboard
// SPDX-License-Identifier: AGPL-3.0-or-later

package models

import "time"

// Alert is a single ingested detection event with its rule-based and
// oracle-based risk scores.
//
// RuleScore is assigned once at creation and never changes. MLScore and
// Explanation start at their zero values and transition at most once: either
// copied synchronously from a duplicate within the dedup window, or written
// asynchronously by the enrichment worker.
type Alert struct {
	ID          int64     `json:"id"`
	Timestamp   time.Time `json:"timestamp"`
	SrcIP       string    `json:"src_ip"`
	DestIP      string    `json:"dest_ip"`
	Signature   string    `json:"signature"`
	Severity    int       `json:"severity"`
	Proto       string    `json:"proto"`
	RuleScore   float64   `json:"rule_score"`
	MLScore     float64   `json:"ml_score"`
	Explanation *string   `json:"explanation"`
}

// AlertInput is the ingestion request payload.
type AlertInput struct {
	SrcIP     string `json:"src_ip" validate:"required,ip"`
	DestIP    string `json:"dest_ip" validate:"required,ip"`
	Signature string `json:"signature" validate:"required"`
	Severity  int    `json:"severity" validate:"gte=0"`
	Proto     string `json:"proto" validate:"required"`
}

// Feedback is an analyst verdict on an alert. The alert reference is
// immutable after creation; repeated review of the same alert is allowed.
type Feedback struct {
	ID             int64     `json:"id"`
	AlertID        int64     `json:"alert_id"`
	IsTruePositive bool      `json:"is_true_positive"`
	Timestamp      time.Time `json:"timestamp"`
}

// FeedbackInput is the feedback submission payload.
type FeedbackInput struct {
	AlertID        int64 `json:"alert_id" validate:"required,gt=0"`
	IsTruePositive bool  `json:"is_true_positive"`
}

// WeightConfig holds the leaderboard scoring weights.
type WeightConfig struct {
	Rule float64 `json:"rule"`
	ML   float64 `json:"ml"`
}

// DefaultWeights returns the default leaderboard weights.
func DefaultWeights() WeightConfig {
	return WeightConfig{Rule: 0.5, ML: 0.5}
}

// RiskEntry is one row of the per-source-IP risk leaderboard.
type RiskEntry struct {
	SrcIP         string  `json:"src_ip"`
	AvgRuleScore  float64 `json:"avg_rule_score"`
	AvgMLScore    float64 `json:"avg_ml_score"`
	CombinedScore float64 `json:"combined_score"`
	Count         int64   `json:"count"`
}

// KPISummary holds fleet-wide detection-quality metrics derived from
// analyst feedback. Every field degrades to zero rather than erroring
// when the underlying data is missing or unreadable.
type KPISummary struct {
	Precision         float64 `json:"precision"`
	DetectionRate     float64 `json:"detection_rate"`
	FalsePositiveRate float64 `json:"false_positive_rate"`
	MeanAlertLatency  float64 `json:"mean_alert_latency"`
}
