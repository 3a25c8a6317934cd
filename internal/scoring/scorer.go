// RiskWatch - Intrusion Detection Risk Scoring and Live Dashboard
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package scoring maps IDS alert severities onto the 0-100 risk scale used
// throughout RiskWatch. The mapping is a fixed table so scores are stable
// across restarts and directly comparable between alerts.
package scoring

// severityScores maps known severity levels to rule scores.
var severityScores = map[int]float64{
	1: 20,
	2: 40,
	3: 60,
	4: 80,
}

// Score converts an IDS severity level to a rule score in [0, 100].
// Severities of 5 and above are treated as critical; zero and negative
// severities fall back to a floor score rather than rejecting the alert.
func Score(severity int) float64 {
	if severity <= 0 {
		return 5
	}
	if s, ok := severityScores[severity]; ok {
		return s
	}
	return 95
}
