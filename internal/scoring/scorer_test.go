// RiskWatch - Intrusion Detection Risk Scoring and Live Dashboard
// SPDX-License-Identifier: AGPL-3.0-or-later

package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScore(t *testing.T) {
	tests := []struct {
		name     string
		severity int
		want     float64
	}{
		{"severity 1", 1, 20},
		{"severity 2", 2, 40},
		{"severity 3", 3, 60},
		{"severity 4", 4, 80},
		{"severity 5 critical", 5, 95},
		{"severity 9 critical", 9, 95},
		{"severity 100 critical", 100, 95},
		{"severity 0 floor", 0, 5},
		{"negative severity floor", -3, 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Score(tt.severity)
			assert.Equal(t, tt.want, got)
			assert.GreaterOrEqual(t, got, 0.0)
			assert.LessOrEqual(t, got, 100.0)
		})
	}
}
