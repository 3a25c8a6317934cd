// RiskWatch - Intrusion Detection Risk Scoring and Live Dashboard
// SPDX-License-Identifier: AGPL-3.0-or-later

package enrich

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nurrustem/riskwatch/internal/config"
	"github.com/nurrustem/riskwatch/internal/logging"
	"github.com/nurrustem/riskwatch/internal/models"
)

func init() {
	logging.Init(logging.Config{Level: "disabled", Output: io.Discard})
}

func oracleConfig(url string) config.OracleConfig {
	return config.OracleConfig{
		URL:                     url,
		Timeout:                 5 * time.Second,
		RatePerSecond:           0, // unlimited in tests
		BreakerFailureThreshold: 3,
		BreakerOpenTimeout:      time.Minute,
	}
}

func TestHTTPOracleAssess(t *testing.T) {
	var received AssessmentRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		io.WriteString(w, `Assessment: {"score": 64, "explanation": "suspicious fan-out"}`)
	}))
	defer srv.Close()

	alert := &models.Alert{
		ID: 11, Timestamp: time.Now().UTC(), SrcIP: "10.0.0.1", DestIP: "10.0.0.2",
		Signature: "ET SCAN Nmap", Severity: 3, Proto: "TCP", RuleScore: 60,
	}
	oracle := NewHTTPOracle(oracleConfig(srv.URL))
	raw, err := oracle.Assess(context.Background(), NewAssessmentRequest(alert))
	require.NoError(t, err)

	score, explanation, ok := ParseAssessment(raw)
	require.True(t, ok)
	assert.Equal(t, 64.0, score)
	assert.Equal(t, "suspicious fan-out", explanation)

	assert.Equal(t, int64(11), received.ID)
	assert.Equal(t, "10.0.0.1", received.SrcIP)
}

// The outbound payload must not leak the rule score; the oracle scores
// the traffic independently.
func TestAssessmentRequestOmitsRuleScore(t *testing.T) {
	alert := &models.Alert{ID: 1, SrcIP: "10.0.0.1", RuleScore: 95, MLScore: 40}
	b, err := json.Marshal(NewAssessmentRequest(alert))
	require.NoError(t, err)
	assert.NotContains(t, string(b), "rule_score")
	assert.NotContains(t, string(b), "ml_score")
}

func TestHTTPOracleNonSuccessStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	oracle := NewHTTPOracle(oracleConfig(srv.URL))
	_, err := oracle.Assess(context.Background(), AssessmentRequest{ID: 1})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")
}

func TestHTTPOracleBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	oracle := NewHTTPOracle(oracleConfig(srv.URL))
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		_, err := oracle.Assess(ctx, AssessmentRequest{ID: int64(i)})
		require.Error(t, err)
	}
	assert.Equal(t, 3, calls)

	// Breaker is now open; the request fails fast without a call.
	_, err := oracle.Assess(ctx, AssessmentRequest{ID: 99})
	require.Error(t, err)
	assert.Equal(t, 3, calls, "open breaker must short-circuit the request")
}
