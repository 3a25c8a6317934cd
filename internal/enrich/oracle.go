// RiskWatch - Intrusion Detection Risk Scoring and Live Dashboard
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package enrich asks an external scoring oracle for a behavioral risk
// assessment of each ingested alert and applies the result asynchronously.
package enrich

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	json "github.com/goccy/go-json"
	"github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/nurrustem/riskwatch/internal/config"
	"github.com/nurrustem/riskwatch/internal/logging"
	"github.com/nurrustem/riskwatch/internal/metrics"
	"github.com/nurrustem/riskwatch/internal/models"
)

// AssessmentRequest is the payload sent to the oracle. The rule score is
// deliberately omitted so the oracle judges the traffic on its own.
type AssessmentRequest struct {
	ID        int64     `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	SrcIP     string    `json:"src_ip"`
	DestIP    string    `json:"dest_ip"`
	Signature string    `json:"signature"`
	Severity  int       `json:"severity"`
	Proto     string    `json:"proto"`
}

// NewAssessmentRequest builds the oracle payload for an alert.
func NewAssessmentRequest(a *models.Alert) AssessmentRequest {
	return AssessmentRequest{
		ID:        a.ID,
		Timestamp: a.Timestamp,
		SrcIP:     a.SrcIP,
		DestIP:    a.DestIP,
		Signature: a.Signature,
		Severity:  a.Severity,
		Proto:     a.Proto,
	}
}

// Oracle produces a raw textual assessment for an alert.
type Oracle interface {
	Assess(ctx context.Context, req AssessmentRequest) (string, error)
}

// HTTPOracle calls a remote scoring service over HTTP. Outbound calls are
// rate limited and wrapped in a circuit breaker so a degraded oracle cannot
// pile up goroutines or hammer a recovering service.
type HTTPOracle struct {
	url     string
	client  *http.Client
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker[string]
}

// NewHTTPOracle creates an oracle client from configuration.
func NewHTTPOracle(cfg config.OracleConfig) *HTTPOracle {
	limiter := rate.NewLimiter(rate.Inf, 1)
	if cfg.RatePerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RatePerSecond), 1)
	}

	threshold := cfg.BreakerFailureThreshold
	if threshold == 0 {
		threshold = 5
	}
	breaker := gobreaker.NewCircuitBreaker[string](gobreaker.Settings{
		Name:    "oracle",
		Timeout: cfg.BreakerOpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("Oracle circuit breaker state change")
		},
	})

	return &HTTPOracle{
		url:     cfg.URL,
		client:  &http.Client{Timeout: cfg.Timeout},
		limiter: limiter,
		breaker: breaker,
	}
}

// Assess posts the alert to the oracle and returns its raw reply body.
func (o *HTTPOracle) Assess(ctx context.Context, req AssessmentRequest) (string, error) {
	if err := o.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("oracle rate limit wait: %w", err)
	}

	start := time.Now()
	body, err := o.breaker.Execute(func() (string, error) {
		return o.post(ctx, req)
	})
	metrics.OracleRequestDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		return "", err
	}
	return body, nil
}

func (o *HTTPOracle) post(ctx context.Context, req AssessmentRequest) (string, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("marshaling assessment request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, o.url, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("building oracle request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := o.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("calling oracle: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("oracle returned status %d", resp.StatusCode)
	}

	// Oracle replies are short prose with an embedded JSON object.
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("reading oracle response: %w", err)
	}
	return string(raw), nil
}
