// RiskWatch - Intrusion Detection Risk Scoring and Live Dashboard
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package aggregate computes the read-side views of the dashboard: the
// per-source risk leaderboard and the fleet KPI summary. Both endpoints
// degrade to empty or zero values instead of erroring, so a storage
// hiccup dims the dashboard rather than breaking it.
package aggregate

import (
	"context"
	"fmt"
	"time"

	"github.com/nurrustem/riskwatch/internal/cache"
	"github.com/nurrustem/riskwatch/internal/database"
	"github.com/nurrustem/riskwatch/internal/logging"
	"github.com/nurrustem/riskwatch/internal/models"
)

const (
	leaderboardLimit = 10
	cacheTTL         = 5 * time.Second
)

// Store is the query surface the engine needs.
type Store interface {
	Leaderboard(ctx context.Context, weights models.WeightConfig, limit int) ([]*models.RiskEntry, error)
	CountAlerts(ctx context.Context) (int64, error)
	CountFeedback(ctx context.Context) (database.FeedbackCounts, error)
	MeanFeedbackLatencyMs(ctx context.Context) (float64, error)
}

// Engine serves leaderboard and KPI queries with a short TTL cache in
// front to absorb dashboard polling.
type Engine struct {
	store          Store
	defaultWeights models.WeightConfig
	lbCache        *cache.Cache[string, []*models.RiskEntry]
}

// NewEngine creates the aggregation engine. defaultWeights applies when a
// caller passes no explicit weights.
func NewEngine(store Store, defaultWeights models.WeightConfig) *Engine {
	c := cache.New[string, []*models.RiskEntry](cacheTTL)
	c.Start()
	return &Engine{
		store:          store,
		defaultWeights: defaultWeights,
		lbCache:        c,
	}
}

// Close stops the cache sweeper.
func (e *Engine) Close() {
	e.lbCache.Stop()
}

// Leaderboard returns source IPs ranked by weighted combined risk. A nil
// weights pointer selects the configured defaults. Store failures yield an
// empty leaderboard.
func (e *Engine) Leaderboard(ctx context.Context, weights *models.WeightConfig) []*models.RiskEntry {
	w := e.defaultWeights
	if weights != nil {
		w = *weights
	}

	key := fmt.Sprintf("%g:%g", w.Rule, w.ML)
	if cached, ok := e.lbCache.Get(key); ok {
		return cached
	}

	entries, err := e.store.Leaderboard(ctx, w, leaderboardLimit)
	if err != nil {
		logging.Err(err).Msg("Leaderboard query failed, returning empty board")
		return []*models.RiskEntry{}
	}
	e.lbCache.Set(key, entries)
	return entries
}

// KPI computes the detection-quality summary. Each metric degrades to zero
// independently when its underlying query fails.
func (e *Engine) KPI(ctx context.Context) *models.KPISummary {
	kpi := &models.KPISummary{}

	total, err := e.store.CountAlerts(ctx)
	if err != nil {
		logging.Err(err).Msg("Alert count query failed, detection rate degrades to zero")
		total = 0
	}

	counts, err := e.store.CountFeedback(ctx)
	if err != nil {
		logging.Err(err).Msg("Feedback count query failed, precision metrics degrade to zero")
		counts = database.FeedbackCounts{}
	}

	tp := float64(counts.TruePositives)
	fp := float64(counts.FalsePositives)
	if total > 0 {
		kpi.DetectionRate = tp / float64(total)
	}
	if tp+fp > 0 {
		kpi.Precision = tp / (tp + fp)
		kpi.FalsePositiveRate = fp / (tp + fp)
	}

	latency, err := e.store.MeanFeedbackLatencyMs(ctx)
	if err != nil {
		logging.Err(err).Msg("Feedback latency query failed, mean latency degrades to zero")
		latency = 0
	}
	kpi.MeanAlertLatency = latency

	return kpi
}
