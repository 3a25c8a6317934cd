// RiskWatch - Intrusion Detection Risk Scoring and Live Dashboard
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package ingest turns validated alert submissions into persisted, scored
// and broadcast alerts, reusing enrichment results from recent duplicates.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nurrustem/riskwatch/internal/database"
	"github.com/nurrustem/riskwatch/internal/logging"
	"github.com/nurrustem/riskwatch/internal/metrics"
	"github.com/nurrustem/riskwatch/internal/models"
	"github.com/nurrustem/riskwatch/internal/scoring"
)

// AlertStore is the persistence surface the coordinator needs.
type AlertStore interface {
	InsertAlert(ctx context.Context, a *models.Alert) (int64, error)
	FindDuplicate(ctx context.Context, a *models.Alert, window time.Duration) (*models.Alert, error)
}

// Broadcaster announces new alerts to live dashboard clients.
type Broadcaster interface {
	BroadcastNewAlert(a *models.Alert)
}

// Scheduler queues alerts for asynchronous oracle enrichment.
type Scheduler interface {
	Enqueue(a *models.Alert)
}

// Coordinator drives the ingestion pipeline: score, dedup, persist,
// broadcast, schedule.
type Coordinator struct {
	store       AlertStore
	hub         Broadcaster
	scheduler   Scheduler
	dedupWindow time.Duration
}

// NewCoordinator wires the ingestion pipeline.
func NewCoordinator(store AlertStore, hub Broadcaster, scheduler Scheduler, dedupWindow time.Duration) *Coordinator {
	return &Coordinator{
		store:       store,
		hub:         hub,
		scheduler:   scheduler,
		dedupWindow: dedupWindow,
	}
}

// Ingest processes one alert submission and returns the persisted record.
// The response never waits on the oracle: a fresh alert carries the
// fallback ML score until enrichment lands, a repeat inherits the scores of
// its most recent in-window twin and skips enrichment entirely.
//
// Two identical alerts racing through here can both miss the dedup scan and
// both get enriched; the cost is one redundant oracle call, so the scan is
// not serialized.
func (c *Coordinator) Ingest(ctx context.Context, input *models.AlertInput) (*models.Alert, error) {
	alert := &models.Alert{
		Timestamp: time.Now().UTC(),
		SrcIP:     input.SrcIP,
		DestIP:    input.DestIP,
		Signature: input.Signature,
		Severity:  input.Severity,
		Proto:     input.Proto,
		RuleScore: scoring.Score(input.Severity),
	}

	duplicate := c.findDuplicate(ctx, alert)
	if duplicate != nil {
		alert.MLScore = duplicate.MLScore
		alert.Explanation = duplicate.Explanation
	}

	id, err := c.store.InsertAlert(ctx, alert)
	if err != nil {
		return nil, fmt.Errorf("persisting alert: %w", err)
	}
	alert.ID = id

	c.hub.BroadcastNewAlert(alert)

	if duplicate != nil {
		metrics.AlertsIngested.WithLabelValues("duplicate").Inc()
		logging.Debug().
			Int64("alert_id", alert.ID).
			Int64("duplicate_of", duplicate.ID).
			Msg("Alert deduplicated, enrichment reused")
		return alert, nil
	}

	metrics.AlertsIngested.WithLabelValues("new").Inc()
	c.scheduler.Enqueue(alert)
	return alert, nil
}

// findDuplicate scans for an in-window repeat. Scan failures degrade to
// "no duplicate" so a storage hiccup cannot reject ingestion.
func (c *Coordinator) findDuplicate(ctx context.Context, alert *models.Alert) *models.Alert {
	dup, err := c.store.FindDuplicate(ctx, alert, c.dedupWindow)
	if err != nil {
		if !errors.Is(err, database.ErrNotFound) {
			logging.Warn().Err(err).Msg("Dedup scan failed, treating alert as new")
		}
		return nil
	}
	return dup
}
