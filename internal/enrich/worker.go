// RiskWatch - Intrusion Detection Risk Scoring and Live Dashboard
// SPDX-License-Identifier: AGPL-3.0-or-later

package enrich

import (
	"context"
	"errors"
	"sync"

	"github.com/nurrustem/riskwatch/internal/database"
	"github.com/nurrustem/riskwatch/internal/logging"
	"github.com/nurrustem/riskwatch/internal/metrics"
	"github.com/nurrustem/riskwatch/internal/models"
)

// EnrichmentStore is the persistence surface the pool needs.
type EnrichmentStore interface {
	UpdateEnrichment(ctx context.Context, id int64, mlScore float64, explanation string) error
}

// Publisher pushes the enrichment result to live dashboard clients.
type Publisher interface {
	BroadcastScoreUpdate(alertID int64, mlScore float64, explanation string)
}

// Pool runs oracle assessments on a bounded queue of alerts. Enrichment is
// strictly best-effort: every failure path degrades to the fallback score
// or a logged drop, never an error surfaced to ingestion.
type Pool struct {
	oracle  Oracle
	store   EnrichmentStore
	pub     Publisher
	queue   chan *models.Alert
	workers int
	wg      sync.WaitGroup
}

// NewPool creates a pool with the given worker count and queue size.
func NewPool(oracle Oracle, store EnrichmentStore, pub Publisher, workers, queueSize int) *Pool {
	if workers < 1 {
		workers = 1
	}
	if queueSize < 1 {
		queueSize = 1
	}
	return &Pool{
		oracle:  oracle,
		store:   store,
		pub:     pub,
		queue:   make(chan *models.Alert, queueSize),
		workers: workers,
	}
}

// Start launches the workers. They exit when ctx is canceled.
func (p *Pool) Start(ctx context.Context) {
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case alert := <-p.queue:
					metrics.EnrichmentQueueDepth.Set(float64(len(p.queue)))
					p.enrich(ctx, alert)
				}
			}
		}()
	}
}

// Wait blocks until all workers have exited.
func (p *Pool) Wait() {
	p.wg.Wait()
}

// Enqueue schedules an alert for enrichment. Never blocks: when the queue
// is full the alert keeps its fallback score and the drop is counted.
func (p *Pool) Enqueue(a *models.Alert) {
	select {
	case p.queue <- a:
		metrics.EnrichmentQueueDepth.Set(float64(len(p.queue)))
	default:
		metrics.EnrichmentResults.WithLabelValues("dropped").Inc()
		logging.Warn().Int64("alert_id", a.ID).Msg("Enrichment queue full, alert keeps fallback score")
	}
}

// enrich runs one assessment end to end.
func (p *Pool) enrich(ctx context.Context, a *models.Alert) {
	raw, err := p.oracle.Assess(ctx, NewAssessmentRequest(a))

	mlScore, explanation := FallbackScore, FallbackExplanation
	if err != nil {
		metrics.EnrichmentResults.WithLabelValues("fallback").Inc()
		logging.Warn().Err(err).Int64("alert_id", a.ID).Msg("Oracle assessment failed, using fallback")
	} else if score, text, ok := ParseAssessment(raw); ok {
		mlScore, explanation = score, text
		metrics.EnrichmentResults.WithLabelValues("success").Inc()
	} else {
		metrics.EnrichmentResults.WithLabelValues("fallback").Inc()
		logging.Warn().Int64("alert_id", a.ID).Msg("Unparseable oracle reply, using fallback")
	}

	if err := p.store.UpdateEnrichment(ctx, a.ID, mlScore, explanation); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			// Alert disappeared between insert and enrichment; nothing to
			// broadcast.
			logging.Warn().Int64("alert_id", a.ID).Msg("Alert gone before enrichment, skipping")
			return
		}
		logging.Err(err).Int64("alert_id", a.ID).Msg("Failed to persist enrichment")
		return
	}

	p.pub.BroadcastScoreUpdate(a.ID, mlScore, explanation)
}
