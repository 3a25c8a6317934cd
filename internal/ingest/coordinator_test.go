// RiskWatch - Intrusion Detection Risk Scoring and Live Dashboard
// SPDX-License-Identifier: AGPL-3.0-or-later

package ingest

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nurrustem/riskwatch/internal/database"
	"github.com/nurrustem/riskwatch/internal/logging"
	"github.com/nurrustem/riskwatch/internal/models"
)

func init() {
	logging.Init(logging.Config{Level: "disabled", Output: io.Discard})
}

type fakeStore struct {
	nextID    int64
	inserted  []*models.Alert
	duplicate *models.Alert
	findErr   error
	insertErr error
}

func (f *fakeStore) InsertAlert(ctx context.Context, a *models.Alert) (int64, error) {
	if f.insertErr != nil {
		return 0, f.insertErr
	}
	f.nextID++
	cp := *a
	f.inserted = append(f.inserted, &cp)
	return f.nextID, nil
}

func (f *fakeStore) FindDuplicate(ctx context.Context, a *models.Alert, window time.Duration) (*models.Alert, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	if f.duplicate == nil {
		return nil, database.ErrNotFound
	}
	return f.duplicate, nil
}

type fakeHub struct{ broadcast []*models.Alert }

func (f *fakeHub) BroadcastNewAlert(a *models.Alert) { f.broadcast = append(f.broadcast, a) }

type fakeScheduler struct{ queued []*models.Alert }

func (f *fakeScheduler) Enqueue(a *models.Alert) { f.queued = append(f.queued, a) }

func testInput() *models.AlertInput {
	return &models.AlertInput{
		SrcIP:     "10.0.0.1",
		DestIP:    "192.168.1.10",
		Signature: "ET SCAN Nmap Scripting Engine",
		Severity:  3,
		Proto:     "TCP",
	}
}

func TestIngestNewAlert(t *testing.T) {
	store := &fakeStore{}
	hub := &fakeHub{}
	sched := &fakeScheduler{}
	c := NewCoordinator(store, hub, sched, 240*time.Minute)

	alert, err := c.Ingest(context.Background(), testInput())
	require.NoError(t, err)

	assert.Equal(t, int64(1), alert.ID)
	assert.Equal(t, 60.0, alert.RuleScore, "severity 3 maps to 60")
	assert.Zero(t, alert.MLScore)
	assert.Nil(t, alert.Explanation)
	assert.False(t, alert.Timestamp.IsZero())

	require.Len(t, hub.broadcast, 1)
	assert.Equal(t, alert, hub.broadcast[0], "broadcast carries the persisted record")
	require.Len(t, sched.queued, 1, "fresh alert goes to enrichment")
	assert.Equal(t, alert, sched.queued[0])
}

func TestIngestDuplicateReusesEnrichment(t *testing.T) {
	explanation := "known scanner infrastructure"
	store := &fakeStore{
		duplicate: &models.Alert{ID: 50, MLScore: 87, Explanation: &explanation},
	}
	hub := &fakeHub{}
	sched := &fakeScheduler{}
	c := NewCoordinator(store, hub, sched, 240*time.Minute)

	alert, err := c.Ingest(context.Background(), testInput())
	require.NoError(t, err)

	assert.Equal(t, 87.0, alert.MLScore, "ML score copied from the duplicate")
	require.NotNil(t, alert.Explanation)
	assert.Equal(t, explanation, *alert.Explanation)
	assert.NotEqual(t, int64(50), alert.ID, "a new row is still inserted")

	require.Len(t, hub.broadcast, 1)
	assert.Empty(t, sched.queued, "duplicate skips enrichment")
}

func TestIngestDedupScanFailureIsFailOpen(t *testing.T) {
	store := &fakeStore{findErr: errors.New("table lock timeout")}
	hub := &fakeHub{}
	sched := &fakeScheduler{}
	c := NewCoordinator(store, hub, sched, 240*time.Minute)

	alert, err := c.Ingest(context.Background(), testInput())
	require.NoError(t, err, "a failed dedup scan must not reject ingestion")
	assert.Zero(t, alert.MLScore)
	require.Len(t, sched.queued, 1, "treated as new, so enrichment runs")
}

func TestIngestInsertFailure(t *testing.T) {
	store := &fakeStore{insertErr: errors.New("disk full")}
	hub := &fakeHub{}
	sched := &fakeScheduler{}
	c := NewCoordinator(store, hub, sched, 240*time.Minute)

	_, err := c.Ingest(context.Background(), testInput())
	require.Error(t, err)
	assert.Empty(t, hub.broadcast, "nothing broadcast when persistence fails")
	assert.Empty(t, sched.queued)
}

func TestIngestSeverityMapping(t *testing.T) {
	store := &fakeStore{}
	c := NewCoordinator(store, &fakeHub{}, &fakeScheduler{}, 240*time.Minute)

	tests := []struct {
		severity int
		want     float64
	}{
		{0, 5}, {1, 20}, {2, 40}, {4, 80}, {5, 95}, {9, 95}, {42, 95},
	}
	for _, tt := range tests {
		in := testInput()
		in.Severity = tt.severity
		alert, err := c.Ingest(context.Background(), in)
		require.NoError(t, err)
		assert.Equal(t, tt.want, alert.RuleScore, "severity %d", tt.severity)
	}
}
