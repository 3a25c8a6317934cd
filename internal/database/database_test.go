// RiskWatch - Intrusion Detection Risk Scoring and Live Dashboard
// SPDX-License-Identifier: AGPL-3.0-or-later

package database

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nurrustem/riskwatch/internal/config"
	"github.com/nurrustem/riskwatch/internal/logging"
	"github.com/nurrustem/riskwatch/internal/models"
)

func init() {
	logging.Init(logging.Config{Level: "disabled", Output: io.Discard})
}

func setupDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(context.Background(), config.DatabaseConfig{Path: ""})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func testAlert(ts time.Time) *models.Alert {
	return &models.Alert{
		Timestamp: ts,
		SrcIP:     "10.0.0.1",
		DestIP:    "192.168.1.10",
		Signature: "ET SCAN Nmap Scripting Engine",
		Severity:  3,
		Proto:     "TCP",
		RuleScore: 60,
	}
}

func TestInsertAndGetAlert(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()

	a := testAlert(time.Now().UTC().Truncate(time.Microsecond))
	id, err := db.InsertAlert(ctx, a)
	require.NoError(t, err)
	assert.Equal(t, int64(1), id)

	got, err := db.GetAlert(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, a.SrcIP, got.SrcIP)
	assert.Equal(t, a.Signature, got.Signature)
	assert.Equal(t, 60.0, got.RuleScore)
	assert.Equal(t, 0.0, got.MLScore)
	assert.Nil(t, got.Explanation)

	_, err = db.GetAlert(ctx, 9999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListRecentAlertsOrder(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()
	base := time.Now().UTC().Truncate(time.Microsecond)

	for i := 0; i < 5; i++ {
		a := testAlert(base.Add(time.Duration(i) * time.Minute))
		_, err := db.InsertAlert(ctx, a)
		require.NoError(t, err)
	}

	alerts, err := db.ListRecentAlerts(ctx, 3)
	require.NoError(t, err)
	require.Len(t, alerts, 3)
	assert.True(t, alerts[0].Timestamp.After(alerts[1].Timestamp))
	assert.True(t, alerts[1].Timestamp.After(alerts[2].Timestamp))
}

func TestFindDuplicate(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()
	base := time.Now().UTC().Truncate(time.Microsecond)
	window := 240 * time.Minute

	old := testAlert(base.Add(-5 * time.Hour))
	_, err := db.InsertAlert(ctx, old)
	require.NoError(t, err)

	recent := testAlert(base.Add(-10 * time.Minute))
	recentID, err := db.InsertAlert(ctx, recent)
	require.NoError(t, err)
	require.NoError(t, db.UpdateEnrichment(ctx, recentID, 77, "lateral movement pattern"))

	candidate := testAlert(base)
	dup, err := db.FindDuplicate(ctx, candidate, window)
	require.NoError(t, err)
	assert.Equal(t, recentID, dup.ID, "most recent in-window match wins")
	assert.Equal(t, 77.0, dup.MLScore)
	require.NotNil(t, dup.Explanation)
	assert.Equal(t, "lateral movement pattern", *dup.Explanation)

	// Differing rule score breaks equivalence.
	other := testAlert(base)
	other.RuleScore = 95
	_, err = db.FindDuplicate(ctx, other, window)
	assert.ErrorIs(t, err, ErrNotFound)

	// Only the out-of-window row present.
	narrow := testAlert(base)
	_, err = db.FindDuplicate(ctx, narrow, 5*time.Minute)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateEnrichment(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()

	id, err := db.InsertAlert(ctx, testAlert(time.Now().UTC()))
	require.NoError(t, err)

	require.NoError(t, db.UpdateEnrichment(ctx, id, 88.5, "beaconing to known C2"))
	got, err := db.GetAlert(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 88.5, got.MLScore)
	require.NotNil(t, got.Explanation)
	assert.Equal(t, "beaconing to known C2", *got.Explanation)

	assert.ErrorIs(t, db.UpdateEnrichment(ctx, 9999, 1, "x"), ErrNotFound)
}

func TestFeedbackAndKPIQueries(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()
	base := time.Now().UTC().Truncate(time.Microsecond)

	aID, err := db.InsertAlert(ctx, testAlert(base))
	require.NoError(t, err)

	// Feedback for a missing alert is rejected.
	_, err = db.InsertFeedback(ctx, &models.Feedback{AlertID: 9999, IsTruePositive: true, Timestamp: base})
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = db.InsertFeedback(ctx, &models.Feedback{AlertID: aID, IsTruePositive: true, Timestamp: base.Add(2 * time.Second)})
	require.NoError(t, err)
	_, err = db.InsertFeedback(ctx, &models.Feedback{AlertID: aID, IsTruePositive: false, Timestamp: base.Add(4 * time.Second)})
	require.NoError(t, err)

	counts, err := db.CountFeedback(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), counts.TruePositives)
	assert.Equal(t, int64(1), counts.FalsePositives)

	ms, err := db.MeanFeedbackLatencyMs(ctx)
	require.NoError(t, err)
	assert.InDelta(t, 3000, ms, 1)

	n, err := db.CountAlerts(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestMeanFeedbackLatencyEmpty(t *testing.T) {
	db := setupDB(t)
	ms, err := db.MeanFeedbackLatencyMs(context.Background())
	require.NoError(t, err)
	assert.Zero(t, ms)
}

func TestLeaderboard(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()
	base := time.Now().UTC().Truncate(time.Microsecond)

	insert := func(src string, rule, ml float64) {
		t.Helper()
		a := testAlert(base)
		a.SrcIP = src
		a.RuleScore = rule
		id, err := db.InsertAlert(ctx, a)
		require.NoError(t, err)
		if ml > 0 {
			require.NoError(t, db.UpdateEnrichment(ctx, id, ml, "enriched"))
		}
	}

	insert("10.0.0.1", 60, 80)
	insert("10.0.0.1", 80, 0)
	insert("10.0.0.2", 95, 95)
	insert("10.0.0.3", 20, 0)

	entries, err := db.Leaderboard(ctx, models.WeightConfig{Rule: 0.5, ML: 0.5}, 10)
	require.NoError(t, err)
	require.Len(t, entries, 3)

	assert.Equal(t, "10.0.0.2", entries[0].SrcIP)
	assert.Equal(t, 95.0, entries[0].CombinedScore)
	assert.Equal(t, int64(1), entries[0].Count)

	assert.Equal(t, "10.0.0.1", entries[1].SrcIP)
	assert.Equal(t, 70.0, entries[1].AvgRuleScore)
	assert.Equal(t, 40.0, entries[1].AvgMLScore)
	assert.Equal(t, 55.0, entries[1].CombinedScore)
	assert.Equal(t, int64(2), entries[1].Count)

	assert.Equal(t, "10.0.0.3", entries[2].SrcIP)
}

func TestLeaderboardEmpty(t *testing.T) {
	db := setupDB(t)
	entries, err := db.Leaderboard(context.Background(), models.DefaultWeights(), 10)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
