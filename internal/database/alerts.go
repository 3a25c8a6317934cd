// RiskWatch - Intrusion Detection Risk Scoring and Live Dashboard
// SPDX-License-Identifier: AGPL-3.0-or-later

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/nurrustem/riskwatch/internal/models"
)

const alertColumns = `id, timestamp, src_ip, dest_ip, signature, severity, proto, rule_score, ml_score, explanation`

// InsertAlert persists a new alert and returns its assigned ID.
func (db *DB) InsertAlert(ctx context.Context, a *models.Alert) (int64, error) {
	var id int64
	err := db.conn.QueryRowContext(ctx, `
		INSERT INTO alerts (timestamp, src_ip, dest_ip, signature, severity, proto, rule_score, ml_score, explanation)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id`,
		a.Timestamp, a.SrcIP, a.DestIP, a.Signature, a.Severity, a.Proto,
		a.RuleScore, a.MLScore, a.Explanation,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("inserting alert: %w", err)
	}
	return id, nil
}

// GetAlert fetches a single alert by ID. Returns ErrNotFound if absent.
func (db *DB) GetAlert(ctx context.Context, id int64) (*models.Alert, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT `+alertColumns+` FROM alerts WHERE id = ?`, id)
	a, err := scanAlert(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting alert %d: %w", id, err)
	}
	return a, nil
}

// ListRecentAlerts returns the newest alerts, most recent first.
func (db *DB) ListRecentAlerts(ctx context.Context, limit int) ([]*models.Alert, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+alertColumns+` FROM alerts ORDER BY timestamp DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing recent alerts: %w", err)
	}
	defer rows.Close()

	alerts := make([]*models.Alert, 0, limit)
	for rows.Next() {
		a, err := scanAlert(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning alert row: %w", err)
		}
		alerts = append(alerts, a)
	}
	return alerts, rows.Err()
}

// FindDuplicate looks for the most recent alert within the trailing window
// that is an exact repeat of the candidate: same endpoints, signature,
// severity, protocol, and rule score. Returns ErrNotFound when no repeat
// exists.
func (db *DB) FindDuplicate(ctx context.Context, a *models.Alert, window time.Duration) (*models.Alert, error) {
	cutoff := a.Timestamp.Add(-window)
	row := db.conn.QueryRowContext(ctx, `
		SELECT `+alertColumns+` FROM alerts
		WHERE src_ip = ? AND dest_ip = ? AND signature = ?
		  AND severity = ? AND proto = ? AND rule_score = ?
		  AND timestamp >= ?
		ORDER BY timestamp DESC, id DESC
		LIMIT 1`,
		a.SrcIP, a.DestIP, a.Signature, a.Severity, a.Proto, a.RuleScore, cutoff)
	dup, err := scanAlert(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("finding duplicate: %w", err)
	}
	return dup, nil
}

// UpdateEnrichment writes the oracle result onto an existing alert.
func (db *DB) UpdateEnrichment(ctx context.Context, id int64, mlScore float64, explanation string) error {
	res, err := db.conn.ExecContext(ctx,
		`UPDATE alerts SET ml_score = ?, explanation = ? WHERE id = ?`,
		mlScore, explanation, id)
	if err != nil {
		return fmt.Errorf("updating enrichment for alert %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking enrichment update for alert %d: %w", id, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// CountAlerts returns the total number of stored alerts.
func (db *DB) CountAlerts(ctx context.Context) (int64, error) {
	var n int64
	if err := db.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM alerts`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting alerts: %w", err)
	}
	return n, nil
}

// scanner is the shared subset of sql.Row and sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanAlert(s scanner) (*models.Alert, error) {
	a := &models.Alert{}
	var explanation sql.NullString
	err := s.Scan(&a.ID, &a.Timestamp, &a.SrcIP, &a.DestIP, &a.Signature,
		&a.Severity, &a.Proto, &a.RuleScore, &a.MLScore, &explanation)
	if err != nil {
		return nil, err
	}
	if explanation.Valid {
		a.Explanation = &explanation.String
	}
	return a, nil
}
