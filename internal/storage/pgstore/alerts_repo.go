package pgstore

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"

	"github.com/dkchapman16/loadwatch/internal/models"
)

func (s *Storage) RecordAlerts(ctx context.Context, alerts []models.Alert) error {
	if len(alerts) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return errors.Wrap(err, "begin tx")
	}
	defer func() { _ = tx.Rollback(ctx) }()

	for _, a := range alerts {
		_, err := tx.Exec(ctx, `
INSERT INTO alerts (load_id, load_ref, prev_status, new_status, reason, eta_iso, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
`, a.LoadID, a.LoadRef, a.PrevStatus, a.NewStatus, a.Reason, a.EtaISO, a.CreatedAt.UTC())
		if err != nil {
			return errors.Wrap(err, "insert alert")
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return errors.Wrap(err, "commit tx")
	}
	return nil
}

func (s *Storage) ListRecentAlerts(ctx context.Context, limit int) ([]*models.Alert, error) {
	if limit <= 0 || limit > 500 {
		limit = 50
	}

	rows, err := s.db.Query(ctx, `
SELECT id, load_id, load_ref, prev_status, new_status, reason, eta_iso, created_at
FROM alerts
ORDER BY created_at DESC, id DESC
LIMIT $1
`, limit)
	if err != nil {
		return nil, errors.Wrap(err, "select alerts")
	}
	defer rows.Close()

	var out []*models.Alert
	for rows.Next() {
		var a models.Alert
		if err := rows.Scan(
			&a.ID, &a.LoadID, &a.LoadRef, &a.PrevStatus,
			&a.NewStatus, &a.Reason, &a.EtaISO, &a.CreatedAt,
		); err != nil {
			return nil, errors.Wrap(err, "scan alert")
		}
		out = append(out, &a)
	}
	if rows.Err() != nil {
		return nil, errors.Wrap(rows.Err(), "rows")
	}
	return out, nil
}
