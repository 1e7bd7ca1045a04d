package pgstore

import (
	"context"

	"github.com/pkg/errors"
)

func (s *Storage) initSchema(ctx context.Context) error {
	stmts := []string{
		`
CREATE TABLE IF NOT EXISTS global_settings (
  id INT PRIMARY KEY CHECK (id = 1),
  timezone_default TEXT NOT NULL,
  default_buffer_min INT NOT NULL,
  quiet_hours_start INT NOT NULL,
  quiet_hours_end INT NOT NULL,
  allow_night_calls BOOLEAN NOT NULL,
  daily_api_cap INT NOT NULL,
  poll_interval_min_default INT NOT NULL,
  customer_buffers JSONB NOT NULL DEFAULT '{}'::jsonb,
  updated_at TIMESTAMPTZ NOT NULL
)`,
		`
CREATE TABLE IF NOT EXISTS acks (
  ack_key TEXT PRIMARY KEY,
  load_id TEXT NOT NULL,
  acknowledged_by TEXT NULL,
  acknowledged_at TIMESTAMPTZ NULL,
  created_at TIMESTAMPTZ NOT NULL
)`,
		`CREATE INDEX IF NOT EXISTS idx_acks_load_id ON acks(load_id)`,
		`
CREATE TABLE IF NOT EXISTS alerts (
  id BIGSERIAL PRIMARY KEY,
  load_id TEXT NOT NULL,
  load_ref TEXT NOT NULL DEFAULT '',
  prev_status TEXT NOT NULL DEFAULT '',
  new_status TEXT NOT NULL,
  reason TEXT NOT NULL DEFAULT '',
  eta_iso TEXT NOT NULL DEFAULT '',
  created_at TIMESTAMPTZ NOT NULL
)`,
		`CREATE INDEX IF NOT EXISTS idx_alerts_created_at ON alerts(created_at DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_alerts_load_id ON alerts(load_id)`,
	}

	for _, q := range stmts {
		if _, err := s.db.Exec(ctx, q); err != nil {
			return errors.Wrap(err, "init schema")
		}
	}
	return nil
}
