package pgstore

import (
	"context"
	"encoding/json"

	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"

	"github.com/dkchapman16/loadwatch/internal/models"
)

// GetSettings возвращает singleton-строку настроек. Пока её никто не сохранял,
// отдаём дефолты без ошибки.
func (s *Storage) GetSettings(ctx context.Context) (models.GlobalSettings, error) {
	var gs models.GlobalSettings
	var buffers []byte

	err := s.db.QueryRow(ctx, `
SELECT
  timezone_default, default_buffer_min,
  quiet_hours_start, quiet_hours_end, allow_night_calls,
  daily_api_cap, poll_interval_min_default, customer_buffers
FROM global_settings
WHERE id = 1
`).Scan(
		&gs.TimezoneDefault, &gs.DefaultBufferMin,
		&gs.QuietHoursStart, &gs.QuietHoursEnd, &gs.AllowNightCalls,
		&gs.DailyAPICap, &gs.PollIntervalMinDefault, &buffers,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.DefaultGlobalSettings(), nil
	}
	if err != nil {
		return models.GlobalSettings{}, errors.Wrap(err, "select settings")
	}

	gs.CustomerBuffers = map[string]int{}
	if len(buffers) > 0 {
		if err := json.Unmarshal(buffers, &gs.CustomerBuffers); err != nil {
			return models.GlobalSettings{}, errors.Wrap(err, "decode customer buffers")
		}
	}
	return gs, nil
}

func (s *Storage) UpdateSettings(ctx context.Context, gs models.GlobalSettings) error {
	if gs.CustomerBuffers == nil {
		gs.CustomerBuffers = map[string]int{}
	}
	buffers, err := json.Marshal(gs.CustomerBuffers)
	if err != nil {
		return errors.Wrap(err, "encode customer buffers")
	}

	_, err = s.db.Exec(ctx, `
INSERT INTO global_settings (
  id, timezone_default, default_buffer_min,
  quiet_hours_start, quiet_hours_end, allow_night_calls,
  daily_api_cap, poll_interval_min_default, customer_buffers, updated_at
)
VALUES (1, $1, $2, $3, $4, $5, $6, $7, $8, now())
ON CONFLICT (id) DO UPDATE SET
  timezone_default = EXCLUDED.timezone_default,
  default_buffer_min = EXCLUDED.default_buffer_min,
  quiet_hours_start = EXCLUDED.quiet_hours_start,
  quiet_hours_end = EXCLUDED.quiet_hours_end,
  allow_night_calls = EXCLUDED.allow_night_calls,
  daily_api_cap = EXCLUDED.daily_api_cap,
  poll_interval_min_default = EXCLUDED.poll_interval_min_default,
  customer_buffers = EXCLUDED.customer_buffers,
  updated_at = now()
`, gs.TimezoneDefault, gs.DefaultBufferMin,
		gs.QuietHoursStart, gs.QuietHoursEnd, gs.AllowNightCalls,
		gs.DailyAPICap, gs.PollIntervalMinDefault, buffers)
	return errors.Wrap(err, "upsert settings")
}
