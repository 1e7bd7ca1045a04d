package pgstore

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"

	"github.com/dkchapman16/loadwatch/internal/models"
)

var ErrAckNotFound = errors.New("ack not found")

func (s *Storage) CreateAck(ctx context.Context, loadID string) (*models.Ack, error) {
	a := &models.Ack{
		AckKey:    uuid.NewString(),
		LoadID:    loadID,
		CreatedAt: time.Now().UTC(),
	}

	_, err := s.db.Exec(ctx, `
INSERT INTO acks (ack_key, load_id, created_at)
VALUES ($1, $2, $3)
`, a.AckKey, a.LoadID, a.CreatedAt)
	if err != nil {
		return nil, errors.Wrap(err, "insert ack")
	}
	return a, nil
}

// Acknowledge проставляет отметку один раз: повторный вызов не перетирает
// первого подтвердившего.
func (s *Storage) Acknowledge(ctx context.Context, ackKey, by string) (*models.Ack, error) {
	now := time.Now().UTC()

	_, err := s.db.Exec(ctx, `
UPDATE acks
SET acknowledged_by = $2, acknowledged_at = $3
WHERE ack_key = $1 AND acknowledged_at IS NULL
`, ackKey, by, now)
	if err != nil {
		return nil, errors.Wrap(err, "update ack")
	}

	return s.getAck(ctx, ackKey)
}

func (s *Storage) getAck(ctx context.Context, ackKey string) (*models.Ack, error) {
	var a models.Ack
	var by *string
	err := s.db.QueryRow(ctx, `
SELECT ack_key, load_id, acknowledged_by, acknowledged_at, created_at
FROM acks
WHERE ack_key = $1
`, ackKey).Scan(&a.AckKey, &a.LoadID, &by, &a.AcknowledgedAt, &a.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrAckNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "select ack")
	}
	if by != nil {
		a.AcknowledgedBy = *by
	}
	return &a, nil
}
