package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/fardannozami/scoopquest/internal/domain"
	"github.com/fardannozami/scoopquest/pkg/errors"
)

// PointsLedger keeps one row per credit, keyed by idempotency key, so a
// repeated credit is a no-op.
type PointsLedger struct {
	db *sql.DB
}

func NewPointsLedger(db *sql.DB) *PointsLedger {
	return &PointsLedger{db: db}
}

func (l *PointsLedger) CreditPoints(ctx context.Context, userID string, amount int, idempotencyKey string) error {
	query := `
		INSERT INTO point_credits (idempotency_key, user_id, amount, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(idempotency_key) DO NOTHING
	`
	_, err := l.db.ExecContext(ctx, query, idempotencyKey, userID, amount, formatTime(time.Now()))
	return errors.Wrapf(err, "credit points %s", idempotencyKey)
}

func (l *PointsLedger) Balance(ctx context.Context, userID string) (int, error) {
	var total int
	err := l.db.QueryRowContext(ctx, `SELECT COALESCE(SUM(amount), 0) FROM point_credits WHERE user_id = ?`, userID).Scan(&total)
	return total, errors.Wrap(err, "read balance")
}

func (l *PointsLedger) Standings(ctx context.Context, limit int) ([]domain.Standing, error) {
	query := `
		SELECT user_id, SUM(amount) AS total
		FROM point_credits
		GROUP BY user_id
		ORDER BY total DESC, user_id
		LIMIT ?
	`
	rows, err := l.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, errors.Wrap(err, "query standings")
	}
	defer rows.Close()

	var out []domain.Standing
	for rows.Next() {
		var s domain.Standing
		if err := rows.Scan(&s.UserID, &s.Points); err != nil {
			return nil, errors.Wrap(err, "scan standing")
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (l *PointsLedger) InitTable(ctx context.Context) error {
	return execAll(ctx, l.db,
		`CREATE TABLE IF NOT EXISTS point_credits (
			idempotency_key TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			amount INTEGER NOT NULL,
			created_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_point_credits_user ON point_credits(user_id)`,
	)
}
