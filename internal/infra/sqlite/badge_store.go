package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/fardannozami/scoopquest/pkg/errors"
)

type BadgeStore struct {
	db *sql.DB
}

func NewBadgeStore(db *sql.DB) *BadgeStore {
	return &BadgeStore{db: db}
}

// GrantBadge is a no-op when the user already holds the badge or the key
// was seen before.
func (s *BadgeStore) GrantBadge(ctx context.Context, userID, badgeID, idempotencyKey string) error {
	query := `
		INSERT INTO user_badges (user_id, badge_id, idempotency_key, granted_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT DO NOTHING
	`
	_, err := s.db.ExecContext(ctx, query, userID, badgeID, idempotencyKey, formatTime(time.Now()))
	return errors.Wrapf(err, "grant badge %s", badgeID)
}

func (s *BadgeStore) Badges(ctx context.Context, userID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT badge_id FROM user_badges WHERE user_id = ? ORDER BY granted_at, badge_id`, userID)
	if err != nil {
		return nil, errors.Wrap(err, "query badges")
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, errors.Wrap(err, "scan badge")
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

func (s *BadgeStore) InitTable(ctx context.Context) error {
	return execAll(ctx, s.db,
		`CREATE TABLE IF NOT EXISTS user_badges (
			user_id TEXT NOT NULL,
			badge_id TEXT NOT NULL,
			idempotency_key TEXT NOT NULL UNIQUE,
			granted_at TEXT NOT NULL,
			PRIMARY KEY (user_id, badge_id)
		)`,
	)
}
