package sqlite

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/fardannozami/scoopquest/pkg/errors"
)

type ProfileRepository struct {
	db *sql.DB
}

func NewProfileRepository(db *sql.DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

func (r *ProfileRepository) SaveName(ctx context.Context, userID, name string) error {
	query := `
		INSERT INTO user_profiles (user_id, name, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			name = excluded.name,
			updated_at = excluded.updated_at
	`
	_, err := r.db.ExecContext(ctx, query, userID, name, formatTime(time.Now()))
	return errors.Wrapf(err, "save name of %s", userID)
}

func (r *ProfileRepository) Names(ctx context.Context, userIDs []string) (map[string]string, error) {
	names := make(map[string]string, len(userIDs))
	if len(userIDs) == 0 {
		return names, nil
	}

	query := `SELECT user_id, name FROM user_profiles WHERE user_id IN (?` + strings.Repeat(`, ?`, len(userIDs)-1) + `)`
	args := make([]any, len(userIDs))
	for i, id := range userIDs {
		args[i] = id
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "query names")
	}
	defer rows.Close()

	for rows.Next() {
		var id, name string
		if err := rows.Scan(&id, &name); err != nil {
			return nil, errors.Wrap(err, "scan name")
		}
		names[id] = name
	}
	return names, rows.Err()
}

func (r *ProfileRepository) InitTable(ctx context.Context) error {
	return execAll(ctx, r.db,
		`CREATE TABLE IF NOT EXISTS user_profiles (
			user_id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			updated_at TEXT NOT NULL
		)`,
	)
}
