package sqlite

import (
	"context"
	"database/sql"

	"github.com/fardannozami/scoopquest/internal/domain"
	"github.com/fardannozami/scoopquest/pkg/errors"
)

type IssuanceRepository struct {
	db *sql.DB
}

func NewIssuanceRepository(db *sql.DB) *IssuanceRepository {
	return &IssuanceRepository{db: db}
}

func (r *IssuanceRepository) GetIssuance(ctx context.Context, key string) (*domain.RewardIssuance, error) {
	query := `SELECT idempotency_key, user_id, quest_id, reward_id, type, status, attempts, last_error, updated_at
		FROM reward_issuances WHERE idempotency_key = ?`

	var (
		ri        domain.RewardIssuance
		typ       string
		status    string
		updatedAt string
	)
	err := r.db.QueryRowContext(ctx, query, key).Scan(
		&ri.Key, &ri.UserID, &ri.QuestID, &ri.RewardID, &typ, &status, &ri.Attempts, &ri.LastError, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "get issuance %s", key)
	}
	ri.Type = domain.RewardType(typ)
	ri.Status = domain.IssuanceStatus(status)
	if ri.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return &ri, nil
}

// SaveIssuance never downgrades an issued record back to failed.
func (r *IssuanceRepository) SaveIssuance(ctx context.Context, ri *domain.RewardIssuance) error {
	query := `
		INSERT INTO reward_issuances (idempotency_key, user_id, quest_id, reward_id, type, status, attempts, last_error, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(idempotency_key) DO UPDATE SET
			status = excluded.status,
			attempts = excluded.attempts,
			last_error = excluded.last_error,
			updated_at = excluded.updated_at
		WHERE reward_issuances.status != 'issued'
	`
	_, err := r.db.ExecContext(ctx, query,
		ri.Key, ri.UserID, ri.QuestID, ri.RewardID, string(ri.Type), string(ri.Status), ri.Attempts, ri.LastError, formatTime(ri.UpdatedAt))
	return errors.Wrapf(err, "save issuance %s", ri.Key)
}

func (r *IssuanceRepository) InitTable(ctx context.Context) error {
	return execAll(ctx, r.db,
		`CREATE TABLE IF NOT EXISTS reward_issuances (
			idempotency_key TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			quest_id TEXT NOT NULL,
			reward_id TEXT NOT NULL,
			type TEXT NOT NULL,
			status TEXT NOT NULL,
			attempts INTEGER NOT NULL DEFAULT 0,
			last_error TEXT NOT NULL DEFAULT '',
			updated_at TEXT NOT NULL
		)`,
	)
}
