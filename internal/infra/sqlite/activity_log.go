package sqlite

import (
	"context"
	"database/sql"

	"github.com/fardannozami/scoopquest/internal/domain"
	"github.com/fardannozami/scoopquest/pkg/errors"
)

// ActivityLog is the local audit trail. It always records, next to Kafka when
// a broker is configured, and backs the #history command.
type ActivityLog struct {
	db *sql.DB
}

func NewActivityLog(db *sql.DB) *ActivityLog {
	return &ActivityLog{db: db}
}

func (l *ActivityLog) Append(ctx context.Context, e domain.Event) error {
	query := `
		INSERT INTO activity_log (name, user_id, quest_id, user_quest_id, objective_id, reward_id, detail, occurred_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := l.db.ExecContext(ctx, query,
		string(e.Name), e.UserID, e.QuestID, e.UserQuestID, e.ObjectiveID, e.RewardID, e.Detail, formatTime(e.OccurredAt))
	return errors.Wrapf(err, "append %s", e.Name)
}

// Recent returns the latest events of userID, newest first.
func (l *ActivityLog) Recent(ctx context.Context, userID string, limit int) ([]domain.Event, error) {
	query := `
		SELECT name, user_id, quest_id, user_quest_id, objective_id, reward_id, detail, occurred_at
		FROM activity_log WHERE user_id = ?
		ORDER BY id DESC LIMIT ?
	`
	rows, err := l.db.QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, errors.Wrap(err, "query activity log")
	}
	defer rows.Close()

	var out []domain.Event
	for rows.Next() {
		var (
			e          domain.Event
			name       string
			occurredAt string
		)
		if err := rows.Scan(&name, &e.UserID, &e.QuestID, &e.UserQuestID, &e.ObjectiveID, &e.RewardID, &e.Detail, &occurredAt); err != nil {
			return nil, errors.Wrap(err, "scan activity")
		}
		e.Name = domain.EventName(name)
		if e.OccurredAt, err = parseTime(occurredAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (l *ActivityLog) InitTable(ctx context.Context) error {
	return execAll(ctx, l.db,
		`CREATE TABLE IF NOT EXISTS activity_log (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL,
			user_id TEXT NOT NULL,
			quest_id TEXT NOT NULL DEFAULT '',
			user_quest_id TEXT NOT NULL DEFAULT '',
			objective_id TEXT NOT NULL DEFAULT '',
			reward_id TEXT NOT NULL DEFAULT '',
			detail TEXT NOT NULL DEFAULT '',
			occurred_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_activity_log_user ON activity_log(user_id)`,
	)
}
