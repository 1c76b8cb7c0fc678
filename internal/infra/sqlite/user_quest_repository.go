package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"
	"time"

	"github.com/fardannozami/scoopquest/internal/domain"
	"github.com/fardannozami/scoopquest/pkg/errors"
)

type UserQuestRepository struct {
	db *sql.DB
}

func NewUserQuestRepository(db *sql.DB) *UserQuestRepository {
	return &UserQuestRepository{db: db}
}

const userQuestColumns = `id, user_id, quest_id, status, joined_at, completed_at, progress, version, rewards_issued_at`

func (r *UserQuestRepository) GetUserQuest(ctx context.Context, userID, questID string) (*domain.UserQuest, error) {
	query := `SELECT ` + userQuestColumns + ` FROM user_quests WHERE user_id = ? AND quest_id = ?`
	return r.getOne(ctx, query, userID, questID)
}

func (r *UserQuestRepository) GetUserQuestByID(ctx context.Context, id string) (*domain.UserQuest, error) {
	query := `SELECT ` + userQuestColumns + ` FROM user_quests WHERE id = ?`
	return r.getOne(ctx, query, id)
}

func (r *UserQuestRepository) getOne(ctx context.Context, query string, args ...any) (*domain.UserQuest, error) {
	uq, err := scanUserQuest(r.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "get user quest")
	}
	return uq, nil
}

func (r *UserQuestRepository) ListUserQuests(ctx context.Context, userID string, statuses ...domain.UserQuestStatus) ([]*domain.UserQuest, error) {
	query := `SELECT ` + userQuestColumns + ` FROM user_quests WHERE user_id = ?`
	args := []any{userID}
	if len(statuses) > 0 {
		query += ` AND status IN (?` + strings.Repeat(`, ?`, len(statuses)-1) + `)`
		for _, s := range statuses {
			args = append(args, string(s))
		}
	}
	query += ` ORDER BY joined_at DESC`
	return r.list(ctx, query, args...)
}

func (r *UserQuestRepository) CreateUserQuest(ctx context.Context, uq *domain.UserQuest, maxParticipants int) error {
	progress, err := json.Marshal(uq.Progress)
	if err != nil {
		return errors.Wrap(err, "encode progress")
	}

	// The cap check and the insert are one statement so concurrent joins
	// cannot both see a free slot.
	query := `
		INSERT INTO user_quests (id, user_id, quest_id, status, joined_at, completed_at, progress, version, rewards_issued_at)
		SELECT ?, ?, ?, ?, ?, ?, ?, 1, NULL
		WHERE ? <= 0 OR (SELECT COUNT(*) FROM user_quests WHERE quest_id = ?) < ?
	`
	res, err := r.db.ExecContext(ctx, query,
		uq.ID, uq.UserID, uq.QuestID, string(uq.Status), formatTime(uq.JoinedAt), formatNullTime(uq.CompletedAt), string(progress),
		maxParticipants, uq.QuestID, maxParticipants,
	)
	if isUniqueViolation(err) {
		return domain.ErrAlreadyJoined
	}
	if err != nil {
		return errors.Wrapf(err, "insert user quest %s", uq.ID)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return errors.WithStack(err)
	}
	if n == 0 {
		// Nothing inserted: either the quest is full or the user got in first.
		existing, err := r.GetUserQuest(ctx, uq.UserID, uq.QuestID)
		if err != nil {
			return err
		}
		if existing != nil {
			return domain.ErrAlreadyJoined
		}
		return domain.ErrQuestFull
	}

	uq.Version = 1
	return nil
}

func (r *UserQuestRepository) UpdateUserQuest(ctx context.Context, uq *domain.UserQuest, expectedVersion int64) error {
	progress, err := json.Marshal(uq.Progress)
	if err != nil {
		return errors.Wrap(err, "encode progress")
	}

	query := `
		UPDATE user_quests SET
			status = ?,
			joined_at = ?,
			completed_at = ?,
			progress = ?,
			rewards_issued_at = ?,
			version = version + 1
		WHERE id = ? AND version = ?
	`
	res, err := r.db.ExecContext(ctx, query,
		string(uq.Status), formatTime(uq.JoinedAt), formatNullTime(uq.CompletedAt), string(progress), formatNullTime(uq.RewardsIssuedAt),
		uq.ID, expectedVersion,
	)
	if err != nil {
		return errors.Wrapf(err, "update user quest %s", uq.ID)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return errors.WithStack(err)
	}
	if n == 0 {
		var exists int
		err := r.db.QueryRowContext(ctx, `SELECT 1 FROM user_quests WHERE id = ?`, uq.ID).Scan(&exists)
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ErrNotFound
		}
		if err != nil {
			return errors.Wrapf(err, "check user quest %s", uq.ID)
		}
		return domain.ErrVersionConflict
	}

	uq.Version = expectedVersion + 1
	return nil
}

func (r *UserQuestRepository) ListUnrewarded(ctx context.Context, completedBefore time.Time, limit int) ([]*domain.UserQuest, error) {
	query := `SELECT ` + userQuestColumns + ` FROM user_quests
		WHERE status = ? AND rewards_issued_at IS NULL AND completed_at < ?
		ORDER BY completed_at LIMIT ?`
	return r.list(ctx, query, string(domain.StatusCompleted), formatTime(completedBefore), limit)
}

// MarkRewardsIssued only touches the audit field, so it does not bump the version.
func (r *UserQuestRepository) MarkRewardsIssued(ctx context.Context, id string, at time.Time) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE user_quests SET rewards_issued_at = ? WHERE id = ? AND status = ?`,
		formatTime(at), id, string(domain.StatusCompleted),
	)
	if err != nil {
		return errors.Wrapf(err, "mark rewards issued %s", id)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return errors.WithStack(err)
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *UserQuestRepository) list(ctx context.Context, query string, args ...any) ([]*domain.UserQuest, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "query user quests")
	}
	defer rows.Close()

	var out []*domain.UserQuest
	for rows.Next() {
		uq, err := scanUserQuest(rows)
		if err != nil {
			return nil, errors.Wrap(err, "scan user quest")
		}
		out = append(out, uq)
	}
	return out, errors.WithStack(rows.Err())
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUserQuest(row rowScanner) (*domain.UserQuest, error) {
	var (
		uq              domain.UserQuest
		status          string
		joinedAt        string
		completedAt     sql.NullString
		progress        string
		rewardsIssuedAt sql.NullString
	)
	if err := row.Scan(&uq.ID, &uq.UserID, &uq.QuestID, &status, &joinedAt, &completedAt, &progress, &uq.Version, &rewardsIssuedAt); err != nil {
		return nil, err
	}
	uq.Status = domain.UserQuestStatus(status)

	var err error
	if uq.JoinedAt, err = parseTime(joinedAt); err != nil {
		return nil, err
	}
	if uq.CompletedAt, err = parseNullTime(completedAt); err != nil {
		return nil, err
	}
	if uq.RewardsIssuedAt, err = parseNullTime(rewardsIssuedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(progress), &uq.Progress); err != nil {
		return nil, errors.Wrapf(err, "decode progress of %s", uq.ID)
	}
	return &uq, nil
}

func (r *UserQuestRepository) InitTable(ctx context.Context) error {
	return execAll(ctx, r.db,
		`CREATE TABLE IF NOT EXISTS user_quests (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			quest_id TEXT NOT NULL,
			status TEXT NOT NULL,
			joined_at TEXT NOT NULL,
			completed_at TEXT,
			progress TEXT NOT NULL,
			version INTEGER NOT NULL DEFAULT 1,
			rewards_issued_at TEXT,
			UNIQUE(user_id, quest_id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_user_quests_quest ON user_quests(quest_id)`,
		`CREATE INDEX IF NOT EXISTS idx_user_quests_unrewarded ON user_quests(status, rewards_issued_at)`,
	)
}
