package sqlite

import (
	"context"
	"database/sql"
	"sort"
	"time"

	"github.com/fardannozami/scoopquest/internal/domain"
	"github.com/fardannozami/scoopquest/pkg/errors"
)

// CatalogRepository stores published quests with their objectives and
// rewards. The engine only reads it; SeedQuests is the single write path.
type CatalogRepository struct {
	db *sql.DB
}

func NewCatalogRepository(db *sql.DB) *CatalogRepository {
	return &CatalogRepository{db: db}
}

const questColumns = `id, title, description, start_at, end_at, is_active, is_featured, max_participants, difficulty, base_points`

func (r *CatalogRepository) GetQuest(ctx context.Context, id string) (*domain.Quest, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+questColumns+` FROM quests WHERE id = ?`, id)
	q, err := scanQuest(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "get quest %s", id)
	}
	if err := r.loadChildren(ctx, q); err != nil {
		return nil, err
	}
	return q, nil
}

// GetActiveQuests returns active quests whose window contains now, featured
// quests first, then the most recently started.
func (r *CatalogRepository) GetActiveQuests(ctx context.Context, now time.Time) ([]*domain.Quest, error) {
	query := `SELECT ` + questColumns + ` FROM quests
		WHERE is_active = 1 AND start_at <= ? AND (end_at IS NULL OR end_at > ?)`
	ts := formatTime(now)
	rows, err := r.db.QueryContext(ctx, query, ts, ts)
	if err != nil {
		return nil, errors.Wrap(err, "query active quests")
	}
	defer rows.Close()

	var quests []*domain.Quest
	for rows.Next() {
		q, err := scanQuest(rows)
		if err != nil {
			return nil, errors.Wrap(err, "scan quest")
		}
		quests = append(quests, q)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.WithStack(err)
	}
	rows.Close()

	for _, q := range quests {
		if err := r.loadChildren(ctx, q); err != nil {
			return nil, err
		}
	}

	sort.SliceStable(quests, func(i, j int) bool {
		if quests[i].IsFeatured != quests[j].IsFeatured {
			return quests[i].IsFeatured
		}
		if !quests[i].StartAt.Equal(quests[j].StartAt) {
			return quests[i].StartAt.After(quests[j].StartAt)
		}
		return quests[i].ID < quests[j].ID
	})
	return quests, nil
}

// SeedQuests inserts quests that are not in the catalog yet. Each quest and
// its objectives and rewards are written in a single transaction; existing
// quests are left untouched. It returns how many quests were inserted.
func (r *CatalogRepository) SeedQuests(ctx context.Context, quests []*domain.Quest) (int, error) {
	for _, q := range quests {
		if err := q.Validate(); err != nil {
			return 0, err
		}
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, errors.Wrap(err, "begin catalog tx")
	}
	defer tx.Rollback() //nolint:errcheck

	now := formatTime(time.Now())
	inserted := 0
	for _, q := range quests {
		res, err := tx.ExecContext(ctx, `
			INSERT INTO quests (`+questColumns+`, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO NOTHING`,
			q.ID, q.Title, q.Description, formatTime(q.StartAt), formatNullTime(q.EndAt),
			q.IsActive, q.IsFeatured, q.MaxParticipants, q.Difficulty, q.BasePoints, now,
		)
		if err != nil {
			return 0, errors.Wrapf(err, "insert quest %s", q.ID)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return 0, errors.WithStack(err)
		}
		if n == 0 {
			continue
		}

		for i, o := range q.Objectives {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO quest_objectives (quest_id, id, position, type, target_count, description, category, shop_id, flavor_id, latitude, longitude, radius_meters, custom_key)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				q.ID, o.ID, i, string(o.Type), o.TargetCount, o.Description, o.Category, o.ShopID, o.FlavorID,
				o.Latitude, o.Longitude, o.RadiusMeters, o.CustomKey,
			)
			if err != nil {
				return 0, errors.Wrapf(err, "insert objective %s/%s", q.ID, o.ID)
			}
		}
		for i, rw := range q.Rewards {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO quest_rewards (quest_id, id, position, type, points, badge_id, value, description)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
				q.ID, rw.ID, i, string(rw.Type), rw.Points, rw.BadgeID, rw.Value, rw.Description,
			)
			if err != nil {
				return 0, errors.Wrapf(err, "insert reward %s/%s", q.ID, rw.ID)
			}
		}
		inserted++
	}

	if err := tx.Commit(); err != nil {
		return 0, errors.Wrap(err, "commit catalog")
	}
	return inserted, nil
}

func (r *CatalogRepository) loadChildren(ctx context.Context, q *domain.Quest) error {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, type, target_count, description, category, shop_id, flavor_id, latitude, longitude, radius_meters, custom_key
		FROM quest_objectives WHERE quest_id = ? ORDER BY position`, q.ID)
	if err != nil {
		return errors.Wrapf(err, "query objectives of %s", q.ID)
	}
	q.Objectives = nil
	for rows.Next() {
		o := domain.Objective{QuestID: q.ID}
		var typ string
		if err := rows.Scan(&o.ID, &typ, &o.TargetCount, &o.Description, &o.Category, &o.ShopID, &o.FlavorID,
			&o.Latitude, &o.Longitude, &o.RadiusMeters, &o.CustomKey); err != nil {
			rows.Close()
			return errors.Wrap(err, "scan objective")
		}
		o.Type = domain.ObjectiveType(typ)
		q.Objectives = append(q.Objectives, o)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return errors.WithStack(err)
	}
	rows.Close()

	rows, err = r.db.QueryContext(ctx, `
		SELECT id, type, points, badge_id, value, description
		FROM quest_rewards WHERE quest_id = ? ORDER BY position`, q.ID)
	if err != nil {
		return errors.Wrapf(err, "query rewards of %s", q.ID)
	}
	defer rows.Close()
	q.Rewards = nil
	for rows.Next() {
		rw := domain.Reward{QuestID: q.ID}
		var typ string
		if err := rows.Scan(&rw.ID, &typ, &rw.Points, &rw.BadgeID, &rw.Value, &rw.Description); err != nil {
			return errors.Wrap(err, "scan reward")
		}
		rw.Type = domain.RewardType(typ)
		q.Rewards = append(q.Rewards, rw)
	}
	return errors.WithStack(rows.Err())
}

func scanQuest(row rowScanner) (*domain.Quest, error) {
	var (
		q       domain.Quest
		startAt string
		endAt   sql.NullString
	)
	if err := row.Scan(&q.ID, &q.Title, &q.Description, &startAt, &endAt, &q.IsActive, &q.IsFeatured,
		&q.MaxParticipants, &q.Difficulty, &q.BasePoints); err != nil {
		return nil, err
	}
	var err error
	if q.StartAt, err = parseTime(startAt); err != nil {
		return nil, err
	}
	if q.EndAt, err = parseNullTime(endAt); err != nil {
		return nil, err
	}
	return &q, nil
}

func (r *CatalogRepository) InitTable(ctx context.Context) error {
	return execAll(ctx, r.db,
		`CREATE TABLE IF NOT EXISTS quests (
			id TEXT PRIMARY KEY,
			title TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			start_at TEXT NOT NULL,
			end_at TEXT,
			is_active INTEGER NOT NULL DEFAULT 1,
			is_featured INTEGER NOT NULL DEFAULT 0,
			max_participants INTEGER NOT NULL DEFAULT 0,
			difficulty TEXT NOT NULL DEFAULT '',
			base_points INTEGER NOT NULL DEFAULT 0,
			created_at TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS quest_objectives (
			quest_id TEXT NOT NULL REFERENCES quests(id),
			id TEXT NOT NULL,
			position INTEGER NOT NULL,
			type TEXT NOT NULL,
			target_count INTEGER NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			category TEXT NOT NULL DEFAULT '',
			shop_id TEXT NOT NULL DEFAULT '',
			flavor_id TEXT NOT NULL DEFAULT '',
			latitude REAL NOT NULL DEFAULT 0,
			longitude REAL NOT NULL DEFAULT 0,
			radius_meters REAL NOT NULL DEFAULT 0,
			custom_key TEXT NOT NULL DEFAULT '',
			PRIMARY KEY (quest_id, id)
		)`,
		`CREATE TABLE IF NOT EXISTS quest_rewards (
			quest_id TEXT NOT NULL REFERENCES quests(id),
			id TEXT NOT NULL,
			position INTEGER NOT NULL,
			type TEXT NOT NULL,
			points INTEGER NOT NULL DEFAULT 0,
			badge_id TEXT NOT NULL DEFAULT '',
			value TEXT NOT NULL DEFAULT '',
			description TEXT NOT NULL DEFAULT '',
			PRIMARY KEY (quest_id, id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_quests_active ON quests(is_active, start_at)`,
	)
}
