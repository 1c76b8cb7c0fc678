package sqlite

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/fardannozami/scoopquest/pkg/errors"
)

// timeLayout is fixed-width so stored timestamps compare correctly as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

const uniqueViolation = "UNIQUE constraint failed"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(timeLayout, s)
}

func formatNullTime(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: formatTime(*t), Valid: true}
}

func parseNullTime(s sql.NullString) (*time.Time, error) {
	if !s.Valid || s.String == "" {
		return nil, nil
	}
	t, err := parseTime(s.String)
	if err != nil {
		return nil, errors.Wrapf(err, "parse time %q", s.String)
	}
	return &t, nil
}

// isUniqueViolation works for both mattn/go-sqlite3 and modernc.org/sqlite.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), uniqueViolation)
}

type tableInitializer interface {
	InitTable(ctx context.Context) error
}

// InitSchema creates every table the engine owns.
func InitSchema(ctx context.Context, db *sql.DB) error {
	for _, t := range []tableInitializer{
		NewCatalogRepository(db),
		NewUserQuestRepository(db),
		NewPointsLedger(db),
		NewBadgeStore(db),
		NewIssuanceRepository(db),
		NewActivityLog(db),
		NewProfileRepository(db),
	} {
		if err := t.InitTable(ctx); err != nil {
			return errors.Wrap(err, "init schema")
		}
	}
	return nil
}

func execAll(ctx context.Context, db *sql.DB, stmts ...string) error {
	for _, s := range stmts {
		if _, err := db.ExecContext(ctx, s); err != nil {
			return errors.WithStack(err)
		}
	}
	return nil
}
