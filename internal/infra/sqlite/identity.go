package sqlite

import (
	"context"
	"database/sql"

	"github.com/fardannozami/scoopquest/pkg/errors"
	"github.com/fardannozami/scoopquest/pkg/log"
)

// IdentityResolver maps WhatsApp LIDs to phone numbers using the mapping
// table whatsmeow keeps in the same database file.
type IdentityResolver struct {
	db *sql.DB
}

func NewIdentityResolver(db *sql.DB) *IdentityResolver {
	return &IdentityResolver{db: db}
}

// ResolveLIDToPhone returns the phone number for lid, or lid itself when no
// mapping is known yet.
func (r *IdentityResolver) ResolveLIDToPhone(ctx context.Context, lid string) string {
	var pn string
	err := r.db.QueryRowContext(ctx, `SELECT pn FROM whatsmeow_lid_map WHERE lid = ?`, lid).Scan(&pn)
	if errors.Is(err, sql.ErrNoRows) {
		return lid
	}
	if err != nil {
		log.Debugf("resolve lid %s: %v", lid, err)
		return lid
	}
	if pn == "" {
		return lid
	}
	return pn
}
