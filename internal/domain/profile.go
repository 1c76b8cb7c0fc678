package domain

import "context"

// ProfileStore remembers the display name each user last chatted with.
type ProfileStore interface {
	SaveName(ctx context.Context, userID, name string) error
	Names(ctx context.Context, userIDs []string) (map[string]string, error)
}
