package usecase_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fardannozami/scoopquest/internal/app/usecase"
	"github.com/fardannozami/scoopquest/internal/domain"
)

type staticStandings []domain.Standing

func (s staticStandings) Standings(ctx context.Context, limit int) ([]domain.Standing, error) {
	if len(s) > limit {
		return s[:limit], nil
	}
	return s, nil
}

func TestGetLeaderboard(t *testing.T) {
	profiles := &mockProfiles{names: map[string]string{"628111": "Alice"}}
	uc := usecase.NewGetLeaderboardUsecase(staticStandings{
		{UserID: "628111", Points: 300},
		{UserID: "628222", Points: 100},
	}, profiles, fixedClock{t: testNow})

	msg, err := uc.Execute(context.Background())
	require.NoError(t, err)

	assert.Contains(t, msg, "Scoop Quest Leaderboard (14-03-2026)")
	assert.Contains(t, msg, "1. Alice - 300 poin 🥇")
	assert.Contains(t, msg, "2. 628222 - 100 poin 🥈", "falls back to the user id")
	assert.Less(t, strings.Index(msg, "Alice"), strings.Index(msg, "628222"))
}

func TestGetLeaderboard_Empty(t *testing.T) {
	uc := usecase.NewGetLeaderboardUsecase(staticStandings{}, nil, fixedClock{t: testNow})

	msg, err := uc.Execute(context.Background())
	require.NoError(t, err)
	assert.Contains(t, msg, "Belum ada")
}
