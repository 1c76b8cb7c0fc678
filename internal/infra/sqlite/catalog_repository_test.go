package sqlite_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fardannozami/scoopquest/internal/domain"
	"github.com/fardannozami/scoopquest/internal/infra/sqlite"
)

func catalogQuest(id string, start time.Time) *domain.Quest {
	return &domain.Quest{
		ID:          id,
		Title:       "Quest " + id,
		Description: "desc",
		StartAt:     start,
		IsActive:    true,
		Difficulty:  "easy",
		BasePoints:  10,
		Objectives: []domain.Objective{
			{ID: "b", Type: domain.ObjectiveVisitShop, TargetCount: 1, ShopID: "shop-42"},
			{ID: "a", Type: domain.ObjectiveVisitLocation, TargetCount: 2, Latitude: -6.2, Longitude: 106.8, RadiusMeters: 150},
		},
		Rewards: []domain.Reward{
			{ID: "pts", Type: domain.RewardPoints, Points: 100},
			{ID: "badge", Type: domain.RewardBadge, BadgeID: "explorer"},
		},
	}
}

func TestCatalogRepository_SeedAndGet(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()
	repo := sqlite.NewCatalogRepository(db)
	ctx := context.Background()

	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, 0)
	q := catalogQuest("q1", start)
	q.EndAt = &end
	q.MaxParticipants = 5

	n, err := repo.SeedQuests(ctx, []*domain.Quest{q})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	got, err := repo.GetQuest(ctx, "q1")
	require.NoError(t, err)
	require.NotNil(t, got)

	assert.Equal(t, "Quest q1", got.Title)
	assert.True(t, got.StartAt.Equal(start))
	require.NotNil(t, got.EndAt)
	assert.True(t, got.EndAt.Equal(end))
	assert.Equal(t, 5, got.MaxParticipants)
	assert.True(t, got.IsActive)

	require.Len(t, got.Objectives, 2)
	assert.Equal(t, "b", got.Objectives[0].ID, "objective order is preserved")
	assert.Equal(t, "q1", got.Objectives[0].QuestID)
	assert.Equal(t, 150.0, got.Objectives[1].RadiusMeters)
	require.Len(t, got.Rewards, 2)
	assert.Equal(t, domain.RewardBadge, got.Rewards[1].Type)
	assert.Equal(t, "explorer", got.Rewards[1].BadgeID)

	missing, err := repo.GetQuest(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestCatalogRepository_SeedIsInsertIfAbsent(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()
	repo := sqlite.NewCatalogRepository(db)
	ctx := context.Background()

	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	_, err := repo.SeedQuests(ctx, []*domain.Quest{catalogQuest("q1", start)})
	require.NoError(t, err)

	changed := catalogQuest("q1", start)
	changed.Title = "Renamed"
	n, err := repo.SeedQuests(ctx, []*domain.Quest{changed, catalogQuest("q2", start)})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	got, _ := repo.GetQuest(ctx, "q1")
	assert.Equal(t, "Quest q1", got.Title)
	assert.Len(t, got.Objectives, 2)
}

func TestCatalogRepository_SeedRejectsInvalidQuest(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()
	repo := sqlite.NewCatalogRepository(db)
	ctx := context.Background()

	bad := catalogQuest("bad", time.Now())
	bad.Objectives[0].TargetCount = 0

	_, err := repo.SeedQuests(ctx, []*domain.Quest{catalogQuest("ok", time.Now()), bad})
	require.Error(t, err)

	got, _ := repo.GetQuest(ctx, "ok")
	assert.Nil(t, got, "nothing is written when any quest is invalid")
}

func TestCatalogRepository_GetActiveQuests(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()
	repo := sqlite.NewCatalogRepository(db)
	ctx := context.Background()

	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

	old := catalogQuest("old", now.AddDate(0, -2, 0))
	recent := catalogQuest("recent", now.AddDate(0, 0, -1))
	featured := catalogQuest("featured", now.AddDate(0, -1, 0))
	featured.IsFeatured = true
	future := catalogQuest("future", now.Add(time.Hour))
	ended := catalogQuest("ended", now.AddDate(0, -1, 0))
	endAt := now
	ended.EndAt = &endAt
	inactive := catalogQuest("inactive", now.AddDate(0, -1, 0))
	inactive.IsActive = false

	_, err := repo.SeedQuests(ctx, []*domain.Quest{old, recent, featured, future, ended, inactive})
	require.NoError(t, err)

	active, err := repo.GetActiveQuests(ctx, now)
	require.NoError(t, err)

	ids := make([]string, len(active))
	for i, q := range active {
		ids[i] = q.ID
	}
	assert.Equal(t, []string{"featured", "recent", "old"}, ids)
	assert.Len(t, active[0].Objectives, 2)
}
