package usecase_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fardannozami/scoopquest/internal/app/usecase"
	"github.com/fardannozami/scoopquest/internal/domain"
)

// =============================================================================
// JOIN QUEST USECASE TESTS
// =============================================================================

func TestJoinQuest_CreatesZeroedProgress(t *testing.T) {
	f := newFixture(scoopExplorer())
	uc := usecase.NewJoinQuestUsecase(f.engine)

	uq, err := uc.Execute(context.Background(), "u1", "scoop-explorer")
	require.NoError(t, err)

	assert.Equal(t, domain.StatusInProgress, uq.Status)
	assert.Equal(t, int64(1), uq.Version)
	assert.Equal(t, testNow, uq.JoinedAt)
	assert.Len(t, uq.Progress, 2)
	for id, p := range uq.Progress {
		assert.Equal(t, id, p.ObjectiveID)
		assert.Zero(t, p.CurrentCount)
		assert.False(t, p.IsCompleted)
	}
	assert.Equal(t, []domain.EventName{domain.EventQuestJoined}, f.notifier.names())
}

func TestJoinQuest_RejectionOrder(t *testing.T) {
	ctx := context.Background()

	// Inactive and empty and out of window: inactive wins.
	q := scoopExplorer()
	q.IsActive = false
	q.Objectives = nil
	q.StartAt = testNow.Add(time.Hour)
	_, err := usecase.NewJoinQuestUsecase(newFixture(q).engine).Execute(ctx, "u1", q.ID)
	assert.ErrorIs(t, err, domain.ErrNotActive)

	q.IsActive = true
	_, err = usecase.NewJoinQuestUsecase(newFixture(q).engine).Execute(ctx, "u1", q.ID)
	assert.ErrorIs(t, err, domain.ErrNoObjectives)

	q.Objectives = scoopExplorer().Objectives
	_, err = usecase.NewJoinQuestUsecase(newFixture(q).engine).Execute(ctx, "u1", q.ID)
	assert.ErrorIs(t, err, domain.ErrOutOfWindow)

	_, err = usecase.NewJoinQuestUsecase(newFixture(q).engine).Execute(ctx, "u1", "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestJoinQuest_EndIsExclusive(t *testing.T) {
	q := scoopExplorer()
	end := testNow
	q.EndAt = &end

	_, err := usecase.NewJoinQuestUsecase(newFixture(q).engine).Execute(context.Background(), "u1", q.ID)
	assert.ErrorIs(t, err, domain.ErrOutOfWindow)
}

func TestJoinQuest_Twice(t *testing.T) {
	f := newFixture(scoopExplorer())
	uc := usecase.NewJoinQuestUsecase(f.engine)
	ctx := context.Background()

	_, err := uc.Execute(ctx, "u1", "scoop-explorer")
	require.NoError(t, err)
	_, err = uc.Execute(ctx, "u1", "scoop-explorer")
	assert.ErrorIs(t, err, domain.ErrAlreadyJoined)
}

func TestJoinQuest_ParticipantCap(t *testing.T) {
	q := scoopExplorer()
	q.MaxParticipants = 2
	f := newFixture(q)
	uc := usecase.NewJoinQuestUsecase(f.engine)
	ctx := context.Background()

	_, err := uc.Execute(ctx, "u1", q.ID)
	require.NoError(t, err)
	_, err = uc.Execute(ctx, "u2", q.ID)
	require.NoError(t, err)
	_, err = uc.Execute(ctx, "u3", q.ID)
	assert.ErrorIs(t, err, domain.ErrQuestFull)
}

func TestJoinQuest_RejoinAfterAbandonResetsProgress(t *testing.T) {
	q := scoopExplorer()
	q.MaxParticipants = 1
	f := newFixture(q)
	join := usecase.NewJoinQuestUsecase(f.engine)
	report := usecase.NewReportActivityUsecase(f.engine)
	abandon := usecase.NewAbandonQuestUsecase(f.engine)
	ctx := context.Background()

	uq, err := join.Execute(ctx, "u1", q.ID)
	require.NoError(t, err)
	_, err = report.Execute(ctx, "u1", domain.ObjectiveVisitShop, domain.ActivityPayload{ShopID: "shop-42"})
	require.NoError(t, err)
	_, err = abandon.Execute(ctx, "u1", uq.ID)
	require.NoError(t, err)

	again, err := join.Execute(ctx, "u1", q.ID)
	require.NoError(t, err, "rejoining reuses the record and does not count against the cap")

	assert.Equal(t, uq.ID, again.ID)
	assert.Equal(t, domain.StatusInProgress, again.Status)
	assert.Zero(t, again.Progress["shop"].CurrentCount)
	assert.Greater(t, again.Version, uq.Version)
}

// staleReadStore hides an existing record from the first lookup, like a
// second device that inserted between our read and our insert.
type staleReadStore struct {
	*memStore
	hidden bool
}

func (s *staleReadStore) GetUserQuest(ctx context.Context, userID, questID string) (*domain.UserQuest, error) {
	if !s.hidden {
		s.hidden = true
		return nil, nil
	}
	return s.memStore.GetUserQuest(ctx, userID, questID)
}

func TestJoinQuest_LostInsertRace(t *testing.T) {
	for _, attempts := range []int{1, 3} {
		f := newFixture(scoopExplorer())
		ctx := context.Background()
		first, err := usecase.NewJoinQuestUsecase(f.engine).Execute(ctx, "u1", "scoop-explorer")
		require.NoError(t, err)

		engine := f.engine
		engine.Store = &staleReadStore{memStore: f.store}
		engine.MaxAttempts = attempts
		_, err = usecase.NewJoinQuestUsecase(engine).Execute(ctx, "u1", "scoop-explorer")

		assert.ErrorIs(t, err, domain.ErrAlreadyJoined, "attempts=%d", attempts)
		assert.NotErrorIs(t, err, domain.ErrProgressConflict, "attempts=%d", attempts)
		assert.Equal(t, int64(1), f.store.get(first.ID).Version)
	}
}
