package usecase

import (
	"context"
	"fmt"
	"sort"

	"github.com/fardannozami/scoopquest/internal/domain"
	"github.com/fardannozami/scoopquest/pkg/log"
)

type GetUserQuestsUsecase struct {
	catalog domain.QuestCatalog
	store   domain.ProgressStore
}

func NewGetUserQuestsUsecase(catalog domain.QuestCatalog, store domain.ProgressStore) *GetUserQuestsUsecase {
	return &GetUserQuestsUsecase{catalog: catalog, store: store}
}

// Execute lists every participation record of userID joined with its quest.
// In-progress quests come first, then newest joins.
func (uc *GetUserQuestsUsecase) Execute(ctx context.Context, userID string, statuses ...domain.UserQuestStatus) ([]domain.UserQuestView, error) {
	records, err := uc.store.ListUserQuests(ctx, userID, statuses...)
	if err != nil {
		return nil, fmt.Errorf("list user quests: %w", err)
	}

	views := make([]domain.UserQuestView, 0, len(records))
	for _, uq := range records {
		q, err := uc.catalog.GetQuest(ctx, uq.QuestID)
		if err != nil {
			return nil, fmt.Errorf("get quest %s: %w", uq.QuestID, err)
		}
		if q == nil {
			log.Warnf("user quest %s points to unknown quest %s", uq.ID, uq.QuestID)
			continue
		}
		views = append(views, domain.UserQuestView{UserQuest: uq, Quest: q})
	}

	sort.SliceStable(views, func(i, j int) bool {
		a, b := views[i].UserQuest, views[j].UserQuest
		ai, bi := a.Status == domain.StatusInProgress, b.Status == domain.StatusInProgress
		if ai != bi {
			return ai
		}
		return a.JoinedAt.After(b.JoinedAt)
	})
	return views, nil
}

type ListAvailableQuestsUsecase struct {
	catalog domain.QuestCatalog
	clock   domain.Clock
}

func NewListAvailableQuestsUsecase(catalog domain.QuestCatalog, clock domain.Clock) *ListAvailableQuestsUsecase {
	if clock == nil {
		clock = domain.SystemClock{}
	}
	return &ListAvailableQuestsUsecase{catalog: catalog, clock: clock}
}

// Execute returns the quests a user could join right now.
func (uc *ListAvailableQuestsUsecase) Execute(ctx context.Context) ([]*domain.Quest, error) {
	quests, err := uc.catalog.GetActiveQuests(ctx, uc.clock.Now())
	if err != nil {
		return nil, fmt.Errorf("get active quests: %w", err)
	}
	out := quests[:0:0]
	for _, q := range quests {
		if len(q.Objectives) > 0 {
			out = append(out, q)
		}
	}
	return out, nil
}
