package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/fardannozami/scoopquest/internal/domain"
	"github.com/fardannozami/scoopquest/pkg/log"
)

type AbandonQuestUsecase struct {
	engine Engine
}

func NewAbandonQuestUsecase(engine Engine) *AbandonQuestUsecase {
	return &AbandonQuestUsecase{engine: engine.withDefaults()}
}

// Execute moves an in-progress record owned by userID to abandoned.
// A record owned by someone else is reported as not found.
func (uc *AbandonQuestUsecase) Execute(ctx context.Context, userID, userQuestID string) (*domain.UserQuest, error) {
	e := uc.engine

	for attempt := 1; ; attempt++ {
		uq, err := e.Store.GetUserQuestByID(ctx, userQuestID)
		if err != nil {
			return nil, fmt.Errorf("get user quest: %w", err)
		}
		if uq == nil || uq.UserID != userID {
			return nil, domain.ErrNotFound
		}

		switch uq.Status {
		case domain.StatusCompleted:
			return nil, domain.ErrAlreadyCompleted
		case domain.StatusAbandoned:
			return nil, domain.ErrNotInProgress
		}

		next := uq.Clone()
		next.Status = domain.StatusAbandoned

		err = e.Store.UpdateUserQuest(ctx, next, uq.Version)
		if errors.Is(err, domain.ErrVersionConflict) {
			if attempt >= e.MaxAttempts {
				return nil, fmt.Errorf("%w: %d attempts", domain.ErrProgressConflict, attempt)
			}
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("update user quest: %w", err)
		}

		quest, err := e.Catalog.GetQuest(ctx, next.QuestID)
		if err != nil {
			log.Warnf("load quest %s for abandon event: %v", next.QuestID, err)
		}
		e.Notifier.Emit(ctx, e.event(domain.EventQuestAbandoned, next, quest))
		return next, nil
	}
}
