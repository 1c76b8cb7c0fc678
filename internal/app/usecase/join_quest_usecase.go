package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/fardannozami/scoopquest/internal/domain"
)

type JoinQuestUsecase struct {
	engine Engine
}

func NewJoinQuestUsecase(engine Engine) *JoinQuestUsecase {
	return &JoinQuestUsecase{engine: engine.withDefaults()}
}

// Execute starts (or restarts, after an abandon) a quest for userID.
func (uc *JoinQuestUsecase) Execute(ctx context.Context, userID, questID string) (*domain.UserQuest, error) {
	e := uc.engine

	quest, err := e.Catalog.GetQuest(ctx, questID)
	if err != nil {
		return nil, fmt.Errorf("get quest %s: %w", questID, err)
	}
	if quest == nil {
		return nil, domain.ErrNotFound
	}
	if !quest.IsActive {
		return nil, domain.ErrNotActive
	}
	if len(quest.Objectives) == 0 {
		return nil, domain.ErrNoObjectives
	}
	if !quest.InWindow(e.Clock.Now()) {
		return nil, domain.ErrOutOfWindow
	}

	for attempt := 1; ; attempt++ {
		existing, err := e.Store.GetUserQuest(ctx, userID, questID)
		if err != nil {
			return nil, fmt.Errorf("get user quest: %w", err)
		}

		var uq *domain.UserQuest
		if existing == nil {
			uq, err = uc.create(ctx, userID, quest)
		} else {
			uq, err = uc.reactivate(ctx, existing, quest)
		}

		// Lost the insert race with another device: the record exists now.
		lostCreate := existing == nil && errors.Is(err, domain.ErrAlreadyJoined) && attempt == 1
		if errors.Is(err, domain.ErrVersionConflict) || lostCreate {
			if attempt >= e.MaxAttempts {
				if lostCreate {
					return nil, domain.ErrAlreadyJoined
				}
				return nil, fmt.Errorf("join quest %s: %w", questID, domain.ErrProgressConflict)
			}
			continue
		}
		if err != nil {
			return nil, err
		}

		e.Notifier.Emit(ctx, e.event(domain.EventQuestJoined, uq, quest))
		return uq, nil
	}
}

func (uc *JoinQuestUsecase) create(ctx context.Context, userID string, quest *domain.Quest) (*domain.UserQuest, error) {
	now := uc.engine.Clock.Now()
	uq := &domain.UserQuest{
		ID:       uuid.NewString(),
		UserID:   userID,
		QuestID:  quest.ID,
		Status:   domain.StatusInProgress,
		JoinedAt: now,
		Progress: domain.NewProgressMap(quest, now),
	}
	if err := uc.engine.Store.CreateUserQuest(ctx, uq, quest.MaxParticipants); err != nil {
		return nil, err
	}
	return uq, nil
}

// reactivate reuses an abandoned record. The record already counts toward
// the participant cap, so the cap is not checked again.
func (uc *JoinQuestUsecase) reactivate(ctx context.Context, existing *domain.UserQuest, quest *domain.Quest) (*domain.UserQuest, error) {
	if existing.Status != domain.StatusAbandoned {
		return nil, domain.ErrAlreadyJoined
	}

	now := uc.engine.Clock.Now()
	uq := existing.Clone()
	uq.Status = domain.StatusInProgress
	uq.JoinedAt = now
	uq.CompletedAt = nil
	uq.RewardsIssuedAt = nil
	uq.Progress = domain.NewProgressMap(quest, now)

	if err := uc.engine.Store.UpdateUserQuest(ctx, uq, existing.Version); err != nil {
		return nil, err
	}
	return uq, nil
}
