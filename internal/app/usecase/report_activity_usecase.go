package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/fardannozami/scoopquest/internal/domain"
	"github.com/fardannozami/scoopquest/pkg/log"
)

type ReportActivityUsecase struct {
	engine Engine
}

func NewReportActivityUsecase(engine Engine) *ReportActivityUsecase {
	return &ReportActivityUsecase{engine: engine.withDefaults()}
}

// Execute applies one activity event to every in-progress quest of userID
// that has a matching objective. Quests are handled independently: the
// returned slice holds every record that changed and the error joins the
// failures of the others.
func (uc *ReportActivityUsecase) Execute(ctx context.Context, userID string, eventType domain.ObjectiveType, payload domain.ActivityPayload) ([]*domain.UserQuest, error) {
	e := uc.engine

	active, err := e.Store.ListUserQuests(ctx, userID, domain.StatusInProgress)
	if err != nil {
		return nil, fmt.Errorf("list in-progress quests: %w", err)
	}

	var (
		updated []*domain.UserQuest
		errs    []error
	)
	for _, uq := range active {
		quest, err := e.Catalog.GetQuest(ctx, uq.QuestID)
		if err != nil {
			errs = append(errs, fmt.Errorf("quest %s: %w", uq.QuestID, err))
			continue
		}
		if quest == nil {
			log.Warnf("user quest %s points to unknown quest %s", uq.ID, uq.QuestID)
			continue
		}
		if !quest.HasObjectiveType(eventType) {
			continue
		}

		next, err := uc.apply(ctx, uq, quest, eventType, payload)
		if err != nil {
			errs = append(errs, fmt.Errorf("quest %s: %w", uq.QuestID, err))
			continue
		}
		if next != nil {
			updated = append(updated, next)
		}
	}

	return updated, errors.Join(errs...)
}

// apply returns nil, nil when the event leaves the record untouched.
func (uc *ReportActivityUsecase) apply(ctx context.Context, uq *domain.UserQuest, quest *domain.Quest, eventType domain.ObjectiveType, payload domain.ActivityPayload) (*domain.UserQuest, error) {
	e := uc.engine
	logger := log.WithFields(log.Fields{"user_id": uq.UserID, "quest_id": quest.ID, "user_quest_id": uq.ID})

	for attempt := 1; ; attempt++ {
		if attempt > 1 {
			fresh, err := e.Store.GetUserQuestByID(ctx, uq.ID)
			if err != nil {
				return nil, fmt.Errorf("reload user quest: %w", err)
			}
			if fresh == nil {
				return nil, domain.ErrNotFound
			}
			uq = fresh
		}

		// Completed and abandoned quests are closed to further events.
		if uq.Status != domain.StatusInProgress {
			return nil, nil
		}
		if err := uq.Progress.Validate(quest); err != nil {
			logger.Errorf("stored progress rejected: %v", err)
			return nil, err
		}

		now := e.Clock.Now()
		next := uq.Clone()
		var finished []string
		changed := false

		for _, o := range quest.Objectives {
			if !domain.Matches(o, eventType, payload) {
				continue
			}
			cur := next.Progress[o.ID]
			np, ok := domain.Evaluate(cur, o, payload, now)
			if !ok {
				continue
			}
			changed = true
			if np.IsCompleted && !cur.IsCompleted {
				finished = append(finished, o.ID)
			}
			next.Progress[o.ID] = np
		}
		if !changed {
			return nil, nil
		}

		completed := next.Progress.AllComplete()
		if completed {
			next.Status = domain.StatusCompleted
			t := now
			next.CompletedAt = &t
		}

		err := e.Store.UpdateUserQuest(ctx, next, uq.Version)
		if errors.Is(err, domain.ErrVersionConflict) {
			if attempt >= e.MaxAttempts {
				logger.Warnf("giving up after %d attempts", attempt)
				return nil, fmt.Errorf("%w: %d attempts", domain.ErrProgressConflict, attempt)
			}
			logger.Debugf("version conflict on attempt %d, retrying", attempt)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("update user quest: %w", err)
		}

		for _, id := range finished {
			ev := e.event(domain.EventObjectiveCompleted, next, quest)
			ev.ObjectiveID = id
			if o, ok := quest.Objective(id); ok {
				ev.Detail = o.Description
			}
			e.Notifier.Emit(ctx, ev)
		}
		if completed {
			logger.Infof("quest completed")
			issued, earned := e.issueRewards(ctx, next, quest)
			ev := e.event(domain.EventQuestCompleted, next, quest)
			if issued {
				ev.Detail = domain.DetailRewardsIssued
			}
			e.Notifier.Emit(ctx, ev)
			e.reportEarnedPoints(ctx, next.UserID, earned)
		}
		return next, nil
	}
}
