package usecase

import (
	"context"

	"github.com/fardannozami/scoopquest/internal/app/notify"
	"github.com/fardannozami/scoopquest/internal/app/reward"
	"github.com/fardannozami/scoopquest/internal/domain"
	"github.com/fardannozami/scoopquest/pkg/log"
)

const defaultMaxAttempts = 3

// Engine holds the collaborators shared by the quest lifecycle use cases.
type Engine struct {
	Catalog    domain.QuestCatalog
	Store      domain.ProgressStore
	Dispatcher domain.RewardDispatcher
	Notifier   domain.EventNotifier
	Clock      domain.Clock

	// MaxAttempts bounds optimistic-concurrency retries per quest.
	MaxAttempts int
}

func (e Engine) withDefaults() Engine {
	if e.Clock == nil {
		e.Clock = domain.SystemClock{}
	}
	if e.Notifier == nil {
		e.Notifier = notify.Nop{}
	}
	if e.MaxAttempts < 1 {
		e.MaxAttempts = defaultMaxAttempts
	}
	return e
}

func (e Engine) event(name domain.EventName, uq *domain.UserQuest, q *domain.Quest) domain.Event {
	ev := domain.Event{
		Name:        name,
		UserID:      uq.UserID,
		QuestID:     uq.QuestID,
		UserQuestID: uq.ID,
		OccurredAt:  e.Clock.Now(),
	}
	if q != nil {
		ev.QuestTitle = q.Title
	}
	return ev
}

// issueRewards runs after the completed state is durable. issued is true
// when every reward was issued and the record was marked accordingly. earned
// counts the points credited by this call only, not earlier attempts.
func (e Engine) issueRewards(ctx context.Context, uq *domain.UserQuest, q *domain.Quest) (issued bool, earned int) {
	logger := log.WithFields(log.Fields{"user_id": uq.UserID, "quest_id": uq.QuestID, "user_quest_id": uq.ID})

	var outcomes []domain.RewardIssuance
	if e.Dispatcher != nil && len(q.Rewards) > 0 {
		outcomes = e.Dispatcher.Dispatch(ctx, uq.UserID, uq.QuestID, q.Rewards)
	}

	for _, o := range outcomes {
		if o.Succeeded() {
			if o.Type == domain.RewardPoints && !o.Duplicate {
				if r, ok := q.Reward(o.RewardID); ok {
					earned += r.Points
				}
			}
			continue
		}
		logger.Warnf("reward %s not issued: %s", o.RewardID, o.LastError)
		ev := e.event(domain.EventRewardFailed, uq, q)
		ev.RewardID = o.RewardID
		ev.Detail = o.LastError
		e.Notifier.Emit(ctx, ev)
	}

	if !reward.AllIssued(outcomes) {
		return false, earned
	}
	now := e.Clock.Now()
	if err := e.Store.MarkRewardsIssued(ctx, uq.ID, now); err != nil {
		logger.Errorf("mark rewards issued: %v", err)
		return false, earned
	}
	uq.RewardsIssuedAt = &now
	return true, earned
}

// reportEarnedPoints feeds freshly credited points back in as an earn_points
// activity, so point-threshold quests move with the ledger.
func (e Engine) reportEarnedPoints(ctx context.Context, userID string, points int) {
	if points <= 0 {
		return
	}
	uc := &ReportActivityUsecase{engine: e}
	if _, err := uc.Execute(ctx, userID, domain.ObjectiveEarnPoints, domain.ActivityPayload{Points: points}); err != nil {
		log.WithFields(log.Fields{"user_id": userID, "points": points}).Warnf("report earned points: %v", err)
	}
}
