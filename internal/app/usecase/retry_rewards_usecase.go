package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/fardannozami/scoopquest/pkg/log"
)

type RetryRewardsUsecase struct {
	engine Engine
	grace  time.Duration
	batch  int
}

// NewRetryRewardsUsecase sweeps completed quests whose rewards are still
// missing. Records completed less than grace ago are left to the live path.
func NewRetryRewardsUsecase(engine Engine, grace time.Duration, batch int) *RetryRewardsUsecase {
	if batch <= 0 {
		batch = 50
	}
	return &RetryRewardsUsecase{engine: engine.withDefaults(), grace: grace, batch: batch}
}

// Execute returns how many records got all their rewards in this sweep.
func (uc *RetryRewardsUsecase) Execute(ctx context.Context) (int, error) {
	e := uc.engine

	pending, err := e.Store.ListUnrewarded(ctx, e.Clock.Now().Add(-uc.grace), uc.batch)
	if err != nil {
		return 0, fmt.Errorf("list unrewarded: %w", err)
	}

	done := 0
	for _, uq := range pending {
		if err := ctx.Err(); err != nil {
			return done, err
		}
		quest, err := e.Catalog.GetQuest(ctx, uq.QuestID)
		if err != nil {
			return done, fmt.Errorf("get quest %s: %w", uq.QuestID, err)
		}
		if quest == nil {
			log.Warnf("skip reward retry for %s: quest %s no longer exists", uq.ID, uq.QuestID)
			continue
		}
		issued, earned := e.issueRewards(ctx, uq, quest)
		if issued {
			done++
		}
		e.reportEarnedPoints(ctx, uq.UserID, earned)
	}
	if len(pending) > 0 {
		log.Infof("reward retry: %d/%d records fully rewarded", done, len(pending))
	}
	return done, nil
}
