package reward

import (
	"context"
	"fmt"

	"github.com/fardannozami/scoopquest/internal/domain"
	"github.com/fardannozami/scoopquest/pkg/errors"
	"github.com/fardannozami/scoopquest/pkg/log"
)

// Dispatcher issues rewards against the Badge Store and Points Ledger. Every
// downstream call carries the (user, quest, reward) idempotency key, and a
// reward whose issuance record says issued is never sent again.
type Dispatcher struct {
	badges    domain.BadgeStore
	points    domain.PointsLedger
	issuances domain.IssuanceStore
	clock     domain.Clock
}

func NewDispatcher(badges domain.BadgeStore, points domain.PointsLedger, issuances domain.IssuanceStore, clock domain.Clock) *Dispatcher {
	if clock == nil {
		clock = domain.SystemClock{}
	}
	return &Dispatcher{
		badges:    badges,
		points:    points,
		issuances: issuances,
		clock:     clock,
	}
}

// Dispatch issues each reward independently and returns one outcome per
// reward, in order. A failure never stops the remaining rewards.
func (d *Dispatcher) Dispatch(ctx context.Context, userID, questID string, rewards []domain.Reward) []domain.RewardIssuance {
	out := make([]domain.RewardIssuance, 0, len(rewards))
	for _, r := range rewards {
		out = append(out, d.dispatchOne(ctx, userID, questID, r))
	}
	return out
}

func (d *Dispatcher) dispatchOne(ctx context.Context, userID, questID string, r domain.Reward) domain.RewardIssuance {
	key := domain.IdempotencyKey(userID, questID, r.ID)
	logger := log.WithFields(log.Fields{"user_id": userID, "quest_id": questID, "reward_id": r.ID})

	issuance := domain.RewardIssuance{
		Key:      key,
		UserID:   userID,
		QuestID:  questID,
		RewardID: r.ID,
		Type:     r.Type,
	}

	prior, err := d.issuances.GetIssuance(ctx, key)
	if err != nil {
		// Without the record we can still rely on downstream dedupe.
		logger.Warnf("read issuance record: %v", err)
	}
	if prior != nil {
		if prior.Succeeded() {
			dup := *prior
			dup.Duplicate = true
			return dup
		}
		issuance.Attempts = prior.Attempts
	}

	issuance.Attempts++
	issuance.UpdatedAt = d.clock.Now()
	if err := d.issue(ctx, userID, key, r); err != nil {
		issuance.Status = domain.IssuanceFailed
		issuance.LastError = err.Error()
		logger.Errorf("issue reward (attempt %d): %v", issuance.Attempts, err)
		errors.Report(errors.Wrapf(err, "issue reward %s", key))
	} else {
		issuance.Status = domain.IssuanceIssued
		logger.Infof("reward issued")
	}

	if err := d.issuances.SaveIssuance(ctx, &issuance); err != nil {
		logger.Errorf("save issuance record: %v", err)
	}
	return issuance
}

func (d *Dispatcher) issue(ctx context.Context, userID, key string, r domain.Reward) error {
	switch r.Type {
	case domain.RewardPoints:
		if d.points == nil {
			return fmt.Errorf("no points ledger configured")
		}
		return d.points.CreditPoints(ctx, userID, r.Points, key)
	case domain.RewardBadge:
		if d.badges == nil {
			return fmt.Errorf("no badge store configured")
		}
		return d.badges.GrantBadge(ctx, userID, r.BadgeID, key)
	case domain.RewardTitle, domain.RewardCustom:
		// No external store; the issuance record is the grant.
		return nil
	default:
		return fmt.Errorf("unknown reward type %q", r.Type)
	}
}

// AllIssued reports whether every outcome succeeded.
func AllIssued(outcomes []domain.RewardIssuance) bool {
	for _, o := range outcomes {
		if !o.Succeeded() {
			return false
		}
	}
	return true
}
