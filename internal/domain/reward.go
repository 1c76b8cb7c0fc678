package domain

import (
	"context"
	"time"
)

type IssuanceStatus string

const (
	IssuanceIssued IssuanceStatus = "issued"
	IssuanceFailed IssuanceStatus = "failed"
)

// RewardIssuance is the outcome of dispatching one reward for one completed
// UserQuest.
type RewardIssuance struct {
	Key       string         `json:"key"`
	UserID    string         `json:"user_id"`
	QuestID   string         `json:"quest_id"`
	RewardID  string         `json:"reward_id"`
	Type      RewardType     `json:"type"`
	Status    IssuanceStatus `json:"status"`
	Attempts  int            `json:"attempts"`
	LastError string         `json:"last_error,omitempty"`
	UpdatedAt time.Time      `json:"updated_at"`

	// Duplicate is set when an earlier attempt already issued the reward and
	// nothing was sent downstream this time. Not persisted.
	Duplicate bool `json:"-"`
}

func (ri RewardIssuance) Succeeded() bool {
	return ri.Status == IssuanceIssued
}

// IdempotencyKey is deterministic per (user, quest, reward).
func IdempotencyKey(userID, questID, rewardID string) string {
	return userID + ":" + questID + ":" + rewardID
}

type BadgeStore interface {
	GrantBadge(ctx context.Context, userID, badgeID, idempotencyKey string) error
}

type PointsLedger interface {
	CreditPoints(ctx context.Context, userID string, amount int, idempotencyKey string) error
}

// Standing is one leaderboard row.
type Standing struct {
	UserID string
	Points int
}

type LeaderboardReader interface {
	Standings(ctx context.Context, limit int) ([]Standing, error)
}

// IssuanceStore remembers per-key dispatch outcomes. Get returns (nil, nil)
// for an unknown key.
type IssuanceStore interface {
	GetIssuance(ctx context.Context, key string) (*RewardIssuance, error)
	SaveIssuance(ctx context.Context, issuance *RewardIssuance) error
}

// RewardDispatcher issues a completed quest's rewards idempotently.
type RewardDispatcher interface {
	Dispatch(ctx context.Context, userID, questID string, rewards []Reward) []RewardIssuance
}
