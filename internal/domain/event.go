package domain

import (
	"context"
	"time"
)

type EventName string

const (
	EventQuestJoined        EventName = "quest_joined"
	EventObjectiveCompleted EventName = "objective_completed"
	EventQuestCompleted     EventName = "quest_completed"
	EventQuestAbandoned     EventName = "quest_abandoned"
	EventRewardFailed       EventName = "reward_failed"
)

// DetailRewardsIssued marks a quest_completed event whose rewards all went
// through on the first try.
const DetailRewardsIssued = "rewards_issued"

type Event struct {
	Name        EventName `json:"name"`
	UserID      string    `json:"user_id"`
	QuestID     string    `json:"quest_id"`
	QuestTitle  string    `json:"quest_title,omitempty"`
	UserQuestID string    `json:"user_quest_id,omitempty"`
	ObjectiveID string    `json:"objective_id,omitempty"`
	RewardID    string    `json:"reward_id,omitempty"`
	OccurredAt  time.Time `json:"occurred_at"`
	Detail      string    `json:"detail,omitempty"`
}

// EventNotifier is fire-and-forget; the engine never consumes a result.
type EventNotifier interface {
	Emit(ctx context.Context, event Event)
}

// NotificationService delivers user-facing alerts.
type NotificationService interface {
	Notify(ctx context.Context, event Event) error
}

// ActivityLog is an append-only audit sink.
type ActivityLog interface {
	Append(ctx context.Context, event Event) error
}

// Clock lets tests pin the current time.
type Clock interface {
	Now() time.Time
}

type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now().UTC()
}
