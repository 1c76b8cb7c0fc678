package domain

import (
	"context"
	"fmt"
	"time"
)

type UserQuestStatus string

const (
	StatusInProgress UserQuestStatus = "in_progress"
	StatusCompleted  UserQuestStatus = "completed"
	StatusAbandoned  UserQuestStatus = "abandoned"
)

type ObjectiveProgress struct {
	ObjectiveID  string    `json:"objective_id"`
	CurrentCount int       `json:"current_count"`
	IsCompleted  bool      `json:"is_completed"`
	LastUpdated  time.Time `json:"last_updated"`
}

// ProgressMap is keyed by objective id.
type ProgressMap map[string]ObjectiveProgress

// NewProgressMap returns a zeroed entry for every objective of q.
func NewProgressMap(q *Quest, now time.Time) ProgressMap {
	p := make(ProgressMap, len(q.Objectives))
	for _, o := range q.Objectives {
		p[o.ID] = ObjectiveProgress{ObjectiveID: o.ID, LastUpdated: now}
	}
	return p
}

// Validate checks that p has exactly one well-formed entry per objective of q.
func (p ProgressMap) Validate(q *Quest) error {
	if len(p) != len(q.Objectives) {
		return fmt.Errorf("%w: quest %s has %d objectives, progress has %d",
			ErrInvalidProgress, q.ID, len(q.Objectives), len(p))
	}
	for _, o := range q.Objectives {
		op, ok := p[o.ID]
		if !ok {
			return fmt.Errorf("%w: missing objective %s", ErrInvalidProgress, o.ID)
		}
		if op.ObjectiveID != o.ID {
			return fmt.Errorf("%w: entry %s carries objective id %q", ErrInvalidProgress, o.ID, op.ObjectiveID)
		}
		if op.CurrentCount < 0 || op.CurrentCount > o.TargetCount {
			return fmt.Errorf("%w: objective %s count %d outside [0,%d]",
				ErrInvalidProgress, o.ID, op.CurrentCount, o.TargetCount)
		}
		if op.IsCompleted != (op.CurrentCount >= o.TargetCount) {
			return fmt.Errorf("%w: objective %s completion flag disagrees with count", ErrInvalidProgress, o.ID)
		}
	}
	return nil
}

// AllComplete is false for an empty map.
func (p ProgressMap) AllComplete() bool {
	if len(p) == 0 {
		return false
	}
	for _, op := range p {
		if !op.IsCompleted {
			return false
		}
	}
	return true
}

func (p ProgressMap) CompletedCount() int {
	n := 0
	for _, op := range p {
		if op.IsCompleted {
			n++
		}
	}
	return n
}

func (p ProgressMap) Clone() ProgressMap {
	out := make(ProgressMap, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

// UserQuest is one user's participation record for one quest. Version is
// bumped by the Progress Store on every successful write.
type UserQuest struct {
	ID          string          `json:"id"`
	UserID      string          `json:"user_id"`
	QuestID     string          `json:"quest_id"`
	Status      UserQuestStatus `json:"status"`
	JoinedAt    time.Time       `json:"joined_at"`
	CompletedAt *time.Time      `json:"completed_at,omitempty"`
	Progress    ProgressMap     `json:"progress"`
	Version     int64           `json:"version"`

	// RewardsIssuedAt is an audit field set after every reward was issued.
	// It is the only field that changes once Status is completed.
	RewardsIssuedAt *time.Time `json:"rewards_issued_at,omitempty"`
}

func (uq *UserQuest) Clone() *UserQuest {
	cp := *uq
	cp.Progress = uq.Progress.Clone()
	if uq.CompletedAt != nil {
		t := *uq.CompletedAt
		cp.CompletedAt = &t
	}
	if uq.RewardsIssuedAt != nil {
		t := *uq.RewardsIssuedAt
		cp.RewardsIssuedAt = &t
	}
	return &cp
}

// UserQuestView joins a participation record with its quest definition.
type UserQuestView struct {
	UserQuest *UserQuest
	Quest     *Quest
}

// ProgressStore persists UserQuest records with optimistic concurrency.
// Getters return (nil, nil) when nothing matches.
type ProgressStore interface {
	GetUserQuest(ctx context.Context, userID, questID string) (*UserQuest, error)
	GetUserQuestByID(ctx context.Context, id string) (*UserQuest, error)
	ListUserQuests(ctx context.Context, userID string, statuses ...UserQuestStatus) ([]*UserQuest, error)

	// CreateUserQuest inserts uq with Version 1. When maxParticipants > 0 the
	// insert fails with ErrQuestFull if the quest already has that many rows.
	// A second record for the same (user, quest) fails with ErrAlreadyJoined.
	CreateUserQuest(ctx context.Context, uq *UserQuest, maxParticipants int) error

	// UpdateUserQuest writes uq only if the stored version equals
	// expectedVersion, otherwise ErrVersionConflict. On success uq.Version is
	// set to the new version.
	UpdateUserQuest(ctx context.Context, uq *UserQuest, expectedVersion int64) error

	// ListUnrewarded returns completed records whose rewards were not all
	// issued, completed before the given time.
	ListUnrewarded(ctx context.Context, completedBefore time.Time, limit int) ([]*UserQuest, error)
	MarkRewardsIssued(ctx context.Context, id string, at time.Time) error
}
