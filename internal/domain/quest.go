package domain

import (
	"context"
	"fmt"
	"time"
)

type ObjectiveType string

const (
	ObjectiveVisitShop         ObjectiveType = "visit_shop"
	ObjectiveTryFlavor         ObjectiveType = "try_flavor"
	ObjectiveTryFlavorCategory ObjectiveType = "try_flavor_category"
	ObjectiveVisitLocation     ObjectiveType = "visit_location"
	ObjectiveLogReviews        ObjectiveType = "log_reviews"
	ObjectiveEarnPoints        ObjectiveType = "earn_points"
	ObjectiveCustom            ObjectiveType = "custom"
)

func (t ObjectiveType) Valid() bool {
	switch t {
	case ObjectiveVisitShop, ObjectiveTryFlavor, ObjectiveTryFlavorCategory,
		ObjectiveVisitLocation, ObjectiveLogReviews, ObjectiveEarnPoints, ObjectiveCustom:
		return true
	}
	return false
}

type RewardType string

const (
	RewardPoints RewardType = "points"
	RewardBadge  RewardType = "badge"
	RewardTitle  RewardType = "title"
	RewardCustom RewardType = "custom"
)

func (t RewardType) Valid() bool {
	switch t {
	case RewardPoints, RewardBadge, RewardTitle, RewardCustom:
		return true
	}
	return false
}

// Quest is a published challenge definition. It is never mutated by the engine.
type Quest struct {
	ID              string     `json:"id" toml:"id"`
	Title           string     `json:"title" toml:"title"`
	Description     string     `json:"description" toml:"description"`
	StartAt         time.Time  `json:"start_at" toml:"start_at"`
	EndAt           *time.Time `json:"end_at,omitempty" toml:"end_at,omitempty"`
	IsActive        bool       `json:"is_active" toml:"is_active"`
	IsFeatured      bool       `json:"is_featured" toml:"is_featured"`
	MaxParticipants int        `json:"max_participants,omitempty" toml:"max_participants,omitempty"` // 0 = unlimited
	Difficulty      string     `json:"difficulty" toml:"difficulty"`
	BasePoints      int        `json:"base_points" toml:"base_points"`

	Objectives []Objective `json:"objectives" toml:"objectives"`
	Rewards    []Reward    `json:"rewards" toml:"rewards"`
}

// Objective is one measurable condition. Matcher fields are optional; an
// empty matcher accepts any event of the objective's type.
type Objective struct {
	ID          string        `json:"id" toml:"id"`
	QuestID     string        `json:"quest_id" toml:"-"`
	Type        ObjectiveType `json:"type" toml:"type"`
	TargetCount int           `json:"target_count" toml:"target_count"`
	Description string        `json:"description,omitempty" toml:"description,omitempty"`

	Category     string  `json:"category,omitempty" toml:"category,omitempty"`
	ShopID       string  `json:"shop_id,omitempty" toml:"shop_id,omitempty"`
	FlavorID     string  `json:"flavor_id,omitempty" toml:"flavor_id,omitempty"`
	Latitude     float64 `json:"latitude,omitempty" toml:"latitude,omitempty"`
	Longitude    float64 `json:"longitude,omitempty" toml:"longitude,omitempty"`
	RadiusMeters float64 `json:"radius_meters,omitempty" toml:"radius_meters,omitempty"`
	CustomKey    string  `json:"custom_key,omitempty" toml:"custom_key,omitempty"`
}

type Reward struct {
	ID          string     `json:"id" toml:"id"`
	QuestID     string     `json:"quest_id" toml:"-"`
	Type        RewardType `json:"type" toml:"type"`
	Points      int        `json:"points,omitempty" toml:"points,omitempty"`
	BadgeID     string     `json:"badge_id,omitempty" toml:"badge_id,omitempty"`
	Value       string     `json:"value,omitempty" toml:"value,omitempty"`
	Description string     `json:"description,omitempty" toml:"description,omitempty"`
}

// InWindow reports whether now falls in [StartAt, EndAt). A nil EndAt is open.
func (q *Quest) InWindow(now time.Time) bool {
	if now.Before(q.StartAt) {
		return false
	}
	if q.EndAt != nil && !now.Before(*q.EndAt) {
		return false
	}
	return true
}

func (q *Quest) Objective(id string) (Objective, bool) {
	for _, o := range q.Objectives {
		if o.ID == id {
			return o, true
		}
	}
	return Objective{}, false
}

func (q *Quest) Reward(id string) (Reward, bool) {
	for _, r := range q.Rewards {
		if r.ID == id {
			return r, true
		}
	}
	return Reward{}, false
}

// HasObjectiveType is the cheap pre-filter used before any matcher runs.
func (q *Quest) HasObjectiveType(t ObjectiveType) bool {
	for _, o := range q.Objectives {
		if o.Type == t {
			return true
		}
	}
	return false
}

// Validate checks the catalog invariants. A quest with zero objectives is
// valid to store but cannot be joined.
func (q *Quest) Validate() error {
	if q.ID == "" {
		return fmt.Errorf("quest id is required")
	}
	if q.Title == "" {
		return fmt.Errorf("quest %s: title is required", q.ID)
	}
	if q.EndAt != nil && !q.EndAt.After(q.StartAt) {
		return fmt.Errorf("quest %s: end must be after start", q.ID)
	}
	if q.MaxParticipants < 0 {
		return fmt.Errorf("quest %s: max participants must not be negative", q.ID)
	}

	seen := make(map[string]bool, len(q.Objectives))
	for _, o := range q.Objectives {
		if o.ID == "" {
			return fmt.Errorf("quest %s: objective id is required", q.ID)
		}
		if seen[o.ID] {
			return fmt.Errorf("quest %s: duplicate objective id %s", q.ID, o.ID)
		}
		seen[o.ID] = true
		if !o.Type.Valid() {
			return fmt.Errorf("quest %s: objective %s has unknown type %q", q.ID, o.ID, o.Type)
		}
		if o.TargetCount < 1 {
			return fmt.Errorf("quest %s: objective %s target count must be >= 1", q.ID, o.ID)
		}
		if o.RadiusMeters < 0 {
			return fmt.Errorf("quest %s: objective %s radius must not be negative", q.ID, o.ID)
		}
	}

	seenRewards := make(map[string]bool, len(q.Rewards))
	for _, r := range q.Rewards {
		if r.ID == "" {
			return fmt.Errorf("quest %s: reward id is required", q.ID)
		}
		if seenRewards[r.ID] {
			return fmt.Errorf("quest %s: duplicate reward id %s", q.ID, r.ID)
		}
		seenRewards[r.ID] = true
		switch r.Type {
		case RewardPoints:
			if r.Points <= 0 {
				return fmt.Errorf("quest %s: reward %s must credit a positive amount", q.ID, r.ID)
			}
		case RewardBadge:
			if r.BadgeID == "" {
				return fmt.Errorf("quest %s: reward %s is missing badge id", q.ID, r.ID)
			}
		case RewardTitle, RewardCustom:
		default:
			return fmt.Errorf("quest %s: reward %s has unknown type %q", q.ID, r.ID, r.Type)
		}
	}
	return nil
}

// QuestCatalog is the read-only source of quest definitions.
type QuestCatalog interface {
	GetQuest(ctx context.Context, questID string) (*Quest, error)
	GetActiveQuests(ctx context.Context, now time.Time) ([]*Quest, error)
}
