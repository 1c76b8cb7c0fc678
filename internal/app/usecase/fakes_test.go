package usecase_test

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/fardannozami/scoopquest/internal/app/reward"
	"github.com/fardannozami/scoopquest/internal/app/usecase"
	"github.com/fardannozami/scoopquest/internal/domain"
)

// =============================================================================
// TEST DOUBLES
// =============================================================================
//
// memStore enforces the same version contract as the sqlite store, so the
// retry loops in the use cases are exercised for real.
//
// =============================================================================

type memStore struct {
	mu   sync.Mutex
	rows map[string]*domain.UserQuest

	// forceConflicts makes the next N updates fail with ErrVersionConflict.
	forceConflicts int
	updates        int
}

func newMemStore() *memStore {
	return &memStore{rows: map[string]*domain.UserQuest{}}
}

func (s *memStore) GetUserQuest(ctx context.Context, userID, questID string) (*domain.UserQuest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, uq := range s.rows {
		if uq.UserID == userID && uq.QuestID == questID {
			return uq.Clone(), nil
		}
	}
	return nil, nil
}

func (s *memStore) GetUserQuestByID(ctx context.Context, id string) (*domain.UserQuest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	uq, ok := s.rows[id]
	if !ok {
		return nil, nil
	}
	return uq.Clone(), nil
}

func (s *memStore) ListUserQuests(ctx context.Context, userID string, statuses ...domain.UserQuestStatus) ([]*domain.UserQuest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*domain.UserQuest
	for _, uq := range s.rows {
		if uq.UserID != userID || !hasStatus(statuses, uq.Status) {
			continue
		}
		out = append(out, uq.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *memStore) CreateUserQuest(ctx context.Context, uq *domain.UserQuest, maxParticipants int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, r := range s.rows {
		if r.QuestID != uq.QuestID {
			continue
		}
		if r.UserID == uq.UserID {
			return domain.ErrAlreadyJoined
		}
		n++
	}
	if maxParticipants > 0 && n >= maxParticipants {
		return domain.ErrQuestFull
	}
	uq.Version = 1
	s.rows[uq.ID] = uq.Clone()
	return nil
}

func (s *memStore) UpdateUserQuest(ctx context.Context, uq *domain.UserQuest, expectedVersion int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.forceConflicts > 0 {
		s.forceConflicts--
		return domain.ErrVersionConflict
	}
	cur, ok := s.rows[uq.ID]
	if !ok {
		return domain.ErrNotFound
	}
	if cur.Version != expectedVersion {
		return domain.ErrVersionConflict
	}
	uq.Version = expectedVersion + 1
	s.rows[uq.ID] = uq.Clone()
	s.updates++
	return nil
}

func (s *memStore) ListUnrewarded(ctx context.Context, completedBefore time.Time, limit int) ([]*domain.UserQuest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*domain.UserQuest
	for _, uq := range s.rows {
		if uq.Status == domain.StatusCompleted && uq.RewardsIssuedAt == nil && uq.CompletedAt.Before(completedBefore) {
			out = append(out, uq.Clone())
		}
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *memStore) MarkRewardsIssued(ctx context.Context, id string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	uq, ok := s.rows[id]
	if !ok {
		return domain.ErrNotFound
	}
	uq.RewardsIssuedAt = &at
	return nil
}

func (s *memStore) get(id string) *domain.UserQuest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rows[id].Clone()
}

func hasStatus(statuses []domain.UserQuestStatus, s domain.UserQuestStatus) bool {
	if len(statuses) == 0 {
		return true
	}
	for _, st := range statuses {
		if st == s {
			return true
		}
	}
	return false
}

type memCatalog map[string]*domain.Quest

func (c memCatalog) GetQuest(ctx context.Context, id string) (*domain.Quest, error) {
	return c[id], nil
}

func (c memCatalog) GetActiveQuests(ctx context.Context, now time.Time) ([]*domain.Quest, error) {
	var out []*domain.Quest
	for _, q := range c {
		if q.IsActive && q.InWindow(now) {
			out = append(out, q)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

type recordingNotifier struct {
	mu     sync.Mutex
	events []domain.Event
}

func (n *recordingNotifier) Emit(ctx context.Context, e domain.Event) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, e)
}

func (n *recordingNotifier) names() []domain.EventName {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]domain.EventName, len(n.events))
	for i, e := range n.events {
		out[i] = e.Name
	}
	return out
}

// ledger plays both Points Ledger and Badge Store and dedupes on key.
type ledger struct {
	mu      sync.Mutex
	credits map[string]int
	badges  map[string]string
	calls   int
	fail    error
}

func newLedger() *ledger {
	return &ledger{credits: map[string]int{}, badges: map[string]string{}}
}

func (l *ledger) CreditPoints(ctx context.Context, userID string, amount int, key string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls++
	if l.fail != nil {
		return l.fail
	}
	if _, ok := l.credits[key]; !ok {
		l.credits[key] = amount
	}
	return nil
}

func (l *ledger) GrantBadge(ctx context.Context, userID, badgeID, key string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls++
	if l.fail != nil {
		return l.fail
	}
	l.badges[key] = badgeID
	return nil
}

func (l *ledger) total() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	sum := 0
	for _, v := range l.credits {
		sum += v
	}
	return sum
}

type memIssuances struct {
	mu   sync.Mutex
	recs map[string]domain.RewardIssuance
}

func (m *memIssuances) GetIssuance(ctx context.Context, key string) (*domain.RewardIssuance, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.recs[key]
	if !ok {
		return nil, nil
	}
	return &r, nil
}

func (m *memIssuances) SaveIssuance(ctx context.Context, ri *domain.RewardIssuance) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.recs[ri.Key] = *ri
	return nil
}

var testNow = time.Date(2026, 3, 14, 15, 0, 0, 0, time.UTC)

func scoopExplorer() *domain.Quest {
	return &domain.Quest{
		ID:       "scoop-explorer",
		Title:    "Scoop Explorer",
		StartAt:  time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		IsActive: true,
		Objectives: []domain.Objective{
			{ID: "choc", Type: domain.ObjectiveTryFlavorCategory, TargetCount: 3, Category: "chocolate", Description: "Coba 3 rasa cokelat"},
			{ID: "shop", Type: domain.ObjectiveVisitShop, TargetCount: 1, ShopID: "shop-42", Description: "Mampir ke shop-42"},
		},
		Rewards: []domain.Reward{{ID: "pts", Type: domain.RewardPoints, Points: 100}},
	}
}

type fixture struct {
	store    *memStore
	catalog  memCatalog
	notifier *recordingNotifier
	ledger   *ledger
	engine   usecase.Engine
}

func newFixture(quests ...*domain.Quest) *fixture {
	f := &fixture{
		store:    newMemStore(),
		catalog:  memCatalog{},
		notifier: &recordingNotifier{},
		ledger:   newLedger(),
	}
	for _, q := range quests {
		f.catalog[q.ID] = q
	}
	clock := fixedClock{t: testNow}
	f.engine = usecase.Engine{
		Catalog:     f.catalog,
		Store:       f.store,
		Dispatcher:  reward.NewDispatcher(f.ledger, f.ledger, &memIssuances{recs: map[string]domain.RewardIssuance{}}, clock),
		Notifier:    f.notifier,
		Clock:       clock,
		MaxAttempts: 3,
	}
	return f
}
