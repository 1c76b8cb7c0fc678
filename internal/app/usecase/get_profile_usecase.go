package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/fardannozami/scoopquest/internal/domain"
)

const historySize = 5

type BalanceReader interface {
	Balance(ctx context.Context, userID string) (int, error)
}

type BadgeLister interface {
	Badges(ctx context.Context, userID string) ([]string, error)
}

type ActivityHistory interface {
	Recent(ctx context.Context, userID string, limit int) ([]domain.Event, error)
}

// GetProfileUsecase renders a user's point balance and badges.
type GetProfileUsecase struct {
	points   BalanceReader
	badges   BadgeLister
	profiles domain.ProfileStore
}

func NewGetProfileUsecase(points BalanceReader, badges BadgeLister, profiles domain.ProfileStore) *GetProfileUsecase {
	return &GetProfileUsecase{points: points, badges: badges, profiles: profiles}
}

func (uc *GetProfileUsecase) Execute(ctx context.Context, userID string) (string, error) {
	balance, err := uc.points.Balance(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("read balance: %w", err)
	}
	badges, err := uc.badges.Badges(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("read badges: %w", err)
	}

	name := userID
	if uc.profiles != nil {
		names, err := uc.profiles.Names(ctx, []string{userID})
		if err != nil {
			return "", fmt.Errorf("read display name: %w", err)
		}
		if n := names[userID]; n != "" {
			name = n
		}
	}

	sb := strings.Builder{}
	sb.WriteString(fmt.Sprintf("🍦 Profil %s\n", name))
	sb.WriteString(fmt.Sprintf("Poin: %d\n", balance))
	if len(badges) == 0 {
		sb.WriteString("Badge: belum ada")
	} else {
		sb.WriteString(fmt.Sprintf("Badge: %s", strings.Join(badges, ", ")))
	}
	return sb.String(), nil
}

// GetHistoryUsecase renders the latest quest events of a user.
type GetHistoryUsecase struct {
	history ActivityHistory
}

func NewGetHistoryUsecase(history ActivityHistory) *GetHistoryUsecase {
	return &GetHistoryUsecase{history: history}
}

func (uc *GetHistoryUsecase) Execute(ctx context.Context, userID string) (string, error) {
	events, err := uc.history.Recent(ctx, userID, historySize)
	if err != nil {
		return "", fmt.Errorf("read activity history: %w", err)
	}
	if len(events) == 0 {
		return "Belum ada aktivitas. Ketik #available untuk mulai.", nil
	}

	sb := strings.Builder{}
	sb.WriteString("Aktivitas terakhir:\n")
	for _, e := range events {
		sb.WriteString(fmt.Sprintf("• %s %s: %s\n", e.OccurredAt.Format("02-01 15:04"), eventLabel(e.Name), e.QuestID))
	}
	return strings.TrimRight(sb.String(), "\n"), nil
}

func eventLabel(name domain.EventName) string {
	switch name {
	case domain.EventQuestJoined:
		return "Gabung quest"
	case domain.EventObjectiveCompleted:
		return "Objektif selesai"
	case domain.EventQuestCompleted:
		return "Quest selesai"
	case domain.EventQuestAbandoned:
		return "Quest dibatalkan"
	case domain.EventRewardFailed:
		return "Hadiah tertunda"
	default:
		return string(name)
	}
}
