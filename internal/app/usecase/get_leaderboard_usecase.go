package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/fardannozami/scoopquest/internal/domain"
)

const leaderboardSize = 10

type GetLeaderboardUsecase struct {
	standings domain.LeaderboardReader
	profiles  domain.ProfileStore
	clock     domain.Clock
}

func NewGetLeaderboardUsecase(standings domain.LeaderboardReader, profiles domain.ProfileStore, clock domain.Clock) *GetLeaderboardUsecase {
	if clock == nil {
		clock = domain.SystemClock{}
	}
	return &GetLeaderboardUsecase{standings: standings, profiles: profiles, clock: clock}
}

func (uc *GetLeaderboardUsecase) Execute(ctx context.Context) (string, error) {
	standings, err := uc.standings.Standings(ctx, leaderboardSize)
	if err != nil {
		return "", err
	}

	names := map[string]string{}
	if uc.profiles != nil && len(standings) > 0 {
		ids := make([]string, len(standings))
		for i, s := range standings {
			ids[i] = s.UserID
		}
		if names, err = uc.profiles.Names(ctx, ids); err != nil {
			return "", err
		}
	}

	sb := strings.Builder{}
	sb.WriteString(fmt.Sprintf("🍦 Scoop Quest Leaderboard (%s)\n\n", uc.clock.Now().Format("02-01-2006")))

	if len(standings) == 0 {
		sb.WriteString("Belum ada yang dapat poin. Ayo mulai quest pertamamu!\n")
	}
	for i, s := range standings {
		name := names[s.UserID]
		if name == "" {
			name = s.UserID
		}
		medal := ""
		switch i {
		case 0:
			medal = " 🥇"
		case 1:
			medal = " 🥈"
		case 2:
			medal = " 🥉"
		}
		sb.WriteString(fmt.Sprintf("%d. %s - %d poin%s\n", i+1, name, s.Points, medal))
	}

	sb.WriteString("\nKetik #available buat lihat quest yang lagi buka 🍨")
	return sb.String(), nil
}
