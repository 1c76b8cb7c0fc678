package usecase

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/fardannozami/scoopquest/internal/domain"
	"github.com/fardannozami/scoopquest/pkg/log"
)

type QuestJoiner interface {
	Execute(ctx context.Context, userID, questID string) (*domain.UserQuest, error)
}

type QuestAbandoner interface {
	Execute(ctx context.Context, userID, userQuestID string) (*domain.UserQuest, error)
}

type ActivityReporter interface {
	Execute(ctx context.Context, userID string, eventType domain.ObjectiveType, payload domain.ActivityPayload) ([]*domain.UserQuest, error)
}

type UserQuestLister interface {
	Execute(ctx context.Context, userID string, statuses ...domain.UserQuestStatus) ([]domain.UserQuestView, error)
}

type AvailableQuestLister interface {
	Execute(ctx context.Context) ([]*domain.Quest, error)
}

type LeaderboardRenderer interface {
	Execute(ctx context.Context) (string, error)
}

// UserRenderer builds a per-user reply such as #me or #history.
type UserRenderer interface {
	Execute(ctx context.Context, userID string) (string, error)
}

// Commands are the use cases reachable from chat.
type Commands struct {
	Join        QuestJoiner
	Abandon     QuestAbandoner
	Report      ActivityReporter
	Quests      UserQuestLister
	Available   AvailableQuestLister
	Leaderboard LeaderboardRenderer
	Me          UserRenderer
	History     UserRenderer
	Profiles    domain.ProfileStore
}

var commands = map[string]bool{
	"#quests": true, "#available": true, "#join": true, "#abandon": true,
	"#leaderboard": true, "#me": true, "#history": true,
	"#visit": true, "#flavor": true, "#category": true, "#review": true, "#custom": true,
}

type HandleMessageUsecase struct {
	cmd Commands
}

func NewHandleMessageUsecase(cmd Commands) *HandleMessageUsecase {
	return &HandleMessageUsecase{cmd: cmd}
}

// Execute routes a chat message to the matching command. Messages that are
// not commands yield an empty reply.
func (uc *HandleMessageUsecase) Execute(ctx context.Context, userID, name, msg string) (string, error) {
	fields := strings.Fields(msg)
	if len(fields) == 0 || !strings.HasPrefix(fields[0], "#") {
		return "", nil
	}
	cmd, args := strings.ToLower(fields[0]), fields[1:]
	if !commands[cmd] {
		return "", nil
	}

	if uc.cmd.Profiles != nil && name != "" {
		if perr := uc.cmd.Profiles.SaveName(ctx, userID, name); perr != nil {
			log.Warnf("save display name for %s: %v", userID, perr)
		}
	}

	var (
		reply string
		err   error
	)
	switch cmd {
	case "#quests":
		reply, err = uc.myQuests(ctx, userID)
	case "#available":
		reply, err = uc.available(ctx)
	case "#join":
		if len(args) == 0 {
			return "Format: #join <id quest>", nil
		}
		reply, err = uc.join(ctx, userID, args[0])
	case "#abandon":
		if len(args) == 0 {
			return "Format: #abandon <id progres>", nil
		}
		reply, err = uc.abandon(ctx, userID, args[0])
	case "#leaderboard":
		if uc.cmd.Leaderboard == nil {
			return "", nil
		}
		reply, err = uc.cmd.Leaderboard.Execute(ctx)
	case "#me":
		if uc.cmd.Me == nil {
			return "", nil
		}
		reply, err = uc.cmd.Me.Execute(ctx, userID)
	case "#history":
		if uc.cmd.History == nil {
			return "", nil
		}
		reply, err = uc.cmd.History.Execute(ctx, userID)
	case "#visit":
		if len(args) == 0 {
			return "Format: #visit <id toko>", nil
		}
		reply, err = uc.report(ctx, userID, domain.ObjectiveVisitShop, domain.ActivityPayload{ShopID: args[0]})
	case "#flavor":
		if len(args) == 0 {
			return "Format: #flavor <id rasa> [kategori]", nil
		}
		p := domain.ActivityPayload{FlavorID: args[0]}
		if len(args) > 1 {
			p.Category = strings.Join(args[1:], " ")
		}
		// A tasted flavor also counts for its category.
		reply, err = uc.report(ctx, userID, domain.ObjectiveTryFlavor, p)
		if err == nil && p.Category != "" {
			var more string
			more, err = uc.report(ctx, userID, domain.ObjectiveTryFlavorCategory, p)
			reply = mergeReplies(reply, more)
		}
	case "#category":
		if len(args) == 0 {
			return "Format: #category <kategori>", nil
		}
		reply, err = uc.report(ctx, userID, domain.ObjectiveTryFlavorCategory, domain.ActivityPayload{Category: strings.Join(args, " ")})
	case "#review":
		p := domain.ActivityPayload{Increment: 1}
		if len(args) > 0 {
			if n, convErr := strconv.Atoi(args[0]); convErr == nil {
				p.Increment = n
				args = args[1:]
			}
		}
		if p.Increment < 1 {
			return "Jumlah review minimal 1.", nil
		}
		if len(args) > 0 {
			p.ShopID = args[0]
		}
		reply, err = uc.report(ctx, userID, domain.ObjectiveLogReviews, p)
	case "#custom":
		if len(args) == 0 {
			return "Format: #custom <kode>", nil
		}
		reply, err = uc.report(ctx, userID, domain.ObjectiveCustom, domain.ActivityPayload{CustomKey: args[0]})
	}
	return reply, err
}

// HandleLocation turns a shared location into a visit_location event.
func (uc *HandleMessageUsecase) HandleLocation(ctx context.Context, userID string, lat, lng float64) (string, error) {
	return uc.report(ctx, userID, domain.ObjectiveVisitLocation, domain.ActivityPayload{
		Latitude:    lat,
		Longitude:   lng,
		HasLocation: true,
	})
}

func (uc *HandleMessageUsecase) join(ctx context.Context, userID, questID string) (string, error) {
	if uc.cmd.Join == nil {
		return "", nil
	}
	uq, err := uc.cmd.Join.Execute(ctx, userID, questID)
	if err != nil {
		return replyForError(err)
	}
	return fmt.Sprintf("Siap! Quest %s dimulai 🍦\nID progres: %s\nSemangat jelajah rasanya!", questID, uq.ID), nil
}

func (uc *HandleMessageUsecase) abandon(ctx context.Context, userID, userQuestID string) (string, error) {
	if uc.cmd.Abandon == nil {
		return "", nil
	}
	uq, err := uc.cmd.Abandon.Execute(ctx, userID, userQuestID)
	if err != nil {
		return replyForError(err)
	}
	return fmt.Sprintf("Quest %s dibatalkan. Kamu bisa #join lagi kapan saja.", uq.QuestID), nil
}

func (uc *HandleMessageUsecase) report(ctx context.Context, userID string, eventType domain.ObjectiveType, p domain.ActivityPayload) (string, error) {
	if uc.cmd.Report == nil {
		return "", nil
	}
	updated, err := uc.cmd.Report.Execute(ctx, userID, eventType, p)
	if err != nil {
		// Other quests may still have moved; the failure is not the user's concern.
		log.WithFields(log.Fields{"user_id": userID, "event": eventType}).Warnf("report activity: %v", err)
	}
	if len(updated) == 0 {
		if err != nil && domain.IsRetryable(err) {
			return domain.UserMessage(err), nil
		}
		return "Dicatat! 🍦", nil
	}

	sb := strings.Builder{}
	sb.WriteString("Dicatat! 🍦\n")
	for _, uq := range updated {
		if uq.Status == domain.StatusCompleted {
			sb.WriteString(fmt.Sprintf("🎉 Quest %s selesai! Hadiah sedang dikirim.\n", uq.QuestID))
			continue
		}
		sb.WriteString(fmt.Sprintf("• %s: %d/%d objektif selesai\n", uq.QuestID, uq.Progress.CompletedCount(), len(uq.Progress)))
	}
	return strings.TrimRight(sb.String(), "\n"), nil
}

func (uc *HandleMessageUsecase) myQuests(ctx context.Context, userID string) (string, error) {
	if uc.cmd.Quests == nil {
		return "", nil
	}
	views, err := uc.cmd.Quests.Execute(ctx, userID)
	if err != nil {
		return "", err
	}
	if len(views) == 0 {
		return "Kamu belum ikut quest apa pun. Ketik #available untuk mulai.", nil
	}

	sb := strings.Builder{}
	sb.WriteString("Quest kamu:\n")
	for _, v := range views {
		uq := v.UserQuest
		sb.WriteString(fmt.Sprintf("\n%s %s (%s)\n", statusIcon(uq.Status), v.Quest.Title, uq.ID))
		if uq.Status == domain.StatusAbandoned {
			continue
		}
		for _, o := range v.Quest.Objectives {
			p := uq.Progress[o.ID]
			mark := "▫️"
			if p.IsCompleted {
				mark = "✅"
			}
			sb.WriteString(fmt.Sprintf("  %s %s %d/%d\n", mark, o.Description, p.CurrentCount, o.TargetCount))
		}
	}
	return strings.TrimRight(sb.String(), "\n"), nil
}

func (uc *HandleMessageUsecase) available(ctx context.Context) (string, error) {
	if uc.cmd.Available == nil {
		return "", nil
	}
	quests, err := uc.cmd.Available.Execute(ctx)
	if err != nil {
		return "", err
	}
	if len(quests) == 0 {
		return "Belum ada quest yang buka. Nantikan ya!", nil
	}

	sb := strings.Builder{}
	sb.WriteString("Quest yang lagi buka:\n")
	for _, q := range quests {
		star := ""
		if q.IsFeatured {
			star = " ⭐"
		}
		sb.WriteString(fmt.Sprintf("\n%s%s\n  %s\n  Gabung: #join %s\n", q.Title, star, q.Description, q.ID))
	}
	return strings.TrimRight(sb.String(), "\n"), nil
}

// replyForError turns expected rejections into a chat reply and passes
// anything else up to the caller.
func replyForError(err error) (string, error) {
	for _, known := range []error{
		domain.ErrNotFound,
		domain.ErrNotActive,
		domain.ErrNoObjectives,
		domain.ErrOutOfWindow,
		domain.ErrAlreadyJoined,
		domain.ErrQuestFull,
		domain.ErrAlreadyCompleted,
		domain.ErrNotInProgress,
		domain.ErrProgressConflict,
	} {
		if errors.Is(err, known) {
			return domain.UserMessage(err), nil
		}
	}
	return domain.UserMessage(err), err
}

func mergeReplies(a, b string) string {
	const head = "Dicatat! 🍦"
	b = strings.TrimPrefix(strings.TrimPrefix(b, head), "\n")
	if b == "" {
		return a
	}
	return a + "\n" + b
}

func statusIcon(s domain.UserQuestStatus) string {
	switch s {
	case domain.StatusCompleted:
		return "🏆"
	case domain.StatusAbandoned:
		return "🚫"
	default:
		return "🍨"
	}
}
