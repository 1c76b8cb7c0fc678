package wa

import (
	"context"
	"fmt"

	"go.mau.fi/whatsmeow/types"

	"github.com/fardannozami/scoopquest/internal/domain"
)

type TextSender interface {
	SendText(ctx context.Context, to types.JID, text string) error
}

// Notifier sends quest alerts to the user's private chat.
type Notifier struct {
	sender TextSender
}

func NewNotifier(sender TextSender) *Notifier {
	return &Notifier{sender: sender}
}

func (n *Notifier) Notify(ctx context.Context, e domain.Event) error {
	text := Message(e)
	if text == "" || e.UserID == "" {
		return nil
	}
	return n.sender.SendText(ctx, UserJID(e.UserID), text)
}

// UserJID addresses a user id that is either a phone number or an
// unresolved LID.
func UserJID(userID string) types.JID {
	if len(userID) > 15 {
		return types.NewJID(userID, types.HiddenUserServer)
	}
	return types.NewJID(userID, types.DefaultUserServer)
}

// Message renders the alert for e. Joins and abandons are already answered
// in the chat, so they produce no alert.
func Message(e domain.Event) string {
	title := e.QuestTitle
	if title == "" {
		title = e.QuestID
	}

	switch e.Name {
	case domain.EventObjectiveCompleted:
		if e.Detail != "" {
			return fmt.Sprintf("✅ %s: selesai di quest *%s*! Lanjut terus 🍦", e.Detail, title)
		}
		return fmt.Sprintf("✅ Satu objektif di quest *%s* selesai! Lanjut terus 🍦", title)
	case domain.EventQuestCompleted:
		// Failed rewards get their own reward_failed alert.
		if e.Detail == domain.DetailRewardsIssued {
			return fmt.Sprintf("🎉 Selamat! Quest *%s* selesai. Hadiahnya sudah masuk ke akunmu.", title)
		}
		return fmt.Sprintf("🎉 Selamat! Quest *%s* selesai. Hadiahnya sedang diproses.", title)
	case domain.EventRewardFailed:
		return fmt.Sprintf("Hadiah quest *%s* tertunda sebentar. Tenang, akan kami kirim ulang otomatis.", title)
	default:
		return ""
	}
}
