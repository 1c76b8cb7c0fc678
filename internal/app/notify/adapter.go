package notify

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/fardannozami/scoopquest/internal/domain"
	"github.com/fardannozami/scoopquest/pkg/errors"
	"github.com/fardannozami/scoopquest/pkg/log"
)

const defaultTimeout = 5 * time.Second

// Adapter fans an event out to every notification service and activity log.
// Sink failures are logged and reported, never returned.
type Adapter struct {
	notifiers []domain.NotificationService
	logs      []domain.ActivityLog
	timeout   time.Duration
}

func NewAdapter(logs []domain.ActivityLog, timeout time.Duration, notifiers ...domain.NotificationService) *Adapter {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Adapter{
		notifiers: notifiers,
		logs:      logs,
		timeout:   timeout,
	}
}

// Emit blocks until every sink returned or the timeout passed.
func (a *Adapter) Emit(ctx context.Context, event domain.Event) {
	// Detach from the caller's cancellation: the state change already happened.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), a.timeout)
	defer cancel()

	logger := log.WithFields(log.Fields{
		"event":    event.Name,
		"user_id":  event.UserID,
		"quest_id": event.QuestID,
	})

	var g errgroup.Group
	for _, l := range a.logs {
		l := l
		g.Go(func() error {
			if err := l.Append(ctx, event); err != nil {
				logger.Warnf("append activity log: %v", err)
				errors.Report(errors.Wrap(err, "append activity log"))
			}
			return nil
		})
	}
	for _, n := range a.notifiers {
		n := n
		g.Go(func() error {
			if err := n.Notify(ctx, event); err != nil {
				logger.Warnf("notify: %v", err)
				errors.Report(errors.Wrap(err, "notify"))
			}
			return nil
		})
	}
	_ = g.Wait()
	logger.Debugf("event emitted")
}

// Nop discards events.
type Nop struct{}

func (Nop) Emit(context.Context, domain.Event) {}
