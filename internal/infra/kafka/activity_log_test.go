package kafka_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/Shopify/sarama.v1"

	"github.com/fardannozami/scoopquest/internal/domain"
	"github.com/fardannozami/scoopquest/internal/infra/kafka"
)

type fakeProducer struct {
	sent   []*sarama.ProducerMessage
	err    error
	closed bool
}

func (p *fakeProducer) SendMessage(msg *sarama.ProducerMessage) (int32, int64, error) {
	if p.err != nil {
		return 0, 0, p.err
	}
	p.sent = append(p.sent, msg)
	return 0, int64(len(p.sent) - 1), nil
}

func (p *fakeProducer) SendMessages(msgs []*sarama.ProducerMessage) error {
	for _, m := range msgs {
		if _, _, err := p.SendMessage(m); err != nil {
			return err
		}
	}
	return nil
}

func (p *fakeProducer) Close() error {
	p.closed = true
	return nil
}

func TestActivityLog_Append(t *testing.T) {
	p := &fakeProducer{}
	a := kafka.NewActivityLog(p, "quest-activity")

	at := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	err := a.Append(context.Background(), domain.Event{
		Name:       domain.EventQuestCompleted,
		UserID:     "628111",
		QuestID:    "scoop-explorer",
		OccurredAt: at,
	})
	require.NoError(t, err)
	require.Len(t, p.sent, 1)

	msg := p.sent[0]
	assert.Equal(t, "quest-activity", msg.Topic)
	key, _ := msg.Key.Encode()
	assert.Equal(t, "628111", string(key))

	raw, _ := msg.Value.Encode()
	var got domain.Event
	require.NoError(t, json.Unmarshal(raw, &got))
	assert.Equal(t, domain.EventQuestCompleted, got.Name)
	assert.True(t, got.OccurredAt.Equal(at))

	require.NoError(t, a.Close())
	assert.True(t, p.closed)
}

func TestActivityLog_AppendError(t *testing.T) {
	p := &fakeProducer{err: errors.New("broker down")}
	a := kafka.NewActivityLog(p, "quest-activity")

	err := a.Append(context.Background(), domain.Event{Name: domain.EventQuestJoined})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broker down")
}
