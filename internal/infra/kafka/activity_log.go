package kafka

import (
	"context"
	"encoding/json"
	"strings"

	"gopkg.in/Shopify/sarama.v1"

	"github.com/fardannozami/scoopquest/internal/domain"
	"github.com/fardannozami/scoopquest/pkg/errors"
	"github.com/fardannozami/scoopquest/pkg/log"
)

// NewSyncProducer connects to a comma separated broker list.
func NewSyncProducer(brokers string) (sarama.SyncProducer, error) {
	hosts := strings.Split(brokers, ",")
	conf := sarama.NewConfig()
	conf.Producer.Return.Successes = true
	conf.Producer.RequiredAcks = sarama.WaitForAll
	p, err := sarama.NewSyncProducer(hosts, conf)
	if err != nil {
		return nil, errors.Wrap(err, "create kafka producer")
	}
	log.Info("Kafka producer initialized...")
	return p, nil
}

// ActivityLog publishes lifecycle events to a topic, keyed by user so one
// user's events stay ordered within a partition.
type ActivityLog struct {
	producer sarama.SyncProducer
	topic    string
}

func NewActivityLog(producer sarama.SyncProducer, topic string) *ActivityLog {
	return &ActivityLog{producer: producer, topic: topic}
}

func (a *ActivityLog) Append(ctx context.Context, e domain.Event) error {
	raw, err := json.Marshal(e)
	if err != nil {
		return err
	}
	partition, offset, err := a.producer.SendMessage(&sarama.ProducerMessage{
		Topic: a.topic,
		Key:   sarama.StringEncoder(e.UserID),
		Value: sarama.ByteEncoder(raw),
	})
	if err != nil {
		return errors.Wrap(err, "produce message")
	}
	log.Debugf("produced %s to %s[%d]@%d", e.Name, a.topic, partition, offset)
	return nil
}

func (a *ActivityLog) Close() error {
	return a.producer.Close()
}
