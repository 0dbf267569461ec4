package notifier

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/segmentio/kafka-go"
)

// KafkaNotifier publishes the alert as an event instead of delivering it
// directly; a downstream consumer owns the actual channel (mail, chat, push).
type KafkaNotifier struct {
	writer *kafka.Writer
}

func NewKafkaNotifier(topic string, brokers ...string) *KafkaNotifier {
	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.LeastBytes{},
		AllowAutoTopicCreation: true,
	}
	return &KafkaNotifier{writer: w}
}

func (n *KafkaNotifier) Notify(ctx context.Context, alert PriceAlert) error {
	msg, err := buildAlertMessage(alert)
	if err != nil {
		return err
	}

	if err := n.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish alert event: %w", err)
	}
	return nil
}

func (n *KafkaNotifier) Close() error {
	return n.writer.Close()
}

func buildAlertMessage(alert PriceAlert) (kafka.Message, error) {
	payload, err := json.Marshal(alert)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("marshal alert event: %w", err)
	}

	return kafka.Message{
		// Keyed by product URL so alerts for one product stay ordered.
		Key:   []byte(alert.URL),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte("price_drop_alert")},
		},
	}, nil
}
