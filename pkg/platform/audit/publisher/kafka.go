package publisher

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/twmb/franz-go/pkg/kgo"

	"campusboard/pkg/platform/audit"
	"campusboard/pkg/requestcontext"
)

// Kafka publishes audit events to a Kafka topic. Production is asynchronous
// and best-effort: delivery failures are logged, never surfaced to the
// request path.
type Kafka struct {
	client *kgo.Client
	log    *slog.Logger
}

func NewKafka(brokers []string, topic string, log *slog.Logger) (*Kafka, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.DefaultProduceTopic(topic),
	)
	if err != nil {
		return nil, err
	}
	return &Kafka{client: client, log: log}, nil
}

type kafkaEvent struct {
	Timestamp string `json:"timestamp"`
	UserID    string `json:"user_id,omitempty"`
	Subject   string `json:"subject,omitempty"`
	Action    string `json:"action"`
	RequestID string `json:"request_id,omitempty"`
}

func (k *Kafka) Emit(ctx context.Context, event audit.Event) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = requestcontext.Now(ctx)
	}
	payload, err := json.Marshal(kafkaEvent{
		Timestamp: event.Timestamp.UTC().Format("2006-01-02T15:04:05.000Z07:00"),
		UserID:    event.UserID,
		Subject:   event.Subject,
		Action:    event.Action,
		RequestID: event.RequestID,
	})
	if err != nil {
		return err
	}
	record := &kgo.Record{Key: []byte(event.UserID), Value: payload}
	k.client.Produce(ctx, record, func(_ *kgo.Record, err error) {
		if err != nil {
			k.log.Error("audit event publish failed", "action", event.Action, "error", err)
		}
	})
	return nil
}

func (k *Kafka) Close() {
	k.client.Close()
}
