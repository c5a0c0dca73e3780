// Package audit emits operational events about snapshot mutations. The
// publisher is fail-open: a broker outage degrades to a logged warning and
// never fails the operation that produced the event.
package audit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"
)

// Event actions.
const (
	ActionRefreshCompleted = "refresh_completed"
	ActionCountryDeleted   = "country_deleted"
)

// Event is one audit record.
type Event struct {
	Action         string    `json:"action"`
	Country        string    `json:"country,omitempty"`
	Processed      int       `json:"processed,omitempty"`
	TotalCountries int64     `json:"total_countries,omitempty"`
	At             time.Time `json:"at"`
}

// Publisher emits audit events.
type Publisher interface {
	Publish(ctx context.Context, event Event)
	Close()
}

// Noop discards all events. Used when no brokers are configured.
type Noop struct{}

func (Noop) Publish(context.Context, Event) {}
func (Noop) Close()                         {}

// Kafka publishes events to a Kafka-compatible broker via franz-go.
type Kafka struct {
	client *kgo.Client
	topic  string
	logger *slog.Logger
}

// NewKafka connects to the brokers and ensures the topic exists.
func NewKafka(brokers []string, topic string, logger *slog.Logger) (*Kafka, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.DefaultProduceTopic(topic),
	)
	if err != nil {
		return nil, fmt.Errorf("audit: connect kafka: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := ensureTopic(ctx, client, topic); err != nil {
		client.Close()
		return nil, err
	}

	return &Kafka{client: client, topic: topic, logger: logger}, nil
}

func ensureTopic(ctx context.Context, client *kgo.Client, topic string) error {
	adm := kadm.NewClient(client)
	resp, err := adm.CreateTopics(ctx, 1, 1, nil, topic)
	if err != nil {
		return fmt.Errorf("audit: create topic %s: %w", topic, err)
	}
	for _, res := range resp.Sorted() {
		if res.Err != nil && !errors.Is(res.Err, kerr.TopicAlreadyExists) {
			return fmt.Errorf("audit: create topic %s: %w", res.Topic, res.Err)
		}
	}
	return nil
}

// Publish emits one event asynchronously. Delivery failures are logged, not
// returned; audit must never block or fail a refresh.
func (k *Kafka) Publish(ctx context.Context, event Event) {
	payload, err := json.Marshal(event)
	if err != nil {
		k.logger.ErrorContext(ctx, "audit event marshal failed", "action", event.Action, "error", err)
		return
	}
	k.client.Produce(ctx, &kgo.Record{Topic: k.topic, Value: payload}, func(_ *kgo.Record, err error) {
		if err != nil {
			k.logger.Error("audit event delivery failed", "action", event.Action, "error", err)
		}
	})
}

// Close flushes outstanding events and releases the client.
func (k *Kafka) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = k.client.Flush(ctx)
	k.client.Close()
}
