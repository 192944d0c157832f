// Package kafka ships audit events to a Kafka (or Redpanda) topic so the
// attendance trail can be consumed by the school's reporting pipeline.
package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"

	"scangate/internal/audit"
)

// DefaultTopic is where scan audit events land unless configured otherwise.
const DefaultTopic = "attendance.audit"

// Store publishes events as JSON records keyed by device ID, so one gate's
// events stay ordered within a partition.
type Store struct {
	client *kgo.Client
	topic  string
	logger *slog.Logger
}

type Option func(*Store)

func WithTopic(topic string) Option {
	return func(s *Store) {
		s.topic = topic
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// New connects to the brokers and ensures the topic exists.
func New(ctx context.Context, brokers []string, opts ...Option) (*Store, error) {
	if len(brokers) == 0 {
		return nil, fmt.Errorf("at least one broker is required")
	}

	s := &Store{topic: DefaultTopic}
	for _, opt := range opts {
		opt(s)
	}

	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.DefaultProduceTopic(s.topic),
	)
	if err != nil {
		return nil, fmt.Errorf("connecting to kafka: %w", err)
	}
	s.client = client

	if err := s.ensureTopic(ctx); err != nil {
		client.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) ensureTopic(ctx context.Context) error {
	admin := kadm.NewClient(s.client)
	resp, err := admin.CreateTopics(ctx, 1, 1, nil, s.topic)
	if err != nil {
		return fmt.Errorf("creating topic %q: %w", s.topic, err)
	}
	for _, r := range resp {
		if r.Err != nil && !errors.Is(r.Err, kerr.TopicAlreadyExists) {
			return fmt.Errorf("creating topic %q: %w", s.topic, r.Err)
		}
	}
	return nil
}

// Append produces one event synchronously. Audit delivery is confirmed
// before returning so a broker outage surfaces in logs instead of silently
// losing the trail.
func (s *Store) Append(ctx context.Context, event audit.Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encoding audit event: %w", err)
	}

	record := &kgo.Record{
		Key:   []byte(event.DeviceID),
		Value: payload,
	}
	if err := s.client.ProduceSync(ctx, record).FirstErr(); err != nil {
		return fmt.Errorf("producing audit event: %w", err)
	}
	if s.logger != nil {
		s.logger.DebugContext(ctx, "audit event produced",
			"topic", s.topic,
			"action", event.Action,
			"event_id", event.ID,
		)
	}
	return nil
}

// Close flushes buffered records and releases the client.
func (s *Store) Close() {
	s.client.Close()
}
