//go:build integration

package kafka_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/kgo"

	"scangate/internal/audit"
	auditkafka "scangate/internal/audit/store/kafka"
	"scangate/pkg/testutil/containers"
)

func TestKafkaStoreRoundTrip(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()
	redpanda := containers.GetManager().GetRedpanda(t)

	store, err := auditkafka.New(ctx, redpanda.Brokers, auditkafka.WithTopic("attendance.audit.test"))
	require.NoError(t, err)
	defer store.Close()

	event := audit.Event{
		ID:        uuid.New(),
		Action:    "scan_committed",
		Timestamp: time.Now().UTC().Truncate(time.Millisecond),
		DeviceID:  "gate-1",
		StudentID: uuid.NewString(),
		Outcome:   "ready_to_record",
		RequestID: "req-42",
		Station:   "main gate",
		ClientIP:  "203.0.113.9",
		UserAgent: "scangate-kiosk/2.1",
	}
	require.NoError(t, store.Append(ctx, event))

	consumer, err := kgo.NewClient(
		kgo.SeedBrokers(redpanda.Brokers...),
		kgo.ConsumeTopics("attendance.audit.test"),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
	)
	require.NoError(t, err)
	defer consumer.Close()

	pollCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	fetches := consumer.PollFetches(pollCtx)
	require.NoError(t, fetches.Err())

	records := fetches.Records()
	require.Len(t, records, 1)
	require.Equal(t, "gate-1", string(records[0].Key), "events are keyed by device for per-gate ordering")

	var got audit.Event
	require.NoError(t, json.Unmarshal(records[0].Value, &got))
	require.Equal(t, event.ID, got.ID)
	require.Equal(t, event.Action, got.Action)
	require.Equal(t, event.StudentID, got.StudentID)
	require.Equal(t, event.Station, got.Station)
	require.Equal(t, event.ClientIP, got.ClientIP)
	require.Equal(t, event.UserAgent, got.UserAgent)
	require.True(t, event.Timestamp.Equal(got.Timestamp))
}

func TestKafkaStoreCreatesTopic(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()
	redpanda := containers.GetManager().GetRedpanda(t)

	// Constructing twice must not fail on the already-existing topic.
	first, err := auditkafka.New(ctx, redpanda.Brokers, auditkafka.WithTopic("attendance.audit.ensure"))
	require.NoError(t, err)
	first.Close()

	second, err := auditkafka.New(ctx, redpanda.Brokers, auditkafka.WithTopic("attendance.audit.ensure"))
	require.NoError(t, err)
	second.Close()
}
