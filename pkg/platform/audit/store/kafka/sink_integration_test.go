//go:build integration

package kafka

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/kgo"

	id "cropchain/pkg/domain"
	audit "cropchain/pkg/platform/audit"
	"cropchain/pkg/testutil/containers"
)

func TestSink_ProducesJSONRecords(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	broker := containers.NewRedpandaContainer(t)
	topic := "cropchain.audit.test"

	producer, err := NewClient([]string{broker.SeedBroker}, topic)
	require.NoError(t, err)
	defer producer.Close()
	require.NoError(t, EnsureTopic(ctx, producer, topic, 1, 1))
	require.NoError(t, EnsureTopic(ctx, producer, topic, 1, 1), "second call is a no-op")

	userID := id.NewUserID()
	sink := NewSink(producer, topic)
	require.NoError(t, sink.Append(ctx, audit.Event{
		Category: audit.CategoryCompliance,
		UserID:   userID,
		Action:   string(audit.EventCredentialIssued),
		ActorID:  "admin-1",
	}))

	consumer, err := kgo.NewClient(
		kgo.SeedBrokers(broker.SeedBroker),
		kgo.ConsumeTopics(topic),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
	)
	require.NoError(t, err)
	defer consumer.Close()

	fetches := consumer.PollRecords(ctx, 1)
	require.NoError(t, fetches.Err())
	records := fetches.Records()
	require.Len(t, records, 1)

	assert.Equal(t, userID.String(), string(records[0].Key))
	var got audit.Event
	require.NoError(t, json.Unmarshal(records[0].Value, &got))
	assert.Equal(t, userID, got.UserID)
	assert.Equal(t, string(audit.EventCredentialIssued), got.Action)
}
