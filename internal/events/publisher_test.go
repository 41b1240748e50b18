package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/sakashimaa/etech-storefront/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeProducer struct {
	topic   string
	key     string
	message interface{}
	err     error
}

func (f *fakeProducer) ProduceMessage(_ context.Context, topic, key string, message interface{}) error {
	f.topic, f.key, f.message = topic, key, message
	return f.err
}

func (f *fakeProducer) Close() error { return nil }

func TestKafkaPublisher_WrapsPayloadInEnvelope(t *testing.T) {
	producer := &fakeProducer{}
	pub := NewKafkaPublisher(producer, "storefront_events", zap.NewNop())

	pub.Publish(context.Background(), domain.EventOrderPlaced, "o-1", domain.OrderPlacedEvent{OrderID: "o-1", GrandTotal: 1150})

	assert.Equal(t, "storefront_events", producer.topic)
	assert.Equal(t, "o-1", producer.key)

	envelope, ok := producer.message.(domain.Envelope)
	require.True(t, ok)
	assert.Equal(t, domain.EventOrderPlaced, envelope.Event)

	var payload domain.OrderPlacedEvent
	require.NoError(t, json.Unmarshal(envelope.Payload, &payload))
	assert.Equal(t, int64(1150), payload.GrandTotal)
}

func TestKafkaPublisher_SwallowsProducerErrors(t *testing.T) {
	producer := &fakeProducer{err: errors.New("broker down")}
	pub := NewKafkaPublisher(producer, "storefront_events", zap.NewNop())

	assert.NotPanics(t, func() {
		pub.Publish(context.Background(), domain.EventUserLoggedIn, "", domain.SessionEvent{Email: "a@etech.co"})
	})
}

func TestRecorder(t *testing.T) {
	r := NewRecorder()
	r.Publish(context.Background(), domain.EventUserLoggedIn, "", nil)
	r.Publish(context.Background(), domain.EventUserLoggedOut, "", nil)
	r.Publish(context.Background(), domain.EventUserLoggedIn, "", nil)

	assert.Equal(t, 2, r.Count(domain.EventUserLoggedIn))
	assert.Len(t, r.Events(), 3)
}
