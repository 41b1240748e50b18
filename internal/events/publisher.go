package events

import (
	"context"
	"sync"
	"time"

	"github.com/sakashimaa/etech-storefront/pkg/domain"
	"github.com/sakashimaa/etech-storefront/pkg/kafka"
	"github.com/sakashimaa/etech-storefront/pkg/mylogger"
	"go.uber.org/zap"
)

// Publisher emits storefront events. Publishing is best effort and never fails the caller's operation.
type Publisher interface {
	Publish(ctx context.Context, event, key string, payload any)
}

type nopPublisher struct{}

func NewNop() Publisher {
	return nopPublisher{}
}

func (nopPublisher) Publish(context.Context, string, string, any) {}

type kafkaPublisher struct {
	producer kafka.Producer
	topic    string
	logger   *zap.Logger
	now      func() time.Time
}

func NewKafkaPublisher(producer kafka.Producer, topic string, logger *zap.Logger) Publisher {
	return &kafkaPublisher{
		producer: producer,
		topic:    topic,
		logger:   logger,
		now:      time.Now,
	}
}

func (p *kafkaPublisher) Publish(ctx context.Context, event, key string, payload any) {
	envelope, err := domain.NewEnvelope(event, payload, p.now())
	if err != nil {
		mylogger.Error(ctx, p.logger, "failed to build event", zap.String("event", event), zap.Error(err))
		return
	}

	if err := p.producer.ProduceMessage(ctx, p.topic, key, envelope); err != nil {
		mylogger.Warn(
			ctx,
			p.logger,
			"failed to publish event",
			zap.String("event", event),
			zap.String("topic", p.topic),
			zap.Error(err),
		)
	}
}

// Recorder keeps published events in memory.
type Recorder struct {
	mu     sync.Mutex
	events []Recorded
}

type Recorded struct {
	Event   string
	Key     string
	Payload any
}

func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) Publish(_ context.Context, event, key string, payload any) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.events = append(r.events, Recorded{Event: event, Key: key, Payload: payload})
}

func (r *Recorder) Events() []Recorded {
	r.mu.Lock()
	defer r.mu.Unlock()

	return append([]Recorded(nil), r.events...)
}

func (r *Recorder) Count(event string) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := 0
	for _, e := range r.events {
		if e.Event == event {
			n++
		}
	}
	return n
}
