package catalog

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/IBM/sarama"
	"github.com/sakashimaa/etech-storefront/pkg/domain"
	"github.com/sakashimaa/etech-storefront/pkg/mylogger"
	"go.uber.org/zap"
)

// HandleProductEvent invalidates the cache when another writer changes the catalog.
func (c *Cache) HandleProductEvent(ctx context.Context, msg *sarama.ConsumerMessage) error {
	var envelope domain.Envelope
	if err := json.Unmarshal(msg.Value, &envelope); err != nil {
		return fmt.Errorf("decode product event: %w", err)
	}

	switch envelope.Event {
	case domain.EventProductCreated, domain.EventProductUpdated, domain.EventProductDeleted:
		var payload domain.ProductChangedEvent
		if err := json.Unmarshal(envelope.Payload, &payload); err != nil {
			return fmt.Errorf("decode %s payload: %w", envelope.Event, err)
		}

		c.Invalidate()
		mylogger.Info(
			ctx,
			c.logger,
			"catalog invalidated",
			zap.String("event", envelope.Event),
			zap.String("product_id", payload.ProductID),
		)
	default:
		mylogger.Debug(ctx, c.logger, "ignored event", zap.String("event", envelope.Event))
	}

	return nil
}
