package listener

import (
	"context"
	"encoding/json"
	"time"

	"github.com/fekuna/omnipos-marketplace-service/internal/logger"
	"github.com/fekuna/omnipos-marketplace-service/internal/model"
	"github.com/fekuna/omnipos-marketplace-service/internal/outbox"
	"github.com/fekuna/omnipos-marketplace-service/internal/sales"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// MessageReader is satisfied by *kafka.Reader.
type MessageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
}

// PaidCartListener drops cached vendor statistics for every relayed cart.paid
// event. Settlement already invalidates after commit; this covers a process
// that died between commit and invalidation.
type PaidCartListener struct {
	reader MessageReader
	agg    sales.Aggregator
	logger logger.ZapLogger
}

func NewPaidCartListener(reader MessageReader, agg sales.Aggregator, logger logger.ZapLogger) *PaidCartListener {
	return &PaidCartListener{
		reader: reader,
		agg:    agg,
		logger: logger,
	}
}

func (l *PaidCartListener) Start(ctx context.Context) {
	l.logger.Info("Starting paid cart Kafka listener")
	for {
		select {
		case <-ctx.Done():
			l.logger.Info("Stopping paid cart Kafka listener")
			return
		default:
			msg, err := l.reader.ReadMessage(ctx)
			if err != nil {
				// Don't log context canceled error as error
				if ctx.Err() != nil {
					return
				}
				l.logger.Error("Failed to read kafka message", zap.Error(err))
				time.Sleep(1 * time.Second)
				continue
			}
			l.processMessage(ctx, msg)
		}
	}
}

func (l *PaidCartListener) processMessage(ctx context.Context, msg kafka.Message) {
	if outbox.EventType(msg) != model.EventCartPaid {
		return
	}

	var payload model.CartPaidPayload
	if err := json.Unmarshal(msg.Value, &payload); err != nil {
		l.logger.Error("Failed to unmarshal cart.paid event", zap.Error(err))
		return
	}

	l.logger.Debug("Processing cart.paid event",
		zap.String("cart_id", payload.CartID),
		zap.Strings("vendor_ids", payload.VendorIDs),
	)
	l.agg.Invalidate(ctx, payload.VendorIDs)
}
