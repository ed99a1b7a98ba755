package outbox

import (
	"context"
	"errors"
	"time"

	"github.com/fekuna/omnipos-marketplace-service/internal/logger"
	"github.com/fekuna/omnipos-marketplace-service/internal/metrics"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

const (
	DefaultBatchSize = 100
	DefaultInterval  = 2 * time.Second
)

// MessageWriter is satisfied by *kafka.Writer.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

func NewKafkaWriter(brokers []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireAll,
		AllowAutoTopicCreation: true,
	}
}

// Relay publishes committed outbox events. Delivery is at least once: an
// event is marked sent only after the broker acknowledged it.
type Relay struct {
	repo      Repository
	writer    MessageWriter
	interval  time.Duration
	batchSize int
	metrics   *metrics.Metrics
	logger    logger.ZapLogger
}

func NewRelay(repo Repository, writer MessageWriter, interval time.Duration, m *metrics.Metrics, log logger.ZapLogger) *Relay {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Relay{
		repo:      repo,
		writer:    writer,
		interval:  interval,
		batchSize: DefaultBatchSize,
		metrics:   m,
		logger:    log,
	}
}

func (r *Relay) Run(ctx context.Context) {
	r.logger.Info("Starting outbox relay", zap.Duration("interval", r.interval))
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("Stopping outbox relay")
			return
		case <-ticker.C:
			if _, err := r.RelayOnce(ctx); err != nil && ctx.Err() == nil {
				r.logger.Error("outbox relay pass failed", zap.Error(err))
			}
		}
	}
}

// RelayOnce publishes one batch and returns how many events were marked sent.
func (r *Relay) RelayOnce(ctx context.Context) (int, error) {
	events, err := r.repo.FetchUnsent(ctx, r.batchSize)
	if err != nil {
		return 0, err
	}
	if len(events) == 0 {
		return 0, nil
	}

	msgs := make([]kafka.Message, len(events))
	for i := range events {
		msgs[i] = Message(&events[i])
	}

	sent := make([]string, 0, len(events))
	writeErr := r.writer.WriteMessages(ctx, msgs...)
	var perMessage kafka.WriteErrors
	switch {
	case writeErr == nil:
		for _, e := range events {
			sent = append(sent, e.ID)
		}
	case errors.As(writeErr, &perMessage):
		for i, e := range events {
			if i < len(perMessage) && perMessage[i] == nil {
				sent = append(sent, e.ID)
			}
		}
	default:
		return 0, writeErr
	}

	if err := r.repo.MarkSent(ctx, sent, time.Now().UTC()); err != nil {
		return 0, err
	}
	r.metrics.ObserveOutboxSent(len(sent))

	if len(sent) < len(events) {
		r.logger.Warn("some outbox events were not published",
			zap.Int("published", len(sent)),
			zap.Int("batch", len(events)),
			zap.Error(writeErr),
		)
	}
	return len(sent), nil
}
