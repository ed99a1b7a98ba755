package outbox

import (
	"encoding/json"
	"time"

	"github.com/fekuna/omnipos-marketplace-service/internal/model"
	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
)

const HeaderEventType = "event_type"

func NewEvent(eventType, aggregateID string, payload any) (*model.OutboxEvent, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return &model.OutboxEvent{
		ID:          uuid.New().String(),
		EventType:   eventType,
		AggregateID: aggregateID,
		Payload:     string(body),
		CreatedAt:   time.Now().UTC(),
	}, nil
}

// Message converts an event to a Kafka message keyed by aggregate id.
func Message(e *model.OutboxEvent) kafka.Message {
	return kafka.Message{
		Key:   []byte(e.AggregateID),
		Value: []byte(e.Payload),
		Time:  e.CreatedAt,
		Headers: []kafka.Header{
			{Key: HeaderEventType, Value: []byte(e.EventType)},
			{Key: "event_id", Value: []byte(e.ID)},
		},
	}
}

// EventType returns the event_type header of msg, or "".
func EventType(msg kafka.Message) string {
	for _, h := range msg.Headers {
		if h.Key == HeaderEventType {
			return string(h.Value)
		}
	}
	return ""
}
