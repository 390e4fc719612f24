package repository

import (
	"context"
	"time"

	"TradeCouncil/internal/domain/models"
	domrepo "TradeCouncil/internal/domain/repository"
)

const (
	DefaultDecisionTopic = "trade-decisions"
	decisionEventType    = "trade_decision"
	decisionEventVersion = 1
)

// messageProducer is satisfied by *pkg/kafka.Producer.
type messageProducer interface {
	Publish(ctx context.Context, topic string, key []byte, value interface{}) error
	Close() error
}

// DecisionEvent is the message body written to Kafka.
type DecisionEvent struct {
	Type        string                `json:"type"`
	Version     int                   `json:"version"`
	PublishedAt time.Time             `json:"published_at"`
	Decision    *models.TradeDecision `json:"decision"`
}

// KafkaDecisionPublisher streams decisions keyed by symbol so that every
// decision for one instrument lands on the same partition.
type KafkaDecisionPublisher struct {
	producer messageProducer
	topic    string
	now      func() time.Time
}

// NewKafkaDecisionPublisher creates a publisher writing to topic.
func NewKafkaDecisionPublisher(producer messageProducer, topic string) *KafkaDecisionPublisher {
	if topic == "" {
		topic = DefaultDecisionTopic
	}
	return &KafkaDecisionPublisher{producer: producer, topic: topic, now: time.Now}
}

var _ domrepo.DecisionPublisher = (*KafkaDecisionPublisher)(nil)

func (p *KafkaDecisionPublisher) Publish(ctx context.Context, d *models.TradeDecision) error {
	return p.producer.Publish(ctx, p.topic, []byte(d.Instrument.Symbol), DecisionEvent{
		Type:        decisionEventType,
		Version:     decisionEventVersion,
		PublishedAt: p.now().UTC(),
		Decision:    d,
	})
}

func (p *KafkaDecisionPublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}
