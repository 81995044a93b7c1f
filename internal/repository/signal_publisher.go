package repository

import (
	"context"
	"time"

	"BiasLens/internal/domain/models"
	drepo "BiasLens/internal/domain/repository"
	pkgkafka "BiasLens/pkg/kafka"
)

type batchPublisher interface {
	PublishBatch(ctx context.Context, messages []pkgkafka.Message) error
}

// KafkaSignalPublisher emits one event per signal, keyed by asset so a symbol's events stay ordered.
type KafkaSignalPublisher struct {
	producer batchPublisher
}

var _ drepo.SignalPublisher = (*KafkaSignalPublisher)(nil)

func NewKafkaSignalPublisher(p *pkgkafka.Producer) *KafkaSignalPublisher {
	return &KafkaSignalPublisher{producer: p}
}

// SignalEvent is the wire shape of a published signal.
type SignalEvent struct {
	Type        string             `json:"type"`
	UserID      string             `json:"userId"`
	Signal      models.AlphaSignal `json:"signal"`
	PublishedAt time.Time          `json:"publishedAt"`
}

func (k *KafkaSignalPublisher) PublishSignals(ctx context.Context, userID string, signals []models.AlphaSignal) error {
	if len(signals) == 0 {
		return nil
	}
	now := time.Now().UTC()
	msgs := make([]pkgkafka.Message, 0, len(signals))
	for _, s := range signals {
		msgs = append(msgs, pkgkafka.Message{
			Key: []byte(s.Asset),
			Value: SignalEvent{
				Type:        "alpha_signal.created",
				UserID:      userID,
				Signal:      s,
				PublishedAt: now,
			},
		})
	}
	return k.producer.PublishBatch(ctx, msgs)
}
