package outbox

import (
	"context"
	"encoding/json"
	"time"

	"smart-bus/internal/data/entity"
	"smart-bus/internal/data/repository"
	"smart-bus/pkg/metrics"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// Producer is the part of *kafka.Writer the relay needs.
type Producer interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

func NewKafkaWriter(brokers []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		MaxAttempts:            5,
		ReadTimeout:            10 * time.Second,
		WriteTimeout:           10 * time.Second,
		AllowAutoTopicCreation: true,
	}
}

type Relay struct {
	repo     repository.OutboxRepository
	producer Producer
	interval time.Duration
	batch    int
	log      *zap.Logger
}

func NewRelay(repo repository.OutboxRepository, producer Producer, interval time.Duration, batch int, log *zap.Logger) *Relay {
	return &Relay{
		repo:     repo,
		producer: producer,
		interval: interval,
		batch:    batch,
		log:      log.With(zap.String("worker", "outbox_relay")),
	}
}

// Run polls until ctx is cancelled.
func (r *Relay) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.log.Info("Outbox relay started", zap.Duration("interval", r.interval), zap.Int("batch", r.batch))

	for {
		select {
		case <-ctx.Done():
			r.log.Info("Outbox relay stopped")
			return nil
		case <-ticker.C:
			if _, err := r.ProcessBatch(ctx); err != nil {
				r.log.Error("Failed to process outbox batch", zap.Error(err))
			}
		}
	}
}

// ProcessBatch publishes one claimed batch and reports how many went out.
func (r *Relay) ProcessBatch(ctx context.Context) (int, error) {
	events, err := r.repo.FetchBatch(ctx, r.batch)
	if err != nil {
		return 0, err
	}
	if len(events) == 0 {
		return 0, nil
	}

	var published, failed []uuid.UUID
	for _, e := range events {
		if err := r.publish(ctx, e); err != nil {
			r.log.Warn("Failed to publish event",
				zap.String("event_id", e.ID.String()),
				zap.String("event_type", e.EventType),
				zap.Int("attempts", e.Attempts),
				zap.Error(err),
			)
			metrics.OutboxPublishErrors.Inc()
			failed = append(failed, e.ID)
			continue
		}
		metrics.OutboxPublished.Inc()
		published = append(published, e.ID)
	}

	if len(published) > 0 {
		if err := r.repo.MarkPublished(ctx, published); err != nil {
			return 0, err
		}
	}
	if len(failed) > 0 {
		if err := r.repo.MarkFailed(ctx, failed); err != nil {
			r.log.Error("Failed to requeue events", zap.Error(err), zap.Int("count", len(failed)))
		}
	}

	r.log.Debug("Outbox batch processed", zap.Int("published", len(published)), zap.Int("failed", len(failed)))
	return len(published), nil
}

func (r *Relay) publish(ctx context.Context, e *entity.OutboxEvent) error {
	value, err := json.Marshal(Message{
		ID:            e.ID,
		Type:          e.EventType,
		AggregateType: e.AggregateType,
		AggregateID:   e.AggregateID,
		Producer:      "smart-bus",
		OccurredAt:    e.CreatedAt.UTC(),
		Payload:       e.Payload,
	})
	if err != nil {
		return err
	}

	sendCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	return r.producer.WriteMessages(sendCtx, kafka.Message{
		Key:   []byte(e.AggregateID.String()),
		Value: value,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(e.EventType)},
		},
	})
}
