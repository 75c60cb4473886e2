package order

import (
	"context"
	"time"

	"github.com/Sangeethasankar1020/django-react-ecommerce/internal/kafka"
	"github.com/Sangeethasankar1020/django-react-ecommerce/internal/redisx"
	"github.com/redis/go-redis/v9"
)

// kafkaNotifier publishes confirmation requests to the notification topic.
// The email worker consuming it is a separate process.
type kafkaNotifier struct {
	producer *kafka.Producer
}

// NewKafkaNotifier wraps the async producer as a Notifier.
func NewKafkaNotifier(producer *kafka.Producer) Notifier {
	return &kafkaNotifier{producer: producer}
}

func (n *kafkaNotifier) OrderConfirmation(o *Order, email string) {
	n.producer.Publish(
		[]byte(o.ID.String()),
		kafka.MustMarshal(kafka.OrderConfirmation{
			OrderID:     o.ID,
			UserID:      o.UserID,
			Email:       email,
			TotalAmount: o.TotalAmount,
			EnqueuedAt:  time.Now().UTC(),
		}),
	)
}

// redisDeduper marks webhook event ids in redis with a TTL.
type redisDeduper struct {
	rdb *redis.Client
}

// NewRedisDeduper wraps a redis client as a Deduper.
func NewRedisDeduper(rdb *redis.Client) Deduper {
	return &redisDeduper{rdb: rdb}
}

func (d *redisDeduper) First(ctx context.Context, eventID string) (bool, error) {
	return redisx.MarkOnce(ctx, d.rdb, redisx.DedupStripeEventKey(eventID), redisx.TTLDedup)
}

func (d *redisDeduper) Forget(ctx context.Context, eventID string) error {
	return redisx.Unmark(ctx, d.rdb, redisx.DedupStripeEventKey(eventID))
}
