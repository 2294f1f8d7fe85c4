package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"

	"github.com/gebeya/marketplace-api/internal/model"
)

const (
	notificationQueueName = "notifications"
	dlxExchange           = "notifications.dlx"
	dlqQueueName          = "notifications.dlq"
	idempotencyTTL        = 24 * time.Hour
)

// Notifier delivers a single notification to its recipient. The default
// implementation only logs; a push or email gateway plugs in here.
type Notifier interface {
	Notify(ctx context.Context, msg model.NotificationMessage) error
}

type LogNotifier struct {
	log *slog.Logger
}

func NewLogNotifier(log *slog.Logger) *LogNotifier {
	return &LogNotifier{log: log}
}

func (n *LogNotifier) Notify(_ context.Context, msg model.NotificationMessage) error {
	switch msg.Kind {
	case model.NotificationOrderStatusChanged:
		n.log.Info("notify order status change",
			"user_id", msg.UserID, "order_id", msg.OrderID, "status", msg.Status)
	case model.NotificationReviewCreated:
		n.log.Info("notify new review",
			"user_id", msg.UserID, "product_id", msg.ProductID, "review_id", msg.ReviewID)
	default:
		return fmt.Errorf("unknown notification kind: %q", msg.Kind)
	}
	return nil
}

type NotificationWorker struct {
	channel     *amqp.Channel
	notifier    Notifier
	redisClient *redis.Client
	log         *slog.Logger
	done        chan struct{}
}

func NewNotificationWorker(
	ch *amqp.Channel,
	notifier Notifier,
	redisClient *redis.Client,
	log *slog.Logger,
) *NotificationWorker {
	return &NotificationWorker{
		channel:     ch,
		notifier:    notifier,
		redisClient: redisClient,
		log:         log,
		done:        make(chan struct{}),
	}
}

// SetupRabbitMQ declares exchanges, queues, and bindings (DLX/DLQ).
func SetupRabbitMQ(ch *amqp.Channel) error {
	if err := ch.ExchangeDeclare(dlxExchange, "direct", true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare DLX: %w", err)
	}
	if _, err := ch.QueueDeclare(dlqQueueName, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare DLQ: %w", err)
	}
	if err := ch.QueueBind(dlqQueueName, notificationQueueName, dlxExchange, false, nil); err != nil {
		return fmt.Errorf("bind DLQ: %w", err)
	}
	if _, err := ch.QueueDeclare(notificationQueueName, true, false, false, false, amqp.Table{
		"x-dead-letter-exchange":    dlxExchange,
		"x-dead-letter-routing-key": notificationQueueName,
	}); err != nil {
		return fmt.Errorf("declare notification queue: %w", err)
	}
	if err := ch.Qos(1, 0, false); err != nil {
		return fmt.Errorf("set QoS: %w", err)
	}
	return nil
}

func (w *NotificationWorker) Start(ctx context.Context) error {
	msgs, err := w.channel.Consume(notificationQueueName, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("start consuming: %w", err)
	}

	go func() {
		for {
			select {
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				w.processMessage(ctx, msg)
			case <-w.done:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	w.log.Info("notification worker started")
	return nil
}

func (w *NotificationWorker) Stop() { close(w.done) }

func (w *NotificationWorker) processMessage(ctx context.Context, msg amqp.Delivery) {
	var note model.NotificationMessage
	if err := json.Unmarshal(msg.Body, &note); err != nil {
		w.log.Error("unmarshal notification", "error", err)
		_ = msg.Nack(false, false)
		return
	}

	log := w.log.With("kind", note.Kind, "user_id", note.UserID)

	// Idempotency check via Redis
	idempotencyKey := idempotencyKeyFor(note)
	exists, err := w.redisClient.Exists(ctx, idempotencyKey).Result()
	if err != nil {
		log.Error("check idempotency key", "error", err)
		_ = msg.Nack(false, true)
		return
	}
	if exists > 0 {
		log.Info("notification already delivered, skipping")
		_ = msg.Ack(false)
		return
	}

	if err := w.notifier.Notify(ctx, note); err != nil {
		log.Error("deliver notification failed", "error", err)
		_ = msg.Nack(false, false) // → DLQ
		return
	}

	if err := w.redisClient.Set(ctx, idempotencyKey, "1", idempotencyTTL).Err(); err != nil {
		log.Error("set idempotency key", "error", err)
	}

	_ = msg.Ack(false)
	log.Info("notification delivered")
}

// idempotencyKeyFor identifies a delivery: an order may legitimately
// produce one notification per status, a review exactly one.
func idempotencyKeyFor(note model.NotificationMessage) string {
	switch note.Kind {
	case model.NotificationOrderStatusChanged:
		return fmt.Sprintf("notified:%s:%s:%s", note.Kind, note.OrderID, note.Status)
	case model.NotificationReviewCreated:
		return fmt.Sprintf("notified:%s:%s", note.Kind, note.ReviewID)
	default:
		return "notified:" + note.Kind
	}
}
