package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"shareit/internal/events"
	"shareit/internal/metrics"

	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

var ErrQueueFull = errors.New("notification queue full")

// Notification is one event waiting for webhook delivery.
type Notification struct {
	ID        string              `json:"id"`
	EventType string              `json:"event_type"`
	Payload   jsoniter.RawMessage `json:"payload"`
	Attempt   int                 `json:"attempt"`
	CreatedAt time.Time           `json:"created_at"`
	LastError string              `json:"last_error,omitempty"`
}

type Sender interface {
	Send(ctx context.Context, n Notification) error
}

// Notifier delivers bus events to a Sender. Redis is used as the queue
// when configured, otherwise an in-process channel.
type Notifier struct {
	sender        Sender
	redis         *redis.Client
	retryPolicy   RetryPolicy
	queue         chan Notification
	redisQueueKey string
	deadLetterKey string
	pollInterval  time.Duration
	after         func(d time.Duration, f func())
	logger        zerolog.Logger
}

func NewNotifier(sender Sender, redisClient *redis.Client, retry RetryPolicy, queueSize int, logger *zerolog.Logger) *Notifier {
	if retry.MaxRetries == 0 {
		retry.MaxRetries = 5
	}
	if retry.InitialDelay == 0 {
		retry.InitialDelay = 2 * time.Second
	}
	if retry.MaxDelay == 0 {
		retry.MaxDelay = time.Minute
	}
	if retry.BackoffFactor == 0 {
		retry.BackoffFactor = 2
	}
	if queueSize <= 0 {
		queueSize = 128
	}

	l := zerolog.Nop()
	if logger != nil {
		l = logger.With().Str("component", "notifier").Logger()
	}

	return &Notifier{
		sender:        sender,
		redis:         redisClient,
		retryPolicy:   retry,
		queue:         make(chan Notification, queueSize),
		redisQueueKey: "shareit:notifications:queue",
		deadLetterKey: "shareit:notifications:deadletter",
		pollInterval:  time.Second,
		after: func(d time.Duration, f func()) {
			time.AfterFunc(d, f)
		},
		logger: l,
	}
}

// Subscribe routes every booking and comment event of bus to the notifier.
func (n *Notifier) Subscribe(bus *events.EventBus) {
	bus.SubscribeAll(events.All, n.HandleEvent)
}

// HandleEvent is an events.EventHandler.
func (n *Notifier) HandleEvent(event *events.Event) error {
	return n.Enqueue(context.Background(), Notification{
		ID:        uuid.NewString(),
		EventType: event.Type,
		Payload:   jsoniter.RawMessage(event.Payload),
		CreatedAt: event.CreatedAt,
	})
}

// Enqueue schedules a notification, preferring redis.
func (n *Notifier) Enqueue(ctx context.Context, note Notification) error {
	if note.EventType == "" {
		return errors.New("event type is required")
	}
	if note.ID == "" {
		note.ID = uuid.NewString()
	}
	if len(note.Payload) == 0 {
		note.Payload = jsoniter.RawMessage("null")
	}

	if n.redis != nil {
		err := n.pushRedis(ctx, n.redisQueueKey, note)
		if err == nil {
			return nil
		}
		n.logger.Warn().Err(err).Msg("redis push failed, falling back to memory queue")
	}

	select {
	case n.queue <- note:
		return nil
	default:
		return ErrQueueFull
	}
}

// Start runs the delivery loop until ctx is done.
func (n *Notifier) Start(ctx context.Context) {
	n.logger.Info().Msg("notifier started")
	defer n.logger.Info().Msg("notifier stopped")

	for {
		select {
		case <-ctx.Done():
			return
		case note := <-n.queue:
			n.process(ctx, note)
			continue
		default:
		}

		if note, ok := n.tryRedis(ctx); ok {
			n.process(ctx, note)
			continue
		}

		select {
		case <-ctx.Done():
			return
		case note := <-n.queue:
			n.process(ctx, note)
		case <-time.After(n.pollInterval):
		}
	}
}

func (n *Notifier) tryRedis(ctx context.Context) (Notification, bool) {
	if n.redis == nil {
		return Notification{}, false
	}
	res, err := n.redis.RPop(ctx, n.redisQueueKey).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) && !errors.Is(err, context.Canceled) {
			n.logger.Error().Err(err).Msg("redis pop failed")
		}
		return Notification{}, false
	}

	var note Notification
	if err := json.Unmarshal([]byte(res), &note); err != nil {
		n.logger.Error().Err(err).Msg("decode queued notification")
		return Notification{}, false
	}
	return note, true
}

func (n *Notifier) process(ctx context.Context, note Notification) {
	err := n.sender.Send(ctx, note)
	if err == nil {
		metrics.IncNotification("sent")
		n.logger.Debug().Str("id", note.ID).Str("event_type", note.EventType).Msg("notification sent")
		return
	}
	n.retryOrFail(ctx, note, err)
}

func (n *Notifier) retryOrFail(ctx context.Context, note Notification, cause error) {
	note.Attempt++
	note.LastError = cause.Error()

	if note.Attempt >= n.retryPolicy.MaxRetries {
		metrics.IncNotification("dead")
		n.logger.Error().Err(cause).Str("id", note.ID).Int("attempts", note.Attempt).Msg("notification dropped to dead letter")
		n.pushDeadLetter(ctx, note)
		return
	}

	delay := n.retryPolicy.NextDelay(note.Attempt)
	metrics.IncNotification("retry")
	n.logger.Warn().Err(cause).Str("id", note.ID).Dur("delay", delay).Msg("notification retry scheduled")

	n.after(delay, func() {
		if err := n.Enqueue(context.Background(), note); err != nil {
			n.logger.Error().Err(err).Str("id", note.ID).Msg("requeue notification")
		}
	})
}

func (n *Notifier) pushRedis(ctx context.Context, key string, note Notification) error {
	data, err := json.Marshal(note)
	if err != nil {
		return fmt.Errorf("encode notification: %w", err)
	}
	return n.redis.LPush(ctx, key, data).Err()
}

func (n *Notifier) pushDeadLetter(ctx context.Context, note Notification) {
	if n.redis == nil {
		return
	}
	if err := n.pushRedis(ctx, n.deadLetterKey, note); err != nil {
		n.logger.Error().Err(err).Str("id", note.ID).Msg("dead letter push failed")
	}
}
