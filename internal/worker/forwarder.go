package worker

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"shareit/internal/domain"
	"shareit/internal/events"
	"shareit/internal/metrics"
	"shareit/internal/models"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const DeadLetterKey = "shareit:events:deadletter"

var ErrQueueFull = errors.New("outbound event queue is full")

// BrokerForwarder relays bus events to an external broker. Events wait in a
// bounded in-memory queue; deliveries that exhaust their retries go to a
// redis dead-letter list when redis is configured.
type BrokerForwarder struct {
	publisher     domain.BrokerPublisher
	redis         *redis.Client
	retryPolicy   RetryPolicy
	queue         chan models.OutboundEvent
	deadLetterKey string
	logger        *zerolog.Logger
}

// NewBrokerForwarder builds a forwarder. Zero retry fields take defaults and
// redisClient may be nil.
func NewBrokerForwarder(publisher domain.BrokerPublisher, redisClient *redis.Client, retry RetryPolicy, logger *zerolog.Logger) *BrokerForwarder {
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

	return &BrokerForwarder{
		publisher:     publisher,
		redis:         redisClient,
		retryPolicy:   retry,
		queue:         make(chan models.OutboundEvent, models.EventQueueSize),
		deadLetterKey: DeadLetterKey,
		logger:        logger,
	}
}

// Subscribe attaches the forwarder to the bus for the given event types.
func (f *BrokerForwarder) Subscribe(bus *events.EventBus, eventTypes ...string) {
	for _, eventType := range eventTypes {
		bus.Subscribe(eventType, f.Enqueue)
	}
}

// Enqueue schedules an event for delivery without blocking the publisher.
func (f *BrokerForwarder) Enqueue(event *events.Event) error {
	out := models.OutboundEvent{
		ID:        uuid.NewString(),
		Type:      event.Type,
		Key:       event.Key,
		Payload:   event.Payload,
		CreatedAt: event.CreatedAt,
	}
	if out.Key == "" {
		out.Key = event.Type
	}

	select {
	case f.queue <- out:
		return nil
	default:
		metrics.IncDelivery("dropped")
		f.logger.Warn().Str("event_id", out.ID).Str("event_type", out.Type).Msg("outbound queue full, dead-lettering event")
		out.LastError = ErrQueueFull.Error()
		f.pushDeadLetter(context.Background(), &out)
		return ErrQueueFull
	}
}

// Start delivers queued events until ctx is done. Events still queued at
// shutdown are dead-lettered.
func (f *BrokerForwarder) Start(ctx context.Context) {
	f.logger.Info().Msg("broker forwarder started")
	defer f.logger.Info().Msg("broker forwarder stopped")

	for {
		if ctx.Err() != nil {
			f.drain(ctx)
			return
		}
		select {
		case <-ctx.Done():
			f.drain(ctx)
			return
		case event := <-f.queue:
			f.deliver(ctx, &event)
		}
	}
}

func (f *BrokerForwarder) drain(ctx context.Context) {
	for {
		select {
		case event := <-f.queue:
			metrics.IncDelivery("dead")
			event.LastError = "forwarder stopped before delivery"
			if f.redis == nil {
				f.logger.Warn().Str("event_id", event.ID).Str("event_type", event.Type).Msg("undelivered event dropped at shutdown")
				continue
			}
			f.pushDeadLetter(ctx, &event)
		default:
			return
		}
	}
}

// Pending returns the number of queued events.
func (f *BrokerForwarder) Pending() int {
	return len(f.queue)
}

func (f *BrokerForwarder) deliver(ctx context.Context, event *models.OutboundEvent) {
	for {
		err := f.publisher.Publish(ctx, event.Type, event.Key, event.Payload)
		if err == nil {
			metrics.IncDelivery("sent")
			f.logger.Debug().Str("event_id", event.ID).Str("event_type", event.Type).Int("attempts", event.Attempts+1).Msg("event delivered")
			return
		}

		event.Attempts++
		event.LastError = err.Error()
		if event.Attempts >= f.retryPolicy.MaxRetries {
			metrics.IncDelivery("dead")
			f.logger.Error().Err(err).Str("event_id", event.ID).Int("attempts", event.Attempts).Msg("event delivery failed, giving up")
			f.pushDeadLetter(ctx, event)
			return
		}

		metrics.IncDelivery("retried")
		delay := f.retryPolicy.NextDelay(event.Attempts)
		f.logger.Warn().Err(err).Str("event_id", event.ID).Dur("retry_in", delay).Msg("event delivery failed")

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			f.pushDeadLetter(ctx, event)
			return
		case <-timer.C:
		}
	}
}

func (f *BrokerForwarder) pushDeadLetter(ctx context.Context, event *models.OutboundEvent) {
	if f.redis == nil {
		return
	}
	data, err := json.Marshal(event)
	if err != nil {
		f.logger.Error().Err(err).Str("event_id", event.ID).Msg("encode deadletter")
		return
	}

	// Shutdown must not lose the event.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
	defer cancel()
	if err := f.redis.LPush(ctx, f.deadLetterKey, data).Err(); err != nil {
		f.logger.Error().Err(err).Str("event_id", event.ID).Msg("deadletter push")
	}
}
