// Package mq fans planner schedule events out over Redis pub/sub so every
// instance can push them to its own websocket clients.
package mq

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/ternarybob/arbor"

	"tripboard/models"
)

const ScheduleChannel = "planner-events"

// Publisher emits schedule events on ScheduleChannel.
type Publisher struct {
	client *redis.Client
	logger arbor.ILogger
}

func NewPublisher(client *redis.Client, logger arbor.ILogger) *Publisher {
	return &Publisher{client: client, logger: logger}
}

func (p *Publisher) Publish(ctx context.Context, ev models.ScheduleEvent) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	if err := p.client.Publish(ctx, ScheduleChannel, data).Err(); err != nil {
		return fmt.Errorf("publish to %s: %w", ScheduleChannel, err)
	}
	p.logger.Debug().Str("session_id", ev.SessionID).Str("event", ev.Type).Msg("Schedule event published")
	return nil
}

// Handler receives decoded schedule events.
type Handler func(ctx context.Context, ev models.ScheduleEvent) error

// StartWorker listens on ScheduleChannel and hands each event to handle
// until ctx is cancelled.
func StartWorker(ctx context.Context, client *redis.Client, logger arbor.ILogger, handle Handler) {
	sub := client.Subscribe(ctx, ScheduleChannel)
	defer sub.Close()
	ch := sub.Channel()

	logger.Info().Str("channel", ScheduleChannel).Msg("Listening for schedule events")

	for {
		select {
		case <-ctx.Done():
			logger.Info().Msg("Schedule event worker stopped")
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			ev, err := decodeEvent(msg.Payload)
			if err != nil {
				logger.Warn().Err(err).Msg("Failed to parse schedule event")
				continue
			}
			if err := handle(ctx, ev); err != nil {
				logger.Warn().Err(err).Str("session_id", ev.SessionID).Msg("Schedule event not delivered")
			}
		}
	}
}

func decodeEvent(payload string) (models.ScheduleEvent, error) {
	var ev models.ScheduleEvent
	if err := json.Unmarshal([]byte(payload), &ev); err != nil {
		return models.ScheduleEvent{}, err
	}
	if ev.SessionID == "" {
		return models.ScheduleEvent{}, fmt.Errorf("event without session_id")
	}
	return ev, nil
}
