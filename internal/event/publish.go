package event

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"hang-in-there/internal/story"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

const StoryUpdatedEvent = "story.updated"

type StoryUpdatedMessage struct {
	Event     string      `json:"event"`
	Timestamp time.Time   `json:"timestamp"`
	Story     story.Story `json:"story"`
}

type PublishingChannel interface {
	PublishWithContext(
		ctx context.Context,
		exchange, key string,
		mandatory, immediate bool,
		msg amqp.Publishing,
	) error
	Close() error
}

type RabbitPublisher struct {
	conn       *amqp.Connection
	ch         PublishingChannel
	exchange   string
	routingKey string
	logger     *zap.Logger
}

func NewRabbitPublisher(uri, exchange, routingKey string, logger *zap.Logger) (*RabbitPublisher, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	conn, err := amqp.Dial(uri)
	if err != nil {
		return nil, fmt.Errorf("rabbitmq connection failed: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("rabbitmq channel creation failed: %w", err)
	}

	if err := ch.ExchangeDeclare(
		exchange,
		"topic",
		true,
		false,
		false,
		false,
		nil,
	); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("exchange declare failed: %w", err)
	}

	logger.Info("rabbitmq exchange ready", zap.String("exchange", exchange), zap.String("routing_key", routingKey))

	return &RabbitPublisher{
		conn:       conn,
		ch:         ch,
		exchange:   exchange,
		routingKey: routingKey,
		logger:     logger,
	}, nil
}

func (p *RabbitPublisher) Close() {
	if p.ch != nil {
		_ = p.ch.Close()
	}
	if p.conn != nil {
		_ = p.conn.Close()
	}
}

func (p *RabbitPublisher) PublishStoryUpdated(ctx context.Context, s *story.Story) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	body, err := json.Marshal(StoryUpdatedMessage{
		Event:     StoryUpdatedEvent,
		Timestamp: time.Now().UTC(),
		Story:     *s,
	})
	if err != nil {
		return err
	}

	return p.ch.PublishWithContext(
		ctx,
		p.exchange,
		p.routingKey,
		false,
		false,
		amqp.Publishing{
			DeliveryMode: amqp.Persistent,
			ContentType:  "application/json",
			MessageId:    s.ID,
			Type:         StoryUpdatedEvent,
			Body:         body,
		},
	)
}
