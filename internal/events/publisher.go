package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Publisher announces storefront events to the rest of the system.
type Publisher interface {
	PublishOrderPlaced(ctx context.Context, meta EventMeta, payload OrderPlacedPayload) error
	PublishFormSubmitted(ctx context.Context, meta EventMeta, payload FormSubmittedPayload) error
	Close() error
}

type amqpChannel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

type PublisherOptions struct {
	Producer       string
	PublishTimeout time.Duration
}

type RabbitPublisher struct {
	ch       amqpChannel
	seqRepo  SequenceRepository
	producer string
	timeout  time.Duration
	now      func() time.Time
}

func NewRabbitPublisher(conn *amqp.Connection, seqRepo SequenceRepository, opts PublisherOptions) (*RabbitPublisher, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("open channel: %w", err)
	}

	if err := declareEventsExchange(ch); err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("declare events exchange: %w", err)
	}

	return newRabbitPublisher(ch, seqRepo, opts), nil
}

func newRabbitPublisher(ch amqpChannel, seqRepo SequenceRepository, opts PublisherOptions) *RabbitPublisher {
	producer := opts.Producer
	if producer == "" {
		producer = storefrontServiceName
	}
	timeout := opts.PublishTimeout
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return &RabbitPublisher{
		ch:       ch,
		seqRepo:  seqRepo,
		producer: producer,
		timeout:  timeout,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (p *RabbitPublisher) Close() error {
	return p.ch.Close()
}

func (p *RabbitPublisher) PublishOrderPlaced(ctx context.Context, meta EventMeta, payload OrderPlacedPayload) error {
	seq, err := p.seqRepo.NextSequence(ctx, meta.PartitionKey)
	if err != nil {
		return fmt.Errorf("reserve sequence: %w", err)
	}

	env := newEnvelope(EventTypeOrderPlaced, orderPlacedSchema, p.producer, meta, seq, payload, p.now())
	body, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("marshal OrderPlaced envelope: %w", err)
	}

	return p.publishJSON(ctx, OrderPlacedRoutingKey, env.EventName, env.EventID, meta.CorrelationID, body)
}

func (p *RabbitPublisher) PublishFormSubmitted(ctx context.Context, meta EventMeta, payload FormSubmittedPayload) error {
	seq, err := p.seqRepo.NextSequence(ctx, meta.PartitionKey)
	if err != nil {
		return fmt.Errorf("reserve sequence: %w", err)
	}

	env := newEnvelope(EventTypeFormSubmitted, formSubmittedSchema, p.producer, meta, seq, payload, p.now())
	body, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("marshal FormSubmitted envelope: %w", err)
	}

	return p.publishJSON(ctx, FormSubmittedRoutingKey, env.EventName, env.EventID, meta.CorrelationID, body)
}

func (p *RabbitPublisher) publishJSON(ctx context.Context, routingKey, eventName, messageID, correlationID string, body []byte) error {
	pubCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	err := p.ch.PublishWithContext(
		pubCtx,
		EventsExchange,
		routingKey,
		false,
		false,
		amqp.Publishing{
			ContentType:   "application/json",
			DeliveryMode:  amqp.Persistent,
			MessageId:     messageID,
			CorrelationId: correlationID,
			Type:          eventName,
			AppId:         p.producer,
			Timestamp:     p.now(),
			Body:          body,
		},
	)
	if err != nil {
		return fmt.Errorf("publish %s: %w", routingKey, err)
	}
	return nil
}

// NopPublisher drops every event. Used when publishing is disabled.
type NopPublisher struct{}

func (NopPublisher) PublishOrderPlaced(context.Context, EventMeta, OrderPlacedPayload) error {
	return nil
}

func (NopPublisher) PublishFormSubmitted(context.Context, EventMeta, FormSubmittedPayload) error {
	return nil
}

func (NopPublisher) Close() error { return nil }
