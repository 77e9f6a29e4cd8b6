// Package service holds the outbound side of the catalog: publishing change
// events to RabbitMQ.  Publish errors are logged and returned so callers can
// ignore them without interrupting the request.
package service

import (
	"context"
	"encoding/json"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/iliyamo/media-catalog/internal/logging"
	"github.com/iliyamo/media-catalog/internal/queue"
)

// EventPublisher publishes catalog change events.
type EventPublisher interface {
	PublishCatalogChanged(ctx context.Context, ev queue.CatalogChangedEvent) error
}

// NewPublisher returns an AMQP publisher for url, or a no-op publisher when
// url is empty.
func NewPublisher(url string) EventPublisher {
	if url == "" {
		return NopPublisher{}
	}
	return &AMQPPublisher{url: url}
}

// NopPublisher drops every event.
type NopPublisher struct{}

func (NopPublisher) PublishCatalogChanged(context.Context, queue.CatalogChangedEvent) error {
	return nil
}

// AMQPPublisher dials the broker for every event.  Catalog writes are rare
// enough that a long-lived connection is not worth its reconnect handling.
type AMQPPublisher struct {
	url string
}

// PublishCatalogChanged sends ev to the durable catalog.changed queue as a
// persistent JSON message.
func (p *AMQPPublisher) PublishCatalogChanged(ctx context.Context, ev queue.CatalogChangedEvent) error {
	log := logging.Ctx(ctx)

	body, err := json.Marshal(ev)
	if err != nil {
		log.Error().Err(err).Msg("rabbitmq: marshal event failed")
		return err
	}

	conn, err := amqp.Dial(p.url)
	if err != nil {
		log.Warn().Err(err).Msg("rabbitmq: dial failed")
		return err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		log.Warn().Err(err).Msg("rabbitmq: channel open failed")
		return err
	}
	defer func() { _ = ch.Close() }()

	if _, err := ch.QueueDeclare(
		queue.CatalogQueueName,
		true,  // durable
		false, // autoDelete
		false, // exclusive
		false, // noWait
		nil,
	); err != nil {
		log.Warn().Err(err).Msg("rabbitmq: queue declare failed")
		return err
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    ev.ID,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx, "", queue.CatalogQueueName, false, false, pub); err != nil {
		log.Warn().Err(err).Msg("rabbitmq: publish failed")
		return err
	}
	return nil
}
