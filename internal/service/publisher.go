// Package service provides functions to publish domain events to RabbitMQ.
// Errors are logged and returned to allow callers to ignore failures without
// interrupting the main request flow.
package service

import (
	"context"
	"encoding/json"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/acrux-trazabilidad/internal/queue"
)

// EventPublisher is what handlers depend on.
type EventPublisher interface {
	PublishRecoleccion(ctx context.Context, ev queue.RecoleccionRegistradaEvent) error
}

// RabbitPublisher opens a short-lived connection per event.  Capture
// volume is a few hundred records a day, so no pooling is done.
type RabbitPublisher struct {
	URL string
	Log logrus.FieldLogger
}

func NewRabbitPublisher(url string, log logrus.FieldLogger) *RabbitPublisher {
	return &RabbitPublisher{URL: url, Log: log}
}

// PublishRecoleccion sends ev to the durable recolecciones queue as a
// persistent JSON message.
func (p *RabbitPublisher) PublishRecoleccion(ctx context.Context, ev queue.RecoleccionRegistradaEvent) error {
	log := p.Log.WithField("folio", ev.Folio)
	conn, err := amqp.Dial(p.URL)
	if err != nil {
		log.WithError(err).Warn("rabbitmq: dial failed")
		return err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		log.WithError(err).Warn("rabbitmq: channel open failed")
		return err
	}
	defer func() { _ = ch.Close() }()

	if _, err := ch.QueueDeclare(queue.RecoleccionesQueue, true, false, false, false, nil); err != nil {
		log.WithError(err).Warn("rabbitmq: queue declare failed")
		return err
	}

	body, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		MessageId:    ev.Folio,
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx, "", queue.RecoleccionesQueue, false, false, pub); err != nil {
		log.WithError(err).Warn("rabbitmq: publish failed")
		return err
	}
	return nil
}

// NopPublisher drops events.  It is used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) PublishRecoleccion(context.Context, queue.RecoleccionRegistradaEvent) error {
	return nil
}
