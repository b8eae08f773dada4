package service

import (
	"context"
	"encoding/json"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"

	q "github.com/iliyamo/grant-portal/internal/queue"
)

// Publisher emits domain events.  Failures are returned so callers can log
// and carry on; publishing never blocks a request from succeeding.
type Publisher interface {
	PublishContactReceived(ctx context.Context, event q.ContactReceivedEvent) error
}

// NopPublisher drops every event.
type NopPublisher struct{}

func (NopPublisher) PublishContactReceived(context.Context, q.ContactReceivedEvent) error { return nil }

// AMQPPublisher publishes to RabbitMQ, dialing per message.  Contact
// inquiries are rare enough that a pooled channel is not worth holding.
type AMQPPublisher struct {
	URL string
	Log logrus.FieldLogger
}

func NewAMQPPublisher(url string, log logrus.FieldLogger) *AMQPPublisher {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &AMQPPublisher{URL: url, Log: log}
}

// PublishContactReceived publishes a ContactReceivedEvent to the
// contact.received queue as a persistent message.
func (p *AMQPPublisher) PublishContactReceived(ctx context.Context, event q.ContactReceivedEvent) error {
	conn, err := amqp.Dial(p.URL)
	if err != nil {
		p.Log.WithError(err).Warn("rabbitmq: dial failed")
		return err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		p.Log.WithError(err).Warn("rabbitmq: channel open failed")
		return err
	}
	defer func() { _ = ch.Close() }()

	// Durable so messages survive broker restarts.
	if _, err := ch.QueueDeclare(q.ContactQueueName, true, false, false, false, nil); err != nil {
		p.Log.WithError(err).Warn("rabbitmq: queue declare failed")
		return err
	}

	body, err := json.Marshal(event)
	if err != nil {
		return err
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		MessageId:    event.MessageID,
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx, "", q.ContactQueueName, false, false, pub); err != nil {
		p.Log.WithError(err).Warn("rabbitmq: publish failed")
		return err
	}
	return nil
}
