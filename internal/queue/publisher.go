package queue

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

// Queue names.  Durable, declared idempotently on every publish.
const (
	QueueCheckIn = "attendance.checkin"
	QueueSettled = "deposit.settled"
)

// Publisher delivers domain events to RabbitMQ.  It dials per publish:
// event volume is a handful of messages per session, and a fresh
// connection per message keeps the publisher robust against broker
// restarts without connection-management machinery.  Failures are
// logged and swallowed – the originating request never fails because
// the broker is down.
type Publisher struct {
	url string
}

// NewPublisher returns a Publisher for the given AMQP URL.
func NewPublisher(url string) *Publisher {
	return &Publisher{url: url}
}

// CheckInRecorded publishes a check-in event, assigning it a fresh event id.
func (p *Publisher) CheckInRecorded(ctx context.Context, evt CheckInRecorded) {
	evt.EventID = uuid.NewString()
	p.publish(ctx, QueueCheckIn, evt)
}

// DepositSettled publishes a settlement event, assigning it a fresh event id.
func (p *Publisher) DepositSettled(ctx context.Context, evt DepositSettled) {
	evt.EventID = uuid.NewString()
	p.publish(ctx, QueueSettled, evt)
}

func (p *Publisher) publish(ctx context.Context, queueName string, payload any) {
	conn, err := amqp.Dial(p.url)
	if err != nil {
		log.Printf("rabbitmq: dial failed: %v", err)
		return
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		log.Printf("rabbitmq: channel open failed: %v", err)
		return
	}
	defer func() { _ = ch.Close() }()

	// Durable so messages survive broker restarts.
	if _, err := ch.QueueDeclare(queueName, true, false, false, false, nil); err != nil {
		log.Printf("rabbitmq: queue declare failed: %v", err)
		return
	}

	body, err := json.Marshal(payload)
	if err != nil {
		log.Printf("rabbitmq: marshal event failed: %v", err)
		return
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx, "", queueName, false, false, pub); err != nil {
		log.Printf("rabbitmq: publish failed: %v", err)
	}
}
