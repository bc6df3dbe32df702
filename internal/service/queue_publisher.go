package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"

	q "github.com/iliyamo/cinema-booking/internal/queue"
)

// EventPublisher delivers domain events. Failures never undo the change
// that produced the event.
type EventPublisher interface {
	PublishBookingCreated(ctx context.Context, ev q.BookingCreatedEvent) error
}

// NopPublisher drops every event. It is used when events are disabled and
// in tests.
type NopPublisher struct{}

func (NopPublisher) PublishBookingCreated(context.Context, q.BookingCreatedEvent) error { return nil }

// DialTimeout caps how long one broker dial may take.
const DialTimeout = 5 * time.Second

// RabbitPublisher publishes persistent JSON messages to the default
// exchange, routed to the event's queue. The connection is dialled lazily
// and redialled after it closes.
type RabbitPublisher struct {
	url string
	log *logrus.Logger

	// slot is held while conn is inspected or redialled. Waiting on it
	// honours the caller's context.
	slot chan struct{}
	conn *amqp.Connection
}

func NewRabbitPublisher(url string, log *logrus.Logger) *RabbitPublisher {
	return &RabbitPublisher{url: url, log: log, slot: make(chan struct{}, 1)}
}

func (p *RabbitPublisher) acquire(ctx context.Context) error {
	select {
	case p.slot <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *RabbitPublisher) release() { <-p.slot }

func (p *RabbitPublisher) connection(ctx context.Context) (*amqp.Connection, error) {
	if err := p.acquire(ctx); err != nil {
		return nil, err
	}
	defer p.release()
	if p.conn != nil && !p.conn.IsClosed() {
		return p.conn, nil
	}
	timeout := DialTimeout
	if dl, ok := ctx.Deadline(); ok {
		timeout = min(timeout, time.Until(dl))
	}
	if timeout <= 0 {
		return nil, context.DeadlineExceeded
	}
	conn, err := amqp.DialConfig(p.url, amqp.Config{
		Heartbeat: 10 * time.Second,
		Locale:    "en_US",
		Dial:      amqp.DefaultDial(timeout),
	})
	if err != nil {
		return nil, fmt.Errorf("rabbitmq dial: %w", err)
	}
	p.conn = conn
	return conn, nil
}

// PublishBookingCreated sends ev to the booking.created queue.
func (p *RabbitPublisher) PublishBookingCreated(ctx context.Context, ev q.BookingCreatedEvent) error {
	conn, err := p.connection(ctx)
	if err != nil {
		p.log.WithError(err).Warn("rabbitmq: dial failed")
		return err
	}
	ch, err := conn.Channel()
	if err != nil {
		p.log.WithError(err).Warn("rabbitmq: channel open failed")
		return err
	}
	defer func() { _ = ch.Close() }()

	if _, err := ch.QueueDeclare(q.BookingCreatedQueue, true, false, false, false, nil); err != nil {
		p.log.WithError(err).Warn("rabbitmq: queue declare failed")
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
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx, "", q.BookingCreatedQueue, false, false, pub); err != nil {
		p.log.WithError(err).Warn("rabbitmq: publish failed")
		return err
	}
	return nil
}

// Close closes the shared connection, if any.
func (p *RabbitPublisher) Close() error {
	_ = p.acquire(context.Background())
	defer p.release()
	if p.conn == nil {
		return nil
	}
	err := p.conn.Close()
	p.conn = nil
	return err
}
