package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"
)

// Consumer listens on the booking.created queue and appends each event to
// a log file.
type Consumer struct {
	URL     string
	LogPath string
	Log     *logrus.Logger

	mu sync.Mutex
}

// NewConsumer builds a consumer. An empty logPath defaults to
// logs/booking.log.
func NewConsumer(url, logPath string, log *logrus.Logger) *Consumer {
	if logPath == "" {
		logPath = filepath.Join("logs", "booking.log")
	}
	return &Consumer{URL: url, LogPath: logPath, Log: log}
}

const (
	minRetry = time.Second
	maxRetry = 30 * time.Second
	prefetch = 50
)

// Run dials the broker and consumes until ctx is cancelled. Failed dials
// and dropped connections are retried with doubling delays capped at
// maxRetry. Malformed messages are rejected without requeue.
func (c *Consumer) Run(ctx context.Context) error {
	delay := minRetry
	for ctx.Err() == nil {
		conn, err := amqp.Dial(c.URL)
		if err == nil {
			delay = minRetry
			err = c.drain(ctx, conn)
			_ = conn.Close()
			if ctx.Err() != nil {
				break
			}
		}
		c.Log.WithError(err).WithField("retry_in", delay.String()).Warn("booking consumer disconnected")
		if !wait(ctx, delay) {
			break
		}
		delay = min(2*delay, maxRetry)
	}
	return ctx.Err()
}

// drain consumes from one connection until its delivery channel closes or
// ctx ends.
func (c *Consumer) drain(ctx context.Context, conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("open channel: %w", err)
	}
	defer ch.Close()

	if err := ch.Qos(prefetch, 0, false); err != nil {
		c.Log.WithError(err).Warn("booking consumer qos not applied")
	}
	if _, err := ch.QueueDeclare(BookingCreatedQueue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare %s: %w", BookingCreatedQueue, err)
	}
	deliveries, err := ch.ConsumeWithContext(ctx, BookingCreatedQueue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("consume %s: %w", BookingCreatedQueue, err)
	}
	c.Log.WithField("queue", BookingCreatedQueue).Info("booking consumer attached")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, open := <-deliveries:
			if !open {
				return errors.New("delivery channel closed")
			}
			if err := c.Handle(d.Body); err != nil {
				c.Log.WithError(err).WithField("delivery_tag", d.DeliveryTag).Error("booking event dropped")
				_ = d.Reject(false)
				continue
			}
			_ = d.Ack(false)
		}
	}
}

// Handle decodes one booking event and appends its log line to LogPath.
func (c *Consumer) Handle(body []byte) error {
	var ev BookingCreatedEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("decode booking event: %w", err)
	}
	if ev.BookingID == 0 {
		return errors.New("booking event has no booking_id")
	}
	return c.appendLine(ev.LogLine())
}

func (c *Consumer) appendLine(line string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := os.MkdirAll(filepath.Dir(c.LogPath), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(c.LogPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	if _, err := f.WriteString(line); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// wait sleeps for d and reports false if ctx ended first.
func wait(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
