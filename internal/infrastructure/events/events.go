// Package events publishes booking lifecycle events.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	BookingConfirmed = "booking.confirmed"
	BookingCancelled = "booking.cancelled"
)

// BookingEvent is the message body for both routing keys.
type BookingEvent struct {
	BookingID  string    `json:"booking_id"`
	VenueID    string    `json:"venue_id"`
	Provider   string    `json:"provider"`
	Category   string    `json:"category"`
	Status     string    `json:"status"`
	Persisted  bool      `json:"persisted"`
	OccurredAt time.Time `json:"occurred_at"`
}

type Publisher interface {
	Publish(ctx context.Context, key string, ev BookingEvent) error
	Close() error
}

// Noop drops every event. Used when RABBIT_URL is unset.
type Noop struct{}

func (Noop) Publish(context.Context, string, BookingEvent) error { return nil }
func (Noop) Close() error                                        { return nil }

// AMQP publishes JSON events to a durable topic exchange.
type AMQP struct {
	conn     *amqp.Connection
	ch       *amqp.Channel
	exchange string
}

func NewAMQP(url, exchange string) (*AMQP, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("declare exchange: %w", err)
	}
	return &AMQP{conn: conn, ch: ch, exchange: exchange}, nil
}

func (p *AMQP) Publish(ctx context.Context, key string, ev BookingEvent) error {
	b, err := Encode(ev)
	if err != nil {
		return err
	}
	return p.ch.PublishWithContext(ctx, p.exchange, key, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    ev.BookingID,
		Timestamp:    ev.OccurredAt,
		Body:         b,
	})
}

func (p *AMQP) Close() error {
	if p.ch != nil {
		_ = p.ch.Close()
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}

func Encode(ev BookingEvent) ([]byte, error) {
	return json.Marshal(ev)
}
