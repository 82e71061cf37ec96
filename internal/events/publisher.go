package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/rabbitmq/amqp091-go"

	"andesgo/intake/internal/models"
)

// EventRequestAccepted is the type of every message on the exchange.
const EventRequestAccepted = "request.accepted"

// RequestAccepted is the message body published for each stored record.
type RequestAccepted struct {
	Event  string               `json:"event"`
	Source string               `json:"source"`
	Record models.RecordSummary `json:"record"`
}

// amqpChannel is the subset of *amqp091.Channel the publisher uses.
type amqpChannel interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp091.Table) error
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp091.Publishing) error
	Close() error
}

// Publisher announces accepted requests on a fanout exchange so other
// services can bind their own queues to it.
type Publisher struct {
	conn     *amqp091.Connection
	mu       sync.Mutex // channels are not safe for concurrent publishing
	ch       amqpChannel
	exchange string
	source   string
}

// Connect dials RabbitMQ and declares the durable fanout exchange.
func Connect(url, exchange, source string) (*Publisher, error) {
	conn, err := amqp091.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open RabbitMQ channel: %w", err)
	}
	p, err := newPublisher(ch, exchange, source)
	if err != nil {
		conn.Close()
		return nil, err
	}
	p.conn = conn
	log.Printf("Publishing accepted requests to exchange %s (fanout)", exchange)
	return p, nil
}

func newPublisher(ch amqpChannel, exchange, source string) (*Publisher, error) {
	if exchange == "" {
		return nil, errors.New("rabbit exchange name is empty")
	}
	if err := ch.ExchangeDeclare(exchange, amqp091.ExchangeFanout, true, false, false, false, nil); err != nil {
		ch.Close()
		return nil, fmt.Errorf("failed to declare exchange %s: %w", exchange, err)
	}
	return &Publisher{ch: ch, exchange: exchange, source: source}, nil
}

// OnAccepted publishes the record summary. Fanout ignores the routing key.
func (p *Publisher) OnAccepted(ctx context.Context, record *models.RequestRecord) error {
	body, err := json.Marshal(RequestAccepted{
		Event:  EventRequestAccepted,
		Source: p.source,
		Record: record.Summary(),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal event for %s: %w", record.ID, err)
	}

	msg := amqp091.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp091.Persistent,
		MessageId:    record.ID,
		Timestamp:    record.CreatedAt,
		Type:         EventRequestAccepted,
		AppId:        p.source,
		Body:         body,
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.ch.PublishWithContext(ctx, p.exchange, "", false, false, msg); err != nil {
		return fmt.Errorf("failed to publish %s to %s: %w", record.ID, p.exchange, err)
	}
	return nil
}

// Close closes the channel and, when owned, the connection.
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	err := p.ch.Close()
	if p.conn != nil {
		err = errors.Join(err, p.conn.Close())
	}
	return err
}
