package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"
)

// channel is the subset of *amqp091.Channel the producer uses
type channel interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp091.Table) error
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp091.Publishing) error
	Close() error
}

// RabbitPublisher publishes JSON events to a durable topic exchange
type RabbitPublisher struct {
	mu       sync.Mutex
	conn     *amqp091.Connection
	channel  channel
	reopen   func() (channel, error)
	exchange string
	log      logrus.FieldLogger
}

// NewRabbitPublisher dials the broker and declares the exchange
func NewRabbitPublisher(amqpURL, exchange string, log logrus.FieldLogger) (*RabbitPublisher, error) {
	cleanURL, err := sanitizeAMQPURL(amqpURL)
	if err != nil {
		return nil, err
	}
	conn, err := amqp091.DialConfig(cleanURL, amqp091.Config{Dial: amqp091.DefaultDial(10 * time.Second)})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	p := &RabbitPublisher{
		conn:     conn,
		channel:  ch,
		exchange: exchange,
		log:      log,
		reopen: func() (channel, error) {
			return conn.Channel()
		},
	}
	if err := p.declare(); err != nil {
		p.Close()
		return nil, err
	}
	return p, nil
}

// NewPublisher returns a RabbitMQ publisher, or a no-op one when the URL is empty or the broker is unreachable
func NewPublisher(amqpURL, exchange string, log logrus.FieldLogger) Publisher {
	if strings.TrimSpace(amqpURL) == "" {
		log.Info("AMQP_URL not set, account events disabled")
		return NewNoopPublisher(log)
	}
	p, err := NewRabbitPublisher(amqpURL, exchange, log)
	if err != nil {
		log.WithError(err).Warn("RabbitMQ unavailable, account events disabled")
		return NewNoopPublisher(log)
	}
	log.WithField("exchange", exchange).Info("Account events publisher connected")
	return p
}

func (p *RabbitPublisher) declare() error {
	if err := p.channel.ExchangeDeclare(p.exchange, "topic", true, false, false, false, nil); err != nil {
		return fmt.Errorf("failed to declare exchange %s: %w", p.exchange, err)
	}
	return nil
}

// Publish sends body as JSON with the routing key, reopening the channel once on failure
func (p *RabbitPublisher) Publish(ctx context.Context, routingKey string, body interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	msg := amqp091.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp091.Persistent,
		Timestamp:    time.Now(),
		Body:         payload,
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	err = p.channel.PublishWithContext(ctx, p.exchange, routingKey, false, false, msg)
	if err == nil {
		return nil
	}
	p.log.WithError(err).WithField("routing_key", routingKey).Warn("Publish failed, reopening channel")

	ch, chErr := p.reopen()
	if chErr != nil {
		return fmt.Errorf("failed to publish %s: %w", routingKey, errors.Join(err, chErr))
	}
	p.channel = ch
	if err := p.declare(); err != nil {
		return err
	}
	if err := p.channel.PublishWithContext(ctx, p.exchange, routingKey, false, false, msg); err != nil {
		return fmt.Errorf("failed to publish %s: %w", routingKey, err)
	}
	return nil
}

func (p *RabbitPublisher) PublishDescriptionUpdated(ctx context.Context, event DescriptionUpdated) error {
	return p.Publish(ctx, RoutingDescriptionUpdated, event)
}

func (p *RabbitPublisher) PublishAccountsImported(ctx context.Context, event AccountsImported) error {
	return p.Publish(ctx, RoutingAccountsImported, event)
}

// Close closes the channel and the connection
func (p *RabbitPublisher) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.channel != nil {
		p.channel.Close()
	}
	if p.conn != nil {
		p.conn.Close()
	}
}

func sanitizeAMQPURL(raw string) (string, error) {
	clean := strings.Trim(strings.TrimSpace(raw), "\"'")
	u, err := url.Parse(clean)
	if err != nil {
		return "", fmt.Errorf("invalid AMQP_URL: %w", err)
	}
	if u.Scheme != "amqp" && u.Scheme != "amqps" {
		return "", errors.New("AMQP scheme must be either 'amqp://' or 'amqps://'")
	}
	return clean, nil
}
