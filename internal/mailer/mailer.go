// Package mailer delivers account emails, either by publishing them to a
// RabbitMQ exchange for a delivery worker or by writing them to the log.
package mailer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// RoutingKey is the routing key every email is published under
const RoutingKey = "email.send"

const dialTimeout = 10 * time.Second

// Message is the JSON body published for the delivery worker
type Message struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// Channel is the subset of *amqp.Channel the queue mailer uses
type Channel interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// QueueMailer publishes emails to a durable topic exchange
type QueueMailer struct {
	channel  Channel
	conn     *amqp.Connection
	exchange string
	logger   *slog.Logger
	now      func() time.Time

	declareOnce sync.Once
	declareErr  error
}

// NewQueueMailer wraps an open channel. The exchange is declared on first send.
func NewQueueMailer(channel Channel, exchange string, logger *slog.Logger) *QueueMailer {
	return &QueueMailer{
		channel:  channel,
		exchange: exchange,
		logger:   logger,
		now:      time.Now,
	}
}

// DialQueueMailer connects to RabbitMQ and opens a channel for publishing
func DialQueueMailer(rawURL, exchange string, logger *slog.Logger) (*QueueMailer, error) {
	cleanURL, err := sanitizeURL(rawURL)
	if err != nil {
		return nil, err
	}

	conn, err := amqp.DialConfig(cleanURL, amqp.Config{Dial: amqp.DefaultDial(dialTimeout)})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to rabbitmq: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close() //nolint:errcheck // already failing
		return nil, fmt.Errorf("failed to open rabbitmq channel: %w", err)
	}

	m := NewQueueMailer(ch, exchange, logger)
	m.conn = conn
	return m, nil
}

// Send publishes one email
func (m *QueueMailer) Send(ctx context.Context, to, subject, body string) error {
	m.declareOnce.Do(func() {
		m.declareErr = m.channel.ExchangeDeclare(m.exchange, "topic", true, false, false, false, nil)
	})
	if m.declareErr != nil {
		return fmt.Errorf("failed to declare exchange %s: %w", m.exchange, m.declareErr)
	}

	payload, err := json.Marshal(Message{To: to, Subject: subject, Body: body})
	if err != nil {
		return fmt.Errorf("failed to encode email: %w", err)
	}

	err = m.channel.PublishWithContext(ctx, m.exchange, RoutingKey, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    m.now(),
		Body:         payload,
	})
	if err != nil {
		return fmt.Errorf("failed to publish email: %w", err)
	}

	m.logger.Debug("email queued", "exchange", m.exchange, "subject", subject)
	return nil
}

// Close closes the underlying connection, if this mailer dialled one
func (m *QueueMailer) Close() error {
	if m.conn == nil {
		return nil
	}
	return m.conn.Close()
}

func sanitizeURL(raw string) (string, error) {
	clean := strings.Trim(strings.TrimSpace(raw), "\"'")
	u, err := url.Parse(clean)
	if err != nil {
		return "", fmt.Errorf("invalid rabbitmq url: %w", err)
	}
	if u.Scheme != "amqp" && u.Scheme != "amqps" {
		return "", errors.New("rabbitmq url must use amqp:// or amqps://")
	}
	return clean, nil
}

// LogMailer writes emails to the log instead of delivering them
type LogMailer struct {
	logger *slog.Logger
}

// NewLogMailer creates a new LogMailer
func NewLogMailer(logger *slog.Logger) *LogMailer {
	return &LogMailer{logger: logger}
}

// Send logs the email
func (m *LogMailer) Send(_ context.Context, to, subject, body string) error {
	m.logger.Info("email", "to", to, "subject", subject, "body", body)
	return nil
}
