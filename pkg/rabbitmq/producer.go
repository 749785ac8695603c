// Package rabbitmq publishes ledger events to a RabbitMQ topic exchange.
package rabbitmq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"

	"github.com/zabank/ledger-api/internal/core/domain"
	"github.com/zabank/ledger-api/internal/metrics"
)

const (
	DefaultExchange = "bank.events"

	// RoutingKeyTransactionRecorded is used for every journaled ledger entry.
	RoutingKeyTransactionRecorded = "transaction.recorded"

	dialTimeout = 10 * time.Second
)

// TransactionRecorded is the message body published after a transaction has
// been appended to the journal.
type TransactionRecorded struct {
	ID                 string    `json:"id"`
	Type               string    `json:"type"`
	Amount             string    `json:"amount"`
	SourceAccount      string    `json:"source_account,omitempty"`
	DestinationAccount string    `json:"destination_account,omitempty"`
	Details            string    `json:"details"`
	Timestamp          time.Time `json:"timestamp"`
}

// NewTransactionRecorded builds the event for tx with a fresh message id.
func NewTransactionRecorded(tx domain.Transaction) TransactionRecorded {
	return TransactionRecorded{
		ID:                 uuid.NewString(),
		Type:               string(tx.Type),
		Amount:             tx.Amount.String(),
		SourceAccount:      tx.SourceAccount,
		DestinationAccount: tx.DestinationAccount,
		Details:            tx.Details,
		Timestamp:          tx.Timestamp.UTC(),
	}
}

// Publisher is implemented by the live producer and the fallback.
type Publisher interface {
	PublishTransaction(ctx context.Context, tx domain.Transaction) error
	Ping(ctx context.Context) error
	Close()
}

// EventProducer owns one connection and channel to the broker.
type EventProducer struct {
	mu       sync.Mutex
	conn     *amqp091.Connection
	channel  *amqp091.Channel
	exchange string
	log      zerolog.Logger
}

// NewEventProducer dials the broker and declares the durable topic exchange.
func NewEventProducer(amqpURL, exchange string, log zerolog.Logger) (*EventProducer, error) {
	cleanURL, err := sanitizeAMQPURL(amqpURL)
	if err != nil {
		return nil, err
	}
	if exchange == "" {
		exchange = DefaultExchange
	}

	conn, err := amqp091.DialConfig(cleanURL, amqp091.Config{Dial: amqp091.DefaultDial(dialTimeout)})
	if err != nil {
		return nil, fmt.Errorf("amqp dial: %w", err)
	}

	p := &EventProducer{conn: conn, exchange: exchange, log: log.With().Str("component", "rabbitmq_producer").Logger()}
	if err := p.reopen(); err != nil {
		conn.Close()
		return nil, err
	}
	return p, nil
}

// PublishTransaction sends a TransactionRecorded event for tx. A failed
// publish reopens the channel and retries once.
func (p *EventProducer) PublishTransaction(ctx context.Context, tx domain.Transaction) error {
	event := NewTransactionRecorded(tx)
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	msg := amqp091.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp091.Persistent,
		MessageId:    event.ID,
		Timestamp:    time.Now(),
		Type:         RoutingKeyTransactionRecorded,
		Body:         body,
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	err = p.channel.PublishWithContext(ctx, p.exchange, RoutingKeyTransactionRecorded, false, false, msg)
	if err != nil {
		p.log.Warn().Err(err).Str("exchange", p.exchange).Msg("publish failed; reopening channel")
		if reErr := p.reopen(); reErr != nil {
			metrics.EventsPublishedTotal.WithLabelValues(metrics.ResultFailure).Inc()
			return fmt.Errorf("publish: %w", errors.Join(err, reErr))
		}
		err = p.channel.PublishWithContext(ctx, p.exchange, RoutingKeyTransactionRecorded, false, false, msg)
	}
	if err != nil {
		metrics.EventsPublishedTotal.WithLabelValues(metrics.ResultFailure).Inc()
		return fmt.Errorf("publish: %w", err)
	}

	metrics.EventsPublishedTotal.WithLabelValues(metrics.ResultSuccess).Inc()
	return nil
}

// Ping reports whether the broker connection is still open.
func (p *EventProducer) Ping(context.Context) error {
	if p.conn == nil || p.conn.IsClosed() {
		return errors.New("amqp connection closed")
	}
	return nil
}

// Close closes the channel and the connection.
func (p *EventProducer) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.channel != nil {
		p.channel.Close()
	}
	if p.conn != nil {
		p.conn.Close()
	}
}

// reopen replaces the channel and re-declares the exchange. Callers hold mu,
// except during construction.
func (p *EventProducer) reopen() error {
	ch, err := p.conn.Channel()
	if err != nil {
		return fmt.Errorf("amqp channel: %w", err)
	}
	if err := ch.ExchangeDeclare(p.exchange, "topic", true, false, false, false, nil); err != nil {
		ch.Close()
		return fmt.Errorf("declare exchange %s: %w", p.exchange, err)
	}
	if p.channel != nil {
		p.channel.Close()
	}
	p.channel = ch
	return nil
}

// EventProducerFallback is a no-op publisher used when no broker is configured
// or the broker is unreachable at startup.
type EventProducerFallback struct {
	Log zerolog.Logger
}

func (p *EventProducerFallback) PublishTransaction(_ context.Context, tx domain.Transaction) error {
	p.Log.Debug().Str("type", string(tx.Type)).Msg("event publish skipped; no broker")
	return nil
}

func (p *EventProducerFallback) Ping(context.Context) error { return nil }

func (p *EventProducerFallback) Close() {}

// sanitizeAMQPURL strips quotes and stray prefixes that env files tend to
// leave around the URL and checks the scheme.
func sanitizeAMQPURL(raw string) (string, error) {
	clean := strings.Trim(strings.TrimSpace(raw), "\"'")
	if idx := strings.Index(strings.ToLower(clean), "amqp"); idx > 0 {
		clean = clean[idx:]
	}
	u, err := url.Parse(clean)
	if err != nil {
		return "", fmt.Errorf("parse amqp url: %w", err)
	}
	if u.Scheme != "amqp" && u.Scheme != "amqps" {
		return "", errors.New("AMQP scheme must be either 'amqp://' or 'amqps://'")
	}
	return clean, nil
}
