// Package amqp publishes transaction change events and carries import
// batches through RabbitMQ.
package amqp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/rabbitmq/amqp091-go"

	"ledger/internal/core"
)

const publishTimeout = 5 * time.Second

var errMalformedMessage = errors.New("malformed message")

type Client struct {
	url          string
	exchangeName string
	eventsQueue  string
	importQueue  string

	mu      sync.Mutex
	conn    *amqp091.Connection
	channel *amqp091.Channel

	breaker circuitBreaker
}

// NewClient dials the broker and declares the exchange plus both queues.
// Each queue is bound with its own name as routing key.
func NewClient(url, exchangeName, eventsQueue, importQueue string) (*Client, error) {
	c := &Client{
		url:          url,
		exchangeName: exchangeName,
		eventsQueue:  eventsQueue,
		importQueue:  importQueue,
	}
	if _, err := c.ensureChannel(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Client) ensureChannel() (*amqp091.Channel, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.channel != nil && !c.channel.IsClosed() {
		return c.channel, nil
	}
	c.closeLocked()

	conn, err := amqp091.Dial(c.url)
	if err != nil {
		return nil, fmt.Errorf("dial AMQP: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if err := c.setup(ch); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("setup exchange and queues: %w", err)
	}
	c.conn, c.channel = conn, ch
	return ch, nil
}

func (c *Client) setup(ch *amqp091.Channel) error {
	err := ch.ExchangeDeclare(
		c.exchangeName, // name
		"direct",       // type
		true,           // durable
		false,          // auto-deleted
		false,          // internal
		false,          // no-wait
		nil,            // arguments
	)
	if err != nil {
		return fmt.Errorf("declare exchange: %w", err)
	}

	for _, q := range []string{c.eventsQueue, c.importQueue} {
		if q == "" {
			continue
		}
		if _, err := ch.QueueDeclare(q, true, false, false, false, nil); err != nil {
			return fmt.Errorf("declare queue %s: %w", q, err)
		}
		if err := ch.QueueBind(q, q, c.exchangeName, false, nil); err != nil {
			return fmt.Errorf("bind queue %s: %w", q, err)
		}
	}
	return nil
}

// PublishTransactionEvent implements services.EventPublisher.
func (c *Client) PublishTransactionEvent(ctx context.Context, e core.Event) error {
	body, err := NewTransactionEventMessage(e).ToJSON()
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}
	if err := c.publish(ctx, c.eventsQueue, body); err != nil {
		return err
	}
	slog.InfoContext(ctx, "Published transaction event",
		"type", e.Type,
		"id", e.TransactionID,
		"exchange", c.exchangeName,
		"queue", c.eventsQueue)
	return nil
}

func (c *Client) PublishImportBatch(ctx context.Context, msg *ImportBatchMessage) error {
	body, err := msg.ToJSON()
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}
	if err := c.publish(ctx, c.importQueue, body); err != nil {
		return err
	}
	slog.InfoContext(ctx, "Published import batch",
		"batch_id", msg.BatchID,
		"count", len(msg.Transactions),
		"queue", c.importQueue)
	return nil
}

func (c *Client) publish(ctx context.Context, routingKey string, body []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if c.breaker.isOpen() {
		return fmt.Errorf("publish to %s: %w", routingKey, ErrCircuitOpen)
	}

	ch, err := c.ensureChannel()
	if err != nil {
		c.breaker.recordFailure()
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	err = ch.PublishWithContext(
		ctx,
		c.exchangeName, // exchange
		routingKey,     // routing key
		false,          // mandatory
		false,          // immediate
		amqp091.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp091.Persistent,
			Timestamp:    time.Now(),
			Body:         body,
		},
	)
	if err != nil {
		c.breaker.recordFailure()
		if isConnectionError(err) {
			c.reset()
		}
		return fmt.Errorf("publish message: %w", err)
	}
	c.breaker.recordSuccess()
	return nil
}

// ConsumeImportBatches blocks until ctx is done, reconnecting with
// exponential backoff when the connection drops.
func (c *Client) ConsumeImportBatches(ctx context.Context, handler func(context.Context, *ImportBatchMessage) error) error {
	return c.consumeWithRetry(ctx, c.importQueue, func(ctx context.Context, body []byte) error {
		msg, err := ImportBatchMessageFromJSON(body)
		if err != nil {
			return fmt.Errorf("%w: %v", errMalformedMessage, err)
		}
		slog.InfoContext(ctx, "Processing import batch", "batch_id", msg.BatchID, "count", len(msg.Transactions))
		return handler(ctx, msg)
	})
}

// ConsumeTransactionEvents blocks until ctx is done, reconnecting with
// exponential backoff when the connection drops.
func (c *Client) ConsumeTransactionEvents(ctx context.Context, handler func(context.Context, *TransactionEventMessage) error) error {
	return c.consumeWithRetry(ctx, c.eventsQueue, func(ctx context.Context, body []byte) error {
		msg, err := TransactionEventMessageFromJSON(body)
		if err != nil {
			return fmt.Errorf("%w: %v", errMalformedMessage, err)
		}
		slog.InfoContext(ctx, "Processing transaction event", "type", msg.Type, "id", msg.ID)
		return handler(ctx, msg)
	})
}

func (c *Client) consumeWithRetry(ctx context.Context, queue string, handle func(context.Context, []byte) error) error {
	attempt := 0
	for {
		processed, err := c.consumeOnce(ctx, queue, handle)
		if ctx.Err() != nil {
			slog.InfoContext(ctx, "Stopping message consumption", "queue", queue, "reason", ctx.Err())
			return ctx.Err()
		}
		if processed > 0 {
			attempt = 0
		}
		wait := exponentialBackoff(attempt)
		slog.WarnContext(ctx, "Consumer interrupted, reconnecting",
			"queue", queue,
			"error", err,
			"attempt", attempt,
			"backoff", wait)
		c.reset()
		attempt++

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}
}

func (c *Client) consumeOnce(ctx context.Context, queue string, handle func(context.Context, []byte) error) (int, error) {
	ch, err := c.ensureChannel()
	if err != nil {
		return 0, err
	}
	if err := ch.Qos(1, 0, false); err != nil {
		return 0, fmt.Errorf("set qos: %w", err)
	}
	msgs, err := ch.Consume(
		queue, // queue
		"",    // consumer
		false, // auto-ack (we want manual ack)
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,   // args
	)
	if err != nil {
		return 0, fmt.Errorf("start consuming: %w", err)
	}

	slog.InfoContext(ctx, "Started consuming messages", "queue", queue)

	processed := 0
	for {
		select {
		case <-ctx.Done():
			return processed, ctx.Err()
		case d, ok := <-msgs:
			if !ok {
				return processed, fmt.Errorf("message channel closed")
			}
			processDelivery(ctx, d, d.Body, handle)
			processed++
		}
	}
}

type acknowledger interface {
	Ack(multiple bool) error
	Nack(multiple, requeue bool) error
}

// processDelivery acks on success, drops malformed payloads and requeues
// on handler errors.
func processDelivery(ctx context.Context, d acknowledger, body []byte, handle func(context.Context, []byte) error) {
	err := handle(ctx, body)
	switch {
	case err == nil:
		if ackErr := d.Ack(false); ackErr != nil {
			slog.ErrorContext(ctx, "Failed to ack message", "error", ackErr)
		}
	case errors.Is(err, errMalformedMessage):
		slog.ErrorContext(ctx, "Failed to unmarshal message", "error", err)
		d.Nack(false, false)
	default:
		slog.ErrorContext(ctx, "Failed to handle message", "error", err)
		d.Nack(false, true)
	}
}

func (c *Client) reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closeLocked()
}

// closeLocked must be called with mu held.
func (c *Client) closeLocked() {
	if c.channel != nil {
		c.channel.Close()
		c.channel = nil
	}
	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}
}

func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	var err error
	if c.channel != nil {
		c.channel.Close()
		c.channel = nil
	}
	if c.conn != nil {
		err = c.conn.Close()
		c.conn = nil
	}
	return err
}
