package amqp

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/rabbitmq/amqp091-go"
)

const publishTimeout = 5 * time.Second

// Client wraps one AMQP connection carrying tirelire's two queues: the
// ledger-sync queue feeding the statement mirror and the
// materialize-request queue feeding the recurring worker. Both hang off
// a single durable direct exchange, routed by queue name.
type Client struct {
	conn             *amqp091.Connection
	channel          *amqp091.Channel
	exchangeName     string
	ledgerQueue      string
	materializeQueue string
}

func NewClient(url, exchangeName, ledgerQueue, materializeQueue string) (*Client, error) {
	conn, err := amqp091.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial AMQP: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	client := &Client{
		conn:             conn,
		channel:          channel,
		exchangeName:     exchangeName,
		ledgerQueue:      ledgerQueue,
		materializeQueue: materializeQueue,
	}

	if err := client.setup(); err != nil {
		client.Close()
		return nil, fmt.Errorf("setup exchange and queues: %w", err)
	}

	return client, nil
}

func (c *Client) setup() error {
	err := c.channel.ExchangeDeclare(
		c.exchangeName,
		"direct",
		true,  // durable
		false, // auto-deleted
		false, // internal
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("declare exchange: %w", err)
	}

	for _, queue := range []string{c.ledgerQueue, c.materializeQueue} {
		_, err = c.channel.QueueDeclare(
			queue,
			true,  // durable
			false, // delete when unused
			false, // exclusive
			false, // no-wait
			nil,
		)
		if err != nil {
			return fmt.Errorf("declare queue %s: %w", queue, err)
		}

		// Routing key matches the queue name on a direct exchange.
		if err := c.channel.QueueBind(queue, queue, c.exchangeName, false, nil); err != nil {
			return fmt.Errorf("bind queue %s: %w", queue, err)
		}
	}

	return nil
}

func (c *Client) publish(ctx context.Context, queue string, body []byte) error {
	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	err := c.channel.PublishWithContext(
		ctx,
		c.exchangeName,
		queue, // routing key
		false, // mandatory
		false, // immediate
		amqp091.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp091.Persistent,
			Timestamp:    time.Now(),
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("publish message: %w", err)
	}
	return nil
}

// PublishLedgerSync queues one transaction id for the statement mirror.
func (c *Client) PublishLedgerSync(ctx context.Context, transactionID string) error {
	body, err := NewLedgerSyncMessage(transactionID).ToJSON()
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}
	if err := c.publish(ctx, c.ledgerQueue, body); err != nil {
		return err
	}

	slog.InfoContext(ctx, "Published ledger sync message",
		"transaction_id", transactionID,
		"exchange", c.exchangeName,
		"queue", c.ledgerQueue)
	return nil
}

// PublishMaterializeRequest queues a generation pass for one user.
func (c *Client) PublishMaterializeRequest(ctx context.Context, userID string) error {
	body, err := NewMaterializeRequestMessage(userID).ToJSON()
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}
	if err := c.publish(ctx, c.materializeQueue, body); err != nil {
		return err
	}

	slog.InfoContext(ctx, "Published materialize request",
		"user_id", userID,
		"exchange", c.exchangeName,
		"queue", c.materializeQueue)
	return nil
}

// ConsumeLedgerSync delivers ledger sync messages to handler with manual
// acknowledgement. A handler error nacks with requeue; an unparseable
// body is dropped.
func (c *Client) ConsumeLedgerSync(ctx context.Context, handler func(*LedgerSyncMessage) error) error {
	return consume(ctx, c.channel, c.ledgerQueue, LedgerSyncMessageFromJSON, handler)
}

// ConsumeMaterializeRequests delivers materialize requests to handler
// with the same acknowledgement rules as ConsumeLedgerSync.
func (c *Client) ConsumeMaterializeRequests(ctx context.Context, handler func(*MaterializeRequestMessage) error) error {
	return consume(ctx, c.channel, c.materializeQueue, MaterializeRequestMessageFromJSON, handler)
}

func consume[M any](ctx context.Context, channel *amqp091.Channel, queue string, decode func([]byte) (*M, error), handler func(*M) error) error {
	msgs, err := channel.Consume(
		queue,
		"",    // consumer
		false, // manual ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("start consuming: %w", err)
	}

	slog.InfoContext(ctx, "Started consuming", "queue", queue)

	for {
		select {
		case <-ctx.Done():
			slog.InfoContext(ctx, "Stopping message consumption", "queue", queue, "reason", ctx.Err())
			return ctx.Err()
		case delivery, ok := <-msgs:
			if !ok {
				return fmt.Errorf("message channel closed")
			}

			msg, err := decode(delivery.Body)
			if err != nil {
				slog.ErrorContext(ctx, "Failed to unmarshal message", "queue", queue, "error", err)
				delivery.Nack(false, false) // reject and don't requeue
				continue
			}

			if err := handler(msg); err != nil {
				slog.ErrorContext(ctx, "Failed to handle message", "queue", queue, "error", err)
				delivery.Nack(false, true) // reject and requeue
				continue
			}

			delivery.Ack(false)
		}
	}
}

func (c *Client) Close() error {
	if c.channel != nil {
		c.channel.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}
