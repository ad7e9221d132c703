package mq

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"dassyor/internal/util"
	"dassyor/pkg/metrics"
)

type MessageHandler func(ctx context.Context, messageID string, data json.RawMessage) error

// DeadLetterHook runs after a message is parked on the DLQ, so the owning
// handler can settle its business state.
type DeadLetterHook func(ctx context.Context, messageID string, data json.RawMessage, cause error)

type Consumer struct {
	conn       *amqp091.Connection
	channel    *amqp091.Channel
	queue      amqp091.Queue
	routingKey string
	handler    MessageHandler
	onDead     DeadLetterHook
	publisher  *Publisher
	retries    *util.RetryCounter
	maxRetries int
	logger     *zap.Logger
}

// NewConsumer creates a consumer bound to one routing key, with its DLQ
// declared up front.
func NewConsumer(url, queueName, routingKey string, publisher *Publisher, retries *util.RetryCounter, maxRetries int, logger *zap.Logger) (*Consumer, error) {
	conn, err := NewConnection(url)
	if err != nil {
		return nil, err
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	if err := DeclareExchange(ch); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare exchange: %w", err)
	}
	if err := DeclareDLQExchange(ch); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare DLQ exchange: %w", err)
	}
	if _, err := DeclareDLQQueue(ch, routingKey); err != nil {
		ch.Close()
		conn.Close()
		return nil, err
	}

	q, err := ch.QueueDeclare(
		queueName,
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to declare queue: %w", err)
	}

	err = ch.QueueBind(
		q.Name,
		routingKey,
		ExchangeName,
		false,
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to bind queue: %w", err)
	}

	logger.Info("consumer initialized",
		zap.String("routing_key", routingKey),
		zap.String("queue", queueName),
		zap.String("exchange", ExchangeName),
	)

	return &Consumer{
		conn:       conn,
		channel:    ch,
		queue:      q,
		routingKey: routingKey,
		publisher:  publisher,
		retries:    retries,
		maxRetries: maxRetries,
		logger:     logger,
	}, nil
}

func (c *Consumer) SetHandler(h MessageHandler) {
	c.handler = h
}

func (c *Consumer) SetDeadLetterHook(h DeadLetterHook) {
	c.onDead = h
}

func (c *Consumer) Close() {
	if c.channel != nil {
		_ = c.channel.Close()
	}
	if c.conn != nil {
		_ = c.conn.Close()
	}
}

// StartConsuming blocks consuming messages; run it in a goroutine. Every
// delivery ends in exactly one of ack, nack-requeue, or DLQ+ack.
func (c *Consumer) StartConsuming() error {
	if c.handler == nil {
		return fmt.Errorf("consumer handler not set")
	}

	deliveries, err := c.channel.Consume(
		c.queue.Name,
		"worker",
		false,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to register consumer: %w", err)
	}

	c.logger.Info("consumer started",
		zap.String("routing_key", c.routingKey),
		zap.String("queue", c.queue.Name),
	)

	for msg := range deliveries {
		c.handleDelivery(msg)
	}

	return nil
}

func (c *Consumer) handleDelivery(msg amqp091.Delivery) {
	ctx := context.Background()
	start := time.Now()
	messageID := deliveryID(msg)

	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("handler panic recovered",
				zap.String("routing_key", c.routingKey),
				zap.String("message_id", messageID),
				zap.Any("panic", r),
			)
			c.settleFailure(ctx, msg, messageID, fmt.Errorf("panic: %v", r))
		}
	}()

	err := c.handler(ctx, messageID, msg.Body)
	metrics.RecordMQConsumeLatency(c.routingKey, c.queue.Name, time.Since(start))

	if err != nil {
		c.logger.Error("handler error",
			zap.String("routing_key", c.routingKey),
			zap.String("message_id", messageID),
			zap.Error(err),
		)
		c.settleFailure(ctx, msg, messageID, err)
		return
	}

	if c.retries != nil {
		_ = c.retries.Reset(ctx, c.routingKey, messageID)
	}
	if err := msg.Ack(false); err != nil {
		c.logger.Error("failed to ack message", zap.String("routing_key", c.routingKey), zap.Error(err))
	}
}

// settleFailure routes a failed delivery: retryable failures under the cap
// are nacked back onto the queue, everything else is dead-lettered.
func (c *Consumer) settleFailure(ctx context.Context, msg amqp091.Delivery, messageID string, cause error) {
	attempts := int64(c.maxRetries)
	if c.retries != nil {
		n, err := c.retries.Increment(ctx, c.routingKey, messageID)
		if err != nil {
			c.logger.Error("retry counter unavailable", zap.Error(err))
		} else {
			attempts = n
		}
	}

	if util.IsRetryable(cause) && attempts < int64(c.maxRetries) {
		if err := msg.Nack(false, true); err != nil {
			c.logger.Error("failed to nack message", zap.String("routing_key", c.routingKey), zap.Error(err))
		}
		return
	}

	c.logger.Warn("dead-lettering message",
		zap.String("routing_key", c.routingKey),
		zap.String("message_id", messageID),
		zap.Int64("attempts", attempts),
		zap.Error(cause),
	)
	if err := c.publisher.PublishToDLQ(c.routingKey, msg.Body, cause.Error()); err != nil {
		c.logger.Error("failed to publish to DLQ, requeueing", zap.Error(err))
		_ = msg.Nack(false, true)
		return
	}

	if c.onDead != nil {
		c.onDead(ctx, messageID, msg.Body, cause)
	}
	if c.retries != nil {
		_ = c.retries.Reset(ctx, c.routingKey, messageID)
	}
	if err := msg.Ack(false); err != nil {
		c.logger.Error("failed to ack dead-lettered message", zap.Error(err))
	}
}

// deliveryID prefers the publisher-assigned message id and falls back to a
// body hash so redeliveries of the same message always share an id.
func deliveryID(msg amqp091.Delivery) string {
	if msg.MessageId != "" {
		return msg.MessageId
	}
	sum := sha256.Sum256(msg.Body)
	return hex.EncodeToString(sum[:8])
}
