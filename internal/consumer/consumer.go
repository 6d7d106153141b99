// internal/consumer/consumer.go
package consumer

import (
	"context"
	"fmt"

	"github.com/streadway/amqp"
	"go.uber.org/zap"

	"saas-tenancy/internal/messaging"
)

// HandlerFunc processes one delivery. A nil error acks it; any error
// rejects it without requeue so it lands in the tenant's DLQ.
type HandlerFunc func(ctx context.Context, delivery amqp.Delivery) error

// Consumer holds control channels and metadata for a running tenant consumer
type Consumer struct {
	Tenant      string
	QueueName   string
	Channel     *amqp.Channel
	StopChan    chan struct{}
	DoneChan    chan struct{}
	Handler     HandlerFunc
	ConsumerTag string

	ctx    context.Context
	cancel context.CancelFunc
	logger *zap.Logger
}

// StartConsumer starts a goroutine that consumes the tenant's job queue on
// its own channel.
func StartConsumer(conn *amqp.Connection, tenant, consumerTag string, handler HandlerFunc, logger *zap.Logger) (*Consumer, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("tenant %s: failed to open channel: %w", tenant, err)
	}
	if err := ch.Qos(1, 0, false); err != nil {
		ch.Close()
		return nil, fmt.Errorf("tenant %s: failed to set prefetch: %w", tenant, err)
	}

	queueName := messaging.QueueName(tenant)
	msgs, err := ch.Consume(
		queueName,
		consumerTag,
		false, // autoAck: false to handle manually
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		ch.Close()
		return nil, fmt.Errorf("tenant %s: failed to start consuming: %w", tenant, err)
	}

	c := newConsumer(tenant, consumerTag, handler, logger)
	c.QueueName = queueName
	c.Channel = ch

	go c.consumeLoop(msgs)

	c.logger.Info("consumer started", zap.String("tenant", tenant), zap.String("tag", consumerTag))
	return c, nil
}

func newConsumer(tenant, consumerTag string, handler HandlerFunc, logger *zap.Logger) *Consumer {
	if logger == nil {
		logger = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Consumer{
		Tenant:      tenant,
		StopChan:    make(chan struct{}),
		DoneChan:    make(chan struct{}),
		Handler:     handler,
		ConsumerTag: consumerTag,
		ctx:         ctx,
		cancel:      cancel,
		logger:      logger,
	}
}

// consumeLoop processes messages until StopChan is closed
func (c *Consumer) consumeLoop(msgs <-chan amqp.Delivery) {
	defer close(c.DoneChan)

	for {
		select {
		case msg, ok := <-msgs:
			if !ok {
				c.logger.Warn("delivery channel closed", zap.String("tenant", c.Tenant))
				return
			}
			c.handle(msg)

		case <-c.StopChan:
			if c.Channel != nil {
				_ = c.Channel.Cancel(c.ConsumerTag, false)
			}
			return
		}
	}
}

func (c *Consumer) handle(msg amqp.Delivery) {
	if err := c.Handler(c.ctx, msg); err != nil {
		c.logger.Error("job failed, sending to DLQ",
			zap.String("tenant", c.Tenant),
			zap.String("type", msg.Type),
			zap.Error(err),
		)
		if nackErr := msg.Nack(false, false); nackErr != nil {
			c.logger.Error("nack failed", zap.Error(nackErr))
		}
		return
	}
	if err := msg.Ack(false); err != nil {
		c.logger.Error("ack failed", zap.Error(err))
	}
}

// Stop signals the consumer to stop and waits for cleanup
func (c *Consumer) Stop() {
	close(c.StopChan)
	c.cancel()
	<-c.DoneChan
	if c.Channel != nil {
		_ = c.Channel.Close()
	}
	c.logger.Info("consumer stopped", zap.String("tenant", c.Tenant), zap.String("tag", c.ConsumerTag))
}
