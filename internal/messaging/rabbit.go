// internal/messaging/rabbit.go
package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/streadway/amqp"
	"go.uber.org/zap"

	"saas-tenancy/internal/metrics"
)

const (
	// EventsExchange receives tenant lifecycle events, routed as tenant.<type>.
	EventsExchange = "tenant.events"

	HeaderTenant = "X-Tenant-ID"
	HeaderActor  = "X-Actor"
)

// QueueName is the job queue of a tenant.
func QueueName(tenant string) string { return fmt.Sprintf("tenant_%s_jobs", tenant) }

// DLQName is where rejected jobs of a tenant end up.
func DLQName(tenant string) string { return fmt.Sprintf("tenant_%s_dlq", tenant) }

// Job is a unit of background work for one tenant.
type Job struct {
	Tenant string
	Actor  string
	Type   string
	Body   []byte
}

func (j Job) publishing() amqp.Publishing {
	headers := amqp.Table{HeaderTenant: j.Tenant}
	if j.Actor != "" {
		headers[HeaderActor] = j.Actor
	}
	return amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Type:         j.Type,
		Headers:      headers,
		Body:         j.Body,
	}
}

type RabbitClient struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	URL     string
	logger  *zap.Logger

	// amqp channels must not be used for publishing concurrently.
	mu sync.Mutex
}

func NewRabbitClient(url string, logger *zap.Logger) (*RabbitClient, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create channel: %w", err)
	}

	if err := ch.ExchangeDeclare(EventsExchange, amqp.ExchangeTopic, true, false, false, false, nil); err != nil {
		conn.Close()
		return nil, fmt.Errorf("declare events exchange: %w", err)
	}

	return &RabbitClient{
		conn:    conn,
		channel: ch,
		URL:     url,
		logger:  logger,
	}, nil
}

func (r *RabbitClient) GetChannel() *amqp.Channel {
	return r.channel
}

func (r *RabbitClient) GetConnection() *amqp.Connection {
	return r.conn
}

// DeclareQueue creates a tenant-specific durable job queue and its DLQ
func (r *RabbitClient) DeclareQueue(tenant string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	dlqName := DLQName(tenant)

	// 1. DLQ
	_, err := r.channel.QueueDeclare(
		dlqName,
		true, false, false, false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("declare DLQ: %w", err)
	}

	// 2. Main Queue with DLQ binding
	args := amqp.Table{
		"x-dead-letter-exchange":    "",
		"x-dead-letter-routing-key": dlqName,
	}
	_, err = r.channel.QueueDeclare(
		QueueName(tenant),
		true, false, false, false,
		args,
	)
	if err != nil {
		return fmt.Errorf("declare main queue: %w", err)
	}

	r.logger.Info("queues declared", zap.String("tenant", tenant))
	return nil
}

// PublishJob sends a job to its tenant's queue
func (r *RabbitClient) PublishJob(_ context.Context, job Job) error {
	if job.Tenant == "" {
		return fmt.Errorf("publish job %q: tenant required", job.Type)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	queueName := QueueName(job.Tenant)
	err := r.channel.Publish(
		"",        // default exchange
		queueName, // routing key (queue name)
		false,
		false,
		job.publishing(),
	)
	if err != nil {
		return fmt.Errorf("failed to publish to queue %s: %w", queueName, err)
	}
	return nil
}

// PublishEvent sends a tenant lifecycle event to EventsExchange.
func (r *RabbitClient) PublishEvent(_ context.Context, event Event) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	err = r.channel.Publish(EventsExchange, event.RoutingKey(), false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    event.OccurredAt,
		Type:         event.Type,
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("failed to publish event %s: %w", event.Type, err)
	}
	return nil
}

// Close cleans up connection and channel
func (r *RabbitClient) Close() error {
	if err := r.channel.Close(); err != nil {
		return err
	}
	if err := r.conn.Close(); err != nil {
		return err
	}
	return nil
}

func (r *RabbitClient) UpdateQueueDepth(tenant string) {
	r.mu.Lock()
	q, err := r.channel.QueueInspect(QueueName(tenant))
	r.mu.Unlock()
	if err != nil {
		r.logger.Warn("failed to inspect queue", zap.String("tenant", tenant), zap.Error(err))
		return
	}

	metrics.QueueDepth.WithLabelValues(tenant).Set(float64(q.Messages))
}
