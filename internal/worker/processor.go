package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/streadway/amqp"
	"go.uber.org/zap"

	"saas-tenancy/internal/audit"
	"saas-tenancy/internal/messaging"
	"saas-tenancy/internal/metrics"
	"saas-tenancy/internal/tenancy"
)

var ErrUnknownJob = errors.New("unknown job type")

// JobHandler runs one job. ctx carries the tenant binding and actor of the
// delivery.
type JobHandler func(ctx context.Context, body []byte) error

// Processor turns deliveries into tenant-bound job executions.
type Processor struct {
	resolver *tenancy.Resolver
	logger   *zap.Logger

	mu       sync.RWMutex
	handlers map[string]JobHandler
}

func NewProcessor(resolver *tenancy.Resolver, logger *zap.Logger) *Processor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Processor{
		resolver: resolver,
		logger:   logger,
		handlers: make(map[string]JobHandler),
	}
}

// Handle registers the handler for a job type.
func (p *Processor) Handle(jobType string, h JobHandler) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.handlers[jobType] = h
}

// Process runs one delivery. Every delivery gets a fresh binding, resolved
// from its tenant header; deliveries that do not resolve to an active
// tenant are refused.
func (p *Processor) Process(ctx context.Context, d amqp.Delivery) error {
	ctx = tenancy.NewContext(ctx)

	hint := header(d.Headers, messaging.HeaderTenant)
	if err := p.resolver.Resolve(ctx, hint); err != nil {
		metrics.WorkerProcessed.WithLabelValues("unknown", "error").Inc()
		return err
	}

	tenant, ok := tenancy.Key(ctx)
	if !ok {
		metrics.WorkerProcessed.WithLabelValues("unknown", "rejected").Inc()
		return fmt.Errorf("job %q for %q: %w", d.Type, hint, tenancy.ErrTenantRequired)
	}
	if actor := header(d.Headers, messaging.HeaderActor); actor != "" {
		ctx = audit.WithActor(ctx, actor)
	}

	p.mu.RLock()
	h, ok := p.handlers[d.Type]
	p.mu.RUnlock()
	if !ok {
		metrics.WorkerProcessed.WithLabelValues(tenant, "rejected").Inc()
		return fmt.Errorf("%w: %q", ErrUnknownJob, d.Type)
	}

	if err := h(ctx, d.Body); err != nil {
		metrics.WorkerProcessed.WithLabelValues(tenant, "error").Inc()
		return fmt.Errorf("job %q: %w", d.Type, err)
	}

	metrics.WorkerProcessed.WithLabelValues(tenant, "ok").Inc()
	p.logger.Debug("job processed", zap.String("tenant", tenant), zap.String("type", d.Type))
	return nil
}

func header(h amqp.Table, key string) string {
	switch v := h[key].(type) {
	case string:
		return v
	case []byte:
		return string(v)
	default:
		return ""
	}
}
