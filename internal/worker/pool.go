package worker

import (
	"fmt"
	"sync"

	"github.com/streadway/amqp"
	"go.uber.org/zap"

	"saas-tenancy/internal/consumer"
	"saas-tenancy/internal/metrics"
)

// WorkerPool runs a tenant's job consumers, one per worker.
type WorkerPool struct {
	tenant  string
	conn    *amqp.Connection
	handler consumer.HandlerFunc
	logger  *zap.Logger

	mu        sync.Mutex
	workers   int
	consumers []*consumer.Consumer
}

func NewWorkerPool(tenant string, conn *amqp.Connection, handler consumer.HandlerFunc, workerCount int, logger *zap.Logger) *WorkerPool {
	if workerCount <= 0 {
		workerCount = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WorkerPool{
		tenant:  tenant,
		conn:    conn,
		handler: handler,
		logger:  logger,
		workers: workerCount,
	}
}

func (wp *WorkerPool) Start() error {
	wp.mu.Lock()
	defer wp.mu.Unlock()
	return wp.start()
}

func (wp *WorkerPool) start() error {
	wp.logger.Info("starting worker pool", zap.String("tenant", wp.tenant), zap.Int("workers", wp.workers))

	for i := 0; i < wp.workers; i++ {
		tag := fmt.Sprintf("worker-%s-%d", wp.tenant, i)
		c, err := consumer.StartConsumer(wp.conn, wp.tenant, tag, wp.handler, wp.logger)
		if err != nil {
			wp.stop()
			return err
		}
		wp.consumers = append(wp.consumers, c)
		metrics.WorkerActive.WithLabelValues(wp.tenant).Inc()
	}
	return nil
}

func (wp *WorkerPool) Stop() {
	wp.mu.Lock()
	defer wp.mu.Unlock()
	wp.stop()
}

func (wp *WorkerPool) stop() {
	for _, c := range wp.consumers {
		c.Stop()
		metrics.WorkerActive.WithLabelValues(wp.tenant).Dec()
	}
	wp.consumers = nil
}

// Workers returns the configured concurrency.
func (wp *WorkerPool) Workers() int {
	wp.mu.Lock()
	defer wp.mu.Unlock()
	return wp.workers
}

// SetWorkerCount updates the worker pool to use a new concurrency level
func (wp *WorkerPool) SetWorkerCount(n int) error {
	wp.mu.Lock()
	defer wp.mu.Unlock()

	if n <= 0 || n == wp.workers {
		return nil
	}

	wp.logger.Info("rescaling worker pool",
		zap.String("tenant", wp.tenant),
		zap.Int("from", wp.workers),
		zap.Int("to", n),
	)

	// Stop existing workers, update count and restart
	wp.stop()
	wp.workers = n
	return wp.start()
}
