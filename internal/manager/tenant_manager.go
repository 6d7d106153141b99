// internal/manager/tenant_manager.go
package manager

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"go.uber.org/zap"

	"saas-tenancy/internal/model"
	"saas-tenancy/internal/store"
)

// Queues is the broker side of tenant lifecycle.
type Queues interface {
	DeclareQueue(tenant string) error
	UpdateQueueDepth(tenant string)
}

// Pool is a running set of workers for one tenant.
type Pool interface {
	Start() error
	Stop()
	SetWorkerCount(n int) error
}

// PoolFactory builds the (not yet started) pool for a tenant.
type PoolFactory func(tenant string) Pool

// TenantLister lists tenant records.
type TenantLister interface {
	List(ctx context.Context, activeOnly bool) ([]*model.Tenant, error)
}

// TenantManager keeps one worker pool running per active tenant.
type TenantManager struct {
	queues  Queues
	newPool PoolFactory
	logger  *zap.Logger

	mu    sync.RWMutex
	pools map[string]Pool
}

func NewTenantManager(queues Queues, newPool PoolFactory, logger *zap.Logger) *TenantManager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TenantManager{
		queues:  queues,
		newPool: newPool,
		logger:  logger,
		pools:   make(map[string]Pool),
	}
}

// Sync starts pools for every active tenant.
func (tm *TenantManager) Sync(ctx context.Context, tenants TenantLister) error {
	active, err := tenants.List(ctx, true)
	if err != nil {
		return fmt.Errorf("list active tenants: %w", err)
	}
	for _, t := range active {
		if err := tm.AddTenant(t.Identifier); err != nil {
			return err
		}
	}
	return nil
}

// AddTenant declares the tenant's queues and starts its worker pool
func (tm *TenantManager) AddTenant(tenant string) error {
	tm.mu.Lock()
	defer tm.mu.Unlock()

	if _, exists := tm.pools[tenant]; exists {
		return nil // already exists
	}

	if err := tm.queues.DeclareQueue(tenant); err != nil {
		return fmt.Errorf("tenant %s: %w", tenant, err)
	}

	pool := tm.newPool(tenant)
	if err := pool.Start(); err != nil {
		return fmt.Errorf("tenant %s: start workers: %w", tenant, err)
	}
	tm.pools[tenant] = pool

	tm.logger.Info("tenant workers started", zap.String("tenant", tenant))
	return nil
}

// RemoveTenant stops the tenant's workers. Its queue is kept so pending
// jobs survive a reactivation.
func (tm *TenantManager) RemoveTenant(tenant string) {
	tm.mu.Lock()
	defer tm.mu.Unlock()

	pool, exists := tm.pools[tenant]
	if !exists {
		return // nothing to remove
	}

	pool.Stop()
	delete(tm.pools, tenant)
	tm.logger.Info("tenant workers stopped", zap.String("tenant", tenant))
}

// HandleTenantChange follows directory changes: active tenants get
// workers, deactivated or expired ones lose them.
func (tm *TenantManager) HandleTenantChange(_ context.Context, change store.TenantChange) {
	t := change.Tenant
	if change.Kind == store.TenantDeactivated || !t.Active || t.Expired(time.Now()) {
		tm.RemoveTenant(t.Identifier)
		return
	}
	if err := tm.AddTenant(t.Identifier); err != nil {
		tm.logger.Error("failed to start tenant workers", zap.String("tenant", t.Identifier), zap.Error(err))
	}
}

// ShutdownAll stops every pool.
func (tm *TenantManager) ShutdownAll() {
	tm.mu.Lock()
	defer tm.mu.Unlock()

	for tenant, pool := range tm.pools {
		pool.Stop()
		tm.logger.Info("stopped tenant workers", zap.String("tenant", tenant))
	}
	tm.pools = make(map[string]Pool)
}

// ListTenants returns the tenants with running workers, sorted.
func (tm *TenantManager) ListTenants() []string {
	tm.mu.RLock()
	defer tm.mu.RUnlock()

	ids := make([]string, 0, len(tm.pools))
	for id := range tm.pools {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

func (tm *TenantManager) SetWorkerCount(tenant string, n int) error {
	tm.mu.Lock()
	defer tm.mu.Unlock()

	pool, ok := tm.pools[tenant]
	if !ok {
		return fmt.Errorf("tenant not found: %s", tenant)
	}
	return pool.SetWorkerCount(n)
}

// RefreshQueueDepths publishes queue depth gauges every interval until ctx
// is done.
func (tm *TenantManager) RefreshQueueDepths(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for _, tenant := range tm.ListTenants() {
				tm.queues.UpdateQueueDepth(tenant)
			}
		}
	}
}
