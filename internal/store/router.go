package store

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"go.uber.org/zap"

	"saas-tenancy/internal/model"
)

// EngineRouter picks the engine serving a tenant. tenant is nil when no
// tenant is bound.
type EngineRouter interface {
	Engine(ctx context.Context, tenant *model.Tenant) (Engine, error)
}

type sharedRouter struct {
	engine Engine
}

// Shared routes every tenant to the same engine.
func Shared(engine Engine) EngineRouter {
	return sharedRouter{engine: engine}
}

func (r sharedRouter) Engine(context.Context, *model.Tenant) (Engine, error) {
	return r.engine, nil
}

// OpenFunc opens an engine for an isolation target such as a DSN.
type OpenFunc func(target string) (Engine, error)

// IsolatingRouter sends tenants with an IsolationTarget to their own engine
// and everyone else to the shared one. Opened engines are reused.
type IsolatingRouter struct {
	shared Engine
	open   OpenFunc
	logger *zap.Logger

	mu      sync.Mutex
	engines map[string]Engine
}

func NewIsolatingRouter(shared Engine, open OpenFunc, logger *zap.Logger) *IsolatingRouter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &IsolatingRouter{
		shared:  shared,
		open:    open,
		logger:  logger,
		engines: make(map[string]Engine),
	}
}

func (r *IsolatingRouter) Engine(_ context.Context, tenant *model.Tenant) (Engine, error) {
	if tenant == nil || tenant.IsolationTarget == "" {
		return r.shared, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if e, ok := r.engines[tenant.IsolationTarget]; ok {
		return e, nil
	}

	e, err := r.open(tenant.IsolationTarget)
	if err != nil {
		return nil, fmt.Errorf("open isolated engine for tenant %s: %w", tenant.Identifier, err)
	}
	r.engines[tenant.IsolationTarget] = e
	r.logger.Info("opened isolated engine", zap.String("tenant", tenant.Identifier))
	return e, nil
}

// Close closes every isolated engine. The shared engine is left to its owner.
func (r *IsolatingRouter) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var errs []error
	for target, e := range r.engines {
		if c, ok := e.(io.Closer); ok {
			if err := c.Close(); err != nil {
				errs = append(errs, err)
			}
		}
		delete(r.engines, target)
	}
	return errors.Join(errs...)
}
