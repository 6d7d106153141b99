package tenancy

import (
	"context"
	"fmt"
	"sync"

	"saas-tenancy/internal/model"
)

// binding holds at most one tenant for the lifetime of one inbound operation.
// It is reachable only through the context of that operation.
type binding struct {
	mu     sync.RWMutex
	tenant *model.Tenant
}

type bindingKey struct{}

// NewContext returns a child context carrying a fresh, empty binding.
// Every inbound operation (HTTP request, job delivery) starts with one.
// A binding already present on ctx is shadowed, never shared.
func NewContext(ctx context.Context) context.Context {
	return context.WithValue(ctx, bindingKey{}, &binding{})
}

func bindingFrom(ctx context.Context) (*binding, bool) {
	b, ok := ctx.Value(bindingKey{}).(*binding)
	return b, ok && b != nil
}

// Bind attaches tenant to the operation carried by ctx.
//
// Binding the same identifier again is a no-op. Binding a different tenant
// returns ErrAlreadyBound: switching tenants mid-operation is a logic error.
func Bind(ctx context.Context, tenant *model.Tenant) error {
	if tenant == nil || tenant.Identifier == "" {
		return fmt.Errorf("bind: empty tenant")
	}

	b, ok := bindingFrom(ctx)
	if !ok {
		return ErrNoBinding
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.tenant != nil {
		if b.tenant.Identifier == tenant.Identifier {
			return nil
		}
		return fmt.Errorf("%w: bound %q, got %q", ErrAlreadyBound, b.tenant.Identifier, tenant.Identifier)
	}

	t := *tenant
	b.tenant = &t
	return nil
}

// Current returns a copy of the tenant bound to the operation, if any.
func Current(ctx context.Context) (*model.Tenant, bool) {
	b, ok := bindingFrom(ctx)
	if !ok {
		return nil, false
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.tenant == nil {
		return nil, false
	}
	t := *b.tenant
	return &t, true
}

// Key returns the tenant key of the bound tenant.
func Key(ctx context.Context) (string, bool) {
	t, ok := Current(ctx)
	if !ok {
		return "", false
	}
	return t.Identifier, true
}
