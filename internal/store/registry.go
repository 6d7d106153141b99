package store

import (
	"fmt"
	"slices"
	"sync"

	"github.com/google/uuid"
)

// TenantsCollection is reserved for Directory and cannot be registered.
const TenantsCollection = "tenants"

// Schema describes how a Go type maps onto a collection.
type Schema[T any] struct {
	// Collection is the table or collection name.
	Collection string
	// Columns lists every column, IDColumn included.
	Columns []string
	// ID returns the primary key field.
	ID func(*T) *uuid.UUID
	// Encode returns the full row for the entity.
	Encode func(*T) Row
	// Decode builds an entity from a row holding Columns.
	Decode func(Row) (*T, error)
}

func (s Schema[T]) validate() error {
	switch {
	case s.Collection == "":
		return fmt.Errorf("schema: empty collection name")
	case s.ID == nil || s.Encode == nil || s.Decode == nil:
		return fmt.Errorf("schema %s: ID, Encode and Decode are required", s.Collection)
	case !slices.Contains(s.Columns, IDColumn):
		return fmt.Errorf("schema %s: columns must include %q", s.Collection, IDColumn)
	}
	return nil
}

// Collection is the typed handle returned by registration. Every session
// operation takes one, so only registered collections are reachable.
type Collection[T any] struct {
	registry     *Registry
	schema       Schema[T]
	tenantColumn string
	tenantKey    func(*T) *string
}

func (c *Collection[T]) Name() string { return c.schema.Collection }

// TenantOwned reports whether reads and writes are scoped to the bound tenant.
func (c *Collection[T]) TenantOwned() bool { return c.tenantKey != nil }

// TenantColumn is the tenant key column, empty for global collections.
func (c *Collection[T]) TenantColumn() string { return c.tenantColumn }

// Registry records which collections exist and which are tenant-owned.
// Registration happens once at startup.
type Registry struct {
	mu          sync.RWMutex
	collections map[string]bool // name -> tenant-owned
}

func NewRegistry() *Registry {
	return &Registry{collections: make(map[string]bool)}
}

// Register adds a collection that is shared by all tenants.
// It panics on invalid schemas or duplicate names.
func Register[T any](r *Registry, schema Schema[T]) *Collection[T] {
	c := &Collection[T]{registry: r, schema: schema}
	r.add(c.Name(), false, schema.validate())
	return c
}

// RegisterTenantOwned adds a collection whose rows belong to one tenant.
// key points at the tenant key field and column names where it is stored.
// It panics on invalid schemas or duplicate names.
func RegisterTenantOwned[T any](r *Registry, schema Schema[T], column string, key func(*T) *string) *Collection[T] {
	err := schema.validate()
	if err == nil && (column == "" || key == nil) {
		err = fmt.Errorf("schema %s: tenant column and key accessor are required", schema.Collection)
	}
	if err == nil && !slices.Contains(schema.Columns, column) {
		err = fmt.Errorf("schema %s: columns must include tenant column %q", schema.Collection, column)
	}

	c := &Collection[T]{registry: r, schema: schema, tenantColumn: column, tenantKey: key}
	r.add(c.Name(), true, err)
	return c
}

func (r *Registry) add(name string, tenantOwned bool, err error) {
	if err != nil {
		panic(err)
	}
	if name == TenantsCollection {
		panic(fmt.Sprintf("store: collection %q is reserved", name))
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.collections[name]; exists {
		panic(fmt.Sprintf("store: collection %q registered twice", name))
	}
	r.collections[name] = tenantOwned
}

// TenantOwned reports whether name was registered as tenant-owned.
func (r *Registry) TenantOwned(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.collections[name]
}

// Collections returns the registered collection names, sorted.
func (r *Registry) Collections() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.collections))
	for name := range r.collections {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
