package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"saas-tenancy/internal/audit"
	"saas-tenancy/internal/metrics"
	"saas-tenancy/internal/tenancy"
)

// Store scopes every read and write on tenant-owned collections to the
// tenant bound to the calling operation.
type Store struct {
	router   EngineRouter
	registry *Registry
	now      func() time.Time
	logger   *zap.Logger
}

type Option func(*Store)

func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func New(router EngineRouter, registry *Registry, opts ...Option) *Store {
	s := &Store{
		router:   router,
		registry: registry,
		now:      time.Now,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) Registry() *Registry { return s.registry }

// Session opens a unit of work. A session belongs to one operation and is
// not safe for concurrent use.
func (s *Store) Session() *Session {
	return &Session{store: s, tracked: make(map[any]*pending)}
}

// writeScope is what the commit path knows about the operation.
type writeScope struct {
	key   string // "" when no tenant is bound
	actor string
	now   time.Time
}

type pending struct {
	op         Op
	collection string
	entity     any
	dropped    bool
	prepare    func(writeScope) (Change, func(), error)
}

type Session struct {
	store   *Store
	pending []*pending
	tracked map[any]*pending
}

func (s *Session) check(r *Registry) error {
	if r != s.store.registry {
		return ErrForeignCollection
	}
	return nil
}

func (s *Session) track(p *pending) {
	s.pending = append(s.pending, p)
	s.tracked[p.entity] = p
}

func (s *Session) untrack(p *pending) {
	p.dropped = true
	delete(s.tracked, p.entity)
}

// Pending returns the number of changes waiting for SaveChanges.
func (s *Session) Pending() int { return len(s.tracked) }

// Discard forgets every pending change.
func (s *Session) Discard() {
	s.pending = nil
	s.tracked = make(map[any]*pending)
}

// Find returns the entities of c matching filter. For tenant-owned
// collections the filter is narrowed to the bound tenant, and with no tenant
// bound the result is empty without touching the engine.
func Find[T any](ctx context.Context, s *Session, c *Collection[T], filter Filter) ([]*T, error) {
	if err := s.check(c.registry); err != nil {
		return nil, err
	}

	tenant, bound := tenancy.Current(ctx)
	scope := "global"
	if c.TenantOwned() {
		if !bound {
			metrics.ScopedReads.WithLabelValues(c.Name(), "unbound").Inc()
			return []*T{}, nil
		}
		filter = filter.And(c.tenantColumn, tenant.Identifier)
		scope = "tenant"
	}
	metrics.ScopedReads.WithLabelValues(c.Name(), scope).Inc()

	engine, err := s.store.router.Engine(ctx, tenant)
	if err != nil {
		return nil, err
	}
	rows, err := engine.Select(ctx, c.Name(), c.schema.Columns, filter)
	if err != nil {
		return nil, fmt.Errorf("select %s: %w", c.Name(), err)
	}

	out := make([]*T, 0, len(rows))
	for _, row := range rows {
		e, err := c.schema.Decode(row)
		if err != nil {
			return nil, fmt.Errorf("decode %s: %w", c.Name(), err)
		}
		if c.TenantOwned() && *c.tenantKey(e) != tenant.Identifier {
			return nil, fmt.Errorf("select %s: engine returned a row outside tenant scope", c.Name())
		}
		out = append(out, e)
	}
	return out, nil
}

// Get returns the entity with the given id, or ErrNotFound if it does not
// exist within the caller's scope.
func Get[T any](ctx context.Context, s *Session, c *Collection[T], id uuid.UUID) (*T, error) {
	found, err := Find(ctx, s, c, Where(IDColumn, id))
	if err != nil {
		return nil, err
	}
	if len(found) == 0 {
		return nil, fmt.Errorf("%s %s: %w", c.Name(), id, ErrNotFound)
	}
	return found[0], nil
}

// Count returns the number of entities of c matching filter, scoped the
// same way as Find.
func Count[T any](ctx context.Context, s *Session, c *Collection[T], filter Filter) (int, error) {
	if err := s.check(c.registry); err != nil {
		return 0, err
	}

	tenant, bound := tenancy.Current(ctx)
	if c.TenantOwned() {
		if !bound {
			metrics.ScopedReads.WithLabelValues(c.Name(), "unbound").Inc()
			return 0, nil
		}
		filter = filter.And(c.tenantColumn, tenant.Identifier)
	}

	engine, err := s.store.router.Engine(ctx, tenant)
	if err != nil {
		return 0, err
	}
	rows, err := engine.Select(ctx, c.Name(), []string{IDColumn}, filter)
	if err != nil {
		return 0, fmt.Errorf("count %s: %w", c.Name(), err)
	}
	return len(rows), nil
}

// Add schedules e for creation. A zero id is replaced at commit.
func Add[T any](s *Session, c *Collection[T], e *T) error {
	if err := s.check(c.registry); err != nil {
		return err
	}
	if e == nil {
		return ErrNilEntity
	}
	if p, ok := s.tracked[e]; ok {
		return fmt.Errorf("%w: %s already scheduled for %s", ErrAlreadyTracked, c.Name(), p.op)
	}

	s.track(&pending{
		op:         OpInsert,
		collection: c.Name(),
		entity:     e,
		prepare:    func(ws writeScope) (Change, func(), error) { return c.prepareInsert(e, ws) },
	})
	return nil
}

// Update schedules e for modification. The entity state at SaveChanges time
// is what gets written.
func Update[T any](s *Session, c *Collection[T], e *T) error {
	if err := s.check(c.registry); err != nil {
		return err
	}
	if e == nil {
		return ErrNilEntity
	}
	if p, ok := s.tracked[e]; ok {
		if p.op == OpDelete {
			return fmt.Errorf("%w: %s scheduled for removal", ErrAlreadyTracked, c.Name())
		}
		return nil
	}

	s.track(&pending{
		op:         OpUpdate,
		collection: c.Name(),
		entity:     e,
		prepare:    func(ws writeScope) (Change, func(), error) { return c.prepareUpdate(e, ws) },
	})
	return nil
}

// Remove schedules e for deletion. Removing an entity added in the same
// session simply cancels the addition.
func Remove[T any](s *Session, c *Collection[T], e *T) error {
	if err := s.check(c.registry); err != nil {
		return err
	}
	if e == nil {
		return ErrNilEntity
	}
	if p, ok := s.tracked[e]; ok {
		switch p.op {
		case OpInsert:
			s.untrack(p)
			return nil
		case OpDelete:
			return nil
		}
		s.untrack(p)
	}

	s.track(&pending{
		op:         OpDelete,
		collection: c.Name(),
		entity:     e,
		prepare:    func(ws writeScope) (Change, func(), error) { return c.prepareDelete(e, ws) },
	})
	return nil
}

// SaveChanges stamps tenant keys and audit metadata on the pending changes
// and commits them in one transaction.
//
// Stamping is done on copies; the caller's entities are only updated after
// the engine commit succeeds. On error nothing is written, caller entities
// are untouched and the pending changes stay in the session.
func (s *Session) SaveChanges(ctx context.Context) (int, error) {
	if len(s.tracked) == 0 {
		s.pending = nil
		return 0, nil
	}

	tenant, _ := tenancy.Current(ctx)
	ws := writeScope{
		actor: audit.ActorFromContext(ctx),
		now:   s.store.now().UTC(),
	}
	if tenant != nil {
		ws.key = tenant.Identifier
	}

	changes := make([]Change, 0, len(s.tracked))
	applies := make([]func(), 0, len(s.tracked))
	for _, p := range s.pending {
		if p.dropped {
			continue
		}
		change, apply, err := p.prepare(ws)
		if err != nil {
			var cross *CrossTenantWriteError
			if errors.As(err, &cross) {
				metrics.CrossTenantRejections.WithLabelValues(p.collection).Inc()
				s.store.logger.Warn("cross-tenant write rejected",
					zap.String("collection", cross.Collection),
					zap.String("bound", cross.Bound),
					zap.String("entity_tenant", cross.Entity),
					zap.String("actor", ws.actor),
				)
			}
			metrics.StoreCommits.WithLabelValues("rejected").Inc()
			return 0, err
		}
		changes = append(changes, change)
		if apply != nil {
			applies = append(applies, apply)
		}
	}

	engine, err := s.store.router.Engine(ctx, tenant)
	if err != nil {
		metrics.StoreCommits.WithLabelValues("error").Inc()
		return 0, err
	}

	n, err := engine.Commit(ctx, changes)
	if err != nil {
		metrics.StoreCommits.WithLabelValues("error").Inc()
		return 0, fmt.Errorf("save changes: %w", err)
	}

	for _, apply := range applies {
		apply()
	}
	s.Discard()

	metrics.StoreCommits.WithLabelValues("ok").Inc()
	s.store.logger.Debug("changes saved",
		zap.String("tenant", ws.key),
		zap.Int("changes", len(changes)),
		zap.Int("affected", n),
	)
	return n, nil
}

func (c *Collection[T]) prepareInsert(e *T, ws writeScope) (Change, func(), error) {
	cp := *e
	if id := c.schema.ID(&cp); *id == uuid.Nil {
		*id = uuid.New()
	}
	if err := c.claim(&cp, ws); err != nil {
		return Change{}, nil, err
	}
	if a, ok := any(&cp).(audit.Auditable); ok {
		audit.Stamp(a, audit.Created, ws.actor, ws.now)
	}

	change := Change{Op: OpInsert, Collection: c.Name(), Row: c.schema.Encode(&cp)}
	return change, func() { *e = cp }, nil
}

func (c *Collection[T]) prepareUpdate(e *T, ws writeScope) (Change, func(), error) {
	cp := *e
	guard, err := c.guard(&cp, ws)
	if err != nil {
		return Change{}, nil, err
	}
	if a, ok := any(&cp).(audit.Auditable); ok {
		audit.Stamp(a, audit.Modified, ws.actor, ws.now)
	}

	// Identity, tenant key and creation metadata are immutable once persisted.
	row := c.schema.Encode(&cp)
	delete(row, IDColumn)
	for _, col := range creationColumns {
		delete(row, col)
	}
	if c.TenantOwned() {
		delete(row, c.tenantColumn)
	}

	change := Change{Op: OpUpdate, Collection: c.Name(), Row: row, Guard: guard}
	return change, func() { *e = cp }, nil
}

func (c *Collection[T]) prepareDelete(e *T, ws writeScope) (Change, func(), error) {
	cp := *e
	guard, err := c.guard(&cp, ws)
	if err != nil {
		return Change{}, nil, err
	}
	return Change{Op: OpDelete, Collection: c.Name(), Guard: guard}, nil, nil
}

func (c *Collection[T]) guard(e *T, ws writeScope) (Filter, error) {
	id := *c.schema.ID(e)
	if id == uuid.Nil {
		return Filter{}, fmt.Errorf("%s: %w", c.Name(), ErrMissingID)
	}
	if err := c.claim(e, ws); err != nil {
		return Filter{}, err
	}

	guard := Where(IDColumn, id)
	if c.TenantOwned() {
		guard = guard.And(c.tenantColumn, ws.key)
	}
	return guard, nil
}

// claim stamps the bound tenant key on e, or rejects e if it already
// carries another tenant's key. With no tenant bound the key stays empty.
func (c *Collection[T]) claim(e *T, ws writeScope) error {
	if !c.TenantOwned() {
		return nil
	}
	key := c.tenantKey(e)
	if *key != "" && *key != ws.key {
		return &CrossTenantWriteError{Collection: c.Name(), Bound: ws.key, Entity: *key}
	}
	*key = ws.key
	return nil
}
