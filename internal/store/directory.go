package store

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"saas-tenancy/internal/audit"
	"saas-tenancy/internal/model"
	"saas-tenancy/internal/tenancy"
)

// DefaultTrialPeriod is the validity window given to new tenants.
const DefaultTrialPeriod = 30 * 24 * time.Hour

var (
	ErrInvalidTenant       = errors.New("invalid tenant")
	ErrDuplicateIdentifier = errors.New("tenant identifier already in use")

	// ErrTenantConflict is returned when the tenant changed between the read
	// and the write of an Update.
	ErrTenantConflict = errors.New("tenant was modified concurrently")
)

var identifierPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9-]{0,49}$`)

var tenantColumns = append([]string{
	IDColumn, "identifier", "name", "admin_email", "active", "plan", "valid_until", "isolation_target",
}, AuditColumns...)

// ChangeKind classifies tenant record changes.
type ChangeKind int

const (
	TenantCreated ChangeKind = iota + 1
	TenantUpdated
	TenantDeactivated
)

func (k ChangeKind) String() string {
	switch k {
	case TenantCreated:
		return "created"
	case TenantUpdated:
		return "updated"
	case TenantDeactivated:
		return "deactivated"
	default:
		return "unknown"
	}
}

type TenantChange struct {
	Kind   ChangeKind
	Tenant model.Tenant
}

// TenantHook observes committed tenant changes.
type TenantHook func(ctx context.Context, change TenantChange)

// NewTenant is the input to Directory.Create.
type NewTenant struct {
	Identifier      string
	Name            string
	AdminEmail      string
	Plan            model.Plan
	IsolationTarget string
}

// TenantUpdate lists the mutable tenant attributes; nil fields are left alone.
// The isolation target is fixed at creation: rows already written live in the
// database it names.
type TenantUpdate struct {
	Name       *string
	AdminEmail *string
	Plan       *model.Plan
	Active     *bool
	ValidUntil *time.Time
}

// Directory is the unfiltered access path to tenant records. Tenants are not
// tenant-owned, so nothing here goes through Session scoping; conversely the
// tenants collection cannot be registered with a Registry.
//
// Tenants are never hard-deleted.
type Directory struct {
	engine Engine
	now    func() time.Time
	logger *zap.Logger

	mu    sync.RWMutex
	hooks []TenantHook
}

func NewDirectory(engine Engine, logger *zap.Logger) *Directory {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Directory{engine: engine, now: time.Now, logger: logger}
}

// OnChange registers a hook run after every committed tenant change.
func (d *Directory) OnChange(hook TenantHook) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.hooks = append(d.hooks, hook)
}

// FindByIdentifier implements tenancy.Lookup.
func (d *Directory) FindByIdentifier(ctx context.Context, identifier string) (*model.Tenant, error) {
	return d.findOne(ctx, Where("identifier", identifier))
}

func (d *Directory) FindByID(ctx context.Context, id uuid.UUID) (*model.Tenant, error) {
	return d.findOne(ctx, Where(IDColumn, id))
}

func (d *Directory) findOne(ctx context.Context, f Filter) (*model.Tenant, error) {
	found, err := d.find(ctx, f)
	if err != nil {
		return nil, err
	}
	if len(found) == 0 {
		return nil, tenancy.ErrTenantNotFound
	}
	return found[0], nil
}

// List returns tenants ordered by identifier.
func (d *Directory) List(ctx context.Context, activeOnly bool) ([]*model.Tenant, error) {
	f := Filter{}
	if activeOnly {
		f = Where("active", true)
	}
	tenants, err := d.find(ctx, f)
	if err != nil {
		return nil, err
	}
	slices.SortFunc(tenants, func(a, b *model.Tenant) int { return strings.Compare(a.Identifier, b.Identifier) })
	return tenants, nil
}

func (d *Directory) find(ctx context.Context, f Filter) ([]*model.Tenant, error) {
	rows, err := d.engine.Select(ctx, TenantsCollection, tenantColumns, f)
	if err != nil {
		return nil, fmt.Errorf("select tenants: %w", err)
	}
	tenants := make([]*model.Tenant, 0, len(rows))
	for _, row := range rows {
		t, err := decodeTenant(row)
		if err != nil {
			return nil, fmt.Errorf("decode tenant: %w", err)
		}
		tenants = append(tenants, t)
	}
	return tenants, nil
}

// Create provisions a tenant: active, on the requested plan (free by default),
// valid for DefaultTrialPeriod.
func (d *Directory) Create(ctx context.Context, in NewTenant) (*model.Tenant, error) {
	in.Identifier = strings.TrimSpace(in.Identifier)
	in.Name = strings.TrimSpace(in.Name)

	if !identifierPattern.MatchString(in.Identifier) {
		return nil, fmt.Errorf("%w: identifier %q must be 1-50 lowercase letters, digits or dashes", ErrInvalidTenant, in.Identifier)
	}
	if in.Name == "" || len(in.Name) > 200 {
		return nil, fmt.Errorf("%w: name must be 1-200 characters", ErrInvalidTenant)
	}
	plan, err := model.ParsePlan(string(in.Plan))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidTenant, err)
	}

	now := d.now().UTC()
	t := &model.Tenant{
		ID:              uuid.New(),
		Identifier:      in.Identifier,
		Name:            in.Name,
		AdminEmail:      in.AdminEmail,
		Active:          true,
		Plan:            plan,
		ValidUntil:      now.Add(DefaultTrialPeriod),
		IsolationTarget: in.IsolationTarget,
	}
	audit.Stamp(t, audit.Created, audit.ActorFromContext(ctx), now)

	_, err = d.engine.Commit(ctx, []Change{{Op: OpInsert, Collection: TenantsCollection, Row: encodeTenant(t)}})
	if errors.Is(err, ErrDuplicateKey) {
		return nil, fmt.Errorf("%w: %s", ErrDuplicateIdentifier, in.Identifier)
	}
	if err != nil {
		return nil, fmt.Errorf("create tenant: %w", err)
	}

	d.logger.Info("tenant created", zap.String("tenant", t.Identifier), zap.String("plan", string(t.Plan)))
	d.notify(ctx, TenantCreated, t)
	return t, nil
}

// Update changes status, plan, validity and contact attributes. The
// identifier cannot be changed. The write is guarded on the modification
// time that was read, so a concurrent Update makes this one fail with
// ErrTenantConflict instead of being overwritten.
func (d *Directory) Update(ctx context.Context, id uuid.UUID, upd TenantUpdate) (*model.Tenant, error) {
	t, err := d.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	wasActive := t.Active
	var readVersion any
	if t.ModifiedAt != nil {
		readVersion = *t.ModifiedAt
	}

	if upd.Name != nil {
		name := strings.TrimSpace(*upd.Name)
		if name == "" || len(name) > 200 {
			return nil, fmt.Errorf("%w: name must be 1-200 characters", ErrInvalidTenant)
		}
		t.Name = name
	}
	if upd.AdminEmail != nil {
		t.AdminEmail = *upd.AdminEmail
	}
	if upd.Plan != nil {
		plan, err := model.ParsePlan(string(*upd.Plan))
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidTenant, err)
		}
		t.Plan = plan
	}
	if upd.Active != nil {
		t.Active = *upd.Active
	}
	if upd.ValidUntil != nil {
		t.ValidUntil = upd.ValidUntil.UTC()
	}

	audit.Stamp(t, audit.Modified, audit.ActorFromContext(ctx), d.now().UTC())

	row := encodeTenant(t)
	delete(row, IDColumn)
	delete(row, "identifier")
	delete(row, "isolation_target")
	for _, col := range creationColumns {
		delete(row, col)
	}

	guard := Where(IDColumn, id).And(ModifiedAtColumn, readVersion)
	change := Change{Op: OpUpdate, Collection: TenantsCollection, Row: row, Guard: guard}
	if _, err := d.engine.Commit(ctx, []Change{change}); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, fmt.Errorf("update tenant %s: %w", t.Identifier, ErrTenantConflict)
		}
		return nil, fmt.Errorf("update tenant %s: %w", t.Identifier, err)
	}

	kind := TenantUpdated
	if wasActive && !t.Active {
		kind = TenantDeactivated
	}
	d.logger.Info("tenant updated", zap.String("tenant", t.Identifier), zap.Stringer("change", kind))
	d.notify(ctx, kind, t)
	return t, nil
}

// Deactivate soft-deletes a tenant. Its data stays attributable.
func (d *Directory) Deactivate(ctx context.Context, id uuid.UUID) (*model.Tenant, error) {
	inactive := false
	return d.Update(ctx, id, TenantUpdate{Active: &inactive})
}

func (d *Directory) notify(ctx context.Context, kind ChangeKind, t *model.Tenant) {
	d.mu.RLock()
	hooks := slices.Clone(d.hooks)
	d.mu.RUnlock()

	for _, hook := range hooks {
		hook(ctx, TenantChange{Kind: kind, Tenant: *t})
	}
}

func encodeTenant(t *model.Tenant) Row {
	row := Row{
		IDColumn:           t.ID,
		"identifier":       t.Identifier,
		"name":             t.Name,
		"admin_email":      t.AdminEmail,
		"active":           t.Active,
		"plan":             string(t.Plan),
		"valid_until":      t.ValidUntil,
		"isolation_target": t.IsolationTarget,
	}
	EncodeAudit(row, &t.Fields)
	return row
}

func decodeTenant(row Row) (*model.Tenant, error) {
	id, err := UUIDValue(row[IDColumn])
	if err != nil {
		return nil, err
	}
	active, err := BoolValue(row["active"])
	if err != nil {
		return nil, err
	}
	validUntil, err := TimeValue(row["valid_until"])
	if err != nil {
		return nil, err
	}

	t := &model.Tenant{
		ID:              id,
		Identifier:      StringValue(row["identifier"]),
		Name:            StringValue(row["name"]),
		AdminEmail:      StringValue(row["admin_email"]),
		Active:          active,
		Plan:            model.Plan(StringValue(row["plan"])),
		ValidUntil:      validUntil,
		IsolationTarget: StringValue(row["isolation_target"]),
	}
	if err := DecodeAudit(row, &t.Fields); err != nil {
		return nil, err
	}
	return t, nil
}
