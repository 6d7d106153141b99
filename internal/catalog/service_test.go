package catalog

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"saas-tenancy/internal/audit"
	"saas-tenancy/internal/model"
	"saas-tenancy/internal/store"
	"saas-tenancy/internal/tenancy"
)

func newService(t *testing.T) *Service {
	t.Helper()
	reg := store.NewRegistry()
	products := RegisterProducts(reg)
	return NewService(store.New(store.Shared(store.NewMemoryEngine()), reg), products, nil)
}

func bound(t *testing.T, identifier string) context.Context {
	t.Helper()
	ctx := tenancy.NewContext(context.Background())
	require.NoError(t, tenancy.Bind(ctx, &model.Tenant{
		Identifier:      identifier,
		Name:            identifier,
		Active:          true,
		IsolationTarget: "postgres://secret@" + identifier,
	}))
	return ctx
}

func TestCreateAndList(t *testing.T) {
	svc := newService(t)
	acme := audit.WithActor(bound(t, "acme"), "alice")

	p, err := svc.Create(acme, ProductInput{Name: "Widget", Price: 9.5})
	require.NoError(t, err)
	assert.Equal(t, "acme", p.TenantID)
	assert.Equal(t, "alice", p.CreatedBy)
	assert.Nil(t, p.ModifiedAt)

	_, err = svc.Create(acme, ProductInput{Name: "Anvil", Price: 100})
	require.NoError(t, err)
	_, err = svc.Create(bound(t, "globex"), ProductInput{Name: "Widget"})
	require.NoError(t, err)

	all, err := svc.List(acme, "")
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "Anvil", all[0].Name)
	assert.Equal(t, "Widget", all[1].Name)

	widgets, err := svc.List(acme, "Widget")
	require.NoError(t, err)
	require.Len(t, widgets, 1)
	assert.Equal(t, p.ID, widgets[0].ID)

	none, err := svc.List(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestCreateValidation(t *testing.T) {
	svc := newService(t)
	ctx := bound(t, "acme")

	_, err := svc.Create(ctx, ProductInput{Name: "   "})
	assert.ErrorIs(t, err, ErrInvalidProduct)
	_, err = svc.Create(ctx, ProductInput{Name: "Widget", Price: -1})
	assert.ErrorIs(t, err, ErrInvalidProduct)
}

func TestCreateForOtherTenantRejected(t *testing.T) {
	svc := newService(t)
	ctx := bound(t, "acme")

	_, err := svc.Create(ctx, ProductInput{Name: "Widget", TenantID: "globex"})
	assert.True(t, store.IsCrossTenantWrite(err))

	all, err := svc.List(bound(t, "globex"), "")
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestUpdateAndDelete(t *testing.T) {
	svc := newService(t)
	acme := bound(t, "acme")

	p, err := svc.Create(acme, ProductInput{Name: "Widget", Price: 1})
	require.NoError(t, err)

	updated, err := svc.Update(audit.WithActor(acme, "bob"), p.ID, ProductInput{Name: "Widget Pro", Price: 2})
	require.NoError(t, err)
	assert.Equal(t, "Widget Pro", updated.Name)
	require.NotNil(t, updated.ModifiedBy)
	assert.Equal(t, "bob", *updated.ModifiedBy)
	assert.Equal(t, p.CreatedAt, updated.CreatedAt)

	_, err = svc.Update(acme, p.ID, ProductInput{Name: "Moved", TenantID: "globex"})
	assert.True(t, store.IsCrossTenantWrite(err))

	_, err = svc.Update(bound(t, "globex"), p.ID, ProductInput{Name: "Stolen"})
	assert.ErrorIs(t, err, store.ErrNotFound)

	assert.ErrorIs(t, svc.Delete(bound(t, "globex"), p.ID), store.ErrNotFound)
	require.NoError(t, svc.Delete(acme, p.ID))

	_, err = svc.Get(acme, p.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.ErrorIs(t, svc.Delete(acme, uuid.New()), store.ErrNotFound)
}

func TestImportIsAllOrNothing(t *testing.T) {
	svc := newService(t)
	acme := bound(t, "acme")

	n, err := svc.Import(acme, []ProductInput{{Name: "A"}, {Name: "B"}})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	_, err = svc.Import(acme, []ProductInput{{Name: "C"}, {Name: "D", TenantID: "globex"}})
	assert.True(t, store.IsCrossTenantWrite(err))

	all, err := svc.List(acme, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestImportJob(t *testing.T) {
	svc := newService(t)
	acme := bound(t, "acme")

	require.NoError(t, svc.ImportJob(acme, []byte(`[{"name":"Widget","price":3},{"name":"Gadget"}]`)))
	assert.ErrorIs(t, svc.ImportJob(acme, []byte(`{not json`)), ErrInvalidProduct)

	all, err := svc.List(acme, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestExport(t *testing.T) {
	svc := newService(t)
	acme := bound(t, "acme")
	_, err := svc.Create(acme, ProductInput{Name: "Widget"})
	require.NoError(t, err)
	_, err = svc.Create(bound(t, "globex"), ProductInput{Name: "Gadget"})
	require.NoError(t, err)

	exp, err := svc.Export(acme)
	require.NoError(t, err)
	require.NotNil(t, exp.Tenant)
	assert.Equal(t, "acme", exp.Tenant.Identifier)
	assert.Empty(t, exp.Tenant.IsolationTarget)
	require.Len(t, exp.Products, 1)
	assert.Equal(t, "Widget", exp.Products[0].Name)

	empty, err := svc.Export(context.Background())
	require.NoError(t, err)
	assert.Nil(t, empty.Tenant)
	assert.Empty(t, empty.Products)
}
