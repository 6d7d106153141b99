package catalog

import (
	"github.com/google/uuid"

	"saas-tenancy/internal/model"
	"saas-tenancy/internal/store"
)

const (
	// Collection holds products; it is tenant-owned.
	Collection   = "products"
	TenantColumn = "tenant_id"
)

var productColumns = append([]string{
	store.IDColumn, TenantColumn, "name", "description", "price",
}, store.AuditColumns...)

var productSchema = store.Schema[model.Product]{
	Collection: Collection,
	Columns:    productColumns,
	ID:         func(p *model.Product) *uuid.UUID { return &p.ID },
	Encode:     encodeProduct,
	Decode:     decodeProduct,
}

// RegisterProducts adds the products collection to reg as tenant-owned.
func RegisterProducts(reg *store.Registry) *store.Collection[model.Product] {
	return store.RegisterTenantOwned(reg, productSchema, TenantColumn, func(p *model.Product) *string {
		return &p.TenantID
	})
}

func encodeProduct(p *model.Product) store.Row {
	row := store.Row{
		store.IDColumn: p.ID,
		TenantColumn:   p.TenantID,
		"name":         p.Name,
		"description":  p.Description,
		"price":        p.Price,
	}
	store.EncodeAudit(row, &p.Fields)
	return row
}

func decodeProduct(row store.Row) (*model.Product, error) {
	id, err := store.UUIDValue(row[store.IDColumn])
	if err != nil {
		return nil, err
	}
	price, err := store.FloatValue(row["price"])
	if err != nil {
		return nil, err
	}

	p := &model.Product{
		ID:          id,
		TenantID:    store.StringValue(row[TenantColumn]),
		Name:        store.StringValue(row["name"]),
		Description: store.StringValue(row["description"]),
		Price:       price,
	}
	if err := store.DecodeAudit(row, &p.Fields); err != nil {
		return nil, err
	}
	return p, nil
}
