// internal/model/product.go
package model

import (
	"github.com/google/uuid"

	"saas-tenancy/internal/audit"
)

// Product is owned by exactly one tenant through TenantID.
type Product struct {
	ID          uuid.UUID `json:"id"`
	TenantID    string    `json:"tenant_id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Price       float64   `json:"price"`

	audit.Fields
}
