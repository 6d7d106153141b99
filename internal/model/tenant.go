// internal/model/tenant.go
package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"saas-tenancy/internal/audit"
)

// Plan is the subscription tier of a tenant.
type Plan string

const (
	PlanFree       Plan = "free"
	PlanBasic      Plan = "basic"
	PlanPro        Plan = "pro"
	PlanEnterprise Plan = "enterprise"
)

// ParsePlan validates a plan name. An empty name yields PlanFree.
func ParsePlan(s string) (Plan, error) {
	switch p := Plan(s); p {
	case "":
		return PlanFree, nil
	case PlanFree, PlanBasic, PlanPro, PlanEnterprise:
		return p, nil
	default:
		return "", fmt.Errorf("unknown plan %q", s)
	}
}

// Tenant is an isolated customer. Identifier is the tenant key stamped on
// tenant-owned rows; it never changes after creation.
type Tenant struct {
	ID         uuid.UUID `json:"id"`
	Identifier string    `json:"identifier"`
	Name       string    `json:"name"`
	AdminEmail string    `json:"admin_email"`
	Active     bool      `json:"active"`
	Plan       Plan      `json:"plan"`
	ValidUntil time.Time `json:"valid_until"`

	// IsolationTarget optionally points the tenant at its own database. It
	// carries credentials and is never serialized.
	IsolationTarget string `json:"-"`

	audit.Fields
}

// Expired reports whether the validity window has closed.
func (t *Tenant) Expired(now time.Time) bool {
	return !t.ValidUntil.IsZero() && now.After(t.ValidUntil)
}
