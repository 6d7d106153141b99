package api

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"saas-tenancy/internal/audit"
	"saas-tenancy/internal/model"
	"saas-tenancy/internal/store"
)

type CreateTenantRequest struct {
	Identifier      string     `json:"identifier"`
	Name            string     `json:"name"`
	AdminEmail      string     `json:"admin_email"`
	Plan            model.Plan `json:"plan"`
	IsolationTarget string     `json:"isolation_target,omitempty"`
}

// UpdateTenantRequest lists the mutable attributes. The identifier and the
// isolation target are fixed at creation.
type UpdateTenantRequest struct {
	Name       *string     `json:"name,omitempty"`
	AdminEmail *string     `json:"admin_email,omitempty"`
	Plan       *model.Plan `json:"plan,omitempty"`
	Active     *bool       `json:"active,omitempty"`
	ValidUntil *time.Time  `json:"valid_until,omitempty"`
}

// TenantResponse is a tenant as returned by the API. Whether the tenant has
// its own database is reported, its location is not.
type TenantResponse struct {
	ID         uuid.UUID  `json:"id"`
	Identifier string     `json:"identifier"`
	Name       string     `json:"name"`
	AdminEmail string     `json:"admin_email"`
	Active     bool       `json:"active"`
	Plan       model.Plan `json:"plan"`
	ValidUntil time.Time  `json:"valid_until"`
	Isolated   bool       `json:"isolated"`

	audit.Fields
}

func newTenantResponse(t *model.Tenant) TenantResponse {
	return TenantResponse{
		ID:         t.ID,
		Identifier: t.Identifier,
		Name:       t.Name,
		AdminEmail: t.AdminEmail,
		Active:     t.Active,
		Plan:       t.Plan,
		ValidUntil: t.ValidUntil,
		Isolated:   t.IsolationTarget != "",
		Fields:     t.Fields,
	}
}

type ConcurrencyConfig struct {
	Workers int `json:"workers"`
}

// @Summary Create a tenant
// @Tags Tenants
// @Accept json
// @Produce json
// @Param body body CreateTenantRequest true "Tenant"
// @Success 201 {object} TenantResponse
// @Failure 400 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Security ApiKeyAuth
// @Failure 401 {string} string "Unauthorized"
// @Router /tenants [post]
func (a *API) CreateTenant(w http.ResponseWriter, r *http.Request) {
	var req CreateTenantRequest
	if !decode(w, r, &req) {
		return
	}

	t, err := a.Directory.Create(r.Context(), store.NewTenant{
		Identifier:      req.Identifier,
		Name:            req.Name,
		AdminEmail:      req.AdminEmail,
		Plan:            req.Plan,
		IsolationTarget: req.IsolationTarget,
	})
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	a.logger.Info("API: created tenant", zap.String("tenant", t.Identifier), zap.Stringer("id", t.ID))
	writeJSON(w, http.StatusCreated, newTenantResponse(t))
}

// @Summary List tenants
// @Tags Tenants
// @Produce json
// @Param active query bool false "Only active tenants"
// @Success 200 {array} TenantResponse
// @Security ApiKeyAuth
// @Failure 401 {string} string "Unauthorized"
// @Router /tenants [get]
func (a *API) ListTenants(w http.ResponseWriter, r *http.Request) {
	tenants, err := a.Directory.List(r.Context(), r.URL.Query().Get("active") == "true")
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	out := make([]TenantResponse, 0, len(tenants))
	for _, t := range tenants {
		out = append(out, newTenantResponse(t))
	}
	writeJSON(w, http.StatusOK, out)
}

// @Summary Get a tenant
// @Tags Tenants
// @Produce json
// @Param id path string true "Tenant UUID"
// @Success 200 {object} TenantResponse
// @Failure 404 {object} ErrorResponse
// @Security ApiKeyAuth
// @Failure 401 {string} string "Unauthorized"
// @Router /tenants/{id} [get]
func (a *API) GetTenant(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	t, err := a.Directory.FindByID(r.Context(), id)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newTenantResponse(t))
}

// @Summary Update a tenant
// @Description The identifier cannot be changed.
// @Tags Tenants
// @Accept json
// @Produce json
// @Param id path string true "Tenant UUID"
// @Param body body UpdateTenantRequest true "Changed attributes"
// @Success 200 {object} TenantResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Security ApiKeyAuth
// @Failure 401 {string} string "Unauthorized"
// @Router /tenants/{id} [patch]
func (a *API) UpdateTenant(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req UpdateTenantRequest
	if !decode(w, r, &req) {
		return
	}

	t, err := a.Directory.Update(r.Context(), id, store.TenantUpdate{
		Name:       req.Name,
		AdminEmail: req.AdminEmail,
		Plan:       req.Plan,
		Active:     req.Active,
		ValidUntil: req.ValidUntil,
	})
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newTenantResponse(t))
}

// @Summary Deactivate a tenant
// @Description Tenants are never deleted; their data stays attributable.
// @Tags Tenants
// @Produce json
// @Param id path string true "Tenant UUID"
// @Success 200 {object} TenantResponse
// @Failure 404 {object} ErrorResponse
// @Security ApiKeyAuth
// @Failure 401 {string} string "Unauthorized"
// @Router /tenants/{id} [delete]
func (a *API) DeactivateTenant(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	t, err := a.Directory.Deactivate(r.Context(), id)
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	a.logger.Info("API: deactivated tenant", zap.String("tenant", t.Identifier))
	writeJSON(w, http.StatusOK, newTenantResponse(t))
}

// @Summary Update worker pool concurrency
// @Tags Tenants
// @Accept json
// @Param id path string true "Tenant UUID"
// @Param body body ConcurrencyConfig true "Concurrency config"
// @Success 204
// @Failure 404 {object} ErrorResponse
// @Failure 503 {object} ErrorResponse
// @Security ApiKeyAuth
// @Failure 401 {string} string "Unauthorized"
// @Router /tenants/{id}/config/concurrency [put]
func (a *API) UpdateConcurrency(w http.ResponseWriter, r *http.Request) {
	if a.TenantMgr == nil {
		writeJSON(w, http.StatusServiceUnavailable, ErrorResponse{Error: "background workers disabled"})
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var body ConcurrencyConfig
	if !decode(w, r, &body) {
		return
	}
	if body.Workers <= 0 {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "workers must be positive"})
		return
	}

	t, err := a.Directory.FindByID(r.Context(), id)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	if err := a.TenantMgr.SetWorkerCount(t.Identifier, body.Workers); err != nil {
		writeJSON(w, http.StatusNotFound, ErrorResponse{Error: err.Error()})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
