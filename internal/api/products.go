package api

import (
	"encoding/json"
	"io"
	"net/http"

	"saas-tenancy/internal/audit"
	"saas-tenancy/internal/catalog"
	"saas-tenancy/internal/messaging"
	"saas-tenancy/internal/tenancy"
)

type ImportResponse struct {
	Status   string `json:"status"`
	Imported int    `json:"imported,omitempty"`
}

// @Summary List products of the current tenant
// @Tags Products
// @Security ApiKeyAuth
// @Produce json
// @Param X-Tenant-ID header string true "Tenant identifier"
// @Param name query string false "Exact product name"
// @Success 200 {array} model.Product
// @Router /products [get]
func (a *API) ListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := a.Catalog.List(r.Context(), r.URL.Query().Get("name"))
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, products)
}

// @Summary Get a product
// @Tags Products
// @Security ApiKeyAuth
// @Produce json
// @Param X-Tenant-ID header string true "Tenant identifier"
// @Param id path string true "Product UUID"
// @Success 200 {object} model.Product
// @Failure 404 {object} ErrorResponse
// @Router /products/{id} [get]
func (a *API) GetProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	p, err := a.Catalog.Get(r.Context(), id)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// @Summary Create a product
// @Tags Products
// @Security ApiKeyAuth
// @Accept json
// @Produce json
// @Param X-Tenant-ID header string true "Tenant identifier"
// @Param body body catalog.ProductInput true "Product"
// @Success 201 {object} model.Product
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Router /products [post]
func (a *API) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var in catalog.ProductInput
	if !decode(w, r, &in) {
		return
	}
	p, err := a.Catalog.Create(r.Context(), in)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

// @Summary Replace a product
// @Tags Products
// @Security ApiKeyAuth
// @Accept json
// @Produce json
// @Param X-Tenant-ID header string true "Tenant identifier"
// @Param id path string true "Product UUID"
// @Param body body catalog.ProductInput true "Product"
// @Success 200 {object} model.Product
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /products/{id} [put]
func (a *API) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var in catalog.ProductInput
	if !decode(w, r, &in) {
		return
	}
	p, err := a.Catalog.Update(r.Context(), id, in)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// @Summary Delete a product
// @Tags Products
// @Security ApiKeyAuth
// @Param X-Tenant-ID header string true "Tenant identifier"
// @Param id path string true "Product UUID"
// @Success 204
// @Failure 404 {object} ErrorResponse
// @Router /products/{id} [delete]
func (a *API) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := a.Catalog.Delete(r.Context(), id); err != nil {
		a.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// @Summary Import products
// @Description Queued as a background job when a broker is configured, otherwise imported at once. All items are stored or none.
// @Tags Products
// @Security ApiKeyAuth
// @Accept json
// @Produce json
// @Param X-Tenant-ID header string true "Tenant identifier"
// @Param body body []catalog.ProductInput true "Products"
// @Success 201 {object} ImportResponse
// @Success 202 {object} ImportResponse
// @Failure 400 {object} ErrorResponse
// @Router /products/import [post]
func (a *API) ImportProducts(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBody))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "bad request body"})
		return
	}
	var items []catalog.ProductInput
	if err := json.Unmarshal(body, &items); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "bad request body"})
		return
	}

	ctx := r.Context()
	if a.Jobs != nil {
		tenant, _ := tenancy.Key(ctx)
		err := a.Jobs.PublishJob(ctx, messaging.Job{
			Tenant: tenant,
			Actor:  audit.ActorFromContext(ctx),
			Type:   catalog.JobImport,
			Body:   body,
		})
		if err != nil {
			a.writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusAccepted, ImportResponse{Status: "queued"})
		return
	}

	n, err := a.Catalog.Import(ctx, items)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, ImportResponse{Status: "imported", Imported: n})
}

// @Summary Export the current tenant's data
// @Tags Products
// @Security ApiKeyAuth
// @Produce json
// @Param X-Tenant-ID header string true "Tenant identifier"
// @Success 200 {object} catalog.Export
// @Security ApiKeyAuth
// @Failure 401 {string} string "Unauthorized"
// @Router /export [get]
func (a *API) Export(w http.ResponseWriter, r *http.Request) {
	exp, err := a.Catalog.Export(r.Context())
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, exp)
}
