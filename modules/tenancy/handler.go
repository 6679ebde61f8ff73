package tenancy

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/dmitrymomot/tenantkit/pkg/logger"
	"github.com/dmitrymomot/tenantkit/pkg/tenant"
)

// Handler serves the tenant administration API.
type Handler struct {
	svc   *Service
	cache TenantEvictor
	admin GlobalEvictor
	log   *slog.Logger
}

// NewHandler creates a Handler. cache and admin may be nil, in which case the
// cache routes are not mounted.
func NewHandler(svc *Service, cache TenantEvictor, admin GlobalEvictor, log *slog.Logger) *Handler {
	if svc == nil {
		panic("tenancy: service is required")
	}
	if log == nil {
		log = slog.Default()
	}
	return &Handler{svc: svc, cache: cache, admin: admin, log: log.With(logger.Component("tenancy.http"))}
}

// Routes returns the API router. Tenant management and global eviction sit
// behind adminGuard; DELETE /cache acts on the tenant bound by the tenant
// middleware, which must run upstream.
func (h *Handler) Routes(adminGuard func(http.Handler) http.Handler) chi.Router {
	if adminGuard == nil {
		panic("tenancy: admin guard is required")
	}

	r := chi.NewRouter()

	r.Group(func(r chi.Router) {
		r.Use(adminGuard)
		r.Post("/tenants", h.createTenant)
		r.Get("/tenants/{id}", h.getTenant)
		r.Delete("/tenants/{id}", h.deleteTenant)
		if h.admin != nil {
			r.Delete("/admin/cache", h.evictEverywhere)
		}
	})

	if h.cache != nil {
		r.With(tenant.RequireTenant(nil)).Delete("/cache", h.evictTenantCache)
	}

	return r
}

type tenantResponse struct {
	ID         uuid.UUID `json:"id"`
	Name       string    `json:"name"`
	Subdomain  string    `json:"subdomain,omitempty"`
	Active     bool      `json:"active"`
	SchemaName string    `json:"schema_name"`
}

type provisionResponse struct {
	tenantResponse
	Applied    []int64 `json:"applied"`
	DurationMS int64   `json:"duration_ms"`
}

type statusResponse struct {
	tenantResponse
	SchemaExists bool    `json:"schema_exists"`
	Applied      []int64 `json:"applied"`
	Pending      []int64 `json:"pending"`
}

func newTenantResponse(t *tenant.Tenant) tenantResponse {
	return tenantResponse{
		ID:         t.ID,
		Name:       t.Name,
		Subdomain:  t.Subdomain,
		Active:     t.Active,
		SchemaName: t.Schema(),
	}
}

func (h *Handler) createTenant(w http.ResponseWriter, r *http.Request) {
	var in CreateTenantInput
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16)).Decode(&in); err != nil {
		writeError(w, r, h.log, fmt.Errorf("%w: %v", ErrInvalidInput, err))
		return
	}

	t, res, err := h.svc.CreateTenant(r.Context(), in)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}

	writeJSON(w, http.StatusCreated, provisionResponse{
		tenantResponse: newTenantResponse(t),
		Applied:        nonNil(res.Applied),
		DurationMS:     res.Duration.Milliseconds(),
	})
}

func (h *Handler) getTenant(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}

	t, st, err := h.svc.TenantStatus(r.Context(), id)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}

	writeJSON(w, http.StatusOK, statusResponse{
		tenantResponse: newTenantResponse(t),
		SchemaExists:   st.Exists,
		Applied:        nonNil(st.Applied),
		Pending:        nonNil(st.Pending),
	})
}

func (h *Handler) deleteTenant(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}

	rep, err := h.svc.DeleteTenant(r.Context(), id)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	if !rep.OK() {
		h.log.WarnContext(r.Context(), "tenant deleted with incomplete cache eviction", logger.TenantID(id))
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) evictTenantCache(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, newEvictionResponse(h.cache.EvictAllForTenant(r.Context())))
}

func (h *Handler) evictEverywhere(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, newEvictionResponse(h.admin.EvictEverywhere(r.Context())))
}

func pathID(r *http.Request) (uuid.UUID, error) {
	id, err := tenant.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		return uuid.Nil, errors.Join(ErrInvalidInput, err)
	}
	return id, nil
}

func nonNil(v []int64) []int64 {
	if v == nil {
		return []int64{}
	}
	return v
}
