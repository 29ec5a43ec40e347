// KaungMyatLinn | 2026
// handler.go

package product

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/kaungmyat1inn/digitalmartpos/internal/core"
	"github.com/kaungmyat1inn/digitalmartpos/internal/middleware"
	"github.com/kaungmyat1inn/digitalmartpos/internal/rbac"
)

type Handler struct {
	service   *Service
	engine    *rbac.Engine
	validator *validator.Validate
}

func NewHandler(service *Service, engine *rbac.Engine) *Handler {
	return &Handler{
		service:   service,
		engine:    engine,
		validator: validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/products", func(r chi.Router) {
		r.Get("/", h.List)
		r.Post("/", h.Create)
		r.Get("/{productID}", h.Get)
		r.Put("/{productID}", h.Update)
		r.Put("/{productID}/stock", h.UpdateStock)
		r.Delete("/{productID}", h.Delete)
	})
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	principal, tenantID, ok := h.admit(w, r, rbac.CapManageProducts)
	if !ok {
		return
	}

	var req CreateProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	view, err := h.service.Create(r.Context(), principal, tenantID, req)
	if err != nil {
		h.writeError(w, err)
		return
	}

	core.Created(w, view)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	_, tenantID, ok := h.admit(w, r, rbac.CapManageProducts)
	if !ok {
		return
	}

	view, err := h.service.Get(r.Context(), tenantID, chi.URLParam(r, "productID"))
	if err != nil {
		h.writeError(w, err)
		return
	}

	core.OK(w, view)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	_, tenantID, ok := h.admit(w, r, rbac.CapManageProducts)
	if !ok {
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	resp, err := h.service.List(r.Context(), tenantID, limit, offset)
	if err != nil {
		h.writeError(w, err)
		return
	}

	core.OK(w, resp)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	principal, tenantID, ok := h.admit(w, r, rbac.CapManageProducts)
	if !ok {
		return
	}

	var req UpdateProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	view, err := h.service.Update(
		r.Context(),
		principal,
		tenantID,
		chi.URLParam(r, "productID"),
		req,
	)
	if err != nil {
		h.writeError(w, err)
		return
	}

	core.OK(w, view)
}

func (h *Handler) UpdateStock(w http.ResponseWriter, r *http.Request) {
	principal, tenantID, ok := h.admit(w, r, rbac.CapManageProducts)
	if !ok {
		return
	}

	var req UpdateStockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	view, err := h.service.UpdateStock(
		r.Context(),
		principal,
		tenantID,
		chi.URLParam(r, "productID"),
		req.Stock,
	)
	if err != nil {
		h.writeError(w, err)
		return
	}

	core.OK(w, view)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	principal, tenantID, ok := h.admit(w, r, rbac.CapManageProducts)
	if !ok {
		return
	}

	err := h.service.Delete(
		r.Context(),
		principal,
		tenantID,
		chi.URLParam(r, "productID"),
	)
	if err != nil {
		h.writeError(w, err)
		return
	}

	core.NoContent(w)
}

func (h *Handler) admit(
	w http.ResponseWriter,
	r *http.Request,
	capability rbac.Capability,
) (rbac.Principal, string, bool) {
	principal, ok := middleware.GetPrincipal(r.Context())
	if !ok {
		core.Unauthorized(w, "")
		return rbac.Principal{}, "", false
	}

	if err := h.engine.RequireCapability(principal, capability); err != nil {
		core.JSONError(w, err)
		return rbac.Principal{}, "", false
	}

	tenantID := rbac.ResolveTenantScope(principal, chi.URLParam(r, "tenantID"), "")

	return principal, tenantID, true
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case core.IsAppError(err):
		core.JSONError(w, err)
	case errors.Is(err, core.ErrNotFound):
		core.NotFound(w, "product")
	default:
		core.InternalServerError(w, err)
	}
}
