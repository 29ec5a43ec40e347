// KaungMyatLinn | 2026
// handler.go

package staff

import (
	"encoding/json"
	"errors"
	"net/http"

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

// RegisterRoutes mounts staff management under an already tenant-scoped
// router. Admins always pass; staff need the manage-staff flag.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/staff", func(r chi.Router) {
		r.Get("/", h.List)
		r.Post("/", h.Create)
		r.Get("/{userID}", h.Get)
		r.Put("/{userID}", h.Update)
		r.Post("/{userID}/suspend", h.Suspend)
		r.Delete("/{userID}", h.Delete)
	})
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	principal, tenantID, ok := h.admit(w, r)
	if !ok {
		return
	}

	var req CreateStaffRequest
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
	_, tenantID, ok := h.admit(w, r)
	if !ok {
		return
	}

	view, err := h.service.Get(r.Context(), tenantID, chi.URLParam(r, "userID"))
	if err != nil {
		h.writeError(w, err)
		return
	}

	core.OK(w, view)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	_, tenantID, ok := h.admit(w, r)
	if !ok {
		return
	}

	resp, err := h.service.List(r.Context(), tenantID)
	if err != nil {
		h.writeError(w, err)
		return
	}

	core.OK(w, resp)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	principal, tenantID, ok := h.admit(w, r)
	if !ok {
		return
	}

	var req UpdateStaffRequest
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
		chi.URLParam(r, "userID"),
		req,
	)
	if err != nil {
		h.writeError(w, err)
		return
	}

	core.OK(w, view)
}

func (h *Handler) Suspend(w http.ResponseWriter, r *http.Request) {
	principal, tenantID, ok := h.admit(w, r)
	if !ok {
		return
	}

	err := h.service.Suspend(
		r.Context(),
		principal,
		tenantID,
		chi.URLParam(r, "userID"),
	)
	if err != nil {
		h.writeError(w, err)
		return
	}

	core.NoContent(w)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	principal, tenantID, ok := h.admit(w, r)
	if !ok {
		return
	}

	err := h.service.Delete(
		r.Context(),
		principal,
		tenantID,
		chi.URLParam(r, "userID"),
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
) (rbac.Principal, string, bool) {
	principal, ok := middleware.GetPrincipal(r.Context())
	if !ok {
		core.Unauthorized(w, "")
		return rbac.Principal{}, "", false
	}

	if err := h.engine.RequireCapability(principal, rbac.CapManageStaff); err != nil {
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
		core.NotFound(w, "staff member")
	default:
		core.InternalServerError(w, err)
	}
}
