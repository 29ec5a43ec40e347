// KaungMyatLinn | 2026
// handler.go

package tenant

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

// RegisterRoutes mounts tenant administration; every handler here checks for
// super admin itself. The scoped callback hangs the per-tenant feature routes
// off /{tenantID} so the whole tree lives in one router.
func (h *Handler) RegisterRoutes(r chi.Router, scoped func(chi.Router)) {
	r.Route("/tenants", func(r chi.Router) {
		r.Get("/", h.List)
		r.Post("/", h.Create)

		r.Route("/{tenantID}", func(r chi.Router) {
			r.Get("/", h.Get)
			r.Post("/activate", h.Activate)
			r.Post("/suspend", h.Suspend)
			r.Post("/cancel", h.Cancel)

			if scoped != nil {
				scoped(r)
			}
		})
	})
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	principal, ok := h.admit(w, r)
	if !ok {
		return
	}

	var req CreateTenantRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	resp, err := h.service.CreateWithAdmin(r.Context(), principal, req)
	if err != nil {
		h.writeError(w, err)
		return
	}

	core.Created(w, resp)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.admit(w, r); !ok {
		return
	}

	view, err := h.service.Get(r.Context(), chi.URLParam(r, "tenantID"))
	if err != nil {
		h.writeError(w, err)
		return
	}

	core.OK(w, view)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.admit(w, r); !ok {
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	resp, err := h.service.List(r.Context(), limit, offset)
	if err != nil {
		h.writeError(w, err)
		return
	}

	core.OK(w, resp)
}

func (h *Handler) Activate(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, StatusActive)
}

func (h *Handler) Suspend(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, StatusSuspended)
}

func (h *Handler) Cancel(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, StatusCancelled)
}

func (h *Handler) transition(
	w http.ResponseWriter,
	r *http.Request,
	to string,
) {
	if _, ok := h.admit(w, r); !ok {
		return
	}

	err := h.service.Transition(r.Context(), chi.URLParam(r, "tenantID"), to)
	if err != nil {
		h.writeError(w, err)
		return
	}

	core.NoContent(w)
}

func (h *Handler) admit(
	w http.ResponseWriter,
	r *http.Request,
) (rbac.Principal, bool) {
	principal, ok := middleware.GetPrincipal(r.Context())
	if !ok {
		core.Unauthorized(w, "")
		return rbac.Principal{}, false
	}

	if err := h.engine.RequireRole(principal, rbac.RoleSuperAdmin); err != nil {
		core.JSONError(w, err)
		return rbac.Principal{}, false
	}

	return principal, true
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case core.IsAppError(err):
		core.JSONError(w, err)
	case errors.Is(err, core.ErrNotFound):
		core.JSONError(w, core.TenantNotFoundError())
	default:
		core.InternalServerError(w, err)
	}
}
