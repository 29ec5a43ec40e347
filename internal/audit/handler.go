// KaungMyatLinn | 2026
// handler.go

package audit

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/kaungmyat1inn/digitalmartpos/internal/core"
	"github.com/kaungmyat1inn/digitalmartpos/internal/middleware"
	"github.com/kaungmyat1inn/digitalmartpos/internal/rbac"
)

type Handler struct {
	service *Service
	engine  *rbac.Engine
}

func NewHandler(service *Service, engine *rbac.Engine) *Handler {
	return &Handler{
		service: service,
		engine:  engine,
	}
}

// RegisterRoutes mounts the trail under an already tenant-scoped router.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/audit", h.List)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	principal, ok := middleware.GetPrincipal(r.Context())
	if !ok {
		core.Unauthorized(w, "")
		return
	}

	if err := h.engine.RequireCapability(principal, rbac.CapViewReports); err != nil {
		core.JSONError(w, err)
		return
	}

	tenantID := rbac.ResolveTenantScope(principal, chi.URLParam(r, "tenantID"), "")

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	resp, err := h.service.List(r.Context(), tenantID, limit, offset)
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, resp)
}
