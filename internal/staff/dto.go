// KaungMyatLinn | 2026
// dto.go

package staff

import (
	"time"

	"github.com/kaungmyat1inn/digitalmartpos/internal/rbac"
)

type CreateStaffRequest struct {
	Email       string                `json:"email"       validate:"required,email,max=255"`
	Password    string                `json:"password"    validate:"required,min=8,max=128"`
	Position    string                `json:"position"    validate:"required,min=1,max=100"`
	Permissions rbac.StaffPermissions `json:"permissions"`
}

type UpdateStaffRequest struct {
	Position    *string                `json:"position"    validate:"omitempty,min=1,max=100"`
	Permissions *rbac.StaffPermissions `json:"permissions"`
}

type StaffView struct {
	UserID      string                `json:"user_id"`
	TenantID    string                `json:"tenant_id"`
	Email       string                `json:"email"`
	Position    string                `json:"position"`
	Status      string                `json:"status"`
	Permissions rbac.StaffPermissions `json:"permissions"`
	CreatedAt   time.Time             `json:"created_at"`
}

type ListStaffResponse struct {
	Staff []StaffView `json:"staff"`
	Total int         `json:"total"`
}

func toView(m *Member) StaffView {
	return StaffView{
		UserID:      m.UserID,
		TenantID:    m.TenantID,
		Email:       m.Email,
		Position:    m.Position,
		Status:      m.Status,
		Permissions: m.StaffPermissions,
		CreatedAt:   m.CreatedAt,
	}
}
