// KaungMyatLinn | 2026
// dto.go

package tenant

import (
	"time"
)

type CreateTenantRequest struct {
	Name          string `json:"name"           validate:"required,min=2,max=100"`
	Plan          string `json:"plan"           validate:"required,oneof=basic pro enterprise"`
	AdminEmail    string `json:"admin_email"    validate:"required,email,max=255"`
	AdminPassword string `json:"admin_password" validate:"required,min=8,max=128"`
}

type TenantView struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Status    string    `json:"status"`
	Plan      string    `json:"plan"`
	CreatedAt time.Time `json:"created_at"`
}

type CreateTenantResponse struct {
	Tenant     TenantView `json:"tenant"`
	AdminID    string     `json:"admin_id"`
	AdminEmail string     `json:"admin_email"`
}

type ListTenantsResponse struct {
	Tenants []TenantView `json:"tenants"`
	Total   int          `json:"total"`
	Limit   int          `json:"limit"`
	Offset  int          `json:"offset"`
}

func toView(t *Tenant) TenantView {
	return TenantView{
		ID:        t.ID,
		Name:      t.Name,
		Status:    t.Status,
		Plan:      t.Plan,
		CreatedAt: t.CreatedAt,
	}
}
