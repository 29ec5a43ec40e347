// KaungMyatLinn | 2026
// entity.go

package staff

import (
	"time"

	"github.com/kaungmyat1inn/digitalmartpos/internal/rbac"
)

// Profile is the staff-specific record layered on top of a users row. It
// only exists for role=staff; admins carry every capability implicitly and
// have no profile.
type Profile struct {
	UserID   string `db:"user_id"`
	TenantID string `db:"tenant_id"`
	Position string `db:"position"`
	rbac.StaffPermissions
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// Member is a profile joined with its user row, the shape the management
// endpoints work with.
type Member struct {
	UserID   string `db:"user_id"`
	TenantID string `db:"tenant_id"`
	Email    string `db:"email"`
	Position string `db:"position"`
	Status   string `db:"status"`
	rbac.StaffPermissions
	CreatedAt time.Time `db:"created_at"`
}
