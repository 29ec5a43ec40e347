// KaungMyatLinn | 2026
// entity.go

package user

import (
	"time"

	"github.com/kaungmyat1inn/digitalmartpos/internal/rbac"
)

const (
	StatusActive    = "active"
	StatusInactive  = "inactive"
	StatusSuspended = "suspended"
)

// User is a credential-store record. Email is unique within a tenant, and a
// super admin always belongs to the "global" tenant.
type User struct {
	ID           string     `db:"id"`
	TenantID     string     `db:"tenant_id"`
	Email        string     `db:"email"`
	PasswordHash string     `db:"password_hash"`
	Role         rbac.Role  `db:"role"`
	Status       string     `db:"status"`
	LastLogin    *time.Time `db:"last_login"`
	CreatedAt    time.Time  `db:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at"`
	DeletedAt    *time.Time `db:"deleted_at"`
}

func (u *User) Active() bool {
	return u.Status == StatusActive
}
