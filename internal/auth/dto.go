// KaungMyatLinn | 2026
// dto.go

package auth

import (
	"time"

	"github.com/kaungmyat1inn/digitalmartpos/internal/rbac"
)

type SetupRequest struct {
	Email    string `json:"email"    validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,min=8,max=128"`
}

type LoginRequest struct {
	Email    string `json:"email"    validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,min=8,max=128"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// LogoutRequest carries no required fields: logging out without a refresh
// token is an idempotent no-op, not an error.
type LogoutRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type TokenResponse struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	TokenType    string    `json:"token_type"`
	ExpiresIn    int       `json:"expires_in"`
	ExpiresAt    time.Time `json:"expires_at"`
}

type UserResponse struct {
	ID       string    `json:"id"`
	TenantID string    `json:"tenant_id"`
	Email    string    `json:"email"`
	Role     rbac.Role `json:"role"`
	Status   string    `json:"status"`
}

type AuthResponse struct {
	User   UserResponse  `json:"user"`
	Tokens TokenResponse `json:"tokens"`
}

type MeResponse struct {
	ID          string                `json:"id"`
	TenantID    string                `json:"tenant_id"`
	Email       string                `json:"email"`
	Role        rbac.Role             `json:"role"`
	Permissions rbac.StaffPermissions `json:"permissions"`
}
