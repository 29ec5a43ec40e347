// KaungMyatLinn | 2026
// engine.go

package rbac

import (
	"context"
	"errors"

	"github.com/kaungmyat1inn/digitalmartpos/internal/core"
)

const userStatusActive = "active"

// TokenVerifier verifies a bearer access token and returns its claims.
// Expired and malformed tokens are distinct failures because clients react
// differently: refresh versus re-authenticate.
type TokenVerifier interface {
	VerifyAccessToken(ctx context.Context, token string) (*AccessClaims, error)
}

// PrincipalLoader reads the current identity record, including any staff
// permission flags, from the credential store.
type PrincipalLoader interface {
	LoadPrincipal(ctx context.Context, userID string) (Principal, error)
}

// TenantGate reports the status of a tenant.
type TenantGate interface {
	TenantStatus(ctx context.Context, tenantID string) (string, error)
}

const tenantStatusActive = "active"

// Engine evaluates the per-request authorization chain:
// authenticate, tenant scope, role, fine-grained permission. Each stage
// short-circuits with its precise error code; no stage may be skipped because
// later stages assume earlier invariants.
type Engine struct {
	verifier TokenVerifier
	users    PrincipalLoader
	tenants  TenantGate
}

func NewEngine(
	verifier TokenVerifier,
	users PrincipalLoader,
	tenants TenantGate,
) *Engine {
	return &Engine{
		verifier: verifier,
		users:    users,
		tenants:  tenants,
	}
}

// Authenticate turns a bearer token into a Principal. The identity record is
// read fresh from the store; claims inside the token are only trusted to
// locate the user.
func (e *Engine) Authenticate(
	ctx context.Context,
	bearerToken string,
) (Principal, error) {
	if bearerToken == "" {
		return Principal{}, core.AuthRequiredError("")
	}

	claims, err := e.verifier.VerifyAccessToken(ctx, bearerToken)
	if err != nil {
		if errors.Is(err, core.ErrTokenExpired) {
			return Principal{}, core.TokenExpiredError()
		}
		return Principal{}, core.TokenInvalidError()
	}

	principal, err := e.users.LoadPrincipal(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return Principal{}, core.UserNotFoundError()
		}
		return Principal{}, err
	}

	if principal.Status != userStatusActive {
		return Principal{}, core.AccountInactiveError()
	}

	return principal, nil
}

// RequireRole fails with FORBIDDEN unless the principal's role is in the
// allowed set.
func (e *Engine) RequireRole(principal Principal, allowed ...Role) error {
	for _, role := range allowed {
		if principal.Role == role {
			return nil
		}
	}
	return core.ForbiddenError("")
}

// RequireMinRole admits the named role and everything above it in the
// hierarchy.
func (e *Engine) RequireMinRole(principal Principal, min Role) error {
	if principal.Role.AtLeast(min) {
		return nil
	}
	return core.ForbiddenError("")
}

// RequireTenantAccess enforces tenant isolation. Super admins pass for any
// tenant; everyone else must match their own tenant, and that tenant must
// exist and be active.
func (e *Engine) RequireTenantAccess(
	ctx context.Context,
	principal Principal,
	tenantID string,
) error {
	if principal.IsSuperAdmin() {
		return nil
	}

	if tenantID != principal.TenantID {
		return core.TenantForbiddenError()
	}

	status, err := e.tenants.TenantStatus(ctx, tenantID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return core.TenantNotFoundError()
		}
		return err
	}

	if status != tenantStatusActive {
		return core.TenantInactiveError()
	}

	return nil
}

// ResolveTenantScope picks the operation's target tenant with path > body >
// principal precedence. For non-super-admin principals the result is always
// forced to the principal's own tenant regardless of client input; this is a
// security control against tenant-id spoofing in request bodies, not a
// convenience default.
func ResolveTenantScope(principal Principal, pathTenantID, bodyTenantID string) string {
	if !principal.IsSuperAdmin() {
		return principal.TenantID
	}

	if pathTenantID != "" {
		return pathTenantID
	}
	if bodyTenantID != "" {
		return bodyTenantID
	}
	return principal.TenantID
}

// RequireCapability checks a fine-grained staff flag. Shop admins and super
// admins implicitly hold every staff capability.
func (e *Engine) RequireCapability(principal Principal, capability Capability) error {
	if principal.Role.AtLeast(RoleShopAdmin) {
		return nil
	}

	if !principal.Permissions.Has(capability) {
		return core.PermissionError(string(capability))
	}

	return nil
}

// RequireAnyCapability admits a staff principal holding at least one of the
// listed flags. Used for read surfaces reachable through more than one
// capability, e.g. sales listings.
func (e *Engine) RequireAnyCapability(
	principal Principal,
	capabilities ...Capability,
) error {
	if principal.Role.AtLeast(RoleShopAdmin) {
		return nil
	}

	for _, capability := range capabilities {
		if principal.Permissions.Has(capability) {
			return nil
		}
	}

	if len(capabilities) > 0 {
		return core.PermissionError(string(capabilities[0]))
	}
	return core.ForbiddenError("")
}
