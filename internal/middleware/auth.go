// KaungMyatLinn | 2026
// auth.go

package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/kaungmyat1inn/digitalmartpos/internal/core"
	"github.com/kaungmyat1inn/digitalmartpos/internal/rbac"
)

const PrincipalKey contextKey = "principal"

// Authenticator resolves the bearer token into a Principal and stores it on
// the request context. The identity is read fresh on every request, so a
// suspension takes effect on the next call even while the access token is
// still within its lifetime.
func Authenticator(engine *rbac.Engine) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := ExtractToken(r)

			principal, err := engine.Authenticate(r.Context(), token)
			if err != nil {
				if core.IsAppError(err) {
					core.JSONError(w, err)
					return
				}
				core.InternalServerError(w, err)
				return
			}

			ctx := context.WithValue(r.Context(), PrincipalKey, principal)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireTenantScope guards routes mounted under /tenants/{tenantID}. It must
// run after Authenticator.
func RequireTenantScope(engine *rbac.Engine) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, ok := GetPrincipal(r.Context())
			if !ok {
				core.JSONError(
					w,
					core.AuthRequiredError(""),
				)
				return
			}

			tenantID := chi.URLParam(r, "tenantID")

			err := engine.RequireTenantAccess(r.Context(), principal, tenantID)
			if err != nil {
				if core.IsAppError(err) {
					core.JSONError(w, err)
					return
				}
				core.InternalServerError(w, err)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RequireRole guards a whole subtree with a role check. Handlers still run
// their own capability checks.
func RequireRole(
	engine *rbac.Engine,
	allowed ...rbac.Role,
) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, ok := GetPrincipal(r.Context())
			if !ok {
				core.JSONError(w, core.AuthRequiredError(""))
				return
			}

			if err := engine.RequireRole(principal, allowed...); err != nil {
				core.JSONError(w, err)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func ExtractToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return ""
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}

	return strings.TrimSpace(parts[1])
}

func GetPrincipal(ctx context.Context) (rbac.Principal, bool) {
	principal, ok := ctx.Value(PrincipalKey).(rbac.Principal)
	return principal, ok
}

func IsAuthenticated(ctx context.Context) bool {
	_, ok := GetPrincipal(ctx)
	return ok
}
