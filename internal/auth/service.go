// KaungMyatLinn | 2026
// service.go

package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/kaungmyat1inn/digitalmartpos/internal/audit"
	"github.com/kaungmyat1inn/digitalmartpos/internal/config"
	"github.com/kaungmyat1inn/digitalmartpos/internal/core"
	"github.com/kaungmyat1inn/digitalmartpos/internal/rbac"
)

const statusActive = "active"

// Identity is the credential-store view the auth flows need. The user
// package provides the implementation.
type Identity struct {
	ID           string
	TenantID     string
	Email        string
	PasswordHash string
	Role         rbac.Role
	Status       string
}

type IdentityStore interface {
	GetByEmail(ctx context.Context, email string) (*Identity, error)
	GetByID(ctx context.Context, id string) (*Identity, error)
	CreateSuperAdmin(
		ctx context.Context,
		email, passwordHash string,
	) (*Identity, error)
	SuperAdminExists(ctx context.Context) (bool, error)
	UpdateLastLogin(ctx context.Context, userID string) error
}

type Service struct {
	registry         RegistryTx
	repo             Repository
	jwt              *JWTManager
	users            IdentityStore
	tenants          rbac.TenantGate
	recorder         *audit.Recorder
	sessionCap       int
	bootstrapEnabled bool
}

func NewService(
	registry RegistryTx,
	repo Repository,
	jwtManager *JWTManager,
	users IdentityStore,
	tenants rbac.TenantGate,
	recorder *audit.Recorder,
	cfg config.AuthConfig,
) *Service {
	return &Service{
		registry:         registry,
		repo:             repo,
		jwt:              jwtManager,
		users:            users,
		tenants:          tenants,
		recorder:         recorder,
		sessionCap:       cfg.SessionCap,
		bootstrapEnabled: cfg.BootstrapEnabled,
	}
}

// Setup bootstraps the very first super admin. It succeeds exactly once per
// deployment; afterwards it always reports ALREADY_SETUP.
func (s *Service) Setup(
	ctx context.Context,
	req SetupRequest,
) (*AuthResponse, error) {
	if !s.bootstrapEnabled {
		return nil, core.ForbiddenError("setup is disabled")
	}

	exists, err := s.users.SuperAdminExists(ctx)
	if err != nil {
		return nil, fmt.Errorf("check super admin: %w", err)
	}
	if exists {
		return nil, core.AlreadySetupError()
	}

	passwordHash, err := core.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user, err := s.users.CreateSuperAdmin(ctx, req.Email, passwordHash)
	if err != nil {
		if errors.Is(err, core.ErrDuplicateKey) {
			return nil, core.DuplicateError("email")
		}
		return nil, fmt.Errorf("create super admin: %w", err)
	}

	s.recorder.Record(audit.Entry{
		TenantID: rbac.GlobalTenantID,
		UserID:   user.ID,
		UserRole: user.Role,
		Action:   audit.ActionUserCreate,
		Resource: audit.Resource{
			Type: "user",
			ID:   user.ID,
			Name: user.Email,
		},
	})

	return s.createSession(ctx, user)
}

// Login authenticates by email and password. Unknown email and wrong
// password produce byte-identical responses, and both paths run a full
// argon2 verification.
func (s *Service) Login(
	ctx context.Context,
	req LoginRequest,
) (*AuthResponse, error) {
	user, err := s.users.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			//nolint:errcheck // timing attack prevention, always verify
			_, _ = core.VerifyPasswordTimingSafe(req.Password, nil)
			s.recordLoginFailure(rbac.GlobalTenantID, "", "", req.Email, "unknown email")
			return nil, core.InvalidCredentialsError()
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	valid, err := core.VerifyPasswordTimingSafe(req.Password, &user.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("verify password: %w", err)
	}
	if !valid {
		s.recordLoginFailure(
			user.TenantID,
			user.ID,
			string(user.Role),
			req.Email,
			"wrong password",
		)
		return nil, core.InvalidCredentialsError()
	}

	if user.Status != statusActive {
		s.recordLoginFailure(
			user.TenantID,
			user.ID,
			string(user.Role),
			req.Email,
			"account not active",
		)
		return nil, core.AccountInactiveError()
	}

	if err := s.requireActiveTenant(ctx, user); err != nil {
		s.recordLoginFailure(
			user.TenantID,
			user.ID,
			string(user.Role),
			req.Email,
			"tenant not active",
		)
		return nil, err
	}

	//nolint:errcheck // best-effort last-login bookkeeping
	_ = s.users.UpdateLastLogin(ctx, user.ID)

	resp, err := s.createSession(ctx, user)
	if err != nil {
		return nil, err
	}

	s.recorder.Record(audit.Entry{
		TenantID: user.TenantID,
		UserID:   user.ID,
		UserRole: user.Role,
		Action:   audit.ActionLogin,
		Resource: audit.Resource{
			Type: "session",
			ID:   user.ID,
			Name: user.Email,
		},
	})

	return resp, nil
}

// Refresh rotates a refresh token. The presented token must be registered:
// a well-signed token whose hash is absent has already been rotated or
// revoked, and reusing it is treated as a security event. The whole
// remove-and-replace runs under a per-user row lock so concurrent attempts
// with the same token have exactly one winner.
func (s *Service) Refresh(
	ctx context.Context,
	refreshToken string,
) (*AuthResponse, error) {
	userID, err := s.jwt.VerifyRefreshToken(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, core.ErrTokenExpired) {
			return nil, core.TokenExpiredError()
		}
		return nil, core.TokenInvalidError()
	}

	// Role, tenant and status are re-read; nothing from the old token chain
	// carries forward into the new access token.
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return nil, core.UserNotFoundError()
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	if user.Status != statusActive {
		return nil, core.AccountInactiveError()
	}

	if err := s.requireActiveTenant(ctx, user); err != nil {
		return nil, err
	}

	tokenHash := core.HashToken(refreshToken)

	var newRefresh *RefreshTokenData

	err = s.registry.Run(ctx, func(txRepo Repository) error {
		if err := txRepo.LockUser(ctx, user.ID); err != nil {
			return err
		}

		stored, err := txRepo.FindByHash(ctx, tokenHash)
		if err != nil {
			if errors.Is(err, core.ErrNotFound) {
				return core.ErrTokenRevoked
			}
			return err
		}

		// The registry record can be tighter than the token's own exp claim;
		// the stricter of the two wins.
		if stored.Expired() {
			//nolint:errcheck // expired record cleanup, rotation fails anyway
			_, _ = txRepo.DeleteByHash(ctx, tokenHash, user.ID)
			return core.ErrTokenExpired
		}

		if _, err := txRepo.DeleteByHash(ctx, tokenHash, user.ID); err != nil {
			return err
		}

		newRefresh, err = s.jwt.CreateRefreshToken(user.ID)
		if err != nil {
			return err
		}

		record := &RefreshTokenRecord{
			ID:        uuid.New().String(),
			UserID:    user.ID,
			TokenHash: newRefresh.Hash,
			IssuedAt:  newRefresh.IssuedAt,
			ExpiresAt: newRefresh.ExpiresAt,
		}

		if err := txRepo.Insert(ctx, record); err != nil {
			return err
		}

		if _, err := txRepo.TrimToCap(ctx, user.ID, s.sessionCap); err != nil {
			return err
		}

		return nil
	})
	if err != nil {
		if errors.Is(err, core.ErrTokenRevoked) {
			s.recorder.Record(audit.Entry{
				TenantID:     user.TenantID,
				UserID:       user.ID,
				UserRole:     user.Role,
				Action:       audit.ActionTokenRevoked,
				Resource:     audit.Resource{Type: "session", ID: user.ID},
				Status:       audit.StatusWarning,
				ErrorMessage: "refresh token reuse detected",
			})
			return nil, core.TokenRevokedError()
		}
		if errors.Is(err, core.ErrTokenExpired) {
			return nil, core.TokenExpiredError()
		}
		return nil, fmt.Errorf("rotate refresh token: %w", err)
	}

	// A successful rotation is session activity, the same as a login.
	//nolint:errcheck // best-effort last-login bookkeeping
	_ = s.users.UpdateLastLogin(ctx, user.ID)

	accessToken, err := s.jwt.CreateAccessToken(rbac.AccessClaims{
		UserID:   user.ID,
		TenantID: user.TenantID,
		Email:    user.Email,
		Role:     user.Role,
	})
	if err != nil {
		return nil, fmt.Errorf("create access token: %w", err)
	}

	s.recorder.Record(audit.Entry{
		TenantID: user.TenantID,
		UserID:   user.ID,
		UserRole: user.Role,
		Action:   audit.ActionTokenRefresh,
		Resource: audit.Resource{Type: "session", ID: user.ID},
	})

	return s.buildAuthResponse(user, accessToken, newRefresh.Token), nil
}

// Logout removes the presented session. A token that is already gone, or
// that belongs to someone else, is a success no-op: logout is idempotent.
func (s *Service) Logout(
	ctx context.Context,
	principal rbac.Principal,
	refreshToken string,
) error {
	tokenHash := core.HashToken(refreshToken)

	if _, err := s.repo.DeleteByHash(ctx, tokenHash, principal.UserID); err != nil {
		return fmt.Errorf("delete refresh token: %w", err)
	}

	s.recorder.Record(audit.Entry{
		TenantID: principal.TenantID,
		UserID:   principal.UserID,
		UserRole: principal.Role,
		Action:   audit.ActionLogout,
		Resource: audit.Resource{
			Type: "session",
			ID:   principal.UserID,
			Name: principal.Email,
		},
	})

	return nil
}

// LogoutAll clears the user's whole session registry. Suspension flows call
// this so a suspended user cannot refresh their way back in.
func (s *Service) LogoutAll(ctx context.Context, userID string) error {
	if _, err := s.repo.DeleteAllForUser(ctx, userID); err != nil {
		return fmt.Errorf("delete all refresh tokens: %w", err)
	}

	return nil
}

func (s *Service) requireActiveTenant(
	ctx context.Context,
	user *Identity,
) error {
	if user.Role == rbac.RoleSuperAdmin {
		return nil
	}

	status, err := s.tenants.TenantStatus(ctx, user.TenantID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return core.TenantNotFoundError()
		}
		return fmt.Errorf("get tenant status: %w", err)
	}

	if status != statusActive {
		return core.TenantInactiveError()
	}

	return nil
}

func (s *Service) createSession(
	ctx context.Context,
	user *Identity,
) (*AuthResponse, error) {
	accessToken, err := s.jwt.CreateAccessToken(rbac.AccessClaims{
		UserID:   user.ID,
		TenantID: user.TenantID,
		Email:    user.Email,
		Role:     user.Role,
	})
	if err != nil {
		return nil, fmt.Errorf("create access token: %w", err)
	}

	refresh, err := s.jwt.CreateRefreshToken(user.ID)
	if err != nil {
		return nil, fmt.Errorf("create refresh token: %w", err)
	}

	record := &RefreshTokenRecord{
		ID:        uuid.New().String(),
		UserID:    user.ID,
		TokenHash: refresh.Hash,
		IssuedAt:  refresh.IssuedAt,
		ExpiresAt: refresh.ExpiresAt,
	}

	err = s.registry.Run(ctx, func(txRepo Repository) error {
		if err := txRepo.LockUser(ctx, user.ID); err != nil {
			return err
		}

		if err := txRepo.Insert(ctx, record); err != nil {
			return err
		}

		if _, err := txRepo.TrimToCap(ctx, user.ID, s.sessionCap); err != nil {
			return err
		}

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("store refresh token: %w", err)
	}

	return s.buildAuthResponse(user, accessToken, refresh.Token), nil
}

func (s *Service) buildAuthResponse(
	user *Identity,
	accessToken, refreshToken string,
) *AuthResponse {
	ttl := s.jwt.AccessTokenTTL()

	return &AuthResponse{
		User: UserResponse{
			ID:       user.ID,
			TenantID: user.TenantID,
			Email:    user.Email,
			Role:     user.Role,
			Status:   user.Status,
		},
		Tokens: TokenResponse{
			AccessToken:  accessToken,
			RefreshToken: refreshToken,
			TokenType:    "Bearer",
			ExpiresIn:    int(ttl / time.Second),
			ExpiresAt:    time.Now().Add(ttl),
		},
	}
}

func (s *Service) recordLoginFailure(
	tenantID, userID, role, email, reason string,
) {
	s.recorder.Record(audit.Entry{
		TenantID:     tenantID,
		UserID:       userID,
		UserRole:     rbac.Role(role),
		Action:       audit.ActionLoginFailed,
		Resource:     audit.Resource{Type: "session", Name: email},
		Status:       audit.StatusFailure,
		ErrorMessage: reason,
	})
}
