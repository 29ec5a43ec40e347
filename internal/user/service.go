// KaungMyatLinn | 2026
// service.go

package user

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/kaungmyat1inn/digitalmartpos/internal/audit"
	"github.com/kaungmyat1inn/digitalmartpos/internal/auth"
	"github.com/kaungmyat1inn/digitalmartpos/internal/core"
	"github.com/kaungmyat1inn/digitalmartpos/internal/rbac"
)

// PermissionsProvider looks up the fine-grained flags for a staff user. The
// staff package implements it; non-staff roles never consult it.
type PermissionsProvider interface {
	PermissionsFor(
		ctx context.Context,
		userID string,
	) (rbac.StaffPermissions, error)
}

// SessionRegistry is the slice of the auth repository needed to revoke
// sessions when an account is suspended or deleted.
type SessionRegistry interface {
	DeleteAllForUser(ctx context.Context, userID string) (int64, error)
}

type Service struct {
	repo     Repository
	perms    PermissionsProvider
	sessions SessionRegistry
	recorder *audit.Recorder
}

func NewService(
	repo Repository,
	perms PermissionsProvider,
	sessions SessionRegistry,
	recorder *audit.Recorder,
) *Service {
	return &Service{
		repo:     repo,
		perms:    perms,
		sessions: sessions,
		recorder: recorder,
	}
}

// Create adds a shop_admin or staff user inside a tenant. Super admins are
// never created here; the one-time setup flow owns that.
func (s *Service) Create(
	ctx context.Context,
	principal rbac.Principal,
	tenantID string,
	req CreateUserRequest,
) (*UserView, error) {
	role := rbac.Role(req.Role)
	if !role.Valid() || role == rbac.RoleSuperAdmin {
		return nil, core.ValidationError("role must be shop_admin or staff")
	}
	if tenantID == rbac.GlobalTenantID {
		return nil, core.ValidationError(
			"users cannot be created in the global tenant",
		)
	}

	passwordHash, err := core.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	created := &User{
		ID:           uuid.New().String(),
		TenantID:     tenantID,
		Email:        strings.ToLower(req.Email),
		PasswordHash: passwordHash,
		Role:         role,
		Status:       StatusActive,
	}

	if err := s.repo.Create(ctx, created); err != nil {
		if errors.Is(err, core.ErrDuplicateKey) {
			return nil, core.DuplicateError("email")
		}
		return nil, err
	}

	s.recorder.Record(audit.Entry{
		TenantID: tenantID,
		UserID:   principal.UserID,
		UserRole: principal.Role,
		Action:   audit.ActionUserCreate,
		Resource: audit.Resource{
			Type: "user",
			ID:   created.ID,
			Name: created.Email,
		},
	})

	view := toView(created)
	return &view, nil
}

func (s *Service) Get(
	ctx context.Context,
	tenantID, userID string,
) (*UserView, error) {
	u, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	// A user fetched through another tenant's scope does not exist as far as
	// the caller is concerned.
	if u.TenantID != tenantID {
		return nil, fmt.Errorf("get user: %w", core.ErrNotFound)
	}

	view := toView(u)
	return &view, nil
}

func (s *Service) List(
	ctx context.Context,
	tenantID string,
	params ListUsersParams,
) (*ListUsersResponse, error) {
	users, total, err := s.repo.List(ctx, tenantID, params)
	if err != nil {
		return nil, err
	}

	views := make([]UserView, 0, len(users))
	for i := range users {
		views = append(views, toView(&users[i]))
	}

	return &ListUsersResponse{
		Users:    views,
		Total:    total,
		Page:     params.Page,
		PageSize: params.PageSize,
	}, nil
}

// Activate restores a suspended or inactive account.
func (s *Service) Activate(
	ctx context.Context,
	principal rbac.Principal,
	tenantID, userID string,
) error {
	u, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if u.TenantID != tenantID {
		return fmt.Errorf("activate user: %w", core.ErrNotFound)
	}

	if err := s.repo.UpdateStatus(ctx, userID, StatusActive); err != nil {
		return err
	}

	s.recorder.Record(audit.Entry{
		TenantID: tenantID,
		UserID:   principal.UserID,
		UserRole: principal.Role,
		Action:   audit.ActionUserActivate,
		Resource: audit.Resource{
			Type: "user",
			ID:   u.ID,
			Name: u.Email,
		},
	})

	return nil
}

// Suspend flips the account to suspended and clears its session registry so
// outstanding refresh tokens die with it. Callers record their own audit
// action for the suspension.
func (s *Service) Suspend(
	ctx context.Context,
	tenantID, userID string,
) error {
	u, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if u.TenantID != tenantID {
		return fmt.Errorf("suspend user: %w", core.ErrNotFound)
	}

	if err := s.repo.UpdateStatus(ctx, userID, StatusSuspended); err != nil {
		return err
	}

	if _, err := s.sessions.DeleteAllForUser(ctx, userID); err != nil {
		return fmt.Errorf("revoke sessions: %w", err)
	}

	return nil
}

// Delete soft-deletes the account and clears its sessions.
func (s *Service) Delete(
	ctx context.Context,
	tenantID, userID string,
) error {
	u, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if u.TenantID != tenantID {
		return fmt.Errorf("delete user: %w", core.ErrNotFound)
	}

	if err := s.repo.SoftDelete(ctx, userID); err != nil {
		return err
	}

	if _, err := s.sessions.DeleteAllForUser(ctx, userID); err != nil {
		return fmt.Errorf("revoke sessions: %w", err)
	}

	return nil
}

// LoadPrincipal builds the per-request identity. Called on every
// authenticated request, so role and status changes take effect immediately
// rather than at token expiry.
func (s *Service) LoadPrincipal(
	ctx context.Context,
	userID string,
) (rbac.Principal, error) {
	u, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return rbac.Principal{}, err
	}

	principal := rbac.Principal{
		UserID:   u.ID,
		TenantID: u.TenantID,
		Email:    u.Email,
		Role:     u.Role,
		Status:   u.Status,
	}

	if u.Role == rbac.RoleStaff {
		perms, err := s.perms.PermissionsFor(ctx, u.ID)
		if err != nil && !errors.Is(err, core.ErrNotFound) {
			return rbac.Principal{}, err
		}
		principal.Permissions = perms
	}

	return principal, nil
}

func (s *Service) GetByEmail(
	ctx context.Context,
	email string,
) (*auth.Identity, error) {
	u, err := s.repo.GetByEmail(ctx, strings.ToLower(email))
	if err != nil {
		return nil, err
	}

	return toIdentity(u), nil
}

func (s *Service) GetByID(
	ctx context.Context,
	id string,
) (*auth.Identity, error) {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	return toIdentity(u), nil
}

func (s *Service) CreateSuperAdmin(
	ctx context.Context,
	email, passwordHash string,
) (*auth.Identity, error) {
	u := &User{
		ID:           uuid.New().String(),
		TenantID:     rbac.GlobalTenantID,
		Email:        strings.ToLower(email),
		PasswordHash: passwordHash,
		Role:         rbac.RoleSuperAdmin,
		Status:       StatusActive,
	}

	if err := s.repo.Create(ctx, u); err != nil {
		return nil, err
	}

	return toIdentity(u), nil
}

func (s *Service) SuperAdminExists(ctx context.Context) (bool, error) {
	return s.repo.SuperAdminExists(ctx)
}

func (s *Service) UpdateLastLogin(ctx context.Context, userID string) error {
	return s.repo.UpdateLastLogin(ctx, userID)
}

func toIdentity(u *User) *auth.Identity {
	return &auth.Identity{
		ID:           u.ID,
		TenantID:     u.TenantID,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		Role:         u.Role,
		Status:       u.Status,
	}
}

var (
	_ auth.IdentityStore   = (*Service)(nil)
	_ rbac.PrincipalLoader = (*Service)(nil)
)
