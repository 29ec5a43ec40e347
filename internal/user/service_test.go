// KaungMyatLinn | 2026
// service_test.go

package user_test

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kaungmyat1inn/digitalmartpos/internal/audit"
	"github.com/kaungmyat1inn/digitalmartpos/internal/core"
	"github.com/kaungmyat1inn/digitalmartpos/internal/rbac"
	"github.com/kaungmyat1inn/digitalmartpos/internal/user"
)

type fakeUserRepo struct {
	users map[string]*user.User
}

func newFakeUserRepo(users ...*user.User) *fakeUserRepo {
	repo := &fakeUserRepo{users: make(map[string]*user.User)}
	for _, u := range users {
		repo.users[u.ID] = u
	}
	return repo
}

func (f *fakeUserRepo) Create(_ context.Context, u *user.User) error {
	for _, existing := range f.users {
		if existing.TenantID == u.TenantID && existing.Email == u.Email {
			return core.ErrDuplicateKey
		}
	}
	f.users[u.ID] = u
	return nil
}

func (f *fakeUserRepo) GetByID(_ context.Context, id string) (*user.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, core.ErrNotFound
	}
	copied := *u
	return &copied, nil
}

func (f *fakeUserRepo) GetByEmail(
	_ context.Context,
	email string,
) (*user.User, error) {
	for _, u := range f.users {
		if u.Email == email {
			copied := *u
			return &copied, nil
		}
	}
	return nil, core.ErrNotFound
}

func (f *fakeUserRepo) GetByTenantAndEmail(
	_ context.Context,
	tenantID, email string,
) (*user.User, error) {
	for _, u := range f.users {
		if u.TenantID == tenantID && u.Email == email {
			copied := *u
			return &copied, nil
		}
	}
	return nil, core.ErrNotFound
}

func (f *fakeUserRepo) UpdateStatus(_ context.Context, id, status string) error {
	u, ok := f.users[id]
	if !ok {
		return core.ErrNotFound
	}
	u.Status = status
	return nil
}

func (f *fakeUserRepo) UpdateLastLogin(_ context.Context, id string) error {
	if _, ok := f.users[id]; !ok {
		return core.ErrNotFound
	}
	return nil
}

func (f *fakeUserRepo) SoftDelete(_ context.Context, id string) error {
	if _, ok := f.users[id]; !ok {
		return core.ErrNotFound
	}
	delete(f.users, id)
	return nil
}

func (f *fakeUserRepo) List(
	_ context.Context,
	tenantID string,
	_ user.ListUsersParams,
) ([]user.User, int, error) {
	var out []user.User
	for _, u := range f.users {
		if u.TenantID == tenantID {
			out = append(out, *u)
		}
	}
	return out, len(out), nil
}

func (f *fakeUserRepo) SuperAdminExists(context.Context) (bool, error) {
	for _, u := range f.users {
		if u.Role == rbac.RoleSuperAdmin {
			return true, nil
		}
	}
	return false, nil
}

type fakePerms struct {
	perms map[string]rbac.StaffPermissions
	err   error
}

func (f *fakePerms) PermissionsFor(
	_ context.Context,
	userID string,
) (rbac.StaffPermissions, error) {
	if f.err != nil {
		return rbac.StaffPermissions{}, f.err
	}
	return f.perms[userID], nil
}

type fakeSessions struct {
	revoked map[string]int
}

func (f *fakeSessions) DeleteAllForUser(
	_ context.Context,
	userID string,
) (int64, error) {
	if f.revoked == nil {
		f.revoked = make(map[string]int)
	}
	f.revoked[userID]++
	return 1, nil
}

type nullAuditRepo struct{}

func (nullAuditRepo) Append(context.Context, *audit.Entry) error { return nil }

func (nullAuditRepo) ListByTenant(
	context.Context,
	string,
	int,
	int,
) ([]audit.Entry, error) {
	return nil, nil
}

func (nullAuditRepo) CountByTenant(context.Context, string) (int64, error) {
	return 0, nil
}

type fixture struct {
	repo     *fakeUserRepo
	perms    *fakePerms
	sessions *fakeSessions
	svc      *user.Service
}

func newFixture(t *testing.T, users ...*user.User) *fixture {
	t.Helper()

	repo := newFakeUserRepo(users...)
	perms := &fakePerms{perms: make(map[string]rbac.StaffPermissions)}
	sessions := &fakeSessions{}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	recorder := audit.NewRecorder(nullAuditRepo{}, nil, 8, logger)
	t.Cleanup(recorder.Close)

	return &fixture{
		repo:     repo,
		perms:    perms,
		sessions: sessions,
		svc:      user.NewService(repo, perms, sessions, recorder),
	}
}

func errorCode(t *testing.T, err error) string {
	t.Helper()
	appErr, ok := core.AsAppError(err)
	require.True(t, ok, "expected AppError, got %v", err)
	return appErr.Code
}

var admin = rbac.Principal{
	UserID:   "admin-1",
	TenantID: "shop-1",
	Role:     rbac.RoleShopAdmin,
	Status:   "active",
}

func TestCreate(t *testing.T) {
	fix := newFixture(t)

	view, err := fix.svc.Create(context.Background(), admin, "shop-1",
		user.CreateUserRequest{
			Email:    "Cashier@Shop.Example",
			Password: "long-enough-pass",
			Role:     "staff",
		})
	require.NoError(t, err)

	assert.Equal(t, "shop-1", view.TenantID)
	assert.Equal(t, "cashier@shop.example", view.Email)
	assert.Equal(t, rbac.RoleStaff, view.Role)
	assert.Equal(t, user.StatusActive, view.Status)

	// The stored password is hashed, never the raw value.
	stored := fix.repo.users[view.ID]
	assert.NotEqual(t, "long-enough-pass", stored.PasswordHash)
	assert.NotEmpty(t, stored.PasswordHash)
}

func TestCreate_RejectsSuperAdminRole(t *testing.T) {
	fix := newFixture(t)

	_, err := fix.svc.Create(context.Background(), admin, "shop-1",
		user.CreateUserRequest{
			Email:    "root@example.com",
			Password: "long-enough-pass",
			Role:     "super_admin",
		})
	assert.Equal(t, "VALIDATION_ERROR", errorCode(t, err))
}

func TestCreate_RejectsGlobalTenant(t *testing.T) {
	fix := newFixture(t)

	_, err := fix.svc.Create(context.Background(), admin, rbac.GlobalTenantID,
		user.CreateUserRequest{
			Email:    "cashier@shop.example",
			Password: "long-enough-pass",
			Role:     "staff",
		})
	assert.Equal(t, "VALIDATION_ERROR", errorCode(t, err))
}

func TestCreate_DuplicateEmail(t *testing.T) {
	fix := newFixture(t, &user.User{
		ID:       "existing",
		TenantID: "shop-1",
		Email:    "cashier@shop.example",
		Role:     rbac.RoleStaff,
		Status:   user.StatusActive,
	})

	_, err := fix.svc.Create(context.Background(), admin, "shop-1",
		user.CreateUserRequest{
			Email:    "cashier@shop.example",
			Password: "long-enough-pass",
			Role:     "staff",
		})
	assert.Equal(t, "DUPLICATE", errorCode(t, err))
}

func TestGet_ForeignTenantLooksAbsent(t *testing.T) {
	fix := newFixture(t, &user.User{
		ID:       "user-1",
		TenantID: "shop-2",
		Email:    "cashier@shop.example",
		Role:     rbac.RoleStaff,
		Status:   user.StatusActive,
	})

	_, err := fix.svc.Get(context.Background(), "shop-1", "user-1")
	assert.ErrorIs(t, err, core.ErrNotFound)

	view, err := fix.svc.Get(context.Background(), "shop-2", "user-1")
	require.NoError(t, err)
	assert.Equal(t, "user-1", view.ID)
}

func TestSuspend_RevokesSessions(t *testing.T) {
	fix := newFixture(t, &user.User{
		ID:       "user-1",
		TenantID: "shop-1",
		Email:    "cashier@shop.example",
		Role:     rbac.RoleStaff,
		Status:   user.StatusActive,
	})

	require.NoError(t, fix.svc.Suspend(context.Background(), "shop-1", "user-1"))

	assert.Equal(t, user.StatusSuspended, fix.repo.users["user-1"].Status)
	assert.Equal(t, 1, fix.sessions.revoked["user-1"])
}

func TestDelete_RevokesSessions(t *testing.T) {
	fix := newFixture(t, &user.User{
		ID:       "user-1",
		TenantID: "shop-1",
		Email:    "cashier@shop.example",
		Role:     rbac.RoleStaff,
		Status:   user.StatusActive,
	})

	require.NoError(t, fix.svc.Delete(context.Background(), "shop-1", "user-1"))

	_, ok := fix.repo.users["user-1"]
	assert.False(t, ok)
	assert.Equal(t, 1, fix.sessions.revoked["user-1"])
}

func TestSuspend_ForeignTenant(t *testing.T) {
	fix := newFixture(t, &user.User{
		ID:       "user-1",
		TenantID: "shop-2",
		Email:    "cashier@shop.example",
		Role:     rbac.RoleStaff,
		Status:   user.StatusActive,
	})

	err := fix.svc.Suspend(context.Background(), "shop-1", "user-1")
	assert.ErrorIs(t, err, core.ErrNotFound)
	assert.Zero(t, fix.sessions.revoked["user-1"])
}

func TestLoadPrincipal_StaffGetsPermissionFlags(t *testing.T) {
	fix := newFixture(t, &user.User{
		ID:       "user-1",
		TenantID: "shop-1",
		Email:    "cashier@shop.example",
		Role:     rbac.RoleStaff,
		Status:   user.StatusActive,
	})
	fix.perms.perms["user-1"] = rbac.StaffPermissions{
		CanManageSales: true,
		CanRefund:      true,
	}

	principal, err := fix.svc.LoadPrincipal(context.Background(), "user-1")
	require.NoError(t, err)

	assert.Equal(t, rbac.RoleStaff, principal.Role)
	assert.True(t, principal.Permissions.CanManageSales)
	assert.True(t, principal.Permissions.CanRefund)
	assert.False(t, principal.Permissions.CanManageStaff)
}

func TestLoadPrincipal_MissingStaffProfileIsEmptyPermissions(t *testing.T) {
	fix := newFixture(t, &user.User{
		ID:       "user-1",
		TenantID: "shop-1",
		Email:    "cashier@shop.example",
		Role:     rbac.RoleStaff,
		Status:   user.StatusActive,
	})
	fix.perms.err = core.ErrNotFound

	principal, err := fix.svc.LoadPrincipal(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, rbac.StaffPermissions{}, principal.Permissions)
}

func TestLoadPrincipal_AdminSkipsPermissionLookup(t *testing.T) {
	fix := newFixture(t, &user.User{
		ID:       "admin-1",
		TenantID: "shop-1",
		Email:    "owner@shop.example",
		Role:     rbac.RoleShopAdmin,
		Status:   user.StatusActive,
	})
	// A lookup failure would surface if the service consulted it.
	fix.perms.err = assert.AnError

	principal, err := fix.svc.LoadPrincipal(context.Background(), "admin-1")
	require.NoError(t, err)
	assert.Equal(t, rbac.RoleShopAdmin, principal.Role)
}
