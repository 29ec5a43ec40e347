// KaungMyatLinn | 2026
// service_test.go

package tenant_test

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kaungmyat1inn/digitalmartpos/internal/audit"
	"github.com/kaungmyat1inn/digitalmartpos/internal/core"
	"github.com/kaungmyat1inn/digitalmartpos/internal/rbac"
	"github.com/kaungmyat1inn/digitalmartpos/internal/tenant"
	"github.com/kaungmyat1inn/digitalmartpos/internal/user"
)

type fakeRepo struct {
	tenants map[string]*tenant.Tenant
}

func newFakeRepo(tenants ...*tenant.Tenant) *fakeRepo {
	repo := &fakeRepo{tenants: make(map[string]*tenant.Tenant)}
	for _, t := range tenants {
		repo.tenants[t.ID] = t
	}
	return repo
}

func (f *fakeRepo) Create(_ context.Context, t *tenant.Tenant) error {
	if _, ok := f.tenants[t.ID]; ok {
		return core.ErrDuplicateKey
	}
	f.tenants[t.ID] = t
	return nil
}

func (f *fakeRepo) GetByID(_ context.Context, id string) (*tenant.Tenant, error) {
	t, ok := f.tenants[id]
	if !ok {
		return nil, core.ErrNotFound
	}
	copied := *t
	return &copied, nil
}

func (f *fakeRepo) GetStatus(_ context.Context, id string) (string, error) {
	t, ok := f.tenants[id]
	if !ok {
		return "", core.ErrNotFound
	}
	return t.Status, nil
}

func (f *fakeRepo) GetPlan(_ context.Context, id string) (string, error) {
	t, ok := f.tenants[id]
	if !ok {
		return "", core.ErrNotFound
	}
	return t.Plan, nil
}

func (f *fakeRepo) UpdateStatus(_ context.Context, id, status string) error {
	t, ok := f.tenants[id]
	if !ok {
		return core.ErrNotFound
	}
	t.Status = status
	return nil
}

func (f *fakeRepo) List(
	_ context.Context,
	limit, offset int,
) ([]tenant.Tenant, int, error) {
	var out []tenant.Tenant
	for _, t := range f.tenants {
		out = append(out, *t)
	}
	total := len(out)
	if offset > len(out) {
		offset = len(out)
	}
	out = out[offset:]
	if limit < len(out) {
		out = out[:limit]
	}
	return out, total, nil
}

type fakeUserRepo struct {
	byEmail map[string]*user.User
}

func newFakeUserRepo(users ...*user.User) *fakeUserRepo {
	repo := &fakeUserRepo{byEmail: make(map[string]*user.User)}
	for _, u := range users {
		repo.byEmail[u.Email] = u
	}
	return repo
}

func (f *fakeUserRepo) Create(_ context.Context, u *user.User) error {
	if _, ok := f.byEmail[u.Email]; ok {
		return fmt.Errorf("create user: %w", core.ErrDuplicateKey)
	}
	f.byEmail[u.Email] = u
	return nil
}

func (f *fakeUserRepo) GetByID(
	_ context.Context,
	_ string,
) (*user.User, error) {
	return nil, core.ErrNotFound
}

func (f *fakeUserRepo) GetByEmail(
	_ context.Context,
	email string,
) (*user.User, error) {
	u, ok := f.byEmail[email]
	if !ok {
		return nil, core.ErrNotFound
	}
	return u, nil
}

func (f *fakeUserRepo) GetByTenantAndEmail(
	_ context.Context,
	_, _ string,
) (*user.User, error) {
	return nil, core.ErrNotFound
}

func (f *fakeUserRepo) UpdateStatus(_ context.Context, _, _ string) error {
	return nil
}

func (f *fakeUserRepo) UpdateLastLogin(_ context.Context, _ string) error {
	return nil
}

func (f *fakeUserRepo) SoftDelete(_ context.Context, _ string) error {
	return nil
}

func (f *fakeUserRepo) List(
	_ context.Context,
	_ string,
	_ user.ListUsersParams,
) ([]user.User, int, error) {
	return nil, 0, nil
}

func (f *fakeUserRepo) SuperAdminExists(_ context.Context) (bool, error) {
	return false, nil
}

// fakeProvisionTx snapshots both fakes before fn and restores them on
// error, mirroring the rollback the real transaction gives provisioning.
type fakeProvisionTx struct {
	tenants *fakeRepo
	users   *fakeUserRepo
}

func (f *fakeProvisionTx) Run(
	_ context.Context,
	fn func(tenants tenant.Repository, users user.Repository) error,
) error {
	tenantSnap := make(map[string]*tenant.Tenant, len(f.tenants.tenants))
	for id, t := range f.tenants.tenants {
		tenantSnap[id] = t
	}
	userSnap := make(map[string]*user.User, len(f.users.byEmail))
	for email, u := range f.users.byEmail {
		userSnap[email] = u
	}

	if err := fn(f.tenants, f.users); err != nil {
		f.tenants.tenants = tenantSnap
		f.users.byEmail = userSnap
		return err
	}

	return nil
}

type captureAuditRepo struct {
	mu      sync.Mutex
	entries []audit.Entry
}

func (c *captureAuditRepo) Append(_ context.Context, entry *audit.Entry) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = append(c.entries, *entry)
	return nil
}

func (c *captureAuditRepo) ListByTenant(
	context.Context,
	string,
	int,
	int,
) ([]audit.Entry, error) {
	return nil, nil
}

func (c *captureAuditRepo) CountByTenant(
	context.Context,
	string,
) (int64, error) {
	return 0, nil
}

func (c *captureAuditRepo) all() []audit.Entry {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]audit.Entry(nil), c.entries...)
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

func newTestService(t *testing.T, repo tenant.Repository) *tenant.Service {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	recorder := audit.NewRecorder(nullAuditRepo{}, nil, 8, logger)
	t.Cleanup(recorder.Close)

	// nil provisioner is fine here: these tests never reach the
	// transactional provisioning path.
	return tenant.NewService(nil, repo, recorder)
}

type provisionFixture struct {
	svc      *tenant.Service
	tenants  *fakeRepo
	users    *fakeUserRepo
	audits   *captureAuditRepo
	recorder *audit.Recorder
}

func newProvisionFixture(
	t *testing.T,
	existing ...*user.User,
) *provisionFixture {
	t.Helper()

	tenants := newFakeRepo()
	users := newFakeUserRepo(existing...)
	audits := &captureAuditRepo{}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	recorder := audit.NewRecorder(audits, nil, 8, logger)
	t.Cleanup(recorder.Close)

	svc := tenant.NewService(
		&fakeProvisionTx{tenants: tenants, users: users},
		tenants,
		recorder,
	)

	return &provisionFixture{
		svc:      svc,
		tenants:  tenants,
		users:    users,
		audits:   audits,
		recorder: recorder,
	}
}

var platformAdmin = rbac.Principal{
	UserID:   "root-1",
	TenantID: rbac.GlobalTenantID,
	Role:     rbac.RoleSuperAdmin,
}

func TestCreateWithAdmin(t *testing.T) {
	fix := newProvisionFixture(t)

	resp, err := fix.svc.CreateWithAdmin(
		context.Background(),
		platformAdmin,
		tenant.CreateTenantRequest{
			Name:          "Corner Shop",
			Plan:          tenant.PlanBasic,
			AdminEmail:    "Admin@Corner.Test",
			AdminPassword: "supersecret1",
		},
	)
	require.NoError(t, err)

	assert.Equal(t, tenant.StatusActive, resp.Tenant.Status)
	assert.Equal(t, "admin@corner.test", resp.AdminEmail)

	stored, err := fix.tenants.GetByID(context.Background(), resp.Tenant.ID)
	require.NoError(t, err)
	assert.Equal(t, "Corner Shop", stored.Name)

	admin, ok := fix.users.byEmail["admin@corner.test"]
	require.True(t, ok)
	assert.Equal(t, resp.Tenant.ID, admin.TenantID)
	assert.Equal(t, rbac.RoleShopAdmin, admin.Role)

	fix.recorder.Close()
	entries := fix.audits.all()
	require.Len(t, entries, 2)
	assert.Equal(t, audit.ActionTenantCreate, entries[0].Action)
	assert.Equal(t, audit.ActionUserCreate, entries[1].Action)
	assert.Equal(t, resp.Tenant.ID, entries[0].TenantID)
}

func TestCreateWithAdmin_DuplicateEmailRollsBackTenant(t *testing.T) {
	fix := newProvisionFixture(t, &user.User{
		ID:     "user-1",
		Email:  "admin@corner.test",
		Role:   rbac.RoleShopAdmin,
		Status: user.StatusActive,
	})

	_, err := fix.svc.CreateWithAdmin(
		context.Background(),
		platformAdmin,
		tenant.CreateTenantRequest{
			Name:          "Corner Shop",
			Plan:          tenant.PlanBasic,
			AdminEmail:    "admin@corner.test",
			AdminPassword: "supersecret1",
		},
	)
	require.Error(t, err)

	appErr, ok := core.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, "DUPLICATE", appErr.Code)

	// Both or neither: the admin failed, so no tenant row survives.
	assert.Empty(t, fix.tenants.tenants)

	fix.recorder.Close()
	entries := fix.audits.all()
	require.Len(t, entries, 1)
	assert.Equal(t, audit.ActionTenantCreate, entries[0].Action)
	assert.Equal(t, audit.StatusFailure, entries[0].Status)
	assert.NotEmpty(t, entries[0].ErrorMessage)
}

func TestCreateWithAdmin_UnknownPlan(t *testing.T) {
	fix := newProvisionFixture(t)

	_, err := fix.svc.CreateWithAdmin(
		context.Background(),
		platformAdmin,
		tenant.CreateTenantRequest{
			Name:          "Corner Shop",
			Plan:          "platinum",
			AdminEmail:    "admin@corner.test",
			AdminPassword: "supersecret1",
		},
	)
	require.Error(t, err)

	appErr, ok := core.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, "VALIDATION_ERROR", appErr.Code)

	fix.recorder.Close()
	entries := fix.audits.all()
	require.Len(t, entries, 1)
	assert.Equal(t, audit.StatusFailure, entries[0].Status)
}

func TestTransition(t *testing.T) {
	ctx := context.Background()
	repo := newFakeRepo(&tenant.Tenant{
		ID:     "shop-1",
		Name:   "Shop One",
		Status: tenant.StatusActive,
		Plan:   tenant.PlanBasic,
	})
	svc := newTestService(t, repo)

	require.NoError(t, svc.Transition(ctx, "shop-1", tenant.StatusSuspended))

	status, err := repo.GetStatus(ctx, "shop-1")
	require.NoError(t, err)
	assert.Equal(t, tenant.StatusSuspended, status)
}

func TestTransition_InvalidMove(t *testing.T) {
	ctx := context.Background()
	repo := newFakeRepo(&tenant.Tenant{
		ID:     "shop-1",
		Status: tenant.StatusCancelled,
		Plan:   tenant.PlanBasic,
	})
	svc := newTestService(t, repo)

	err := svc.Transition(ctx, "shop-1", tenant.StatusActive)
	require.Error(t, err)

	appErr, ok := core.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, "VALIDATION_ERROR", appErr.Code)

	// The stored status is untouched.
	status, err := repo.GetStatus(ctx, "shop-1")
	require.NoError(t, err)
	assert.Equal(t, tenant.StatusCancelled, status)
}

func TestTransition_UnknownTenant(t *testing.T) {
	svc := newTestService(t, newFakeRepo())

	err := svc.Transition(context.Background(), "nope", tenant.StatusActive)
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestGet(t *testing.T) {
	repo := newFakeRepo(&tenant.Tenant{
		ID:     "shop-1",
		Name:   "Shop One",
		Status: tenant.StatusActive,
		Plan:   tenant.PlanPro,
	})
	svc := newTestService(t, repo)

	view, err := svc.Get(context.Background(), "shop-1")
	require.NoError(t, err)
	assert.Equal(t, "shop-1", view.ID)
	assert.Equal(t, "Shop One", view.Name)
	assert.Equal(t, tenant.PlanPro, view.Plan)
}

func TestList_ClampsPagination(t *testing.T) {
	repo := newFakeRepo(&tenant.Tenant{
		ID:     "shop-1",
		Status: tenant.StatusActive,
		Plan:   tenant.PlanBasic,
	})
	svc := newTestService(t, repo)

	resp, err := svc.List(context.Background(), 0, -5)
	require.NoError(t, err)
	assert.Equal(t, 20, resp.Limit)
	assert.Equal(t, 0, resp.Offset)
	assert.Equal(t, 1, resp.Total)

	resp, err = svc.List(context.Background(), 500, 0)
	require.NoError(t, err)
	assert.Equal(t, 20, resp.Limit)
}

func TestTenantPlan(t *testing.T) {
	repo := newFakeRepo(&tenant.Tenant{
		ID:     "shop-1",
		Status: tenant.StatusActive,
		Plan:   tenant.PlanEnterprise,
	})
	svc := newTestService(t, repo)

	plan, err := svc.TenantPlan(context.Background(), "shop-1")
	require.NoError(t, err)
	assert.Equal(t, tenant.PlanEnterprise, plan)

	_, err = svc.TenantPlan(context.Background(), "missing")
	assert.ErrorIs(t, err, core.ErrNotFound)
}
