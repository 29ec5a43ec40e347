// KaungMyatLinn | 2026
// service_test.go

package auth_test

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kaungmyat1inn/digitalmartpos/internal/audit"
	"github.com/kaungmyat1inn/digitalmartpos/internal/auth"
	"github.com/kaungmyat1inn/digitalmartpos/internal/config"
	"github.com/kaungmyat1inn/digitalmartpos/internal/core"
	"github.com/kaungmyat1inn/digitalmartpos/internal/events"
	"github.com/kaungmyat1inn/digitalmartpos/internal/rbac"
)

func errorCode(t *testing.T, err error) string {
	t.Helper()
	appErr, ok := core.AsAppError(err)
	require.True(t, ok, "expected an AppError, got %v", err)
	return appErr.Code
}

type fakeSessionRepo struct {
	mu      sync.Mutex
	records map[string]*auth.RefreshTokenRecord
}

func newFakeSessionRepo() *fakeSessionRepo {
	return &fakeSessionRepo{records: map[string]*auth.RefreshTokenRecord{}}
}

func (f *fakeSessionRepo) Insert(
	_ context.Context,
	record *auth.RefreshTokenRecord,
) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records[record.TokenHash] = record
	return nil
}

func (f *fakeSessionRepo) FindByHash(
	_ context.Context,
	tokenHash string,
) (*auth.RefreshTokenRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	record, ok := f.records[tokenHash]
	if !ok {
		return nil, fmt.Errorf("find refresh token: %w", core.ErrNotFound)
	}
	return record, nil
}

func (f *fakeSessionRepo) DeleteByHash(
	_ context.Context,
	tokenHash, userID string,
) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	record, ok := f.records[tokenHash]
	if !ok || record.UserID != userID {
		return false, nil
	}
	delete(f.records, tokenHash)
	return true, nil
}

func (f *fakeSessionRepo) DeleteAllForUser(
	_ context.Context,
	userID string,
) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var deleted int64
	for hash, record := range f.records {
		if record.UserID == userID {
			delete(f.records, hash)
			deleted++
		}
	}
	return deleted, nil
}

func (f *fakeSessionRepo) CountForUser(
	_ context.Context,
	userID string,
) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var count int64
	for _, record := range f.records {
		if record.UserID == userID {
			count++
		}
	}
	return count, nil
}

func (f *fakeSessionRepo) TrimToCap(
	_ context.Context,
	userID string,
	cap int,
) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var records []*auth.RefreshTokenRecord
	for _, record := range f.records {
		if record.UserID == userID {
			records = append(records, record)
		}
	}
	if len(records) <= cap {
		return 0, nil
	}

	// Newest first; everything past the cap is evicted.
	sort.Slice(records, func(i, j int) bool {
		return records[i].IssuedAt.After(records[j].IssuedAt)
	})

	var trimmed int64
	for _, record := range records[cap:] {
		delete(f.records, record.TokenHash)
		trimmed++
	}
	return trimmed, nil
}

func (f *fakeSessionRepo) LockUser(_ context.Context, _ string) error {
	return nil
}

// fakeRegistryTx hands the shared fake repository to fn; the fakes mutate
// in memory, so there is nothing to commit or roll back.
type fakeRegistryTx struct {
	repo auth.Repository
}

func (f *fakeRegistryTx) Run(
	_ context.Context,
	fn func(repo auth.Repository) error,
) error {
	return fn(f.repo)
}

type fakeIdentityStore struct {
	byEmail    map[string]*auth.Identity
	byID       map[string]*auth.Identity
	super      bool
	lastLogins map[string]int
}

func newFakeIdentityStore(users ...*auth.Identity) *fakeIdentityStore {
	store := &fakeIdentityStore{
		byEmail:    map[string]*auth.Identity{},
		byID:       map[string]*auth.Identity{},
		lastLogins: map[string]int{},
	}
	for _, u := range users {
		store.byEmail[u.Email] = u
		store.byID[u.ID] = u
	}
	return store
}

func (f *fakeIdentityStore) GetByEmail(
	_ context.Context,
	email string,
) (*auth.Identity, error) {
	user, ok := f.byEmail[email]
	if !ok {
		return nil, fmt.Errorf("get user: %w", core.ErrNotFound)
	}
	return user, nil
}

func (f *fakeIdentityStore) GetByID(
	_ context.Context,
	id string,
) (*auth.Identity, error) {
	user, ok := f.byID[id]
	if !ok {
		return nil, fmt.Errorf("get user: %w", core.ErrNotFound)
	}
	return user, nil
}

func (f *fakeIdentityStore) CreateSuperAdmin(
	_ context.Context,
	email, passwordHash string,
) (*auth.Identity, error) {
	return &auth.Identity{
		ID:           "root-1",
		TenantID:     rbac.GlobalTenantID,
		Email:        email,
		PasswordHash: passwordHash,
		Role:         rbac.RoleSuperAdmin,
		Status:       "active",
	}, nil
}

func (f *fakeIdentityStore) SuperAdminExists(_ context.Context) (bool, error) {
	return f.super, nil
}

func (f *fakeIdentityStore) UpdateLastLogin(
	_ context.Context,
	userID string,
) error {
	f.lastLogins[userID]++
	return nil
}

type staticGate map[string]string

func (g staticGate) TenantStatus(
	_ context.Context,
	tenantID string,
) (string, error) {
	status, ok := g[tenantID]
	if !ok {
		return "", fmt.Errorf("tenant status: %w", core.ErrNotFound)
	}
	return status, nil
}

type authFixture struct {
	service  *auth.Service
	repo     *fakeSessionRepo
	audits   *captureAuditRepo
	recorder *audit.Recorder
}

func newAuthFixture(
	t *testing.T,
	store *fakeIdentityStore,
	gate staticGate,
	refreshTTL time.Duration,
) *authFixture {
	t.Helper()

	repo := newFakeSessionRepo()
	audits := &captureAuditRepo{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	recorder := audit.NewRecorder(
		audits,
		events.NewBus[audit.Entry](),
		64,
		logger,
	)
	t.Cleanup(recorder.Close)

	service := auth.NewService(
		&fakeRegistryTx{repo: repo},
		repo,
		newTestManager(t, 15*time.Minute, refreshTTL),
		store,
		gate,
		recorder,
		config.AuthConfig{SessionCap: 5, BootstrapEnabled: true},
	)

	return &authFixture{
		service:  service,
		repo:     repo,
		audits:   audits,
		recorder: recorder,
	}
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
	_ context.Context,
	_ string,
	_, _ int,
) ([]audit.Entry, error) {
	return nil, nil
}

func (c *captureAuditRepo) CountByTenant(
	_ context.Context,
	_ string,
) (int64, error) {
	return 0, nil
}

func (c *captureAuditRepo) byAction(action audit.Action) []audit.Entry {
	c.mu.Lock()
	defer c.mu.Unlock()

	var out []audit.Entry
	for _, entry := range c.entries {
		if entry.Action == action {
			out = append(out, entry)
		}
	}
	return out
}

func testIdentity(t *testing.T, password string) *auth.Identity {
	t.Helper()

	hash, err := core.HashPassword(password)
	require.NoError(t, err)

	return &auth.Identity{
		ID:           "user-1",
		TenantID:     "shop-1",
		Email:        "owner@shop.test",
		PasswordHash: hash,
		Role:         rbac.RoleShopAdmin,
		Status:       "active",
	}
}

func TestSetup_Disabled(t *testing.T) {
	fx := newAuthFixture(t, newFakeIdentityStore(), staticGate{}, time.Hour)

	disabled := auth.NewService(
		&fakeRegistryTx{repo: fx.repo},
		fx.repo,
		newTestManager(t, 15*time.Minute, time.Hour),
		newFakeIdentityStore(),
		staticGate{},
		fx.recorder,
		config.AuthConfig{SessionCap: 5, BootstrapEnabled: false},
	)

	_, err := disabled.Setup(context.Background(), auth.SetupRequest{
		Email:    "root@pos.test",
		Password: "supersecret1",
	})
	assert.Equal(t, "FORBIDDEN", errorCode(t, err))
}

func TestSetup_OnlyOnce(t *testing.T) {
	store := newFakeIdentityStore()
	store.super = true
	fx := newAuthFixture(t, store, staticGate{}, time.Hour)

	_, err := fx.service.Setup(context.Background(), auth.SetupRequest{
		Email:    "root@pos.test",
		Password: "supersecret1",
	})
	assert.Equal(t, "ALREADY_SETUP", errorCode(t, err))
}

func TestLogin_UnknownEmail(t *testing.T) {
	fx := newAuthFixture(t, newFakeIdentityStore(), staticGate{}, time.Hour)

	_, err := fx.service.Login(context.Background(), auth.LoginRequest{
		Email:    "nobody@shop.test",
		Password: "whatever123",
	})
	assert.Equal(t, "INVALID_CREDENTIALS", errorCode(t, err))
}

func TestLogin_WrongPassword(t *testing.T) {
	user := testIdentity(t, "correct-horse")
	fx := newAuthFixture(
		t,
		newFakeIdentityStore(user),
		staticGate{"shop-1": "active"},
		time.Hour,
	)

	_, err := fx.service.Login(context.Background(), auth.LoginRequest{
		Email:    user.Email,
		Password: "battery-staple",
	})

	// Identical to the unknown-email failure so the endpoint cannot be used
	// to enumerate accounts.
	assert.Equal(t, "INVALID_CREDENTIALS", errorCode(t, err))
}

func TestLogin_SuspendedAccount(t *testing.T) {
	user := testIdentity(t, "correct-horse")
	user.Status = "suspended"
	fx := newAuthFixture(
		t,
		newFakeIdentityStore(user),
		staticGate{"shop-1": "active"},
		time.Hour,
	)

	_, err := fx.service.Login(context.Background(), auth.LoginRequest{
		Email:    user.Email,
		Password: "correct-horse",
	})
	assert.Equal(t, "ACCOUNT_INACTIVE", errorCode(t, err))
}

func TestLogin_SuspendedTenant(t *testing.T) {
	user := testIdentity(t, "correct-horse")
	fx := newAuthFixture(
		t,
		newFakeIdentityStore(user),
		staticGate{"shop-1": "suspended"},
		time.Hour,
	)

	_, err := fx.service.Login(context.Background(), auth.LoginRequest{
		Email:    user.Email,
		Password: "correct-horse",
	})
	assert.Equal(t, "TENANT_INACTIVE", errorCode(t, err))
}

func TestRefresh_GarbageToken(t *testing.T) {
	fx := newAuthFixture(t, newFakeIdentityStore(), staticGate{}, time.Hour)

	_, err := fx.service.Refresh(context.Background(), "not-a-jwt")
	assert.Equal(t, "TOKEN_INVALID", errorCode(t, err))
}

func TestRefresh_ExpiredToken(t *testing.T) {
	user := testIdentity(t, "correct-horse")
	manager := newTestManager(t, 15*time.Minute, -time.Minute)

	fx := newAuthFixture(
		t,
		newFakeIdentityStore(user),
		staticGate{"shop-1": "active"},
		time.Hour,
	)

	service := auth.NewService(
		&fakeRegistryTx{repo: fx.repo},
		fx.repo,
		manager,
		newFakeIdentityStore(user),
		staticGate{"shop-1": "active"},
		fx.recorder,
		config.AuthConfig{SessionCap: 5, BootstrapEnabled: true},
	)

	expired, err := manager.CreateRefreshToken(user.ID)
	require.NoError(t, err)

	// Expired is reported distinctly from tampered; the client knows to
	// re-authenticate rather than retry.
	_, err = service.Refresh(context.Background(), expired.Token)
	assert.Equal(t, "TOKEN_EXPIRED", errorCode(t, err))
}

func TestRefresh_DeletedUser(t *testing.T) {
	fx := newAuthFixture(t, newFakeIdentityStore(), staticGate{}, time.Hour)

	manager := newTestManager(t, 15*time.Minute, time.Hour)
	service := auth.NewService(
		&fakeRegistryTx{repo: fx.repo},
		fx.repo,
		manager,
		newFakeIdentityStore(),
		staticGate{},
		fx.recorder,
		config.AuthConfig{SessionCap: 5, BootstrapEnabled: true},
	)

	token, err := manager.CreateRefreshToken("ghost")
	require.NoError(t, err)

	_, err = service.Refresh(context.Background(), token.Token)
	assert.Equal(t, "USER_NOT_FOUND", errorCode(t, err))
}

func TestRefresh_RotationIsSingleUse(t *testing.T) {
	user := testIdentity(t, "correct-horse")
	fx := newAuthFixture(
		t,
		newFakeIdentityStore(user),
		staticGate{"shop-1": "active"},
		time.Hour,
	)

	resp, err := fx.service.Login(context.Background(), auth.LoginRequest{
		Email:    user.Email,
		Password: "correct-horse",
	})
	require.NoError(t, err)

	first := resp.Tokens.RefreshToken

	rotated, err := fx.service.Refresh(context.Background(), first)
	require.NoError(t, err)
	assert.NotEqual(t, first, rotated.Tokens.RefreshToken)

	// The spent token is gone from the registry; replaying it is refused
	// and flagged as reuse.
	_, err = fx.service.Refresh(context.Background(), first)
	assert.Equal(t, "TOKEN_INVALID", errorCode(t, err))

	fx.recorder.Close()
	revoked := fx.audits.byAction(audit.ActionTokenRevoked)
	require.Len(t, revoked, 1)
	assert.Equal(t, audit.StatusWarning, revoked[0].Status)
	assert.Equal(t, user.ID, revoked[0].UserID)
	assert.NotEmpty(t, revoked[0].ErrorMessage)
}

func TestLogin_SessionCapEvictsOldest(t *testing.T) {
	user := testIdentity(t, "correct-horse")
	fx := newAuthFixture(
		t,
		newFakeIdentityStore(user),
		staticGate{"shop-1": "active"},
		time.Hour,
	)

	tokens := make([]string, 0, 6)
	for range 6 {
		resp, err := fx.service.Login(context.Background(), auth.LoginRequest{
			Email:    user.Email,
			Password: "correct-horse",
		})
		require.NoError(t, err)
		tokens = append(tokens, resp.Tokens.RefreshToken)
	}

	// Five concurrent sessions at most; the sixth login pushed out the
	// first.
	count, err := fx.repo.CountForUser(context.Background(), user.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 5, count)

	_, err = fx.service.Refresh(context.Background(), tokens[0])
	assert.Equal(t, "TOKEN_INVALID", errorCode(t, err))

	// The newest session still rotates normally.
	_, err = fx.service.Refresh(context.Background(), tokens[5])
	assert.NoError(t, err)
}

func TestRefresh_CountsAsSessionActivity(t *testing.T) {
	user := testIdentity(t, "correct-horse")
	store := newFakeIdentityStore(user)
	fx := newAuthFixture(
		t,
		store,
		staticGate{"shop-1": "active"},
		time.Hour,
	)

	resp, err := fx.service.Login(context.Background(), auth.LoginRequest{
		Email:    user.Email,
		Password: "correct-horse",
	})
	require.NoError(t, err)
	require.Equal(t, 1, store.lastLogins[user.ID])

	_, err = fx.service.Refresh(context.Background(), resp.Tokens.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, 2, store.lastLogins[user.ID])
}

func TestLogout_Idempotent(t *testing.T) {
	fx := newAuthFixture(t, newFakeIdentityStore(), staticGate{}, time.Hour)

	principal := rbac.Principal{
		UserID:   "user-1",
		TenantID: "shop-1",
		Role:     rbac.RoleShopAdmin,
	}

	require.NoError(t, fx.repo.Insert(context.Background(), &auth.RefreshTokenRecord{
		ID:        "rec-1",
		UserID:    "user-1",
		TokenHash: core.HashToken("session-token"),
		IssuedAt:  time.Now(),
		ExpiresAt: time.Now().Add(time.Hour),
	}))

	// First logout removes the record, the second finds nothing; both
	// succeed.
	require.NoError(
		t,
		fx.service.Logout(context.Background(), principal, "session-token"),
	)
	require.NoError(
		t,
		fx.service.Logout(context.Background(), principal, "session-token"),
	)

	count, err := fx.repo.CountForUser(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestLogoutAll(t *testing.T) {
	fx := newAuthFixture(t, newFakeIdentityStore(), staticGate{}, time.Hour)

	for i := range 3 {
		require.NoError(t, fx.repo.Insert(context.Background(), &auth.RefreshTokenRecord{
			ID:        fmt.Sprintf("rec-%d", i),
			UserID:    "user-1",
			TokenHash: core.HashToken(fmt.Sprintf("token-%d", i)),
			IssuedAt:  time.Now(),
			ExpiresAt: time.Now().Add(time.Hour),
		}))
	}

	require.NoError(t, fx.service.LogoutAll(context.Background(), "user-1"))

	count, err := fx.repo.CountForUser(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Zero(t, count)
}
