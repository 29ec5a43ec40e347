// KaungMyatLinn | 2026
// jwt_test.go

package auth_test

import (
	"context"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kaungmyat1inn/digitalmartpos/internal/auth"
	"github.com/kaungmyat1inn/digitalmartpos/internal/config"
	"github.com/kaungmyat1inn/digitalmartpos/internal/core"
	"github.com/kaungmyat1inn/digitalmartpos/internal/rbac"
)

func newTestManager(
	t *testing.T,
	accessTTL, refreshTTL time.Duration,
) *auth.JWTManager {
	t.Helper()

	dir := t.TempDir()
	privatePath := filepath.Join(dir, "private.pem")
	publicPath := filepath.Join(dir, "public.pem")

	require.NoError(t, auth.GenerateKeyPair(privatePath, publicPath))

	manager, err := auth.NewJWTManager(config.JWTConfig{
		PrivateKeyPath:     privatePath,
		PublicKeyPath:      publicPath,
		AccessTokenExpire:  accessTTL,
		RefreshTokenExpire: refreshTTL,
		Issuer:             "digitalmartpos",
		Audience:           "digitalmartpos-api",
	})
	require.NoError(t, err)

	return manager
}

func TestAccessTokenRoundTrip(t *testing.T) {
	manager := newTestManager(t, 15*time.Minute, time.Hour)

	signed, err := manager.CreateAccessToken(rbac.AccessClaims{
		UserID:   "user-1",
		TenantID: "shop-1",
		Email:    "owner@shop.test",
		Role:     rbac.RoleShopAdmin,
	})
	require.NoError(t, err)

	claims, err := manager.VerifyAccessToken(context.Background(), signed)
	require.NoError(t, err)

	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "shop-1", claims.TenantID)
	assert.Equal(t, "owner@shop.test", claims.Email)
	assert.Equal(t, rbac.RoleShopAdmin, claims.Role)
}

func TestExpiredAccessToken(t *testing.T) {
	manager := newTestManager(t, -time.Minute, time.Hour)

	signed, err := manager.CreateAccessToken(rbac.AccessClaims{
		UserID: "user-1",
	})
	require.NoError(t, err)

	_, err = manager.VerifyAccessToken(context.Background(), signed)
	assert.ErrorIs(t, err, core.ErrTokenExpired)
}

func TestTamperedAccessToken(t *testing.T) {
	manager := newTestManager(t, 15*time.Minute, time.Hour)

	signed, err := manager.CreateAccessToken(rbac.AccessClaims{
		UserID: "user-1",
	})
	require.NoError(t, err)

	last := signed[len(signed)-1]
	flipped := byte('A')
	if last == flipped {
		flipped = 'B'
	}
	tampered := signed[:len(signed)-1] + string(flipped)

	_, err = manager.VerifyAccessToken(context.Background(), tampered)
	assert.ErrorIs(t, err, core.ErrTokenInvalid)
}

func TestForeignKeySignature(t *testing.T) {
	manager := newTestManager(t, 15*time.Minute, time.Hour)
	other := newTestManager(t, 15*time.Minute, time.Hour)

	signed, err := other.CreateAccessToken(rbac.AccessClaims{UserID: "user-1"})
	require.NoError(t, err)

	_, err = manager.VerifyAccessToken(context.Background(), signed)
	assert.ErrorIs(t, err, core.ErrTokenInvalid)
}

func TestRefreshTokenRoundTrip(t *testing.T) {
	manager := newTestManager(t, 15*time.Minute, time.Hour)

	data, err := manager.CreateRefreshToken("user-1")
	require.NoError(t, err)

	assert.Equal(t, core.HashToken(data.Token), data.Hash)
	assert.True(t, data.ExpiresAt.After(data.IssuedAt))

	subject, err := manager.VerifyRefreshToken(context.Background(), data.Token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", subject)
}

func TestTokenTypeConfusionRejected(t *testing.T) {
	manager := newTestManager(t, 15*time.Minute, time.Hour)

	access, err := manager.CreateAccessToken(rbac.AccessClaims{UserID: "user-1"})
	require.NoError(t, err)

	refresh, err := manager.CreateRefreshToken("user-1")
	require.NoError(t, err)

	// A refresh token presented as an access token, and vice versa, both
	// fail closed regardless of a valid signature.
	_, err = manager.VerifyAccessToken(context.Background(), refresh.Token)
	assert.ErrorIs(t, err, core.ErrTokenInvalid)

	_, err = manager.VerifyRefreshToken(context.Background(), access)
	assert.ErrorIs(t, err, core.ErrTokenInvalid)
}

func TestJWKSHandlerPublishesSigningKey(t *testing.T) {
	manager := newTestManager(t, 15*time.Minute, time.Hour)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/.well-known/jwks.json", nil)

	manager.GetJWKSHandler()(rec, req)

	assert.Equal(t, 200, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	body := rec.Body.String()
	assert.True(t, strings.Contains(body, `"keys"`))
	assert.True(t, strings.Contains(body, manager.GetKeyID()))
	// Private material never leaves the process.
	assert.False(t, strings.Contains(body, `"d"`))
}
