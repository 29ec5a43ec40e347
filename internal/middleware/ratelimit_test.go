// KaungMyatLinn | 2026
// ratelimit_test.go

package middleware_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kaungmyat1inn/digitalmartpos/internal/middleware"
	"github.com/kaungmyat1inn/digitalmartpos/internal/rbac"
)

func TestKeyByIP(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "203.0.113.10:54321"
	assert.Equal(t, "ratelimit:ip:203.0.113.10", middleware.KeyByIP(r))

	// The rightmost X-Forwarded-For entry is the one our own proxy appended;
	// earlier entries are client-controlled.
	r = httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("X-Forwarded-For", "10.0.0.1, 198.51.100.7")
	assert.Equal(t, "ratelimit:ip:198.51.100.7", middleware.KeyByIP(r))

	r = httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("X-Real-IP", "198.51.100.9")
	assert.Equal(t, "ratelimit:ip:198.51.100.9", middleware.KeyByIP(r))
}

func TestKeyByPrincipal(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "203.0.113.10:54321"

	// Anonymous requests fall back to the IP key.
	assert.Equal(t, "ratelimit:ip:203.0.113.10", middleware.KeyByPrincipal(r))

	ctx := context.WithValue(
		r.Context(),
		middleware.PrincipalKey,
		rbac.Principal{UserID: "user-1", TenantID: "shop-1"},
	)
	assert.Equal(
		t,
		"ratelimit:user:user-1",
		middleware.KeyByPrincipal(r.WithContext(ctx)),
	)
}

func TestDefaultPlansOrdering(t *testing.T) {
	basic := middleware.DefaultPlans["basic"]
	pro := middleware.DefaultPlans["pro"]
	enterprise := middleware.DefaultPlans["enterprise"]

	assert.Less(t, basic.RequestsPerMinute, pro.RequestsPerMinute)
	assert.Less(t, pro.RequestsPerMinute, enterprise.RequestsPerMinute)
	assert.Less(t, basic.BurstSize, pro.BurstSize)
	assert.Less(t, pro.BurstSize, enterprise.BurstSize)
}

func TestPerWindowHelpers(t *testing.T) {
	limit := middleware.PerMinute(120, 20)
	assert.Equal(t, 120, limit.Rate)
	assert.Equal(t, 20, limit.Burst)
	assert.Equal(t, float64(60), limit.Period.Seconds())

	assert.Equal(t, float64(1), middleware.PerSecond(10, 5).Period.Seconds())
	assert.Equal(t, float64(3600), middleware.PerHour(100, 10).Period.Seconds())
}
