// KaungMyatLinn | 2026
// logger_test.go

package middleware_test

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kaungmyat1inn/digitalmartpos/internal/core"
	"github.com/kaungmyat1inn/digitalmartpos/internal/middleware"
)

func TestRecoverer_PanicBecomesInternalError(t *testing.T) {
	var hooked []error
	core.SetSystemErrorHook(func(err error) { hooked = append(hooked, err) })
	t.Cleanup(func() { core.SetSystemErrorHook(nil) })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	handler := middleware.Recoverer(logger)(http.HandlerFunc(
		func(http.ResponseWriter, *http.Request) {
			panic("nil catalog entry")
		},
	))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/products", nil))

	// The client gets the generic envelope; the diagnostic goes to the
	// system-error hook only.
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "INTERNAL_ERROR")
	assert.NotContains(t, rec.Body.String(), "nil catalog entry")

	require.Len(t, hooked, 1)
	assert.Contains(t, hooked[0].Error(), "nil catalog entry")
}
