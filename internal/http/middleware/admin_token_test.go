package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	echo "github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
)

func callWithToken(configured, sent string) *httptest.ResponseRecorder {
	e := echo.New()
	h := AdminTokenMiddleware(configured)(func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if sent != "" {
		req.Header.Set("X-Admin-Token", sent)
	}
	rec := httptest.NewRecorder()
	_ = h(e.NewContext(req, rec))
	return rec
}

func TestAdminTokenMiddleware(t *testing.T) {
	// unconfigured token hides the endpoint
	require.Equal(t, http.StatusNotFound, callWithToken("", "anything").Code)

	require.Equal(t, http.StatusUnauthorized, callWithToken("secret", "").Code)
	require.Equal(t, http.StatusUnauthorized, callWithToken("secret", "wrong").Code)
	require.Equal(t, http.StatusOK, callWithToken("secret", "secret").Code)
}
