package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/arasdesign/newsletter-service/internal/ratelimit"
	"github.com/arasdesign/newsletter-service/internal/repository"
	"github.com/arasdesign/newsletter-service/internal/service/newsletter"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
)

func TestListAndCountSubscribers(t *testing.T) {
	svc := newsletter.New(repository.NewMemorySubscribersRepository(), ratelimit.NewFixedWindow(100, time.Hour), nil)
	for _, email := range []string{"a@b.com", "c@d.com", "e@f.com"} {
		_, err := svc.Subscribe(context.Background(), email, "seed")
		require.NoError(t, err)
	}

	e := echo.New()
	e.GET("/v1/newsletter/subscribers", listSubscribersHandler(svc))
	e.GET("/v1/newsletter/subscribers/count", countSubscribersHandler(svc))

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/newsletter/subscribers?limit=2", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	require.EqualValues(t, 2, body["count"])
	require.Len(t, body["results"], 2)

	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/newsletter/subscribers/count", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.EqualValues(t, 3, decodeBody(t, rec)["count"])
}
