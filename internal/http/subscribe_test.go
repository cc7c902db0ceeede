package http

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/arasdesign/newsletter-service/internal/ratelimit"
	"github.com/arasdesign/newsletter-service/internal/repository"
	"github.com/arasdesign/newsletter-service/internal/service/newsletter"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
)

func newTestEcho(devMode bool) (*echo.Echo, *newsletter.Service) {
	svc := newsletter.New(repository.NewMemorySubscribersRepository(), ratelimit.NewFixedWindow(10, time.Hour), nil)
	e := echo.New()
	e.POST("/v1/newsletter/subscribe", subscribeHandler(svc, devMode))
	return e, svc
}

func postForm(e *echo.Echo, form url.Values, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/v1/newsletter/subscribe", strings.NewReader(form.Encode()))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestSubscribeEndpointSuccess(t *testing.T) {
	e, _ := newTestEcho(false)

	rec := postForm(e, url.Values{"email": {"a@b.com"}}, map[string]string{"X-Forwarded-For": "1.2.3.4"})
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	require.Equal(t, true, body["success"])
	require.NotEmpty(t, body["message"])

	sub, ok := body["subscriber"].(map[string]any)
	require.True(t, ok)
	require.NotEmpty(t, sub["id"])
	require.Equal(t, "a@b.com", sub["email"])
	require.NotEmpty(t, sub["subscribedAt"])
}

func TestSubscribeEndpointErrors(t *testing.T) {
	e, _ := newTestEcho(false)

	// missing email
	rec := postForm(e, url.Values{}, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "Email is required", decodeBody(t, rec)["error"])

	// invalid email
	rec = postForm(e, url.Values{"email": {"not-an-email"}}, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "Please enter a valid email address", decodeBody(t, rec)["error"])

	// duplicate
	rec = postForm(e, url.Values{"email": {"dup@b.com"}}, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = postForm(e, url.Values{"email": {"Dup@B.com"}}, nil)
	require.Equal(t, http.StatusConflict, rec.Code)
	require.Equal(t, "This email is already subscribed", decodeBody(t, rec)["error"])
}

func TestSubscribeEndpointMethodGate(t *testing.T) {
	e, _ := newTestEcho(false)

	req := httptest.NewRequest(http.MethodGet, "/v1/newsletter/subscribe", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	require.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestSubscribeEndpointRateLimit(t *testing.T) {
	e, _ := newTestEcho(false)
	hdr := map[string]string{"X-Real-IP": "9.9.9.9"}

	for i := 1; i <= 10; i++ {
		rec := postForm(e, url.Values{"email": {fmt.Sprintf("x%d@y.com", i)}}, hdr)
		require.Equal(t, http.StatusOK, rec.Code, "attempt %d", i)
	}

	rec := postForm(e, url.Values{"email": {"x11@y.com"}}, hdr)
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	require.Equal(t, "Too many attempts. Please try again later.", decodeBody(t, rec)["error"])

	// a different client is unaffected
	rec = postForm(e, url.Values{"email": {"ok@y.com"}}, map[string]string{"X-Real-IP": "8.8.8.8"})
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestDevResetClearsRateLimits(t *testing.T) {
	e, svc := newTestEcho(true)
	hdr := map[string]string{"X-Real-IP": "9.9.9.9"}

	for i := 1; i <= 10; i++ {
		postForm(e, url.Values{"email": {fmt.Sprintf("x%d@y.com", i)}}, hdr)
	}
	rec := postForm(e, url.Values{"email": {"x11@y.com"}}, hdr)
	require.Equal(t, http.StatusTooManyRequests, rec.Code)

	// the escape hatch does not touch the subscriber store
	before, err := svc.Count(context.Background())
	require.NoError(t, err)

	rec = postForm(e, url.Values{"reset": {"ratelimits"}}, hdr)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, true, decodeBody(t, rec)["success"])

	after, err := svc.Count(context.Background())
	require.NoError(t, err)
	require.Equal(t, before, after)

	rec = postForm(e, url.Values{"email": {"x11@y.com"}}, hdr)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestResetIgnoredOutsideDevelopment(t *testing.T) {
	e, _ := newTestEcho(false)

	// no email and no active hatch: a plain failed subscribe
	rec := postForm(e, url.Values{"reset": {"ratelimits"}}, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestClientIdentifier(t *testing.T) {
	e := echo.New()

	cases := []struct {
		name    string
		headers map[string]string
		want    string
	}{
		{"forwarded-for", map[string]string{"X-Forwarded-For": "1.2.3.4"}, "1.2.3.4"},
		{"forwarded-for first hop", map[string]string{"X-Forwarded-For": "1.2.3.4, 5.6.7.8"}, "1.2.3.4"},
		{"real-ip fallback", map[string]string{"X-Real-IP": "5.6.7.8"}, "5.6.7.8"},
		{"forwarded-for wins", map[string]string{"X-Forwarded-For": "1.2.3.4", "X-Real-IP": "5.6.7.8"}, "1.2.3.4"},
		{"nothing", nil, "unknown"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodPost, "/", nil)
			for k, v := range tc.headers {
				r.Header.Set(k, v)
			}
			c := e.NewContext(r, httptest.NewRecorder())
			require.Equal(t, tc.want, clientIdentifier(c))
		})
	}
}
