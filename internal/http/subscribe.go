package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/arasdesign/newsletter-service/internal/service/newsletter"
	"github.com/labstack/echo/v4"
	"github.com/labstack/gommon/log"
)

// clientIdentifier derives the rate-limit key from forwarded-for style
// headers, falling back to a literal "unknown".
func clientIdentifier(c echo.Context) string {
	if v := strings.TrimSpace(c.Request().Header.Get("X-Forwarded-For")); v != "" {
		// first hop only
		if i := strings.IndexByte(v, ','); i >= 0 {
			v = strings.TrimSpace(v[:i])
		}
		return v
	}
	if v := strings.TrimSpace(c.Request().Header.Get("X-Real-IP")); v != "" {
		return v
	}
	return "unknown"
}

func subscribeHandler(svc *newsletter.Service, devMode bool) echo.HandlerFunc {
	return func(c echo.Context) error {
		// development escape hatch: clear limiter state, skip the store
		if devMode && c.FormValue("reset") == "ratelimits" {
			if err := svc.ResetRateLimits(c.Request().Context()); err != nil {
				log.Errorf("rate limit reset failed: %v", err)
				return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Something went wrong. Please try again."})
			}
			return c.JSON(http.StatusOK, map[string]any{
				"success": true,
				"message": "Rate limits have been reset for development.",
			})
		}

		sub, err := svc.Subscribe(c.Request().Context(), c.FormValue("email"), clientIdentifier(c))
		if err != nil {
			switch {
			case errors.Is(err, newsletter.ErrRateLimited):
				return c.JSON(http.StatusTooManyRequests, map[string]string{"error": "Too many attempts. Please try again later."})
			case errors.Is(err, newsletter.ErrMissingEmail):
				return c.JSON(http.StatusBadRequest, map[string]string{"error": "Email is required"})
			case errors.Is(err, newsletter.ErrInvalidEmail):
				return c.JSON(http.StatusBadRequest, map[string]string{"error": "Please enter a valid email address"})
			case errors.Is(err, newsletter.ErrAlreadySubscribed):
				return c.JSON(http.StatusConflict, map[string]string{"error": "This email is already subscribed"})
			}

			// backend failure; err carries no email address
			log.Errorf("subscribe failed: %v", err)

			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Something went wrong. Please try again."})
		}

		return c.JSON(http.StatusOK, map[string]any{
			"success": true,
			"message": "Thank you for subscribing! You'll receive updates when I publish new ideas and projects.",
			"subscriber": map[string]any{
				"id":           sub.ID,
				"email":        sub.Email,
				"subscribedAt": sub.SubscribedAt,
			},
		})
	}
}
