package http

import (
	"net/http"
	"strconv"

	"github.com/arasdesign/newsletter-service/internal/service/newsletter"
	echo "github.com/labstack/echo/v4"
)

func listSubscribersHandler(svc *newsletter.Service) echo.HandlerFunc {
	return func(c echo.Context) error {
		limit := 50
		offset := 0
		if v := c.QueryParam("limit"); v != "" {
			if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 1000 {
				limit = n
			}
		}
		if v := c.QueryParam("offset"); v != "" {
			if n, err := strconv.Atoi(v); err == nil && n >= 0 {
				offset = n
			}
		}

		subs, err := svc.Subscribers(c.Request().Context(), limit, offset)
		if err != nil {
			c.Logger().Errorf("list subscribers failed: %v", err)

			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "query failed"})
		}

		return c.JSON(http.StatusOK, map[string]any{
			"limit":   limit,
			"offset":  offset,
			"count":   len(subs),
			"results": subs,
		})
	}
}

func countSubscribersHandler(svc *newsletter.Service) echo.HandlerFunc {
	return func(c echo.Context) error {
		n, err := svc.Count(c.Request().Context())
		if err != nil {
			c.Logger().Errorf("count subscribers failed: %v", err)

			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "query failed"})
		}

		return c.JSON(http.StatusOK, map[string]int{"count": n})
	}
}
