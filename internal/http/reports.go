package http

import (
	"net/http"
	"time"

	"github.com/arasdesign/newsletter-service/internal/repository"
	echo "github.com/labstack/echo/v4"
)

// signupReportHandler serves daily signup counts from the ClickHouse
// audit table. Defaults to the last 30 days.
func signupReportHandler(auditRepo repository.AuditRepository) echo.HandlerFunc {
	return func(c echo.Context) error {
		to := time.Now().UTC()
		from := to.AddDate(0, 0, -30)

		if v := c.QueryParam("from"); v != "" {
			t, err := time.Parse("2006-01-02", v)
			if err != nil {
				return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid from date, want YYYY-MM-DD"})
			}
			from = t
		}
		if v := c.QueryParam("to"); v != "" {
			t, err := time.Parse("2006-01-02", v)
			if err != nil {
				return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid to date, want YYYY-MM-DD"})
			}
			// inclusive end date
			to = t.AddDate(0, 0, 1)
		}
		if !from.Before(to) {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "from must be before to"})
		}

		counts, err := auditRepo.DailyCounts(c.Request().Context(), from, to)
		if err != nil {
			c.Logger().Errorf("clickhouse daily counts failed: %v", err)

			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "query failed"})
		}

		return c.JSON(http.StatusOK, map[string]any{
			"from":    from.Format("2006-01-02"),
			"to":      to.Format("2006-01-02"),
			"count":   len(counts),
			"results": counts,
		})
	}
}
