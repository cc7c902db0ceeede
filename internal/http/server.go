package http

import (
	"context"
	"log"
	"net/http"

	"github.com/arasdesign/newsletter-service/internal/config"
	"github.com/arasdesign/newsletter-service/internal/http/middleware"
	"github.com/arasdesign/newsletter-service/internal/metrics"
	"github.com/arasdesign/newsletter-service/internal/repository"
	"github.com/arasdesign/newsletter-service/internal/service/newsletter"
	"github.com/labstack/echo/v4"
	echoMid "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Server struct{ e *echo.Echo }

// NewServer wires routes. auditRepo is nil when ClickHouse is not
// configured; the reports route is simply absent then.
func NewServer(cfg config.Config, svc *newsletter.Service, auditRepo repository.AuditRepository) *Server {
	e := echo.New()
	e.HideBanner = true
	e.Use(echoMid.Recover(), echoMid.Logger())

	metrics.MustRegister(prometheus.DefaultRegisterer)

	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	// health
	e.GET("/healthz", func(c echo.Context) error { return c.String(http.StatusOK, "ok") })

	// routes
	v1 := e.Group("/v1")
	v1.POST("/newsletter/subscribe", subscribeHandler(svc, cfg.Development()))

	admin := v1.Group("", middleware.AdminTokenMiddleware(cfg.Admin.Token))
	admin.GET("/newsletter/subscribers", listSubscribersHandler(svc))
	admin.GET("/newsletter/subscribers/count", countSubscribersHandler(svc))
	if auditRepo != nil {
		admin.GET("/reports/signups", signupReportHandler(auditRepo))
	}

	return &Server{e: e}
}

func (s *Server) Start(addr string) error {
	log.Printf("http: listening on %s", addr)
	return s.e.Start(addr)
}
func (s *Server) Shutdown(ctx context.Context) error { return s.e.Shutdown(ctx) }
