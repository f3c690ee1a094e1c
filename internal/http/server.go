package http

import (
	"context"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	echoMid "github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/jmehdipour/domain-offers/internal/config"
	"github.com/jmehdipour/domain-offers/internal/http/middleware"
	"github.com/jmehdipour/domain-offers/internal/metrics"
	"github.com/jmehdipour/domain-offers/internal/service/relay"
)

type Server struct {
	e   *echo.Echo
	log *zap.Logger
}

// requestValidator plugs validator/v10 into echo's c.Validate.
type requestValidator struct{ v *validator.Validate }

func (rv *requestValidator) Validate(i any) error { return rv.v.Struct(i) }

func NewServer(cfg config.Config, relaySvc *relay.Service, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}

	// echo
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Logger.SetLevel(log.WARN)
	e.Validator = &requestValidator{v: validator.New()}
	e.Use(echoMid.Recover(), middleware.RequestID(), middleware.AccessLog(logger))

	metrics.MustRegister(prometheus.DefaultRegisterer)

	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	// health
	e.GET("/healthz", func(c echo.Context) error { return c.String(http.StatusOK, "ok") })

	// routes
	api := e.Group("/api")
	api.POST("/contact", contactHandler(relaySvc, logger))
	api.GET("/site", siteHandler(cfg))
	e.GET("/sitemap.xml", sitemapHandler(cfg.Site))

	return &Server{e: e, log: logger}
}

// Handler exposes the router, mainly for httptest.
func (s *Server) Handler() http.Handler { return s.e }

func (s *Server) Start(addr string) error {
	s.log.Info("http: listening", zap.String("addr", addr))
	return s.e.Start(addr)
}

func (s *Server) Shutdown(ctx context.Context) error { return s.e.Shutdown(ctx) }
