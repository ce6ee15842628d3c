package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/mohammad-safakhou/verisearch/config"
	"github.com/mohammad-safakhou/verisearch/internal/logging"
	"github.com/mohammad-safakhou/verisearch/internal/research"
	"github.com/mohammad-safakhou/verisearch/internal/safety"
	"github.com/mohammad-safakhou/verisearch/internal/telemetry"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Answerer is satisfied by *research.Pipeline.
type Answerer interface {
	Answer(ctx context.Context, message string, bullets int) (research.Result, error)
}

type Server struct {
	echo   *echo.Echo
	cfg    config.ServerConfig
	logger *zap.Logger
}

// New builds the HTTP surface. defaultBullets applies when a request carries
// no usable bullet count. metrics may be nil, in which case /metrics is not
// served.
func New(cfg config.ServerConfig, answerer Answerer, defaultBullets int, metrics *telemetry.Metrics, logger *zap.Logger) *Server {
	cfg = cfg.Normalize()
	logger = logging.OrNop(logger).Named("http")

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())
	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{Generator: uuid.NewString}))
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders: []string{echo.HeaderContentType, echo.HeaderAuthorization},
	}))
	e.HTTPErrorHandler = errorHandler(logger)

	e.GET("/healthz", func(c echo.Context) error { return c.String(http.StatusOK, "ok") })
	if metrics != nil {
		e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{})))
	}

	h := &ResearchHandler{Answerer: answerer, DefaultBullets: defaultBullets, Timeout: cfg.RequestTimeout, Metrics: metrics}
	g := e.Group("/research")
	if cfg.JWTSecret != "" {
		g.Use(JWTMiddleware([]byte(cfg.JWTSecret)))
	} else {
		logger.Warn("server.jwt_secret not set, /research is unauthenticated")
	}
	h.Register(g)

	return &Server{echo: e, cfg: cfg, logger: logger}
}

func (s *Server) Handler() http.Handler { return s.echo }

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", zap.String("addr", s.cfg.Address))
		if err := s.echo.Start(s.cfg.Address); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.echo.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// errorHandler renders every error as {"error": msg}. Safety gate rejections
// map to 400.
func errorHandler(logger *zap.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		code := http.StatusInternalServerError
		msg := "internal error"

		var ve safety.ValidationError
		var pe safety.PolicyError
		var he *echo.HTTPError
		switch {
		case errors.As(err, &ve):
			code, msg = http.StatusBadRequest, ve.Error()
		case errors.As(err, &pe):
			code, msg = http.StatusBadRequest, pe.Error()
		case errors.As(err, &he):
			code = he.Code
			msg = fmt.Sprint(he.Message)
		}

		req := c.Request()
		fields := []zap.Field{
			zap.Int("status", code),
			zap.String("method", req.Method),
			zap.String("path", req.URL.Path),
			zap.String("request_id", c.Response().Header().Get(echo.HeaderXRequestID)),
			zap.Error(err),
		}
		if subject, ok := SubjectFromContext(req.Context()); ok {
			fields = append(fields, zap.String("subject", subject))
		}
		if code >= http.StatusInternalServerError {
			logger.Error("request failed", fields...)
		} else {
			logger.Info("request rejected", fields...)
		}
		if !c.Response().Committed {
			_ = c.JSON(code, map[string]string{"error": msg})
		}
	}
}
