package server

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/fekuna/omnipos-storefront-service/internal/auth"
	"github.com/fekuna/omnipos-storefront-service/internal/httpresp"
	"github.com/fekuna/omnipos-storefront-service/pkg/logger"
)

type PublicRoutes interface {
	RegisterPublic(g *echo.Group)
}

type SessionRoutes interface {
	Register(g *echo.Group)
}

type AdminRoutes interface {
	RegisterAdmin(g *echo.Group)
}

type Options struct {
	Tokens     *auth.TokenManager
	Revocation auth.RevocationChecker
	Public     []PublicRoutes
	Session    []SessionRoutes
	Admin      []AdminRoutes

	// UploadsDir is served under /uploads when set.
	UploadsDir string
	BodyLimit  string
	Logger     logger.ZapLogger
}

// New builds the echo instance with the /api route groups: public, signed in, and admin.
func New(opts Options) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = httpresp.NewValidator()
	e.HTTPErrorHandler = ErrorHandler(opts.Logger)

	if opts.BodyLimit == "" {
		opts.BodyLimit = "10M"
	}
	e.Use(middleware.RequestID())
	e.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{
		LogErrorFunc: func(c echo.Context, err error, stack []byte) error {
			opts.Logger.Error("panic recovered", zap.Error(err), zap.ByteString("stack", stack))
			return err
		},
	}))
	e.Use(requestLogger(opts.Logger))
	e.Use(middleware.BodyLimit(opts.BodyLimit))
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization, "Accept-Language"},
	}))

	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
	})
	if opts.UploadsDir != "" {
		e.Static("/uploads", opts.UploadsDir)
	}

	api := e.Group("/api")
	for _, r := range opts.Public {
		r.RegisterPublic(api)
	}

	signedIn := api.Group("", auth.Middleware(opts.Tokens, opts.Revocation))
	for _, r := range opts.Session {
		r.Register(signedIn)
	}

	admin := api.Group("/admin", auth.Middleware(opts.Tokens, opts.Revocation), auth.RequireAdmin)
	for _, r := range opts.Admin {
		r.RegisterAdmin(admin)
	}

	return e
}

func requestLogger(log logger.ZapLogger) echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			log.Info("request",
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
				zap.Int("status", v.Status),
				zap.Duration("latency", v.Latency),
				zap.String("request_id", v.RequestID),
			)
			return nil
		},
	})
}

// Serve runs e on addr until ctx is done, then drains in-flight requests.
func Serve(ctx context.Context, e *echo.Echo, addr string, readTimeout, writeTimeout time.Duration) error {
	e.Server.ReadTimeout = readTimeout
	e.Server.WriteTimeout = writeTimeout

	errCh := make(chan error, 1)
	go func() {
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}
