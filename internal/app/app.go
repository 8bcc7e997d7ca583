package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prperemyshlev/user-auth-service/internal/config"
	"github.com/prperemyshlev/user-auth-service/internal/handler"
	"github.com/prperemyshlev/user-auth-service/internal/notify"
	"github.com/prperemyshlev/user-auth-service/internal/repository"
	"github.com/prperemyshlev/user-auth-service/internal/service"
	"github.com/prperemyshlev/user-auth-service/internal/utils"
	"github.com/prperemyshlev/user-auth-service/pkg/observability"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"
)

const shutdownTimeout = 5 * time.Second

type App struct {
	infra  Infrastructure
	config *config.Config
	router *gin.Engine
	server *http.Server
}

func NewApp(infra Infrastructure, cfg *config.Config) (*App, error) {
	logger := infra.Logger()

	metrics, err := observability.NewMetrics(infra.MeterProvider(), ServiceName)
	if err != nil {
		return nil, fmt.Errorf("failed to create metrics: %w", err)
	}

	repos := repository.NewRepositories(infra.Mongo(), repository.BcryptHasher(cfg.Security.BCryptCost), logger)
	cache := service.NewRedisCache(infra.Redis())
	rateLimiter := service.NewRateLimiter(infra.Redis())
	mailer := notify.NewMailer(cfg.SMTP, logger)

	authService := service.NewAuthService(
		repos.User,
		utils.NewTokenCodec(cfg.JWT.Secret),
		cfg.Security.BCryptCost,
		cfg.JWT.Expiry.Duration,
		logger,
	)
	userService := service.NewUserService(repos.User, authService, mailer, metrics, logger)
	logErrorService := service.NewLogErrorService(repos.LogError, cache, cfg.Cache.TTL.Duration, logger)

	responder := handler.NewResponder(cfg.Version)
	errs := handler.NewErrorResponder(responder, logErrorService, metrics, logger)

	healthChecker := NewHealthChecker(map[string]Pinger{
		"mongo": infra.Mongo(),
		"redis": infra.Redis(),
	})

	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware(ServiceName))
	router.Use(handler.RequestIDMiddleware())
	router.Use(handler.LoggerMiddleware(logger))
	router.Use(handler.CORSMiddleware(cfg.CORS))

	router.GET("/metrics", observability.PrometheusHandler(infra.MetricsHandler()))
	router.GET("/health", healthChecker.Handler)

	handler.Routes{
		Users:     handler.NewUserHandler(userService, responder, errs),
		LogErrors: handler.NewLogErrorHandler(logErrorService, responder, errs),
		Errors:    errs,
		Auth:      handler.AuthMiddleware(authService, errs, cfg.Security.CheckIP),
		RateLimit: handler.RateLimitMiddleware(
			rateLimiter,
			cfg.Security.RateLimitRequests,
			cfg.Security.RateLimitWindow.Duration,
			handler.IPBasedKey,
			errs,
			logger,
		),
	}.Register(router)

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout.Duration,
		WriteTimeout: cfg.Server.WriteTimeout.Duration,
	}

	return &App{
		infra:  infra,
		config: cfg,
		router: router,
		server: srv,
	}, nil
}

func (a *App) Router() *gin.Engine {
	return a.router
}

func (a *App) Run(ctx context.Context) error {
	errChan := make(chan error, 1)

	go func() {
		a.infra.Logger().Info("Application starting",
			zap.String("host", a.config.Server.Host),
			zap.String("port", a.config.Server.Port),
			zap.String("api_version", a.config.Version.API),
		)

		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.infra.Logger().Error("Server error", zap.Error(err))
			errChan <- err
		}
	}()

	var serverErr error
	select {
	case err := <-errChan:
		a.infra.Logger().Error("Application failed to start", zap.Error(err))
		serverErr = err
	case <-ctx.Done():
		a.infra.Logger().Info("Application stopped by context")
	}

	if err := a.Shutdown(); err != nil {
		if serverErr != nil {
			return errors.Join(serverErr, err)
		}
		return err
	}

	return serverErr
}

// Shutdown stops accepting requests, then releases the infrastructure
func (a *App) Shutdown() error {
	a.infra.Logger().Info("Application shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := a.server.Shutdown(ctx); err != nil {
		a.infra.Logger().Error("HTTP server shutdown failed", zap.Error(err))
		return errors.Join(err, a.infra.Shutdown(ctx))
	}

	if err := a.infra.Shutdown(ctx); err != nil {
		return err
	}

	a.infra.Logger().Info("Application exited successfully")
	return nil
}
