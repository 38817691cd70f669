package app

import (
	"context"
	"errors"
	"net/http"
	"time"

	"case-service/internal/api"
	"case-service/internal/cache"
	"case-service/internal/config"
	"case-service/internal/database"
	"case-service/internal/handler"
	"case-service/internal/metrics"
	casemw "case-service/internal/middleware"
	"case-service/internal/repository"
	"case-service/internal/service"

	trmpgx "github.com/avito-tech/go-transaction-manager/drivers/pgxv5/v2"
	"github.com/avito-tech/go-transaction-manager/trm/v2/manager"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// CaseApp represents the application with its dependencies.
type CaseApp struct {
	cfg *config.Config

	db    *pgxpool.Pool
	cache *cache.CategoryCache
	r     *echo.Echo

	log *zap.Logger
}

// NewCaseApp connects to PostgreSQL and Redis and builds the HTTP server.
func NewCaseApp(cfg *config.Config, log *zap.Logger) *CaseApp {
	ctx := context.Background()

	db, err := database.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}

	categoryCache := cache.Connect(ctx, cfg.Redis.Addr, cfg.Redis.CategoryTTL, log)

	retrier := newRepoRetrier(cfg.Retry, repository.IsRetryable)

	requestRepo := repository.NewRequestRepository(db, trmpgx.DefaultCtxGetter, retrier)
	categoryRepo := repository.NewCategoryRepository(db, trmpgx.DefaultCtxGetter, retrier)

	requestService := service.NewRequestService(
		requestRepo,
		categoryRepo,
		manager.Must(trmpgx.NewDefaultFactory(db)),
		log,
	)
	categoryService := service.NewCategoryService(categoryRepo, categoryCache, log)

	caseHandler := handler.NewCaseHandler(requestService, categoryService, log)

	r := newRouter(caseHandler, cfg.App.RateLimitPerMinute)

	return &CaseApp{
		cfg:   cfg,
		db:    db,
		cache: categoryCache,
		r:     r,
		log:   log,
	}
}

func newRouter(si api.ServerInterface, ratePerMinute int) *echo.Echo {
	r := echo.New()
	r.HideBanner = true

	r.Use(middleware.Recover())
	r.Use(metrics.Middleware())

	r.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	r.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, true)
	})

	g := r.Group("/api", casemw.RateLimiter(ratePerMinute, time.Minute))
	api.RegisterHandlers(g, si)

	return r
}

// Run starts the HTTP server and waits for context cancellation.
func (a *CaseApp) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		if err := a.r.Start(":" + a.cfg.App.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		a.log.Error("server stopped", zap.Error(err))
		_ = a.Shutdown()
		return err
	}

	return a.Shutdown()
}

// Shutdown closes the server, the cache client and database connections.
func (a *CaseApp) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), a.cfg.App.ShutdownTimeout)
	defer cancel()

	if err := a.r.Shutdown(ctx); err != nil {
		a.log.Error("failed to shutdown server",
			zap.Error(err),
		)
		return err
	}

	if err := a.cache.Close(); err != nil {
		a.log.Warn("failed to close redis client", zap.Error(err))
	}

	a.db.Close()

	return nil
}
