// Package server initializes and runs the toolshelf API server. It opens
// the database, applies migrations, provisions the first owner and serves
// the REST API until a termination signal arrives.
package server

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrijs2005/toolshelf/internal/cryptox"
	"github.com/dmitrijs2005/toolshelf/internal/dbx"
	"github.com/dmitrijs2005/toolshelf/internal/logging"
	"github.com/dmitrijs2005/toolshelf/internal/server/auth"
	"github.com/dmitrijs2005/toolshelf/internal/server/bootstrap"
	"github.com/dmitrijs2005/toolshelf/internal/server/config"
	"github.com/dmitrijs2005/toolshelf/internal/server/httpapi"
	"github.com/dmitrijs2005/toolshelf/internal/server/metrics"
	"github.com/dmitrijs2005/toolshelf/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/toolshelf/internal/server/services"
	"github.com/gin-gonic/gin"
	"github.com/uptrace/bun"
)

type App struct {
	config  *config.Config
	logger  logging.Logger
	db      *bun.DB
	revoker *auth.RedisRevoker
	server  *httpapi.Server
}

// NewApp wires every component from c. The returned App owns the database
// and Redis connections; call Close when done.
func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger, err := logging.New(c.LogBackend, c.LogLevel, os.Stdout)
	if err != nil {
		return nil, err
	}
	gin.SetMode(c.GinMode)

	app := &App{config: c, logger: logger}

	app.db, err = dbx.Open(ctx, c.DatabaseDSN, dbx.DefaultPoolOptions)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	rm := repomanager.NewBunRepositoryManager()
	applied, err := rm.RunMigrations(ctx, app.db)
	if err != nil {
		_ = app.Close()
		return nil, fmt.Errorf("migrations: %w", err)
	}
	logger.Info(ctx, "migrations applied", "count", applied)

	var opts []auth.Option
	if c.RedisURL != "" {
		app.revoker, err = auth.NewRedisRevokerFromURL(ctx, c.RedisURL)
		if err != nil {
			_ = app.Close()
			return nil, fmt.Errorf("redis init error: %w", err)
		}
		opts = append(opts, auth.WithRevoker(app.revoker))
	} else {
		logger.Info(ctx, "token revocation disabled, REDIS_URL not set")
	}

	tokens, err := auth.NewTokenManager([]byte(c.SecretKey), c.JWTAlgorithm, c.AccessTokenValidityDuration, opts...)
	if err != nil {
		_ = app.Close()
		return nil, err
	}

	hasher := cryptox.NewPasswordHasher(cryptox.DefaultParams)
	us := services.NewUserService(app.db, rm, hasher, tokens, c.DBTimeout)
	ts := services.NewToolService(app.db, rm, c.DBTimeout)

	owner := bootstrap.Options{Email: c.BootstrapOwnerEmail, PasswordPath: c.BootstrapOwnerPasswordPath}
	if _, err := bootstrap.EnsureOwner(ctx, us, owner, logger); err != nil {
		_ = app.Close()
		return nil, fmt.Errorf("bootstrap owner: %w", err)
	}

	router := httpapi.NewRouter(httpapi.Deps{
		Users:   us,
		Tools:   ts,
		Tokens:  tokens,
		DB:      app.db,
		Logger:  logger,
		Metrics: metrics.New(),
	})
	app.server = httpapi.NewServer(c.HTTPAddr, router, logger)

	return app, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

// Run serves the API until ctx is cancelled or a termination signal arrives,
// then releases every connection.
func (app *App) Run(ctx context.Context) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...", "address", app.config.HTTPAddr)
	app.initSignalHandler(cancelFunc)

	runErr := app.server.Run(ctx)
	if runErr != nil {
		app.logger.Error(ctx, "http server stopped", "error", runErr)
	}

	return errors.Join(runErr, app.Close())
}

// Close releases the database and Redis connections.
func (app *App) Close() error {
	var errs []error
	if app.revoker != nil {
		errs = append(errs, app.revoker.Close())
	}
	if app.db != nil {
		errs = append(errs, app.db.Close())
	}
	return errors.Join(errs...)
}
