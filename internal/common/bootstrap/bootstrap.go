package bootstrap

import (
	"context"
	"fmt"
	"os"

	"github.com/jackc/pgx/v4/pgxpool"

	"github.com/AlibekovAA/shotplot/backend/internal/common/config"
	"github.com/AlibekovAA/shotplot/backend/internal/common/constants"
	"github.com/AlibekovAA/shotplot/backend/internal/common/db"
	"github.com/AlibekovAA/shotplot/backend/internal/common/logger"
	userrepo "github.com/AlibekovAA/shotplot/backend/internal/user/repository"
)

type App struct {
	Log      *logger.Logger
	Config   config.AppConfig
	Pool     *pgxpool.Pool
	UserRepo userrepo.Repository
}

// NewApp loads configuration and opens the user store. With the postgres
// driver it connects, applies migrations and starts pool metrics; ctx bounds
// those startup steps and the metrics loop.
func NewApp(ctx context.Context, serviceName string) (*App, error) {
	log, err := initializeLogger(serviceName)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	cfg, err := config.LoadAppConfig()
	if err != nil {
		log.Errorf("failed to load config: %v", err)
		return nil, err
	}

	app := &App{Log: log, Config: cfg}

	switch cfg.StoreDriver {
	case config.StoreDriverMemory:
		log.Warn("using in-memory user store; users are lost on restart")
		app.UserRepo = userrepo.NewMemoryRepository()

	case config.StoreDriverPostgres:
		pool, err := db.NewPool(ctx, log, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		if err := db.Migrate(ctx, log, pool); err != nil {
			pool.Close()
			return nil, err
		}
		db.StartPoolMetrics(ctx, pool, constants.DBPoolMetricsInterval)
		app.Pool = pool
		app.UserRepo = userrepo.NewPgRepository(pool, log)

	default:
		return nil, fmt.Errorf("unsupported store driver %q", cfg.StoreDriver)
	}

	return app, nil
}

// Close releases the store.
func (a *App) Close(context.Context) error {
	if a.Pool != nil {
		a.Pool.Close()
	}
	return nil
}

// Ping reports store readiness for the health endpoint.
func (a *App) Ping(ctx context.Context) error {
	if a.Pool == nil {
		return nil
	}
	return a.Pool.Ping(ctx)
}

func initializeLogger(serviceName string) (*logger.Logger, error) {
	return logger.New(os.Getenv("LOG_DIR"), serviceName, os.Getenv("LOG_LEVEL"))
}
