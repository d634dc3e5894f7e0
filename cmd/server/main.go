package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	authhttp "github.com/AlibekovAA/shotplot/backend/internal/auth/http"
	"github.com/AlibekovAA/shotplot/backend/internal/auth/service"
	chathttp "github.com/AlibekovAA/shotplot/backend/internal/chat/http"
	"github.com/AlibekovAA/shotplot/backend/internal/chat/websocket"
	"github.com/AlibekovAA/shotplot/backend/internal/common/bootstrap"
	"github.com/AlibekovAA/shotplot/backend/internal/common/clock"
	commoncrypto "github.com/AlibekovAA/shotplot/backend/internal/common/crypto"
	commonhttp "github.com/AlibekovAA/shotplot/backend/internal/common/http"
	"github.com/AlibekovAA/shotplot/backend/internal/common/resilience"
	srv "github.com/AlibekovAA/shotplot/backend/internal/common/server"
	"github.com/AlibekovAA/shotplot/backend/internal/quote"
	quotehttp "github.com/AlibekovAA/shotplot/backend/internal/quote/http"
)

const serviceName = "shotplot"

func main() {
	// .env is optional; real environment variables win.
	_ = godotenv.Load()

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", serviceName, err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.NewApp(ctx, serviceName)
	if err != nil {
		return fmt.Errorf("failed to start: %w", err)
	}
	log := app.Log
	cfg := app.Config

	ids := commoncrypto.NewUUIDGenerator()
	hasher := commoncrypto.NewBcryptHasher(cfg.BcryptCost, cfg.HashWorkers)

	authService := service.NewAuthService(service.Deps{
		Repo:        app.UserRepo,
		Hasher:      hasher,
		IDGenerator: ids,
		Clock:       clock.NewRealClock(),
		Breaker: service.NewStoreBreaker(resilience.CircuitBreakerConfig{
			Threshold:  cfg.CircuitBreakerThreshold,
			Timeout:    cfg.CircuitBreakerTimeout,
			ResetAfter: cfg.CircuitBreakerReset,
			Logger:     log,
		}),
		Log: log,
	})

	hub := websocket.NewHub(websocket.NewRegistry(), log, websocket.HubConfig{})
	go hub.Run(context.WithoutCancel(ctx))

	api := http.NewServeMux()
	api.HandleFunc("/health", commonhttp.HealthHandler(log, commonhttp.HealthCheck{Name: "store", Check: app.Ping}))
	api.Handle("/metrics", promhttp.Handler())
	authhttp.NewHandler(authService, log, cfg.RequestTimeout).RegisterRoutes(api)
	quotehttp.NewHandler(quote.NewClient(cfg.QuoteAPIURL, cfg.QuoteTimeout), log).RegisterRoutes(api)
	if info, err := os.Stat(cfg.StaticDir); err == nil && info.IsDir() {
		log.Infof("serving static files from %s", cfg.StaticDir)
		api.Handle("/", http.FileServer(http.Dir(cfg.StaticDir)))
	}

	root := http.NewServeMux()
	chathttp.NewHandler(hub, ids, cfg.WebSocket, log).RegisterRoutes(root)
	root.Handle("/", commonhttp.BuildBaseHandler(serviceName, log, api))

	serverConfig := srv.DefaultServerConfig(cfg.HTTPPort)
	server := srv.NewServer(serverConfig, root)

	return srv.Run(ctx, server, serverConfig, log, serviceName,
		func(ctx context.Context) error {
			log.Infof("%s: closing websocket connections", serviceName)
			return hub.Shutdown(ctx)
		},
		app.Close,
	)
}
