package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/mcash/mcash-api/internal/config"
	"github.com/mcash/mcash-api/internal/domain/realtime"
	"github.com/mcash/mcash-api/internal/domain/transaction"
	"github.com/mcash/mcash-api/internal/domain/user"
	"github.com/mcash/mcash-api/internal/domain/wallet"
	"github.com/mcash/mcash-api/internal/middleware"
	"github.com/mcash/mcash-api/internal/pkg/database"
	"github.com/mcash/mcash-api/internal/pkg/jwt"
	"github.com/mcash/mcash-api/internal/pkg/logger"
	"github.com/mcash/mcash-api/internal/pkg/metrics"
	"github.com/mcash/mcash-api/internal/pkg/money"
	"github.com/mcash/mcash-api/internal/pkg/password"
	pkgresponse "github.com/mcash/mcash-api/internal/pkg/response"
)

const version = "1.0.0"

func main() {
	cfg := config.Load()
	if err := logger.Init(logger.Config{
		Level:       cfg.LogLevel,
		Environment: cfg.Env,
		LogFile:     cfg.LogFile,
	}); err != nil {
		log.Fatal().Err(err).Msg("Failed to initialise logger")
	}

	log.Info().
		Str("env", cfg.Env).
		Str("port", cfg.Port).
		Str("ledger_tz", cfg.LedgerTimezone).
		Msg("Starting mcash API")

	db, err := database.NewPostgres(cfg.DatabaseURL, database.PoolOptions{
		MaxOpenConns: cfg.DBMaxOpenConns,
		MaxIdleConns: cfg.DBMaxIdleConns,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer database.ClosePostgres(db)

	if err := database.ApplySchema(context.Background(), db); err != nil {
		log.Fatal().Err(err).Msg("Failed to apply schema")
	}

	// Without Redis the event hub stays local to this instance.
	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = database.NewRedis(cfg.RedisURL)
		if err != nil {
			log.Warn().Err(err).Msg("Redis unavailable, wallet events will not fan out")
			redisClient = nil
		} else {
			defer database.CloseRedis(redisClient)
		}
	}

	caps, err := loadCaps(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid daily limit configuration")
	}

	jwtService := jwt.NewService(cfg.JWTSecret, cfg.JWTAccessTTL)
	hasher := password.NewHasher(password.DefaultCost)

	// ---------- Repositories ----------
	userRepo := user.NewRepository(db)
	txRepo := transaction.NewRepository(db)
	walletRepo := wallet.NewRepository(db, txRepo, caps, cfg.LedgerTxTimeout)

	// ---------- Realtime ----------
	hub := realtime.NewHub(redisClient)
	go hub.Run()

	// ---------- Services ----------
	userService := user.NewService(db, userRepo, walletRepo, hasher)
	walletService := wallet.NewService(walletRepo, userRepo, hub, metrics.Ledger{}, cfg.Location())
	txService := transaction.NewService(txRepo)

	seedCtx, seedCancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := userService.SeedSuperAdmin(seedCtx, cfg.SuperAdminPhone, cfg.SuperAdminPassword); err != nil {
		log.Error().Err(err).Msg("Failed to seed super admin")
	}
	seedCancel()

	// ---------- Handlers ----------
	r := newRouter(routerDeps{
		cfg:          cfg,
		auth:         middleware.Auth(jwtService),
		users:        user.NewHandler(userService),
		wallets:      wallet.NewHandler(walletService, realtime.NewHandler(hub, cfg.AllowedOrigins)),
		transactions: transaction.NewHandler(txService, cfg.Location()),
	})

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", server.Addr).Msg("HTTP server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	hub.Shutdown()

	log.Info().Msg("Server exited properly")
}

// loadCaps parses the configured daily caps applied to new wallets.
func loadCaps(cfg *config.Config) (wallet.Caps, error) {
	var caps wallet.Caps
	var err error
	if caps.Deposit, err = money.Parse(cfg.DepositDailyLimit); err != nil {
		return caps, err
	}
	if caps.Withdrawal, err = money.Parse(cfg.WithdrawalDailyLimit); err != nil {
		return caps, err
	}
	if caps.SendMoney, err = money.Parse(cfg.SendMoneyDailyLimit); err != nil {
		return caps, err
	}
	return caps, nil
}

type routerDeps struct {
	cfg          *config.Config
	auth         func(http.Handler) http.Handler
	users        *user.Handler
	wallets      *wallet.Handler
	transactions *transaction.Handler
}

func newRouter(d routerDeps) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recover)
	r.Use(middleware.CORSHandler(d.cfg.AllowedOrigins))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		pkgresponse.OK(w, map[string]string{
			"status":  "ok",
			"version": version,
		})
	})
	if d.cfg.MetricsEnabled {
		r.Handle("/metrics", metrics.Handler())
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/ping", func(w http.ResponseWriter, r *http.Request) {
			pkgresponse.OK(w, map[string]string{"message": "pong"})
		})

		r.Mount("/users", d.users.Routes(d.auth))
		r.Mount("/wallet", d.wallets.Routes(d.auth))
		r.Mount("/transactions", d.transactions.Routes(d.auth))
	})

	return r
}
