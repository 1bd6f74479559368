package main

import (
	"context"   // Lifecycle and Redis operations
	"errors"    // http.ErrServerClosed comparison
	"net/http"  // HTTP server
	"os"        // Signals
	"os/signal" // Graceful shutdown
	"syscall"   // SIGTERM
	"time"      // Shutdown timeout

	"shinsen_rewards/internal/api"        // Custom package for API handlers
	"shinsen_rewards/internal/config"     // Custom package for configuration
	"shinsen_rewards/internal/domain"     // Game modes
	"shinsen_rewards/internal/draw"       // Draw engine
	"shinsen_rewards/internal/ledger"     // Admin grants and allowance
	"shinsen_rewards/internal/metrics"    // Prometheus collectors
	"shinsen_rewards/internal/middleware" // Custom package for middleware
	"shinsen_rewards/internal/store"      // GORM draw store
	"shinsen_rewards/internal/utils"      // Redis cache

	"github.com/gin-gonic/gin"                                  // Gin web framework
	"github.com/prometheus/client_golang/prometheus"            // Metrics registry
	"github.com/prometheus/client_golang/prometheus/collectors" // Runtime collectors
	"github.com/redis/go-redis/v9"                              // Redis client
	"github.com/robfig/cron/v3"                                 // Allowance scheduler
	"github.com/sirupsen/logrus"                                // Logrus for structured logging
	"golang.org/x/sync/errgroup"                                // Server and scheduler lifecycle
	"gorm.io/driver/mysql"                                      // MySQL driver for GORM
	"gorm.io/gorm"                                              // GORM ORM library
)

const shutdownTimeout = 10 * time.Second

// Main function to set up and run the server
func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		logrus.Fatalf("failed to load config: %v", err)
	}

	// Setup logger
	if cfg.IsProd {
		logrus.SetFormatter(&logrus.JSONFormatter{})
		gin.SetMode(gin.ReleaseMode)
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	if cfg.JWTSecret == "" {
		logrus.Fatal("JWT_SECRET must be set")
	}

	db, err := gorm.Open(mysql.Open(cfg.DSN()), &gorm.Config{
		SkipDefaultTransaction: true, // Draw and grant transactions are explicit
		TranslateError:         true, // Surface gorm.ErrDuplicatedKey on unique violations
	})
	if err != nil {
		logrus.Fatalf("failed to connect to DB: %v", err)
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr, // Redis server address
		Password: cfg.RedisPass, // Redis password
		DB:       cfg.RedisDB,   // Redis database number
	})
	if _, err := redisClient.Ping(context.Background()).Result(); err != nil {
		logrus.Fatalf("failed to connect to Redis: %v", err)
	}
	cache := utils.NewCache(redisClient, cfg.CacheTTL)

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	recorder := metrics.NewRecorder(registry)

	drawStore, err := store.New(db)
	if err != nil {
		logrus.Fatalf("failed to build store: %v", err)
	}
	engine, err := draw.NewEngine(drawStore, draw.WithObserver(recorder), draw.WithTimeout(cfg.DrawTimeout))
	if err != nil {
		logrus.Fatalf("failed to build draw engine: %v", err)
	}
	ledgers, err := ledger.NewService(drawStore)
	if err != nil {
		logrus.Fatalf("failed to build ledger service: %v", err)
	}

	scheduler := cron.New()
	if cfg.AllowanceAmount > 0 {
		allowance := ledger.Allowance{
			Spec:    cfg.AllowanceSpec,
			Ticket:  domain.TicketSpin,
			Amount:  cfg.AllowanceAmount,
			Timeout: time.Minute,
		}
		if _, err := ledgers.Schedule(scheduler, allowance); err != nil {
			logrus.Fatalf("invalid daily allowance: %v", err)
		}
		logrus.WithFields(logrus.Fields{
			"spec":   cfg.AllowanceSpec,
			"amount": cfg.AllowanceAmount,
		}).Info("Daily spin allowance scheduled")
	}

	r := gin.Default()
	if err := r.SetTrustedProxies([]string{"127.0.0.1"}); err != nil {
		logrus.Fatalf("failed to set trusted proxies: %v", err)
	}
	r.GET("/metrics", metrics.Handler(registry))

	// Auth routes
	r.POST("/user", api.RegisterHandler(db, cfg.WelcomeTickets))
	r.POST("/user/login", api.LoginHandler(db, cfg.JWTSecret, cfg.JWTTTL))

	// Game routes (protected by JWT); the prize tables are public
	r.GET("/games/:mode/prizes", api.PrizeTableHandler(db, cache))
	games := r.Group("/games", middleware.JWTAuthMiddleware(cfg.JWTSecret))
	games.POST("/spin/draw", api.DrawHandler(engine, domain.GameSpin, cache))
	games.POST("/giftbox/draw", api.DrawHandler(engine, domain.GameGiftBox, cache))
	games.POST("/skill/:game/draw", api.SkillDrawHandler(engine, cache))

	// Reward routes (protected by JWT)
	rewards := r.Group("/rewards", middleware.JWTAuthMiddleware(cfg.JWTSecret))
	rewards.GET("/ledger", api.GetLedgerHandler(db, cache))
	rewards.GET("/history", api.GetDrawHistoryHandler(db, cache))
	rewards.GET("/vouchers", api.GetVouchersHandler(db, cache))

	// Admin routes (protected, admin only)
	admin := r.Group("/admin", middleware.JWTAuthMiddleware(cfg.JWTSecret), middleware.AdminOnlyMiddleware(db))
	admin.GET("/ledgers", api.ListLedgersHandler(db))
	admin.GET("/draws", api.ListDrawsHandler(db))
	admin.POST("/tickets", api.GrantTicketsHandler(ledgers, cache))

	srv := &http.Server{
		Addr:              ":" + cfg.AppPort,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logrus.Info("Server running on " + cfg.AppPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		scheduler.Start()
		<-gctx.Done()
		logrus.Info("Server shutdown attempted")
		<-scheduler.Stop().Done() // wait for a running allowance job
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	if err := g.Wait(); err != nil {
		logrus.Fatalf("server stopped: %v", err)
	}
	if err := redisClient.Close(); err != nil {
		logrus.WithField("error", err.Error()).Warn("Failed to close Redis client")
	}
	logrus.Info("Server shutdown succeeded")
}
