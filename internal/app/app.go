package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	_ "kyccodes/docs"
	"kyccodes/internal/config"
	"kyccodes/internal/entities"
	"kyccodes/internal/handlers"
	"kyccodes/internal/logger"
	"kyccodes/internal/middleware"
	"kyccodes/internal/repositories"
	"kyccodes/internal/routes"
	"kyccodes/internal/services"
	"kyccodes/internal/utils"
)

const shutdownTimeout = 10 * time.Second

func Run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	log, err := logger.New(cfg.Server.Env)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// === DB ===
	db, err := sql.Open("postgres", cfg.Database.DSN)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Warn("close database", zap.Error(err))
		}
	}()
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		return fmt.Errorf("ping database: %w", err)
	}

	// === Redis (send throttling) ===
	var limiter services.SendLimiter
	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer func() { _ = rdb.Close() }()
		if err := rdb.Ping(pingCtx).Err(); err != nil {
			log.Warn("redis unavailable, send limiter will fail open", zap.Error(err))
		}
		limiter = repositories.NewSendLimitRepository(rdb, "")
	} else {
		log.Warn("redis.addr is empty, send throttling disabled")
	}

	// === Repos ===
	codeRepo := repositories.NewCodeRepository(db)
	userRepo := repositories.NewUserRepository(db)
	phoneRepo := repositories.NewPhoneRepository(db)

	// === Events ===
	var events services.EventPublisher = services.NewStubPublisher(log)
	if cfg.Kafka.Enabled {
		kp, err := services.NewKafkaPublisher(cfg.Kafka, log)
		if err != nil {
			return err
		}
		defer func() {
			if err := kp.Close(); err != nil {
				log.Warn("close kafka publisher", zap.Error(err))
			}
		}()
		events = kp
	}

	// === Delivery ===
	var notifier services.CodeNotifier
	switch cfg.Codes.Delivery {
	case config.DeliveryEvents:
		notifier = services.NewEventNotifier(events)
	default:
		mobizon := utils.NewClientWithOptions(cfg.Mobizon.APIKey, cfg.Mobizon.SenderID, cfg.Mobizon.DryRun, log)
		email := services.NewEmailService(
			cfg.Email.SMTPHost,
			cfg.Email.SMTPPort,
			cfg.Email.SMTPUser,
			cfg.Email.SMTPPassword,
			cfg.Email.FromEmail,
		)
		notifier = services.NewDirectNotifier(services.NewSMSService(mobizon), email)
	}

	// === Metrics ===
	reg := prometheus.NewRegistry()
	codeMetrics, err := services.NewCodeMetrics(reg)
	if err != nil {
		return err
	}
	httpMetrics, err := middleware.NewHTTPMetrics(reg)
	if err != nil {
		return err
	}

	// === Services ===
	codeService := services.NewCodeService(services.CodeServiceDeps{
		Codes:     codeRepo,
		Users:     userRepo,
		Phones:    phoneRepo,
		Lifecycle: services.NewCodeLifecycle(cfg.Codes),
		Notifier:  notifier,
		Events:    events,
		Limiter:   limiter,
		Metrics:   codeMetrics,
		Config:    cfg.Codes,
		Logger:    log,
	})
	phoneService := services.NewPhoneService(phoneRepo, codeRepo)

	// === Gin ===
	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(log))
	router.Use(gin.Recovery())
	router.Use(httpMetrics.Handler())
	router.Use(corsMiddleware())

	routes.SetupRoutes(router, routes.Handlers{
		ManagementCode: handlers.NewManagementCodeHandler(codeService, log),
		Code:           handlers.NewCodeHandler(codeService, log),
		Phone:          handlers.NewPhoneHandler(phoneService, entities.NewPhonePresenter(cfg.API.DataMaskingEnabled), log),
	}, routes.Options{
		JWTSecret: []byte(cfg.Auth.JWTSecret),
		Gatherer:  reg,
		Swagger:   cfg.Server.Env != "production",
	})

	// === Run ===
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server started", zap.String("addr", srv.Addr), zap.String("env", cfg.Server.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancelShutdown()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Authorization, X-Request-ID")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
