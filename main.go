// Package main provides the main entry point for the DTI portal API
package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/amirphl/dti-portal/app/handlers"
	"github.com/amirphl/dti-portal/app/middleware"
	"github.com/amirphl/dti-portal/app/router"
	"github.com/amirphl/dti-portal/app/services"
	businessflow "github.com/amirphl/dti-portal/business_flow"
	"github.com/amirphl/dti-portal/config"
	"github.com/amirphl/dti-portal/models"
	"github.com/amirphl/dti-portal/repository"
	"github.com/amirphl/dti-portal/utils"
	"github.com/gofiber/fiber/v3"
	"github.com/redis/go-redis/v9"
	"gopkg.in/natefinch/lumberjack.v2"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Application represents the main application structure
type Application struct {
	router    router.Router
	config    *config.ProductionConfig
	server    *fiber.App
	stopFuncs []func()
}

func main() {
	log.Println("Starting DTI portal application...")

	cfg, err := config.LoadProductionConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	closeLog := initializeLogging(cfg.Logging)
	defer closeLog()

	app, err := initializeApplication(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize application: %v", err)
	}

	app.router.SetupRoutes()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		address := cfg.Server.Address()
		log.Printf("Server starting on %s", address)

		if err := app.router.Start(address); err != nil {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	<-sigChan
	log.Println("Shutting down gracefully...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := app.server.ShutdownWithContext(shutdownCtx); err != nil {
		log.Printf("Error during shutdown: %v", err)
	}

	for _, fn := range app.stopFuncs {
		fn()
	}

	log.Println("Server stopped")
}

// initializeLogging points the standard logger at stdout, a rotating file, or both
func initializeLogging(cfg config.LoggingConfig) func() {
	log.SetFlags(log.LstdFlags | log.LUTC | log.Lmicroseconds)
	if cfg.Output == "stdout" {
		return func() {}
	}

	if err := os.MkdirAll(filepath.Dir(cfg.FilePath), 0o755); err != nil {
		log.Printf("Failed to create log directory, logging to stdout only: %v", err)
		return func() {}
	}

	rotating := &lumberjack.Logger{
		Filename:   cfg.FilePath,
		MaxSize:    cfg.MaxSize,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAge,
		Compress:   cfg.Compress,
	}

	var out io.Writer = rotating
	if cfg.Output == "both" {
		out = io.MultiWriter(os.Stdout, rotating)
	}
	log.SetOutput(out)

	return func() { _ = rotating.Close() }
}

// initializeDatabase initializes the database connection with connection pooling
func initializeDatabase(cfg config.DatabaseConfig) (*gorm.DB, error) {
	gormCfg := &gorm.Config{}
	if cfg.SlowQueryLog {
		gormCfg.Logger = gormlogger.New(log.Default(), gormlogger.Config{
			SlowThreshold:             cfg.SlowQueryTime,
			LogLevel:                  gormlogger.Warn,
			IgnoreRecordNotFoundError: true,
		})
	}

	db, err := gorm.Open(postgres.Open(cfg.DSN()), gormCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if cfg.AutoMigrate {
		if err := db.AutoMigrate(&models.Account{}, &models.Notification{}); err != nil {
			return nil, fmt.Errorf("failed to migrate database: %w", err)
		}
	}

	log.Printf("Database connection established with %d max open connections, %d max idle connections",
		cfg.MaxOpenConns, cfg.MaxIdleConns)

	return db, nil
}

// initializeCache initializes the Redis client and verifies connectivity.
// It returns a nil client when caching is disabled.
func initializeCache(cfg config.CacheConfig) (*redis.Client, error) {
	if !cfg.Enabled {
		return nil, nil
	}

	opt, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	opt.DB = cfg.RedisDB

	rc := redis.NewClient(opt)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rc.Ping(ctx).Err(); err != nil {
		_ = rc.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	log.Printf("Redis connection established (db=%d)", cfg.RedisDB)
	return rc, nil
}

// startCacheHealthMonitor periodically pings Redis to surface connectivity issues.
// The returned function stops the monitor.
func startCacheHealthMonitor(parent context.Context, client *redis.Client, interval time.Duration) func() {
	monitorCtx, cancel := context.WithCancel(parent)
	if interval <= 0 {
		interval = 30 * time.Second
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-monitorCtx.Done():
				return
			case <-ticker.C:
				ctx, c := context.WithTimeout(monitorCtx, 3*time.Second)
				if err := client.Ping(ctx).Err(); err != nil {
					log.Printf("Redis healthcheck failed: %v", err)
				}
				c()
			}
		}
	}()
	return cancel
}

// initializeNotificationService picks real or logging providers for SMS and email
func initializeNotificationService(cfg *config.ProductionConfig) services.NotificationService {
	var smsProvider services.SMSProvider
	if cfg.SMS.IsMock() {
		smsProvider = services.NewMockSMSProvider()
	} else {
		smsProvider = services.NewSMSGateway(&cfg.SMS)
	}

	var emailProvider services.EmailProvider
	if cfg.Email.IsMock() {
		emailProvider = services.NewMockEmailProvider()
	} else {
		emailProvider = services.NewSMTPEmailProvider(
			cfg.Email.Host,
			cfg.Email.Port,
			cfg.Email.Username,
			cfg.Email.Password,
			cfg.Email.FromEmail,
			cfg.Email.FromName,
		)
	}

	return services.NewNotificationService(smsProvider, emailProvider)
}

// initializeCaptchaService returns nil when the login captcha is disabled
func initializeCaptchaService(cfg *config.ProductionConfig, rc *redis.Client) services.CaptchaService {
	if !cfg.Security.LoginCaptchaEnabled {
		return nil
	}

	var store services.ChallengeStore
	if rc != nil {
		store = services.NewRedisChallengeStore(rc, cfg.Cache.RedisPrefix)
	} else {
		store = services.NewMemoryChallengeStore()
	}
	return services.NewCaptchaServiceRotate(store, cfg.Captcha.TTL, cfg.Captcha.Padding, cfg.Captcha.ImageSize)
}

// initializeApplication initializes the main application components
func initializeApplication(cfg *config.ProductionConfig) (*Application, error) {
	var stopFuncs []func()

	cipher, err := utils.NewFieldCipher(cfg.Encryption.FieldKey)
	if err != nil {
		return nil, err
	}
	models.SetFieldCipher(cipher)

	db, err := initializeDatabase(cfg.Database)
	if err != nil {
		return nil, err
	}

	rc, err := initializeCache(cfg.Cache)
	if err != nil {
		return nil, err
	}
	if rc != nil {
		stopMonitor := startCacheHealthMonitor(context.Background(), rc, cfg.Cache.HealthCheckInterval)
		stopFuncs = append(stopFuncs, stopMonitor, func() { _ = rc.Close() })
	}

	// Repositories
	accountRepo := repository.NewAccountRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)

	// Services
	notificationService := initializeNotificationService(cfg)
	captchaService := initializeCaptchaService(cfg, rc)

	tokenService, err := services.NewTokenService(
		cfg.JWT.AccessTokenTTL,
		cfg.JWT.RefreshTokenTTL,
		cfg.JWT.Issuer,
		cfg.JWT.Audience,
		cfg.JWT.UseRSAKeys,
		cfg.JWT.PrivateKey,
		cfg.JWT.PublicKey,
		cfg.JWT.SecretKey,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize token service: %w", err)
	}
	log.Printf("Token service initialized with issuer: %s, audience: %s", cfg.JWT.Issuer, cfg.JWT.Audience)

	// Flows
	verificationFlow := businessflow.NewVerificationFlow(
		accountRepo,
		notificationService,
		rc,
		cfg.Cache.RedisPrefix,
		cfg.Verification.ResendCooldown,
	)
	authFlow := businessflow.NewAuthFlow(
		accountRepo,
		tokenService,
		captchaService,
		verificationFlow,
		cfg.Security.BcryptCost,
	)
	profileFlow := businessflow.NewProfileFlow(accountRepo, cfg.Media.Root)
	notificationFlow := businessflow.NewNotificationFlow(accountRepo, notificationRepo)
	adminAccountFlow := businessflow.NewAdminAccountFlow(accountRepo, cfg.Security.BcryptCost)

	if err := ensureSuperuser(adminAccountFlow, cfg.Admin); err != nil {
		return nil, err
	}

	// Handlers
	h := router.Handlers{
		Auth:         handlers.NewAuthHandler(authFlow),
		Verification: handlers.NewVerificationHandler(verificationFlow),
		Profile:      handlers.NewProfileHandler(profileFlow),
		Notification: handlers.NewNotificationHandler(notificationFlow),
		Admin:        handlers.NewAdminHandler(adminAccountFlow, notificationFlow),
	}

	authMiddleware := middleware.NewAuthMiddleware(tokenService)

	appRouter := router.NewFiberRouter(h, authMiddleware, router.Options{
		AllowOrigins:  cfg.Security.AllowedOrigins,
		MediaRoot:     cfg.Media.Root,
		EnableDocs:    cfg.Server.EnableDocs,
		EnableMetrics: cfg.Metrics.Enabled,
		MetricsPath:   cfg.Metrics.Path,
		BlockedIPs:    cfg.Security.IPBlacklist,
	})

	stopFuncs = append(stopFuncs, func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	return &Application{
		router:    appRouter,
		config:    cfg,
		server:    appRouter.GetApp(),
		stopFuncs: stopFuncs,
	}, nil
}

// ensureSuperuser creates the configured bootstrap superuser on first start
func ensureSuperuser(flow businessflow.AdminAccountFlow, cfg config.AdminConfig) error {
	if cfg.SuperuserUsername == "" {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	account, err := flow.EnsureSuperuser(ctx, cfg.SuperuserUsername, cfg.SuperuserEmail, cfg.SuperuserPassword)
	if err != nil {
		return fmt.Errorf("failed to ensure superuser: %w", err)
	}
	if account == nil {
		return nil
	}
	log.Printf("Superuser %s ready (id=%d)", account.Username, account.ID)
	return nil
}
