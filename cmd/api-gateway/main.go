package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	_ "github.com/noah-isme/persona-chat-api/api/swagger"
	"github.com/noah-isme/persona-chat-api/internal/handler"
	"github.com/noah-isme/persona-chat-api/internal/repository"
	"github.com/noah-isme/persona-chat-api/internal/service"
	"github.com/noah-isme/persona-chat-api/internal/store"
	"github.com/noah-isme/persona-chat-api/internal/token"
	"github.com/noah-isme/persona-chat-api/pkg/broker"
	"github.com/noah-isme/persona-chat-api/pkg/cache"
	"github.com/noah-isme/persona-chat-api/pkg/config"
	"github.com/noah-isme/persona-chat-api/pkg/database"
	"github.com/noah-isme/persona-chat-api/pkg/jobs"
	"github.com/noah-isme/persona-chat-api/pkg/llm"
	"github.com/noah-isme/persona-chat-api/pkg/logger"
	"github.com/noah-isme/persona-chat-api/pkg/mailer"
)

// @title Persona Chat API
// @version 1.0.0
// @description Accounts, sessions, characters and conversations for the persona chat app
// @BasePath /api
// @schemes http https
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg.Env, cfg.Log)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logr); err != nil {
		logr.Fatal("server failed", zap.Error(err))
	}
}

func run(ctx context.Context, cfg *config.Config, logr *zap.Logger) error {
	metrics := service.NewMetricsService()

	db, err := store.Open(cfg.Store.Path,
		store.WithLogger(logr.Named("store")),
		store.WithFlushObserver(metrics.ObserveStoreFlush),
	)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	applied, err := db.Migrate()
	if err != nil {
		return fmt.Errorf("migrate store: %w", err)
	}
	if len(applied) > 0 {
		logr.Info("store migrated", zap.Strings("versions", applied))
	}

	rdb, err := cache.NewRedis(ctx, cfg.Redis)
	if err != nil {
		logr.Warn("redis unavailable, rate limiting and caching disabled", zap.Error(err))
	}
	if rdb != nil {
		defer rdb.Close() //nolint:errcheck
	}

	var cacheSvc *service.CacheService
	if rdb != nil {
		cacheSvc = service.NewCacheService(repository.NewCacheRepository(rdb, "persona"), metrics, cfg.Redis.CacheTTL, logr)
	}

	var auditRepo *repository.AuditRepository
	auditDB, err := database.NewPostgres(ctx, cfg.Audit)
	if err != nil {
		logr.Warn("audit database unavailable, audit trail disabled", zap.Error(err))
	} else if auditDB != nil {
		defer auditDB.Close() //nolint:errcheck
		version, err := database.Migrate(auditDB)
		if err != nil {
			return fmt.Errorf("migrate audit database: %w", err)
		}
		logr.Info("audit database ready", zap.Uint("schema_version", version))
		auditRepo = repository.NewAuditRepository(auditDB)
	}

	dispatcher, closeDispatcher, err := newEmailDispatcher(ctx, cfg, logr)
	if err != nil {
		return err
	}
	defer closeDispatcher()

	notifier := service.NewNotificationService(dispatcher, logr.Named("email"), metrics, service.NotificationConfig{
		Enabled:     cfg.Email.Enabled,
		FrontendURL: cfg.FrontendURL,
	})

	codec, err := token.NewCodec(token.Config{
		AccessSecret:        cfg.JWT.AccessSecret,
		RefreshSecret:       cfg.JWT.RefreshSecret,
		AccessTTL:           cfg.JWT.AccessTTL,
		RememberMeAccessTTL: cfg.JWT.RememberMeAccessTTL,
		RefreshTTL:          cfg.JWT.RefreshTTL,
	})
	if err != nil {
		return fmt.Errorf("init token codec: %w", err)
	}

	users := repository.NewUserRepository(db)
	tokens := repository.NewTokenRepository(db)
	validate, err := service.NewValidator()
	if err != nil {
		return err
	}

	authParams := service.AuthServiceParams{
		Users:     users,
		Tokens:    tokens,
		Codec:     codec,
		Notifier:  notifier,
		Metrics:   metrics,
		Validator: validate,
		Logger:    logr.Named("auth"),
		Config: service.AuthConfig{
			BcryptCost:             cfg.Security.BcryptCost,
			MaxFailedLoginAttempts: cfg.Security.MaxFailedLoginAttempts,
			LockoutDuration:        cfg.Security.LockoutDuration,
			PasswordResetTTL:       cfg.JWT.PasswordResetTTL,
			EmailVerificationTTL:   cfg.JWT.EmailVerificationTTL,
		},
	}
	userParams := service.UserServiceParams{
		Users:      users,
		Tokens:     tokens,
		Notifier:   notifier,
		Cache:      cacheSvc,
		Validator:  validate,
		Logger:     logr.Named("users"),
		BcryptCost: cfg.Security.BcryptCost,
	}
	characters := repository.NewCharacterRepository(db)
	characterParams := service.CharacterServiceParams{
		Characters: characters,
		Validator:  validate,
		Logger:     logr.Named("characters"),
	}
	if auditRepo != nil {
		authParams.Audit = auditRepo
		userParams.Audit = auditRepo
		userParams.History = auditRepo
		characterParams.Audit = auditRepo
	}
	authSvc := service.NewAuthService(authParams)
	userSvc := service.NewUserService(userParams)
	characterSvc := service.NewCharacterService(characterParams)

	ai := cfg.AI
	completer := llm.New(ctx, llm.Config{
		APIKey:             ai.APIKey,
		Model:              ai.Model,
		MaxTokens:          ai.MaxTokens,
		Temperature:        float32(ai.Temperature),
		TopP:               float32(ai.TopP),
		MaxContextMessages: ai.MaxContextMessages,
		MaxMessageLength:   ai.MaxMessageLength,
		Timeout:            ai.Timeout,
		UseMock:            ai.UseMock,
	}, logr.Named("llm"))
	chatSvc := service.NewChatService(service.ChatServiceParams{
		Conversations:   repository.NewConversationRepository(db),
		Characters:      characters,
		Completer:       completer,
		Metrics:         metrics,
		Validator:       validate,
		Logger:          logr.Named("chat"),
		ContextMessages: ai.MaxContextMessages,
	})

	scheduler := jobs.NewScheduler(logr.Named("scheduler"))
	scheduler.Every("token-cleanup", cfg.Maintenance.CleanupInterval, cfg.Maintenance.CleanupOnStart, func(ctx context.Context) error {
		_, err := authSvc.CleanupExpiredTokens(ctx)
		return err
	})
	scheduler.Start(ctx)
	defer scheduler.Stop()

	router := handler.NewRouter(handler.RouterParams{
		Config:     cfg,
		Logger:     logr,
		Auth:       authSvc,
		Users:      userSvc,
		Characters: characterSvc,
		Chat:       chatSvc,
		Metrics:    metrics,
		Store:      db,
		Redis:      rdb,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logr.Info("server starting", zap.String("addr", srv.Addr), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logr.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Warn("graceful shutdown failed", zap.Error(err))
	}
	if err := db.Flush(); err != nil {
		logr.Error("final store flush failed", zap.Error(err))
	}
	return nil
}

// newEmailDispatcher builds the configured email transport and a function
// releasing it.
func newEmailDispatcher(ctx context.Context, cfg *config.Config, logr *zap.Logger) (service.EmailDispatcher, func(), error) {
	if !cfg.Email.Enabled {
		return nil, func() {}, nil
	}

	if cfg.Email.Transport == config.EmailTransportRabbitMQ {
		publisher, err := broker.NewRabbitPublisher(cfg.Broker.URL, cfg.Broker.EmailQueue)
		if err != nil {
			return nil, nil, fmt.Errorf("connect email broker: %w", err)
		}
		logr.Info("email transport ready", zap.String("transport", "rabbitmq"), zap.String("queue", cfg.Broker.EmailQueue))
		return service.NewBrokerDispatcher(publisher), publisher.Close, nil
	}

	emailLog := logr.Named("email")
	queue := jobs.NewQueue("email", service.EmailJobHandler(mailer.NewSender(cfg.Email, emailLog)), jobs.QueueConfig{
		Workers:    cfg.Email.Workers,
		MaxRetries: cfg.Email.MaxRetries,
		RetryDelay: cfg.Email.RetryDelay,
		Logger:     emailLog,
		OnGiveUp: func(job jobs.Job, err error) {
			emailLog.Error("email job dropped after retries", zap.String("job_id", job.ID), zap.Error(err))
		},
	})
	queue.Start(ctx)
	logr.Info("email transport ready", zap.String("transport", "inprocess"), zap.Bool("mailgun", cfg.Email.MailgunConfigured()))
	return service.NewQueueDispatcher(queue), queue.Stop, nil
}
