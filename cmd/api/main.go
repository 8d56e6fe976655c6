package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Dan9191/account-record-service/internal/auth"
	"github.com/Dan9191/account-record-service/internal/bootstrap"
	"github.com/Dan9191/account-record-service/internal/config"
	"github.com/Dan9191/account-record-service/internal/events"
	"github.com/Dan9191/account-record-service/internal/handler"
	"github.com/Dan9191/account-record-service/internal/importer"
	"github.com/Dan9191/account-record-service/internal/logger"
	"github.com/Dan9191/account-record-service/internal/notify"
	"github.com/Dan9191/account-record-service/internal/repository"
	"github.com/Dan9191/account-record-service/internal/service"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/sirupsen/logrus"
)

func main() {
	// .env is optional
	_ = godotenv.Load()

	// Load configuration
	cfg, err := config.NewConfig()
	if err != nil {
		logrus.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	log := logger.New(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize store
	store, closeStore, err := openStore(ctx, cfg, log)
	if err != nil {
		log.Fatalf("Failed to initialize store: %v", err)
	}
	defer closeStore()

	if err := bootstrap.SeedAdmin(ctx, store, cfg.AdminEmail, cfg.AdminPassword, log); err != nil {
		log.Fatalf("Failed to seed admin user: %v", err)
	}

	publisher := events.NewPublisher(cfg.AMQPURL, cfg.AccountEventsExchange, log)
	defer publisher.Close()

	// Startup import
	imp := importer.NewImporter(store, log, importer.WithBatchSize(cfg.ImportBatchSize))
	guard := bootstrap.NewGuard(store, imp, cfg.ImportFile, publisher, notify.NewSender(cfg, log), log)
	guard.Run(ctx)
	if cfg.ImportRetrySchedule != "" {
		c, err := guard.ScheduleRetry(cfg.ImportRetrySchedule)
		if err != nil {
			log.Fatalf("Failed to schedule import retry: %v", err)
		}
		defer c.Stop()
	}

	// Initialize layers
	tokens := auth.NewTokenProvider(cfg.JWTSecret, cfg.JWTExpiration)
	authSvc := service.NewAuthService(store, tokens, log)
	accountSvc := service.NewAccountService(store, publisher, log)
	h := handler.NewHandler(accountSvc, authSvc, store, log)
	router := handler.NewRouter(h, authSvc, log)

	// Start server
	addr := fmt.Sprintf(":%s", cfg.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	go func() {
		log.Infof("Starting server on %s", addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	<-ctx.Done()
	log.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Errorf("Graceful shutdown failed: %v", err)
	}
}

func openStore(ctx context.Context, cfg *config.Config, log *logrus.Logger) (repository.Store, func(), error) {
	if cfg.StoreDriver == config.DriverMemory {
		log.Warn("Using in-memory store, data is lost on restart")
		return repository.NewMemoryRepository(), func() {}, nil
	}

	db, err := sql.Open("postgres", cfg.DBConn)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("failed to ping database: %w", err)
	}
	repo := repository.NewRepository(db)
	if err := repo.Migrate(ctx); err != nil {
		db.Close()
		return nil, nil, err
	}
	return repo, func() { db.Close() }, nil
}
