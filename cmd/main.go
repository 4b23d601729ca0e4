package main

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"github.com/rs/zerolog"

	"LedgerApi/internal/config"
	"LedgerApi/internal/handler"
	"LedgerApi/internal/lock"
	"LedgerApi/internal/repository"
	"LedgerApi/internal/service"
)

func main() {
	log := zerolog.New(zerolog.ConsoleWriter{
		Out:        os.Stdout,
		TimeFormat: time.RFC3339,
	}).With().Timestamp().Logger()

	cfg, envLoaded := config.Load()
	if !envLoaded {
		log.Warn().Msg("No .env file found, relying on system env variables")
	}

	var repo repository.LedgerRepository
	if cfg.DatabaseURL == "" {
		log.Warn().Msg("DB_URL is not set, using in-memory ledger storage")
		repo = repository.NewMemoryRepository()
	} else {
		db, err := sql.Open("postgres", cfg.DatabaseURL)
		if err != nil {
			log.Fatal().Err(err).Msg("Database connection failed")
		}
		defer db.Close()

		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(5 * time.Minute)

		if err := db.Ping(); err != nil {
			log.Fatal().Err(err).Msg("Database ping failed")
		}

		pgRepo := repository.NewPostgresRepository(db)
		if err := pgRepo.RunMigrations(context.Background()); err != nil {
			log.Fatal().Err(err).Msg("Failed to run migrations")
		}
		repo = pgRepo
	}

	locks := lock.NewManager(cfg.LockTimeout)
	ledgerService := service.NewLedgerService(repo, locks, log)
	accountHandler := handler.NewAccountHandler(ledgerService)

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/accounts", accountHandler.CreateAccount)
	mux.HandleFunc("GET /api/v1/accounts/{id}/balance", accountHandler.HandleGetBalance)
	mux.HandleFunc("POST /api/v1/accounts/{id}/deposit", accountHandler.HandleDeposit)
	mux.HandleFunc("POST /api/v1/accounts/{id}/withdraw", accountHandler.HandleWithdraw)
	mux.HandleFunc("GET /api/v1/accounts/{id}/transactions", accountHandler.HandleListTransactions)

	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: mux,
	}

	go func() {
		log.Info().Str("port", cfg.Port).Msg("Server started")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}
	log.Info().Msg("Server exiting")
}
