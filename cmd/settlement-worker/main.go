package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/stoodioz/stoodioz-api/internal/config"
	"github.com/stoodioz/stoodioz-api/internal/domain/notification"
	"github.com/stoodioz/stoodioz-api/internal/domain/payment"
	"github.com/stoodioz/stoodioz-api/internal/domain/wallet"
	"github.com/stoodioz/stoodioz-api/internal/pkg/database"
	"github.com/stoodioz/stoodioz-api/internal/pkg/scheduler"
)

// Standalone background worker for deployments that run the API with the
// in-process scheduler disabled. Runs the same jobs against the same tables;
// the conditional updates keep concurrent runs safe.
func main() {
	cfg := config.Load()
	setupLogger(cfg)

	log.Info().Str("env", cfg.Env).Msg("Starting Stoodioz settlement worker")

	db, err := database.NewPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer database.ClosePostgres(db)

	walletService := wallet.NewService(wallet.NewRepository(db))
	notificationService := notification.NewService(notification.NewRepository(db))
	paymentRepo := payment.NewRepository(db)
	cleanupJob := notification.NewCleanupJob(notification.NewRepository(db), cfg.NotificationRetention)

	sched, err := scheduler.New()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create scheduler")
	}

	if err := sched.Every("payout-settlement", time.Minute, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		settled, err := walletService.SettleDue(ctx, cfg.SettlementDelay)
		if err != nil {
			log.Error().Err(err).Msg("settlement run failed")
			return
		}
		for _, tx := range settled {
			notificationService.NotifyPayoutSettled(ctx, tx.UserID, tx.Amount, tx.ID)
		}
	}); err != nil {
		log.Fatal().Err(err).Msg("Failed to schedule settlement job")
	}

	if err := sched.Every("notification-cleanup", 24*time.Hour, func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		cleanupJob.Run(ctx)
	}); err != nil {
		log.Fatal().Err(err).Msg("Failed to schedule notification cleanup")
	}

	if err := sched.Every("checkout-expiry", time.Hour, func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		if _, err := paymentRepo.ExpireStale(ctx, time.Now().Add(-24*time.Hour)); err != nil {
			log.Error().Err(err).Msg("checkout expiry run failed")
		}
	}); err != nil {
		log.Fatal().Err(err).Msg("Failed to schedule checkout expiry")
	}

	sched.Start()
	defer sched.Shutdown()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Worker stopped")
}

func setupLogger(cfg *config.Config) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(level)

	if cfg.IsDevelopment() {
		log.Logger = log.Output(zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: "15:04:05",
		})
	}
}
