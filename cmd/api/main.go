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
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	stripe "github.com/stripe/stripe-go/v82"

	"github.com/stoodioz/stoodioz-api/internal/config"
	"github.com/stoodioz/stoodioz-api/internal/domain/assistant"
	"github.com/stoodioz/stoodioz-api/internal/domain/auth"
	"github.com/stoodioz/stoodioz-api/internal/domain/booking"
	"github.com/stoodioz/stoodioz-api/internal/domain/chat"
	"github.com/stoodioz/stoodioz-api/internal/domain/notification"
	"github.com/stoodioz/stoodioz-api/internal/domain/payment"
	"github.com/stoodioz/stoodioz-api/internal/domain/stoodio"
	"github.com/stoodioz/stoodioz-api/internal/domain/subscription"
	"github.com/stoodioz/stoodioz-api/internal/domain/user"
	"github.com/stoodioz/stoodioz-api/internal/domain/wallet"
	"github.com/stoodioz/stoodioz-api/internal/middleware"
	"github.com/stoodioz/stoodioz-api/internal/pkg/database"
	"github.com/stoodioz/stoodioz-api/internal/pkg/gemini"
	"github.com/stoodioz/stoodioz-api/internal/pkg/jwt"
	pkgresponse "github.com/stoodioz/stoodioz-api/internal/pkg/response"
	"github.com/stoodioz/stoodioz-api/internal/pkg/scheduler"
)

func main() {
	cfg := config.Load()
	setupLogger(cfg)

	log.Info().
		Str("env", cfg.Env).
		Str("port", cfg.Port).
		Msg("Starting Stoodioz API")

	db, err := database.NewPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer database.ClosePostgres(db)

	redis, err := database.NewRedis(cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer database.CloseRedis(redis)

	jwtService := jwt.NewService(cfg.JWTSecret, cfg.JWTAccessTTL, cfg.JWTRefreshTTL)

	// ---------- Repositories ----------
	userRepo := user.NewRepository(db)
	stoodioRepo := stoodio.NewRepository(db)
	bookingRepo := booking.NewRepository(db)
	walletRepo := wallet.NewRepository(db)
	chatRepo := chat.NewRepository(db)
	notificationRepo := notification.NewRepository(db)
	subscriptionRepo := subscription.NewRepository(db)
	paymentRepo := payment.NewRepository(db)

	// ---------- WebSocket hub ----------
	chatHub := chat.NewHub(redis)
	go chatHub.Run()
	defer chatHub.Shutdown()

	// ---------- Services ----------
	userService := user.NewService(userRepo)
	stoodioService := stoodio.NewService(stoodioRepo)
	walletService := wallet.NewService(walletRepo)
	subscriptionService := subscription.NewService(subscriptionRepo)
	notificationService := notification.NewService(notificationRepo)
	chatService := chat.NewService(chatRepo, chatHub, userRepo, notificationService)

	bookingService := booking.NewService(
		bookingRepo,
		stoodioService,
		userRepo,
		walletService,
		subscriptionService,
		chatService,
		notificationService,
		cfg.ServiceFeePercent,
		cfg.DefaultEngineerRate,
	)

	stripeClient := stripe.NewClient(cfg.StripeSecretKey)
	paymentService := payment.NewService(
		paymentRepo,
		stripeClient.V1CheckoutSessions,
		walletService,
		subscriptionService,
		cfg.CheckoutSuccessURL,
		cfg.CheckoutCancelURL,
	)

	geminiClient := gemini.NewClient(gemini.Config{
		BaseURL: cfg.GeminiBaseURL,
		APIKey:  cfg.GeminiAPIKey,
		Model:   cfg.GeminiModel,
	})
	assistantService := assistant.NewService(geminiClient)

	authService := auth.NewService(userRepo, jwtService)

	// ---------- Handlers ----------
	authHandler := auth.NewHandler(authService)
	userHandler := user.NewHandler(userService)
	stoodioHandler := stoodio.NewHandler(stoodioService)
	bookingHandler := booking.NewHandler(bookingService)
	walletHandler := wallet.NewHandler(walletService)
	chatHandler := chat.NewHandler(chatService, chatHub, assistantService)
	notificationHandler := notification.NewHandler(notificationService)
	subscriptionHandler := subscription.NewHandler(subscriptionService)
	paymentHandler := payment.NewHandler(paymentService, cfg.StripeWebhookSecret)
	assistantHandler := assistant.NewHandler(assistantService)

	authMiddleware := middleware.Auth(jwtService)

	// ---------- Scheduler ----------
	sched, err := scheduler.New()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create scheduler")
	}

	settleAndNotify := func() {
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
	}
	if err := sched.Every("payout-settlement", time.Minute, settleAndNotify); err != nil {
		log.Fatal().Err(err).Msg("Failed to schedule settlement job")
	}

	cleanupJob := notification.NewCleanupJob(notificationRepo, cfg.NotificationRetention)
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
		if err := paymentService.ExpireStale(ctx, 24*time.Hour); err != nil {
			log.Error().Err(err).Msg("checkout expiry run failed")
		}
	}); err != nil {
		log.Fatal().Err(err).Msg("Failed to schedule checkout expiry")
	}

	sched.Start()
	defer sched.Shutdown()

	// ---------- Router ----------
	r := chi.NewRouter()

	r.Use(chimw.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recover)
	r.Use(middleware.CORSHandler(cfg.AllowedOrigins))

	// WebSocket endpoint accepts the token via query string since browsers
	// cannot set headers on WS upgrade requests.
	r.Get("/ws", func(w http.ResponseWriter, req *http.Request) {
		token := req.URL.Query().Get("token")
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		authMiddleware(http.HandlerFunc(chatHandler.WebSocket)).ServeHTTP(w, req)
	})

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		pkgresponse.OK(w, map[string]string{
			"status":  "ok",
			"version": "1.0.0",
		})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Mount("/auth", authHandler.Routes())
		r.Mount("/users", userHandler.Routes(authMiddleware))
		r.Mount("/stoodioz", stoodioHandler.Routes(authMiddleware))
		r.Mount("/bookings", bookingHandler.Routes(authMiddleware))
		r.Mount("/wallet", walletHandler.Routes(authMiddleware))
		r.Mount("/chat", chatHandler.Routes(authMiddleware))
		r.Mount("/notifications", notificationHandler.Routes(authMiddleware))
		r.Mount("/subscriptions", subscriptionHandler.Routes(authMiddleware))
		r.Mount("/payments", paymentHandler.Routes(authMiddleware))
		r.Mount("/assistant", assistantHandler.Routes(authMiddleware))
	})

	// Stripe calls this; signature verification is the auth.
	r.Post("/webhooks/stripe", paymentHandler.Webhook)

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
		log.Error().Err(err).Msg("Server shutdown error")
	}

	log.Info().Msg("Server stopped")
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
