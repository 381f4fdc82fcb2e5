package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"festival-cleanup-backend/internal/config"
	"festival-cleanup-backend/internal/detection"
	"festival-cleanup-backend/internal/handlers"
	"festival-cleanup-backend/internal/middleware"
	"festival-cleanup-backend/internal/repository"
	"festival-cleanup-backend/internal/services"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func Run() {
	// Load configuration
	cfg, err := config.Load("config.yaml")
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Setup logger
	setupLogger(cfg.Log.Level)

	// Connect to database
	db, err := pgxpool.New(context.Background(), cfg.Database.DSN())
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()

	// Test database connection
	if err := db.Ping(context.Background()); err != nil {
		log.Fatal().Err(err).Msg("Failed to ping database")
	}
	log.Info().Msg("Database connection established")

	// Initialize repositories
	userRepo := repository.NewUserRepository(db)
	festivalRepo := repository.NewFestivalRepository(db)
	photoRepo := repository.NewPhotoRepository(db)
	binRepo := repository.NewBinRepository(db)
	scanRepo := repository.NewScanRepository(db)
	summaryRepo := repository.NewSummaryRepository(db)
	ledgerRepo := repository.NewLedgerRepository(db)
	couponRepo := repository.NewCouponRepository(db)

	// Initialize services
	storageService, err := services.NewStorageService(context.Background(), cfg.Storage)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create storage service")
	}

	var localModel detection.Model
	if cfg.Detection.Local.Command != "" {
		localModel = detection.NewLazyModel(func() (detection.Model, error) {
			return detection.NewScriptModel(cfg.Detection.Local.Command, cfg.Detection.Local.ModelPath)
		})
	}
	router := detection.NewRouter(cfg.Detection, localModel)

	feedHub := services.NewFeedHub()
	userService := services.NewUserService(userRepo, cfg.Auth.JWTSecret)
	ledgerService := services.NewLedgerService(ledgerRepo, cfg.Rewards)
	submissionService := services.NewSubmissionService(
		photoRepo,
		festivalRepo,
		scanRepo,
		ledgerService,
		router,
		storageService,
		feedHub,
		cfg.Rewards,
	)
	binScanService := services.NewBinScanService(binRepo, scanRepo, festivalRepo)
	couponService := services.NewCouponService(couponRepo, feedHub)
	festivalService := services.NewFestivalService(festivalRepo, binRepo, photoRepo, scanRepo, summaryRepo)

	// Initialize handlers
	userHandler := handlers.NewUserHandler(userService)
	festivalHandler := handlers.NewFestivalHandler(festivalService)
	photoHandler := handlers.NewPhotoHandler(submissionService)
	binHandler := handlers.NewBinHandler(binScanService, festivalService)
	couponHandler := handlers.NewCouponHandler(couponService)
	adminHandler := handlers.NewAdminHandler(festivalService)
	wsHandler := handlers.NewWebSocketHandler(feedHub, userService)

	// Setup router
	r := chi.NewRouter()

	// Middleware
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(corsMiddleware)

	// Routes
	r.Route("/api/v1", func(r chi.Router) {
		// Public routes
		r.Post("/auth/login", userHandler.Login)
		r.Get("/festivals", festivalHandler.List)
		r.Get("/festivals/{id}", festivalHandler.Get)
		r.Get("/festivals/{id}/shops", festivalHandler.Shops)
		r.Get("/festivals/{id}/bins", binHandler.List)

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(middleware.AuthMiddleware(userService))
			r.Get("/me", userHandler.Me)
			r.Post("/festivals/{id}/photos", photoHandler.Submit)
			r.Get("/festivals/{id}/me/photos", photoHandler.MyPhotos)
			r.Get("/festivals/{id}/me/summary", festivalHandler.MySummary)
			r.Post("/festivals/{id}/bins/scan", binHandler.Scan)
			r.Post("/festivals/{id}/coupons", couponHandler.Issue)
			r.Get("/festivals/{id}/me/coupons", couponHandler.MyCoupons)
			r.Get("/coupons/{code}/qr", couponHandler.QR)
		})

		// Operator routes
		r.Group(func(r chi.Router) {
			r.Use(middleware.AdminMiddleware(cfg.Auth.AdminToken))
			r.Post("/admin/festivals", adminHandler.CreateFestival)
			r.Post("/admin/festivals/{id}/bins", adminHandler.GenerateBins)
			r.Get("/admin/festivals/{id}/summary", adminHandler.Summary)
		})
	})

	// WebSocket route
	r.Get("/ws/feed", wsHandler.HandleFeed)

	// Uploaded images
	r.Handle("/uploads/*", http.StripPrefix("/uploads/", http.FileServer(http.Dir(cfg.Storage.UploadDir))))

	// Create HTTP server
	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info().
			Str("host", cfg.Server.Host).
			Int("port", cfg.Server.Port).
			Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed to start")
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	// Shutdown HTTP server
	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}

// setupLogger configures zerolog logger
func setupLogger(level string) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	switch level {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "info":
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}

// corsMiddleware handles CORS
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type, X-Admin-Token")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
