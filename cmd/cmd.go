package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"timebank-backend/internal/config"
	"timebank-backend/internal/handlers"
	"timebank-backend/internal/middleware"
	"timebank-backend/internal/models"
	"timebank-backend/internal/projection"
	"timebank-backend/internal/repository"
	"timebank-backend/internal/services"

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

	if err := db.Ping(context.Background()); err != nil {
		log.Fatal().Err(err).Msg("Failed to ping database")
	}
	log.Info().Msg("Database connection established")

	// Initialize repositories
	profileRepo := repository.NewProfileRepository(db)
	appointmentRepo := repository.NewAppointmentRepository(db)

	// Live collection projections: repositories feed them on every
	// mutation, the feed hub pushes their snapshots to clients.
	profileStore := projection.NewStore[*models.Profile](handlers.CollectionProfiles)
	appointmentStore := projection.NewStore[*models.Appointment](handlers.CollectionAppointments)

	// Initialize services
	sessions := services.NewSessionRegistry()
	authService := services.NewAuthService(profileRepo, cfg.JWT.Secret)
	profileService := services.NewProfileService(profileRepo, sessions, profileStore)
	pushService, err := services.NewPushService(cfg.APNs)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create push service")
	}
	appointmentService := services.NewAppointmentService(
		appointmentRepo,
		profileRepo,
		appointmentStore,
		pushService,
		cfg.Feed.Limit,
	)
	photoService, err := services.NewPhotoService(profileService, cfg.AWS)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create photo service")
	}

	hub := services.NewFeedHub()
	profileStore.Subscribe(func(profiles []*models.Profile) {
		hub.Broadcast(handlers.CollectionProfiles, profiles, len(profiles))
	})
	appointmentStore.Subscribe(func(appointments []*models.Appointment) {
		hub.Broadcast(handlers.CollectionAppointments, appointments, len(appointments))
	})

	// Prime the projections so the first feed clients get real data.
	profileService.Refresh(context.Background())
	appointmentService.Refresh(context.Background())

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authService, sessions, profileService)
	profileHandler := handlers.NewProfileHandler(profileService)
	appointmentHandler := handlers.NewAppointmentHandler(appointmentService)
	photoHandler := handlers.NewPhotoHandler(photoService)
	feedHandler := handlers.NewFeedHandler(hub, authService, sessions, profileStore, appointmentStore)

	authLimiter := middleware.NewRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst)

	// Setup router
	r := chi.NewRouter()

	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(corsMiddleware)

	r.Route("/api/v1", func(r chi.Router) {
		// Public routes, throttled per IP
		r.Group(func(r chi.Router) {
			r.Use(authLimiter.Handler)
			r.Post("/auth/signup", authHandler.SignUp)
			r.Post("/auth/signin", authHandler.SignIn)
			r.Post("/auth/reset", authHandler.RequestReset)
			r.Post("/auth/reset/confirm", authHandler.ConfirmReset)
		})

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(authService))

			r.Post("/auth/signout", authHandler.SignOut)

			r.Get("/profiles/me", profileHandler.GetMe)
			r.Put("/profiles/me", profileHandler.UpdateMe)
			r.Put("/profiles/me/push-token", profileHandler.SetPushToken)
			r.Post("/profiles/me/photo", photoHandler.Presign)
			r.Post("/profiles/me/photo/confirm", photoHandler.Confirm)
			r.Get("/profiles/{id}", profileHandler.Get)

			r.Get("/favorites", profileHandler.Favorites)
			r.Post("/favorites/{target_id}/toggle", profileHandler.ToggleFavorite)

			r.Get("/search", profileHandler.Search)
			r.Get("/providers/{service_type}", profileHandler.Providers)

			r.Post("/appointments", appointmentHandler.Create)
			r.Get("/appointments/feed", appointmentHandler.Feed)
			r.Get("/appointments/type/{service_type}", appointmentHandler.ByType)
			r.Get("/appointments/{id}", appointmentHandler.Get)
			r.Put("/appointments/{id}", appointmentHandler.Update)
			r.Delete("/appointments/{id}", appointmentHandler.Delete)

			r.Get("/exchange", appointmentHandler.Exchange)
		})
	})

	// WebSocket route
	r.Get("/ws", feedHandler.Handle)

	// Create HTTP server
	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

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

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

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
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
