package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/redis/go-redis/v9"

	"github.com/jordanngo205/Basketball-Tracker/internal/cache"
	"github.com/jordanngo205/Basketball-Tracker/internal/config"
	"github.com/jordanngo205/Basketball-Tracker/internal/handlers"
	"github.com/jordanngo205/Basketball-Tracker/internal/logx"
	"github.com/jordanngo205/Basketball-Tracker/internal/store"
)

func main() {
	log := logx.NewLogger()
	log.Info().Msg("starting tracker-service")

	cfg := config.Load()

	// Persistence is optional: without DATABASE_URL the tracker runs fully
	// in memory and every store-backed endpoint reports itself disabled.
	var gameStore handlers.GameStore
	if cfg.PersistenceEnabled() {
		s, err := store.New(cfg.Database.URL)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to Postgres")
		}
		defer s.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := s.Init(ctx); err != nil {
			cancel()
			log.Fatal().Err(err).Msg("failed to initialize schema")
		}
		cancel()

		gameStore = s
		log.Info().Msg("connected to Postgres")
	} else {
		log.Warn().Msg("DATABASE_URL not set, running memory-only")
	}

	var snapshots *cache.SnapshotWriter
	if cfg.CacheEnabled() {
		opts, err := redis.ParseURL(cfg.Redis.URL)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to parse Redis URL")
		}
		redisClient := redis.NewClient(opts)
		defer redisClient.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := redisClient.Ping(ctx).Err(); err != nil {
			cancel()
			log.Fatal().Err(err).Msg("failed to connect to Redis")
		}
		cancel()

		snapshots = cache.NewSnapshotWriter(redisClient)
		log.Info().Msg("connected to Redis")
	}

	handler := handlers.New(handlers.NewState(), gameStore, snapshots, log)

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(30 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.Server.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	handler.Routes(r)

	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		log.Info().Str("addr", cfg.Server.Addr).Msg("tracker-service listening")
		serverErrors <- srv.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		log.Fatal().Err(err).Msg("server error")

	case sig := <-shutdown:
		log.Info().Str("signal", sig.String()).Msg("shutting down")

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			log.Warn().Err(err).Msg("graceful shutdown failed")
			if err := srv.Close(); err != nil {
				log.Error().Err(err).Msg("could not stop server")
			}
		}
	}

	log.Info().Msg("shutdown complete")
}
