package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/redis/go-redis/v9"
	"github.com/rs/cors"

	"tripboard/backend"
	"tripboard/config"
	"tripboard/db"
	"tripboard/itinerary"
	"tripboard/live"
	"tripboard/logging"
	"tripboard/middleware"
	"tripboard/mq"
	"tripboard/places"
	"tripboard/planner"
	"tripboard/ratelim"
	"tripboard/rdx"
	"tripboard/routes"
)

// securityHeaders applies a set of recommended HTTP security headers.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Content-Security-Policy", "frame-ancestors 'none'")
		w.Header().Set("Referrer-Policy", "no-referrer")
		w.Header().Set("Cache-Control", "no-store, no-cache, must-revalidate, private")
		next.ServeHTTP(w, r)
	})
}

func main() {
	logger := logging.GetLogger()
	cfg := config.Load(logger)
	logger = logging.InitLogger(cfg.LogLevel)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, err := db.Connect(ctx, cfg.MongoURI, cfg.MongoDB)
	if err != nil {
		logger.Fatal().Err(err).Msg("MongoDB unavailable")
	}

	hub := live.NewHub()
	go hub.Run()

	// Without redis, drafts live in memory and events go straight to the hub.
	var (
		sessions  planner.SessionStore = planner.NewMemoryStore()
		publisher planner.Publisher    = hub
		cache     places.Cache
		rdb       *redis.Client
	)
	rdb, err = rdx.Connect(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		logger.Warn().Err(err).Msg("Redis unavailable; using in-process sessions and events")
	} else {
		sessions = rdx.NewSessionStore(rdb, cfg.SessionTTL)
		publisher = mq.NewPublisher(rdb, logger)
		cache = rdx.NewCache(rdb)
		go mq.StartWorker(ctx, rdb, logger, hub.Publish)
	}

	if cfg.GenerationURL == "" {
		logger.Warn().Msg("GENERATION_URL not set; generate requests will fail")
	}
	if cfg.RouteURL == "" {
		logger.Warn().Msg("ROUTE_URL not set; route lookups will fail")
	}

	itineraries := itinerary.NewRepository(store.ItineraryCollection)
	svc := planner.NewService(planner.Options{
		Sessions:    sessions,
		Itineraries: itineraries,
		Generator:   backend.NewGenerationClient(cfg.GenerationURL, cfg.RemoteTimeout, logger),
		Router:      backend.NewRouteClient(cfg.RouteURL, cfg.RemoteTimeout, logger),
		Publisher:   publisher,
		ModelName:   cfg.GenerationModel,
		Logger:      logger,
	})

	auth := middleware.NewAuth(cfg.JWTSecret)
	rateLimiter := ratelim.NewRateLimiter(cfg.GeneratePerMinute)
	plannerHandlers := planner.NewHandlers(svc, cfg.ShareBaseURL, logger)

	router := httprouter.New()
	router.GET("/health", routes.Index)
	routes.AddPlannerRoutes(router, auth, plannerHandlers, rateLimiter)
	routes.AddLiveRoutes(router, auth, hub, svc, logger)
	routes.AddItineraryRoutes(router, auth, itinerary.NewHandlers(itineraries, logger), plannerHandlers)
	routes.AddPlaceRoutes(router, places.NewHandlers(
		places.NewCatalogue(store.PlacesCollection, store.AccommodationsCollection, cache, logger), logger))

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	}).Handler(router)

	server := &http.Server{
		Addr:              cfg.Port,
		Handler:           middleware.AccessLog(logger, securityHeaders(corsHandler)),
		ReadTimeout:       7 * time.Second,
		WriteTimeout:      cfg.RemoteTimeout + 15*time.Second,
		IdleTimeout:       120 * time.Second,
		ReadHeaderTimeout: 2 * time.Second,
	}

	server.RegisterOnShutdown(func() {
		logger.Info().Msg("Shutting down live hub")
		hub.Stop()
	})

	go func() {
		logger.Info().Str("addr", cfg.Port).Msg("Server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("ListenAndServe error")
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	logger.Info().Msg("Shutdown signal received; shutting down gracefully")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("Graceful shutdown failed")
	}
	cancel()
	if rdb != nil {
		if err := rdb.Close(); err != nil {
			logger.Warn().Err(err).Msg("Redis close failed")
		}
	}
	if err := store.Disconnect(shutdownCtx); err != nil {
		logger.Warn().Err(err).Msg("MongoDB disconnect failed")
	}

	logger.Info().Msg("Server stopped cleanly")
}
