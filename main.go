package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"slices"
	"syscall"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/rs/cors"
	"github.com/sirupsen/logrus"

	"foodcart/apiclient"
	"foodcart/cache"
	"foodcart/cart"
	"foodcart/config"
	"foodcart/db"
	"foodcart/live"
	"foodcart/logger"
	"foodcart/menu"
	"foodcart/metrics"
	"foodcart/middleware"
	"foodcart/mq"
	"foodcart/places"
	"foodcart/ratelim"
	"foodcart/rdx"
	"foodcart/routes"
)

// securityHeaders applies a set of recommended HTTP security headers.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-XSS-Protection", "1; mode=block")
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Content-Security-Policy", "frame-ancestors 'none'")
		// HSTS (must be on HTTPS)
		w.Header().Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains; preload")
		w.Header().Set("Referrer-Policy", "no-referrer")
		w.Header().Set("Permissions-Policy", "geolocation=(), microphone=(), camera=()")
		// carts are per-user
		w.Header().Set("Cache-Control", "no-store, no-cache, must-revalidate, private")
		next.ServeHTTP(w, r)
	})
}

// loggingMiddleware logs each request method, path, remote address, and duration.
func loggingMiddleware(log logrus.FieldLogger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.WithFields(logrus.Fields{
			"method":   r.Method,
			"path":     r.URL.Path,
			"remote":   r.RemoteAddr,
			"duration": time.Since(start).String(),
		}).Info("request")
	})
}

// backends are the optional stores opened for the configured cache backend.
type backends struct {
	store cache.Store
	redis *rdx.Client
	mongo *db.DB
}

func openBackends(ctx context.Context, cfg *config.Config, log logrus.FieldLogger) (*backends, error) {
	switch cfg.CacheBackend {
	case config.CacheRedis:
		rc, err := rdx.Connect(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			return nil, err
		}
		log.WithField("addr", cfg.RedisAddr).Info("using redis cache")
		return &backends{store: cache.NewRedis(rc), redis: rc}, nil
	case config.CacheMongo:
		d, err := db.Connect(ctx, cfg.MongoURI, cfg.MongoDB)
		if err != nil {
			return nil, err
		}
		log.WithField("db", cfg.MongoDB).Info("using mongo cache")
		return &backends{store: cache.NewMongo(d.CartCacheCollection), mongo: d}, nil
	default:
		log.Info("using in-memory cache")
		return &backends{store: cache.NewMemory()}, nil
	}
}

func (b *backends) close(ctx context.Context) {
	if b.redis != nil {
		b.redis.Close()
	}
	if b.mongo != nil {
		b.mongo.Close(ctx)
	}
}

func originChecker(allowed []string) func(*http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return origin == "" || slices.Contains(allowed, "*") || slices.Contains(allowed, origin)
	}
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("load config")
	}
	log := logger.New(cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	be, err := openBackends(ctx, cfg, log)
	if err != nil {
		log.WithError(err).Fatal("open cache backend")
	}

	api := apiclient.New(apiclient.Config{BaseURL: cfg.APIBaseURL, Timeout: cfg.APITimeout, Logger: log})
	placesLookup := places.NewLookup(api, be.store, cfg.LookupCacheTTL, log)
	menuLookup := menu.NewLookup(api, be.store, cfg.LookupCacheTTL, log)

	hub := live.NewHub(log)
	go hub.Run()

	// Order events go through redis when it is available so every gateway
	// instance can relay them; otherwise straight to the local hub.
	var events cart.EventPublisher = hub
	if be.redis != nil {
		events = mq.NewEmitter(be.redis, log)
		sub, msgs := be.redis.Subscribe(ctx, mq.OrderEventsChannel)
		defer sub.Close()
		go hub.ForwardOrderEvents(ctx, msgs)
	}

	registry := cart.NewRegistry(func(customerID, token string) (cart.Options, cart.TokenSetter) {
		client := api.WithToken(token)
		return cart.Options{
			Restaurants: placesLookup,
			Menu:        menuLookup,
			Remote:      client,
			Orders:      client,
			Vouchers:    client,
			Events:      events,
			Cache:       be.store,
			CacheTTL:    cfg.CacheTTL,
			SyncTimeout: cfg.SyncTimeout,
			Logger:      log,
		}, client
	}, log)
	registry.OnCreate(hub.Attach)
	registry.SetIdleTTL(cfg.SessionIdleTTL)
	go sweepSessions(ctx, registry, time.Minute)

	origins := cfg.Origins()
	deps := routes.Deps{
		Auth:        middleware.NewAuth(cfg.JWTSecret),
		RateLimiter: ratelim.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst),
		Cart:        &cart.Handlers{Registry: registry, Menu: menuLookup, Restaurants: placesLookup},
		Registry:    registry,
		Hub:         hub,
		Places:      placesLookup,
		Menu:        menuLookup,
		CheckOrigin: originChecker(origins),
	}
	router := httprouter.New()
	routes.RoutesWrapper(router, deps)

	// apply middleware: CORS → security headers → logging → metrics → router
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: !slices.Contains(origins, "*"),
	}).Handler(metrics.InstrumentHandler(router))

	handler := loggingMiddleware(log, securityHeaders(corsHandler))

	server := &http.Server{
		Addr:              cfg.Port,
		Handler:           handler,
		ReadTimeout:       7 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       120 * time.Second,
		ReadHeaderTimeout: 2 * time.Second,
	}

	server.RegisterOnShutdown(func() {
		log.Info("stopping live hub")
		hub.Stop()
	})

	go func() {
		log.WithField("addr", cfg.Port).Info("server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("listen")
		}
	}()

	<-ctx.Done()
	log.Info("shutdown signal received; shutting down gracefully")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("graceful shutdown failed")
	}

	// let in-flight remote syncs and order submissions finish
	registry.Close()
	be.close(shutdownCtx)
	log.Info("server stopped cleanly")
}

// sweepSessions evicts idle cart sessions until ctx is done.
func sweepSessions(ctx context.Context, registry *cart.Registry, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			registry.Sweep()
		}
	}
}
