package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/redis/go-redis/v9"

	"ridehail/internal/app"
	"ridehail/internal/config"
	"ridehail/internal/handler"
	"ridehail/internal/maps"
	"ridehail/internal/middleware"
	"ridehail/internal/realtime"
	internalRedis "ridehail/internal/redis"
	"ridehail/internal/repository"
	"ridehail/internal/repository/memory"
	"ridehail/internal/repository/postgres"
	"ridehail/internal/service"
)

func main() {
	// Load configuration.
	cfg := config.Load()
	if cfg.Auth.JWTSecret == "" {
		log.Fatal("JWT_SECRET is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Initialize New Relic FIRST (before database so we can instrument DB).
	var nrApp *newrelic.Application
	var err error
	if cfg.NewRelic.Enabled && cfg.NewRelic.LicenseKey != "" {
		nrApp, err = newrelic.NewApplication(
			newrelic.ConfigAppName(cfg.NewRelic.AppName),
			newrelic.ConfigLicense(cfg.NewRelic.LicenseKey),
			newrelic.ConfigDistributedTracerEnabled(true),
			newrelic.ConfigAppLogForwardingEnabled(true),
		)
		if err != nil {
			log.Printf("failed to initialize New Relic: %v", err)
		} else {
			log.Printf("New Relic enabled: app=%s", cfg.NewRelic.AppName)
		}
	}

	// Select the ride store.
	var rideRepo repository.RideRepository
	var driverRepo repository.DriverRepository
	switch cfg.Store.Backend {
	case "memory":
		rideRepo = memory.NewRideRepository()
		driverRepo = memory.NewDriverRepository()
		log.Println("Using in-memory ride store")
	default:
		db, err := app.NewDatabase(ctx, cfg.Database, nrApp)
		if err != nil {
			log.Fatalf("failed to connect to database: %v", err)
		}
		defer db.Close()
		rideRepo = postgres.NewRideRepository(db)
		driverRepo = postgres.NewDriverRepository(db)
		log.Println("Connected to PostgreSQL")
	}

	// Redis backs the geo index, presence, dispatch locks and caches.
	redisClient, err := app.NewRedisClient(ctx, cfg.Redis, nrApp)
	if err != nil {
		log.Fatalf("failed to connect to redis: %v", err)
	}
	defer redisClient.Close()
	log.Println("Connected to Redis")

	mapsClient, err := maps.NewClient(cfg.Maps.APIKey)
	if err != nil {
		log.Fatalf("failed to initialize maps: %v", err)
	}
	if mapsClient == nil {
		log.Println("GOOGLE_MAPS_API_KEY not set: accepting lat,lng addresses only")
	}

	authenticator := middleware.NewAuthenticator(cfg.Auth.JWTSecret)
	hub := realtime.NewHub(authenticator.Identify)
	defer hub.Close()

	notifiers := []realtime.Notifier{hub}
	if cfg.AMQP.URL != "" {
		conn, ch, err := app.NewAMQPChannel(ctx, cfg.AMQP)
		if err != nil {
			log.Fatalf("failed to connect to RabbitMQ: %v", err)
		}
		defer conn.Close()
		defer ch.Close()
		notifiers = append(notifiers, realtime.NewAMQPNotifier(ch, cfg.AMQP.Exchange))
		log.Printf("Mirroring ride events to exchange %s", cfg.AMQP.Exchange)
	}

	// Wire dependencies.
	deps := wire(wireInput{
		cfg:         cfg,
		rideRepo:    rideRepo,
		driverRepo:  driverRepo,
		redisClient: redisClient,
		nrApp:       nrApp,
		geocoder:    maps.NewGeocoder(mapsClient),
		routes:      maps.NewRouteEstimator(mapsClient, cfg.Maps.AverageSpeedKmh),
		notifier:    realtime.NewFanoutNotifier(notifiers...),
		hub:         hub,
		auth:        authenticator,
	})

	runCtx, stopWorkers := context.WithCancel(context.Background())
	var workers sync.WaitGroup
	workers.Add(2)
	go func() {
		defer workers.Done()
		deps.dispatcher.Run(runCtx)
	}()
	go func() {
		defer workers.Done()
		deps.expirer.Run(runCtx)
	}()

	// Start server in goroutine.
	go func() {
		log.Printf("Starting server on port %s", cfg.Server.Port)
		if err := deps.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	// Graceful shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := deps.server.Shutdown(shutdownCtx); err != nil {
		log.Printf("server forced to shutdown: %v", err)
	}

	stopWorkers()
	workers.Wait()

	if nrApp != nil {
		nrApp.Shutdown(5 * time.Second)
	}

	log.Println("Server exited")
}

type wireInput struct {
	cfg         *config.Config
	rideRepo    repository.RideRepository
	driverRepo  repository.DriverRepository
	redisClient *redis.Client
	nrApp       *newrelic.Application
	geocoder    service.Geocoder
	routes      service.RouteEstimator
	notifier    service.EventNotifier
	hub         *realtime.Hub
	auth        *middleware.Authenticator
}

type wired struct {
	server     *http.Server
	dispatcher *service.Dispatcher
	expirer    *service.Expirer
}

// wire wires all dependencies and returns the HTTP server and background workers.
func wire(in wireInput) wired {
	cfg := in.cfg

	// Initialize Redis stores.
	locationStore := internalRedis.NewLocationStore(in.redisClient, cfg.Dispatch.PresenceTTL)
	lockStore := internalRedis.NewLockStore(in.redisClient)
	cacheStore := internalRedis.NewCacheStore(in.redisClient)

	// Initialize services.
	notificationService := service.NewNotificationService(in.notifier)
	fareService := service.NewFareService(in.geocoder, in.routes, cfg.Ride.Currency)
	dispatcher := service.NewDispatcher(locationStore, lockStore, notificationService, in.nrApp, service.DispatchConfig{
		RadiusMeters:        cfg.Dispatch.RadiusMeters,
		CarpoolRadiusMeters: cfg.Dispatch.CarpoolRadiusMeters,
		Concurrency:         cfg.Dispatch.Concurrency,
		DeliveryTimeout:     cfg.Dispatch.DeliveryTimeout,
		Workers:             cfg.Dispatch.Workers,
		QueueSize:           cfg.Dispatch.QueueSize,
		LockTTL:             cfg.Dispatch.LockTTL,
	})
	rideService := service.NewRideService(in.rideRepo, fareService, dispatcher, notificationService, cacheStore, nil)
	driverService := service.NewDriverService(locationStore, cacheStore, in.driverRepo)
	expirer := service.NewExpirer(rideService, cfg.Ride.RequestTTL, cfg.Ride.ExpiryInterval)

	// Create router.
	router := app.NewRouter(app.RouterDeps{
		RideHandler:   handler.NewRideHandler(rideService),
		FareHandler:   handler.NewFareHandler(fareService),
		DriverHandler: handler.NewDriverHandler(driverService, in.driverRepo),
		WSHandler:     handler.NewWSHandler(in.hub),
		Authenticator: in.auth,
		RedisClient:   in.redisClient,
		NewRelicApp:   in.nrApp,
	})

	// Create HTTP server.
	return wired{
		server: &http.Server{
			Addr:         ":" + cfg.Server.Port,
			Handler:      router,
			ReadTimeout:  cfg.Server.ReadTimeout,
			WriteTimeout: cfg.Server.WriteTimeout,
		},
		dispatcher: dispatcher,
		expirer:    expirer,
	}
}
