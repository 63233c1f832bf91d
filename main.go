package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"safiri-mazao-api/config"
	"safiri-mazao-api/events"
	"safiri-mazao-api/handlers"
	"safiri-mazao-api/middleware"
	"safiri-mazao-api/routes"
	"safiri-mazao-api/seed"
	"safiri-mazao-api/statemachine"
	"safiri-mazao-api/store"
	"safiri-mazao-api/ussd"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/cors"
)

type stores struct {
	orders       store.OrderStore
	transporters store.TransporterStore
	cargo        store.CargoStore
}

func openStores(cfg config.Config) (stores, func(), error) {
	db, err := config.OpenDB(cfg)
	if err != nil {
		return stores{}, nil, err
	}
	if db == nil {
		log.Println("✅ Using in-memory stores")
		return stores{
			orders:       store.NewMemoryOrderStore(nil),
			transporters: store.NewMemoryTransporterStore(nil),
			cargo:        store.NewMemoryCargoStore(),
		}, func() {}, nil
	}

	if err := store.Migrate(db); err != nil {
		return stores{}, nil, err
	}
	log.Printf("✅ Database (%s) connected and migrated successfully", cfg.StoreDriver)
	closeDB := func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
	return stores{
		orders:       store.NewGormOrderStore(db, nil),
		transporters: store.NewGormTransporterStore(db, nil),
		cargo:        store.NewGormCargoStore(db),
	}, closeDB, nil
}

func newPublisher(cfg config.Config) events.Publisher {
	if len(cfg.KafkaBrokers) == 0 {
		return events.Nop{}
	}
	p := events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic, 1024)
	p.Start()
	log.Printf("✅ Publishing events to %s on %v", cfg.KafkaTopic, cfg.KafkaBrokers)
	return p
}

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found; using system environment")
	}
	cfg := config.Load()

	// Set Gin mode
	if cfg.GinMode == "" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(cfg.GinMode)
	}

	policy, err := statemachine.ParsePolicy(cfg.StatusPolicy)
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	machine := statemachine.New(policy)

	st, closeStores, err := openStores(cfg)
	if err != nil {
		log.Fatalf("Failed to open stores: %v", err)
	}
	defer closeStores()

	if cfg.SeedOrders > 0 || cfg.SeedTransporters > 0 {
		gen := seed.New(cfg.Seed, time.Now())
		if err := seed.Populate(context.Background(), gen, st.orders, st.transporters, cfg.SeedOrders, cfg.SeedTransporters); err != nil {
			log.Fatalf("Failed to seed demo data: %v", err)
		}
	}

	publisher := newPublisher(cfg)
	emitter := events.NewEmitter(publisher, cfg.ServiceName)

	auth, err := handlers.NewAuthHandler(cfg.AdminEmail, cfg.AdminPassword, cfg.JWTSecret, cfg.TokenTTL)
	if err != nil {
		log.Fatalf("Failed to prepare admin credential: %v", err)
	}

	// Create Gin router with default middleware (logger + recovery)
	r := gin.Default()
	routes.SetupRoutes(r, routes.Deps{
		JWTSecret:    cfg.JWTSecret,
		LoginLimiter: middleware.NewRateLimiter(cfg.LoginRatePerMin),
		Meta:         handlers.NewMetaHandler(cfg.ServiceName, machine, cfg.ReportsBaseURL),
		Auth:         auth,
		Orders:       handlers.NewOrderHandler(st.orders, machine, emitter),
		Transporters: handlers.NewTransporterHandler(st.transporters, emitter),
		Reports:      handlers.NewReportHandler(st.orders, st.transporters),
		Cargo:        handlers.NewCargoHandler(st.cargo, emitter),
		USSD:         handlers.NewUSSDHandler(ussd.NewMenu(st.orders, emitter, cfg.USSDMinQuantity, cfg.USSDMaxQuantity)),
	})

	// CORS for the dashboard frontend
	handler := cors.New(cors.Options{
		AllowedOrigins: cfg.CORSOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Origin", "Content-Type", "Authorization"},
	}).Handler(r)

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		log.Printf("🚀 Server running on http://localhost:%s (policy=%s, store=%s)", cfg.Port, policy, cfg.StoreDriver)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	log.Println("🛑 Shutdown signal received; shutting down gracefully...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Printf("Graceful shutdown failed: %v", err)
	}
	if err := publisher.Close(); err != nil {
		log.Printf("Failed to flush events: %v", err)
	}
	log.Println("✅ Server stopped cleanly")
}
