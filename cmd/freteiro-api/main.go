// README: Entry point; loads config, wires services, starts HTTP server and background workers.
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

	"freteiro/internal/config"
	httptransport "freteiro/internal/http"
	"freteiro/internal/infra"
	"freteiro/internal/jobs"
	"freteiro/internal/maps"
	"freteiro/internal/modules/delivery"
	"freteiro/internal/modules/dispatch"
	"freteiro/internal/modules/fleet"
	"freteiro/internal/modules/location"
	"freteiro/internal/modules/order"
	"freteiro/internal/modules/profile"
	syncmod "freteiro/internal/modules/sync"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Firebase.ProjectID == "" {
		log.Fatal("FRETEIRO_FIREBASE_PROJECT_ID is required")
	}
	firebaseApp, err := infra.NewFirebaseApp(ctx, cfg.Firebase.ProjectID, cfg.Firebase.CredentialsFile, cfg.Firebase.DatabaseURL)
	if err != nil {
		log.Fatalf("firebase init: %v", err)
	}
	verifier, err := infra.NewFirebaseVerifier(ctx, firebaseApp)
	if err != nil {
		log.Fatalf("firebase verifier: %v", err)
	}
	firebaseSvc, err := location.NewFirebaseService(ctx, firebaseApp)
	if err != nil {
		log.Fatalf("firebase location: %v", err)
	}

	dbPool, err := infra.NewDB(ctx, cfg.DB.DSN)
	if err != nil {
		log.Fatal(err)
	}
	defer dbPool.Close()

	redisClient := infra.NewRedis(cfg.Redis.Addr)
	defer redisClient.Close()

	// Without an API key orders simply keep whatever coordinates the
	// marketplace supplied.
	var geocoder order.Geocoder
	if cfg.Maps.APIKey != "" {
		geocoder, err = maps.NewGeocodeService(cfg.Maps.APIKey)
		if err != nil {
			log.Fatalf("maps init: %v", err)
		}
	} else {
		log.Print("FRETEIRO_MAPS_API_KEY not set, geocoding disabled")
	}

	fleetStore := fleet.NewPostgresStore(dbPool)
	profileStore := profile.NewPostgresStore(dbPool)
	deliveryStore := delivery.NewPostgresStore(dbPool)
	orderStore := order.NewPostgresStore(dbPool)
	locationStore := location.NewStore(dbPool, redisClient)
	syncStore := syncmod.NewPostgresStore(dbPool)

	dispatchSvc := dispatch.NewService(deliveryStore, fleetStore, profileStore, cfg.Dispatch.VisibleLimit, cfg.Dispatch.DefaultRadiusKm)
	deliverySvc := delivery.NewService(deliveryStore, dispatchSvc, nil)
	coordinator := syncmod.NewCoordinator(orderStore, deliverySvc, firebaseSvc)
	deliverySvc.SetMirror(coordinator)
	orderSvc := order.NewService(orderStore, geocoder, coordinator)

	publisher := location.NewPublisher(profileStore, deliveryStore, locationStore, firebaseSvc, cfg.Location.PublishInterval)
	go publisher.Run(ctx)

	repairer := syncmod.NewRepairer(syncStore, orderStore, coordinator, 100)
	jobManager := jobs.NewManager()
	if err := jobManager.Register(cfg.Sync.RepairSpec, "sync-read-repair", repairer.Run); err != nil {
		log.Fatalf("registering repair job: %v", err)
	}
	jobManager.Start()
	defer jobManager.Stop()

	handler := httptransport.NewServer(httptransport.ServerDeps{
		Deliveries:    deliverySvc,
		Dispatcher:    dispatchSvc,
		Orders:        orderSvc,
		Profiles:      profileStore,
		LiveIndex:     locationStore,
		NearbyIndex:   locationStore,
		Mirror:        firebaseSvc,
		Publisher:     publisher,
		Verifier:      verifier,
		WebhookSecret: cfg.Webhook.Secret,
	})

	server := &http.Server{Addr: cfg.HTTP.Addr, Handler: handler.Routes()}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	log.Printf("listening on %s", cfg.HTTP.Addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal(err)
	}
}
