package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	firebase "firebase.google.com/go/v4"

	"github.com/cnpie-acelerador/cnpie-backend/config"
	"github.com/cnpie-acelerador/cnpie-backend/internal/ai"
	aihttp "github.com/cnpie-acelerador/cnpie-backend/internal/ai/http"
	"github.com/cnpie-acelerador/cnpie-backend/internal/auth"
	"github.com/cnpie-acelerador/cnpie-backend/internal/bootstrap"
	"github.com/cnpie-acelerador/cnpie-backend/internal/files/objectstore"
)

const serviceName = "cnpie-backend"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	bootstrap.SetGinMode(cfg.App.Environment)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dbs, err := bootstrap.OpenDatabases(ctx, cfg.Database)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer dbs.Close()

	rdb := bootstrap.OpenRedis(ctx, cfg.Redis)
	if rdb != nil {
		defer rdb.Close()
	}

	var fbApp *firebase.App
	if cfg.Firebase.CredentialsPath != "" {
		fbApp, err = auth.InitializeFirebase(ctx, &cfg.Firebase)
		if err != nil {
			log.Fatalf("firebase: %v", err)
		}
	}

	objects, err := objectstore.New(ctx, cfg.Storage, fbApp)
	if err != nil {
		log.Printf("[warn] object storage disabled: %v", err)
	}

	var aiFns aihttp.Functions
	if cfg.AI.BaseURL != "" {
		aiFns = ai.NewClient(cfg.AI)
	} else {
		log.Printf("[warn] AI_BASE_URL not set, AI routes disabled")
	}

	stopStreams := make(chan struct{})
	router, err := bootstrap.BuildRouter(ctx, bootstrap.RouterDeps{
		ServiceName: serviceName,
		Config:      cfg,
		DB:          dbs,
		Redis:       rdb,
		Firebase:    fbApp,
		Objects:     objects,
		AI:          aiFns,
		StopStreams: stopStreams,
	})
	if err != nil {
		log.Fatalf("router: %v", err)
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	srv.RegisterOnShutdown(func() { close(stopStreams) })

	go func() {
		log.Printf("%s %s listening on :%s", serviceName, cfg.App.Version, cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("listen: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("shutting down")

	// Report generation may hold a request for up to AI_REPORT_TIMEOUT.
	// Event streams are closed as soon as shutdown starts.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.AI.ReportTimeout+5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown: %v", err)
	}
}
