package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"melody-transcriber/api/rest/routes"
	"melody-transcriber/config"
	"melody-transcriber/core/monitoring"
	"melody-transcriber/core/pipeline"
	"melody-transcriber/core/registry"
	"melody-transcriber/core/repository"
	"melody-transcriber/core/spectral"
	"melody-transcriber/core/worker"
	"melody-transcriber/storage"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
)

const monitorInterval = 30 * time.Second

func main() {
	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Job store: Postgres when configured, in-memory otherwise.
	var reg registry.Registry
	var artifactRepo *repository.ArtifactRepository
	if cfg.DatabaseURL != "" {
		db, err := repository.NewDB(cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		defer db.Close()
		if err := db.EnsureSchema(); err != nil {
			log.Fatalf("Failed to ensure schema: %v", err)
		}
		log.Println("Database connected successfully")
		reg = repository.NewJobRepository(db)
		artifactRepo = repository.NewArtifactRepository(db)
	} else {
		log.Println("No DATABASE_URL set, using in-memory job registry")
		reg = registry.NewMemory()
	}

	blobs := storage.NewBlobStore(cfg.TempDir)

	// Score artifact sinks are optional.
	var uploader *storage.ScoreUploader
	if cfg.ScoreBucket != "" {
		var err error
		uploader, err = storage.NewScoreUploader(ctx, cfg.AWSRegion, cfg.ScoreBucket)
		if err != nil {
			log.Fatalf("Failed to initialize score uploader: %v", err)
		}
		log.Printf("Uploading scores to s3://%s", cfg.ScoreBucket)
	}
	var recorder storage.ArtifactRecorder
	if artifactRepo != nil {
		recorder = artifactRepo
	}
	artifacts := storage.NewArtifactManager(uploader, recorder)

	// Analysis pipeline and worker pool.
	pipe := pipeline.New(spectral.NewDetector())
	pool := worker.NewPool(reg, pipe, blobs, cfg.QueueSize)
	pool.Start(ctx, cfg.Workers)
	log.Printf("Started %d analysis workers", cfg.Workers)

	// Jobs left pending by a previous run go back on the queue.
	if jobRepo, ok := reg.(*repository.JobRepository); ok {
		pending, err := jobRepo.ListPending(cfg.QueueSize)
		if err != nil {
			log.Printf("Failed to list pending jobs: %v", err)
		}
		for _, job := range pending {
			pool.Submit(job)
		}
		if len(pending) > 0 {
			log.Printf("Requeued %d pending jobs", len(pending))
		}
	}

	exporter := monitoring.NewMetricsExporter(reg)
	monitor := monitoring.NewJobMonitor(reg, monitorInterval)
	go monitor.Start(ctx)

	r := mux.NewRouter()
	routes.SetupRoutes(r, reg, blobs, pool, artifacts, exporter, cfg.MaxUploadMB<<20)

	handler := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST"},
		AllowedHeaders: []string{"Content-Type"},
	}).Handler(r)

	server := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: handler,
	}

	go func() {
		log.Printf("Starting server on port %s", cfg.ServerPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
	if err := server.Shutdown(context.Background()); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	// In-flight analyses finish and release their temp files.
	pool.Stop()
	log.Println("Server exited")
}
