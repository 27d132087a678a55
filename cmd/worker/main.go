package main

import (
	"context"
	"database/sql"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"

	"github.com/ignite/candidate-ingest/internal/candidates"
	"github.com/ignite/candidate-ingest/internal/config"
	"github.com/ignite/candidate-ingest/internal/ingest"
	"github.com/ignite/candidate-ingest/internal/jobstore"
	"github.com/ignite/candidate-ingest/internal/orchestrator"
	"github.com/ignite/candidate-ingest/internal/queue"
	"github.com/ignite/candidate-ingest/internal/storage"
)

func main() {
	log.Println("Starting candidate ingestion worker...")

	cfg, err := config.LoadFromEnv("config/config.yaml")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	db, err := sql.Open("postgres", cfg.Database.URL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.Database.ConnMaxLife())

	pingCtx, pingCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer pingCancel()
	if err := db.PingContext(pingCtx); err != nil {
		log.Fatalf("Failed to ping database: %v", err)
	}
	log.Println("Connected to database")

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		rpCtx, rpCancel := context.WithTimeout(context.Background(), 3*time.Second)
		if err := redisClient.Ping(rpCtx).Err(); err != nil {
			log.Printf("Warning: Redis connection failed (%s): %v — falling back to PG advisory locks", cfg.Redis.Addr, err)
			redisClient.Close()
			redisClient = nil
		} else {
			log.Printf("Redis connected: %s (distributed locking enabled)", cfg.Redis.Addr)
		}
		rpCancel()
	}

	store, err := newStorageAdapter(cfg.Storage)
	if err != nil {
		log.Fatalf("Failed to initialize storage: %v", err)
	}

	jobRepo := jobstore.NewPostgresRepository(db)
	jobSvc := jobstore.NewService(jobRepo)
	data := candidates.NewPostgresDatastore(db)
	q := queue.NewPostgresQueue(db)

	orch := orchestrator.New(jobSvc, store, data, ingest.CleanOptions{StrictMode: cfg.Ingest.StrictCleaning})

	process := func(ctx context.Context, payload queue.JobPayload) error {
		return orch.Run(ctx, orchestrator.RunInput{
			JobID:           payload.JobID,
			ResumeFrom:      payload.ResumeFrom,
			InitialInserted: payload.InitialInserted,
			InitialRejected: payload.InitialRejected,
		})
	}

	w := queue.NewWorker(q, redisClient, db, cfg.Ingest.LockTTL(), process)
	recovery := queue.NewRecoveryWorker(db)
	depthMonitor := queue.NewDepthMonitor(q, 10000)

	ctx, cancel := context.WithCancel(context.Background())

	go w.Start(ctx)
	log.Println("Ingestion worker started (polling ingest_queue)")

	go recovery.Start(ctx)
	log.Println("Queue Recovery Worker started (reclaims stuck items from crashed workers)")

	go depthMonitor.Start(ctx)
	log.Println("Queue Depth Monitor started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down worker...")
	cancel()
	if redisClient != nil {
		redisClient.Close()
	}
	time.Sleep(1 * time.Second)
	log.Println("Worker stopped")
}

func newStorageAdapter(cfg config.StorageConfig) (storage.Adapter, error) {
	if cfg.Type == "local" {
		dir := cfg.LocalPath
		if dir == "" {
			dir = "./data/uploads"
		}
		return storage.NewLocalAdapter(dir)
	}
	return storage.NewS3Adapter(context.Background(), cfg.Bucket, cfg.Region, cfg.GetAWSProfile())
}
