package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"

	"github.com/ignite/candidate-ingest/internal/api"
	"github.com/ignite/candidate-ingest/internal/config"
	"github.com/ignite/candidate-ingest/internal/jobstore"
	"github.com/ignite/candidate-ingest/internal/queue"
	"github.com/ignite/candidate-ingest/internal/storage"
)

func main() {
	log.Println("Starting candidate ingestion API server...")

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
	if err := db.PingContext(pingCtx); err != nil {
		pingCancel()
		log.Fatalf("Failed to ping database: %v", err)
	}
	pingCancel()
	log.Println("Connected to database")

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		rpCtx, rpCancel := context.WithTimeout(context.Background(), 3*time.Second)
		if err := redisClient.Ping(rpCtx).Err(); err != nil {
			log.Printf("Warning: Redis connection failed (%s): %v", cfg.Redis.Addr, err)
			redisClient.Close()
			redisClient = nil
		} else {
			log.Printf("Redis connected: %s", cfg.Redis.Addr)
		}
		rpCancel()
	} else {
		log.Println("Redis not configured (redis.addr empty) — chunk assembly requires Redis")
	}

	store, err := newStorageAdapter(cfg.Storage)
	if err != nil {
		log.Fatalf("Failed to initialize storage: %v", err)
	}

	jobSvc := jobstore.NewService(jobstore.NewPostgresRepository(db))
	q := queue.NewPostgresQueue(db)

	svc := api.NewService(store, redisClient, jobSvc, q)
	router := api.NewRouter(svc)

	addr := fmt.Sprintf("%s:%d", cfg.Server.GetHost(), cfg.Server.Port)
	srv := &http.Server{Addr: addr, Handler: router}

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Printf("Listening on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	<-done
	log.Println("Shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}
	if redisClient != nil {
		redisClient.Close()
	}
	log.Println("Server stopped")
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
