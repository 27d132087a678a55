package queue

import (
	"context"
	"database/sql"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ignite/candidate-ingest/internal/pkg/backoff"
	"github.com/ignite/candidate-ingest/internal/pkg/distlock"
)

// ProcessFunc runs one job to completion (or failure). It is the
// Ingestion Orchestrator's run(jobId, ...) entry point, injected by the
// caller so this package stays ignorant of ingestion internals.
type ProcessFunc func(ctx context.Context, payload JobPayload) error

// Worker dequeues items and processes them one at a time, enforcing
// at-most-one-worker-per-job via a distributed lock keyed on the job (spec
// §4.7). Transient per-attempt failures are retried with backoff.DefaultPolicy
// inside a single dequeue before the item is nacked back to the queue; a
// process failure that exhausts the policy is nacked, which the queue's own
// retry_count/MaxRetryCount bookkeeping and RecoveryWorker dead-letter path
// bound from there.
type Worker struct {
	q            Queue
	redis        *redis.Client
	db           *sql.DB
	lockTTL      time.Duration
	pollInterval time.Duration
	process      ProcessFunc
}

// NewWorker builds a queue worker. redisClient may be nil, in which case
// distlock falls back to Postgres advisory locks.
func NewWorker(q Queue, redisClient *redis.Client, db *sql.DB, lockTTL time.Duration, process ProcessFunc) *Worker {
	return &Worker{
		q:            q,
		redis:        redisClient,
		db:           db,
		lockTTL:      lockTTL,
		pollInterval: time.Second,
		process:      process,
	}
}

// Start runs the dequeue loop until ctx is cancelled.
func (w *Worker) Start(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		item, err := w.q.Dequeue(ctx)
		if err == ErrEmpty {
			select {
			case <-time.After(w.pollInterval):
			case <-ctx.Done():
				return
			}
			continue
		}
		if err != nil {
			log.Printf("[queue.Worker] dequeue error: %v", err)
			select {
			case <-time.After(w.pollInterval):
			case <-ctx.Done():
				return
			}
			continue
		}

		w.handle(ctx, item)
	}
}

func (w *Worker) handle(ctx context.Context, item *Item) {
	lock := distlock.NewLock(w.redis, w.db, item.JobKey, w.lockTTL)
	acquired, err := lock.Acquire(ctx)
	if err != nil {
		log.Printf("[queue.Worker] lock acquire error for %s: %v", item.JobKey, err)
		w.nack(ctx, item)
		return
	}
	if !acquired {
		// Another worker already owns this job (spec §4.7 invariant); leave
		// the item claimed. The RecoveryWorker's stale scan requeues it once
		// it has been claimed longer than the stale age.
		log.Printf("[queue.Worker] job %s already owned by another worker", item.JobKey)
		return
	}
	defer lock.Release(ctx)

	err = backoff.Do(ctx, backoff.DefaultPolicy, func(attempt int) error {
		return w.process(ctx, item.Payload)
	})
	if err != nil {
		log.Printf("[queue.Worker] job %s failed: %v", item.JobKey, err)
		w.nack(ctx, item)
		return
	}

	if err := w.q.Ack(ctx, item.ID); err != nil {
		log.Printf("[queue.Worker] ack %s error: %v", item.ID, err)
	}
}

func (w *Worker) nack(ctx context.Context, item *Item) {
	if err := w.q.Nack(ctx, item.ID); err != nil {
		log.Printf("[queue.Worker] nack %s error: %v", item.ID, err)
	}
}
