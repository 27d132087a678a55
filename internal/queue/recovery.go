package queue

import (
	"context"
	"database/sql"
	"log"
	"time"
)

// DefaultRecoveryInterval is how often RecoveryWorker scans for stuck items.
const DefaultRecoveryInterval = 2 * time.Minute

// DefaultStaleAge is how long an item can be claimed before it's considered
// stuck (worker likely crashed mid-job — spec §7 "worker crash mid-job").
const DefaultStaleAge = 5 * time.Minute

// RecoveryWorker periodically reclaims queue items stuck in 'claimed' past
// DefaultStaleAge and dead-letters items that have exhausted MaxRetryCount.
// This is the concrete mechanism behind spec §7's "queue re-delivers" after
// a worker crash.
type RecoveryWorker struct {
	db       *sql.DB
	interval time.Duration
	staleAge time.Duration
}

// NewRecoveryWorker creates a recovery worker with default timing.
func NewRecoveryWorker(db *sql.DB) *RecoveryWorker {
	return &RecoveryWorker{db: db, interval: DefaultRecoveryInterval, staleAge: DefaultStaleAge}
}

// NewRecoveryWorkerWithConfig creates a recovery worker with custom timing.
func NewRecoveryWorkerWithConfig(db *sql.DB, interval, staleAge time.Duration) *RecoveryWorker {
	if interval <= 0 {
		interval = DefaultRecoveryInterval
	}
	if staleAge <= 0 {
		staleAge = DefaultStaleAge
	}
	return &RecoveryWorker{db: db, interval: interval, staleAge: staleAge}
}

// Start runs the recovery loop until ctx is cancelled.
func (r *RecoveryWorker) Start(ctx context.Context) {
	log.Printf("[queue.RecoveryWorker] starting (interval=%s stale_age=%s max_retries=%d)",
		r.interval, r.staleAge, MaxRetryCount)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			log.Println("[queue.RecoveryWorker] stopping")
			return
		case <-ticker.C:
			r.recoverStuckItems(ctx)
		}
	}
}

func (r *RecoveryWorker) recoverStuckItems(ctx context.Context) {
	queryCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	res, err := r.db.ExecContext(queryCtx, `
		UPDATE ingest_queue
		SET status = 'queued', claimed_at = NULL, retry_count = retry_count + 1
		WHERE status = 'claimed'
		  AND claimed_at < NOW() - $1::interval
		  AND retry_count < $2
	`, r.staleAge.String(), MaxRetryCount)
	if err != nil {
		log.Printf("[queue.RecoveryWorker] requeue error: %v", err)
	} else if n, _ := res.RowsAffected(); n > 0 {
		log.Printf("[queue.RecoveryWorker] requeued %d stuck items", n)
	}

	res, err = r.db.ExecContext(queryCtx, `
		UPDATE ingest_queue
		SET status = 'dead_letter'
		WHERE status IN ('claimed', 'queued')
		  AND retry_count >= $1
	`, MaxRetryCount)
	if err != nil {
		log.Printf("[queue.RecoveryWorker] dead-letter error: %v", err)
	} else if n, _ := res.RowsAffected(); n > 0 {
		log.Printf("[queue.RecoveryWorker] moved %d items to dead_letter", n)
	}
}
