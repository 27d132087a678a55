package queue

import (
	"context"
	"database/sql"
	"fmt"
)

// MaxRetryCount bounds how many times a job is redelivered before it is
// dead-lettered (spec §6: "retry with exponential backoff ... up to 3
// attempts"). The backoff timing itself lives in internal/pkg/backoff and is
// applied by the Worker around a single dequeued item's processing attempt,
// not by Nack — Nack only tracks the count and requeues.
const MaxRetryCount = 3

// PostgresQueue implements Queue against PostgreSQL. Items are claimed via
// SELECT ... FOR UPDATE SKIP LOCKED, which lets multiple worker processes
// share one table without double-claiming a row.
type PostgresQueue struct{ db *sql.DB }

// NewPostgresQueue creates a Postgres-backed queue.
func NewPostgresQueue(db *sql.DB) *PostgresQueue { return &PostgresQueue{db: db} }

func (q *PostgresQueue) Enqueue(ctx context.Context, jobKey string, payload JobPayload) error {
	body, err := marshalPayload(payload)
	if err != nil {
		return fmt.Errorf("queue: marshal payload: %w", err)
	}
	_, err = q.db.ExecContext(ctx, `
		INSERT INTO ingest_queue (job_key, payload, status, retry_count, created_at)
		VALUES ($1, $2, 'queued', 0, NOW())
	`, jobKey, body)
	if err != nil {
		return fmt.Errorf("queue: enqueue %s: %w", jobKey, err)
	}
	return nil
}

func (q *PostgresQueue) Dequeue(ctx context.Context) (*Item, error) {
	tx, err := q.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("queue: begin dequeue: %w", err)
	}
	defer tx.Rollback()

	row := tx.QueryRowContext(ctx, `
		UPDATE ingest_queue
		SET status = 'claimed', claimed_at = NOW()
		WHERE id = (
			SELECT id FROM ingest_queue
			WHERE status = 'queued'
			ORDER BY created_at ASC
			FOR UPDATE SKIP LOCKED
			LIMIT 1
		)
		RETURNING id, job_key, payload, retry_count
	`)

	var id, jobKey string
	var body []byte
	var retryCount int
	if err := row.Scan(&id, &jobKey, &body, &retryCount); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrEmpty
		}
		return nil, fmt.Errorf("queue: dequeue: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("queue: commit dequeue: %w", err)
	}

	payload, err := unmarshalPayload(body)
	if err != nil {
		return nil, fmt.Errorf("queue: unmarshal payload for %s: %w", id, err)
	}

	return &Item{ID: id, JobKey: jobKey, Payload: payload, RetryCount: retryCount}, nil
}

func (q *PostgresQueue) Ack(ctx context.Context, id string) error {
	_, err := q.db.ExecContext(ctx, `DELETE FROM ingest_queue WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("queue: ack %s: %w", id, err)
	}
	return nil
}

func (q *PostgresQueue) Nack(ctx context.Context, id string) error {
	_, err := q.db.ExecContext(ctx, `
		UPDATE ingest_queue
		SET status = CASE WHEN retry_count + 1 >= $2 THEN 'dead_letter' ELSE 'queued' END,
		    retry_count = retry_count + 1,
		    claimed_at = NULL
		WHERE id = $1
	`, id, MaxRetryCount)
	if err != nil {
		return fmt.Errorf("queue: nack %s: %w", id, err)
	}
	return nil
}

func (q *PostgresQueue) Depth(ctx context.Context) (int64, error) {
	var depth int64
	err := q.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM ingest_queue WHERE status = 'queued'`,
	).Scan(&depth)
	if err != nil {
		return 0, fmt.Errorf("queue: depth: %w", err)
	}
	return depth, nil
}
