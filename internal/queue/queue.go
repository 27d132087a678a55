package queue

import (
	"context"
	"encoding/json"
)

// JobPayload is the enqueued work unit a worker hands to the Ingestion
// Orchestrator. ResumeFrom/InitialInserted/InitialRejected carry the
// adjusted starting point for a resumed job (spec §4.8 resume contract).
type JobPayload struct {
	JobID           string `json:"jobId"`
	ResumeFrom      int64  `json:"resumeFrom"`
	InitialInserted int64  `json:"initialInserted"`
	InitialRejected int64  `json:"initialRejected"`
}

// Item is a single claimed queue entry.
type Item struct {
	ID         string
	JobKey     string
	Payload    JobPayload
	RetryCount int
}

// Queue is the durable FIFO queue contract: exposes enqueue, dequeue with
// ack/nack, and a per-job-key concurrency limit of 1 (spec §6, §4.7).
type Queue interface {
	// Enqueue durably persists payload under jobKey. jobKey also doubles as
	// the distlock key enforcing at-most-one-worker-per-job.
	Enqueue(ctx context.Context, jobKey string, payload JobPayload) error

	// Dequeue atomically claims the oldest queued item. Returns ErrEmpty if
	// nothing is ready.
	Dequeue(ctx context.Context) (*Item, error)

	// Ack marks an item as successfully processed and removes it.
	Ack(ctx context.Context, id string) error

	// Nack returns an item to the queue for retry, incrementing its retry
	// count. Once the incremented retry count reaches MaxRetryCount, the
	// item is dead-lettered instead of requeued.
	Nack(ctx context.Context, id string) error

	// Depth reports the number of queued (not yet claimed) items, used for
	// backpressure observability.
	Depth(ctx context.Context) (int64, error)
}

func marshalPayload(p JobPayload) ([]byte, error) { return json.Marshal(p) }

func unmarshalPayload(b []byte) (JobPayload, error) {
	var p JobPayload
	err := json.Unmarshal(b, &p)
	return p, err
}
