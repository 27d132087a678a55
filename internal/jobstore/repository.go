package jobstore

import (
	"context"

	"github.com/ignite/candidate-ingest/internal/ingest"
)

// Repository defines the data access contract for upload jobs.
// Implementations must be safe for concurrent use.
type Repository interface {
	// Create inserts a new job in MAPPING_PENDING and returns its ID.
	Create(ctx context.Context, job *ingest.UploadJob) (string, error)

	// Get returns a single job. Returns ErrNotFound if it doesn't exist.
	Get(ctx context.Context, id string) (*ingest.UploadJob, error)

	// UpdateCounters sets the monotonic progress counters on a job.
	UpdateCounters(ctx context.Context, id string, seen, inserted, rejected int64) error

	// UpdateState transitions a job to a new lifecycle state.
	UpdateState(ctx context.Context, id string, state ingest.JobState) error

	// SetStarted stamps started_at if it is currently unset.
	SetStarted(ctx context.Context, id string) error

	// SetCompleted stamps completed_at and transitions to COMPLETED.
	SetCompleted(ctx context.Context, id string) error

	// SetFailed transitions to FAILED and records the error string.
	SetFailed(ctx context.Context, id string, errMsg string) error

	// SetPauseRequested sets or clears the cooperative pause flag.
	SetPauseRequested(ctx context.Context, id string, requested bool) error

	// SetResumeFrom persists the row index a paused job should resume from.
	SetResumeFrom(ctx context.Context, id string, rowIdx int64) error

	// ListByUser returns jobs owned by userID, newest first, along with the
	// total count ignoring limit/offset.
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]ingest.UploadJob, int, error)
}
