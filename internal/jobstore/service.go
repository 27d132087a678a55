package jobstore

import (
	"context"
	"fmt"

	"github.com/ignite/candidate-ingest/internal/ingest"
)

// Service implements job bookkeeping logic, coordinating with the
// Repository. All public methods are safe for concurrent use if the
// underlying repository is concurrency-safe.
type Service struct {
	repo Repository
}

// NewService creates a job store service backed by the given repository.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// CreateInput holds the fields for creating a new job.
type CreateInput struct {
	UserID         string
	StorageKey     string
	OriginalName   string
	Mapping        map[string]string
	StoredHeaders  []string
	HeaderRowIndex int
	Delimiter      rune
}

// Create persists a new job in MAPPING_PENDING.
func (s *Service) Create(ctx context.Context, in CreateInput) (*ingest.UploadJob, error) {
	job := &ingest.UploadJob{
		UserID:         in.UserID,
		StorageKey:     in.StorageKey,
		OriginalName:   in.OriginalName,
		Mapping:        in.Mapping,
		StoredHeaders:  in.StoredHeaders,
		HeaderRowIndex: in.HeaderRowIndex,
		Delimiter:      in.Delimiter,
		State:          ingest.StateMappingPending,
	}
	id, err := s.repo.Create(ctx, job)
	if err != nil {
		return nil, err
	}
	job.ID = id
	return job, nil
}

// Get returns a job by ID.
func (s *Service) Get(ctx context.Context, id string) (*ingest.UploadJob, error) {
	return s.repo.Get(ctx, id)
}

// ListByUser returns a user's jobs, newest first.
func (s *Service) ListByUser(ctx context.Context, userID string, limit, offset int) ([]ingest.UploadJob, int, error) {
	return s.repo.ListByUser(ctx, userID, limit, offset)
}

// Claim transitions a job into PROCESSING and stamps started_at, failing if
// the job is already terminal (spec §4.6 step 1).
func (s *Service) Claim(ctx context.Context, id string) (*ingest.UploadJob, error) {
	job, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if job.State.Terminal() {
		return nil, fmt.Errorf("%w: job %s is %s", ErrTerminal, id, job.State)
	}
	if err := s.repo.UpdateState(ctx, id, ingest.StateProcessing); err != nil {
		return nil, err
	}
	if err := s.repo.SetStarted(ctx, id); err != nil {
		return nil, err
	}
	job.State = ingest.StateProcessing
	return job, nil
}

// PersistProgress writes the monotonic counters (spec §4.6: "after every
// batch AND at least every PROGRESS_INTERVAL_MS").
func (s *Service) PersistProgress(ctx context.Context, id string, seen, inserted, rejected int64) error {
	return s.repo.UpdateCounters(ctx, id, seen, inserted, rejected)
}

// Complete transitions a job to COMPLETED with final counters.
func (s *Service) Complete(ctx context.Context, id string, seen, inserted, rejected int64) error {
	if err := s.repo.UpdateCounters(ctx, id, seen, inserted, rejected); err != nil {
		return err
	}
	return s.repo.SetCompleted(ctx, id)
}

// Fail transitions a job to FAILED, preserving whatever counters were last
// persisted (spec §7: "partial counters preserved").
func (s *Service) Fail(ctx context.Context, id string, errMsg string) error {
	return s.repo.SetFailed(ctx, id, errMsg)
}

// RequestPause sets pause_requested; idempotent, no-op on a terminal job.
func (s *Service) RequestPause(ctx context.Context, id string) error {
	job, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if job.State.Terminal() {
		return nil
	}
	return s.repo.SetPauseRequested(ctx, id, true)
}

// AcknowledgePause is called by the orchestrator when it honors a pause
// request: persists resume_from and transitions to PAUSED.
func (s *Service) AcknowledgePause(ctx context.Context, id string, resumeFrom int64) error {
	if err := s.repo.SetResumeFrom(ctx, id, resumeFrom); err != nil {
		return err
	}
	if err := s.repo.SetPauseRequested(ctx, id, false); err != nil {
		return err
	}
	return s.repo.UpdateState(ctx, id, ingest.StatePaused)
}

// Resume prepares a job for re-enqueueing: it sets resume_from = rows_seen
// (spec §4.8), clears pause_requested, moves a FAILED or COMPLETED job to
// PAUSED so the worker's Claim accepts it again, and returns the updated job
// so the caller (JCA) can enqueue it with the persisted resume_from and
// counters as initialInserted/initialRejected. Valid from PAUSED, FAILED, or
// COMPLETED; any other state is rejected.
func (s *Service) Resume(ctx context.Context, id string) (*ingest.UploadJob, error) {
	job, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if job.State != ingest.StatePaused && job.State != ingest.StateFailed && job.State != ingest.StateCompleted {
		return nil, fmt.Errorf("%w: cannot resume job %s from %s", ErrInvalidTransition, id, job.State)
	}
	if err := s.repo.SetResumeFrom(ctx, id, job.RowsSeen); err != nil {
		return nil, err
	}
	if err := s.repo.SetPauseRequested(ctx, id, false); err != nil {
		return nil, err
	}
	if job.State.Terminal() {
		if err := s.repo.UpdateState(ctx, id, ingest.StatePaused); err != nil {
			return nil, err
		}
		job.State = ingest.StatePaused
	}
	job.ResumeFrom = job.RowsSeen
	return job, nil
}
