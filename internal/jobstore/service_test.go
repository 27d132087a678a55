package jobstore_test

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignite/candidate-ingest/internal/ingest"
	"github.com/ignite/candidate-ingest/internal/jobstore"
)

type fakeRepo struct {
	mu   sync.Mutex
	jobs map[string]*ingest.UploadJob
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{jobs: make(map[string]*ingest.UploadJob)}
}

func (f *fakeRepo) Create(ctx context.Context, job *ingest.UploadJob) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := uuid.New().String()
	cp := *job
	cp.ID = id
	f.jobs[id] = &cp
	return id, nil
}

func (f *fakeRepo) Get(ctx context.Context, id string) (*ingest.UploadJob, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	job, ok := f.jobs[id]
	if !ok {
		return nil, jobstore.ErrNotFound
	}
	cp := *job
	return &cp, nil
}

func (f *fakeRepo) UpdateCounters(ctx context.Context, id string, seen, inserted, rejected int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	job, ok := f.jobs[id]
	if !ok {
		return jobstore.ErrNotFound
	}
	job.RowsSeen, job.RowsInserted, job.RowsRejected = seen, inserted, rejected
	return nil
}

func (f *fakeRepo) UpdateState(ctx context.Context, id string, state ingest.JobState) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	job, ok := f.jobs[id]
	if !ok {
		return jobstore.ErrNotFound
	}
	job.State = state
	return nil
}

func (f *fakeRepo) SetStarted(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.jobs[id]
	if !ok {
		return jobstore.ErrNotFound
	}
	return nil
}

func (f *fakeRepo) SetCompleted(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	job, ok := f.jobs[id]
	if !ok {
		return jobstore.ErrNotFound
	}
	job.State = ingest.StateCompleted
	return nil
}

func (f *fakeRepo) SetFailed(ctx context.Context, id string, errMsg string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	job, ok := f.jobs[id]
	if !ok {
		return jobstore.ErrNotFound
	}
	job.State = ingest.StateFailed
	job.Error = errMsg
	return nil
}

func (f *fakeRepo) SetPauseRequested(ctx context.Context, id string, requested bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	job, ok := f.jobs[id]
	if !ok {
		return jobstore.ErrNotFound
	}
	job.PauseRequested = requested
	return nil
}

func (f *fakeRepo) SetResumeFrom(ctx context.Context, id string, rowIdx int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	job, ok := f.jobs[id]
	if !ok {
		return jobstore.ErrNotFound
	}
	job.ResumeFrom = rowIdx
	return nil
}

func (f *fakeRepo) ListByUser(ctx context.Context, userID string, limit, offset int) ([]ingest.UploadJob, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []ingest.UploadJob
	for _, j := range f.jobs {
		if j.UserID == userID {
			out = append(out, *j)
		}
	}
	return out, len(out), nil
}

func TestResumeSetsResumeFromRowsSeenWhenPaused(t *testing.T) {
	repo := newFakeRepo()
	svc := jobstore.NewService(repo)
	ctx := context.Background()

	job, err := svc.Create(ctx, jobstore.CreateInput{UserID: "u1", StorageKey: "k"})
	require.NoError(t, err)
	require.NoError(t, repo.UpdateCounters(ctx, job.ID, 900, 850, 40))
	require.NoError(t, svc.AcknowledgePause(ctx, job.ID, 900))

	resumed, err := svc.Resume(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(900), resumed.ResumeFrom)
	assert.False(t, resumed.PauseRequested)

	persisted, err := repo.Get(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(900), persisted.ResumeFrom)
}

func TestResumeSetsResumeFromRowsSeenWhenFailed(t *testing.T) {
	repo := newFakeRepo()
	svc := jobstore.NewService(repo)
	ctx := context.Background()

	job, err := svc.Create(ctx, jobstore.CreateInput{UserID: "u1", StorageKey: "k"})
	require.NoError(t, err)
	require.NoError(t, repo.UpdateCounters(ctx, job.ID, 500, 480, 15))
	require.NoError(t, svc.Fail(ctx, job.ID, "boom"))

	resumed, err := svc.Resume(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(500), resumed.ResumeFrom)
	assert.Equal(t, int64(480), resumed.RowsInserted)
	assert.Equal(t, int64(15), resumed.RowsRejected)
}

func TestResumeSetsResumeFromRowsSeenWhenCompleted(t *testing.T) {
	repo := newFakeRepo()
	svc := jobstore.NewService(repo)
	ctx := context.Background()

	job, err := svc.Create(ctx, jobstore.CreateInput{UserID: "u1", StorageKey: "k"})
	require.NoError(t, err)
	require.NoError(t, repo.UpdateCounters(ctx, job.ID, 1000, 1000, 0))
	require.NoError(t, svc.Complete(ctx, job.ID, 1000, 1000, 0))

	resumed, err := svc.Resume(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1000), resumed.ResumeFrom)
}

func TestResumeRejectsNonTerminalNonPausedState(t *testing.T) {
	repo := newFakeRepo()
	svc := jobstore.NewService(repo)
	ctx := context.Background()

	job, err := svc.Create(ctx, jobstore.CreateInput{UserID: "u1", StorageKey: "k"})
	require.NoError(t, err)
	_, err = svc.Claim(ctx, job.ID)
	require.NoError(t, err)

	_, err = svc.Resume(ctx, job.ID)
	assert.ErrorIs(t, err, jobstore.ErrInvalidTransition)
}
