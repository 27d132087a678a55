package jobstore_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignite/candidate-ingest/internal/ingest"
	"github.com/ignite/candidate-ingest/internal/jobstore"
)

func setupRepoTest(t *testing.T) (*jobstore.PostgresRepository, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	repo := jobstore.NewPostgresRepository(db)
	return repo, mock, func() { db.Close() }
}

func TestPostgresRepositoryCreate(t *testing.T) {
	repo, mock, cleanup := setupRepoTest(t)
	defer cleanup()

	mock.ExpectExec("INSERT INTO upload_jobs").
		WillReturnResult(sqlmock.NewResult(1, 1))

	job := &ingest.UploadJob{
		UserID:        "user-1",
		StorageKey:    "uploads/user-1/1_file.csv",
		OriginalName:  "file.csv",
		Mapping:       map[string]string{"fullName": "Name"},
		StoredHeaders: []string{"Name", "Email"},
		Delimiter:     ',',
	}
	id, err := repo.Create(context.Background(), job)
	require.NoError(t, err)
	assert.NotEmpty(t, id)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepositoryGetNotFound(t *testing.T) {
	repo, mock, cleanup := setupRepoTest(t)
	defer cleanup()

	mock.ExpectQuery("SELECT (.+) FROM upload_jobs").
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, jobstore.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepositoryGet(t *testing.T) {
	repo, mock, cleanup := setupRepoTest(t)
	defer cleanup()

	rows := sqlmock.NewRows([]string{
		"id", "user_id", "storage_key", "original_name", "mapping", "stored_headers",
		"header_row_index", "delimiter", "state", "rows_seen", "rows_inserted",
		"rows_rejected", "created_at", "started_at", "completed_at", "error",
		"resume_from", "pause_requested",
	}).AddRow(
		"job-1", "user-1", "uploads/user-1/1_file.csv", "file.csv",
		[]byte(`{"fullName":"Name"}`), []byte(`["Name","Email"]`),
		0, ",", "PROCESSING", 10, 8, 2, time.Now(), nil, nil, nil, nil, false,
	)
	mock.ExpectQuery("SELECT (.+) FROM upload_jobs").WithArgs("job-1").WillReturnRows(rows)

	job, err := repo.Get(context.Background(), "job-1")
	require.NoError(t, err)
	assert.Equal(t, "job-1", job.ID)
	assert.Equal(t, ingest.StateProcessing, job.State)
	assert.Equal(t, int64(10), job.RowsSeen)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepositoryUpdateCountersNotFound(t *testing.T) {
	repo, mock, cleanup := setupRepoTest(t)
	defer cleanup()

	mock.ExpectExec("UPDATE upload_jobs SET rows_seen").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdateCounters(context.Background(), "missing", 1, 1, 0)
	assert.ErrorIs(t, err, jobstore.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}
