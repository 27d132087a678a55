package queue_test

import (
	"context"
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/ignite/candidate-ingest/internal/queue"
)

func TestPostgresQueueEnqueue(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("INSERT INTO ingest_queue").WillReturnResult(sqlmock.NewResult(1, 1))

	q := queue.NewPostgresQueue(db)
	err = q.Enqueue(context.Background(), "job-1", queue.JobPayload{JobID: "job-1"})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresQueueDequeueEmpty(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery("UPDATE ingest_queue").WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	q := queue.NewPostgresQueue(db)
	_, err = q.Dequeue(context.Background())
	require.ErrorIs(t, err, queue.ErrEmpty)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresQueueDequeue(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	rows := sqlmock.NewRows([]string{"id", "job_key", "payload", "retry_count"}).
		AddRow("item-1", "job-1", []byte(`{"jobId":"job-1"}`), 0)

	mock.ExpectBegin()
	mock.ExpectQuery("UPDATE ingest_queue").WillReturnRows(rows)
	mock.ExpectCommit()

	q := queue.NewPostgresQueue(db)
	item, err := q.Dequeue(context.Background())
	require.NoError(t, err)
	require.Equal(t, "job-1", item.JobKey)
	require.Equal(t, "job-1", item.Payload.JobID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresQueueAckNack(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("DELETE FROM ingest_queue").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE ingest_queue").WillReturnResult(sqlmock.NewResult(0, 1))

	q := queue.NewPostgresQueue(db)
	require.NoError(t, q.Ack(context.Background(), "item-1"))
	require.NoError(t, q.Nack(context.Background(), "item-2"))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresQueueDepth(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT COUNT").WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))

	q := queue.NewPostgresQueue(db)
	depth, err := q.Depth(context.Background())
	require.NoError(t, err)
	require.Equal(t, int64(3), depth)
	require.NoError(t, mock.ExpectationsWereMet())
}
