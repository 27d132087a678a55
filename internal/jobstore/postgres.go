package jobstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/ignite/candidate-ingest/internal/ingest"
)

// PostgresRepository implements Repository against PostgreSQL via lib/pq.
type PostgresRepository struct{ db *sql.DB }

// NewPostgresRepository creates a Postgres-backed job store.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, job *ingest.UploadJob) (string, error) {
	if job.ID == "" {
		job.ID = uuid.New().String()
	}
	mapping, err := json.Marshal(job.Mapping)
	if err != nil {
		return "", fmt.Errorf("jobstore: marshal mapping: %w", err)
	}
	headers, err := json.Marshal(job.StoredHeaders)
	if err != nil {
		return "", fmt.Errorf("jobstore: marshal headers: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO upload_jobs (
			id, user_id, storage_key, original_name, mapping, stored_headers,
			header_row_index, delimiter, state, rows_seen, rows_inserted,
			rows_rejected, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, 0, 0, 0, NOW())
	`, job.ID, job.UserID, job.StorageKey, job.OriginalName, mapping, headers,
		job.HeaderRowIndex, string(job.Delimiter), string(ingest.StateMappingPending))
	if err != nil {
		return "", fmt.Errorf("jobstore: create job: %w", err)
	}
	return job.ID, nil
}

func (r *PostgresRepository) Get(ctx context.Context, id string) (*ingest.UploadJob, error) {
	job := &ingest.UploadJob{}
	var mapping, headers []byte
	var delim string
	var state string
	var startedAt, completedAt sql.NullTime
	var errMsg sql.NullString
	var resumeFrom sql.NullInt64

	err := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, storage_key, original_name, mapping, stored_headers,
		       header_row_index, delimiter, state, rows_seen, rows_inserted,
		       rows_rejected, created_at, started_at, completed_at, error,
		       resume_from, pause_requested
		FROM upload_jobs WHERE id = $1
	`, id).Scan(
		&job.ID, &job.UserID, &job.StorageKey, &job.OriginalName, &mapping, &headers,
		&job.HeaderRowIndex, &delim, &state, &job.RowsSeen, &job.RowsInserted,
		&job.RowsRejected, &job.CreatedAt, &startedAt, &completedAt, &errMsg,
		&resumeFrom, &job.PauseRequested,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("jobstore: get job %s: %w", id, err)
	}

	if err := json.Unmarshal(mapping, &job.Mapping); err != nil {
		return nil, fmt.Errorf("jobstore: unmarshal mapping: %w", err)
	}
	if err := json.Unmarshal(headers, &job.StoredHeaders); err != nil {
		return nil, fmt.Errorf("jobstore: unmarshal headers: %w", err)
	}
	if delim != "" {
		job.Delimiter = []rune(delim)[0]
	}
	job.State = ingest.JobState(state)
	if startedAt.Valid {
		job.StartedAt = &startedAt.Time
	}
	if completedAt.Valid {
		job.CompletedAt = &completedAt.Time
	}
	if errMsg.Valid {
		job.Error = errMsg.String
	}
	if resumeFrom.Valid {
		job.ResumeFrom = resumeFrom.Int64
	}
	return job, nil
}

func (r *PostgresRepository) UpdateCounters(ctx context.Context, id string, seen, inserted, rejected int64) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE upload_jobs
		SET rows_seen = $2, rows_inserted = $3, rows_rejected = $4
		WHERE id = $1
	`, id, seen, inserted, rejected)
	return rowsAffectedOrNotFound(res, err)
}

func (r *PostgresRepository) UpdateState(ctx context.Context, id string, state ingest.JobState) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE upload_jobs SET state = $2 WHERE id = $1`, id, string(state))
	return rowsAffectedOrNotFound(res, err)
}

func (r *PostgresRepository) SetStarted(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE upload_jobs SET started_at = NOW() WHERE id = $1 AND started_at IS NULL
	`, id)
	if err != nil {
		return fmt.Errorf("jobstore: set started %s: %w", id, err)
	}
	return nil
}

func (r *PostgresRepository) SetCompleted(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE upload_jobs SET state = $2, completed_at = NOW() WHERE id = $1
	`, id, string(ingest.StateCompleted))
	return rowsAffectedOrNotFound(res, err)
}

func (r *PostgresRepository) SetFailed(ctx context.Context, id string, errMsg string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE upload_jobs SET state = $2, error = $3 WHERE id = $1
	`, id, string(ingest.StateFailed), errMsg)
	return rowsAffectedOrNotFound(res, err)
}

func (r *PostgresRepository) SetPauseRequested(ctx context.Context, id string, requested bool) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE upload_jobs SET pause_requested = $2 WHERE id = $1
	`, id, requested)
	return rowsAffectedOrNotFound(res, err)
}

func (r *PostgresRepository) SetResumeFrom(ctx context.Context, id string, rowIdx int64) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE upload_jobs SET resume_from = $2 WHERE id = $1
	`, id, rowIdx)
	return rowsAffectedOrNotFound(res, err)
}

func (r *PostgresRepository) ListByUser(ctx context.Context, userID string, limit, offset int) ([]ingest.UploadJob, int, error) {
	if limit <= 0 {
		limit = 50
	}

	var total int
	if err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM upload_jobs WHERE user_id = $1`, userID,
	).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("jobstore: count jobs for %s: %w", userID, err)
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, original_name, state, rows_seen, rows_inserted,
		       rows_rejected, created_at
		FROM upload_jobs
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, userID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("jobstore: list jobs for %s: %w", userID, err)
	}
	defer rows.Close()

	var out []ingest.UploadJob
	for rows.Next() {
		var j ingest.UploadJob
		var state string
		if err := rows.Scan(&j.ID, &j.UserID, &j.OriginalName, &state,
			&j.RowsSeen, &j.RowsInserted, &j.RowsRejected, &j.CreatedAt); err != nil {
			return nil, 0, fmt.Errorf("jobstore: scan job row: %w", err)
		}
		j.State = ingest.JobState(state)
		out = append(out, j)
	}
	return out, total, rows.Err()
}

func rowsAffectedOrNotFound(res sql.Result, err error) error {
	if err != nil {
		return fmt.Errorf("jobstore: exec: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("jobstore: rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
