package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/ignite/candidate-ingest/internal/ingest"
	"github.com/ignite/candidate-ingest/internal/jobstore"
	"github.com/ignite/candidate-ingest/internal/pkg/httputil"
	"github.com/ignite/candidate-ingest/internal/queue"
)

type processRequest struct {
	FilePath       string            `json:"filePath"`
	OriginalName   string            `json:"originalName"`
	Headers        []string          `json:"headers"`
	Mapping        map[string]string `json:"mapping"`
	HeaderRowIndex *int              `json:"headerRowIndex,omitempty"`
	Delimiter      string            `json:"delimiter,omitempty"`
}

type processResponse struct {
	JobID string `json:"jobId"`
}

// Process handles POST /candidates/process: creates a job in
// MAPPING_PENDING->queued-for-processing and hands it to the queue. The
// caller supplies the mapping resolved from the headers returned by the
// upload-chunk or headers endpoints.
func (s *Service) Process(w http.ResponseWriter, r *http.Request) {
	userID := extractUserID(r)
	if userID == "" {
		httputil.BadRequest(w, "X-User-ID header or user_id query param required")
		return
	}

	var req processRequest
	if !httputil.Decode(w, r, &req) {
		return
	}
	if req.FilePath == "" || len(req.Headers) == 0 || len(req.Mapping) == 0 {
		httputil.BadRequest(w, "filePath, headers, and mapping are required")
		return
	}

	headerRowIndex := 0
	delimiter := rune(',')
	if req.HeaderRowIndex != nil && req.Delimiter != "" {
		headerRowIndex = *req.HeaderRowIndex
		delimiter = rune(req.Delimiter[0])
	} else {
		detected, resolvedDelim, err := s.detectForProcess(r, req.FilePath, req.Headers)
		if err != nil {
			httputil.InternalError(w, err)
			return
		}
		headerRowIndex = detected
		delimiter = resolvedDelim
	}

	job, err := s.jobs.Create(r.Context(), jobstore.CreateInput{
		UserID:         userID,
		StorageKey:     req.FilePath,
		OriginalName:   req.OriginalName,
		Mapping:        req.Mapping,
		StoredHeaders:  req.Headers,
		HeaderRowIndex: headerRowIndex,
		Delimiter:      delimiter,
	})
	if err != nil {
		httputil.InternalError(w, err)
		return
	}

	if err := s.queue.Enqueue(r.Context(), job.ID, queue.JobPayload{JobID: job.ID}); err != nil {
		httputil.InternalError(w, err)
		return
	}

	httputil.Created(w, processResponse{JobID: job.ID})
}

func (s *Service) detectForProcess(r *http.Request, filePath string, headers []string) (int, rune, error) {
	end := int64(64*1024 - 1)
	body, err := s.store.GetRange(r.Context(), filePath, 0, &end)
	if err != nil {
		return 0, ',', err
	}
	defer body.Close()

	result, _, err := ingest.DetectHeaders(body, headers)
	if err != nil {
		return 0, ',', err
	}
	return result.HeaderRowIndex, result.Delimiter, nil
}

type jobStatusResponse struct {
	JobID          string `json:"jobId"`
	State          string `json:"state"`
	RowsSeen       int64  `json:"rowsSeen"`
	RowsInserted   int64  `json:"rowsInserted"`
	RowsRejected   int64  `json:"rowsRejected"`
	Error          string `json:"error,omitempty"`
	PauseRequested bool   `json:"pauseRequested"`
}

func toJobStatusResponse(job *ingest.UploadJob) jobStatusResponse {
	return jobStatusResponse{
		JobID:          job.ID,
		State:          string(job.State),
		RowsSeen:       job.RowsSeen,
		RowsInserted:   job.RowsInserted,
		RowsRejected:   job.RowsRejected,
		Error:          job.Error,
		PauseRequested: job.PauseRequested,
	}
}

// JobStatus handles GET /candidates/job/{id}/status.
func (s *Service) JobStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	job, err := s.jobs.Get(r.Context(), id)
	if err != nil {
		httputil.NotFound(w, "job not found")
		return
	}
	httputil.OK(w, toJobStatusResponse(job))
}

// Pause handles POST /candidates/{id}/pause: requests cooperative pause.
// The orchestrator acknowledges it at the next batch boundary.
func (s *Service) Pause(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.jobs.RequestPause(r.Context(), id); err != nil {
		httputil.InternalError(w, err)
		return
	}
	httputil.OK(w, map[string]string{"status": "pause_requested"})
}

// Resume handles POST /candidates/{id}/resume: validates the job is in a
// resumable state, then re-enqueues it with the persisted resume point and
// counters as the new starting point.
func (s *Service) Resume(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	job, err := s.jobs.Resume(r.Context(), id)
	if err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}

	payload := queue.JobPayload{
		JobID:           job.ID,
		ResumeFrom:      job.ResumeFrom,
		InitialInserted: job.RowsInserted,
		InitialRejected: job.RowsRejected,
	}
	if err := s.queue.Enqueue(r.Context(), job.ID, payload); err != nil {
		httputil.InternalError(w, err)
		return
	}
	httputil.OK(w, map[string]string{"status": "resumed"})
}

type jobSummary struct {
	JobID        string `json:"jobId"`
	OriginalName string `json:"originalName"`
	State        string `json:"state"`
	RowsSeen     int64  `json:"rowsSeen"`
	RowsInserted int64  `json:"rowsInserted"`
	RowsRejected int64  `json:"rowsRejected"`
}

type listHistoryResponse struct {
	Jobs  []jobSummary `json:"jobs"`
	Total int          `json:"total"`
}

// ListHistory handles GET /candidates/jobs: a user's paginated job
// history, newest first.
func (s *Service) ListHistory(w http.ResponseWriter, r *http.Request) {
	userID := extractUserID(r)
	if userID == "" {
		httputil.BadRequest(w, "X-User-ID header or user_id query param required")
		return
	}

	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}
	offset := 0
	if v := r.URL.Query().Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			offset = n
		}
	}

	jobs, total, err := s.jobs.ListByUser(r.Context(), userID, limit, offset)
	if err != nil {
		httputil.InternalError(w, err)
		return
	}

	summaries := make([]jobSummary, len(jobs))
	for i, j := range jobs {
		summaries[i] = jobSummary{
			JobID:        j.ID,
			OriginalName: j.OriginalName,
			State:        string(j.State),
			RowsSeen:     j.RowsSeen,
			RowsInserted: j.RowsInserted,
			RowsRejected: j.RowsRejected,
		}
	}
	httputil.OK(w, listHistoryResponse{Jobs: summaries, Total: total})
}
