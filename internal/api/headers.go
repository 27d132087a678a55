package api

import (
	"net/http"

	"github.com/ignite/candidate-ingest/internal/ingest"
	"github.com/ignite/candidate-ingest/internal/pkg/httputil"
)

type headersRequest struct {
	FilePath        string   `json:"filePath"`
	ExpectedHeaders []string `json:"expectedHeaders,omitempty"`
}

type headersResponse struct {
	Headers        []string `json:"headers"`
	FilePath       string   `json:"filePath"`
	HeaderRowIndex int      `json:"headerRowIndex"`
	Delimiter      string   `json:"delimiter"`
}

// Headers handles POST /candidates/headers: re-runs header detection
// against an already-assembled object, independent of the chunk-upload
// flow (e.g. for a file placed directly via a non-chunked path).
func (s *Service) Headers(w http.ResponseWriter, r *http.Request) {
	var req headersRequest
	if !httputil.Decode(w, r, &req) {
		return
	}
	if req.FilePath == "" {
		httputil.BadRequest(w, "filePath is required")
		return
	}

	end := int64(64*1024 - 1)
	body, err := s.store.GetRange(r.Context(), req.FilePath, 0, &end)
	if err != nil {
		httputil.NotFound(w, "file not found")
		return
	}
	defer body.Close()

	result, _, err := ingest.DetectHeaders(body, req.ExpectedHeaders)
	if err != nil {
		httputil.InternalError(w, err)
		return
	}

	httputil.OK(w, headersResponse{
		Headers:        result.Headers,
		FilePath:       req.FilePath,
		HeaderRowIndex: result.HeaderRowIndex,
		Delimiter:      string(result.Delimiter),
	})
}
