package api

import (
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/ignite/candidate-ingest/internal/ingest"
	"github.com/ignite/candidate-ingest/internal/pkg/httputil"
)

const maxChunkMemory = 32 << 20 // 32MB in-memory cap before multipart parts spill to temp files

// UploadChunk handles POST /candidates/upload-chunk. The client posts one
// chunk at a time as multipart/form-data: fileName, chunkIndex,
// totalChunks, and the raw bytes under "file". Every chunk but the last
// returns chunk_received with a progress percentage; the last returns done
// with the detected headers and the final storage key.
func (s *Service) UploadChunk(w http.ResponseWriter, r *http.Request) {
	userID := extractUserID(r)
	if userID == "" {
		httputil.BadRequest(w, "X-User-ID header or user_id query param required")
		return
	}

	if err := r.ParseMultipartForm(maxChunkMemory); err != nil {
		httputil.BadRequest(w, "invalid multipart form: "+err.Error())
		return
	}

	fileName := r.FormValue("fileName")
	if fileName == "" {
		httputil.BadRequest(w, "fileName is required")
		return
	}

	chunkIndex, err := strconv.Atoi(r.FormValue("chunkIndex"))
	if err != nil {
		httputil.BadRequest(w, "chunkIndex must be an integer")
		return
	}
	totalChunks, err := strconv.Atoi(r.FormValue("totalChunks"))
	if err != nil || totalChunks <= 0 {
		httputil.BadRequest(w, "totalChunks must be a positive integer")
		return
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		httputil.BadRequest(w, "file is required")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		httputil.InternalError(w, err)
		return
	}

	var expected []string
	if raw := r.FormValue("expectedHeaders"); raw != "" {
		expected = strings.Split(raw, ",")
	}

	result, err := s.chunks.ReceiveChunk(r.Context(), userID, fileName, chunkIndex, totalChunks, data, expected)
	if err != nil {
		httputil.InternalError(w, err)
		return
	}

	resp := map[string]any{
		"progress": result.ProgressPct,
		"filePath": result.StorageKey,
	}
	switch result.Status {
	case ingest.ChunkComplete:
		resp["status"] = "done"
		resp["headers"] = result.Headers
	default:
		resp["status"] = "chunk_received"
	}
	httputil.OK(w, resp)
}
