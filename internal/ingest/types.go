// Package ingest holds the data model and per-row pipeline stages shared by
// the chunk assembler, header detector, row parser, and cleaner: the parts of
// the candidate ingestion pipeline that operate on bytes and rows rather than
// on the job lifecycle itself.
package ingest

import "time"

// JobState is the UploadJob lifecycle state.
type JobState string

const (
	StateMappingPending JobState = "MAPPING_PENDING"
	StateProcessing     JobState = "PROCESSING"
	StateCompleted      JobState = "COMPLETED"
	StateFailed         JobState = "FAILED"
	StatePaused         JobState = "PAUSED"
)

// Terminal reports whether the state is a terminal lifecycle state where
// counters are frozen.
func (s JobState) Terminal() bool {
	return s == StateCompleted || s == StateFailed
}

// CanonicalFields are the 15 destination fields a candidate record may carry.
var CanonicalFields = []string{
	"fullName", "email", "phone", "company", "industry", "jobTitle", "skills",
	"experience", "country", "locality", "location", "linkedinUrl", "githubUrl",
	"birthYear", "summary",
}

// CandidateRecord is one cleaned, accepted destination row.
type CandidateRecord struct {
	FullName    string `json:"fullName"`
	Email       string `json:"email"`
	Phone       string `json:"phone"`
	Company     string `json:"company"`
	Industry    string `json:"industry"`
	JobTitle    string `json:"jobTitle"`
	Skills      string `json:"skills"`
	Experience  string `json:"experience"`
	Country     string `json:"country"`
	Locality    string `json:"locality"`
	Location    string `json:"location"`
	LinkedinURL string `json:"linkedinUrl"`
	GithubURL   string `json:"githubUrl"`
	BirthYear   string `json:"birthYear"`
	Summary     string `json:"summary"`

	SourceFile  string    `json:"sourceFile"`
	UploadJobID string    `json:"uploadJobId"`
	IsDeleted   bool      `json:"isDeleted"`
	CreatedAt   time.Time `json:"createdAt"`
}

// UploadJob is the persistent record of one ingestion job.
type UploadJob struct {
	ID             string
	UserID         string
	StorageKey     string
	OriginalName   string
	Mapping        map[string]string // canonical field -> source header
	StoredHeaders  []string          // captured at mapping time, immutable for the job's life
	HeaderRowIndex int
	Delimiter      rune

	State JobState

	RowsSeen     int64
	RowsInserted int64
	RowsRejected int64

	CreatedAt   time.Time
	StartedAt   *time.Time
	CompletedAt *time.Time

	Error          string
	ResumeFrom     int64
	PauseRequested bool
}

// ChunkManifest describes the transient state of a single in-progress
// upload. ChunkAssembler does not use this type: it keeps the storage key and
// received chunk indices in Redis and deletes them once the upload finalizes.
type ChunkManifest struct {
	StorageKey      string
	TotalChunks     int
	ReceivedChunks  map[int]bool
	BytesReceived   int64
	OriginalName    string
	UserID          string
}

// ReceivedCount returns how many distinct chunk indices have been recorded.
func (m *ChunkManifest) ReceivedCount() int {
	return len(m.ReceivedChunks)
}

// Complete reports whether every chunk up to TotalChunks has been received.
func (m *ChunkManifest) Complete() bool {
	return m.ReceivedCount() >= m.TotalChunks
}
