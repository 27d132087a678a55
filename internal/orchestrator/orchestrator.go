package orchestrator

import (
	"context"
	"fmt"
	"io"
	"log"
	"strings"
	"time"

	"github.com/ignite/candidate-ingest/internal/candidates"
	"github.com/ignite/candidate-ingest/internal/ingest"
	"github.com/ignite/candidate-ingest/internal/jobstore"
	"github.com/ignite/candidate-ingest/internal/storage"
)

// BatchSize is the number of cleaned records buffered before a batch insert
// (spec §4.6 step 5d).
const BatchSize = 2000

// ProgressInterval bounds how long the orchestrator may go without
// persisting counters, independent of batch boundaries (spec §4.6).
const ProgressInterval = 2 * time.Second

// RunInput is the IO entry-point contract (spec §4.6).
type RunInput struct {
	JobID           string
	ResumeFrom      int64
	InitialInserted int64
	InitialRejected int64
}

// Orchestrator wires OSA -> RP -> CV -> batch -> Datastore for one job at a
// time; it owns no concurrency of its own (spec §5: "single cooperative
// stream pipeline").
type Orchestrator struct {
	jobs    *jobstore.Service
	store   storage.Adapter
	data    candidates.Datastore
	cleanup ingest.CleanOptions
}

// New builds an orchestrator. cleanOpts.StrictMode disables the heuristic
// salvage swaps (spec §9).
func New(jobs *jobstore.Service, store storage.Adapter, data candidates.Datastore, cleanOpts ingest.CleanOptions) *Orchestrator {
	return &Orchestrator{jobs: jobs, store: store, data: data, cleanup: cleanOpts}
}

// Run processes one job to completion, failure, or a cooperative pause. A
// nil return means the job reached a terminal or paused state and was
// recorded as such — not that every row succeeded. A non-nil return means
// the caller (queue.Worker) should retry/dead-letter this delivery.
func (o *Orchestrator) Run(ctx context.Context, in RunInput) error {
	job, err := o.jobs.Get(ctx, in.JobID)
	if err != nil {
		return fmt.Errorf("orchestrator: load job %s: %w", in.JobID, err)
	}
	if job.State.Terminal() {
		return fmt.Errorf("orchestrator: job %s is already %s", in.JobID, job.State)
	}
	if len(job.StoredHeaders) == 0 {
		return fmt.Errorf("orchestrator: job %s has no stored_headers", in.JobID)
	}

	exists, err := o.store.Exists(ctx, job.StorageKey)
	if err != nil {
		return fmt.Errorf("orchestrator: check source exists for %s: %w", in.JobID, err)
	}
	if !exists {
		return o.jobs.Fail(ctx, in.JobID, "Source file not found")
	}

	if _, err := o.jobs.Claim(ctx, in.JobID); err != nil {
		return fmt.Errorf("orchestrator: claim job %s: %w", in.JobID, err)
	}

	body, err := o.store.GetRange(ctx, job.StorageKey, 0, nil)
	if err != nil {
		return fmt.Errorf("orchestrator: open source for %s: %w", in.JobID, err)
	}
	defer body.Close()

	skip := job.HeaderRowIndex + 1 + int(in.ResumeFrom)
	parser := ingest.NewRowParser(body, job.Delimiter, skip, job.StoredHeaders)
	fieldIndex := buildFieldIndex(job.StoredHeaders)

	return o.stream(ctx, job, parser, fieldIndex, in)
}

type counters struct {
	seen, inserted, rejected int64
}

func (o *Orchestrator) stream(ctx context.Context, job *ingest.UploadJob, parser *ingest.RowParser, fieldIndex map[string]int, in RunInput) error {
	c := counters{seen: in.ResumeFrom, inserted: in.InitialInserted, rejected: in.InitialRejected}
	lastPersist := time.Now()
	batch := make([]ingest.CandidateRecord, 0, BatchSize)

	flush := func() {
		if len(batch) == 0 {
			return
		}
		if err := o.data.InsertMany(ctx, batch); err != nil {
			log.Printf("[orchestrator] job %s: batch insert failed, counting %d as rejected: %v", job.ID, len(batch), err)
			c.rejected += int64(len(batch))
		} else {
			c.inserted += int64(len(batch))
		}
		batch = batch[:0]
	}

	persist := func(force bool) error {
		if !force && time.Since(lastPersist) < ProgressInterval {
			return nil
		}
		lastPersist = time.Now()
		return o.jobs.PersistProgress(ctx, job.ID, c.seen, c.inserted, c.rejected)
	}

	for {
		record, err := parser.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			if persistErr := o.jobs.PersistProgress(ctx, job.ID, c.seen, c.inserted, c.rejected); persistErr != nil {
				log.Printf("[orchestrator] job %s: persist progress on parse failure: %v", job.ID, persistErr)
			}
			return o.jobs.Fail(ctx, job.ID, fmt.Sprintf("parser error: %v", err))
		}

		c.seen++

		if len(record) != len(job.StoredHeaders) {
			c.rejected++
		} else {
			rec := recordFromRow(record, fieldIndex, job.Mapping, job.StorageKey, job.ID)
			if ingest.Clean(&rec, o.cleanup) {
				batch = append(batch, rec)
			} else {
				c.rejected++
			}
		}

		if len(batch) >= BatchSize {
			flush()
			if err := persist(true); err != nil {
				log.Printf("[orchestrator] job %s: persist progress after batch: %v", job.ID, err)
			}

			paused, err := o.checkPause(ctx, job.ID, c.seen)
			if err != nil {
				log.Printf("[orchestrator] job %s: pause check: %v", job.ID, err)
			}
			if paused {
				return nil
			}
		} else if err := persist(false); err != nil {
			log.Printf("[orchestrator] job %s: periodic progress persist: %v", job.ID, err)
		}
	}

	flush()
	return o.jobs.Complete(ctx, job.ID, c.seen, c.inserted, c.rejected)
}

// checkPause re-reads pause_requested between batches (spec §4.6 step 5d,
// §5 "cooperative cancellation"). If set, it acknowledges the pause and the
// caller must stop streaming.
func (o *Orchestrator) checkPause(ctx context.Context, jobID string, seen int64) (bool, error) {
	job, err := o.jobs.Get(ctx, jobID)
	if err != nil {
		return false, err
	}
	if !job.PauseRequested {
		return false, nil
	}
	return true, o.jobs.AcknowledgePause(ctx, jobID, seen)
}

// buildFieldIndex maps a lowercased header name to its column position for
// case-insensitive mapping resolution (spec §4.6 step 5b).
func buildFieldIndex(headers []string) map[string]int {
	idx := make(map[string]int, len(headers))
	for i, h := range headers {
		idx[strings.ToLower(h)] = i
	}
	return idx
}

// recordFromRow resolves a parsed row into a CandidateRecord via the job's
// mapping (canonical field -> source header -> column index).
func recordFromRow(row []string, fieldIndex map[string]int, mapping map[string]string, sourceFile, jobID string) ingest.CandidateRecord {
	field := func(name string) string {
		header, ok := mapping[name]
		if !ok {
			return ""
		}
		idx, ok := fieldIndex[strings.ToLower(header)]
		if !ok || idx >= len(row) {
			return ""
		}
		return row[idx]
	}

	return ingest.CandidateRecord{
		FullName:    field("fullName"),
		Email:       field("email"),
		Phone:       field("phone"),
		Company:     field("company"),
		Industry:    field("industry"),
		JobTitle:    field("jobTitle"),
		Skills:      field("skills"),
		Experience:  field("experience"),
		Country:     field("country"),
		Locality:    field("locality"),
		Location:    field("location"),
		LinkedinURL: field("linkedinUrl"),
		GithubURL:   field("githubUrl"),
		BirthYear:   field("birthYear"),
		Summary:     field("summary"),
		SourceFile:  sourceFile,
		UploadJobID: jobID,
		CreatedAt:   time.Now(),
	}
}
