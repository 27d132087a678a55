package candidates

import (
	"context"

	"github.com/ignite/candidate-ingest/internal/ingest"
)

// Datastore is the sink InsertMany writes cleaned candidate records into.
type Datastore interface {
	// InsertMany attempts to write every record in batch. It must not fail
	// the call because of a per-record conflict; the caller (IO) counts the
	// whole batch as inserted on a nil error, per spec §6.
	InsertMany(ctx context.Context, batch []ingest.CandidateRecord) error
}
