package candidates

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ignite/candidate-ingest/internal/ingest"
)

// PostgresDatastore implements Datastore against PostgreSQL via lib/pq,
// using a single multi-row INSERT per batch.
type PostgresDatastore struct{ db *sql.DB }

// NewPostgresDatastore creates a Postgres-backed candidate datastore.
func NewPostgresDatastore(db *sql.DB) *PostgresDatastore {
	return &PostgresDatastore{db: db}
}

const candidateCols = 20

func (d *PostgresDatastore) InsertMany(ctx context.Context, batch []ingest.CandidateRecord) error {
	if len(batch) == 0 {
		return nil
	}

	var b strings.Builder
	b.WriteString(`INSERT INTO candidates
		(id, full_name, email, phone, company, industry, job_title, skills,
		 experience, country, locality, location, linkedin_url, github_url,
		 birth_year, summary, source_file, upload_job_id, is_deleted, created_at)
	VALUES `)

	args := make([]interface{}, 0, len(batch)*candidateCols)
	for i, rec := range batch {
		if i > 0 {
			b.WriteByte(',')
		}
		base := i * candidateCols
		fmt.Fprintf(&b, "($%d,$%d,$%d,$%d,$%d,$%d,$%d,$%d,$%d,$%d,$%d,$%d,$%d,$%d,$%d,$%d,$%d,$%d,$%d,$%d)",
			base+1, base+2, base+3, base+4, base+5, base+6, base+7, base+8, base+9,
			base+10, base+11, base+12, base+13, base+14, base+15, base+16, base+17,
			base+18, base+19, base+20)

		createdAt := rec.CreatedAt
		if createdAt.IsZero() {
			createdAt = time.Now()
		}
		args = append(args,
			uuid.New(), rec.FullName, rec.Email, rec.Phone, rec.Company, rec.Industry,
			rec.JobTitle, rec.Skills, rec.Experience, rec.Country, rec.Locality,
			rec.Location, rec.LinkedinURL, rec.GithubURL, rec.BirthYear, rec.Summary,
			rec.SourceFile, rec.UploadJobID, rec.IsDeleted, createdAt,
		)
	}

	// Ids are generated per call, so a batch redelivered after a crash gets
	// new ids and is inserted again as duplicates (spec §7 "duplicates in
	// range ... are accepted"). ON CONFLICT DO NOTHING only keeps an id
	// collision from erroring the whole batch.
	b.WriteString(` ON CONFLICT (id) DO NOTHING`)

	query := b.String()
	for attempt := 0; attempt < 3; attempt++ {
		_, err := d.db.ExecContext(ctx, query, args...)
		if err == nil {
			return nil
		}
		if strings.Contains(err.Error(), "deadlock") && attempt < 2 {
			time.Sleep(time.Duration(100*(attempt+1)) * time.Millisecond)
			continue
		}
		log.Printf("[candidates] batch insert error (%d records): %v", len(batch), err)
		return fmt.Errorf("candidates: insert batch: %w", err)
	}
	return nil
}
