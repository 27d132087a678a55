package ingest_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ignite/candidate-ingest/internal/ingest"
)

func TestCleanAcceptsRecordWithValidEmail(t *testing.T) {
	rec := ingest.CandidateRecord{FullName: "Ada Lovelace", Email: "ada@example.com"}
	accepted := ingest.Clean(&rec, ingest.CleanOptions{StrictMode: true})
	assert.True(t, accepted)
	assert.Equal(t, "ada@example.com", rec.Email)
}

func TestCleanRejectsRecordWithNoContactMethod(t *testing.T) {
	rec := ingest.CandidateRecord{FullName: "Ada Lovelace"}
	accepted := ingest.Clean(&rec, ingest.CleanOptions{StrictMode: true})
	assert.False(t, accepted)
}

func TestCleanDropsInvalidEmail(t *testing.T) {
	rec := ingest.CandidateRecord{Email: "not-an-email", Phone: "+1 (415) 555-0100"}
	accepted := ingest.Clean(&rec, ingest.CleanOptions{StrictMode: true})
	assert.True(t, accepted)
	assert.Equal(t, "", rec.Email)
	assert.Equal(t, "+14155550100", rec.Phone)
}

func TestCleanPrependsLinkedinScheme(t *testing.T) {
	rec := ingest.CandidateRecord{LinkedinURL: "linkedin.com/in/ada"}
	ingest.Clean(&rec, ingest.CleanOptions{StrictMode: true})
	assert.Equal(t, "https://linkedin.com/in/ada", rec.LinkedinURL)
}

func TestCleanCollapsesWhitespace(t *testing.T) {
	rec := ingest.CandidateRecord{Email: "ada@example.com", Company: "  Acme   Corp  "}
	ingest.Clean(&rec, ingest.CleanOptions{StrictMode: true})
	assert.Equal(t, "Acme Corp", rec.Company)
}

func TestCleanStrictModeDisablesSalvageHeuristics(t *testing.T) {
	longJobTitle := strings.Repeat("engineer ", 15)
	rec := ingest.CandidateRecord{Email: "ada@example.com", Skills: longJobTitle}
	ingest.Clean(&rec, ingest.CleanOptions{StrictMode: true})
	assert.NotEmpty(t, rec.Skills)
	assert.Empty(t, rec.JobTitle)
}

func TestCleanSalvagesOverlongSkillsIntoJobTitle(t *testing.T) {
	longSkills := strings.Repeat("engineer ", 15)
	rec := ingest.CandidateRecord{Email: "ada@example.com", Skills: longSkills}
	ingest.Clean(&rec, ingest.CleanOptions{StrictMode: false})
	assert.Empty(t, rec.Skills)
	assert.NotEmpty(t, rec.JobTitle)
}

func TestCleanRejectsTooShortFullName(t *testing.T) {
	rec := ingest.CandidateRecord{FullName: "A", Email: "ada@example.com"}
	ingest.Clean(&rec, ingest.CleanOptions{StrictMode: true})
	assert.Equal(t, "", rec.FullName)
}
