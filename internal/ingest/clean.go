package ingest

import (
	"regexp"
	"strings"
)

var (
	phoneAllowed = regexp.MustCompile(`[^0-9+]`)
	phoneValid   = regexp.MustCompile(`^\+?[0-9]{7,15}$`)
	emailValid   = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

	fullNameSalvagePattern = regexp.MustCompile(`(?i)experience|professional|skills`)
	locationTokenPattern   = regexp.MustCompile(`(?i)city|state|country|,`)
	skillsSalvagePattern   = regexp.MustCompile(`(?i)engineer|developer|manager`)

	whitespaceRun = regexp.MustCompile(`\s+`)
)

// CleanOptions controls the Cleaner/Validator's behavior.
type CleanOptions struct {
	// StrictMode disables the heuristic salvage swaps in §4.5 step 5 so the
	// pipeline can run with no speculative field reassignment, e.g. for
	// deterministic tests.
	StrictMode bool
}

// Clean applies per-row normalization to rec in place and reports whether
// the row is accepted. Rejected rows must still be counted by the caller.
func Clean(rec *CandidateRecord, opts CleanOptions) bool {
	rec.Phone = cleanPhone(rec.Phone)
	rec.Email = strings.TrimSpace(rec.Email)
	if rec.Email != "" && !emailValid.MatchString(rec.Email) {
		rec.Email = ""
	}
	rec.LinkedinURL = cleanLinkedinURL(rec.LinkedinURL)

	collapseWhitespace(rec)

	if !opts.StrictMode {
		applySalvageHeuristics(rec)
	}

	rec.FullName = clampString(rec.FullName, 100)
	if len(rec.FullName) < 2 {
		rec.FullName = ""
	}

	return rec.Email != "" || rec.Phone != "" || rec.LinkedinURL != ""
}

func cleanPhone(raw string) string {
	digits := phoneAllowed.ReplaceAllString(raw, "")
	if !phoneValid.MatchString(digits) {
		return ""
	}
	return digits
}

func cleanLinkedinURL(raw string) string {
	v := strings.TrimSpace(raw)
	if v == "" {
		return ""
	}
	if !strings.Contains(v, "://") {
		v = "https://" + v
	}
	return v
}

func collapseWhitespace(rec *CandidateRecord) {
	rec.FullName = collapse(rec.FullName)
	rec.Company = collapse(rec.Company)
	rec.Industry = collapse(rec.Industry)
	rec.JobTitle = collapse(rec.JobTitle)
	rec.Skills = collapse(rec.Skills)
	rec.Experience = collapse(rec.Experience)
	rec.Country = collapse(rec.Country)
	rec.Locality = collapse(rec.Locality)
	rec.Location = collapse(rec.Location)
	rec.GithubURL = collapse(rec.GithubURL)
	rec.BirthYear = collapse(rec.BirthYear)
	rec.Summary = collapse(rec.Summary)
}

func collapse(s string) string {
	return whitespaceRun.ReplaceAllString(strings.TrimSpace(s), " ")
}

// applySalvageHeuristics applies the three order-sensitive field-swap rules.
// Each is conservative and gated by its own precondition; order matters
// because a later rule may read a field a previous rule just emptied.
func applySalvageHeuristics(rec *CandidateRecord) {
	if len(rec.FullName) > 50 && fullNameSalvagePattern.MatchString(rec.FullName) && len(rec.Summary) < len(rec.FullName) {
		rec.FullName, rec.Summary = rec.Summary, rec.FullName
	}
	if locationTokenPattern.MatchString(rec.JobTitle) && rec.Location == "" {
		rec.Location = rec.JobTitle
		rec.JobTitle = ""
	}
	if len(rec.Skills) > 100 && skillsSalvagePattern.MatchString(rec.Skills) && rec.JobTitle == "" {
		rec.JobTitle = rec.Skills
		rec.Skills = ""
	}
}

func clampString(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
