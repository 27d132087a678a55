package ingest_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignite/candidate-ingest/internal/ingest"
)

func TestDetectHeadersPicksTabWhenTabsDominate(t *testing.T) {
	// 12 tabs, 1 comma: tabs >= 1.5*commas selects tab.
	line := strings.Repeat("col\t", 12) + "last,withcomma"
	result, _, err := ingest.DetectHeaders(strings.NewReader(line+"\n"), nil)
	require.NoError(t, err)
	assert.Equal(t, '\t', result.Delimiter)
}

func TestDetectHeadersPicksCommaWhenCommasDominate(t *testing.T) {
	// 0 tabs, 12 commas: falls through to comma.
	line := strings.Repeat("col,", 12) + "last"
	result, _, err := ingest.DetectHeaders(strings.NewReader(line+"\n"), nil)
	require.NoError(t, err)
	assert.Equal(t, ',', result.Delimiter)
}

func TestDetectHeadersMatchesExpectedValueOnLaterLine(t *testing.T) {
	input := "Generated by Acme Exporter\nignore this banner line too\nname,email\nAda,ada@x.io\n"
	result, matched, err := ingest.DetectHeaders(strings.NewReader(input), []string{"email"})
	require.NoError(t, err)
	assert.True(t, matched)
	assert.Equal(t, 2, result.HeaderRowIndex)
	assert.Equal(t, []string{"name", "email"}, result.Headers)
}

func TestDetectHeadersFallsBackToLineZeroWhenNoMatch(t *testing.T) {
	input := "name,email\nAda,ada@x.io\n"
	result, matched, err := ingest.DetectHeaders(strings.NewReader(input), []string{"phone"})
	require.NoError(t, err)
	assert.False(t, matched)
	assert.Equal(t, 0, result.HeaderRowIndex)
}

func TestDetectHeadersFillsBlankColumnNames(t *testing.T) {
	input := "name,,email\nAda,x,ada@x.io\n"
	result, _, err := ingest.DetectHeaders(strings.NewReader(input), nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"name", "Column_2", "email"}, result.Headers)
}
