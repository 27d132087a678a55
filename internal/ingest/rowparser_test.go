package ingest_test

import (
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignite/candidate-ingest/internal/ingest"
)

func TestRowParserArityIsCallerEnforced(t *testing.T) {
	p := ingest.NewRowParser(strings.NewReader("a,b,c\nd,e\n"), ',', 0, nil)

	first, err := p.Next()
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, first)

	second, err := p.Next()
	require.NoError(t, err)
	assert.Equal(t, []string{"d", "e"}, second)

	_, err = p.Next()
	assert.ErrorIs(t, err, io.EOF)
}

func TestRowParserQuoteRoundTrip(t *testing.T) {
	p := ingest.NewRowParser(strings.NewReader(`"a,""b"",c"`+"\n"), ',', 0, nil)

	record, err := p.Next()
	require.NoError(t, err)
	require.Len(t, record, 1)
	assert.Equal(t, `a,"b",c`, record[0])
}

func TestRowParserBOMIsIdempotent(t *testing.T) {
	withBOM := "\xEF\xBB\xBFname,email\nAda,ada@x.io\n"
	withoutBOM := "name,email\nAda,ada@x.io\n"

	p1 := ingest.NewRowParser(strings.NewReader(withBOM), ',', 0, nil)
	r1, err := p1.Next()
	require.NoError(t, err)

	p2 := ingest.NewRowParser(strings.NewReader(withoutBOM), ',', 0, nil)
	r2, err := p2.Next()
	require.NoError(t, err)

	assert.Equal(t, r2, r1)
	assert.Equal(t, []string{"name", "email"}, r1)
}

func TestRowParserSkipsLeadingLines(t *testing.T) {
	p := ingest.NewRowParser(strings.NewReader("junk\nname,email\nAda,ada@x.io\n"), ',', 1, nil)

	record, err := p.Next()
	require.NoError(t, err)
	assert.Equal(t, []string{"name", "email"}, record)
}

func TestRowParserEmptyInputIsEOF(t *testing.T) {
	p := ingest.NewRowParser(strings.NewReader(""), ',', 0, nil)
	_, err := p.Next()
	assert.ErrorIs(t, err, io.EOF)
}

func TestRowParserCRLFLineEndings(t *testing.T) {
	p := ingest.NewRowParser(strings.NewReader("a,b\r\nc,d\r\n"), ',', 0, nil)

	first, err := p.Next()
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, first)

	second, err := p.Next()
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "d"}, second)
}
