package ingest

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// MaxHeaderSearchLines bounds how many lines the Delimiter & Header Detector
// reads looking for a line matching one of the caller's declared mapping
// values. Capped at 20 per spec; a stricter "standalone field only" match
// was considered and rejected (see SPEC_FULL.md SF-D.3) because it changes
// behavior on existing files without product sign-off.
const MaxHeaderSearchLines = 20

// DetectionResult is what the Delimiter & Header Detector returns.
type DetectionResult struct {
	HeaderRowIndex int
	Delimiter      rune
	Headers        []string
}

// DetectHeaders reads up to MaxHeaderSearchLines lines from r and determines
// the header row index, field delimiter, and decoded header array.
//
// If expectedValues is non-empty, the header row is the lowest-indexed line
// in which any expected value appears as a substring (raw or double-quoted).
// If no line matches, line 0 is used and ok is false (caller should warn).
func DetectHeaders(r io.Reader, expectedValues []string) (DetectionResult, bool, error) {
	lines, err := readLines(r, MaxHeaderSearchLines)
	if err != nil && len(lines) == 0 {
		return DetectionResult{}, false, err
	}
	if len(lines) == 0 {
		return DetectionResult{}, false, fmt.Errorf("ingest: empty input")
	}

	headerIdx := 0
	matched := len(expectedValues) == 0
	if len(expectedValues) > 0 {
		found := false
		for i, line := range lines {
			if lineMatchesAny(line, expectedValues) {
				headerIdx = i
				found = true
				break
			}
		}
		matched = found
	}
	if headerIdx >= len(lines) {
		headerIdx = 0
	}

	delim := detectDelimiter(lines[headerIdx])

	p := NewRowParser(strings.NewReader(lines[headerIdx]), delim, 0, nil)
	headerRow, err := p.Next()
	if err != nil && err != io.EOF {
		return DetectionResult{}, false, err
	}

	headers := make([]string, len(headerRow))
	for i, h := range headerRow {
		h = strings.TrimSpace(h)
		if h == "" {
			h = fmt.Sprintf("Column_%d", i+1)
		}
		headers[i] = h
	}

	return DetectionResult{
		HeaderRowIndex: headerIdx,
		Delimiter:      delim,
		Headers:        headers,
	}, matched, nil
}

// lineMatchesAny reports whether any of values appears as a substring of
// line, matching either a raw or double-quoted occurrence.
func lineMatchesAny(line string, values []string) bool {
	for _, v := range values {
		if v == "" {
			continue
		}
		if strings.Contains(line, v) || strings.Contains(line, `"`+v+`"`) {
			return true
		}
	}
	return false
}

// detectDelimiter counts tabs and commas outside double-quoted regions and
// picks tab when there is at least one tab and tabs >= 1.5 * commas, else
// comma.
func detectDelimiter(line string) rune {
	var tabs, commas int
	inQuotes := false
	for i := 0; i < len(line); i++ {
		switch line[i] {
		case '"':
			inQuotes = !inQuotes
		case '\t':
			if !inQuotes {
				tabs++
			}
		case ',':
			if !inQuotes {
				commas++
			}
		}
	}
	if float64(tabs) >= 1.5*float64(commas) && tabs >= 1 {
		return '\t'
	}
	return ','
}

// readLines reads up to n lines (terminated by \n, with optional \r
// stripped) from r, tolerating a final unterminated line.
func readLines(r io.Reader, n int) ([]string, error) {
	br := bufio.NewReaderSize(r, 64*1024)
	peek, _ := br.Peek(3)
	if len(peek) == 3 && peek[0] == 0xEF && peek[1] == 0xBB && peek[2] == 0xBF {
		br.Discard(3)
	}

	var lines []string
	for len(lines) < n {
		line, err := br.ReadString('\n')
		line = strings.TrimSuffix(line, "\n")
		line = strings.TrimSuffix(line, "\r")
		if line != "" || err == nil {
			lines = append(lines, line)
		}
		if err != nil {
			break
		}
	}
	return lines, nil
}
