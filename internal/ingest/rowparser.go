package ingest

import (
	"bufio"
	"io"
)

// parserState is the Row Parser's internal tokenizer state.
type parserState int

const (
	stateField parserState = iota
	stateQuoted
	stateQuoteInQuoted
)

// RowParser is a streaming, quote-aware, byte-oriented tokenizer. It does not
// enforce a fixed column arity — callers that need arity enforcement (the
// Ingestion Orchestrator) check len(record) themselves.
//
// encoding/csv was deliberately not used here: it enforces FieldsPerRecord by
// default and doesn't expose the raw FIELD/QUOTED/QUOTE_IN_QUOTED transitions
// or a positional headers/skipLeadingLines knob this parser needs.
type RowParser struct {
	r         *bufio.Reader
	delimiter rune

	skipLeadingLines int
	headers          []string

	skipped bool
	bomChecked bool
}

// NewRowParser creates a parser reading from r with the given field
// delimiter. skipLeadingLines discards that many record boundaries before
// the first emitted record; headers (if non-empty) names fields by position
// but is purely descriptive — it does not change parsing.
func NewRowParser(r io.Reader, delimiter rune, skipLeadingLines int, headers []string) *RowParser {
	return &RowParser{
		r:                bufio.NewReaderSize(r, 64*1024),
		delimiter:        delimiter,
		skipLeadingLines: skipLeadingLines,
		headers:          headers,
	}
}

// Next returns the next record, or io.EOF when the stream is exhausted.
// Fields are trimmed of surrounding ASCII whitespace, surrounding quotes are
// stripped, and "" within a quoted field becomes a single ".
func (p *RowParser) Next() ([]string, error) {
	if !p.skipped {
		p.skipped = true
		for i := 0; i < p.skipLeadingLines; i++ {
			if _, err := p.readRecord(); err != nil {
				return nil, err
			}
		}
	}
	return p.readRecord()
}

func (p *RowParser) readRecord() ([]string, error) {
	if !p.bomChecked {
		p.bomChecked = true
		if err := p.stripBOM(); err != nil {
			return nil, err
		}
	}

	var fields []string
	var field []byte
	state := stateField
	sawAny := false

	for {
		b, err := p.r.ReadByte()
		if err != nil {
			if err == io.EOF {
				if !sawAny && len(field) == 0 && len(fields) == 0 {
					return nil, io.EOF
				}
				fields = append(fields, trimField(field, state))
				return fields, nil
			}
			return nil, err
		}
		sawAny = true

		switch state {
		case stateField:
			switch {
			case b == '"' && len(field) == 0:
				state = stateQuoted
			case rune(b) == p.delimiter:
				fields = append(fields, trimField(field, stateField))
				field = nil
			case b == '\r':
				// lookahead for \n
				next, err := p.r.Peek(1)
				if err == nil && len(next) == 1 && next[0] == '\n' {
					p.r.ReadByte()
				}
				fields = append(fields, trimField(field, stateField))
				return fields, nil
			case b == '\n':
				fields = append(fields, trimField(field, stateField))
				return fields, nil
			default:
				field = append(field, b)
			}
		case stateQuoted:
			switch b {
			case '"':
				state = stateQuoteInQuoted
			default:
				field = append(field, b)
			}
		case stateQuoteInQuoted:
			switch {
			case b == '"':
				field = append(field, '"')
				state = stateQuoted
			case rune(b) == p.delimiter:
				fields = append(fields, trimField(field, stateField))
				field = nil
				state = stateField
			case b == '\r':
				next, err := p.r.Peek(1)
				if err == nil && len(next) == 1 && next[0] == '\n' {
					p.r.ReadByte()
				}
				fields = append(fields, trimField(field, stateField))
				return fields, nil
			case b == '\n':
				fields = append(fields, trimField(field, stateField))
				return fields, nil
			default:
				// Stray character after a closing quote outside a delimiter
				// or line end: treat the field as plain text from here.
				field = append(field, b)
				state = stateField
			}
		}
	}
}

func (p *RowParser) stripBOM() error {
	peek, err := p.r.Peek(3)
	if err != nil {
		// Fewer than 3 bytes total is fine; nothing to strip.
		return nil
	}
	if peek[0] == 0xEF && peek[1] == 0xBB && peek[2] == 0xBF {
		p.r.Discard(3)
	}
	return nil
}

func trimField(field []byte, _ parserState) string {
	start, end := 0, len(field)
	for start < end && isASCIISpace(field[start]) {
		start++
	}
	for end > start && isASCIISpace(field[end-1]) {
		end--
	}
	return string(field[start:end])
}

func isASCIISpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r' || b == '\v' || b == '\f'
}
