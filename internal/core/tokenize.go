package core

// tokenize.go splits raw delimited text into a header row and data rows.
//
// The delimiter is forced by a ".ssv" file name hint, otherwise sampled from
// the first lines. Quoting follows the usual spreadsheet conventions:
//   - a field starting with a double quote runs to the matching close quote,
//     across delimiters and line breaks
//   - "" inside a quoted field is one literal quote
//   - a quote that is never closed swallows the rest of its line only

import (
	"path/filepath"
	"strings"
)

// DelimiterSampleLines is how many leading lines are sampled for detection.
var DelimiterSampleLines = 5

// delimiterCandidates are checked in order; ties go to the earlier one.
var delimiterCandidates = []rune{',', ';', '\t'}

// semicolonExtensions are file extensions that force the semicolon delimiter.
var semicolonExtensions = map[string]bool{".ssv": true}

// Tokenized is the output of Tokenize.
type Tokenized struct {
	Delimiter    rune     `json:"-"`
	Header       []string `json:"header"`
	Rows         []RawRow `json:"rows"`
	SkippedBlank int      `json:"skippedBlank"`
}

// DelimiterName returns a printable name for the detected delimiter.
func (t *Tokenized) DelimiterName() string {
	return DelimiterName(t.Delimiter)
}

// DelimiterName names a delimiter rune ("comma", "semicolon", "tab").
func DelimiterName(r rune) string {
	switch r {
	case ',':
		return "comma"
	case ';':
		return "semicolon"
	case '\t':
		return "tab"
	}
	return string(r)
}

// Tokenize detects the delimiter and splits raw into header and data rows.
// Blank rows after the header are counted in SkippedBlank, not returned.
// Returns ErrEmptyInput when the trimmed text has no lines.
func Tokenize(raw, fileNameHint string) (*Tokenized, error) {
	text := strings.TrimPrefix(raw, "\ufeff")
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyInput
	}

	delim := DetectDelimiter(text, fileNameHint)
	out := &Tokenized{Delimiter: delim}

	headerFound := false
	for _, row := range splitRows(text, delim) {
		if isBlankRow(row.Cells) {
			if headerFound {
				out.SkippedBlank++
			}
			continue
		}
		if !headerFound {
			out.Header = row.Cells
			headerFound = true
			continue
		}
		out.Rows = append(out.Rows, row)
	}

	if !headerFound {
		return nil, ErrEmptyInput
	}
	return out, nil
}

// DetectDelimiter picks the column separator for text.
// A semicolon file extension forces ';'. Otherwise the candidate with the
// highest average per-line count over the sampled lines wins, provided that
// average exceeds 1; the default is ','.
func DetectDelimiter(text, fileNameHint string) rune {
	if semicolonExtensions[strings.ToLower(filepath.Ext(fileNameHint))] {
		return ';'
	}

	lines := sampleLines(text, DelimiterSampleLines)
	if len(lines) == 0 {
		return ','
	}

	best := ','
	bestAvg := 1.0
	for _, cand := range delimiterCandidates {
		total := 0
		for _, line := range lines {
			total += strings.Count(line, string(cand))
		}
		avg := float64(total) / float64(len(lines))
		if avg > bestAvg {
			best = cand
			bestAvg = avg
		}
	}
	return best
}

// sampleLines returns up to n non-blank lines from the start of text.
func sampleLines(text string, n int) []string {
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		lines = append(lines, line)
		if len(lines) == n {
			break
		}
	}
	return lines
}

// splitRows is the quote-aware row splitter.
func splitRows(text string, delim rune) []RawRow {
	var (
		rows      []RawRow
		cells     []string
		cur       strings.Builder
		inQuotes  bool
		unmatched bool // open quote with no closing quote anywhere after it
		pending   bool // current row has consumed input
		line      = 1
		rowLine   = 1
	)

	runes := []rune(text)
	lastQuote := -1
	for i := len(runes) - 1; i >= 0; i-- {
		if runes[i] == '"' {
			lastQuote = i
			break
		}
	}

	endCell := func() {
		cells = append(cells, cur.String())
		cur.Reset()
	}
	endRow := func() {
		endCell()
		rows = append(rows, RawRow{Line: rowLine, Cells: cells})
		cells = nil
		pending = false
		unmatched = false
		inQuotes = false
	}

	for i := 0; i < len(runes); i++ {
		r := runes[i]

		if inQuotes {
			switch {
			case unmatched && (r == '\n' || r == '\r'):
				if r == '\r' && i+1 < len(runes) && runes[i+1] == '\n' {
					i++
				}
				endRow()
				line++
				rowLine = line
			case !unmatched && r == '"':
				if i+1 < len(runes) && runes[i+1] == '"' {
					cur.WriteRune('"')
					i++
				} else {
					inQuotes = false
				}
			default:
				if r == '\n' {
					line++
				}
				cur.WriteRune(r)
			}
			continue
		}

		switch {
		case r == '"' && cur.Len() == 0:
			pending = true
			inQuotes = true
			unmatched = i >= lastQuote
		case r == delim:
			pending = true
			endCell()
		case r == '\r' || r == '\n':
			if r == '\r' && i+1 < len(runes) && runes[i+1] == '\n' {
				i++
			}
			endRow()
			line++
			rowLine = line
		default:
			pending = true
			cur.WriteRune(r)
		}
	}

	if pending || cur.Len() > 0 || len(cells) > 0 {
		endRow()
	}
	return rows
}

// isBlankRow reports whether every cell is empty or whitespace.
func isBlankRow(cells []string) bool {
	for _, v := range cells {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
