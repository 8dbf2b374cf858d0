package core

// encode.go renders records in the carrier's three batch formats.
//
// Every encoder is one walk over the catalog in output order. For each field
// the value is resolved as:
//  1. an always-recompute derivation, ignoring stored data
//  2. the record's own value under the canonical key
//  3. the field's legacy aliases, in order
//  4. a fill-missing derivation
//  5. the field default
//  6. ""
//
// Boolean fields render as "1"/"0". Select values outside the option list
// are replaced by the first option; each replacement is logged and returned
// as a Substitution.

import (
	"bytes"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"
)

// FormatKind separates flat delimited output from the tagged document.
type FormatKind int

const (
	Delimited FormatKind = iota
	Tagged
)

// Format describes one export format.
type Format struct {
	Name      string     `json:"name"`
	Kind      FormatKind `json:"-"`
	Separator rune       `json:"-"`
	BOM       bool       `json:"bom"`
	Extension string     `json:"extension"`
	MediaType string     `json:"mediaType"`
}

var (
	FormatCSV = Format{Name: "csv", Kind: Delimited, Separator: ',', Extension: ".csv", MediaType: "text/csv; charset=utf-8"}
	FormatSSV = Format{Name: "ssv", Kind: Delimited, Separator: ';', BOM: true, Extension: ".ssv", MediaType: "text/csv; charset=utf-8"}
	FormatXML = Format{Name: "xml", Kind: Tagged, Extension: ".xml", MediaType: "application/xml; charset=utf-8"}
)

// Formats lists the export formats in menu order.
var Formats = []Format{FormatCSV, FormatSSV, FormatXML}

// FormatByName finds a format by case-insensitive name.
func FormatByName(name string) (Format, error) {
	for _, f := range Formats {
		if strings.EqualFold(f.Name, strings.TrimSpace(name)) {
			return f, nil
		}
	}
	return Format{}, fmt.Errorf("%w: %q", ErrUnknownFormat, name)
}

// TaggedFormatVersion is written on the root element of tagged output.
const TaggedFormatVersion = "1.0"

const utf8BOM = "\ufeff"

// Substitution records an out-of-enum select value replaced at export.
type Substitution struct {
	RecordID int64  `json:"recordId"`
	Key      string `json:"key"`
	From     string `json:"from"`
	To       string `json:"to"`
}

// Export is the encoded output of one export run.
type Export struct {
	Format        Format         `json:"format"`
	Data          []byte         `json:"-"`
	Records       int            `json:"records"`
	Substitutions []Substitution `json:"substitutions"`
}

// FileName returns a download name for the export.
func (e *Export) FileName(base string) string {
	return base + e.Format.Extension
}

// Encoder turns records into carrier batch files.
type Encoder struct {
	env    Env
	now    func() time.Time
	logger *slog.Logger
}

// EncoderOption configures an Encoder.
type EncoderOption func(*Encoder)

// WithClock sets the clock used for the tagged creation timestamp.
func WithClock(now func() time.Time) EncoderOption {
	return func(e *Encoder) { e.now = now }
}

// WithLogger sets the logger that receives substitution warnings.
func WithLogger(l *slog.Logger) EncoderOption {
	return func(e *Encoder) { e.logger = l }
}

// NewEncoder creates an encoder over env.
func NewEncoder(env Env, opts ...EncoderOption) *Encoder {
	e := &Encoder{env: env, now: time.Now, logger: slog.Default()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Encode renders records in format. Records are used in the given order and
// are expected to be pre-filtered by the caller.
// Returns ErrCatalogUnavailable when the catalog is not loaded.
func (e *Encoder) Encode(records []ShipmentRecord, format Format) (*Export, error) {
	if err := e.env.Check(); err != nil {
		return nil, err
	}

	out := &Export{Format: format, Records: len(records), Substitutions: []Substitution{}}
	rows := make([][]string, len(records))
	for i, rec := range records {
		rows[i] = e.resolveRow(rec, &out.Substitutions)
	}

	switch format.Kind {
	case Delimited:
		out.Data = e.encodeDelimited(rows, format)
	case Tagged:
		out.Data = e.encodeTagged(records, rows)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format.Name)
	}

	for _, s := range out.Substitutions {
		e.logger.Warn("export substituted invalid option",
			"format", format.Name,
			"record_id", s.RecordID,
			"field", s.Key,
			"from", s.From,
			"to", s.To,
		)
	}
	return out, nil
}

// resolveRow returns one output cell per catalog field.
func (e *Encoder) resolveRow(rec ShipmentRecord, subs *[]Substitution) []string {
	env := e.env.RuleEnv(rec)
	fields := e.env.Catalog.Fields()
	row := make([]string, len(fields))
	for i := range fields {
		spec := &fields[i]
		cell := ResolveValue(rec, spec, env)
		if len(spec.Options) > 0 {
			if code, ok := spec.HasOption(cell); ok {
				cell = code
			} else if cell != "" || spec.Required.Mode == RequireAlways {
				to := spec.Options[0].Code
				*subs = append(*subs, Substitution{RecordID: rec.ID, Key: spec.Key, From: cell, To: to})
				cell = to
			}
		}
		row[i] = cell
	}
	return row
}

// ResolveValue returns the export text of one field for rec.
func ResolveValue(rec ShipmentRecord, spec *FieldSpec, env RuleEnv) string {
	if spec.Derive != nil && spec.Derive.Authority == AlwaysRecompute {
		if v, ok := spec.Derive.Func(rec, env); ok {
			return renderValue(spec, v)
		}
		return spec.Default
	}

	if v, ok := rec.Get(spec.Key); ok && !v.IsEmpty() {
		return renderValue(spec, v)
	}
	for _, alias := range spec.Aliases {
		if v, ok := rec.Get(alias); ok && !v.IsEmpty() {
			return renderValue(spec, v)
		}
	}
	if spec.Derive != nil {
		if v, ok := spec.Derive.Func(rec, env); ok {
			return renderValue(spec, v)
		}
	}
	return spec.Default
}

// renderValue converts a value to carrier text.
func renderValue(spec *FieldSpec, v Value) string {
	if spec.Boolean {
		if b, ok := v.AsBool(); ok {
			if b {
				return "1"
			}
			return "0"
		}
		return strings.TrimSpace(v.String())
	}
	return strings.TrimSpace(v.String())
}

func (e *Encoder) encodeDelimited(rows [][]string, format Format) []byte {
	var buf bytes.Buffer
	if format.BOM {
		buf.WriteString(utf8BOM)
	}

	fields := e.env.Catalog.Fields()
	header := make([]string, len(fields))
	for i, f := range fields {
		header[i] = f.ExternalName
	}
	writeDelimitedLine(&buf, header, format.Separator)
	for _, row := range rows {
		writeDelimitedLine(&buf, row, format.Separator)
	}
	return buf.Bytes()
}

func writeDelimitedLine(buf *bytes.Buffer, cells []string, sep rune) {
	for i, c := range cells {
		if i > 0 {
			buf.WriteRune(sep)
		}
		buf.WriteString(EscapeDelimited(c, sep))
	}
	buf.WriteString("\r\n")
}

// EscapeDelimited quotes a cell when it contains sep, a quote or a line
// break, doubling embedded quotes.
func EscapeDelimited(cell string, sep rune) string {
	if !strings.ContainsRune(cell, sep) && !strings.ContainsAny(cell, "\"\r\n") {
		return cell
	}
	return `"` + strings.ReplaceAll(cell, `"`, `""`) + `"`
}

func (e *Encoder) encodeTagged(records []ShipmentRecord, rows [][]string) []byte {
	fields := e.env.Catalog.Fields()
	tags := make([]string, len(fields))
	for i, f := range fields {
		tags[i] = TagName(f.ExternalName)
	}

	var buf bytes.Buffer
	buf.WriteString(`<?xml version="1.0" encoding="UTF-8"?>` + "\n")
	fmt.Fprintf(&buf, `<shipments version="%s" created="%s" count="%d">`+"\n",
		TaggedFormatVersion, e.now().UTC().Format(time.RFC3339), len(records))
	for i, rec := range records {
		fmt.Fprintf(&buf, "  <shipment id=\"%d\">\n", rec.ID)
		for j, tag := range tags {
			fmt.Fprintf(&buf, "    <%s>%s</%s>\n", tag, EscapeMarkup(rows[i][j]), tag)
		}
		buf.WriteString("  </shipment>\n")
	}
	buf.WriteString("</shipments>\n")
	return buf.Bytes()
}

var markupReplacer = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&#39;",
)

// EscapeMarkup escapes the five reserved markup characters.
func EscapeMarkup(s string) string {
	return markupReplacer.Replace(s)
}

var (
	tagStripRegex  = regexp.MustCompile(`[^a-z0-9 ]+`)
	tagHyphenRegex = regexp.MustCompile(`[ ]+`)
)

// TagName derives a tag from an external field name: lowercase, characters
// other than letters, digits and spaces removed, spaces turned into single
// hyphens, no leading or trailing hyphen.
func TagName(external string) string {
	s := strings.ToLower(external)
	s = tagStripRegex.ReplaceAllString(s, "")
	s = tagHyphenRegex.ReplaceAllString(strings.TrimSpace(s), "-")
	s = strings.Trim(s, "-")
	if s == "" {
		return "field"
	}
	return s
}
