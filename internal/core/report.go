package core

// Severity classifies an import by its share of invalid rows.
type Severity string

const (
	SeverityNone     Severity = "none"
	SeverityLow      Severity = "low"
	SeverityModerate Severity = "moderate"
	SeverityHigh     Severity = "high"
)

// Severity thresholds on the invalid-row ratio (inclusive upper bounds).
const (
	lowSeverityRatio      = 0.10
	moderateSeverityRatio = 0.30
)

// DefaultMaxErrorSamples caps the error samples kept in a report.
const DefaultMaxErrorSamples = 20

// ClassifySeverity maps invalid and total-checked row counts to a severity.
func ClassifySeverity(invalid, checked int) Severity {
	if invalid == 0 || checked == 0 {
		return SeverityNone
	}
	ratio := float64(invalid) / float64(checked)
	switch {
	case ratio <= lowSeverityRatio:
		return SeverityLow
	case ratio <= moderateSeverityRatio:
		return SeverityModerate
	default:
		return SeverityHigh
	}
}

// ErrorSample is one invalid row shown in the report.
type ErrorSample struct {
	LineNumber int          `json:"lineNumber"`
	Critical   bool         `json:"critical,omitempty"`
	Errors     []FieldError `json:"errors"`
}

// ImportReport aggregates the verdicts of one import run.
type ImportReport struct {
	TotalRows     int           `json:"totalRows"`
	ValidRows     int           `json:"validRows"`
	InvalidRows   int           `json:"invalidRows"`
	SkippedRows   int           `json:"skippedRows"`
	CriticalRows  int           `json:"criticalRows"`
	DuplicateRows int           `json:"duplicateRows"`
	LargePackages int           `json:"largePackages"`
	Warnings      []string      `json:"warnings"`
	Severity      Severity      `json:"severity"`
	ErrorSamples  []ErrorSample `json:"errorSamples"`
}

// ReportBuilder accumulates verdicts into an ImportReport.
type ReportBuilder struct {
	report     ImportReport
	seen       map[string]bool
	maxSamples int
}

// NewReportBuilder starts a report. maxSamples <= 0 uses the default.
func NewReportBuilder(maxSamples int) *ReportBuilder {
	if maxSamples <= 0 {
		maxSamples = DefaultMaxErrorSamples
	}
	return &ReportBuilder{
		report: ImportReport{
			Warnings:     []string{},
			ErrorSamples: []ErrorSample{},
		},
		seen:       make(map[string]bool),
		maxSamples: maxSamples,
	}
}

// Skipped counts n blank rows.
func (b *ReportBuilder) Skipped(n int) {
	b.report.SkippedRows += n
	b.report.TotalRows += n
}

// Add records the verdict for the row starting at line.
func (b *ReportBuilder) Add(line int, v Verdict) {
	b.report.TotalRows++
	if v.IsValid {
		b.report.ValidRows++
	} else {
		b.report.InvalidRows++
		if len(b.report.ErrorSamples) < b.maxSamples {
			b.report.ErrorSamples = append(b.report.ErrorSamples, ErrorSample{
				LineNumber: line,
				Critical:   v.Critical,
				Errors:     v.FieldErrors,
			})
		}
	}
	if v.Critical {
		b.report.CriticalRows++
	}
	if v.Duplicate {
		b.report.DuplicateRows++
	}
	if v.LargePackage {
		b.report.LargePackages++
	}
	for _, w := range v.Warnings {
		if !b.seen[w] {
			b.seen[w] = true
			b.report.Warnings = append(b.report.Warnings, w)
		}
	}
}

// Report returns the finished report.
func (b *ReportBuilder) Report() ImportReport {
	r := b.report
	r.Severity = ClassifySeverity(r.InvalidRows, r.ValidRows+r.InvalidRows)
	return r
}
