package core

// preview.go runs an import in two steps.
//
// AnalyzeImport reads, tokenizes, maps and validates a file without storing
// anything, and parks the result in an import session. CommitImport stores
// the session's records; CancelImport drops them. The import gate is held
// from analysis until the session ends, so at most one preview is open.

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
)

// RowPreview is one analyzed row.
type RowPreview struct {
	LineNumber int            `json:"lineNumber"`
	Record     ShipmentRecord `json:"record"`
	Verdict    Verdict        `json:"verdict"`
}

// ImportPreview is what the user reviews before committing an import.
type ImportPreview struct {
	SessionID        string          `json:"sessionId"`
	FileName         string          `json:"fileName"`
	Delimiter        string          `json:"delimiter"`
	Headers          []string        `json:"headers"`
	Mapping          FieldMapping    `json:"mapping"`
	Unmapped         []string        `json:"unmapped"`
	Templates        []TemplateMatch `json:"templates"`
	Rows             []RowPreview    `json:"rows"`
	Report           ImportReport    `json:"report"`
	ExpiresAt        time.Time       `json:"expiresAt"`
	ProcessingTimeMs int64           `json:"processingTimeMs"`
}

// CommitResult summarizes a committed import.
type CommitResult struct {
	ImportID       string  `json:"importId"`
	Imported       int     `json:"imported"`
	SkippedInvalid int     `json:"skippedInvalid"`
	RecordIDs      []int64 `json:"recordIds"`
}

type importSession struct {
	id        string
	fileName  string
	delimiter string
	headers   []string
	tok       *Tokenized
	mapping   FieldMapping
	templates []TemplateMatch
	rows      []RowPreview
	report    ImportReport
	created   time.Time
	expires   time.Time
	elapsed   time.Duration
}

func (sess *importSession) preview(maxRows int) *ImportPreview {
	rows := sess.rows
	if len(rows) > maxRows {
		rows = rows[:maxRows]
	}
	unmapped := make([]string, 0)
	for _, c := range sess.mapping.Unmapped() {
		unmapped = append(unmapped, c.Header)
	}
	return &ImportPreview{
		SessionID:        sess.id,
		FileName:         sess.fileName,
		Delimiter:        sess.delimiter,
		Headers:          sess.headers,
		Mapping:          sess.mapping,
		Unmapped:         unmapped,
		Templates:        sess.templates,
		Rows:             rows,
		Report:           sess.report,
		ExpiresAt:        sess.expires,
		ProcessingTimeMs: sess.elapsed.Milliseconds(),
	}
}

// ImportFile reads r within the configured limits and analyzes it.
func (s *Service) ImportFile(ctx context.Context, fileName string, r io.Reader, overrides map[int]string) (*ImportPreview, error) {
	data, err := s.ReadInput(ctx, r)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", fileName, err)
	}
	return s.AnalyzeImport(ctx, fileName, data, overrides)
}

// AnalyzeImport validates a batch file and opens an import session for it.
// overrides replaces the automatic mapping for the given column indexes; an
// empty key unmaps a column. Nothing is stored until CommitImport.
//
// Returns ErrImportInProgress when another session stays open for the gate
// wait, and the input errors of DecodeInput and Tokenize.
func (s *Service) AnalyzeImport(ctx context.Context, fileName string, data []byte, overrides map[int]string) (*ImportPreview, error) {
	start := time.Now()
	s.expireSessions()

	if err := s.gate.Acquire(ctx, "analyze "+fileName); err != nil {
		return nil, fmt.Errorf("analyze %s: %w", fileName, err)
	}

	// Once parsing starts the pipeline runs to a report; cancellation only
	// applies to reading and waiting for the gate.
	sess, err := s.analyze(context.WithoutCancel(ctx), fileName, data, overrides)
	if err != nil {
		s.gate.Release()
		return nil, fmt.Errorf("analyze %s: %w", fileName, err)
	}
	sess.elapsed = time.Since(start)

	s.mu.Lock()
	s.sessions[sess.id] = sess
	s.mu.Unlock()
	s.gate.Handoff(sess.id)

	s.logger.Info("import analyzed",
		"session_id", sess.id,
		"file", fileName,
		"delimiter", sess.delimiter,
		"total_rows", sess.report.TotalRows,
		"valid_rows", sess.report.ValidRows,
		"invalid_rows", sess.report.InvalidRows,
		"severity", sess.report.Severity,
		"duration_ms", sess.elapsed.Milliseconds(),
	)
	return sess.preview(s.cfg.PreviewRows), nil
}

func (s *Service) analyze(ctx context.Context, fileName string, data []byte, overrides map[int]string) (*importSession, error) {
	text, err := DecodeInput(data)
	if err != nil {
		return nil, err
	}
	tok, err := Tokenize(text, fileName)
	if err != nil {
		return nil, err
	}

	now := s.now()
	sess := &importSession{
		id:        uuid.NewString(),
		fileName:  fileName,
		delimiter: tok.DelimiterName(),
		headers:   tok.Header,
		tok:       tok,
		created:   now,
		expires:   now.Add(s.cfg.SessionTTL),
	}
	if err := s.evaluate(ctx, sess, overrides); err != nil {
		return nil, err
	}

	templates, err := s.MatchTemplates(ctx, tok.Header)
	if err != nil {
		s.logger.Warn("template matching failed", "file", fileName, "error", err)
	}
	if templates == nil {
		templates = []TemplateMatch{}
	}
	sess.templates = templates
	return sess, nil
}

// evaluate maps and validates the session's rows.
func (s *Service) evaluate(ctx context.Context, sess *importSession, overrides map[int]string) error {
	cat := s.env.Catalog
	mapping, err := MapHeaders(cat, sess.tok.Header).WithOverrides(cat, overrides)
	if err != nil {
		return err
	}

	stored, err := s.ListRecords(ctx)
	if err != nil {
		return err
	}
	dups := BuildDuplicateIndex(stored)

	rb := NewReportBuilder(s.cfg.MaxErrorSamples)
	rb.Skipped(sess.tok.SkippedBlank)

	rows := make([]RowPreview, 0, len(sess.tok.Rows))
	for i, row := range sess.tok.Rows {
		// Negative ids never collide with stored records.
		rec := BuildRecord(cat, mapping, row, -int64(i+1))
		v := s.env.Validate(rec, dups)
		dups.Add(rec)
		rb.Add(row.Line, v)
		rows = append(rows, RowPreview{LineNumber: row.Line, Record: rec, Verdict: v})
	}

	sess.mapping = mapping
	sess.rows = rows
	sess.report = rb.Report()
	return nil
}

// RemapImport re-validates an open session with new column overrides,
// without reading the file again. The session's expiry is renewed.
func (s *Service) RemapImport(ctx context.Context, sessionID string, overrides map[int]string) (*ImportPreview, error) {
	s.expireSessions()

	s.mu.Lock()
	sess, ok := s.sessions[sessionID]
	s.mu.Unlock()
	if !ok {
		return nil, ErrSessionNotFound
	}

	start := time.Now()
	next := *sess
	if err := s.evaluate(context.WithoutCancel(ctx), &next, overrides); err != nil {
		return nil, fmt.Errorf("remap %s: %w", sess.fileName, err)
	}
	next.expires = s.now().Add(s.cfg.SessionTTL)
	next.elapsed = time.Since(start)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sessions[sessionID] != sess {
		// committed, cancelled or remapped concurrently
		return nil, ErrSessionNotFound
	}
	s.sessions[sessionID] = &next

	s.logger.Info("import remapped",
		"session_id", sessionID,
		"overrides", len(overrides),
		"valid_rows", next.report.ValidRows,
		"invalid_rows", next.report.InvalidRows,
	)
	return next.preview(s.cfg.PreviewRows), nil
}

// ApplyTemplate remaps an open session with a saved mapping template.
func (s *Service) ApplyTemplate(ctx context.Context, sessionID, templateID string) (*ImportPreview, error) {
	tmpl, err := s.GetTemplate(ctx, templateID)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	sess, ok := s.sessions[sessionID]
	s.mu.Unlock()
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s.RemapImport(ctx, sessionID, tmpl.Overrides(sess.headers))
}

// GetImport returns the preview of an open session.
func (s *Service) GetImport(sessionID string) (*ImportPreview, error) {
	s.expireSessions()

	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[sessionID]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return sess.preview(s.cfg.PreviewRows), nil
}

// CommitImport stores the records of an open session and closes it. With
// validOnly, rows with a failing verdict are left out. Stored records get
// fresh ids in row order.
//
// A commit is all or nothing: when a store write fails, the records already
// written are deleted again and the error is returned.
func (s *Service) CommitImport(ctx context.Context, sessionID string, validOnly bool) (*CommitResult, error) {
	sess, err := s.takeSession(sessionID)
	if err != nil {
		return nil, err
	}
	defer s.gate.Release()

	result := &CommitResult{ImportID: sess.id, RecordIDs: []int64{}}
	if err := s.storeRows(ctx, sess, validOnly, result); err != nil {
		deleted, _, undoErr := s.deleteRecords(context.WithoutCancel(ctx), result.RecordIDs)
		s.logger.Error("import commit failed",
			"session_id", sess.id,
			"file", sess.fileName,
			"stored", len(result.RecordIDs),
			"undone", deleted,
			"error", err,
		)
		if undoErr != nil {
			return nil, fmt.Errorf("commit %s: %w (undo: %v)", sess.fileName, err, undoErr)
		}
		return nil, fmt.Errorf("commit %s: %w", sess.fileName, err)
	}

	s.recordImport(ctx, sess, result)

	s.logger.Info("import committed",
		"session_id", sess.id,
		"file", sess.fileName,
		"imported", result.Imported,
		"skipped_invalid", result.SkippedInvalid,
	)
	return result, nil
}

// storeRows writes the session's rows, appending each new id to result.
func (s *Service) storeRows(ctx context.Context, sess *importSession, validOnly bool, result *CommitResult) error {
	for _, row := range sess.rows {
		if validOnly && !row.Verdict.IsValid {
			result.SkippedInvalid++
			continue
		}
		id, err := s.store.Incr(ctx, recordSequence)
		if err != nil {
			return fmt.Errorf("assign id: %w", err)
		}
		rec := row.Record.Clone()
		rec.ID = id
		if err := s.putRecord(ctx, rec); err != nil {
			return err
		}
		result.Imported++
		result.RecordIDs = append(result.RecordIDs, id)
	}
	return nil
}

// CancelImport discards an open session.
func (s *Service) CancelImport(sessionID string) error {
	sess, err := s.takeSession(sessionID)
	if err != nil {
		return err
	}
	s.gate.Release()
	s.logger.Info("import cancelled", "session_id", sess.id, "file", sess.fileName)
	return nil
}

// takeSession removes a live session from the table. An expired session is
// dropped, its gate slot freed, and reported as not found.
func (s *Service) takeSession(id string) (*importSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	delete(s.sessions, id)
	if !s.now().Before(sess.expires) {
		s.gate.Release()
		return nil, ErrSessionNotFound
	}
	return sess, nil
}

// expireSessions drops sessions past their expiry and returns how many.
func (s *Service) expireSessions() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	expired := 0
	for id, sess := range s.sessions {
		if now.Before(sess.expires) {
			continue
		}
		delete(s.sessions, id)
		s.gate.Release()
		expired++
		s.logger.Info("import session expired", "session_id", id, "file", sess.fileName)
	}
	return expired
}
