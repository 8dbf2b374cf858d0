package web

import (
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/JonMunkholm/shipbatch/internal/logging"
	"github.com/go-chi/chi/v5"
)

// multipartOverhead is the form envelope allowed on top of the file limit.
const multipartOverhead = 1 << 20

// handleAnalyzeImport reads a batch file and opens an import session.
//
// The file is sent either as multipart form field "file", with optional
// "mapping" overrides as JSON, or as the raw request body with the file
// name in the "name" query parameter.
func (s *Server) handleAnalyzeImport(w http.ResponseWriter, r *http.Request) {
	maxSize := s.service.MaxFileSize()
	r.Body = http.MaxBytesReader(w, r.Body, maxSize+multipartOverhead)

	var (
		fileName  string
		body      io.Reader
		overrides map[int]string
		err       error
	)

	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		if err := r.ParseMultipartForm(maxSize); err != nil {
			s.respondError(w, r, fmt.Errorf("%w: file too large or invalid form", errBadRequest))
			return
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			s.respondError(w, r, fmt.Errorf("%w: no file provided", errBadRequest))
			return
		}
		defer file.Close()
		fileName, body = header.Filename, file
		overrides, err = parseOverrides(r.FormValue("mapping"))
		if err != nil {
			s.respondError(w, r, err)
			return
		}
	} else {
		fileName = r.URL.Query().Get("name")
		if fileName == "" {
			fileName = "upload.csv"
		}
		body = r.Body
		overrides, err = parseOverrides(r.URL.Query().Get("mapping"))
		if err != nil {
			s.respondError(w, r, err)
			return
		}
	}

	ctx := WithRequestMetadata(r.Context(), r)
	preview, err := s.service.ImportFile(ctx, fileName, body, overrides)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	logging.WithFields(ctx, "session_id", preview.SessionID).Info("import preview ready",
		"file", fileName,
		"rows", preview.Report.TotalRows,
		"severity", preview.Report.Severity,
	)
	writeJSON(w, http.StatusCreated, preview)
}

// handleGetImport returns the preview of an open session.
func (s *Server) handleGetImport(w http.ResponseWriter, r *http.Request) {
	preview, err := s.service.GetImport(chi.URLParam(r, "sessionID"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, preview)
}

// handleRemapImport re-validates a session with new column overrides.
func (s *Server) handleRemapImport(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Overrides map[int]string `json:"overrides"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}

	preview, err := s.service.RemapImport(r.Context(), chi.URLParam(r, "sessionID"), req.Overrides)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, preview)
}

// handleApplyTemplate remaps a session with a saved template.
func (s *Server) handleApplyTemplate(w http.ResponseWriter, r *http.Request) {
	preview, err := s.service.ApplyTemplate(r.Context(), chi.URLParam(r, "sessionID"), chi.URLParam(r, "templateID"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, preview)
}

// handleCommitImport stores a session's records. Invalid rows are left out
// unless validOnly=false.
func (s *Server) handleCommitImport(w http.ResponseWriter, r *http.Request) {
	ctx := WithRequestMetadata(r.Context(), r)
	result, err := s.service.CommitImport(ctx, chi.URLParam(r, "sessionID"), parseBoolParam(r, "validOnly", true))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// handleCancelImport discards a session.
func (s *Server) handleCancelImport(w http.ResponseWriter, r *http.Request) {
	if err := s.service.CancelImport(chi.URLParam(r, "sessionID")); err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "cancelled"})
}

// handleImportHistory lists committed imports, newest first.
func (s *Server) handleImportHistory(w http.ResponseWriter, r *http.Request) {
	entries, err := s.service.ListImports(r.Context(), parseIntParam(r, "limit", 50))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

// handleRollbackImport deletes the records of a committed import.
func (s *Server) handleRollbackImport(w http.ResponseWriter, r *http.Request) {
	result, err := s.service.RollbackImport(r.Context(), chi.URLParam(r, "importID"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}
