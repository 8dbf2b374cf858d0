package web

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/JonMunkholm/shipbatch/internal/core"
	"github.com/go-chi/chi/v5"
)

// handleListTemplates returns all mapping templates sorted by name.
func (s *Server) handleListTemplates(w http.ResponseWriter, r *http.Request) {
	templates, err := s.service.ListTemplates(r.Context())
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, templates)
}

// handleMatchTemplates finds templates matching the provided CSV headers.
func (s *Server) handleMatchTemplates(w http.ResponseWriter, r *http.Request) {
	headersStr := r.URL.Query().Get("headers")
	if headersStr == "" {
		s.respondError(w, r, fmt.Errorf("%w: missing headers parameter", errBadRequest))
		return
	}

	headers := strings.Split(headersStr, ",")
	for i := range headers {
		headers[i] = strings.TrimSpace(headers[i])
	}

	matches, err := s.service.MatchTemplates(r.Context(), headers)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, matches)
}

// handleGetTemplate returns a single mapping template by ID.
func (s *Server) handleGetTemplate(w http.ResponseWriter, r *http.Request) {
	tmpl, err := s.service.GetTemplate(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tmpl)
}

// createTemplateRequest names a template and where its mapping comes from:
// an open import session, or an explicit column list.
type createTemplateRequest struct {
	Name      string             `json:"name"`
	SessionID string             `json:"sessionId,omitempty"`
	Mapping   *core.FieldMapping `json:"mapping,omitempty"`
}

// handleCreateTemplate saves a mapping template.
func (s *Server) handleCreateTemplate(w http.ResponseWriter, r *http.Request) {
	var req createTemplateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}

	if strings.TrimSpace(req.Name) == "" {
		s.respondError(w, r, fmt.Errorf("%w: name is required", errBadRequest))
		return
	}

	var mapping core.FieldMapping
	switch {
	case req.SessionID != "":
		preview, err := s.service.GetImport(req.SessionID)
		if err != nil {
			s.respondError(w, r, err)
			return
		}
		mapping = preview.Mapping
	case req.Mapping != nil:
		mapping = *req.Mapping
	default:
		s.respondError(w, r, fmt.Errorf("%w: sessionId or mapping is required", errBadRequest))
		return
	}

	tmpl, err := s.service.SaveTemplate(r.Context(), req.Name, mapping)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, tmpl)
}

// handleDeleteTemplate deletes a mapping template.
func (s *Server) handleDeleteTemplate(w http.ResponseWriter, r *http.Request) {
	if err := s.service.DeleteTemplate(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
