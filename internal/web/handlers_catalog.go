package web

import (
	"fmt"
	"net/http"

	"github.com/JonMunkholm/shipbatch/internal/core"
	"github.com/go-chi/chi/v5"
)

// handleListFields returns the field catalog in carrier output order.
func (s *Server) handleListFields(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, buildFieldMeta(s.service.Catalog()))
}

// handleFieldOptions returns the options of a select field.
func (s *Server) handleFieldOptions(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	if _, ok := s.service.Catalog().Lookup(key); !ok {
		s.respondError(w, r, fmt.Errorf("%w: %s", core.ErrUnknownField, key))
		return
	}
	opts := s.service.Catalog().Options(key)
	if opts == nil {
		opts = []core.Option{}
	}
	writeJSON(w, http.StatusOK, opts)
}

// handleListCountries returns the country profiles sorted by code.
func (s *Server) handleListCountries(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.service.Profiles().Profiles())
}

// handleListFormats returns the export formats.
func (s *Server) handleListFormats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, core.Formats)
}
