package web

import (
	"net/http"

	"github.com/JonMunkholm/shipbatch/internal/core"
)

// handleListRecords returns every stored record with its current verdict.
func (s *Server) handleListRecords(w http.ResponseWriter, r *http.Request) {
	records, err := s.service.ValidateAll(r.Context())
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	if records == nil {
		records = []core.RecordVerdict{}
	}
	writeJSON(w, http.StatusOK, records)
}

// handleCreateRecord stores a record built from a field object such as
// {"name":"Acme","weight":2.5}.
func (s *Server) handleCreateRecord(w http.ResponseWriter, r *http.Request) {
	var fields map[string]core.Value
	if err := decodeJSON(w, r, &fields); err != nil {
		s.respondError(w, r, err)
		return
	}

	rec, err := s.service.CreateRecord(r.Context(), fields)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.writeRecord(w, r, http.StatusCreated, rec)
}

// handleGetRecord returns one record with its verdict.
func (s *Server) handleGetRecord(w http.ResponseWriter, r *http.Request) {
	id, err := parseRecordID(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	rec, err := s.service.GetRecord(r.Context(), id)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.writeRecord(w, r, http.StatusOK, rec)
}

// handleUpdateRecord merges a field object into a record. Empty values
// clear fields.
func (s *Server) handleUpdateRecord(w http.ResponseWriter, r *http.Request) {
	id, err := parseRecordID(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	var fields map[string]core.Value
	if err := decodeJSON(w, r, &fields); err != nil {
		s.respondError(w, r, err)
		return
	}

	rec, err := s.service.UpdateRecord(r.Context(), id, fields)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.writeRecord(w, r, http.StatusOK, rec)
}

// handleDeleteRecord removes one record.
func (s *Server) handleDeleteRecord(w http.ResponseWriter, r *http.Request) {
	id, err := parseRecordID(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	if err := s.service.DeleteRecord(r.Context(), id); err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// handleClearRecords removes every stored record.
func (s *Server) handleClearRecords(w http.ResponseWriter, r *http.Request) {
	n, err := s.service.ClearRecords(r.Context())
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"deleted": n})
}

// handleRecordVerdict recomputes the verdict of one record.
func (s *Server) handleRecordVerdict(w http.ResponseWriter, r *http.Request) {
	id, err := parseRecordID(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	verdict, err := s.service.ValidateStored(r.Context(), id)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, verdict)
}

// writeRecord writes rec together with its verdict against the store.
func (s *Server) writeRecord(w http.ResponseWriter, r *http.Request, status int, rec core.ShipmentRecord) {
	verdict, err := s.service.ValidateStored(r.Context(), rec.ID)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, status, core.RecordVerdict{Record: rec, Verdict: verdict})
}
