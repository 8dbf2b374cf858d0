package web

// handlers_common.go holds request parsing helpers and response shapes
// shared by the handlers.

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/JonMunkholm/shipbatch/internal/core"
	"github.com/go-chi/chi/v5"
)

// maxJSONBody caps JSON request bodies.
const maxJSONBody = 1 << 20

// parseIntParam parses an integer query parameter with a default value.
func parseIntParam(r *http.Request, name string, defaultVal int) int {
	val := r.URL.Query().Get(name)
	if val == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(val)
	if err != nil || i < 1 {
		return defaultVal
	}
	return i
}

// parseBoolParam parses a boolean query parameter with a default value.
func parseBoolParam(r *http.Request, name string, defaultVal bool) bool {
	val := r.URL.Query().Get(name)
	if val == "" {
		return defaultVal
	}
	b, ok := core.ParseBool(val)
	if !ok {
		return defaultVal
	}
	return b
}

// parseRecordID reads the {id} URL parameter.
func parseRecordID(r *http.Request) (int64, error) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: invalid record id %q", errBadRequest, raw)
	}
	return id, nil
}

// decodeJSON reads a JSON request body into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("%w: invalid request body: %v", errBadRequest, err)
	}
	return nil
}

// parseOverrides decodes a column override object such as {"3":"telephone"}.
func parseOverrides(raw string) (map[int]string, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	var overrides map[int]string
	if err := json.Unmarshal([]byte(raw), &overrides); err != nil {
		return nil, fmt.Errorf("%w: invalid mapping format", errBadRequest)
	}
	return overrides, nil
}

// FieldMeta describes one catalog field for clients building forms.
type FieldMeta struct {
	Key          string         `json:"key"`
	ExternalName string         `json:"externalName"`
	Label        string         `json:"label"`
	Kind         core.FieldKind `json:"kind"`
	Required     string         `json:"required"`
	MaxLength    int            `json:"maxLength,omitempty"`
	Boolean      bool           `json:"boolean,omitempty"`
	Options      []core.Option  `json:"options,omitempty"`
	Min          *float64       `json:"min,omitempty"`
	Max          *float64       `json:"max,omitempty"`
	Default      string         `json:"default,omitempty"`
	Derived      bool           `json:"derived,omitempty"`
}

// buildFieldMeta lists the catalog in output order.
func buildFieldMeta(cat *core.Catalog) []FieldMeta {
	fields := cat.Fields()
	meta := make([]FieldMeta, len(fields))
	for i := range fields {
		f := &fields[i]
		label := f.Label
		if label == "" {
			label = cat.Label(f.Key)
		}
		meta[i] = FieldMeta{
			Key:          f.Key,
			ExternalName: f.ExternalName,
			Label:        label,
			Kind:         f.Kind,
			Required:     f.Required.String(),
			MaxLength:    f.MaxLength,
			Boolean:      f.Boolean,
			Options:      f.Options,
			Min:          f.Min,
			Max:          f.Max,
			Default:      f.Default,
			Derived:      f.Derive != nil,
		}
	}
	return meta
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status string          `json:"status"`
	Store  string          `json:"store"`
	Fields int             `json:"fields"`
	Import core.GateStatus `json:"import"`
}

// handleHealth reports store reachability and whether an import is open.
// Used for monitoring and to check if the service can accept an import.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{
		Status: "ok",
		Store:  "ok",
		Fields: s.service.Catalog().Len(),
		Import: s.service.GateStatus(),
	}
	status := http.StatusOK
	if err := s.service.Ping(r.Context()); err != nil {
		resp.Status = "degraded"
		resp.Store = core.MapError(err).Message
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, resp)
}
