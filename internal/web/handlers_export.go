package web

import (
	"net/http"
	"strconv"

	"github.com/JonMunkholm/shipbatch/internal/core"
	"github.com/JonMunkholm/shipbatch/internal/logging"
	"github.com/go-chi/chi/v5"
)

// handleExport streams the stored records as a carrier batch file.
// Invalid records are left out unless validOnly=false.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	format, err := core.FormatByName(chi.URLParam(r, "format"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	export, err := s.service.Export(r.Context(), format, parseBoolParam(r, "validOnly", true))
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	name := export.FileName("shipments-" + s.now().Format("20060102"))
	w.Header().Set("Content-Type", format.MediaType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(len(export.Data)))
	w.Header().Set("X-Record-Count", strconv.Itoa(export.Records))
	w.Header().Set("X-Substitutions", strconv.Itoa(len(export.Substitutions)))
	w.WriteHeader(http.StatusOK)

	if _, err := w.Write(export.Data); err != nil {
		logging.FromContext(r.Context()).Error("export write failed", "error", err, "format", format.Name)
	}
}
