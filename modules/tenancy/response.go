package tenancy

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/dmitrymomot/tenantkit/pkg/logger"
	"github.com/dmitrymomot/tenantkit/pkg/provision"
	"github.com/dmitrymomot/tenantkit/pkg/tenant"
	"github.com/dmitrymomot/tenantkit/pkg/tenantcache"
)

type errorResponse struct {
	Error string `json:"error"`
}

type evictionResponse struct {
	Patterns   []string `json:"patterns"`
	Matched    int      `json:"matched"`
	Deleted    int      `json:"deleted"`
	Failed     int      `json:"failed"`
	Incomplete bool     `json:"incomplete"`
	OK         bool     `json:"ok"`
}

func newEvictionResponse(rep tenantcache.EvictionReport) evictionResponse {
	return evictionResponse{
		Patterns:   rep.Patterns,
		Matched:    rep.Matched,
		Deleted:    rep.Deleted,
		Failed:     rep.Failed,
		Incomplete: rep.Incomplete,
		OK:         rep.OK(),
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps domain errors to status codes. Unexpected errors are logged
// and answered with a generic message.
func writeError(w http.ResponseWriter, r *http.Request, log *slog.Logger, err error) {
	status := http.StatusInternalServerError
	msg := "internal error"

	switch {
	case errors.Is(err, ErrInvalidInput), errors.Is(err, provision.ErrInvalidTenant), errors.Is(err, tenant.ErrInvalidIdentifier):
		status, msg = http.StatusBadRequest, err.Error()
	case errors.Is(err, tenant.ErrTenantNotFound):
		status, msg = http.StatusNotFound, err.Error()
	case errors.Is(err, ErrTenantExists):
		status, msg = http.StatusConflict, err.Error()
	case provision.IsProvisionError(err):
		msg = provision.ErrProvisionFailed.Error()
	}

	if status >= http.StatusInternalServerError {
		log.ErrorContext(r.Context(), "request failed", logger.Error(err), "path", r.URL.Path)
	}
	writeJSON(w, status, errorResponse{Error: msg})
}
