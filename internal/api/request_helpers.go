package api

import (
	"log/slog"
	"net/http"

	"github.com/phrazzld/newsmaker-api/internal/api/shared"
)

// decodeAndValidate reads the JSON body into v and runs its validate tags.
// On failure it writes the error response and returns false.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := shared.DecodeJSON(r, v); err != nil {
		if MapErrorToStatusCode(err) == http.StatusBadRequest {
			HandleAPIError(w, r, err)
			return false
		}
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, "Invalid request format", err)
		return false
	}
	if err := shared.ValidateRequest(v); err != nil {
		HandleAPIError(w, r, err)
		return false
	}
	return true
}

// tenantFromRequest returns the tenant set by middleware.RequireTenant and a
// request logger carrying it.
func tenantFromRequest(r *http.Request, base *slog.Logger) (string, *slog.Logger) {
	tenantID := shared.GetTenantID(r.Context())
	log := base.With(
		"tenant_id", tenantID,
		"trace_id", shared.GetTraceID(r.Context()))
	return tenantID, log
}
