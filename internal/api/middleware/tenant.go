package middleware

import (
	"net/http"
	"regexp"
	"strings"

	"github.com/phrazzld/newsmaker-api/internal/api/shared"
)

// TenantHeader names the tenant a request acts for. Identity is established
// upstream of this service.
const TenantHeader = "X-Tenant-ID"

var tenantPattern = regexp.MustCompile(`^[A-Za-z0-9._:-]{1,128}$`)

// RequireTenant rejects requests without a well-formed tenant header and
// stores the tenant in the request context.
func RequireTenant(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tenantID := strings.TrimSpace(r.Header.Get(TenantHeader))
		if tenantID == "" {
			shared.RespondWithError(w, r, http.StatusUnauthorized, TenantHeader+" header required")
			return
		}
		if !tenantPattern.MatchString(tenantID) {
			shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid "+TenantHeader+" header")
			return
		}
		next.ServeHTTP(w, r.WithContext(shared.WithTenantID(r.Context(), tenantID)))
	})
}
