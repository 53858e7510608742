package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
)

type tenantContextKey struct{}

// TenantHeader names the header carrying the caller's tenant scope.
// Authentication of the header is handled upstream and out of scope here.
const TenantHeader = "X-Tenant-ID"

// Tenant extracts the tenant id from the request header and rejects requests
// without one. Every job operation is tenant-scoped.
func Tenant(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tenant := strings.TrimSpace(r.Header.Get(TenantHeader))
		if tenant == "" {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadRequest)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": "missing " + TenantHeader + " header"})
			return
		}
		ctx := context.WithValue(r.Context(), tenantContextKey{}, tenant)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// TenantFromContext returns the tenant id set by the Tenant middleware.
func TenantFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(tenantContextKey{}).(string); ok {
		return v
	}
	return ""
}
