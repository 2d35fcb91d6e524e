package tenant

import (
	"context"
	"strings"
)

type contextKey string

const tenantContextKey contextKey = "tenant.id"

// With stores the tenant identifier inside the context.
func With(ctx context.Context, tenantID string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, tenantContextKey, tenantID)
}

// From extracts the tenant identifier from the context if available.
func From(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}
	tenantID, ok := ctx.Value(tenantContextKey).(string)
	if !ok {
		return "", false
	}
	tenantID = strings.TrimSpace(tenantID)
	if tenantID == "" {
		return "", false
	}
	return tenantID, true
}

// PrefixKey namespaces a cache or queue key by tenant slug.
func PrefixKey(tenantSlug, key string) string {
	if tenantSlug == "" {
		return key
	}
	return tenantSlug + ":" + key
}

// KeyFromContext builds a tenant-prefixed key using the tenant on the context,
// falling back to the bare key when no tenant is resolved.
func KeyFromContext(ctx context.Context, key string) string {
	if tenantID, ok := From(ctx); ok {
		return PrefixKey(tenantID, key)
	}
	return key
}
