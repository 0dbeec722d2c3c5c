// Package requestcontext carries per-request values (correlation ID, client
// metadata, authenticated operator) through context without leaking context
// keys across packages.
package requestcontext

import "context"

type (
	keyRequestID           struct{}
	keyClientIP            struct{}
	keyUserAgent           struct{}
	keyOperator            struct{}
	keyTerminalFingerprint struct{}
)

// Role describes what the authenticated operator is allowed to do.
type Role string

const (
	RoleOperator Role = "operator"
	RoleAdmin    Role = "admin"
)

// Operator is the authenticated caller extracted from the bearer token.
type Operator struct {
	ID   string
	Role Role
}

// IsAdmin reports whether the operator carries the admin role.
func (o Operator) IsAdmin() bool {
	return o.Role == RoleAdmin
}

// WithRequestID stores the request correlation ID.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, keyRequestID{}, requestID)
}

// RequestID returns the request correlation ID, or "" when absent.
func RequestID(ctx context.Context) string {
	if v, ok := ctx.Value(keyRequestID{}).(string); ok {
		return v
	}
	return ""
}

// WithClientMetadata stores the client IP and User-Agent.
func WithClientMetadata(ctx context.Context, ip, userAgent string) context.Context {
	ctx = context.WithValue(ctx, keyClientIP{}, ip)
	return context.WithValue(ctx, keyUserAgent{}, userAgent)
}

// ClientIP returns the client IP captured by the metadata middleware.
func ClientIP(ctx context.Context) string {
	if v, ok := ctx.Value(keyClientIP{}).(string); ok {
		return v
	}
	return ""
}

// UserAgent returns the raw User-Agent header captured by the metadata middleware.
func UserAgent(ctx context.Context) string {
	if v, ok := ctx.Value(keyUserAgent{}).(string); ok {
		return v
	}
	return ""
}

// WithOperator stores the authenticated operator.
func WithOperator(ctx context.Context, op Operator) context.Context {
	return context.WithValue(ctx, keyOperator{}, op)
}

// OperatorFrom returns the authenticated operator. The zero Operator means
// the request was not authenticated.
func OperatorFrom(ctx context.Context) Operator {
	if v, ok := ctx.Value(keyOperator{}).(Operator); ok {
		return v
	}
	return Operator{}
}

// WithTerminalFingerprint stores the scan-terminal fingerprint computed from
// the User-Agent.
func WithTerminalFingerprint(ctx context.Context, fp string) context.Context {
	return context.WithValue(ctx, keyTerminalFingerprint{}, fp)
}

// TerminalFingerprint returns the scan-terminal fingerprint, or "" when absent.
func TerminalFingerprint(ctx context.Context) string {
	if v, ok := ctx.Value(keyTerminalFingerprint{}).(string); ok {
		return v
	}
	return ""
}
