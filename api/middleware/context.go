package middleware

import "context"

type contextKey string

const (
	ctxUserID   contextKey = "user_id"
	ctxUsername contextKey = "username"
	ctxRole     contextKey = "actor_role"
)

// Identity is the authenticated caller as carried by the access token.
type Identity struct {
	UserID   uint
	Username string
	Role     string
}

func UserIDFromContext(ctx context.Context) uint {
	if ctx == nil {
		return 0
	}
	if v, ok := ctx.Value(ctxUserID).(uint); ok {
		return v
	}
	return 0
}

func UsernameFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxUsername).(string); ok {
		return v
	}
	return ""
}

func RoleFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxRole).(string); ok {
		return v
	}
	return ""
}

// IdentityFromContext reports the caller identity; ok is false on
// unauthenticated requests.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id := Identity{
		UserID:   UserIDFromContext(ctx),
		Username: UsernameFromContext(ctx),
		Role:     RoleFromContext(ctx),
	}
	return id, id.Username != ""
}

// WithIdentity injects the caller identity into the context.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = context.WithValue(ctx, ctxUserID, id.UserID)
	ctx = context.WithValue(ctx, ctxUsername, id.Username)
	return context.WithValue(ctx, ctxRole, id.Role)
}
