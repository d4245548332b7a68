package middleware

// contextKey is a private type for request-context keys.
// Using a custom type prevents collisions.
type contextKey string

const (
	// loggerCtxKey stores the request-scoped *slog.Logger.
	loggerCtxKey = contextKey("logger")
	// userIDKey stores the authenticated user's ID.
	userIDKey = contextKey("userID")
)
