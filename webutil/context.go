package webutil

import "context"

type contextKey string

const (
	userIDKey      contextKey = "user_id"
	accessTokenKey contextKey = "access_token"
)

// WithAuth returns a copy of ctx carrying the authenticated user's ID and the
// access token they presented.
func WithAuth(ctx context.Context, userID, accessToken string) context.Context {
	ctx = context.WithValue(ctx, userIDKey, userID)
	return context.WithValue(ctx, accessTokenKey, accessToken)
}

// UserIDFromContext returns the authenticated user's ID, if any.
func UserIDFromContext(ctx context.Context) (string, bool) {
	userID, ok := ctx.Value(userIDKey).(string)
	return userID, ok && userID != ""
}

// AccessTokenFromContext returns the access token of the current request, if any.
func AccessTokenFromContext(ctx context.Context) (string, bool) {
	token, ok := ctx.Value(accessTokenKey).(string)
	return token, ok && token != ""
}
