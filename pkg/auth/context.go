package auth

import "context"

type bearerKey struct{}

// WithBearer stores the caller's raw access token so it can be forwarded upstream.
func WithBearer(ctx context.Context, token string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, bearerKey{}, token)
}

// BearerFromContext returns the token stored by WithBearer.
func BearerFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(bearerKey{}).(string); ok {
		return v
	}
	return ""
}
