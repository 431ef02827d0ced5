package sessiongate

import "context"

type clientIPContextKey struct{}
type overrideTokenContextKey struct{}

// WithClientIP attaches the caller's IP address to ctx. The Engine records
// it on audit events.
func WithClientIP(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, clientIPContextKey{}, ip)
}

// WithOverrideToken attaches a one-time override token to ctx. The Engine
// redeems it on the retry of a SemiBlock-rejected login attempt.
func WithOverrideToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, overrideTokenContextKey{}, token)
}

func clientIPFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}

	ip, _ := ctx.Value(clientIPContextKey{}).(string)
	return ip
}

func overrideTokenFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}

	token, _ := ctx.Value(overrideTokenContextKey{}).(string)
	return token
}
