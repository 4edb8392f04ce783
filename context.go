package emailauth

import "context"

type clientIPContextKey struct{}

// WithClientIP attaches the caller's IP address to ctx. Login throttling
// counts failures per email and IP when it is present.
func WithClientIP(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, clientIPContextKey{}, ip)
}

func clientIPFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}

	ip, _ := ctx.Value(clientIPContextKey{}).(string)
	return ip
}
