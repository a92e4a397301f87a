package apps

import "context"

type contextKey struct{}

// WithParams stores route parameters in the request context before the
// application handler runs.
func WithParams(ctx context.Context, params map[string]string) context.Context {
	return context.WithValue(ctx, contextKey{}, params)
}

// Params returns the route parameters extracted from the matched pattern.
func Params(ctx context.Context) map[string]string {
	params, _ := ctx.Value(contextKey{}).(map[string]string)
	return params
}
