package gateway

import "context"

// Auth supplies the bearer token for a caller and receives its 401s.
type Auth interface {
	Token(ctx context.Context) (string, error)
	HandleUnauthorized(ctx context.Context)
}

type authKey struct{}
type noRedirectKey struct{}
type ownAuthKey struct{}

// WithAuth binds the acting caller to ctx. It takes precedence over the client's own Auth.
func WithAuth(ctx context.Context, auth Auth) context.Context {
	return context.WithValue(ctx, authKey{}, auth)
}

func authFrom(ctx context.Context, fallback Auth) Auth {
	if auth, ok := ctx.Value(authKey{}).(Auth); ok && auth != nil {
		return auth
	}
	return fallback
}

// WithoutRedirect marks ctx so a 401 clears state without navigating to the login page.
func WithoutRedirect(ctx context.Context) context.Context {
	return context.WithValue(ctx, noRedirectKey{}, true)
}

func RedirectSuppressed(ctx context.Context) bool {
	suppressed, _ := ctx.Value(noRedirectKey{}).(bool)
	return suppressed
}

// WithoutUnauthorizedHandler marks ctx so a 401 goes back to the caller without reaching HandleUnauthorized.
func WithoutUnauthorizedHandler(ctx context.Context) context.Context {
	return context.WithValue(ctx, ownAuthKey{}, true)
}

func unauthorizedHandled(ctx context.Context) bool {
	skip, _ := ctx.Value(ownAuthKey{}).(bool)
	return !skip
}
