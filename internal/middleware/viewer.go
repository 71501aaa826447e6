package middleware

import (
	"context"
	"strings"

	"connectrpc.com/connect"

	"github.com/mmynk/roomies/internal/auth"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

// ViewerKey is the context key for the roommate making the request.
const ViewerKey contextKey = "viewer"

// ViewerHeader carries the viewer name when tokens are not configured.
const ViewerHeader = "X-Viewer"

// GetViewer extracts the viewer name from the context.
// Returns empty string if not found.
func GetViewer(ctx context.Context) string {
	viewer, _ := ctx.Value(ViewerKey).(string)
	return viewer
}

// WithViewer returns a copy of ctx carrying the viewer name.
func WithViewer(ctx context.Context, viewer string) context.Context {
	return context.WithValue(ctx, ViewerKey, viewer)
}

// RequireViewerToken returns an interceptor that validates the bearer
// token and stores its subject as the viewer.
func RequireViewerToken(jwtManager *auth.JWTManager) connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			authHeader := req.Header().Get("Authorization")
			if authHeader == "" {
				return nil, connect.NewError(connect.CodeUnauthenticated, auth.ErrMissingToken)
			}

			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || parts[0] != "Bearer" {
				return nil, connect.NewError(connect.CodeUnauthenticated, auth.ErrInvalidToken)
			}

			claims, err := jwtManager.Validate(parts[1])
			if err != nil {
				return nil, connect.NewError(connect.CodeUnauthenticated, err)
			}

			return next(WithViewer(ctx, claims.Viewer()), req)
		}
	}
}

// ViewerFromHeader returns an interceptor that trusts the X-Viewer header.
// Requests without it proceed anonymously; handlers that need a viewer
// reject them.
func ViewerFromHeader() connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			if viewer := strings.TrimSpace(req.Header().Get(ViewerHeader)); viewer != "" {
				ctx = WithViewer(ctx, viewer)
			}
			return next(ctx, req)
		}
	}
}
