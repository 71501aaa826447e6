package middleware

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"connectrpc.com/connect"
)

// LoggingInterceptor writes one log line per RPC: procedure, viewer,
// protocol and duration, plus the Connect code when the call fails.
// Failures the server is responsible for log at error level; caller
// mistakes such as InvalidArgument or PermissionDenied log at warn.
// Register it after the viewer interceptor so the viewer is in the context.
func LoggingInterceptor() connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			start := time.Now()
			resp, err := next(ctx, req)

			attrs := []slog.Attr{
				slog.String("procedure", req.Spec().Procedure),
				slog.String("viewer", GetViewer(ctx)),
				slog.String("protocol", req.Peer().Protocol),
				slog.Int64("duration_ms", time.Since(start).Milliseconds()),
			}
			if err == nil {
				slog.LogAttrs(ctx, slog.LevelInfo, "RPC ok", attrs...)
				return resp, nil
			}

			code := connect.CodeOf(err)
			attrs = append(attrs,
				slog.String("code", code.String()),
				slog.String("error", errorMessage(err)),
			)
			slog.LogAttrs(ctx, rpcErrorLevel(code), "RPC error", attrs...)
			return resp, err
		}
	}
}

func rpcErrorLevel(code connect.Code) slog.Level {
	switch code {
	case connect.CodeInternal, connect.CodeUnknown, connect.CodeDataLoss, connect.CodeUnavailable:
		return slog.LevelError
	default:
		return slog.LevelWarn
	}
}

// errorMessage drops the code prefix connect.Error adds to Error().
func errorMessage(err error) string {
	var connectErr *connect.Error
	if errors.As(err, &connectErr) {
		return connectErr.Message()
	}
	return err.Error()
}
