package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"connectrpc.com/connect"

	"github.com/mmynk/roomies/internal/middleware"
	"github.com/mmynk/roomies/internal/models"
	"github.com/mmynk/roomies/internal/storage"
)

// storeError converts a storage failure into a Connect error.
func storeError(op string, err error) error {
	if errors.Is(err, storage.ErrNotFound) {
		return connect.NewError(connect.CodeNotFound, err)
	}
	slog.Error(op+" failed", "error", err)
	return connect.NewError(connect.CodeInternal, fmt.Errorf("%s: %w", op, err))
}

func invalidArgument(format string, args ...any) error {
	return connect.NewError(connect.CodeInvalidArgument, fmt.Errorf(format, args...))
}

// requireViewer returns the viewer or an Unauthenticated error.
func requireViewer(ctx context.Context) (string, error) {
	viewer := middleware.GetViewer(ctx)
	if viewer == "" {
		return "", connect.NewError(connect.CodeUnauthenticated, fmt.Errorf("viewer required"))
	}
	return viewer, nil
}

// memberHousehold loads a household and checks the viewer belongs to it.
func memberHousehold(ctx context.Context, store storage.Store, householdID, viewer string) (*models.Household, error) {
	if householdID == "" {
		return nil, invalidArgument("household_id required")
	}
	household, err := store.GetHousehold(ctx, householdID)
	if err != nil {
		return nil, storeError("GetHousehold", err)
	}
	if !household.HasMember(viewer) {
		return nil, connect.NewError(connect.CodePermissionDenied, fmt.Errorf("you must be a member of this household"))
	}
	return household, nil
}

// cleanNames trims names and rejects empty ones.
func cleanNames(field string, names []string) ([]string, error) {
	out := make([]string, 0, len(names))
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == "" {
			return nil, invalidArgument("%s must not contain empty names", field)
		}
		out = append(out, n)
	}
	return out, nil
}
