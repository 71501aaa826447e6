package service

import (
	"context"
	"log/slog"
	"strings"

	"connectrpc.com/connect"

	"github.com/mmynk/roomies/internal/models"
	"github.com/mmynk/roomies/internal/storage"
	"github.com/mmynk/roomies/pkg/api"
	"github.com/mmynk/roomies/pkg/api/apiconnect"
)

var _ apiconnect.HouseholdServiceHandler = (*HouseholdService)(nil)

// HouseholdService implements the Connect HouseholdService
type HouseholdService struct {
	store storage.Store
}

// NewHouseholdService creates a new HouseholdService with the given storage backend.
func NewHouseholdService(store storage.Store) *HouseholdService {
	return &HouseholdService{store: store}
}

// CreateHousehold creates a household. The viewer always becomes its first member.
func (s *HouseholdService) CreateHousehold(ctx context.Context, req *connect.Request[api.CreateHouseholdRequest]) (*connect.Response[api.CreateHouseholdResponse], error) {
	viewer, err := requireViewer(ctx)
	if err != nil {
		return nil, err
	}

	name := strings.TrimSpace(req.Msg.Name)
	if name == "" {
		return nil, invalidArgument("name required")
	}
	members, err := cleanNames("members", req.Msg.Members)
	if err != nil {
		return nil, err
	}

	household := &models.Household{
		Name:    name,
		Members: append([]string{viewer}, members...),
	}

	// Save to storage (generates ID and CreatedAt)
	if err := s.store.CreateHousehold(ctx, household); err != nil {
		return nil, storeError("CreateHousehold", err)
	}

	slog.Info("Household created", "household_id", household.ID, "members_count", len(household.Members))

	return connect.NewResponse(&api.CreateHouseholdResponse{
		Household: householdToAPI(household),
	}), nil
}

// GetHousehold retrieves a household the viewer belongs to.
func (s *HouseholdService) GetHousehold(ctx context.Context, req *connect.Request[api.GetHouseholdRequest]) (*connect.Response[api.GetHouseholdResponse], error) {
	viewer, err := requireViewer(ctx)
	if err != nil {
		return nil, err
	}

	household, err := memberHousehold(ctx, s.store, req.Msg.HouseholdID, viewer)
	if err != nil {
		return nil, err
	}

	return connect.NewResponse(&api.GetHouseholdResponse{
		Household: householdToAPI(household),
	}), nil
}

// AddMembers adds roommates to a household the viewer belongs to.
func (s *HouseholdService) AddMembers(ctx context.Context, req *connect.Request[api.AddMembersRequest]) (*connect.Response[api.AddMembersResponse], error) {
	viewer, err := requireViewer(ctx)
	if err != nil {
		return nil, err
	}

	if _, err := memberHousehold(ctx, s.store, req.Msg.HouseholdID, viewer); err != nil {
		return nil, err
	}

	members, err := cleanNames("members", req.Msg.Members)
	if err != nil {
		return nil, err
	}
	if len(members) == 0 {
		return nil, invalidArgument("members required")
	}

	if err := s.store.AddHouseholdMembers(ctx, req.Msg.HouseholdID, members); err != nil {
		return nil, storeError("AddHouseholdMembers", err)
	}

	household, err := s.store.GetHousehold(ctx, req.Msg.HouseholdID)
	if err != nil {
		return nil, storeError("GetHousehold", err)
	}

	slog.Info("Household members added", "household_id", household.ID, "members_count", len(household.Members))

	return connect.NewResponse(&api.AddMembersResponse{
		Household: householdToAPI(household),
	}), nil
}

func householdToAPI(h *models.Household) *api.Household {
	return &api.Household{
		ID:        h.ID,
		Name:      h.Name,
		Members:   h.Members,
		CreatedAt: h.CreatedAt,
	}
}
