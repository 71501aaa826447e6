package service

import (
	"context"
	"testing"

	"connectrpc.com/connect"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/roomies/internal/calculator"
	"github.com/mmynk/roomies/pkg/api"
)

func TestCreateHousehold(t *testing.T) {
	env := setupTestServer(t, calculator.PolicyPartiesOnly)

	h := env.createHousehold(t, "You", "Sarah Chen", "You")

	assert.NotEmpty(t, h.ID)
	assert.Equal(t, "Elm Street", h.Name)
	assert.Equal(t, []string{"You", "Sarah Chen"}, h.Members)
	assert.NotZero(t, h.CreatedAt)
}

func TestCreateHousehold_Validation(t *testing.T) {
	env := setupTestServer(t, calculator.PolicyPartiesOnly)
	ctx := context.Background()

	_, err := env.households.CreateHousehold(ctx, as("", &api.CreateHouseholdRequest{Name: "Flat"}))
	requireCode(t, err, connect.CodeUnauthenticated)

	_, err = env.households.CreateHousehold(ctx, as("You", &api.CreateHouseholdRequest{Name: "   "}))
	requireCode(t, err, connect.CodeInvalidArgument)

	_, err = env.households.CreateHousehold(ctx, as("You", &api.CreateHouseholdRequest{Name: "Flat", Members: []string{""}}))
	requireCode(t, err, connect.CodeInvalidArgument)
}

func TestGetHousehold(t *testing.T) {
	env := setupTestServer(t, calculator.PolicyPartiesOnly)
	ctx := context.Background()
	h := env.createHousehold(t, "You", "Sarah Chen")

	resp, err := env.households.GetHousehold(ctx, as("Sarah Chen", &api.GetHouseholdRequest{HouseholdID: h.ID}))
	require.NoError(t, err)
	assert.Equal(t, h.ID, resp.Msg.Household.ID)
	assert.Equal(t, []string{"You", "Sarah Chen"}, resp.Msg.Household.Members)

	_, err = env.households.GetHousehold(ctx, as("Mallory", &api.GetHouseholdRequest{HouseholdID: h.ID}))
	requireCode(t, err, connect.CodePermissionDenied)

	_, err = env.households.GetHousehold(ctx, as("You", &api.GetHouseholdRequest{HouseholdID: "missing"}))
	requireCode(t, err, connect.CodeNotFound)

	_, err = env.households.GetHousehold(ctx, as("You", &api.GetHouseholdRequest{}))
	requireCode(t, err, connect.CodeInvalidArgument)
}

func TestAddMembers(t *testing.T) {
	env := setupTestServer(t, calculator.PolicyPartiesOnly)
	ctx := context.Background()
	h := env.createHousehold(t, "You")

	resp, err := env.households.AddMembers(ctx, as("You", &api.AddMembersRequest{
		HouseholdID: h.ID,
		Members:     []string{" Sarah Chen ", "You", "Bob"},
	}))
	require.NoError(t, err)
	assert.Equal(t, []string{"You", "Sarah Chen", "Bob"}, resp.Msg.Household.Members)

	_, err = env.households.AddMembers(ctx, as("You", &api.AddMembersRequest{HouseholdID: h.ID}))
	requireCode(t, err, connect.CodeInvalidArgument)

	_, err = env.households.AddMembers(ctx, as("Mallory", &api.AddMembersRequest{HouseholdID: h.ID, Members: []string{"Mallory"}}))
	requireCode(t, err, connect.CodePermissionDenied)
}
