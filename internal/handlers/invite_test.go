package handlers

import (
	"net/http"
	"testing"

	"github.com/dkovac/tripmates-api/internal/models"
	"github.com/dkovac/tripmates-api/internal/services"
	"github.com/dkovac/tripmates-api/tests/testutil"
	"github.com/google/uuid"
	"github.com/m1z23r/drift/pkg/drift"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type inviteTestDeps struct {
	inviteService *testutil.MockInviteService
	hub           *testutil.MockHub
	handler       *InviteHandler
}

func setupInviteTest(t *testing.T) inviteTestDeps {
	t.Helper()
	deps := inviteTestDeps{
		inviteService: new(testutil.MockInviteService),
		hub:           new(testutil.MockHub),
	}
	deps.handler = NewInviteHandler(deps.inviteService, deps.hub)
	return deps
}

func inviteTestApp(deps inviteTestDeps) http.Handler {
	app := drift.New()
	app.Get("/invite/:token", deps.handler.ViewInvite)
	app.Post("/invite/:token/accept", deps.handler.AcceptInvite)
	app.Post("/invite/:token/decline", deps.handler.DeclineInvite)
	return app
}

func TestInviteHandler_ViewInvite_Pending(t *testing.T) {
	deps := setupInviteTest(t)
	token := "a1b2c3d4"

	invite := &models.TripInvite{
		ID:           uuid.New(),
		TripID:       uuid.New(),
		InviterName:  "Ana",
		InviteeEmail: "marko@example.com",
		Role:         models.RoleCollaborator,
		Status:       models.InviteStatusPending,
		Trip:         &models.Trip{Name: "Lisbon 2026"},
	}
	deps.inviteService.On("GetByToken", mock.Anything, token).Return(invite, nil)

	client := testutil.NewHTTPTestClient(t, inviteTestApp(deps))
	rec := client.GET("/invite/"+token, nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Lisbon 2026")
	assert.Contains(t, body, "Ana")
	assert.Contains(t, body, "/invite/"+token+"/accept")
	assert.Contains(t, body, "/invite/"+token+"/decline")
}

func TestInviteHandler_ViewInvite_AlreadyAccepted(t *testing.T) {
	deps := setupInviteTest(t)
	token := "a1b2c3d4"

	invite := &models.TripInvite{
		ID:     uuid.New(),
		TripID: uuid.New(),
		Status: models.InviteStatusAccepted,
	}
	deps.inviteService.On("GetByToken", mock.Anything, token).Return(invite, nil)

	client := testutil.NewHTTPTestClient(t, inviteTestApp(deps))
	rec := client.GET("/invite/"+token, nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "already been accepted")
}

func TestInviteHandler_ViewInvite_NotFound(t *testing.T) {
	deps := setupInviteTest(t)

	deps.inviteService.On("GetByToken", mock.Anything, "nope").
		Return(nil, services.ErrInviteNotFound)

	client := testutil.NewHTTPTestClient(t, inviteTestApp(deps))
	rec := client.GET("/invite/nope", nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "not found or has expired")
}

func TestInviteHandler_AcceptInvite_Success(t *testing.T) {
	deps := setupInviteTest(t)
	token := "a1b2c3d4"
	tripID := uuid.New()

	invite := &models.TripInvite{
		ID:           uuid.New(),
		TripID:       tripID,
		InviteeEmail: "marko@example.com",
		Role:         models.RoleCollaborator,
		Status:       models.InviteStatusPending,
	}
	trip := &models.Trip{ID: tripID, Name: "Lisbon 2026"}

	deps.inviteService.On("GetByToken", mock.Anything, token).Return(invite, nil)
	deps.inviteService.On("Accept", mock.Anything, token, "marko@example.com", "marko").
		Return(trip, nil)
	deps.hub.On("BroadcastMemberJoined", tripID, "marko@example.com", "marko", models.RoleCollaborator).Return()
	deps.hub.On("BroadcastInviteUpdated", tripID, invite.ID, "accepted", "marko@example.com").Return()

	client := testutil.NewHTTPTestClient(t, inviteTestApp(deps))
	rec := client.POST("/invite/"+token+"/accept", nil, nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "You have joined Lisbon 2026!")
	deps.hub.AssertExpectations(t)
}

func TestInviteHandler_AcceptInvite_Expired(t *testing.T) {
	deps := setupInviteTest(t)
	token := "a1b2c3d4"

	invite := &models.TripInvite{
		ID:           uuid.New(),
		TripID:       uuid.New(),
		InviteeEmail: "marko@example.com",
		Status:       models.InviteStatusPending,
	}

	deps.inviteService.On("GetByToken", mock.Anything, token).Return(invite, nil)
	deps.inviteService.On("Accept", mock.Anything, token, "marko@example.com", "marko").
		Return(nil, services.ErrInviteExpired)

	client := testutil.NewHTTPTestClient(t, inviteTestApp(deps))
	rec := client.POST("/invite/"+token+"/accept", nil, nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "expired")
	deps.hub.AssertNotCalled(t, "BroadcastMemberJoined",
		mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestInviteHandler_DeclineInvite_Success(t *testing.T) {
	deps := setupInviteTest(t)
	token := "a1b2c3d4"
	tripID := uuid.New()

	invite := &models.TripInvite{
		ID:           uuid.New(),
		TripID:       tripID,
		InviteeEmail: "marko@example.com",
		Status:       models.InviteStatusPending,
	}

	deps.inviteService.On("GetByToken", mock.Anything, token).Return(invite, nil)
	deps.inviteService.On("Decline", mock.Anything, token).Return(nil)
	deps.hub.On("BroadcastInviteUpdated", tripID, invite.ID, "declined", "marko@example.com").Return()

	client := testutil.NewHTTPTestClient(t, inviteTestApp(deps))
	rec := client.POST("/invite/"+token+"/decline", nil, nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Invite declined")
	deps.hub.AssertExpectations(t)
}
