package handlers

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dkovac/tripmates-api/internal/models"
	"github.com/dkovac/tripmates-api/internal/services"
	"github.com/m1z23r/drift/pkg/drift"
)

// InviteHandler serves the public invite pages linked from invitation
// emails. No authentication; the link token is the credential.
type InviteHandler struct {
	inviteService InviteServiceInterface
	hub           HubInterface
}

func NewInviteHandler(inviteService InviteServiceInterface, hub HubInterface) *InviteHandler {
	return &InviteHandler{
		inviteService: inviteService,
		hub:           hub,
	}
}

func (h *InviteHandler) ViewInvite(c *drift.Context) {
	token := c.Param("token")
	if token == "" {
		h.renderError(c, "Invalid invite link")
		return
	}

	invite, err := h.inviteService.GetByToken(context.Background(), token)
	if err != nil {
		h.renderError(c, "Invite not found or has expired")
		return
	}

	if invite.Status != models.InviteStatusPending {
		h.renderMessage(c, "This invite has already been "+invite.Status)
		return
	}

	tripName := "a trip"
	if invite.Trip != nil {
		tripName = invite.Trip.Name
	}

	h.renderInvitePage(c, token, tripName, invite.InviterName, invite.Role)
}

func (h *InviteHandler) AcceptInvite(c *drift.Context) {
	token := c.Param("token")
	if token == "" {
		h.renderError(c, "Invalid invite link")
		return
	}

	ctx := context.Background()

	invite, err := h.inviteService.GetByToken(ctx, token)
	if err != nil {
		h.renderError(c, "Invite not found")
		return
	}

	// The public path joins as the invited address. A display name can be
	// set after signing in; default to the mailbox name.
	name := invite.InviteeEmail
	if i := strings.Index(name, "@"); i > 0 {
		name = name[:i]
	}

	trip, err := h.inviteService.Accept(ctx, token, invite.InviteeEmail, name)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInviteAlreadyProcessed):
			h.renderMessage(c, "This invite has already been processed")
		case errors.Is(err, services.ErrInviteExpired):
			h.renderError(c, "This invite has expired")
		default:
			h.renderError(c, "Failed to accept invite")
		}
		return
	}

	h.hub.BroadcastMemberJoined(trip.ID, invite.InviteeEmail, name, invite.Role)
	h.hub.BroadcastInviteUpdated(trip.ID, invite.ID, "accepted", invite.InviteeEmail)

	h.renderMessage(c, fmt.Sprintf("You have joined %s!", trip.Name))
}

func (h *InviteHandler) DeclineInvite(c *drift.Context) {
	token := c.Param("token")
	if token == "" {
		h.renderError(c, "Invalid invite link")
		return
	}

	ctx := context.Background()

	invite, err := h.inviteService.GetByToken(ctx, token)
	if err != nil {
		h.renderError(c, "Invite not found")
		return
	}

	if err := h.inviteService.Decline(ctx, token); err != nil {
		switch {
		case errors.Is(err, services.ErrInviteAlreadyProcessed):
			h.renderMessage(c, "This invite has already been processed")
		case errors.Is(err, services.ErrInviteExpired):
			h.renderError(c, "This invite has expired")
		default:
			h.renderError(c, "Failed to decline invite")
		}
		return
	}

	h.hub.BroadcastInviteUpdated(invite.TripID, invite.ID, "declined", invite.InviteeEmail)

	h.renderMessage(c, "Invite declined")
}

func (h *InviteHandler) renderInvitePage(c *drift.Context, token, tripName, inviterName, role string) {
	html := fmt.Sprintf(`<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>Trip Invitation</title>
    <style>
        body { font-family: system-ui, sans-serif; max-width: 400px; margin: 50px auto; padding: 20px; text-align: center; }
        h1 { color: #333; }
        p { color: #666; margin: 20px 0; }
        .trip-name { font-weight: bold; color: #333; }
        .role { display: inline-block; background: #f3f4f6; color: #374151; border-radius: 4px; padding: 2px 8px; font-size: 13px; }
        .buttons { display: flex; gap: 10px; justify-content: center; margin-top: 30px; }
        button { padding: 12px 24px; font-size: 16px; border: none; border-radius: 6px; cursor: pointer; }
        .accept { background: #22c55e; color: white; }
        .accept:hover { background: #16a34a; }
        .decline { background: #e5e7eb; color: #333; }
        .decline:hover { background: #d1d5db; }
    </style>
</head>
<body>
    <h1>Trip Invitation</h1>
    <p><strong>%s</strong> has invited you to help plan</p>
    <p class="trip-name">%s</p>
    <p><span class="role">%s</span></p>
    <div class="buttons">
        <form action="/invite/%s/accept" method="POST" style="display:inline;">
            <button type="submit" class="accept">Accept</button>
        </form>
        <form action="/invite/%s/decline" method="POST" style="display:inline;">
            <button type="submit" class="decline">Decline</button>
        </form>
    </div>
</body>
</html>`, inviterName, tripName, role, token, token)

	_ = c.HTML(200, html)
}

func (h *InviteHandler) renderMessage(c *drift.Context, message string) {
	html := fmt.Sprintf(`<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>Trip Invitation</title>
    <style>
        body { font-family: system-ui, sans-serif; max-width: 400px; margin: 50px auto; padding: 20px; text-align: center; }
        h1 { color: #22c55e; }
        p { color: #666; }
    </style>
</head>
<body>
    <h1>%s</h1>
</body>
</html>`, message)

	_ = c.HTML(200, html)
}

func (h *InviteHandler) renderError(c *drift.Context, message string) {
	html := fmt.Sprintf(`<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>Error</title>
    <style>
        body { font-family: system-ui, sans-serif; max-width: 400px; margin: 50px auto; padding: 20px; text-align: center; }
        h1 { color: #ef4444; }
        p { color: #666; }
    </style>
</head>
<body>
    <h1>Error</h1>
    <p>%s</p>
</body>
</html>`, message)

	_ = c.HTML(400, html)
}
