package handlers

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/dkovac/tripmates-api/internal/config"
	"github.com/dkovac/tripmates-api/internal/middleware"
	"github.com/dkovac/tripmates-api/internal/services"
	"github.com/dkovac/tripmates-api/pkg/dto"
	"github.com/google/uuid"
	"github.com/m1z23r/drift/pkg/drift"
)

type MemberHandler struct {
	cfg           *config.Config
	memberService MemberServiceInterface
	inviteService InviteServiceInterface
	tripService   TripServiceInterface
	userService   UserServiceInterface
	emailService  EmailServiceInterface
	hub           HubInterface
}

func NewMemberHandler(
	cfg *config.Config,
	memberService MemberServiceInterface,
	inviteService InviteServiceInterface,
	tripService TripServiceInterface,
	userService UserServiceInterface,
	emailService EmailServiceInterface,
	hub HubInterface,
) *MemberHandler {
	return &MemberHandler{
		cfg:           cfg,
		memberService: memberService,
		inviteService: inviteService,
		tripService:   tripService,
		userService:   userService,
		emailService:  emailService,
		hub:           hub,
	}
}

func (h *MemberHandler) List(c *drift.Context) {
	email := middleware.GetUserEmail(c)
	tripID, err := uuid.Parse(c.Param("tripId"))
	if err != nil {
		c.BadRequest("invalid trip id")
		return
	}

	ctx := context.Background()

	isMember, err := h.memberService.IsMember(ctx, tripID, email)
	if err != nil || !isMember {
		c.NotFound("trip not found")
		return
	}

	members, err := h.memberService.List(ctx, tripID)
	if err != nil {
		c.InternalServerError("failed to list members")
		return
	}

	_ = c.JSON(200, members)
}

// Permissions reports what the calling user may do on a trip. Clients use
// it to hide controls; services still re-check on every mutation.
func (h *MemberHandler) Permissions(c *drift.Context) {
	email := middleware.GetUserEmail(c)
	tripID, err := uuid.Parse(c.Param("tripId"))
	if err != nil {
		c.BadRequest("invalid trip id")
		return
	}

	member, err := h.memberService.Get(context.Background(), tripID, email)
	if err != nil {
		c.NotFound("trip not found")
		return
	}

	_ = c.JSON(200, map[string]any{
		"role":        member.Role,
		"permissions": member.Permissions(),
	})
}

// Presence returns the hub's current view of who is active on a trip.
func (h *MemberHandler) Presence(c *drift.Context) {
	email := middleware.GetUserEmail(c)
	tripID, err := uuid.Parse(c.Param("tripId"))
	if err != nil {
		c.BadRequest("invalid trip id")
		return
	}

	isMember, err := h.memberService.IsMember(context.Background(), tripID, email)
	if err != nil || !isMember {
		c.NotFound("trip not found")
		return
	}

	_ = c.JSON(200, map[string]any{
		"members": h.hub.PresenceSnapshot(tripID),
	})
}

func (h *MemberHandler) Invite(c *drift.Context) {
	userID := middleware.GetUserID(c)
	email := middleware.GetUserEmail(c)
	tripID, err := uuid.Parse(c.Param("tripId"))
	if err != nil {
		c.BadRequest("invalid trip id")
		return
	}

	var req dto.InviteMemberRequest
	if err := c.BindJSON(&req); err != nil {
		c.BadRequest("invalid request body")
		return
	}

	inviteeEmail := strings.ToLower(strings.TrimSpace(req.Email))
	if inviteeEmail == "" || !strings.Contains(inviteeEmail, "@") {
		c.BadRequest("valid email is required")
		return
	}

	ctx := context.Background()

	user, err := h.userService.GetByID(ctx, userID)
	if err != nil {
		c.Unauthorized("user not found")
		return
	}

	invite, err := h.inviteService.Create(ctx, tripID, email, user.Name, inviteeEmail, req.Role, req.Message)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidInviteRole):
			c.BadRequest("role must be collaborator or viewer")
		case errors.Is(err, services.ErrAlreadyMember):
			c.BadRequest("this person is already a member of the trip")
		case errors.Is(err, services.ErrInviteAlreadyExists):
			c.BadRequest("a pending invite already exists for this email")
		case errors.Is(err, services.ErrForbidden):
			c.Forbidden("you do not have permission to invite members")
		default:
			c.InternalServerError("failed to create invite")
		}
		return
	}

	if h.emailService.IsConfigured() {
		trip, tripErr := h.tripService.GetByID(ctx, tripID)
		if tripErr == nil {
			inviteURL := fmt.Sprintf("%s/invite/%s", h.cfg.BaseURL, invite.Token)
			go func() {
				if err := h.emailService.SendTripInvite(inviteeEmail, trip.Name, user.Name, inviteURL); err != nil {
					log.Printf("Failed to send invite email: %v", err)
				}
			}()
		}
	}

	h.hub.BroadcastInviteUpdated(tripID, invite.ID, invite.Status, inviteeEmail)

	_ = c.JSON(201, invite)
}

func (h *MemberHandler) ListInvites(c *drift.Context) {
	email := middleware.GetUserEmail(c)
	tripID, err := uuid.Parse(c.Param("tripId"))
	if err != nil {
		c.BadRequest("invalid trip id")
		return
	}

	ctx := context.Background()

	isMember, err := h.memberService.IsMember(ctx, tripID, email)
	if err != nil || !isMember {
		c.NotFound("trip not found")
		return
	}

	invites, err := h.inviteService.PendingForTrip(ctx, tripID)
	if err != nil {
		c.InternalServerError("failed to list invites")
		return
	}

	_ = c.JSON(200, invites)
}

func (h *MemberHandler) CancelInvite(c *drift.Context) {
	email := middleware.GetUserEmail(c)
	tripID, err := uuid.Parse(c.Param("tripId"))
	if err != nil {
		c.BadRequest("invalid trip id")
		return
	}

	inviteID, err := uuid.Parse(c.Param("inviteId"))
	if err != nil {
		c.BadRequest("invalid invite id")
		return
	}

	if err := h.inviteService.Cancel(context.Background(), inviteID, tripID, email); err != nil {
		switch {
		case errors.Is(err, services.ErrInviteNotFound):
			c.NotFound("invite not found")
		case errors.Is(err, services.ErrForbidden):
			c.Forbidden("only the trip owner can cancel invites")
		default:
			c.InternalServerError("failed to cancel invite")
		}
		return
	}

	_ = c.JSON(200, map[string]string{"message": "invite cancelled"})
}

// AcceptInvite is the authenticated path; the signed-in user's email must
// match the invitee.
func (h *MemberHandler) AcceptInvite(c *drift.Context) {
	userID := middleware.GetUserID(c)
	email := middleware.GetUserEmail(c)
	token := c.Param("token")
	if token == "" {
		c.BadRequest("token is required")
		return
	}

	ctx := context.Background()

	user, err := h.userService.GetByID(ctx, userID)
	if err != nil {
		c.Unauthorized("user not found")
		return
	}

	invite, err := h.inviteService.GetByToken(ctx, token)
	if err != nil {
		c.NotFound("invite not found")
		return
	}

	trip, err := h.inviteService.Accept(ctx, token, email, user.Name)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInviteNotFound):
			c.NotFound("invite not found")
		case errors.Is(err, services.ErrInviteAlreadyProcessed):
			c.BadRequest("this invite has already been processed")
		case errors.Is(err, services.ErrInviteExpired):
			c.BadRequest("this invite has expired")
		case errors.Is(err, services.ErrEmailMismatch):
			c.Forbidden("this invite was sent to a different email address")
		default:
			c.InternalServerError("failed to accept invite")
		}
		return
	}

	h.hub.BroadcastMemberJoined(trip.ID, email, user.Name, invite.Role)
	h.hub.BroadcastInviteUpdated(trip.ID, invite.ID, "accepted", email)

	_ = c.JSON(200, trip)
}

func (h *MemberHandler) DeclineInvite(c *drift.Context) {
	token := c.Param("token")
	if token == "" {
		c.BadRequest("token is required")
		return
	}

	ctx := context.Background()

	invite, err := h.inviteService.GetByToken(ctx, token)
	if err != nil {
		c.NotFound("invite not found")
		return
	}

	if err := h.inviteService.Decline(ctx, token); err != nil {
		switch {
		case errors.Is(err, services.ErrInviteNotFound):
			c.NotFound("invite not found")
		case errors.Is(err, services.ErrInviteAlreadyProcessed):
			c.BadRequest("this invite has already been processed")
		case errors.Is(err, services.ErrInviteExpired):
			c.BadRequest("this invite has expired")
		default:
			c.InternalServerError("failed to decline invite")
		}
		return
	}

	h.hub.BroadcastInviteUpdated(invite.TripID, invite.ID, "declined", invite.InviteeEmail)

	_ = c.JSON(200, map[string]string{"message": "invite declined"})
}

func (h *MemberHandler) Remove(c *drift.Context) {
	email := middleware.GetUserEmail(c)
	tripID, err := uuid.Parse(c.Param("tripId"))
	if err != nil {
		c.BadRequest("invalid trip id")
		return
	}

	memberEmail := strings.ToLower(c.Param("email"))
	if memberEmail == "" {
		c.BadRequest("member email is required")
		return
	}

	if err := h.memberService.Remove(context.Background(), tripID, memberEmail, email); err != nil {
		switch {
		case errors.Is(err, services.ErrMemberNotFound):
			c.NotFound("member not found")
		case errors.Is(err, services.ErrCannotRemoveOwner):
			c.BadRequest("the trip owner cannot be removed")
		case errors.Is(err, services.ErrForbidden):
			c.Forbidden("only the trip owner can remove members")
		default:
			c.InternalServerError("failed to remove member")
		}
		return
	}

	h.hub.BroadcastMemberLeft(tripID, memberEmail)

	_ = c.JSON(200, map[string]string{"message": "member removed"})
}

func (h *MemberHandler) Leave(c *drift.Context) {
	email := middleware.GetUserEmail(c)
	tripID, err := uuid.Parse(c.Param("tripId"))
	if err != nil {
		c.BadRequest("invalid trip id")
		return
	}

	if err := h.memberService.Leave(context.Background(), tripID, email); err != nil {
		switch {
		case errors.Is(err, services.ErrMemberNotFound):
			c.NotFound("you are not a member of this trip")
		case errors.Is(err, services.ErrCannotRemoveOwner):
			c.BadRequest("the owner cannot leave their own trip")
		default:
			c.InternalServerError("failed to leave trip")
		}
		return
	}

	h.hub.BroadcastMemberLeft(tripID, email)

	_ = c.JSON(200, map[string]string{"message": "left trip"})
}
