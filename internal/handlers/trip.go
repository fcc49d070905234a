package handlers

import (
	"context"
	"errors"

	"github.com/dkovac/tripmates-api/internal/middleware"
	"github.com/dkovac/tripmates-api/internal/models"
	"github.com/dkovac/tripmates-api/internal/services"
	"github.com/dkovac/tripmates-api/pkg/dto"
	"github.com/google/uuid"
	"github.com/m1z23r/drift/pkg/drift"
)

type TripHandler struct {
	tripService   TripServiceInterface
	memberService MemberServiceInterface
	userService   UserServiceInterface
	hub           HubInterface
	sseHub        SSEHubInterface
}

func NewTripHandler(tripService TripServiceInterface, memberService MemberServiceInterface, userService UserServiceInterface, hub HubInterface, sseHub SSEHubInterface) *TripHandler {
	return &TripHandler{
		tripService:   tripService,
		memberService: memberService,
		userService:   userService,
		hub:           hub,
		sseHub:        sseHub,
	}
}

func (h *TripHandler) Create(c *drift.Context) {
	userID := middleware.GetUserID(c)
	email := middleware.GetUserEmail(c)
	if userID == uuid.Nil {
		c.Unauthorized("not authenticated")
		return
	}

	var req dto.CreateTripRequest
	if err := c.BindJSON(&req); err != nil {
		c.BadRequest("invalid request body")
		return
	}

	if req.Name == "" {
		c.BadRequest("name is required")
		return
	}

	ctx := context.Background()

	user, err := h.userService.GetByID(ctx, userID)
	if err != nil {
		c.Unauthorized("user not found")
		return
	}

	trip, err := h.tripService.Create(ctx, req.Name, req.Destination, req.StartDate, req.EndDate, email, user.Name, req.Data)
	if err != nil {
		c.InternalServerError("failed to create trip")
		return
	}

	_ = c.JSON(201, trip)
}

func (h *TripHandler) List(c *drift.Context) {
	email := middleware.GetUserEmail(c)
	if email == "" {
		c.Unauthorized("not authenticated")
		return
	}

	trips, roles, err := h.tripService.ListForUser(context.Background(), email)
	if err != nil {
		c.InternalServerError("failed to list trips")
		return
	}

	type tripWithRole struct {
		models.Trip
		Role string `json:"role"`
	}

	result := make([]tripWithRole, len(trips))
	for i, t := range trips {
		result[i] = tripWithRole{Trip: t, Role: roles[i]}
	}

	_ = c.JSON(200, result)
}

func (h *TripHandler) Get(c *drift.Context) {
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

	trip, err := h.tripService.GetByID(ctx, tripID)
	if err != nil {
		c.NotFound("trip not found")
		return
	}

	_ = h.memberService.TouchLastActive(ctx, tripID, email)

	_ = c.JSON(200, trip)
}

func (h *TripHandler) Update(c *drift.Context) {
	email := middleware.GetUserEmail(c)
	tripID, err := uuid.Parse(c.Param("tripId"))
	if err != nil {
		c.BadRequest("invalid trip id")
		return
	}

	var req dto.UpdateTripRequest
	if err := c.BindJSON(&req); err != nil {
		c.BadRequest("invalid request body")
		return
	}

	updates := services.TripUpdates{
		Name:        req.Name,
		Destination: req.Destination,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
		IsShared:    req.IsShared,
		Extras:      req.Data,
	}

	trip, err := h.tripService.Update(context.Background(), tripID, updates, email)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrTripNotFound):
			c.NotFound("trip not found")
		case errors.Is(err, services.ErrForbidden), errors.Is(err, services.ErrMemberNotFound):
			c.Forbidden("you do not have permission to edit this trip")
		default:
			c.InternalServerError("failed to update trip")
		}
		return
	}

	h.hub.BroadcastTripUpdate(trip, email)
	h.sseHub.BroadcastTripUpdate(trip, email)

	_ = c.JSON(200, trip)
}

func (h *TripHandler) Delete(c *drift.Context) {
	email := middleware.GetUserEmail(c)
	tripID, err := uuid.Parse(c.Param("tripId"))
	if err != nil {
		c.BadRequest("invalid trip id")
		return
	}

	if err := h.tripService.Delete(context.Background(), tripID, email); err != nil {
		switch {
		case errors.Is(err, services.ErrTripNotFound):
			c.NotFound("trip not found")
		case errors.Is(err, services.ErrForbidden):
			c.Forbidden("only the owner can delete a trip")
		default:
			c.InternalServerError("failed to delete trip")
		}
		return
	}

	_ = c.JSON(200, map[string]string{"message": "trip deleted"})
}
