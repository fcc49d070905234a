package handlers

import (
	"context"
	"fmt"

	"github.com/dkovac/tripmates-api/internal/middleware"
	"github.com/dkovac/tripmates-api/internal/services"
	"github.com/dkovac/tripmates-api/internal/sse"
	"github.com/google/uuid"
	"github.com/m1z23r/drift/pkg/drift"
)

// SSEHandler is the one-way fallback for clients that cannot hold a
// WebSocket open. It carries document and task events only; presence and
// typing stay on the WebSocket path.
type SSEHandler struct {
	hub           *sse.Hub
	memberService *services.MemberService
	tripService   *services.TripService
}

func NewSSEHandler(hub *sse.Hub, memberService *services.MemberService, tripService *services.TripService) *SSEHandler {
	return &SSEHandler{
		hub:           hub,
		memberService: memberService,
		tripService:   tripService,
	}
}

func (h *SSEHandler) Connect(c *drift.Context) {
	email := middleware.GetUserEmail(c)
	if email == "" {
		c.Unauthorized("not authenticated")
		return
	}

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

	sseCtx := c.SSE()

	clientID := uuid.New().String()
	client := &sse.Client{
		ID:    clientID,
		Email: email,
		Trips: map[uuid.UUID]bool{tripID: true},
		Send:  make(chan []byte, 256),
	}

	h.hub.Register(client)
	defer h.hub.Unregister(client)

	if err := sseCtx.SendJSON(map[string]string{
		"type":      "connected",
		"client_id": clientID,
	}, "system", ""); err != nil {
		return
	}

	done := make(chan struct{})
	go func() {
		<-c.Request.Context().Done()
		close(done)
	}()

	for {
		select {
		case msg, ok := <-client.Send:
			if !ok {
				return
			}
			if err := sseCtx.Send(string(msg), "message", ""); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}

func (h *SSEHandler) Subscribe(c *drift.Context) {
	email := middleware.GetUserEmail(c)
	if email == "" {
		c.Unauthorized("not authenticated")
		return
	}

	clientID := c.Param("clientId")
	if clientID == "" {
		c.BadRequest("client_id is required")
		return
	}

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

	h.hub.SubscribeToTrip(clientID, tripID)

	// Hand back the current document so the subscriber starts at the
	// latest version before stream events arrive.
	response := map[string]interface{}{
		"message": fmt.Sprintf("subscribed to trip %s", tripID),
	}
	if trip, err := h.tripService.GetByID(ctx, tripID); err == nil {
		response["trip"] = trip
	}
	_ = c.JSON(200, response)
}

func (h *SSEHandler) Unsubscribe(c *drift.Context) {
	email := middleware.GetUserEmail(c)
	if email == "" {
		c.Unauthorized("not authenticated")
		return
	}

	clientID := c.Param("clientId")
	if clientID == "" {
		c.BadRequest("client_id is required")
		return
	}

	tripID, err := uuid.Parse(c.Param("tripId"))
	if err != nil {
		c.BadRequest("invalid trip id")
		return
	}

	h.hub.UnsubscribeFromTrip(clientID, tripID)

	_ = c.JSON(200, map[string]string{
		"message": fmt.Sprintf("unsubscribed from trip %s", tripID),
	})
}
