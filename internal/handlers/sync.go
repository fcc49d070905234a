package handlers

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/dkovac/tripmates-api/internal/hub"
	"github.com/dkovac/tripmates-api/internal/services"
	"github.com/google/uuid"
	"github.com/m1z23r/drift/pkg/drift"
	"github.com/m1z23r/drift/pkg/websocket"
)

const (
	syncPingInterval = 30 * time.Second
	syncWriteTimeout = 10 * time.Second
	syncReadTimeout  = 60 * time.Second
)

type ClientMessage struct {
	Action string `json:"action"`
	TripID string `json:"trip_id,omitempty"`

	// Presence
	Status   string `json:"status,omitempty"`
	Activity string `json:"activity,omitempty"`

	// Typing
	Field string `json:"field,omitempty"`
}

type SyncHandler struct {
	hub           HubInterface
	memberService MemberServiceInterface
	tripService   TripServiceInterface
	userService   UserServiceInterface
	jwtService    *services.JWTService
}

func NewSyncHandler(hub HubInterface, memberService MemberServiceInterface, tripService TripServiceInterface, userService UserServiceInterface, jwtService *services.JWTService) *SyncHandler {
	return &SyncHandler{
		hub:           hub,
		memberService: memberService,
		tripService:   tripService,
		userService:   userService,
		jwtService:    jwtService,
	}
}

func (h *SyncHandler) Connect(c *drift.Context) {
	// Extract and validate JWT before upgrading
	token := c.QueryParam("token")
	if token == "" {
		c.Unauthorized("token is required")
		return
	}

	claims, err := h.jwtService.ValidateAccessToken(token)
	if err != nil {
		c.Unauthorized("invalid token")
		return
	}

	user, err := h.userService.GetByID(context.Background(), claims.UserID)
	if err != nil {
		c.Unauthorized("user not found")
		return
	}

	conn, err := websocket.Upgrade(c)
	if err != nil {
		log.Printf("WebSocket upgrade failed: %v", err)
		return
	}

	clientID := uuid.New().String()
	client := &hub.Client{
		ID:        clientID,
		Email:     user.Email,
		Name:      user.Name,
		AvatarURL: user.AvatarURL,
		Trips:     make(map[uuid.UUID]bool),
		Send:      make(chan []byte, 256),
	}

	h.hub.Register(client)

	_ = conn.WriteJSON(map[string]string{
		"type":      "connected",
		"client_id": clientID,
	})

	done := make(chan struct{})

	// Write pump
	go func() {
		ticker := time.NewTicker(syncPingInterval)
		defer ticker.Stop()
		defer func() {
			if err := conn.Close(websocket.CloseNormalClosure, ""); err != nil {
				log.Printf("WebSocket close error: %v", err)
			}
		}()

		for {
			select {
			case msg, ok := <-client.Send:
				if !ok {
					return
				}
				_ = conn.SetWriteDeadline(time.Now().Add(syncWriteTimeout))
				if err := conn.WriteText(string(msg)); err != nil {
					return
				}
			case <-ticker.C:
				if err := conn.Ping(nil); err != nil {
					return
				}
			case <-done:
				return
			}
		}
	}()

	// Read pump (blocks until disconnect)
	func() {
		defer func() {
			close(done)
			h.hub.Unregister(client)
		}()

		for {
			_ = conn.SetReadDeadline(time.Now().Add(syncReadTimeout))
			msgType, data, err := conn.ReadMessage()
			if err != nil {
				return
			}

			if msgType != websocket.TextMessage {
				continue
			}

			var msg ClientMessage
			if err := json.Unmarshal(data, &msg); err != nil {
				_ = conn.WriteJSON(map[string]string{
					"type":    "error",
					"message": "invalid message format",
				})
				continue
			}

			switch msg.Action {
			case "subscribe":
				h.handleSubscribe(conn, client, msg)
			case "unsubscribe":
				h.handleUnsubscribe(conn, client, msg)
			case "ping":
				_ = conn.WriteJSON(map[string]string{"type": "pong"})
			case "presence":
				h.handlePresence(conn, client, msg)
			case "typing_start":
				h.handleTyping(conn, client, msg, true)
			case "typing_stop":
				h.handleTyping(conn, client, msg, false)
			default:
				_ = conn.WriteJSON(map[string]string{
					"type":       "error",
					"message":    "unknown action",
					"ref_action": msg.Action,
				})
			}
		}
	}()
}

func (h *SyncHandler) handleSubscribe(conn *websocket.Conn, client *hub.Client, msg ClientMessage) {
	tripID, err := uuid.Parse(msg.TripID)
	if err != nil {
		_ = conn.WriteJSON(map[string]string{
			"type":       "error",
			"message":    "invalid trip_id",
			"ref_action": "subscribe",
		})
		return
	}

	isMember, err := h.memberService.IsMember(context.Background(), tripID, client.Email)
	if err != nil || !isMember {
		_ = conn.WriteJSON(map[string]string{
			"type":       "error",
			"message":    "trip not found or access denied",
			"ref_action": "subscribe",
		})
		return
	}

	h.hub.SubscribeToTrip(client.ID, tripID)

	// The ack carries the current document so a fresh subscriber starts
	// from the latest version without a separate fetch.
	ack := map[string]interface{}{
		"type":    "subscribed",
		"trip_id": tripID.String(),
	}
	if trip, err := h.tripService.GetByID(context.Background(), tripID); err == nil {
		ack["trip"] = trip
	}
	_ = conn.WriteJSON(ack)
}

func (h *SyncHandler) handleUnsubscribe(conn *websocket.Conn, client *hub.Client, msg ClientMessage) {
	tripID, err := uuid.Parse(msg.TripID)
	if err != nil {
		_ = conn.WriteJSON(map[string]string{
			"type":       "error",
			"message":    "invalid trip_id",
			"ref_action": "unsubscribe",
		})
		return
	}

	h.hub.UnsubscribeFromTrip(client.ID, tripID)

	_ = conn.WriteJSON(map[string]string{
		"type":    "unsubscribed",
		"trip_id": tripID.String(),
	})
}

func (h *SyncHandler) handlePresence(conn *websocket.Conn, client *hub.Client, msg ClientMessage) {
	tripID, err := uuid.Parse(msg.TripID)
	if err != nil {
		_ = conn.WriteJSON(map[string]string{
			"type":       "error",
			"message":    "invalid trip_id",
			"ref_action": "presence",
		})
		return
	}

	if !h.hub.IsSubscribedToTrip(client.ID, tripID) {
		_ = conn.WriteJSON(map[string]string{
			"type":       "error",
			"message":    "not subscribed to trip",
			"ref_action": "presence",
		})
		return
	}

	status := msg.Status
	if status == "" {
		status = "online"
	}

	h.hub.UpdatePresence(tripID, client.Email, client.Name, status, msg.Activity)
}

func (h *SyncHandler) handleTyping(conn *websocket.Conn, client *hub.Client, msg ClientMessage, start bool) {
	tripID, err := uuid.Parse(msg.TripID)
	if err != nil {
		_ = conn.WriteJSON(map[string]string{
			"type":       "error",
			"message":    "invalid trip_id",
			"ref_action": "typing",
		})
		return
	}

	if !h.hub.IsSubscribedToTrip(client.ID, tripID) {
		_ = conn.WriteJSON(map[string]string{
			"type":       "error",
			"message":    "not subscribed to trip",
			"ref_action": "typing",
		})
		return
	}

	if start {
		h.hub.StartTyping(tripID, client.Email, client.Name, msg.Field)
	} else {
		h.hub.StopTyping(tripID, client.Email)
	}
}
