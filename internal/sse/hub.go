package sse

import (
	"encoding/json"
	"sync"

	"github.com/dkovac/tripmates-api/internal/models"
	"github.com/google/uuid"
)

type Event struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

type TripUpdatedEvent struct {
	TripID     uuid.UUID    `json:"trip_id"`
	Trip       *models.Trip `json:"trip"`
	Version    int          `json:"version"`
	ModifiedBy string       `json:"modified_by"`
}

type TasksUpdatedEvent struct {
	TripID    uuid.UUID `json:"trip_id"`
	TaskID    string    `json:"task_id"`
	Action    string    `json:"action"`
	UpdatedBy string    `json:"updated_by"`
}

type Client struct {
	ID    string
	Email string
	Trips map[uuid.UUID]bool
	Send  chan []byte
}

type Hub struct {
	clients    map[string]*Client
	register   chan *Client
	unregister chan *Client
	broadcast  chan *TripMessage
	mu         sync.RWMutex
}

type TripMessage struct {
	TripID uuid.UUID
	Event  Event
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *TripMessage, 256),
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.ID] = client
			h.mu.Unlock()

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client.ID]; ok {
				delete(h.clients, client.ID)
				close(client.Send)
			}
			h.mu.Unlock()

		case msg := <-h.broadcast:
			h.mu.RLock()
			data, _ := json.Marshal(msg.Event)
			for _, client := range h.clients {
				if client.Trips[msg.TripID] {
					select {
					case client.Send <- data:
					default:
						// Client buffer full, skip
					}
				}
			}
			h.mu.RUnlock()
		}
	}
}

func (h *Hub) Register(client *Client) {
	h.register <- client
}

func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}

func (h *Hub) SubscribeToTrip(clientID string, tripID uuid.UUID) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if client, ok := h.clients[clientID]; ok {
		client.Trips[tripID] = true
	}
}

func (h *Hub) UnsubscribeFromTrip(clientID string, tripID uuid.UUID) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if client, ok := h.clients[clientID]; ok {
		delete(client.Trips, tripID)
	}
}

// BroadcastTripUpdate carries the whole document so the fallback transport
// converges the same way the WebSocket path does.
func (h *Hub) BroadcastTripUpdate(trip *models.Trip, modifiedBy string) {
	h.broadcast <- &TripMessage{
		TripID: trip.ID,
		Event: Event{
			Type: "trip_updated",
			Data: TripUpdatedEvent{
				TripID:     trip.ID,
				Trip:       trip,
				Version:    trip.Version,
				ModifiedBy: modifiedBy,
			},
		},
	}
}

func (h *Hub) BroadcastTasksUpdated(tripID uuid.UUID, taskID, action, updatedBy string) {
	h.broadcast <- &TripMessage{
		TripID: tripID,
		Event: Event{
			Type: "tasks_updated",
			Data: TasksUpdatedEvent{
				TripID:    tripID,
				TaskID:    taskID,
				Action:    action,
				UpdatedBy: updatedBy,
			},
		},
	}
}
