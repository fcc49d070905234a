package hub

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/dkovac/tripmates-api/internal/models"
	"github.com/google/uuid"
)

const (
	// Typing indicators self-expire when no refresh arrives.
	defaultTypingTTL = 3 * time.Second

	// Presence entries older than this are reported offline even if the
	// client never said goodbye.
	staleThreshold = 30 * time.Second
)

type Event struct {
	Type   string      `json:"type"`
	TripID *uuid.UUID  `json:"trip_id,omitempty"`
	Data   interface{} `json:"data,omitempty"`
}

type TripUpdatedData struct {
	Trip       *models.Trip `json:"trip"`
	Version    int          `json:"version"`
	ModifiedBy string       `json:"modified_by"`
}

type MemberJoinedData struct {
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  string `json:"role"`
}

type MemberLeftData struct {
	Email string `json:"email"`
}

type TasksUpdatedData struct {
	TaskID    string `json:"task_id"`
	Action    string `json:"action"`
	UpdatedBy string `json:"updated_by"`
}

type InviteUpdatedData struct {
	InviteID uuid.UUID `json:"invite_id"`
	Status   string    `json:"status"`
	Email    string    `json:"email"`
}

// PresenceRecord is one member's last known state in a trip. Updates
// overwrite whichever fields they carry and always bump LastSeen.
type PresenceRecord struct {
	Email    string    `json:"email"`
	Name     string    `json:"name"`
	Status   string    `json:"status"`
	Activity string    `json:"activity,omitempty"`
	LastSeen time.Time `json:"last_seen"`
}

type PresenceUpdateData struct {
	Members []PresenceRecord `json:"members"`
}

type TypingUser struct {
	Email string `json:"email"`
	Name  string `json:"name"`
	Field string `json:"field,omitempty"`
}

type TypingUpdateData struct {
	Typing []TypingUser `json:"typing"`
}

type Client struct {
	ID        string
	Email     string
	Name      string
	AvatarURL *string
	Trips     map[uuid.UUID]bool
	Send      chan []byte
}

type typingState struct {
	user  TypingUser
	timer *time.Timer
}

type TripMessage struct {
	TripID uuid.UUID
	Event  Event
}

type Hub struct {
	clients    map[string]*Client
	presence   map[uuid.UUID]map[string]*PresenceRecord
	typing     map[uuid.UUID]map[string]*typingState
	register   chan *Client
	unregister chan *Client
	broadcast  chan *TripMessage
	typingTTL  time.Duration
	mu         sync.RWMutex
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[string]*Client),
		presence:   make(map[uuid.UUID]map[string]*PresenceRecord),
		typing:     make(map[uuid.UUID]map[string]*typingState),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *TripMessage, 256),
		typingTTL:  defaultTypingTTL,
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
				trips := make([]uuid.UUID, 0, len(client.Trips))
				for tripID := range client.Trips {
					trips = append(trips, tripID)
				}
				delete(h.clients, client.ID)
				close(client.Send)
				h.mu.Unlock()

				// A vanished connection means offline, no goodbye required.
				for _, tripID := range trips {
					h.markOffline(tripID, client.Email)
					h.clearTyping(tripID, client.Email)
					h.broadcastPresence(tripID)
					h.broadcastTyping(tripID)
				}
			} else {
				h.mu.Unlock()
			}

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
	client, ok := h.clients[clientID]
	if ok {
		client.Trips[tripID] = true
		h.setPresenceLocked(tripID, &PresenceRecord{
			Email:  client.Email,
			Name:   client.Name,
			Status: "online",
		})
	}
	h.mu.Unlock()

	if ok {
		h.broadcastPresence(tripID)
	}
}

func (h *Hub) UnsubscribeFromTrip(clientID string, tripID uuid.UUID) {
	h.mu.Lock()
	client, ok := h.clients[clientID]
	if ok {
		delete(client.Trips, tripID)
	}
	h.mu.Unlock()

	if ok {
		h.markOffline(tripID, client.Email)
		h.clearTyping(tripID, client.Email)
		h.broadcastPresence(tripID)
		h.broadcastTyping(tripID)
	}
}

func (h *Hub) IsSubscribedToTrip(clientID string, tripID uuid.UUID) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	client, ok := h.clients[clientID]
	return ok && client.Trips[tripID]
}

// UpdatePresence merges a client-reported status into the trip's presence
// map. Empty fields keep their previous value; LastSeen always advances.
func (h *Hub) UpdatePresence(tripID uuid.UUID, email, name, status, activity string) {
	h.mu.Lock()
	h.setPresenceLocked(tripID, &PresenceRecord{
		Email:    email,
		Name:     name,
		Status:   status,
		Activity: activity,
	})
	h.mu.Unlock()

	h.broadcastPresence(tripID)
}

// StartTyping marks a member as typing in a field and arms the expiry
// timer. Repeat calls re-arm it, so a steady typist never flickers.
func (h *Hub) StartTyping(tripID uuid.UUID, email, name, field string) {
	h.mu.Lock()
	byEmail, ok := h.typing[tripID]
	if !ok {
		byEmail = make(map[string]*typingState)
		h.typing[tripID] = byEmail
	}
	if state, ok := byEmail[email]; ok {
		state.timer.Stop()
	}
	state := &typingState{user: TypingUser{Email: email, Name: name, Field: field}}
	state.timer = time.AfterFunc(h.typingTTL, func() {
		h.clearTyping(tripID, email)
		h.broadcastTyping(tripID)
	})
	byEmail[email] = state
	h.mu.Unlock()

	h.broadcastTyping(tripID)
}

func (h *Hub) StopTyping(tripID uuid.UUID, email string) {
	h.clearTyping(tripID, email)
	h.broadcastTyping(tripID)
}

// PresenceSnapshot returns the current presence list for a trip. Entries
// that went quiet past the stale threshold are downgraded to offline.
func (h *Hub) PresenceSnapshot(tripID uuid.UUID) []PresenceRecord {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.presenceSnapshotLocked(tripID)
}

// BroadcastTripUpdate republishes the whole document. Subscribers converge
// from the event alone; no follow-up fetch is needed after an edit.
func (h *Hub) BroadcastTripUpdate(trip *models.Trip, modifiedBy string) {
	tripID := trip.ID
	h.broadcast <- &TripMessage{
		TripID: tripID,
		Event: Event{
			Type:   "trip_updated",
			TripID: &tripID,
			Data: TripUpdatedData{
				Trip:       trip,
				Version:    trip.Version,
				ModifiedBy: modifiedBy,
			},
		},
	}
}

func (h *Hub) BroadcastMemberJoined(tripID uuid.UUID, email, name, role string) {
	h.broadcast <- &TripMessage{
		TripID: tripID,
		Event: Event{
			Type:   "member_joined",
			TripID: &tripID,
			Data: MemberJoinedData{
				Email: email,
				Name:  name,
				Role:  role,
			},
		},
	}
}

func (h *Hub) BroadcastMemberLeft(tripID uuid.UUID, email string) {
	h.broadcast <- &TripMessage{
		TripID: tripID,
		Event: Event{
			Type:   "member_left",
			TripID: &tripID,
			Data: MemberLeftData{
				Email: email,
			},
		},
	}
}

func (h *Hub) BroadcastTasksUpdated(tripID uuid.UUID, taskID, action, updatedBy string) {
	h.broadcast <- &TripMessage{
		TripID: tripID,
		Event: Event{
			Type:   "tasks_updated",
			TripID: &tripID,
			Data: TasksUpdatedData{
				TaskID:    taskID,
				Action:    action,
				UpdatedBy: updatedBy,
			},
		},
	}
}

func (h *Hub) BroadcastInviteUpdated(tripID, inviteID uuid.UUID, status, email string) {
	h.broadcast <- &TripMessage{
		TripID: tripID,
		Event: Event{
			Type:   "invite_updated",
			TripID: &tripID,
			Data: InviteUpdatedData{
				InviteID: inviteID,
				Status:   status,
				Email:    email,
			},
		},
	}
}

func (h *Hub) setPresenceLocked(tripID uuid.UUID, update *PresenceRecord) {
	byEmail, ok := h.presence[tripID]
	if !ok {
		byEmail = make(map[string]*PresenceRecord)
		h.presence[tripID] = byEmail
	}

	record, ok := byEmail[update.Email]
	if !ok {
		record = &PresenceRecord{Email: update.Email}
		byEmail[update.Email] = record
	}
	if update.Name != "" {
		record.Name = update.Name
	}
	if update.Status != "" {
		record.Status = update.Status
	}
	if update.Activity != "" {
		record.Activity = update.Activity
	}
	record.LastSeen = time.Now()
}

func (h *Hub) markOffline(tripID uuid.UUID, email string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if record, ok := h.presence[tripID][email]; ok {
		record.Status = "offline"
		record.LastSeen = time.Now()
	}
}

func (h *Hub) clearTyping(tripID uuid.UUID, email string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if state, ok := h.typing[tripID][email]; ok {
		state.timer.Stop()
		delete(h.typing[tripID], email)
	}
}

func (h *Hub) presenceSnapshotLocked(tripID uuid.UUID) []PresenceRecord {
	now := time.Now()
	records := make([]PresenceRecord, 0, len(h.presence[tripID]))
	for _, record := range h.presence[tripID] {
		copied := *record
		if copied.Status != "offline" && now.Sub(copied.LastSeen) > staleThreshold {
			copied.Status = "offline"
		}
		records = append(records, copied)
	}
	return records
}

func (h *Hub) broadcastPresence(tripID uuid.UUID) {
	h.mu.RLock()
	members := h.presenceSnapshotLocked(tripID)
	h.mu.RUnlock()

	event := Event{
		Type:   "presence_update",
		TripID: &tripID,
		Data: PresenceUpdateData{
			Members: members,
		},
	}

	data, _ := json.Marshal(event)

	h.mu.RLock()
	for _, client := range h.clients {
		if client.Trips[tripID] {
			select {
			case client.Send <- data:
			default:
			}
		}
	}
	h.mu.RUnlock()
}

// broadcastTyping sends each subscriber the typing list minus themselves.
// Seeing your own indicator is never useful.
func (h *Hub) broadcastTyping(tripID uuid.UUID) {
	h.mu.RLock()
	typing := make([]TypingUser, 0, len(h.typing[tripID]))
	for _, state := range h.typing[tripID] {
		typing = append(typing, state.user)
	}

	for _, client := range h.clients {
		if !client.Trips[tripID] {
			continue
		}
		visible := make([]TypingUser, 0, len(typing))
		for _, t := range typing {
			if t.Email != client.Email {
				visible = append(visible, t)
			}
		}
		event := Event{
			Type:   "typing_update",
			TripID: &tripID,
			Data: TypingUpdateData{
				Typing: visible,
			},
		}
		data, _ := json.Marshal(event)
		select {
		case client.Send <- data:
		default:
		}
	}
	h.mu.RUnlock()
}
