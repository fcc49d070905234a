package sse

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/dkovac/tripmates-api/internal/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(id string, trips ...uuid.UUID) *Client {
	subscriptions := make(map[uuid.UUID]bool)
	for _, tripID := range trips {
		subscriptions[tripID] = true
	}
	return &Client{
		ID:    id,
		Email: id + "@example.com",
		Trips: subscriptions,
		Send:  make(chan []byte, 256),
	}
}

func registered(h *Hub, clientID string) func() bool {
	return func() bool {
		h.mu.RLock()
		defer h.mu.RUnlock()
		_, ok := h.clients[clientID]
		return ok
	}
}

func TestNewHub(t *testing.T) {
	h := NewHub()

	assert.NotNil(t, h.clients)
	assert.NotNil(t, h.register)
	assert.NotNil(t, h.unregister)
	assert.NotNil(t, h.broadcast)
}

func TestHub_RegisterAndUnregister(t *testing.T) {
	h := NewHub()
	go h.Run()

	client := newTestClient("client-1")
	h.Register(client)

	require.Eventually(t, registered(h, client.ID), time.Second, 5*time.Millisecond)

	h.Unregister(client)

	require.Eventually(t, func() bool {
		return !registered(h, client.ID)()
	}, time.Second, 5*time.Millisecond)

	// Unregister closes the send channel so the handler's write loop exits.
	_, ok := <-client.Send
	assert.False(t, ok)
}

func TestHub_SubscribeAndUnsubscribe(t *testing.T) {
	h := NewHub()
	go h.Run()

	client := newTestClient("client-1")
	tripID := uuid.New()

	h.Register(client)
	require.Eventually(t, registered(h, client.ID), time.Second, 5*time.Millisecond)

	h.SubscribeToTrip(client.ID, tripID)

	h.mu.RLock()
	subscribed := client.Trips[tripID]
	h.mu.RUnlock()
	assert.True(t, subscribed)

	h.UnsubscribeFromTrip(client.ID, tripID)

	h.mu.RLock()
	subscribed = client.Trips[tripID]
	h.mu.RUnlock()
	assert.False(t, subscribed)
}

func TestHub_BroadcastTripUpdate_ToSubscribedClient(t *testing.T) {
	h := NewHub()
	go h.Run()

	tripID := uuid.New()
	client := newTestClient("client-1", tripID)

	h.Register(client)
	require.Eventually(t, registered(h, client.ID), time.Second, 5*time.Millisecond)

	h.BroadcastTripUpdate(&models.Trip{ID: tripID, Name: "Lisbon 2026", Version: 4}, "ana@example.com")

	select {
	case msg := <-client.Send:
		var event Event
		require.NoError(t, json.Unmarshal(msg, &event))
		assert.Equal(t, "trip_updated", event.Type)

		dataBytes, _ := json.Marshal(event.Data)
		var update TripUpdatedEvent
		require.NoError(t, json.Unmarshal(dataBytes, &update))
		assert.Equal(t, tripID, update.TripID)
		assert.Equal(t, 4, update.Version)
		assert.Equal(t, "ana@example.com", update.ModifiedBy)
		require.NotNil(t, update.Trip)
		assert.Equal(t, "Lisbon 2026", update.Trip.Name)

	case <-time.After(time.Second):
		t.Fatal("did not receive message")
	}
}

func TestHub_BroadcastTripUpdate_NotToUnsubscribedClient(t *testing.T) {
	h := NewHub()
	go h.Run()

	client := newTestClient("client-1", uuid.New())

	h.Register(client)
	require.Eventually(t, registered(h, client.ID), time.Second, 5*time.Millisecond)

	h.BroadcastTripUpdate(&models.Trip{ID: uuid.New(), Version: 1}, "ana@example.com")

	select {
	case <-client.Send:
		t.Fatal("should not have received message")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHub_BroadcastTasksUpdated_ToMultipleClients(t *testing.T) {
	h := NewHub()
	go h.Run()

	tripID := uuid.New()
	client1 := newTestClient("client-1", tripID)
	client2 := newTestClient("client-2", tripID)
	client3 := newTestClient("client-3", uuid.New())

	h.Register(client1)
	h.Register(client2)
	h.Register(client3)
	require.Eventually(t, func() bool {
		return registered(h, client1.ID)() && registered(h, client2.ID)() && registered(h, client3.ID)()
	}, time.Second, 5*time.Millisecond)

	h.BroadcastTasksUpdated(tripID, "task-passports", "assigned", "ana@example.com")

	for _, client := range []*Client{client1, client2} {
		select {
		case msg := <-client.Send:
			var event Event
			require.NoError(t, json.Unmarshal(msg, &event))
			assert.Equal(t, "tasks_updated", event.Type)

			dataBytes, _ := json.Marshal(event.Data)
			var update TasksUpdatedEvent
			require.NoError(t, json.Unmarshal(dataBytes, &update))
			assert.Equal(t, "task-passports", update.TaskID)
			assert.Equal(t, "assigned", update.Action)

		case <-time.After(time.Second):
			t.Fatalf("client %s did not receive message", client.ID)
		}
	}

	select {
	case <-client3.Send:
		t.Fatal("client subscribed to another trip should not receive message")
	case <-time.After(50 * time.Millisecond):
	}
}
