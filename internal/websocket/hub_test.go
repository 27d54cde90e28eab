package websocket

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/oneboxhq/onebox-backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(hub *Hub) *Client {
	return &Client{hub: hub, send: make(chan []byte, 16)}
}

func runHub(t *testing.T) *Hub {
	t.Helper()
	hub := NewHub(nil)
	go hub.Run()
	return hub
}

func waitForMessage(t *testing.T, c *Client) WSMessage {
	t.Helper()
	select {
	case data := <-c.send:
		var msg WSMessage
		require.NoError(t, json.Unmarshal(data, &msg))
		return msg
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for hub message")
		return WSMessage{}
	}
}

// TestHub_BroadcastToAccountSubscriber tests that an indexed email
// reaches clients subscribed to its account
func TestHub_BroadcastToAccountSubscriber(t *testing.T) {
	hub := runHub(t)
	client := newTestClient(hub)
	hub.Register(client)
	hub.Subscribe(client, "user@example.com")

	hub.BroadcastEmail(&models.Email{
		ID:      "id-1",
		Account: "user@example.com",
		Folder:  "INBOX",
		Subject: "Hello",
		Snippet: "Hello, just checking in.",
		Label:   "Interested",
		Date:    time.Now().UTC(),
	})

	msg := waitForMessage(t, client)
	assert.Equal(t, MessageTypeEmail, msg.Type)
	assert.Equal(t, "user@example.com", msg.Account)
	require.NotNil(t, msg.Email)
	assert.Equal(t, "Hello, just checking in.", msg.Email.Snippet)
}

// TestHub_WildcardSubscriber tests that a "*" subscription receives
// events for every account
func TestHub_WildcardSubscriber(t *testing.T) {
	hub := runHub(t)
	client := newTestClient(hub)
	hub.Register(client)
	hub.Subscribe(client, AllAccounts)

	hub.BroadcastEmail(&models.Email{ID: "id-1", Account: "a@example.com", Date: time.Now().UTC()})
	hub.BroadcastEmail(&models.Email{ID: "id-2", Account: "b@example.com", Date: time.Now().UTC()})

	first := waitForMessage(t, client)
	second := waitForMessage(t, client)
	assert.Equal(t, "a@example.com", first.Account)
	assert.Equal(t, "b@example.com", second.Account)
}

// TestHub_OtherAccountNotDelivered tests subscription isolation
func TestHub_OtherAccountNotDelivered(t *testing.T) {
	hub := runHub(t)
	client := newTestClient(hub)
	hub.Register(client)
	hub.Subscribe(client, "a@example.com")

	hub.BroadcastEmail(&models.Email{ID: "id-1", Account: "b@example.com", Date: time.Now().UTC()})

	select {
	case <-client.send:
		t.Fatal("client received an event for an account it is not subscribed to")
	case <-time.After(100 * time.Millisecond):
	}
}

// TestHub_UnregisterStopsDelivery tests that unregistered clients no
// longer receive broadcasts
func TestHub_UnregisterStopsDelivery(t *testing.T) {
	hub := runHub(t)
	client := newTestClient(hub)
	hub.Register(client)
	hub.Subscribe(client, "a@example.com")
	hub.Unregister(client)

	// The send channel is closed on unregister.
	select {
	case _, ok := <-client.send:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("send channel was not closed on unregister")
	}
}
