// Package websocket pushes newly indexed emails to connected browser
// clients so the inbox view updates without polling. Clients subscribe
// by account; a subscription to "*" receives every account's events.
package websocket

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/oneboxhq/onebox-backend/internal/models"
)

// AllAccounts subscribes a client to events from every account.
const AllAccounts = "*"

// MessageType represents the type of WebSocket message
type MessageType string

const (
	MessageTypeSubscribe   MessageType = "subscribe"
	MessageTypeUnsubscribe MessageType = "unsubscribe"
	MessageTypeEmail       MessageType = "email_indexed"
	MessageTypeError       MessageType = "error"
)

// WSMessage represents a WebSocket message
type WSMessage struct {
	Type    MessageType   `json:"type"`
	Account string        `json:"account,omitempty"`
	Email   *EmailPayload `json:"email,omitempty"`
	Error   string        `json:"error,omitempty"`
}

// EmailPayload is the summary of one freshly indexed email pushed to
// subscribers.
type EmailPayload struct {
	ID      string `json:"id"`
	Account string `json:"account"`
	Folder  string `json:"folder"`
	From    string `json:"from"`
	Subject string `json:"subject"`
	Snippet string `json:"snippet"`
	Label   string `json:"label"`
	Date    string `json:"date"`
}

// Hub maintains the set of active clients and broadcasts indexed-email
// events to account subscribers.
type Hub struct {
	// Registered clients
	clients map[*Client]bool

	// Account subscriptions: account -> set of clients
	subscriptions map[string]map[*Client]bool

	register    chan *Client
	unregister  chan *Client
	subscribe   chan *subscriptionRequest
	unsubscribe chan *subscriptionRequest
	broadcast   chan *broadcastMessage

	mu sync.RWMutex

	logger *slog.Logger
}

type subscriptionRequest struct {
	client  *Client
	account string
}

type broadcastMessage struct {
	account string
	message []byte
}

// NewHub creates a new Hub instance
func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		clients:       make(map[*Client]bool),
		subscriptions: make(map[string]map[*Client]bool),
		register:      make(chan *Client),
		unregister:    make(chan *Client),
		subscribe:     make(chan *subscriptionRequest),
		unsubscribe:   make(chan *subscriptionRequest),
		broadcast:     make(chan *broadcastMessage, 256),
		logger:        logger,
	}
}

// Run starts the hub's main loop
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
			if h.logger != nil {
				h.logger.Debug("client registered")
			}

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
				for account, subscribers := range h.subscriptions {
					delete(subscribers, client)
					if len(subscribers) == 0 {
						delete(h.subscriptions, account)
					}
				}
			}
			h.mu.Unlock()
			if h.logger != nil {
				h.logger.Debug("client unregistered")
			}

		case req := <-h.subscribe:
			h.mu.Lock()
			if h.subscriptions[req.account] == nil {
				h.subscriptions[req.account] = make(map[*Client]bool)
			}
			h.subscriptions[req.account][req.client] = true
			h.mu.Unlock()
			if h.logger != nil {
				h.logger.Debug("client subscribed", slog.String("account", req.account))
			}

		case req := <-h.unsubscribe:
			h.mu.Lock()
			if subscribers, ok := h.subscriptions[req.account]; ok {
				delete(subscribers, req.client)
				if len(subscribers) == 0 {
					delete(h.subscriptions, req.account)
				}
			}
			h.mu.Unlock()
			if h.logger != nil {
				h.logger.Debug("client unsubscribed", slog.String("account", req.account))
			}

		case msg := <-h.broadcast:
			h.mu.RLock()
			h.deliver(h.subscriptions[msg.account], msg.message)
			if msg.account != AllAccounts {
				h.deliver(h.subscriptions[AllAccounts], msg.message)
			}
			h.mu.RUnlock()
		}
	}
}

// deliver sends a message to each subscriber, skipping slow clients.
func (h *Hub) deliver(subscribers map[*Client]bool, message []byte) {
	for client := range subscribers {
		select {
		case client.send <- message:
		default:
			// Client buffer full, skip
		}
	}
}

// Register adds a client to the hub
func (h *Hub) Register(client *Client) {
	h.register <- client
}

// Unregister removes a client from the hub
func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}

// Subscribe subscribes a client to an account's events
func (h *Hub) Subscribe(client *Client, account string) {
	h.subscribe <- &subscriptionRequest{client: client, account: account}
}

// Unsubscribe unsubscribes a client from an account's events
func (h *Hub) Unsubscribe(client *Client, account string) {
	h.unsubscribe <- &subscriptionRequest{client: client, account: account}
}

// BroadcastEmail pushes a freshly indexed email to the account's
// subscribers and to wildcard subscribers.
func (h *Hub) BroadcastEmail(email *models.Email) {
	msg := WSMessage{
		Type:    MessageTypeEmail,
		Account: email.Account,
		Email: &EmailPayload{
			ID:      email.ID,
			Account: email.Account,
			Folder:  email.Folder,
			From:    email.From,
			Subject: email.Subject,
			Snippet: email.Snippet,
			Label:   email.Label,
			Date:    email.Date.Format(time.RFC3339),
		},
	}

	data, err := json.Marshal(msg)
	if err != nil {
		if h.logger != nil {
			h.logger.Error("failed to marshal broadcast message", slog.Any("error", err))
		}
		return
	}

	h.broadcast <- &broadcastMessage{
		account: email.Account,
		message: data,
	}
}
