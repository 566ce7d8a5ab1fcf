package websocket

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Medcom-Aysharh/adabul-islam-game/internal/domain"
)

// Message types
const (
	MessageTypeStarsAwarded        = "stars_awarded"
	MessageTypeAchievementUnlocked = "achievement_unlocked"
	MessageTypeScoreRecorded       = "score_recorded"
	MessageTypeSubscribe           = "subscribe"
	MessageTypeUnsubscribe         = "unsubscribe"
	MessageTypePing                = "ping"
	MessageTypePong                = "pong"
	MessageTypeError               = "error"
)

// Message represents a WebSocket message
type Message struct {
	Type      string      `json:"type"`
	EventID   string      `json:"eventId,omitempty"`
	UserID    int         `json:"userId,omitempty"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

// StarsAwarded is the payload broadcast when a learner earns stars
type StarsAwarded struct {
	UserID     int    `json:"userId"`
	Stars      int    `json:"stars"`
	TotalStars int    `json:"totalStars"`
	Source     string `json:"source"`
}

// ScoreRecorded is the payload broadcast when a play session is stored
type ScoreRecorded struct {
	Score       domain.GameScore `json:"score"`
	StarsEarned int              `json:"starsEarned"`
}

// Hub maintains the set of active clients and broadcasts reward events.
// Clients may subscribe to a single learner's events; unsubscribed
// events go to everyone.
type Hub struct {
	// Registered clients by subscribed learner id
	clients map[int]map[*Client]bool

	// All connected clients
	allClients map[*Client]bool

	// Register requests from clients
	register chan *Client

	// Unregister requests from clients
	unregister chan *Client

	// Outbound reward events
	broadcast chan *Message

	// Subscription requests
	subscribe chan *subscriptionRequest

	// Unsubscription requests
	unsubscribe chan *subscriptionRequest

	mu sync.RWMutex

	logger *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
}

type subscriptionRequest struct {
	client *Client
	userID int
}

// NewHub creates a new Hub
func NewHub(logger *slog.Logger) *Hub {
	ctx, cancel := context.WithCancel(context.Background())
	return &Hub{
		clients:     make(map[int]map[*Client]bool),
		allClients:  make(map[*Client]bool),
		register:    make(chan *Client),
		unregister:  make(chan *Client),
		broadcast:   make(chan *Message, 256),
		subscribe:   make(chan *subscriptionRequest, 64),
		unsubscribe: make(chan *subscriptionRequest, 64),
		logger:      logger,
		ctx:         ctx,
		cancel:      cancel,
	}
}

// Run starts the hub's main loop
func (h *Hub) Run() {
	h.logger.Info("WebSocket hub started")
	for {
		select {
		case <-h.ctx.Done():
			h.logger.Info("WebSocket hub stopping")
			return

		case client := <-h.register:
			h.mu.Lock()
			h.allClients[client] = true
			h.mu.Unlock()
			h.logger.Debug("client registered", "client_id", client.id)

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.allClients[client]; ok {
				delete(h.allClients, client)
				// Remove from all learner subscriptions
				for userID, clients := range h.clients {
					if _, ok := clients[client]; ok {
						delete(clients, client)
						if len(clients) == 0 {
							delete(h.clients, userID)
						}
					}
				}
				close(client.send)
			}
			h.mu.Unlock()
			h.logger.Debug("client unregistered", "client_id", client.id)

		case req := <-h.subscribe:
			h.mu.Lock()
			if _, ok := h.clients[req.userID]; !ok {
				h.clients[req.userID] = make(map[*Client]bool)
			}
			h.clients[req.userID][req.client] = true
			h.mu.Unlock()
			h.logger.Debug("client subscribed", "client_id", req.client.id, "user_id", req.userID)

		case req := <-h.unsubscribe:
			h.mu.Lock()
			if clients, ok := h.clients[req.userID]; ok {
				delete(clients, req.client)
				if len(clients) == 0 {
					delete(h.clients, req.userID)
				}
			}
			h.mu.Unlock()
			h.logger.Debug("client unsubscribed", "client_id", req.client.id, "user_id", req.userID)

		case message := <-h.broadcast:
			h.broadcastMessage(message)
		}
	}
}

// Stop stops the hub
func (h *Hub) Stop() {
	h.cancel()
}

// broadcastMessage sends a message to subscribed clients, or to every
// client when the message has no learner id
func (h *Hub) broadcastMessage(message *Message) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	data, err := json.Marshal(message)
	if err != nil {
		h.logger.Error("failed to marshal message", "error", err)
		return
	}

	if message.UserID != 0 {
		if clients, ok := h.clients[message.UserID]; ok {
			for client := range clients {
				select {
				case client.send <- data:
				default:
					// Client's buffer is full, skip
					h.logger.Warn("client buffer full, skipping", "client_id", client.id)
				}
			}
		}
		return
	}

	for client := range h.allClients {
		select {
		case client.send <- data:
		default:
			h.logger.Warn("client buffer full, skipping", "client_id", client.id)
		}
	}
}

// enqueue queues a message for broadcast, dropping it when the channel
// is saturated
func (h *Hub) enqueue(message *Message) {
	select {
	case h.broadcast <- message:
	default:
		h.logger.Warn("broadcast channel full, dropping message")
	}
}

// NotifyStarsAwarded broadcasts a star credit to the learner's subscribers
func (h *Hub) NotifyStarsAwarded(userID, stars, totalStars int, source string) {
	h.enqueue(&Message{
		Type:    MessageTypeStarsAwarded,
		EventID: uuid.New().String(),
		UserID:  userID,
		Data: StarsAwarded{
			UserID:     userID,
			Stars:      stars,
			TotalStars: totalStars,
			Source:     source,
		},
		Timestamp: time.Now(),
	})
}

// NotifyAchievementUnlocked broadcasts an achievement unlock
func (h *Hub) NotifyAchievementUnlocked(achievement domain.Achievement) {
	h.enqueue(&Message{
		Type:      MessageTypeAchievementUnlocked,
		EventID:   uuid.New().String(),
		UserID:    achievement.UserID,
		Data:      achievement,
		Timestamp: time.Now(),
	})
}

// NotifyScoreRecorded broadcasts a stored play session
func (h *Hub) NotifyScoreRecorded(score domain.GameScore, starsEarned int) {
	h.enqueue(&Message{
		Type:    MessageTypeScoreRecorded,
		EventID: uuid.New().String(),
		UserID:  score.UserID,
		Data: ScoreRecorded{
			Score:       score,
			StarsEarned: starsEarned,
		},
		Timestamp: time.Now(),
	})
}

// Register adds a client to the hub
func (h *Hub) Register(client *Client) {
	h.register <- client
}

// Unregister removes a client from the hub
func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}

// Subscribe adds a client to a learner's event stream
func (h *Hub) Subscribe(client *Client, userID int) {
	h.subscribe <- &subscriptionRequest{
		client: client,
		userID: userID,
	}
}

// Unsubscribe removes a client from a learner's event stream
func (h *Hub) Unsubscribe(client *Client, userID int) {
	h.unsubscribe <- &subscriptionRequest{
		client: client,
		userID: userID,
	}
}

// GetSubscriberCount returns the number of subscribers for a learner
func (h *Hub) GetSubscriberCount(userID int) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if clients, ok := h.clients[userID]; ok {
		return len(clients)
	}
	return 0
}

// GetTotalConnections returns the total number of connected clients
func (h *Hub) GetTotalConnections() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.allClients)
}
