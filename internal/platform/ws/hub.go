package ws

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"shora/contexts/council-governance/decision-engine/ports"
)

// decisionTopics are the event types forwarded to connected clients.
var decisionTopics = []string{
	"decision.created",
	"decision.updated",
	"decision.proposed",
	"decision.vote_cast",
	"decision.approved",
	"decision.rejected",
	"decision.implemented",
}

type subscriber interface {
	Subscribe(ctx context.Context, topic string, consumerGroup string, handler func(context.Context, ports.EventEnvelope) error) error
}

// pushMessage is the frame written to clients in a place room.
type pushMessage struct {
	Type      string              `json:"type"`
	Room      string              `json:"room"`
	EventType string              `json:"event_type"`
	Event     ports.EventEnvelope `json:"event"`
}

// Hub fans decision events out to websocket clients. Clients subscribe
// to a single place room; rooms are named place-{id} and delivery is
// push only.
type Hub struct {
	mu    sync.RWMutex
	rooms map[string]map[*Client]bool

	register   chan *Client
	unregister chan *Client
	logger     *slog.Logger
}

func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		rooms:      make(map[string]map[*Client]bool),
		register:   make(chan *Client, 64),
		unregister: make(chan *Client, 64),
		logger:     logger,
	}
}

// Run owns room membership until ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return
		case client := <-h.register:
			h.addClient(client)
		case client := <-h.unregister:
			h.removeClient(client)
		}
	}
}

// AttachBus subscribes the hub to every decision topic and forwards
// events to the room of the decision's place.
func (h *Hub) AttachBus(ctx context.Context, bus subscriber) error {
	for _, topic := range decisionTopics {
		if err := bus.Subscribe(ctx, topic, "ws-hub", h.forward); err != nil {
			return err
		}
	}
	return nil
}

func (h *Hub) forward(_ context.Context, event ports.EventEnvelope) error {
	if event.PlaceID == "" {
		return nil
	}
	room := RoomForPlace(event.PlaceID)
	frame, err := json.Marshal(pushMessage{
		Type:      "decision-updated",
		Room:      room,
		EventType: event.EventType,
		Event:     event,
	})
	if err != nil {
		return err
	}
	h.SendToRoom(room, frame)
	return nil
}

// SendToRoom writes the frame to every client in the room. Clients with
// a full send buffer are dropped rather than blocking the hub.
func (h *Hub) SendToRoom(room string, frame []byte) {
	h.mu.RLock()
	clients := h.rooms[room]
	dead := make([]*Client, 0)
	for client := range clients {
		select {
		case client.send <- frame:
		default:
			dead = append(dead, client)
		}
	}
	h.mu.RUnlock()

	for _, client := range dead {
		h.logger.Warn("dropping slow websocket client",
			"event", "ws_client_dropped",
			"module", "internal/platform/ws",
			"layer", "platform",
			"room", room,
			"user_id", client.userID,
		)
		select {
		case h.unregister <- client:
		default:
		}
	}
}

// RoomCount reports connected clients in a room. Used by tests and the
// health endpoint.
func (h *Hub) RoomCount(room string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[room])
}

func (h *Hub) addClient(client *Client) {
	h.mu.Lock()
	if _, ok := h.rooms[client.room]; !ok {
		h.rooms[client.room] = make(map[*Client]bool)
	}
	h.rooms[client.room][client] = true
	h.mu.Unlock()

	h.logger.Info("websocket client connected",
		"event", "ws_client_connected",
		"module", "internal/platform/ws",
		"layer", "platform",
		"room", client.room,
		"user_id", client.userID,
	)
}

func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	if clients, ok := h.rooms[client.room]; ok {
		if _, found := clients[client]; found {
			delete(clients, client)
			close(client.send)
			if len(clients) == 0 {
				delete(h.rooms, client.room)
			}
		}
	}
	h.mu.Unlock()
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for room, clients := range h.rooms {
		for client := range clients {
			close(client.send)
		}
		delete(h.rooms, room)
	}
}

// RoomForPlace names the room clients join for a place's updates.
func RoomForPlace(placeID string) string {
	return "place-" + placeID
}
