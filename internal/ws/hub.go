package ws

import (
	"encoding/json"
	"log"
	"sync"

	"github.com/gorilla/websocket"
)

type WSMessage struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// Hub fans room state changes out to every connected client of a room.
type Hub struct {
	mu    sync.RWMutex
	rooms map[uint]map[*websocket.Conn]bool
}

func NewHub() *Hub {
	return &Hub{
		rooms: make(map[uint]map[*websocket.Conn]bool),
	}
}

func (h *Hub) AddConnection(roomID uint, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.rooms[roomID] == nil {
		h.rooms[roomID] = make(map[*websocket.Conn]bool)
	}
	h.rooms[roomID][conn] = true
	log.Printf("ws: client connected to room %d (total: %d)", roomID, len(h.rooms[roomID]))
}

func (h *Hub) RemoveConnection(roomID uint, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if conns, ok := h.rooms[roomID]; ok {
		delete(conns, conn)
		conn.Close()
		if len(conns) == 0 {
			delete(h.rooms, roomID)
		}
		log.Printf("ws: client disconnected from room %d", roomID)
	}
}

func (h *Hub) Broadcast(roomID uint, message WSMessage) {
	h.mu.Lock()
	defer h.mu.Unlock()

	conns, ok := h.rooms[roomID]
	if !ok {
		return
	}

	data, err := json.Marshal(message)
	if err != nil {
		log.Printf("ws: marshal error: %v", err)
		return
	}

	for conn := range conns {
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			log.Printf("ws: write error: %v", err)
			conn.Close()
			delete(conns, conn)
		}
	}
}
