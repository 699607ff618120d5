// Package ws is the real-time dissemination layer: one WebSocket connection
// per client, per-trip broadcast rooms, and bounded outbound queues so a
// slow subscriber can never back-pressure a driver's publish path.
package ws

import (
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	logrus "github.com/sirupsen/logrus"

	"vantrack/internal/metrics"
)

// Frame types sent to clients.
const (
	FrameLocation      = "location"
	FrameGeofenceEvent = "geofence_event"
	FrameSubscribed    = "subscribed"
	FrameAck           = "ack"
	FrameDenied        = "denied"
	FrameResync        = "resync"
	FramePong          = "pong"
)

// Frame is the server-to-client message envelope. Denials carry a code from
// the shared error taxonomy and never close the connection.
type Frame struct {
	Type    string      `json:"type"`
	TripID  string      `json:"trip_id,omitempty"`
	Payload interface{} `json:"payload,omitempty"`
	Code    string      `json:"code,omitempty"`
	Reason  string      `json:"reason,omitempty"`
}

const (
	sendQueueSize  = 64
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
)

// Client is one authenticated WebSocket connection.
type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	send   chan []byte
	behind atomic.Bool

	userID   uint
	role     string
	driverID uint // set when role == driver
	parentID uint // set when role == parent
}

// enqueue hands a frame to the client's writer without ever blocking the
// caller. When the queue is full the oldest frame is dropped and the client
// is flagged as behind; the writer then prepends a resync hint so the client
// knows to re-read the HTTP read paths before trusting the stream again.
func (c *Client) enqueue(data []byte) {
	select {
	case c.send <- data:
		return
	default:
	}
	select {
	case <-c.send:
		metrics.BroadcastsDropped.Inc()
	default:
	}
	c.behind.Store(true)
	select {
	case c.send <- data:
	default:
		metrics.BroadcastsDropped.Inc()
	}
}

// enqueueFrame marshals and enqueues a frame.
func (c *Client) enqueueFrame(f Frame) {
	data, err := json.Marshal(f)
	if err != nil {
		logrus.WithError(err).Error("Failed to marshal WebSocket frame.")
		return
	}
	c.enqueue(data)
}

// writePump drains the send queue onto the wire and keeps the connection
// alive with pings. It exits when the queue is closed or a write fails.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	resync, _ := json.Marshal(Frame{
		Type:   FrameResync,
		Reason: "messages dropped; re-read latest position and recent history",
	})
	for {
		select {
		case data, ok := <-c.send:
			if !ok {
				c.conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
				return
			}
			if c.behind.CompareAndSwap(true, false) {
				c.conn.SetWriteDeadline(time.Now().Add(writeWait))
				if err := c.conn.WriteMessage(websocket.TextMessage, resync); err != nil {
					return
				}
			}
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// Hub owns the per-trip broadcast rooms. Membership lives only in process
// memory: a reconnecting client must re-subscribe, and there is no replay.
type Hub struct {
	mu    sync.RWMutex
	rooms map[string]map[*Client]bool
}

// NewHub returns an empty hub.
func NewHub() *Hub {
	return &Hub{rooms: make(map[string]map[*Client]bool)}
}

// Join adds a client to a trip's room.
func (h *Hub) Join(tripID string, c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	room, ok := h.rooms[tripID]
	if !ok {
		room = make(map[*Client]bool)
		h.rooms[tripID] = room
	}
	if !room[c] {
		room[c] = true
		metrics.SubscribersConnected.Inc()
		logrus.WithFields(logrus.Fields{
			"trip_id": tripID,
			"user_id": c.userID,
			"role":    c.role,
		}).Info("Client joined trip room.")
	}
}

// LeaveAll removes a client from every room; called on disconnect.
func (h *Hub) LeaveAll(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for tripID, room := range h.rooms {
		if room[c] {
			delete(room, c)
			metrics.SubscribersConnected.Dec()
			if len(room) == 0 {
				delete(h.rooms, tripID)
			}
		}
	}
}

// InRoom reports whether the client is a member of the trip's room.
func (h *Hub) InRoom(tripID string, c *Client) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.rooms[tripID][c]
}

// Broadcast fans one frame out to every member of a trip's room. The frame
// is marshaled once; delivery is enqueue-only so the caller never blocks on
// a slow subscriber.
func (h *Hub) Broadcast(tripID string, f Frame) {
	data, err := json.Marshal(f)
	if err != nil {
		logrus.WithError(err).Error("Failed to marshal broadcast frame.")
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.rooms[tripID] {
		c.enqueue(data)
	}
}
