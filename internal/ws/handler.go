package ws

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	logrus "github.com/sirupsen/logrus"

	"vantrack/internal/auth"
	"vantrack/internal/faults"
	"vantrack/internal/tracking"
)

// upgrader configures the WebSocket connection.
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all for development (restrict in production!)
	},
}

// authTimeout bounds every authorization lookup done for a client frame; a
// check that cannot finish in time becomes a denial instead of a hang.
const authTimeout = 5 * time.Second

// clientFrame is the client-to-server message. Drivers publish samples,
// parents subscribe to trips.
type clientFrame struct {
	Action     string   `json:"action"` // "subscribe", "publish", "ping"
	TripID     string   `json:"trip_id"`
	Latitude   float64  `json:"latitude"`
	Longitude  float64  `json:"longitude"`
	SpeedKmh   *float64 `json:"speed_kmh"`
	Heading    *float64 `json:"heading"`
	AccuracyM  *float64 `json:"accuracy_m"`
	TripPhase  string   `json:"trip_phase"`
	RecordedAt string   `json:"recorded_at"`
}

// ParseRecordedAt is lenient: a missing or unparsable timestamp falls back
// to ingestion time downstream.
func ParseRecordedAt(raw string) time.Time {
	if raw == "" {
		return time.Time{}
	}
	if !strings.HasSuffix(raw, "Z") && !strings.ContainsAny(raw[max(0, len(raw)-6):], "+-") {
		raw += "Z"
	}
	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}
	}
	return t
}

// IdentityResolver answers the authorization questions the stream needs:
// which driver or parent record a user resolves to, and whether a parent is
// linked to a driver through a child.
type IdentityResolver interface {
	ResolveDriverID(ctx context.Context, userID uint) (uint, error)
	ResolveParentID(ctx context.Context, userID uint) (uint, error)
	IsParentLinkedToDriver(ctx context.Context, parentID, driverID uint) (bool, error)
}

// Handler upgrades authenticated connections and dispatches their frames.
type Handler struct {
	ids IdentityResolver
	svc *tracking.Service
	hub *Hub
}

// NewHandler builds the WebSocket handler over the identity resolver, the
// tracking engine and the broadcast hub.
func NewHandler(ids IdentityResolver, svc *tracking.Service, hub *Hub) *Handler {
	return &Handler{ids: ids, svc: svc, hub: hub}
}

// Serve is the gin endpoint for the trip stream. Authentication happens
// once at handshake; an invalid credential rejects the upgrade. Every later
// failure is a structured denial on the open connection.
func (h *Handler) Serve(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		header := c.GetHeader("Authorization")
		token = strings.TrimPrefix(header, "Bearer ")
	}
	if token == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing authentication token"})
		return
	}

	userID, role, err := auth.Authenticate(token)
	if err != nil {
		logrus.WithError(err).Warn("WebSocket handshake with invalid token.")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}

	client := &Client{
		hub:    h.hub,
		send:   make(chan []byte, sendQueueSize),
		userID: userID,
		role:   role,
	}
	switch role {
	case "driver":
		driverID, err := h.ids.ResolveDriverID(c.Request.Context(), userID)
		if err != nil {
			c.JSON(http.StatusForbidden, gin.H{"error": "no driver record for caller"})
			return
		}
		client.driverID = driverID
	case "parent":
		parentID, err := h.ids.ResolveParentID(c.Request.Context(), userID)
		if err != nil {
			c.JSON(http.StatusForbidden, gin.H{"error": "no parent record for caller"})
			return
		}
		client.parentID = parentID
	default:
		c.JSON(http.StatusForbidden, gin.H{"error": "unauthorized role for trip stream"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logrus.WithError(err).Error("Failed to upgrade WebSocket connection.")
		return
	}
	client.conn = conn

	logrus.WithFields(logrus.Fields{
		"user_id": userID,
		"role":    role,
	}).Info("Trip stream connection established.")

	go client.writePump()
	h.readPump(client)
}

// readPump consumes client frames until the connection drops, then removes
// the client from every room. No subscription state survives the
// disconnect.
func (h *Handler) readPump(client *Client) {
	defer func() {
		h.hub.LeaveAll(client)
		close(client.send)
	}()

	client.conn.SetReadLimit(maxMessageSize)
	client.conn.SetReadDeadline(time.Now().Add(pongWait))
	client.conn.SetPongHandler(func(string) error {
		client.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := client.conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logrus.WithField("user_id", client.userID).Info("Trip stream closed.")
			} else {
				logrus.WithError(err).WithField("user_id", client.userID).Warn("Trip stream read error.")
			}
			return
		}

		var frame clientFrame
		if err := json.Unmarshal(data, &frame); err != nil {
			client.enqueueFrame(Frame{Type: FrameDenied, Code: "validation_error", Reason: "malformed frame"})
			continue
		}

		switch frame.Action {
		case "ping":
			client.enqueueFrame(Frame{Type: FramePong})
		case "subscribe":
			h.handleSubscribe(client, frame)
		case "publish":
			h.handlePublish(client, frame)
		default:
			client.enqueueFrame(Frame{Type: FrameDenied, Code: "validation_error", Reason: "unknown action"})
		}
	}
}

// handleSubscribe joins a parent to a trip room after verifying the
// parent-driver link through a child record.
func (h *Handler) handleSubscribe(client *Client, frame clientFrame) {
	if client.role != "parent" {
		client.enqueueFrame(Frame{Type: FrameDenied, TripID: frame.TripID, Code: "forbidden", Reason: "only parents subscribe to trips"})
		return
	}
	if frame.TripID == "" {
		client.enqueueFrame(Frame{Type: FrameDenied, Code: "validation_error", Reason: "trip_id is required"})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), authTimeout)
	defer cancel()

	sess, err := h.svc.Get(ctx, frame.TripID)
	if err != nil {
		client.enqueueFrame(denial(frame.TripID, err))
		return
	}
	linked, err := h.ids.IsParentLinkedToDriver(ctx, client.parentID, sess.DriverID)
	if err != nil {
		client.enqueueFrame(denial(frame.TripID, err))
		return
	}
	if !linked {
		client.enqueueFrame(Frame{Type: FrameDenied, TripID: frame.TripID, Code: "forbidden", Reason: "not linked to this trip's driver"})
		return
	}

	h.hub.Join(frame.TripID, client)
	client.enqueueFrame(Frame{Type: FrameSubscribed, TripID: frame.TripID})
}

// handlePublish runs the ingestion pipeline for a driver's sample, joins the
// driver to the room for its own echo, and broadcasts the accepted sample
// followed by each emitted geofence event in order.
func (h *Handler) handlePublish(client *Client, frame clientFrame) {
	if client.role != "driver" {
		client.enqueueFrame(Frame{Type: FrameDenied, TripID: frame.TripID, Code: "forbidden", Reason: "only drivers publish locations"})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), authTimeout)
	defer cancel()

	sample := tracking.Sample{
		TripID:     frame.TripID,
		DriverID:   client.driverID,
		Latitude:   frame.Latitude,
		Longitude:  frame.Longitude,
		SpeedKmh:   frame.SpeedKmh,
		Heading:    frame.Heading,
		AccuracyM:  frame.AccuracyM,
		TripPhase:  frame.TripPhase,
		RecordedAt: ParseRecordedAt(frame.RecordedAt),
	}
	latest, events, err := h.svc.Ingest(ctx, sample)
	if err != nil {
		client.enqueueFrame(denial(frame.TripID, err))
		return
	}

	// The driver joins its own trip room, so multi-device drivers see the
	// echo of their accepted samples.
	h.hub.Join(frame.TripID, client)

	h.hub.Broadcast(frame.TripID, Frame{Type: FrameLocation, TripID: frame.TripID, Payload: latest})
	for i := range events {
		h.hub.Broadcast(frame.TripID, Frame{Type: FrameGeofenceEvent, TripID: frame.TripID, Payload: events[i]})
	}
	client.enqueueFrame(Frame{Type: FrameAck, TripID: frame.TripID, Payload: gin.H{
		"recorded_at": latest.RecordedAt,
		"events":      len(events),
	}})
}

// denial maps an engine error onto a structured denial frame.
func denial(tripID string, err error) Frame {
	reason := err.Error()
	if errors.Is(err, context.DeadlineExceeded) {
		reason = "authorization timed out; retry"
	}
	return Frame{Type: FrameDenied, TripID: tripID, Code: faults.Code(err), Reason: reason}
}
