package ws

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(h *Hub) *Client {
	return &Client{
		hub:  h,
		send: make(chan []byte, sendQueueSize),
		role: "parent",
	}
}

func TestHubJoinAndLeave(t *testing.T) {
	h := NewHub()
	c := newTestClient(h)

	assert.False(t, h.InRoom("trip-1", c))

	h.Join("trip-1", c)
	h.Join("trip-1", c) // idempotent
	h.Join("trip-2", c)
	assert.True(t, h.InRoom("trip-1", c))
	assert.True(t, h.InRoom("trip-2", c))

	h.LeaveAll(c)
	assert.False(t, h.InRoom("trip-1", c))
	assert.False(t, h.InRoom("trip-2", c))
}

func TestBroadcastReachesOnlyRoomMembers(t *testing.T) {
	h := NewHub()
	member := newTestClient(h)
	other := newTestClient(h)
	h.Join("trip-1", member)
	h.Join("trip-2", other)

	h.Broadcast("trip-1", Frame{Type: FrameLocation, TripID: "trip-1"})

	require.Len(t, member.send, 1)
	assert.Empty(t, other.send)

	var f Frame
	require.NoError(t, json.Unmarshal(<-member.send, &f))
	assert.Equal(t, FrameLocation, f.Type)
	assert.Equal(t, "trip-1", f.TripID)
}

func TestEnqueueDropsOldestWhenFull(t *testing.T) {
	h := NewHub()
	c := newTestClient(h)

	for i := 0; i < sendQueueSize; i++ {
		c.enqueue([]byte{byte(i)})
	}
	require.Len(t, c.send, sendQueueSize)
	assert.False(t, c.behind.Load())

	// One over capacity: the oldest frame goes, the new one gets in, and
	// the client is flagged behind.
	c.enqueue([]byte{255})
	assert.Len(t, c.send, sendQueueSize)
	assert.True(t, c.behind.Load())

	first := <-c.send
	assert.Equal(t, []byte{1}, first, "frame 0 was dropped")

	var last []byte
	for len(c.send) > 0 {
		last = <-c.send
	}
	assert.Equal(t, []byte{255}, last, "newest frame was kept")
}

func TestBroadcastNeverBlocksOnSlowClient(t *testing.T) {
	h := NewHub()
	slow := newTestClient(h)
	h.Join("trip-1", slow)

	// Far more frames than the queue holds; Broadcast must return anyway.
	for i := 0; i < sendQueueSize*3; i++ {
		h.Broadcast("trip-1", Frame{Type: FrameLocation, TripID: "trip-1"})
	}
	assert.Len(t, slow.send, sendQueueSize)
	assert.True(t, slow.behind.Load())
}

func TestParseRecordedAt(t *testing.T) {
	got := ParseRecordedAt("2026-03-02T07:00:00Z")
	assert.Equal(t, 2026, got.Year())
	assert.Equal(t, 7, got.Hour())

	// Missing zone suffix is treated as UTC.
	lenient := ParseRecordedAt("2026-03-02T07:00:00")
	assert.True(t, got.Equal(lenient))

	// Explicit offsets are honored.
	offset := ParseRecordedAt("2026-03-02T10:00:00+03:00")
	assert.True(t, got.Equal(offset))

	assert.True(t, ParseRecordedAt("").IsZero())
	assert.True(t, ParseRecordedAt("not-a-time").IsZero())
}
