package ws

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap/zaptest"
)

func receive(t *testing.T, ch <-chan []byte) ([]byte, bool) {
	t.Helper()
	select {
	case data, ok := <-ch:
		return data, ok
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for hub")
		return nil, false
	}
}

func newConn(h *Hub, id string) *Connection {
	return &Connection{SubmissionID: id, Send: make(chan []byte, 4), Hub: h}
}

func TestHub_BroadcastAndClose(t *testing.T) {
	defer goleak.VerifyNone(t)

	h := NewHub(zaptest.NewLogger(t))
	defer h.Close()

	a, b, other := newConn(h, "sub-1"), newConn(h, "sub-1"), newConn(h, "sub-2")
	h.Register(a)
	h.Register(b)
	h.Register(other)
	assert.Equal(t, 2, h.Subscribers("sub-1"))

	h.BroadcastSubmission("sub-1", "audit_ready", map[string]string{"id": "sub-1"})
	h.CloseSubmission("sub-1")

	for _, conn := range []*Connection{a, b} {
		data, ok := receive(t, conn.Send)
		require.True(t, ok)
		var msg Message
		require.NoError(t, json.Unmarshal(data, &msg))
		assert.Equal(t, MessageType("audit_ready"), msg.Type)
		assert.JSONEq(t, `{"id":"sub-1"}`, string(msg.Payload))

		_, ok = receive(t, conn.Send)
		assert.False(t, ok, "send channel closed after CloseSubmission")
	}

	assert.Equal(t, 0, h.Subscribers("sub-1"))
	assert.Equal(t, 1, h.Subscribers("sub-2"))
	assert.Empty(t, other.Send)
}

func TestHub_SendFinalSkipsClosedConnection(t *testing.T) {
	defer goleak.VerifyNone(t)

	h := NewHub(zaptest.NewLogger(t))
	defer h.Close()

	conn := newConn(h, "sub-1")
	h.Register(conn)
	h.BroadcastSubmission("sub-1", "audit_ready", "first")
	h.CloseSubmission("sub-1")
	h.SendFinal(conn, "audit_ready", "second")

	data, ok := receive(t, conn.Send)
	require.True(t, ok)
	assert.Contains(t, string(data), "first")
	_, ok = receive(t, conn.Send)
	assert.False(t, ok)
}

func TestHub_SendFinal(t *testing.T) {
	defer goleak.VerifyNone(t)

	h := NewHub(zaptest.NewLogger(t))
	defer h.Close()

	conn, peer := newConn(h, "sub-1"), newConn(h, "sub-1")
	h.Register(conn)
	h.Register(peer)
	h.SendFinal(conn, "audit_failed", "late")

	data, ok := receive(t, conn.Send)
	require.True(t, ok)
	assert.Contains(t, string(data), "audit_failed")
	_, ok = receive(t, conn.Send)
	assert.False(t, ok)

	assert.Equal(t, 1, h.Subscribers("sub-1"))
	assert.Empty(t, peer.Send)
}

func TestHub_CloseReleasesEverything(t *testing.T) {
	defer goleak.VerifyNone(t)

	h := NewHub(zaptest.NewLogger(t))
	conn := newConn(h, "sub-1")
	h.Register(conn)

	h.Close()
	_, ok := receive(t, conn.Send)
	assert.False(t, ok)

	// calls after Close must not block
	h.Close()
	h.Unregister(conn)
	h.BroadcastSubmission("sub-1", "audit_ready", nil)

	late := newConn(h, "sub-2")
	h.Register(late)
	_, ok = receive(t, late.Send)
	assert.False(t, ok)
}
