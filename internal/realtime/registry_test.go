package realtime

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeConn struct {
	mu     sync.Mutex
	events []Event
	failWrite bool
	closed bool
}

func (c *fakeConn) WriteJSON(v interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failWrite {
		return errors.New("write failed")
	}
	if event, ok := v.(Event); ok {
		c.events = append(c.events, event)
	}
	return nil
}

func (c *fakeConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *fakeConn) received() []Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Event{}, c.events...)
}

func TestRegistry_RegisterAndSendToUser(t *testing.T) {
	registry := NewRegistry(zap.NewNop())
	conn := &fakeConn{}

	assert.False(t, registry.IsUserConnected("u1"))
	assert.Equal(t, 0, registry.SendToUser("u1", Event{Name: "ping"}))

	registry.Register("u1", conn)
	assert.True(t, registry.IsUserConnected("u1"))
	assert.Equal(t, 1, registry.ConnectionCount("u1"))

	sent := registry.SendToUser("u1", Event{Name: "alert_level_changed"})
	assert.Equal(t, 1, sent)
	require.Len(t, conn.received(), 1)
	assert.Equal(t, "alert_level_changed", conn.received()[0].Name)
}

func TestRegistry_UnregisterPrunesEmptyEntry(t *testing.T) {
	registry := NewRegistry(zap.NewNop())
	first := &fakeConn{}
	second := &fakeConn{}

	registry.Register("u1", first)
	registry.Register("u1", second)
	assert.Equal(t, 2, registry.ConnectionCount("u1"))

	registry.Unregister(first)
	assert.Equal(t, 1, registry.ConnectionCount("u1"))
	registry.Unregister(second)
	assert.False(t, registry.IsUserConnected("u1"))
	assert.Equal(t, 0, registry.ConnectionCount("u1"))
}

func TestRegistry_TicketRoomBroadcast(t *testing.T) {
	registry := NewRegistry(zap.NewNop())
	inRoom := &fakeConn{}
	outOfRoom := &fakeConn{}

	registry.Register("u1", inRoom)
	registry.Register("u2", outOfRoom)
	registry.JoinTicketRoom(inRoom, "t1")

	sent := registry.BroadcastToTicketRoom("t1", "reopen_requested", map[string]string{"request_id": "r1"})
	assert.Equal(t, 1, sent)
	assert.Len(t, inRoom.received(), 1)
	assert.Empty(t, outOfRoom.received())

	registry.LeaveTicketRoom(inRoom, "t1")
	assert.Equal(t, 0, registry.BroadcastToTicketRoom("t1", "chat_unlocked", nil))
}

func TestRegistry_BrokenConnDoesNotBlockOthers(t *testing.T) {
	registry := NewRegistry(zap.NewNop())
	broken := &fakeConn{failWrite: true}
	healthy := &fakeConn{}

	registry.Register("u1", broken)
	registry.Register("u1", healthy)

	sent := registry.SendToUser("u1", Event{Name: "ping"})
	assert.Equal(t, 1, sent)
	assert.Len(t, healthy.received(), 1)
}

func TestRegistry_CloseDropsEverything(t *testing.T) {
	registry := NewRegistry(zap.NewNop())
	conn := &fakeConn{}
	registry.Register("u1", conn)

	registry.Close()
	assert.True(t, conn.closed)
	assert.False(t, registry.IsUserConnected("u1"))

	late := &fakeConn{}
	registry.Register("u2", late)
	assert.True(t, late.closed)
	assert.False(t, registry.IsUserConnected("u2"))
}
