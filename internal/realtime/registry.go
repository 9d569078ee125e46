package realtime

import (
	"sync"

	"go.uber.org/zap"
)

// Event is the envelope pushed over a live connection.
type Event struct {
	Name    string      `json:"event"`
	Payload interface{} `json:"payload,omitempty"`
}

// Conn is the minimal push surface a live connection must provide. The
// websocket handler adapts its connection type to this interface.
type Conn interface {
	WriteJSON(v interface{}) error
	Close() error
}

// Registry tracks live connections per user and per ticket room. It owns
// the connection map with an explicit lifecycle instead of ambient global
// state. Process-local: multi-instance deployments need an external shared
// pub/sub to fan out across processes.
type Registry struct {
	mu        sync.RWMutex
	logger    *zap.Logger
	users     map[string]map[Conn]struct{}
	rooms     map[string]map[Conn]struct{}
	connUser  map[Conn]string
	connRooms map[Conn]map[string]struct{}
	closed    bool
}

// NewRegistry creates an empty registry.
func NewRegistry(logger *zap.Logger) *Registry {
	return &Registry{
		logger:    logger,
		users:     make(map[string]map[Conn]struct{}),
		rooms:     make(map[string]map[Conn]struct{}),
		connUser:  make(map[Conn]string),
		connRooms: make(map[Conn]map[string]struct{}),
	}
}

// Register adds a validated connection for a user.
func (r *Registry) Register(userID string, conn Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		_ = conn.Close()
		return
	}
	if r.users[userID] == nil {
		r.users[userID] = make(map[Conn]struct{})
	}
	r.users[userID][conn] = struct{}{}
	r.connUser[conn] = userID
	r.logger.Debug("realtime connection registered", zap.String("user_id", userID))
}

// Unregister removes a connection, pruning empty user and room entries.
func (r *Registry) Unregister(conn Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()
	userID, ok := r.connUser[conn]
	if !ok {
		return
	}
	delete(r.connUser, conn)
	if conns := r.users[userID]; conns != nil {
		delete(conns, conn)
		if len(conns) == 0 {
			delete(r.users, userID)
		}
	}
	for room := range r.connRooms[conn] {
		if conns := r.rooms[room]; conns != nil {
			delete(conns, conn)
			if len(conns) == 0 {
				delete(r.rooms, room)
			}
		}
	}
	delete(r.connRooms, conn)
	r.logger.Debug("realtime connection removed", zap.String("user_id", userID))
}

// JoinTicketRoom subscribes a connection to a ticket's conversation room.
func (r *Registry) JoinTicketRoom(conn Conn, ticketID string) {
	room := ticketRoom(ticketID)
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.connUser[conn]; !ok || r.closed {
		return
	}
	if r.rooms[room] == nil {
		r.rooms[room] = make(map[Conn]struct{})
	}
	r.rooms[room][conn] = struct{}{}
	if r.connRooms[conn] == nil {
		r.connRooms[conn] = make(map[string]struct{})
	}
	r.connRooms[conn][room] = struct{}{}
}

// LeaveTicketRoom unsubscribes a connection from a ticket room.
func (r *Registry) LeaveTicketRoom(conn Conn, ticketID string) {
	room := ticketRoom(ticketID)
	r.mu.Lock()
	defer r.mu.Unlock()
	if conns := r.rooms[room]; conns != nil {
		delete(conns, conn)
		if len(conns) == 0 {
			delete(r.rooms, room)
		}
	}
	if rooms := r.connRooms[conn]; rooms != nil {
		delete(rooms, room)
	}
}

// SendToUser pushes an event to every live connection of one user.
// Returns the number of connections written to; zero when offline.
func (r *Registry) SendToUser(userID string, event Event) int {
	r.mu.RLock()
	conns := make([]Conn, 0, len(r.users[userID]))
	for conn := range r.users[userID] {
		conns = append(conns, conn)
	}
	r.mu.RUnlock()

	sent := 0
	for _, conn := range conns {
		if err := conn.WriteJSON(event); err != nil {
			r.logger.Warn("realtime push failed", zap.String("user_id", userID), zap.Error(err))
			continue
		}
		sent++
	}
	return sent
}

// BroadcastToTicketRoom pushes an event to every connection in a ticket room.
func (r *Registry) BroadcastToTicketRoom(ticketID, eventName string, payload interface{}) int {
	room := ticketRoom(ticketID)
	r.mu.RLock()
	conns := make([]Conn, 0, len(r.rooms[room]))
	for conn := range r.rooms[room] {
		conns = append(conns, conn)
	}
	r.mu.RUnlock()

	event := Event{Name: eventName, Payload: payload}
	sent := 0
	for _, conn := range conns {
		if err := conn.WriteJSON(event); err != nil {
			r.logger.Warn("room broadcast failed", zap.String("room", room), zap.Error(err))
			continue
		}
		sent++
	}
	return sent
}

// IsUserConnected reports whether the user holds at least one live connection.
func (r *Registry) IsUserConnected(userID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.users[userID]) > 0
}

// ConnectionCount returns the number of live connections for a user.
func (r *Registry) ConnectionCount(userID string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.users[userID])
}

// Close drops every connection and rejects further registrations.
func (r *Registry) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	for conn := range r.connUser {
		_ = conn.Close()
	}
	r.users = make(map[string]map[Conn]struct{})
	r.rooms = make(map[string]map[Conn]struct{})
	r.connUser = make(map[Conn]string)
	r.connRooms = make(map[Conn]map[string]struct{})
}

func ticketRoom(ticketID string) string {
	return "ticket:" + ticketID
}
