package handlers

import (
	"sync"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-core/internal/auth"
	"github.com/spec-kit/helpdesk-core/internal/realtime"
	"github.com/spec-kit/helpdesk-core/internal/repository"
	apperrors "github.com/spec-kit/helpdesk-core/pkg/util"
)

// WSHandler upgrades clients to websocket connections and keeps the
// connection registry in sync. Browsers cannot set headers on the upgrade
// request, so the token rides in a query parameter.
type WSHandler struct {
	tokens   *auth.TokenManager
	users    repository.UserRepository
	registry *realtime.Registry
	logger   *zap.Logger
}

// NewWSHandler constructs handler.
func NewWSHandler(tokens *auth.TokenManager, users repository.UserRepository, registry *realtime.Registry, logger *zap.Logger) *WSHandler {
	return &WSHandler{tokens: tokens, users: users, registry: registry, logger: logger}
}

// Upgrade authenticates the upgrade request before handing off to the
// websocket protocol.
func (h *WSHandler) Upgrade(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}
	token := c.Query("token")
	if token == "" {
		return apperrors.NewUnauthorized("missing token")
	}
	claims, err := h.tokens.ParseToken(token)
	if err != nil {
		return apperrors.NewUnauthorized("invalid token")
	}
	user, err := h.users.GetByID(c.Context(), claims.UserID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return apperrors.NewUnauthorized("user not found")
		}
		return apperrors.MapError(err)
	}
	if !user.Active {
		return apperrors.NewUnauthorized("user inactive")
	}
	c.Locals("ws_user_id", user.ID)
	return c.Next()
}

// clientCommand is what a connected client may ask of the server.
type clientCommand struct {
	Action   string `json:"action"`
	TicketID string `json:"ticket_id"`
}

// wsConn adapts the websocket connection to the registry's push surface,
// serializing writes: gorilla connections do not allow concurrent writers.
type wsConn struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (c *wsConn) WriteJSON(v interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteJSON(v)
}

func (c *wsConn) Close() error {
	return c.conn.Close()
}

// Serve runs one websocket session: registers the connection, processes
// room join/leave commands, and unregisters on any read failure.
func (h *WSHandler) Serve() fiber.Handler {
	return websocket.New(func(raw *websocket.Conn) {
		userID, ok := raw.Locals("ws_user_id").(string)
		if !ok || userID == "" {
			_ = raw.Close()
			return
		}

		conn := &wsConn{conn: raw}
		h.registry.Register(userID, conn)
		defer h.registry.Unregister(conn)

		_ = conn.WriteJSON(realtime.Event{Name: "connected"})

		for {
			var cmd clientCommand
			if err := raw.ReadJSON(&cmd); err != nil {
				return
			}
			switch cmd.Action {
			case "join":
				if cmd.TicketID != "" {
					h.registry.JoinTicketRoom(conn, cmd.TicketID)
				}
			case "leave":
				if cmd.TicketID != "" {
					h.registry.LeaveTicketRoom(conn, cmd.TicketID)
				}
			case "ping":
				_ = conn.WriteJSON(realtime.Event{Name: "pong"})
			default:
				h.logger.Debug("unknown websocket action",
					zap.String("user_id", userID),
					zap.String("action", cmd.Action))
			}
		}
	})
}
