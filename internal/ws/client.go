package ws

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/NYARANGA-ROB/Smart/internal/auth"
	"github.com/NYARANGA-ROB/Smart/pkg/logger"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
	sendBuffer     = 64
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Origin enforcement happens at the CORS layer in front of the upgrade.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Client is one connected WebSocket peer.
type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	send   chan []byte
	claims *auth.Claims
}

// command is the control message clients send to manage room membership.
type command struct {
	Action string `json:"action"`
	Room   string `json:"room"`
}

// Serve upgrades the request and runs the client's pumps. Claims may be nil
// for anonymous connections; those cannot join notification rooms.
func Serve(hub *Hub, c *gin.Context) {
	var claims *auth.Claims
	if v, ok := c.Get("claims"); ok {
		if cl, ok := v.(*auth.Claims); ok {
			claims = cl
		}
	}
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Warnf("ws: upgrade failed: %v", err)
		return
	}
	client := &Client{hub: hub, conn: conn, send: make(chan []byte, sendBuffer), claims: claims}
	hub.register(client)
	go client.writePump()
	client.readPump()
}

// canJoin enforces per-room access: notification rooms are private to their
// user, everything else is open to any connected client.
func (c *Client) canJoin(room string) bool {
	if !ValidRoom(room) {
		return false
	}
	if uid, ok := strings.CutPrefix(room, "notifications-"); ok {
		if c.claims == nil {
			return false
		}
		return c.claims.UID == uid || c.claims.Role == auth.RoleAdmin
	}
	return true
}

func (c *Client) reply(ev Event) {
	msg, err := json.Marshal(ev)
	if err != nil {
		return
	}
	select {
	case c.send <- msg:
	default:
	}
}

func (c *Client) readPump() {
	defer func() {
		c.hub.unregister(c)
		c.conn.Close()
	}()
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Debugf("ws: read error: %v", err)
			}
			return
		}
		var cmd command
		if err := json.Unmarshal(raw, &cmd); err != nil {
			c.reply(Event{Event: "error", Data: "invalid message"})
			continue
		}
		switch cmd.Action {
		case "join":
			if !c.canJoin(cmd.Room) {
				c.reply(Event{Event: "error", Room: cmd.Room, Data: "cannot join room"})
				continue
			}
			c.hub.join(c, cmd.Room)
			c.reply(Event{Event: "joined", Room: cmd.Room})
		case "leave":
			c.hub.leave(c, cmd.Room)
			c.reply(Event{Event: "left", Room: cmd.Room})
		default:
			c.reply(Event{Event: "error", Data: "unknown action"})
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
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
