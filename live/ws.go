package live

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
	"github.com/ternarybob/arbor"

	"tripboard/models"
	"tripboard/planner"
	"tripboard/utils"
)

const (
	writeWait      = 10 * time.Second
	maxMessageSize = 64 << 10
	eventTimeout   = 5 * time.Second
)

// Liveness timing; pingPeriod must stay below pongWait.
var (
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
)

// Sessions is what the socket needs from the planner.
type Sessions interface {
	GetSession(ctx context.Context, id string) (*planner.Session, error)
	ApplyDrag(ctx context.Context, id string, ev planner.DragEvent) (*planner.DragResult, error)
}

// TokenParser resolves a bearer token to a user id.
type TokenParser func(token string) (string, error)

// outbound is what a client receives in reply to its own drag event.
type outbound struct {
	Type      string               `json:"type"`
	Error     string               `json:"error,omitempty"`
	Rejection interface{}          `json:"rejection,omitempty"`
	Session   *planner.Session     `json:"session,omitempty"`
	Days      []models.DaySchedule `json:"days,omitempty"`
}

var upgrader = websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}

// WebSocketHandler joins the caller to the room of session :id. Browsers
// cannot set headers on a websocket handshake, so the token may also come
// in the "token" query parameter.
func WebSocketHandler(hub *Hub, sessions Sessions, parse TokenParser, logger arbor.ILogger) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		room := ps.ByName("id")

		userID := utils.GetUserIDFromRequest(r)
		if userID == "" {
			token := r.URL.Query().Get("token")
			if token == "" {
				token = strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
			}
			id, err := parse(token)
			if err != nil {
				utils.RespondWithError(w, http.StatusUnauthorized, "Invalid token")
				return
			}
			userID = id
		}

		ctx, cancel := context.WithTimeout(r.Context(), eventTimeout)
		sess, err := sessions.GetSession(ctx, room)
		cancel()
		if err != nil {
			utils.RespondWithError(w, http.StatusNotFound, "Session not found")
			return
		}
		if sess.UserID != userID {
			utils.RespondWithError(w, http.StatusForbidden, "Forbidden")
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logger.Warn().Err(err).Str("session_id", room).Msg("Websocket upgrade failed")
			return
		}
		client := &Client{
			Conn:   conn,
			Send:   make(chan []byte, 256),
			Room:   room,
			UserID: userID,
		}

		if !hub.Register(client) {
			conn.Close()
			return
		}
		go writePump(client)

		if data, err := json.Marshal(outbound{Type: "snapshot", Session: sess}); err == nil {
			hub.sendTo(client, data)
		}

		go readPump(client, hub, sessions, logger)
	}
}

func writePump(c *Client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump applies every drag event the client sends. The outcome goes back
// to the sender only; the resulting schedule reaches the whole room through
// the planner's publisher.
func readPump(c *Client, hub *Hub, sessions Sessions, logger arbor.ILogger) {
	defer func() {
		select {
		case hub.unregister <- c:
		case <-hub.quit:
		}
		c.Conn.Close()
	}()
	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		return c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := c.Conn.ReadMessage()
		if err != nil {
			break
		}

		var ev planner.DragEvent
		if err := json.Unmarshal(raw, &ev); err != nil {
			logger.Debug().Err(err).Str("session_id", c.Room).Msg("Invalid websocket payload")
			reply(hub, c, outbound{Type: "error", Error: "invalid payload"})
			continue
		}

		ctx, cancel := context.WithTimeout(context.Background(), eventTimeout)
		res, err := sessions.ApplyDrag(ctx, c.Room, ev)
		cancel()
		if err != nil {
			reply(hub, c, outbound{Type: "error", Error: err.Error()})
			continue
		}

		out := outbound{Type: "drag_result"}
		if res.Rejection != nil {
			out.Rejection = res.Rejection
			out.Days = res.Session.Schedule.Days()
		}
		reply(hub, c, out)
	}
}

func reply(hub *Hub, c *Client, out outbound) {
	data, err := json.Marshal(out)
	if err != nil {
		return
	}
	hub.sendTo(c, data)
}
