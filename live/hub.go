// Package live pushes planner session changes to websocket clients and
// accepts drag events over the same socket.
package live

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/gorilla/websocket"

	"tripboard/models"
)

type Client struct {
	Conn   *websocket.Conn
	Send   chan []byte
	Room   string
	UserID string
}

type broadcastMsg struct {
	Room string
	Data []byte
}

type directMsg struct {
	Client *Client
	Data   []byte
}

type sizeReq struct {
	Room  string
	Reply chan int
}

// Hub tracks clients per room (one room per planner session). Only Run
// touches the room map and closes Send channels.
type Hub struct {
	rooms      map[string]map[*Client]bool
	register   chan *Client
	unregister chan *Client
	broadcast  chan broadcastMsg
	direct     chan directMsg
	size       chan sizeReq
	quit       chan struct{}
	stopOnce   sync.Once
}

func NewHub() *Hub {
	return &Hub{
		rooms:      make(map[string]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan broadcastMsg, 64),
		direct:     make(chan directMsg, 64),
		size:       make(chan sizeReq),
		quit:       make(chan struct{}),
	}
}

func (h *Hub) Run() {
	for {
		select {
		case c := <-h.register:
			if h.rooms[c.Room] == nil {
				h.rooms[c.Room] = make(map[*Client]bool)
			}
			h.rooms[c.Room][c] = true

		case c := <-h.unregister:
			h.drop(c)

		case m := <-h.broadcast:
			for c := range h.rooms[m.Room] {
				select {
				case c.Send <- m.Data:
				default:
					h.drop(c)
				}
			}

		case m := <-h.direct:
			if h.rooms[m.Client.Room][m.Client] {
				select {
				case m.Client.Send <- m.Data:
				default:
					h.drop(m.Client)
				}
			}

		case req := <-h.size:
			req.Reply <- len(h.rooms[req.Room])

		case <-h.quit:
			for _, conns := range h.rooms {
				for c := range conns {
					h.drop(c)
				}
			}
			return
		}
	}
}

// drop removes c and closes its send channel. Run only.
func (h *Hub) drop(c *Client) {
	conns := h.rooms[c.Room]
	if !conns[c] {
		return
	}
	delete(conns, c)
	close(c.Send)
	if len(conns) == 0 {
		delete(h.rooms, c.Room)
	}
}

// Stop ends Run and closes every client.
func (h *Hub) Stop() {
	h.stopOnce.Do(func() { close(h.quit) })
}

// RoomSize reports how many clients watch room; 0 once the hub has stopped.
func (h *Hub) RoomSize(room string) int {
	select {
	case <-h.quit:
		return 0
	default:
	}
	req := sizeReq{Room: room, Reply: make(chan int, 1)}
	select {
	case h.size <- req:
		return <-req.Reply
	case <-h.quit:
		return 0
	}
}

// Register adds c to its room; it fails once the hub has stopped.
func (h *Hub) Register(c *Client) bool {
	select {
	case h.register <- c:
		return true
	case <-h.quit:
		return false
	}
}

func (h *Hub) Broadcast(room string, data []byte) error {
	select {
	case <-h.quit:
		return fmt.Errorf("hub stopped")
	default:
	}
	select {
	case h.broadcast <- broadcastMsg{Room: room, Data: data}:
		return nil
	case <-h.quit:
		return fmt.Errorf("hub stopped")
	}
}

func (h *Hub) sendTo(c *Client, data []byte) {
	select {
	case h.direct <- directMsg{Client: c, Data: data}:
	case <-h.quit:
	}
}

// Publish delivers a schedule event to the session's room. It lets the hub
// act as the planner publisher when no broker is configured.
func (h *Hub) Publish(_ context.Context, ev models.ScheduleEvent) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return h.Broadcast(ev.SessionID, data)
}
