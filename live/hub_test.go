package live

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tripboard/models"
)

func receive(t *testing.T, c *Client) []byte {
	t.Helper()
	select {
	case got, ok := <-c.Send:
		require.True(t, ok, "send channel closed")
		return got
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for message")
	}
	return nil
}

func TestHubRegisterBroadcastUnregister(t *testing.T) {
	hub := NewHub()
	go hub.Run()
	defer hub.Stop()

	client := &Client{Send: make(chan []byte, 10), Room: "room1"}
	other := &Client{Send: make(chan []byte, 10), Room: "room2"}
	hub.register <- client
	hub.register <- other

	require.NoError(t, hub.Broadcast("room1", []byte("hello test")))
	assert.Equal(t, "hello test", string(receive(t, client)))

	select {
	case msg := <-other.Send:
		t.Fatalf("room2 got %s", msg)
	case <-time.After(50 * time.Millisecond):
	}

	hub.unregister <- client
	_, ok := <-client.Send
	assert.False(t, ok)
	assert.Equal(t, 0, hub.RoomSize("room1"))
	assert.Equal(t, 1, hub.RoomSize("room2"))
}

func TestHubPublishEncodesEvent(t *testing.T) {
	hub := NewHub()
	go hub.Run()
	defer hub.Stop()

	client := &Client{Send: make(chan []byte, 10), Room: "s1"}
	hub.register <- client

	ev := models.ScheduleEvent{Type: models.EventScheduleUpdated, SessionID: "s1", Days: []models.DaySchedule{{Index: 0}}}
	require.NoError(t, hub.Publish(context.Background(), ev))

	var got models.ScheduleEvent
	require.NoError(t, json.Unmarshal(receive(t, client), &got))
	assert.Equal(t, "s1", got.SessionID)
	assert.Len(t, got.Days, 1)
}

func TestHubDirectOnlyReachesTarget(t *testing.T) {
	hub := NewHub()
	go hub.Run()
	defer hub.Stop()

	a := &Client{Send: make(chan []byte, 10), Room: "s1"}
	b := &Client{Send: make(chan []byte, 10), Room: "s1"}
	hub.register <- a
	hub.register <- b

	hub.sendTo(a, []byte("only a"))
	assert.Equal(t, "only a", string(receive(t, a)))
	select {
	case msg := <-b.Send:
		t.Fatalf("b got %s", msg)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHubDropsSlowClient(t *testing.T) {
	hub := NewHub()
	go hub.Run()
	defer hub.Stop()

	slow := &Client{Send: make(chan []byte), Room: "s1"}
	hub.register <- slow

	require.NoError(t, hub.Broadcast("s1", []byte("x")))
	assert.Eventually(t, func() bool { return hub.RoomSize("s1") == 0 }, time.Second, 10*time.Millisecond)
	_, ok := <-slow.Send
	assert.False(t, ok)
}

func TestHubStopClosesClients(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	c := &Client{Send: make(chan []byte, 1), Room: "s1"}
	hub.register <- c
	hub.Stop()
	hub.Stop()

	select {
	case _, ok := <-c.Send:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("client not closed")
	}
	assert.Error(t, hub.Broadcast("s1", []byte("late")))
}

func TestHubRoomSizeServedByRun(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	clients := make([]*Client, 5)
	for i := range clients {
		clients[i] = &Client{Send: make(chan []byte, 10), Room: "s1"}
		require.True(t, hub.Register(clients[i]))
	}

	sizes := make(chan int, 20)
	for i := 0; i < 20; i++ {
		go func() { sizes <- hub.RoomSize("s1") }()
	}
	for i := 0; i < 20; i++ {
		assert.Equal(t, 5, <-sizes)
	}
	assert.Equal(t, 0, hub.RoomSize("empty"))

	hub.Stop()
	assert.Equal(t, 0, hub.RoomSize("s1"))
}
