package websocket

import (
	"encoding/json"
	"testing"
)

func TestNewHub(t *testing.T) {
	hub := NewHub()

	if hub.rooms == nil {
		t.Error("Hub rooms map is nil")
	}
	if hub.broadcast == nil {
		t.Error("Hub broadcast channel is nil")
	}
	if hub.register == nil {
		t.Error("Hub register channel is nil")
	}
	if hub.unregister == nil {
		t.Error("Hub unregister channel is nil")
	}
}

func TestRegisterAndUnregisterClient(t *testing.T) {
	hub := NewHub()

	client := &Client{
		hub:      hub,
		roomID:   "room1",
		playerID: "p1",
		send:     make(chan []byte, sendBufferSize),
	}

	hub.registerClient(client)
	if !hub.rooms["room1"][client] {
		t.Fatal("client not registered in room")
	}

	hub.unregisterClient(client)
	if _, exists := hub.rooms["room1"]; exists {
		t.Error("empty room not cleaned up after last client left")
	}
	if _, open := <-client.send; open {
		t.Error("send channel not closed on unregister")
	}

	// Unregistering twice must not panic or close the channel again.
	hub.unregisterClient(client)
}

func TestBroadcastBatchOrder(t *testing.T) {
	hub := NewHub()

	client := &Client{
		hub:      hub,
		roomID:   "room1",
		playerID: "p1",
		send:     make(chan []byte, sendBufferSize),
	}
	hub.registerClient(client)

	payloads := [][]byte{
		[]byte(`{"seq":1}`),
		[]byte(`{"seq":2}`),
		[]byte(`{"seq":3}`),
	}
	hub.broadcastBatch(&batch{roomID: "room1", payloads: payloads})

	for want := 1; want <= 3; want++ {
		select {
		case raw := <-client.send:
			var msg struct {
				Seq int `json:"seq"`
			}
			if err := json.Unmarshal(raw, &msg); err != nil {
				t.Fatalf("decode delivered payload: %v", err)
			}
			if msg.Seq != want {
				t.Errorf("delivered seq %d, want %d (batch must stay ordered)", msg.Seq, want)
			}
		default:
			t.Fatalf("payload %d was not delivered", want)
		}
	}
}

func TestBroadcastBatchIsolatesRooms(t *testing.T) {
	hub := NewHub()

	c1 := &Client{hub: hub, roomID: "room1", playerID: "p1", send: make(chan []byte, sendBufferSize)}
	c2 := &Client{hub: hub, roomID: "room2", playerID: "p2", send: make(chan []byte, sendBufferSize)}
	hub.registerClient(c1)
	hub.registerClient(c2)

	hub.broadcastBatch(&batch{roomID: "room1", payloads: [][]byte{[]byte(`{}`)}})

	if len(c1.send) != 1 {
		t.Errorf("room1 client received %d messages, want 1", len(c1.send))
	}
	if len(c2.send) != 0 {
		t.Errorf("room2 client received %d messages, want 0", len(c2.send))
	}
}

func TestBroadcastDropsSlowClient(t *testing.T) {
	hub := NewHub()

	slow := &Client{
		hub:      hub,
		roomID:   "room1",
		playerID: "slow",
		send:     make(chan []byte), // unbuffered, nobody reading
	}
	healthy := &Client{
		hub:      hub,
		roomID:   "room1",
		playerID: "healthy",
		send:     make(chan []byte, sendBufferSize),
	}
	hub.registerClient(slow)
	hub.registerClient(healthy)

	hub.broadcastBatch(&batch{roomID: "room1", payloads: [][]byte{[]byte(`{}`)}})

	if hub.rooms["room1"][slow] {
		t.Error("slow client was not dropped")
	}
	if !hub.rooms["room1"][healthy] {
		t.Error("healthy client was dropped alongside the slow one")
	}
	if len(healthy.send) != 1 {
		t.Errorf("healthy client received %d messages, want 1", len(healthy.send))
	}
}
