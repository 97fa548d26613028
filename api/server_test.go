package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/lowpile/lowpile/game/engine"
	"github.com/lowpile/lowpile/game/room"
	"github.com/lowpile/lowpile/game/service"
	ws "github.com/lowpile/lowpile/transport/websocket"
)

// newTestServer wires a real service, hub and router behind an httptest
// server, the same composition main uses.
func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	hub := ws.NewHub()
	go hub.Run()

	svc := service.NewGameService(room.NewManager(), true)
	srv := httptest.NewServer(NewServer(svc, hub))
	t.Cleanup(srv.Close)
	return srv
}

func postJSON(t *testing.T, url string, body interface{}) (*http.Response, map[string]interface{}) {
	t.Helper()

	raw, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}
	resp, err := http.Post(url, "application/json", bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("POST %s failed: %v", url, err)
	}
	defer resp.Body.Close()

	var decoded map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		t.Fatalf("decode response of %s: %v", url, err)
	}
	return resp, decoded
}

func createRoom(t *testing.T, srv *httptest.Server, name string) (roomID, playerID string) {
	t.Helper()

	resp, body := postJSON(t, srv.URL+"/room", map[string]string{"name": name})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("create room: status %d, body %v", resp.StatusCode, body)
	}
	return body["room_id"].(string), body["player_id"].(string)
}

func joinRoom(t *testing.T, srv *httptest.Server, roomID, name string) (playerID string) {
	t.Helper()

	resp, body := postJSON(t, srv.URL+"/rooms/"+roomID+"/join", map[string]string{"name": name})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("join room: status %d, body %v", resp.StatusCode, body)
	}
	return body["player_id"].(string)
}

func TestCreateRoomEndpoint(t *testing.T) {
	srv := newTestServer(t)

	roomID, playerID := createRoom(t, srv, "alice")
	if len(roomID) != 5 {
		t.Errorf("room_id %q, want a 5-character ID", roomID)
	}
	if len(playerID) != 8 {
		t.Errorf("player_id %q, want an 8-character ID", playerID)
	}

	resp, _ := postJSON(t, srv.URL+"/room", map[string]string{})
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("nameless create: status %d, want 400", resp.StatusCode)
	}
}

func TestJoinRoomEndpoint(t *testing.T) {
	srv := newTestServer(t)
	roomID, _ := createRoom(t, srv, "alice")

	joinRoom(t, srv, roomID, "bob")

	resp, body := postJSON(t, srv.URL+"/rooms/zzzzz/join", map[string]string{"name": "carol"})
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("unknown room join: status %d (%v), want 404", resp.StatusCode, body)
	}
}

func TestRoomFullEndpoint(t *testing.T) {
	srv := newTestServer(t)
	roomID, _ := createRoom(t, srv, "alice")

	for i := 1; i < engine.MaxPlayers; i++ {
		joinRoom(t, srv, roomID, fmt.Sprintf("player%d", i))
	}

	resp, _ := postJSON(t, srv.URL+"/rooms/"+roomID+"/join", map[string]string{"name": "latecomer"})
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("full room join: status %d, want 400", resp.StatusCode)
	}
}

func TestDeleteRoomEndpoint(t *testing.T) {
	srv := newTestServer(t)
	roomID, _ := createRoom(t, srv, "alice")

	req, err := http.NewRequest(http.MethodDelete, srv.URL+"/rooms/"+roomID, nil)
	if err != nil {
		t.Fatalf("build DELETE request: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("DELETE room failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("delete room: status %d, want 200", resp.StatusCode)
	}

	getResp, err := http.Get(srv.URL + "/rooms/" + roomID)
	if err != nil {
		t.Fatalf("GET deleted room failed: %v", err)
	}
	getResp.Body.Close()
	if getResp.StatusCode != http.StatusNotFound {
		t.Errorf("deleted room lookup: status %d, want 404", getResp.StatusCode)
	}

	again, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("second DELETE failed: %v", err)
	}
	again.Body.Close()
	if again.StatusCode != http.StatusNotFound {
		t.Errorf("second delete: status %d, want 404", again.StatusCode)
	}
}

func TestListAndGetRooms(t *testing.T) {
	srv := newTestServer(t)
	roomID, _ := createRoom(t, srv, "alice")
	joinRoom(t, srv, roomID, "bob")

	resp, err := http.Get(srv.URL + "/rooms")
	if err != nil {
		t.Fatalf("GET /rooms failed: %v", err)
	}
	defer resp.Body.Close()

	var rooms []map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&rooms); err != nil {
		t.Fatalf("decode room list: %v", err)
	}
	if len(rooms) != 1 {
		t.Fatalf("listed %d rooms, want 1", len(rooms))
	}

	getResp, err := http.Get(srv.URL + "/rooms/" + roomID)
	if err != nil {
		t.Fatalf("GET room failed: %v", err)
	}
	defer getResp.Body.Close()

	var info map[string]interface{}
	if err := json.NewDecoder(getResp.Body).Decode(&info); err != nil {
		t.Fatalf("decode room: %v", err)
	}
	players, ok := info["players"].([]interface{})
	if !ok || len(players) != 2 {
		t.Errorf("room players = %v, want 2 entries", info["players"])
	}

	missing, err := http.Get(srv.URL + "/rooms/zzzzz")
	if err != nil {
		t.Fatalf("GET missing room failed: %v", err)
	}
	missing.Body.Close()
	if missing.StatusCode != http.StatusNotFound {
		t.Errorf("missing room: status %d, want 404", missing.StatusCode)
	}
}

func TestStartGameEndpoint(t *testing.T) {
	srv := newTestServer(t)
	roomID, adminID := createRoom(t, srv, "alice")
	bobID := joinRoom(t, srv, roomID, "bob")

	resp, _ := postJSON(t, srv.URL+"/rooms/"+roomID+"/start?player_id="+bobID, nil)
	if resp.StatusCode != http.StatusForbidden {
		t.Errorf("non-admin start: status %d, want 403", resp.StatusCode)
	}

	resp, body := postJSON(t, srv.URL+"/rooms/"+roomID+"/start?player_id="+adminID, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("admin start: status %d, body %v", resp.StatusCode, body)
	}
	hands, ok := body["player_cards"].(map[string]interface{})
	if !ok || len(hands) != 2 {
		t.Errorf("player_cards = %v, want hands for 2 players", body["player_cards"])
	}

	resp, _ = postJSON(t, srv.URL+"/rooms/"+roomID+"/start?player_id="+adminID, nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("second start: status %d, want 400", resp.StatusCode)
	}
}

func TestSelectCardEndpoint(t *testing.T) {
	srv := newTestServer(t)
	roomID, adminID := createRoom(t, srv, "alice")
	joinRoom(t, srv, roomID, "bob")
	postJSON(t, srv.URL+"/rooms/"+roomID+"/start?player_id="+adminID, nil)

	stateResp, err := http.Get(srv.URL + "/rooms/" + roomID + "/state")
	if err != nil {
		t.Fatalf("GET state failed: %v", err)
	}
	defer stateResp.Body.Close()

	var snap struct {
		Hands map[string][]int `json:"player_cards"`
	}
	if err := json.NewDecoder(stateResp.Body).Decode(&snap); err != nil {
		t.Fatalf("decode state: %v", err)
	}
	card := snap.Hands[adminID][0]

	url := fmt.Sprintf("%s/rooms/%s/select?player_id=%s&card=%d", srv.URL, roomID, adminID, card)
	resp, body := postJSON(t, url, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("select: status %d, body %v", resp.StatusCode, body)
	}
	if body["outcome"] != string(engine.SelectAccepted) {
		t.Errorf("outcome = %v, want accepted", body["outcome"])
	}

	// Selecting twice in the same round is a rejection, not a server error.
	resp, body = postJSON(t, url, nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("repeat select: status %d, want 400", resp.StatusCode)
	}
	if body["outcome"] != string(engine.SelectAlreadySelected) {
		t.Errorf("repeat outcome = %v, want already_selected", body["outcome"])
	}
}

func TestTakePileWithoutPenalty(t *testing.T) {
	srv := newTestServer(t)
	roomID, adminID := createRoom(t, srv, "alice")
	joinRoom(t, srv, roomID, "bob")
	postJSON(t, srv.URL+"/rooms/"+roomID+"/start?player_id="+adminID, nil)

	url := fmt.Sprintf("%s/rooms/%s/take-pile?player_id=%s&pile=0&low_card=1", srv.URL, roomID, adminID)
	resp, _ := postJSON(t, url, nil)
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("take-pile with no blocker: status %d, want 409", resp.StatusCode)
	}
}

func TestStateBeforeStart(t *testing.T) {
	srv := newTestServer(t)
	roomID, _ := createRoom(t, srv, "alice")

	resp, err := http.Get(srv.URL + "/rooms/" + roomID + "/state")
	if err != nil {
		t.Fatalf("GET state failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("state before start: status %d, want 400", resp.StatusCode)
	}
}

func TestWebSocketReceivesGameStarted(t *testing.T) {
	srv := newTestServer(t)
	roomID, adminID := createRoom(t, srv, "alice")
	bobID := joinRoom(t, srv, roomID, "bob")

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/" + roomID + "/" + bobID
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("websocket dial failed: %v", err)
	}
	defer conn.Close()

	// The hub registers the client asynchronously; give it a moment before
	// triggering the broadcast.
	time.Sleep(50 * time.Millisecond)

	postJSON(t, srv.URL+"/rooms/"+roomID+"/start?player_id="+adminID, nil)

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, message, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("reading broadcast failed: %v", err)
	}

	var event map[string]interface{}
	if err := json.Unmarshal(message, &event); err != nil {
		t.Fatalf("decode broadcast: %v", err)
	}
	if event["type"] != string(service.EventGameStarted) {
		t.Errorf("event type = %v, want game_started", event["type"])
	}
	if _, ok := event["player_cards"]; !ok {
		t.Error("game_started event has no player_cards payload")
	}
}

func TestWebSocketUnknownRoom(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/ws/zzzzz/nobody")
	if err != nil {
		t.Fatalf("GET ws failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("ws for unknown room: status %d, want 404", resp.StatusCode)
	}
}
