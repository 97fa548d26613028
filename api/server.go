package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/lowpile/lowpile/game/engine"
	"github.com/lowpile/lowpile/game/room"
	"github.com/lowpile/lowpile/game/service"
	"github.com/lowpile/lowpile/transport/websocket"
)

// Server represents the REST API server
type Server struct {
	service service.GameService
	hub     *websocket.Hub
	router  *mux.Router
}

// NewServer creates a new API server
func NewServer(gameService service.GameService, hub *websocket.Hub) *Server {
	s := &Server{
		service: gameService,
		hub:     hub,
		router:  mux.NewRouter(),
	}

	s.setupRoutes()
	return s
}

// setupRoutes configures all API routes
func (s *Server) setupRoutes() {
	// Room management
	s.router.HandleFunc("/room", s.handleCreateRoom).Methods("POST")
	s.router.HandleFunc("/rooms", s.handleListRooms).Methods("GET")
	s.router.HandleFunc("/rooms/{id}", s.handleGetRoom).Methods("GET")
	s.router.HandleFunc("/rooms/{id}/join", s.handleJoinRoom).Methods("POST")
	s.router.HandleFunc("/rooms/{id}", s.handleDeleteRoom).Methods("DELETE")

	// Game operations
	s.router.HandleFunc("/rooms/{id}/start", s.handleStartGame).Methods("POST")
	s.router.HandleFunc("/rooms/{id}/select", s.handleSelectCard).Methods("POST")
	s.router.HandleFunc("/rooms/{id}/take-pile", s.handleTakePile).Methods("POST")
	s.router.HandleFunc("/rooms/{id}/state", s.handleGetState).Methods("GET")

	// WebSocket
	s.router.HandleFunc("/ws/{roomID}/{playerID}", s.handleWebSocket)

	// Static files
	s.router.PathPrefix("/").Handler(http.FileServer(http.Dir("./static/")))
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Response helpers
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// statusForError maps service errors onto HTTP status codes
func statusForError(err error) int {
	switch {
	case errors.Is(err, room.ErrRoomNotFound):
		return http.StatusNotFound
	case errors.Is(err, room.ErrNotAdmin):
		return http.StatusForbidden
	case errors.Is(err, room.ErrGameStarted),
		errors.Is(err, room.ErrGameNotStarted),
		errors.Is(err, room.ErrRoomFull),
		errors.Is(err, engine.ErrInsufficientDeck),
		errors.Is(err, engine.ErrPlayerCount),
		errors.Is(err, engine.ErrPlayerMismatch),
		errors.Is(err, engine.ErrInvalidPile):
		return http.StatusBadRequest
	case errors.Is(err, engine.ErrNoPendingPenalty):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// broadcast hands an operation's event batch to the hub. Called after the
// service call has returned, outside any room section.
func (s *Server) broadcast(roomID string, events []service.Event) {
	if s.hub == nil || len(events) == 0 {
		return
	}
	batch := make([]interface{}, len(events))
	for i, ev := range events {
		batch[i] = ev
	}
	s.hub.BroadcastBatch(roomID, batch...)
}

// Room Handlers

func (s *Server) handleCreateRoom(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Name == "" {
		respondError(w, http.StatusBadRequest, "player name is required")
		return
	}

	result, err := s.service.CreateRoom(r.Context(), req.Name)
	if err != nil {
		respondError(w, statusForError(err), err.Error())
		return
	}

	s.broadcast(result.RoomID, result.Events)
	log.Printf("[ROOM] created room=%s admin=%s", result.RoomID, result.PlayerID)
	respondJSON(w, http.StatusOK, result)
}

func (s *Server) handleJoinRoom(w http.ResponseWriter, r *http.Request) {
	roomID := mux.Vars(r)["id"]

	var req struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Name == "" {
		respondError(w, http.StatusBadRequest, "player name is required")
		return
	}

	result, err := s.service.JoinRoom(r.Context(), roomID, req.Name)
	if err != nil {
		respondError(w, statusForError(err), err.Error())
		return
	}

	s.broadcast(roomID, result.Events)
	log.Printf("[ROOM] joined room=%s player=%s", roomID, result.PlayerID)
	respondJSON(w, http.StatusOK, result)
}

func (s *Server) handleListRooms(w http.ResponseWriter, r *http.Request) {
	rooms, err := s.service.ListRooms(r.Context())
	if err != nil {
		respondError(w, statusForError(err), err.Error())
		return
	}
	respondJSON(w, http.StatusOK, rooms)
}

func (s *Server) handleGetRoom(w http.ResponseWriter, r *http.Request) {
	roomID := mux.Vars(r)["id"]

	info, err := s.service.GetRoom(r.Context(), roomID)
	if err != nil {
		respondError(w, statusForError(err), err.Error())
		return
	}
	respondJSON(w, http.StatusOK, info)
}

func (s *Server) handleDeleteRoom(w http.ResponseWriter, r *http.Request) {
	roomID := mux.Vars(r)["id"]

	if err := s.service.DeleteRoom(r.Context(), roomID); err != nil {
		respondError(w, statusForError(err), err.Error())
		return
	}

	log.Printf("[ROOM] deleted room=%s", roomID)
	respondJSON(w, http.StatusOK, map[string]string{"message": "Room deleted"})
}

// Game Operation Handlers

func (s *Server) handleStartGame(w http.ResponseWriter, r *http.Request) {
	roomID := mux.Vars(r)["id"]
	playerID := r.URL.Query().Get("player_id")

	result, err := s.service.StartGame(r.Context(), roomID, playerID)
	if err != nil {
		respondError(w, statusForError(err), err.Error())
		return
	}

	s.broadcast(roomID, result.Events)
	log.Printf("[GAME] started room=%s players=%d", roomID, len(result.Deal.Hands))
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"message":      "Game started",
		"room_id":      roomID,
		"player_cards": result.Deal.Hands,
		"shared_cards": result.Deal.SharedCards,
	})
}

func (s *Server) handleSelectCard(w http.ResponseWriter, r *http.Request) {
	roomID := mux.Vars(r)["id"]
	query := r.URL.Query()
	playerID := query.Get("player_id")

	card, err := strconv.Atoi(query.Get("card"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "card must be a number")
		return
	}

	result, err := s.service.SubmitSelection(r.Context(), roomID, playerID, engine.Card(card))
	if err != nil {
		respondError(w, statusForError(err), err.Error())
		return
	}

	if !result.Outcome.Accepted() {
		// No broadcast: the rest of the room observes nothing.
		respondJSON(w, http.StatusBadRequest, result)
		return
	}

	s.broadcast(roomID, result.Events)
	log.Printf("[SELECT] room=%s player=%s card=%d complete=%t pending=%t",
		roomID, playerID, card, result.RoundComplete, result.PenaltyPending != nil)
	respondJSON(w, http.StatusOK, result)
}

func (s *Server) handleTakePile(w http.ResponseWriter, r *http.Request) {
	roomID := mux.Vars(r)["id"]
	query := r.URL.Query()
	playerID := query.Get("player_id")

	pileIdx, err := strconv.Atoi(query.Get("pile"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "pile must be a number")
		return
	}
	lowCard, err := strconv.Atoi(query.Get("low_card"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "low_card must be a number")
		return
	}

	result, err := s.service.SubmitPenaltyResolution(r.Context(), roomID, playerID, pileIdx, engine.Card(lowCard))
	if err != nil {
		respondError(w, statusForError(err), err.Error())
		return
	}

	s.broadcast(roomID, result.Events)
	log.Printf("[PENALTY] room=%s player=%s pile=%d points=%d advanced=%t",
		roomID, playerID, pileIdx, result.PenaltyPoints, result.RoundAdvanced)
	respondJSON(w, http.StatusOK, result)
}

func (s *Server) handleGetState(w http.ResponseWriter, r *http.Request) {
	roomID := mux.Vars(r)["id"]

	snapshot, err := s.service.GetSnapshot(r.Context(), roomID)
	if err != nil {
		respondError(w, statusForError(err), err.Error())
		return
	}
	respondJSON(w, http.StatusOK, snapshot)
}

// WebSocket Handler

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	roomID := vars["roomID"]
	playerID := vars["playerID"]

	if _, err := s.service.GetRoom(r.Context(), roomID); err != nil {
		respondError(w, statusForError(err), err.Error())
		return
	}

	s.hub.ServeWS(w, r, roomID, playerID)
}
