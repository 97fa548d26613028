package service

import (
	"encoding/json"
	"time"

	"github.com/lowpile/lowpile/game/engine"
	"github.com/lowpile/lowpile/game/room"
)

// EventType names an event relayed to every connection in a room
type EventType string

const (
	EventRoomCreated   EventType = "room_created"
	EventPlayerJoined  EventType = "player_joined"
	EventGameStarted   EventType = "game_started"
	EventCardSelected  EventType = "card_selected"
	EventRoundComplete EventType = "round_complete"
	EventPileTaken     EventType = "pile_taken"
	EventRoundEnded    EventType = "round_ended"
	EventGameFinished  EventType = "game_finished"
)

// Event is one broadcast message. It marshals flat: the payload's fields
// plus a "type" key, which is the wire shape clients parse.
type Event struct {
	Type EventType
	Data interface{}
}

// MarshalJSON flattens Data and injects the type discriminator.
func (e Event) MarshalJSON() ([]byte, error) {
	flat := map[string]interface{}{}
	if e.Data != nil {
		raw, err := json.Marshal(e.Data)
		if err != nil {
			return nil, err
		}
		if err := json.Unmarshal(raw, &flat); err != nil {
			return nil, err
		}
	}
	flat["type"] = e.Type
	return json.Marshal(flat)
}

// RoomInfo describes one room for listings and lookups.
type RoomInfo struct {
	ID        string          `json:"id"`
	Players   []engine.Player `json:"players"`
	Status    room.Status     `json:"status"`
	CreatedAt time.Time       `json:"created_at"`
}

// CreateRoomResult identifies the new room and its admin player.
type CreateRoomResult struct {
	RoomID   string  `json:"room_id"`
	PlayerID string  `json:"player_id"`
	Events   []Event `json:"-"`
}

// JoinRoomResult identifies the player that joined.
type JoinRoomResult struct {
	RoomID   string  `json:"room_id"`
	PlayerID string  `json:"player_id"`
	Events   []Event `json:"-"`
}

// StartGameResult carries the deal handed back to the admin's start call.
type StartGameResult struct {
	Deal   *engine.DealResult `json:"deal"`
	Events []Event            `json:"-"`
}

// SelectionResult is the synchronous outcome of one selection attempt. The
// Events batch is only populated for accepted selections; a rejection
// produces no broadcast.
type SelectionResult struct {
	Outcome        engine.SelectOutcome      `json:"outcome"`
	RoundComplete  bool                      `json:"round_complete"`
	Placements     []engine.PlacementOutcome `json:"placement_results,omitempty"`
	PenaltyPending *engine.PendingPenalty    `json:"penalty_pending,omitempty"`
	RoundAdvanced  bool                      `json:"round_advanced"`
	GameFinished   bool                      `json:"game_finished"`
	Events         []Event                   `json:"-"`
}

// PenaltyResult is the synchronous outcome of a voluntary pile take plus
// the continued resolution of the round's remaining cards.
type PenaltyResult struct {
	PenaltyPoints  int                       `json:"penalty_points"`
	TakenCards     []engine.Card             `json:"taken_cards"`
	Remaining      []engine.PlacementOutcome `json:"remaining_placement,omitempty"`
	PenaltyPending *engine.PendingPenalty    `json:"penalty_pending,omitempty"`
	RoundAdvanced  bool                      `json:"round_advanced"`
	GameFinished   bool                      `json:"game_finished"`
	Events         []Event                   `json:"-"`
}

// Broadcast payloads. Field names match what the web client reads.

type roomCreatedData struct {
	AdminName string `json:"admin_name"`
}

type playerJoinedData struct {
	PlayerName string `json:"player_name"`
}

type gameStartedData struct {
	Hands        map[string][]engine.Card      `json:"player_cards"`
	SharedCards  []engine.Card                 `json:"shared_cards"`
	Points       map[string]int                `json:"player_points"`
	Piles        [engine.PileCount]engine.Pile `json:"shared_piles"`
	PlayerStatus map[string]bool               `json:"player_status"`
}

type cardSelectedData struct {
	Hands        map[string][]engine.Card `json:"player_cards"`
	LastSelected map[string]engine.Card   `json:"last_selected"`
	PlayerStatus map[string]bool          `json:"player_status"`
}

type roundCompleteData struct {
	Round         int                           `json:"round"`
	Placements    []engine.PlacementOutcome     `json:"placement_results"`
	PenaltyNeeded bool                          `json:"penalty_needed"`
	Hands         map[string][]engine.Card      `json:"player_cards"`
	LastSelected  map[string]engine.Card        `json:"last_selected"`
	Piles         [engine.PileCount]engine.Pile `json:"shared_piles"`
	Points        map[string]int                `json:"player_points"`
	PlayerStatus  map[string]bool               `json:"player_status"`
}

type pileTakenData struct {
	PlayerID      string                        `json:"player_id"`
	Pile          int                           `json:"pile"`
	PenaltyPoints int                           `json:"penalty_points"`
	TakenCards    []engine.Card                 `json:"taken_cards"`
	Piles         [engine.PileCount]engine.Pile `json:"shared_piles"`
	Points        map[string]int                `json:"player_points"`
	Remaining     []engine.PlacementOutcome     `json:"remaining_placement,omitempty"`
	MorePenalties bool                          `json:"more_penalties"`
	AllProcessed  bool                          `json:"all_cards_processed"`
	CurrentRound  int                           `json:"current_round"`
}

type roundEndedData struct {
	NextRound    int             `json:"next_round"`
	PlayerStatus map[string]bool `json:"player_status"`
}

type gameFinishedData struct {
	WinnerName   string         `json:"winner_name"`
	WinnerPoints int            `json:"winner_points"`
	FinalScores  map[string]int `json:"final_scores"`
}
