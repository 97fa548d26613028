package engine

// Card is one of the 104 deck cards, identified by its face value 1..104.
type Card int

// Points returns the penalty value of the card. 55 must be checked before
// the multiple-of-11 and multiple-of-5 rules since it matches both.
func (c Card) Points() int {
	switch {
	case c == 55:
		return 7
	case c%11 == 0:
		return 5
	case c%10 == 0:
		return 3
	case c%5 == 0:
		return 2
	default:
		return 1
	}
}

// GameStatus represents the lifecycle phase of a game
type GameStatus string

// Role distinguishes the room admin from regular participants
type Role string

const (
	StatusWaiting    GameStatus = "waiting"
	StatusInProgress GameStatus = "in_progress"
	StatusFinished   GameStatus = "finished"

	RoleAdmin  Role = "admin"
	RolePlayer Role = "player"

	// Validation constants
	DeckSize    = 104
	HandSize    = 10
	PileCount   = 4
	PileMaxLen  = 5
	TotalRounds = 10
	MinPlayers  = 2
	MaxPlayers  = 10
)

// Player identifies a participant as the engine sees it: identity details
// beyond id, name and role live in the room layer.
type Player struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Role Role   `json:"role"`
}

// Pile is one of the 4 shared ordered card sequences. Cards are appended
// strictly ascending over the pile's lifetime until it is cleared.
type Pile []Card

// Top returns the pile's top card, or 0 for an empty pile so that any card
// can be placed on it.
func (p Pile) Top() Card {
	if len(p) == 0 {
		return 0
	}
	return p[len(p)-1]
}

// Points returns the summed penalty value of every card in the pile.
func (p Pile) Points() int {
	total := 0
	for _, c := range p {
		total += c.Points()
	}
	return total
}

// PlacementAction classifies the outcome of placing one selected card
type PlacementAction string

const (
	ActionPlaced          PlacementAction = "placed"
	ActionTookPile        PlacementAction = "took_pile_6th"
	ActionPenaltyRequired PlacementAction = "penalty_required"
)

// PlacementOutcome records what happened to one selected card during round
// resolution, tagged with the owning player.
type PlacementOutcome struct {
	PlayerID      string          `json:"player_id"`
	Card          Card            `json:"card"`
	Action        PlacementAction `json:"action"`
	Pile          int             `json:"pile"`
	PenaltyPoints int             `json:"penalty_points,omitempty"`
	TakenCards    []Card          `json:"taken_cards,omitempty"`
}

// PendingPenalty carries the blocking card a player must resolve by taking
// one of the 4 piles before the round can continue.
type PendingPenalty struct {
	PlayerID string `json:"player_id"`
	Card     Card   `json:"card"`
}

// DealResult is the data handed back (and broadcast) when a game starts.
type DealResult struct {
	Hands       map[string][]Card `json:"player_cards"`
	SharedCards []Card            `json:"shared_cards"`
	Points      map[string]int    `json:"player_points"`
	Piles       [PileCount]Pile   `json:"shared_piles"`
}

// GameState is the root aggregate for one room's game. It is mutated only
// through GameEngine operations.
type GameState struct {
	RoomID      string                  `json:"room_id"`
	Players     []Player                `json:"players"`
	Hands       map[string][]Card       `json:"player_cards"`
	SharedCards []Card                  `json:"shared_cards"`
	Piles       [PileCount]Pile         `json:"shared_piles"`
	Round       int                     `json:"current_round"`
	Selections  map[int]map[string]Card `json:"round_selections"`
	HasSelected map[string]bool         `json:"player_status"`
	LastCard    map[string]Card         `json:"last_selected"`
	Processed   map[Card]bool           `json:"-"`
	Undealt     []Card                  `json:"-"`
	Discarded   []Card                  `json:"discarded"`
	Points      map[string]int          `json:"player_points"`
	Pending     *PendingPenalty         `json:"pending_penalty,omitempty"`
	Status      GameStatus              `json:"status"`
}

// SelectOutcome reports the result of a selection attempt. Rejections are
// recoverable and cause no state mutation.
type SelectOutcome string

const (
	SelectAccepted        SelectOutcome = "accepted"
	SelectAlreadySelected SelectOutcome = "already_selected"
	SelectCardNotInHand   SelectOutcome = "card_not_in_hand"
	SelectNotInProgress   SelectOutcome = "game_not_in_progress"
)

// Accepted reports whether the selection mutated the game.
func (o SelectOutcome) Accepted() bool {
	return o == SelectAccepted
}
