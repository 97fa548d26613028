package engine

import (
	"errors"
	"fmt"
	"math/rand"
	"sort"
)

var (
	ErrInsufficientDeck = errors.New("not enough cards in the deck for this many players")
	ErrPlayerCount      = errors.New("at least 2 players are required")
	ErrNotStarted       = errors.New("game has not been dealt yet")
	ErrNoPendingPenalty = errors.New("no pending penalty to resolve")
	ErrPlayerMismatch   = errors.New("card does not match the recorded blocking card for this player")
	ErrInvalidPile      = errors.New("pile index out of range")
)

// GameEngine owns the authoritative game state for one room. It is not safe
// for concurrent use; callers serialize access through the room's lock.
type GameEngine struct {
	state  *GameState
	strict bool
}

// NewEngine creates an engine for the given room and player list. The player
// order is fixed for the rest of the game.
func NewEngine(roomID string, players []Player) (*GameEngine, error) {
	if len(players) < MinPlayers {
		return nil, ErrPlayerCount
	}
	// 10 cards per hand plus the 4 pile seeds; caps the game at 10 players.
	if HandSize*len(players)+PileCount > DeckSize {
		return nil, ErrInsufficientDeck
	}

	seen := make(map[string]bool, len(players))
	for _, p := range players {
		if p.ID == "" || seen[p.ID] {
			return nil, fmt.Errorf("invalid player list: duplicate or empty id %q", p.ID)
		}
		seen[p.ID] = true
	}

	return &GameEngine{
		state: &GameState{
			RoomID:      roomID,
			Players:     append([]Player(nil), players...),
			Hands:       make(map[string][]Card),
			Selections:  make(map[int]map[string]Card),
			HasSelected: make(map[string]bool),
			LastCard:    make(map[string]Card),
			Processed:   make(map[Card]bool),
			Points:      make(map[string]int),
			Status:      StatusWaiting,
		},
	}, nil
}

// SetStrict enables invariant checks after every mutating operation. A
// violated invariant means a corrupted GameState, so strict mode panics.
func (e *GameEngine) SetStrict(strict bool) {
	e.strict = strict
}

// State returns the live game state. Callers outside tests should prefer
// Snapshot.
func (e *GameEngine) State() *GameState {
	return e.state
}

// Status returns the game lifecycle phase.
func (e *GameEngine) Status() GameStatus {
	return e.state.Status
}

// Round returns the current round number (1..10).
func (e *GameEngine) Round() int {
	return e.state.Round
}

// Pending returns the outstanding blocking card, or nil.
func (e *GameEngine) Pending() *PendingPenalty {
	return e.state.Pending
}

// Deal shuffles the 104-card deck, hands each player a sorted block of 10
// cards, and seeds the 4 piles with the next 4 cards sorted ascending across
// pile indices. It moves the game to in_progress at round 1. The returned
// result is a copy, safe to read after later mutations.
func (e *GameEngine) Deal() (*DealResult, error) {
	gs := e.state
	if gs.Status != StatusWaiting {
		return nil, fmt.Errorf("deal: game already %s", gs.Status)
	}

	deck := make([]Card, DeckSize)
	for i := range deck {
		deck[i] = Card(i + 1)
	}
	rand.Shuffle(len(deck), func(i, j int) { deck[i], deck[j] = deck[j], deck[i] })

	for i, p := range gs.Players {
		hand := append([]Card(nil), deck[i*HandSize:(i+1)*HandSize]...)
		sort.Slice(hand, func(a, b int) bool { return hand[a] < hand[b] })
		gs.Hands[p.ID] = hand
		gs.Points[p.ID] = 0
	}

	used := len(gs.Players) * HandSize
	shared := append([]Card(nil), deck[used:used+PileCount]...)
	sort.Slice(shared, func(a, b int) bool { return shared[a] < shared[b] })
	gs.SharedCards = shared
	for i, c := range shared {
		gs.Piles[i] = Pile{c}
	}
	// With fewer than 10 players part of the deck never enters play; keep it
	// so conservation can be checked against all 104 cards.
	gs.Undealt = append([]Card(nil), deck[used+PileCount:]...)

	gs.Status = StatusInProgress
	gs.Round = 1
	e.check()

	res := &DealResult{
		Hands:       make(map[string][]Card, len(gs.Hands)),
		SharedCards: append([]Card(nil), gs.SharedCards...),
		Points:      make(map[string]int, len(gs.Points)),
	}
	for id, hand := range gs.Hands {
		res.Hands[id] = append([]Card(nil), hand...)
	}
	for id, pts := range gs.Points {
		res.Points[id] = pts
	}
	for i := range gs.Piles {
		res.Piles[i] = append(Pile(nil), gs.Piles[i]...)
	}
	return res, nil
}

// SelectCard records the player's selection for the current round, removes
// the card from their hand, and marks them as done selecting. Rejections
// leave the state untouched.
func (e *GameEngine) SelectCard(playerID string, c Card) SelectOutcome {
	gs := e.state
	if gs.Status != StatusInProgress {
		return SelectNotInProgress
	}
	if gs.HasSelected[playerID] {
		return SelectAlreadySelected
	}

	hand := gs.Hands[playerID]
	idx := -1
	for i, held := range hand {
		if held == c {
			idx = i
			break
		}
	}
	if idx < 0 {
		return SelectCardNotInHand
	}

	if gs.Selections[gs.Round] == nil {
		gs.Selections[gs.Round] = make(map[string]Card)
	}
	gs.Selections[gs.Round][playerID] = c
	gs.HasSelected[playerID] = true
	gs.LastCard[playerID] = c
	gs.Hands[playerID] = append(hand[:idx], hand[idx+1:]...)
	e.check()
	return SelectAccepted
}

// IsRoundComplete reports whether every player has selected this round.
func (e *GameEngine) IsRoundComplete() bool {
	gs := e.state
	for _, p := range gs.Players {
		if !gs.HasSelected[p.ID] {
			return false
		}
	}
	return len(gs.Players) > 0
}

// ResolveRound places this round's still-unprocessed selections onto the
// piles in ascending card order, crediting penalties as it goes. If a card
// fits no pile, resolution stops there and the engine enters the
// pending-penalty state; calling ResolveRound again after the penalty is
// resolved continues with the remaining cards.
func (e *GameEngine) ResolveRound() []PlacementOutcome {
	gs := e.state
	outcomes := resolvePlacements(gs.Piles, gs.Selections[gs.Round], gs.Processed)

	for _, out := range outcomes {
		switch out.Action {
		case ActionPlaced:
			gs.Piles[out.Pile] = append(gs.Piles[out.Pile], out.Card)
			gs.Processed[out.Card] = true
		case ActionTookPile:
			gs.Points[out.PlayerID] += out.PenaltyPoints
			gs.Discarded = append(gs.Discarded, out.TakenCards...)
			gs.Piles[out.Pile] = Pile{out.Card}
			gs.Processed[out.Card] = true
		case ActionPenaltyRequired:
			gs.Pending = &PendingPenalty{PlayerID: out.PlayerID, Card: out.Card}
		}
	}
	e.check()
	return outcomes
}

// ResolvePendingPenalty executes the blocked player's voluntary take: any of
// the 4 piles is legal. The pile's cards become penalty points, the pile
// restarts as [lowCard], and the blocker is marked processed. The caller
// must invoke ResolveRound again to continue the round.
func (e *GameEngine) ResolvePendingPenalty(playerID string, pileIdx int, lowCard Card) (int, []Card, error) {
	gs := e.state
	if gs.Pending == nil {
		return 0, nil, ErrNoPendingPenalty
	}
	if gs.Pending.PlayerID != playerID || gs.Pending.Card != lowCard {
		return 0, nil, ErrPlayerMismatch
	}
	if pileIdx < 0 || pileIdx >= PileCount {
		return 0, nil, ErrInvalidPile
	}

	taken := append([]Card(nil), gs.Piles[pileIdx]...)
	penalty := Pile(taken).Points()
	gs.Points[playerID] += penalty
	gs.Discarded = append(gs.Discarded, taken...)
	gs.Piles[pileIdx] = Pile{lowCard}
	gs.Processed[lowCard] = true
	gs.Pending = nil
	e.check()
	return penalty, taken, nil
}

// IsRoundFullyProcessed reports whether every selection of the current round
// has been placed or taken and no blocking card is outstanding.
func (e *GameEngine) IsRoundFullyProcessed() bool {
	gs := e.state
	if gs.Pending != nil {
		return false
	}
	for _, c := range gs.Selections[gs.Round] {
		if !gs.Processed[c] {
			return false
		}
	}
	return true
}

// AdvanceRound moves to the next round, clearing the per-round selection and
// processed bookkeeping. It refuses while any selected card is unresolved or
// a blocking card is outstanding. At round 10 the game finishes instead and
// false is returned. Past selections stay recorded per round number.
func (e *GameEngine) AdvanceRound() bool {
	gs := e.state
	if gs.Status != StatusInProgress || !e.IsRoundFullyProcessed() {
		return false
	}
	if gs.Round < TotalRounds {
		gs.Round++
		gs.HasSelected = make(map[string]bool)
		gs.Processed = make(map[Card]bool)
		return true
	}
	gs.Status = StatusFinished
	return false
}

// RoundResults returns the selections recorded for a past or current round.
func (e *GameEngine) RoundResults(round int) map[string]Card {
	results := make(map[string]Card, len(e.state.Selections[round]))
	for playerID, c := range e.state.Selections[round] {
		results[playerID] = c
	}
	return results
}

// Snapshot returns a deep copy of the game state, safe to hand to readers
// outside the room's lock.
func (e *GameEngine) Snapshot() *GameState {
	gs := e.state
	cp := &GameState{
		RoomID:      gs.RoomID,
		Players:     append([]Player(nil), gs.Players...),
		Hands:       make(map[string][]Card, len(gs.Hands)),
		SharedCards: append([]Card(nil), gs.SharedCards...),
		Round:       gs.Round,
		Selections:  make(map[int]map[string]Card, len(gs.Selections)),
		HasSelected: make(map[string]bool, len(gs.HasSelected)),
		LastCard:    make(map[string]Card, len(gs.LastCard)),
		Processed:   make(map[Card]bool, len(gs.Processed)),
		Undealt:     append([]Card(nil), gs.Undealt...),
		Discarded:   append([]Card(nil), gs.Discarded...),
		Points:      make(map[string]int, len(gs.Points)),
		Status:      gs.Status,
	}
	for id, hand := range gs.Hands {
		cp.Hands[id] = append([]Card(nil), hand...)
	}
	for i := range gs.Piles {
		cp.Piles[i] = append(Pile(nil), gs.Piles[i]...)
	}
	for round, sel := range gs.Selections {
		m := make(map[string]Card, len(sel))
		for id, c := range sel {
			m[id] = c
		}
		cp.Selections[round] = m
	}
	for id, v := range gs.HasSelected {
		cp.HasSelected[id] = v
	}
	for id, c := range gs.LastCard {
		cp.LastCard[id] = c
	}
	for c, v := range gs.Processed {
		cp.Processed[c] = v
	}
	for id, pts := range gs.Points {
		cp.Points[id] = pts
	}
	if gs.Pending != nil {
		p := *gs.Pending
		cp.Pending = &p
	}
	return cp
}

// CheckInvariants verifies card conservation and pile ordering. Any failure
// indicates a corrupted GameState, not a recoverable input error.
func (e *GameEngine) CheckInvariants() error {
	gs := e.state
	if gs.Status == StatusWaiting {
		return nil
	}

	count := make(map[Card]int, DeckSize)
	for _, hand := range gs.Hands {
		for _, c := range hand {
			count[c]++
		}
	}
	for i := range gs.Piles {
		prev := Card(0)
		for _, c := range gs.Piles[i] {
			if c <= prev {
				return fmt.Errorf("pile %d is not strictly ascending", i)
			}
			prev = c
			count[c]++
		}
	}
	for _, c := range gs.Discarded {
		count[c]++
	}
	for _, c := range gs.Undealt {
		count[c]++
	}
	// Selected but not yet placed cards are in transit between a hand and a
	// pile.
	for _, c := range gs.Selections[gs.Round] {
		if !gs.Processed[c] {
			count[c]++
		}
	}

	for v := Card(1); v <= DeckSize; v++ {
		if count[v] != 1 {
			return fmt.Errorf("card %d appears %d times", v, count[v])
		}
	}
	return nil
}

func (e *GameEngine) check() {
	if !e.strict {
		return
	}
	if err := e.CheckInvariants(); err != nil {
		panic(fmt.Sprintf("game state corrupted: %v", err))
	}
}
