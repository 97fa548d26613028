package service

import (
	"context"
	"fmt"

	"github.com/lowpile/lowpile/game/engine"
	"github.com/lowpile/lowpile/game/room"
)

// gameServiceImpl implements the GameService interface
type gameServiceImpl struct {
	rooms  *room.Manager
	strict bool
}

// NewGameService creates a new game service backed by the given room
// registry. With strict enabled every engine mutation re-checks the card
// conservation invariants.
func NewGameService(rooms *room.Manager, strict bool) GameService {
	return &gameServiceImpl{
		rooms:  rooms,
		strict: strict,
	}
}

// CreateRoom creates a room with the named player as admin.
func (s *gameServiceImpl) CreateRoom(ctx context.Context, playerName string) (*CreateRoomResult, error) {
	r, admin, err := s.rooms.Create(playerName)
	if err != nil {
		return nil, fmt.Errorf("failed to create room: %w", err)
	}

	return &CreateRoomResult{
		RoomID:   r.ID,
		PlayerID: admin.ID,
		Events: []Event{
			{Type: EventRoomCreated, Data: roomCreatedData{AdminName: admin.Name}},
		},
	}, nil
}

// JoinRoom adds a participant to a waiting room.
func (s *gameServiceImpl) JoinRoom(ctx context.Context, roomID, playerName string) (*JoinRoomResult, error) {
	p, err := s.rooms.Join(roomID, playerName)
	if err != nil {
		return nil, err
	}

	return &JoinRoomResult{
		RoomID:   roomID,
		PlayerID: p.ID,
		Events: []Event{
			{Type: EventPlayerJoined, Data: playerJoinedData{PlayerName: p.Name}},
		},
	}, nil
}

// ListRooms returns all active rooms.
func (s *gameServiceImpl) ListRooms(ctx context.Context) ([]*RoomInfo, error) {
	rooms := s.rooms.List()
	result := make([]*RoomInfo, 0, len(rooms))
	for _, r := range rooms {
		result = append(result, s.roomInfo(r))
	}
	return result, nil
}

// GetRoom returns one room.
func (s *gameServiceImpl) GetRoom(ctx context.Context, roomID string) (*RoomInfo, error) {
	r, err := s.rooms.Get(roomID)
	if err != nil {
		return nil, err
	}
	return s.roomInfo(r), nil
}

// DeleteRoom tears a room down.
func (s *gameServiceImpl) DeleteRoom(ctx context.Context, roomID string) error {
	return s.rooms.Delete(roomID)
}

// StartGame deals the hands and pile seeds. Only the room's admin may start.
func (s *gameServiceImpl) StartGame(ctx context.Context, roomID, playerID string) (*StartGameResult, error) {
	r, err := s.rooms.Get(roomID)
	if err != nil {
		return nil, err
	}

	r.Lock()
	defer r.Unlock()

	if r.Status != room.StatusWaiting {
		return nil, room.ErrGameStarted
	}
	admin := r.Admin()
	if admin == nil || admin.ID != playerID {
		return nil, room.ErrNotAdmin
	}

	eng, err := engine.NewEngine(r.ID, r.Players)
	if err != nil {
		return nil, err
	}
	eng.SetStrict(s.strict)

	deal, err := eng.Deal()
	if err != nil {
		return nil, err
	}

	r.Engine = eng
	r.Status = room.StatusStarted

	snap := eng.Snapshot()
	return &StartGameResult{
		Deal: deal,
		Events: []Event{
			{Type: EventGameStarted, Data: gameStartedData{
				Hands:        snap.Hands,
				SharedCards:  snap.SharedCards,
				Points:       snap.Points,
				Piles:        snap.Piles,
				PlayerStatus: snap.HasSelected,
			}},
		},
	}, nil
}

// SubmitSelection records one player's card for the round. If the selection
// completes the round, the same atomic unit resolves it and, when no
// blocking card is left, advances the round or finishes the game. The
// returned event batch reflects that execution order.
func (s *gameServiceImpl) SubmitSelection(ctx context.Context, roomID, playerID string, card engine.Card) (*SelectionResult, error) {
	r, err := s.rooms.Get(roomID)
	if err != nil {
		return nil, err
	}

	r.Lock()
	defer r.Unlock()

	if r.Engine == nil {
		return nil, room.ErrGameNotStarted
	}

	// Players outside the room hold no hand, so their cards are rejected as
	// not-in-hand like any other invalid selection.
	outcome := r.Engine.SelectCard(playerID, card)
	if !outcome.Accepted() {
		// Rejections are silent to the rest of the room: no events.
		return &SelectionResult{Outcome: outcome}, nil
	}

	snap := r.Engine.Snapshot()
	result := &SelectionResult{
		Outcome: outcome,
		Events: []Event{
			{Type: EventCardSelected, Data: cardSelectedData{
				Hands:        snap.Hands,
				LastSelected: snap.LastCard,
				PlayerStatus: snap.HasSelected,
			}},
		},
	}

	if !r.Engine.IsRoundComplete() {
		return result, nil
	}

	result.RoundComplete = true
	result.Placements = r.Engine.ResolveRound()
	result.PenaltyPending = r.Engine.Pending()

	snap = r.Engine.Snapshot()
	result.Events = append(result.Events, Event{
		Type: EventRoundComplete,
		Data: roundCompleteData{
			Round:         snap.Round,
			Placements:    result.Placements,
			PenaltyNeeded: result.PenaltyPending != nil,
			Hands:         snap.Hands,
			LastSelected:  snap.LastCard,
			Piles:         snap.Piles,
			Points:        snap.Points,
			PlayerStatus:  snap.HasSelected,
		},
	})

	if result.PenaltyPending != nil {
		return result, nil
	}

	advanced, finished, events := s.advance(r)
	result.RoundAdvanced = advanced
	result.GameFinished = finished
	result.Events = append(result.Events, events...)
	return result, nil
}

// SubmitPenaltyResolution lets the blocked player take a pile, then resumes
// resolution of the round's remaining cards in the same atomic unit.
func (s *gameServiceImpl) SubmitPenaltyResolution(ctx context.Context, roomID, playerID string, pileIdx int, lowCard engine.Card) (*PenaltyResult, error) {
	r, err := s.rooms.Get(roomID)
	if err != nil {
		return nil, err
	}

	r.Lock()
	defer r.Unlock()

	if r.Engine == nil {
		return nil, room.ErrGameNotStarted
	}

	penalty, taken, err := r.Engine.ResolvePendingPenalty(playerID, pileIdx, lowCard)
	if err != nil {
		return nil, err
	}

	remaining := r.Engine.ResolveRound()
	pending := r.Engine.Pending()

	result := &PenaltyResult{
		PenaltyPoints:  penalty,
		TakenCards:     taken,
		Remaining:      remaining,
		PenaltyPending: pending,
	}

	snap := r.Engine.Snapshot()
	result.Events = []Event{
		{Type: EventPileTaken, Data: pileTakenData{
			PlayerID:      playerID,
			Pile:          pileIdx,
			PenaltyPoints: penalty,
			TakenCards:    taken,
			Piles:         snap.Piles,
			Points:        snap.Points,
			Remaining:     remaining,
			MorePenalties: pending != nil,
			AllProcessed:  pending == nil,
			CurrentRound:  snap.Round,
		}},
	}

	if pending != nil {
		return result, nil
	}

	advanced, finished, events := s.advance(r)
	result.RoundAdvanced = advanced
	result.GameFinished = finished
	result.Events = append(result.Events, events...)
	return result, nil
}

// GetSnapshot returns a consistent copy of the room's game state.
func (s *gameServiceImpl) GetSnapshot(ctx context.Context, roomID string) (*engine.GameState, error) {
	r, err := s.rooms.Get(roomID)
	if err != nil {
		return nil, err
	}

	r.Lock()
	defer r.Unlock()

	if r.Engine == nil {
		return nil, room.ErrGameNotStarted
	}
	return r.Engine.Snapshot(), nil
}

// advance moves a fully processed round forward. Called with the room's
// section held.
func (s *gameServiceImpl) advance(r *room.Room) (advanced, finished bool, events []Event) {
	if !r.Engine.IsRoundFullyProcessed() {
		return false, false, nil
	}

	if r.Engine.AdvanceRound() {
		snap := r.Engine.Snapshot()
		return true, false, []Event{
			{Type: EventRoundEnded, Data: roundEndedData{
				NextRound:    snap.Round,
				PlayerStatus: snap.HasSelected,
			}},
		}
	}

	snap := r.Engine.Snapshot()
	winnerID, winnerPoints := winner(snap)
	winnerName := winnerID
	for _, p := range snap.Players {
		if p.ID == winnerID {
			winnerName = p.Name
			break
		}
	}
	return false, true, []Event{
		{Type: EventGameFinished, Data: gameFinishedData{
			WinnerName:   winnerName,
			WinnerPoints: winnerPoints,
			FinalScores:  snap.Points,
		}},
	}
}

// winner picks the player with the fewest penalty points, first in seating
// order on ties.
func winner(gs *engine.GameState) (string, int) {
	bestID := ""
	bestPoints := 0
	for _, p := range gs.Players {
		pts := gs.Points[p.ID]
		if bestID == "" || pts < bestPoints {
			bestID = p.ID
			bestPoints = pts
		}
	}
	return bestID, bestPoints
}

// roomInfo copies the registry view of a room under its section.
func (s *gameServiceImpl) roomInfo(r *room.Room) *RoomInfo {
	r.Lock()
	defer r.Unlock()
	return &RoomInfo{
		ID:        r.ID,
		Players:   append([]engine.Player(nil), r.Players...),
		Status:    r.Status,
		CreatedAt: r.CreatedAt,
	}
}
