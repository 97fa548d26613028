package service

import (
	"context"

	"github.com/lowpile/lowpile/game/engine"
)

// GameService defines all room and game operations
type GameService interface {
	// Room Management
	CreateRoom(ctx context.Context, playerName string) (*CreateRoomResult, error)
	JoinRoom(ctx context.Context, roomID, playerName string) (*JoinRoomResult, error)
	ListRooms(ctx context.Context) ([]*RoomInfo, error)
	GetRoom(ctx context.Context, roomID string) (*RoomInfo, error)
	DeleteRoom(ctx context.Context, roomID string) error

	// Game Operations
	StartGame(ctx context.Context, roomID, playerID string) (*StartGameResult, error)
	SubmitSelection(ctx context.Context, roomID, playerID string, card engine.Card) (*SelectionResult, error)
	SubmitPenaltyResolution(ctx context.Context, roomID, playerID string, pileIdx int, lowCard engine.Card) (*PenaltyResult, error)

	// Game State
	GetSnapshot(ctx context.Context, roomID string) (*engine.GameState, error)
}
