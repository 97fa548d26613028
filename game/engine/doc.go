// Package engine provides the core game logic for the lowpile card game.
//
// The engine package implements the game mechanics including:
//   - Dealing 10-card hands and the 4 shared pile seeds from a 104-card deck
//   - Per-round card selection bookkeeping
//   - The incremental pile-placement algorithm with the 6th-card overflow rule
//   - Penalty point computation and the pending-penalty ("take a pile") flow
//   - Round advancement across the game's 10 rounds
//
// Core Types:
//
// GameEngine owns the authoritative GameState for one room and exposes the
// mutating operations (Deal, SelectCard, ResolveRound, ResolvePendingPenalty,
// AdvanceRound). The placement resolver itself is a pure function of the
// piles and the round's selections, so identical inputs always produce
// identical outcomes regardless of the order players submitted their cards.
//
// Usage:
//
//	eng, err := engine.NewEngine(roomID, players)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	deal, err := eng.Deal()
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	eng.SelectCard(playerID, card)
//	if eng.IsRoundComplete() {
//		outcomes := eng.ResolveRound()
//		// inspect outcomes, resolve pending penalties, advance the round
//	}
//
// Game Rules:
//
// Each of 2-10 players holds 10 cards from a 104-card deck. Every round all
// players pick one card simultaneously; cards are then placed onto 4 shared
// piles from the lowest card up, each card going to the pile whose top is
// closest below it. A card that fits no pile forces its player to take a
// whole pile as penalty points; a card that would be a pile's 6th makes its
// player take the 5 cards beneath it. After 10 rounds the player with the
// fewest penalty points wins.
package engine
