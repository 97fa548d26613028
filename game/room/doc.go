// Package room provides room management for the lowpile card game server.
//
// The room package implements:
//   - Thread-safe room storage and retrieval
//   - Room creation with an admin player and joining with a participant cap
//   - Per-room exclusive sections serializing all game mutations
//   - Room lifecycle management
//
// Core Types:
//
// Manager is the registry mapping room IDs to rooms; its own lock only
// guards inserts, lookups and removals. Room holds the member list, the
// game engine once the game has started, and the mutex that makes every
// mutating game operation for that room an atomic unit. Rooms are fully
// independent: holding one room's section never blocks another room.
//
// Identifiers:
//
// Room IDs are 5-character and player IDs 8-character prefixes of random
// UUIDs, short enough to type or paste into a join form.
//
// Usage:
//
//	manager := room.NewManager()
//
//	r, admin, err := manager.Create("alice")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	bob, err := manager.Join(r.ID, "bob")
//	if err != nil {
//		log.Fatal(err)
//	}
package room
