// Package api provides the REST and websocket surface of the lowpile
// card game server.
//
// The API exposes room lifecycle (create, join, list, inspect), the game
// operations (start, select a card, take a pile, snapshot), and the
// websocket endpoint clients attach to for room broadcasts.
//
// Endpoints:
//
//	POST /room                      create a room, creator becomes admin
//	GET  /rooms                     list rooms
//	GET  /rooms/{id}                inspect one room
//	POST /rooms/{id}/join           join a waiting room
//	DELETE /rooms/{id}              tear a room down
//	POST /rooms/{id}/start          deal and start (admin only)
//	POST /rooms/{id}/select         submit this round's card
//	POST /rooms/{id}/take-pile      resolve a pending penalty
//	GET  /rooms/{id}/state          consistent game state snapshot
//	GET  /ws/{roomID}/{playerID}    websocket for room broadcasts
//
// Every mutating handler hands the operation's event batch to the hub
// only after the service call has returned, so broadcast latency never
// extends the room's critical section.
package api
