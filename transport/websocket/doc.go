// Package websocket provides real-time event delivery for the lowpile
// card game server.
//
// The hub keeps a set of connected clients per room and fans broadcast
// events out to them. Events handed over as one batch are delivered as a
// contiguous ordered sequence. A client whose send buffer fills up, or
// whose connection errors, is dropped without affecting delivery to the
// rest of the room.
//
// Incoming frames from clients are read and discarded: all game actions
// travel over the REST API, the websocket is broadcast-only.
package websocket
