// Package service exposes the game operations the transport layers call.
//
// GameService is the boundary between the connection layer and the rules
// engine: every mutating call (join, start, selection, penalty resolution)
// is one atomic unit of work executed under the target room's exclusive
// section, and returns the ordered batch of events the caller should hand
// to the room's broadcaster after the call returns. Read-only calls copy
// state under the section so readers never observe a torn write.
//
// A selection that completes a round resolves it in the same atomic unit,
// so round resolution fires exactly once no matter how many selections
// race at the boundary.
package service
