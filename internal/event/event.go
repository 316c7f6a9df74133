// Package event carries committed-edit notifications from the engine
// to its subscribers (syntax, LSP, collaboration) over bounded
// channels. Slow subscribers lose events and are told so; the edit
// thread never blocks on them.
package event

import "github.com/smash-editor/smash/internal/engine/buffer"

// Change is one primitive change inside an edit event, in the same
// shape the pipeline resolved it to.
type Change struct {
	StartByte int
	OldLen    int
	NewText   string
}

// Edit is published once per committed command (a Batch publishes
// one event carrying all its changes). Revision identifies the buffer
// state after the edit; changes are listed in application order.
type Edit struct {
	Revision uint64
	Origin   buffer.Origin
	Changes  []Change
}

// Lagged tells a subscriber that Missed events were dropped because
// its channel was full. The subscriber must resync from a snapshot;
// the next Edit it sees is not contiguous with the last one.
type Lagged struct {
	Missed uint64
}

// Event is either an Edit or a Lagged marker.
type Event interface{ isEvent() }

func (Edit) isEvent()   {}
func (Lagged) isEvent() {}
