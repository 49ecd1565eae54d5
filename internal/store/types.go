package store

import "github.com/roach88/smartcoll/internal/value"

// Run identifies one recorded session.
type Run struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

// EventRecord is one stored event.
//
// OpID, Kind, Position, Item and ItemHash are empty for empty and flush
// events.
type EventRecord struct {
	RunID      string      `json:"run_id"`
	Seq        int64       `json:"seq"`
	Collection string      `json:"collection"`
	Event      string      `json:"event"`
	OpID       string      `json:"op_id,omitempty"`
	Kind       string      `json:"kind,omitempty"`
	Position   string      `json:"position,omitempty"`
	Item       value.Value `json:"-"`
	ItemHash   string      `json:"item_hash,omitempty"`
}

// SuspendedOp is an operation with a recorded cancel and no recorded resume.
type SuspendedOp struct {
	RunID      string      `json:"run_id"`
	Collection string      `json:"collection"`
	OpID       string      `json:"op_id"`
	Kind       string      `json:"kind"`
	Position   string      `json:"position"`
	Item       value.Value `json:"-"`
	CancelSeq  int64       `json:"cancel_seq"`
}
