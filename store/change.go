package store

import (
	"context"
	"time"
)

// Action is the kind of committed change.
type Action string

const (
	ActionInsert Action = "INSERT"
	ActionModify Action = "MODIFY"
	ActionRemove Action = "REMOVE"
)

// Change describes one committed record mutation.
type Change struct {
	// Seq orders changes across the store; it is assigned under the store lock.
	Seq uint64

	Resource string
	Action   Action
	ID       int64

	// Old is the record before the change (nil for inserts).
	Old Record

	// New is the record after the change (nil for removals).
	New Record

	// Cascade marks removals performed by a relationship rule rather than by the caller.
	Cascade bool

	At time.Time
}

// ChangeSink receives the changes of each committed operation, in Seq order
// within the batch. Publish runs after the store lock is released, so a sink
// may call back into the store. Errors are logged and never undo the commit.
type ChangeSink interface {
	Publish(ctx context.Context, changes []Change) error
}

// txn collects the changes of one operation while the store lock is held.
type txn struct {
	store   *Store
	sink    ChangeSink
	now     time.Time
	changes []Change
}

func (tx *txn) record(c Change) {
	if tx.sink == nil {
		return
	}
	tx.store.seq++
	c.Seq = tx.store.seq
	c.At = tx.now
	c.Old = c.Old.Clone()
	c.New = c.New.Clone()
	tx.changes = append(tx.changes, c)
}
