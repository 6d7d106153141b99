package store

import (
	"context"
	"errors"
	"maps"
)

// IDColumn is the primary key column every collection must carry.
const IDColumn = "id"

var (
	// ErrNotFound is returned when a row is missing from the caller's scope,
	// including update/delete guards that match nothing.
	ErrNotFound = errors.New("record not found")

	// ErrDuplicateKey is returned by engines on primary or unique key conflicts.
	ErrDuplicateKey = errors.New("duplicate key")
)

// Row is a column-name keyed record as exchanged with an Engine.
type Row map[string]any

// Clone returns a shallow copy of the row.
func (r Row) Clone() Row { return maps.Clone(r) }

// Op is the kind of pending change.
type Op int

const (
	OpInsert Op = iota + 1
	OpUpdate
	OpDelete
)

func (o Op) String() string {
	switch o {
	case OpInsert:
		return "insert"
	case OpUpdate:
		return "update"
	case OpDelete:
		return "delete"
	default:
		return "unknown"
	}
}

// Change is one entry of a change set handed to Engine.Commit.
//
// Inserts carry the full row. Updates carry only the columns to set, and
// updates and deletes carry a Guard that must match at least one row or the
// whole commit fails with ErrNotFound.
type Change struct {
	Op         Op
	Collection string
	Row        Row
	Guard      Filter
}

// Engine is the transactional persistence boundary.
type Engine interface {
	// Select returns the given columns of every row matching filter.
	Select(ctx context.Context, collection string, columns []string, filter Filter) ([]Row, error)

	// Commit applies changes atomically and returns the number of affected rows.
	// On error nothing is applied.
	Commit(ctx context.Context, changes []Change) (int, error)

	Ping(ctx context.Context) error
}
