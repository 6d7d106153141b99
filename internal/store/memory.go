package store

import (
	"context"
	"fmt"
	"slices"
	"sync"
)

// MemoryEngine is an in-process Engine. Commits are all-or-nothing: changes
// are applied to copies of the touched tables which replace the originals
// only when every change succeeded.
type MemoryEngine struct {
	mu     sync.RWMutex
	tables map[string]*memTable
	unique map[string][]string
}

type memTable struct {
	rows  map[any]Row
	order []any
}

func newMemTable() *memTable {
	return &memTable{rows: make(map[any]Row)}
}

func (t *memTable) clone() *memTable {
	cp := &memTable{
		rows:  make(map[any]Row, len(t.rows)),
		order: slices.Clone(t.order),
	}
	for id, row := range t.rows {
		cp.rows[id] = row
	}
	return cp
}

func (t *memTable) matching(f Filter) []any {
	var ids []any
	for _, id := range t.order {
		if f.Match(t.rows[id]) {
			ids = append(ids, id)
		}
	}
	return ids
}

func NewMemoryEngine() *MemoryEngine {
	return &MemoryEngine{
		tables: make(map[string]*memTable),
		unique: make(map[string][]string),
	}
}

// Unique declares single-column unique constraints on a collection.
func (m *MemoryEngine) Unique(collection string, columns ...string) *MemoryEngine {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.unique[collection] = append(m.unique[collection], columns...)
	return m
}

func (m *MemoryEngine) Select(ctx context.Context, collection string, columns []string, filter Filter) ([]Row, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	t, ok := m.tables[collection]
	if !ok {
		return []Row{}, nil
	}

	out := make([]Row, 0)
	for _, id := range t.matching(filter) {
		row := t.rows[id]
		projected := make(Row, len(columns))
		for _, col := range columns {
			projected[col] = row[col]
		}
		out = append(out, projected)
	}
	return out, nil
}

func (m *MemoryEngine) Commit(ctx context.Context, changes []Change) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	staged := make(map[string]*memTable)
	table := func(name string) *memTable {
		if t, ok := staged[name]; ok {
			return t
		}
		t, ok := m.tables[name]
		if ok {
			t = t.clone()
		} else {
			t = newMemTable()
		}
		staged[name] = t
		return t
	}

	affected := 0
	for i, ch := range changes {
		t := table(ch.Collection)
		switch ch.Op {
		case OpInsert:
			id := ch.Row[IDColumn]
			if id == nil {
				return 0, fmt.Errorf("change %d: insert into %s without %s", i, ch.Collection, IDColumn)
			}
			if _, exists := t.rows[id]; exists {
				return 0, fmt.Errorf("change %d: %s %v: %w", i, ch.Collection, id, ErrDuplicateKey)
			}
			if err := m.checkUnique(t, ch.Collection, ch.Row, nil); err != nil {
				return 0, fmt.Errorf("change %d: %w", i, err)
			}
			t.rows[id] = ch.Row.Clone()
			t.order = append(t.order, id)
			affected++

		case OpUpdate:
			ids := t.matching(ch.Guard)
			if len(ids) == 0 {
				return 0, fmt.Errorf("change %d: update %s: %w", i, ch.Collection, ErrNotFound)
			}
			for _, id := range ids {
				updated := t.rows[id].Clone()
				for col, v := range ch.Row {
					updated[col] = v
				}
				if err := m.checkUnique(t, ch.Collection, updated, id); err != nil {
					return 0, fmt.Errorf("change %d: %w", i, err)
				}
				t.rows[id] = updated
				affected++
			}

		case OpDelete:
			ids := t.matching(ch.Guard)
			if len(ids) == 0 {
				return 0, fmt.Errorf("change %d: delete %s: %w", i, ch.Collection, ErrNotFound)
			}
			for _, id := range ids {
				delete(t.rows, id)
				t.order = slices.DeleteFunc(t.order, func(o any) bool { return o == id })
				affected++
			}

		default:
			return 0, fmt.Errorf("change %d: unsupported op %v", i, ch.Op)
		}
	}

	for name, t := range staged {
		m.tables[name] = t
	}
	return affected, nil
}

func (m *MemoryEngine) checkUnique(t *memTable, collection string, row Row, self any) error {
	for _, col := range m.unique[collection] {
		for id, existing := range t.rows {
			if id == self {
				continue
			}
			if valuesEqual(existing[col], row[col]) {
				return fmt.Errorf("%s.%s %v: %w", collection, col, row[col], ErrDuplicateKey)
			}
		}
	}
	return nil
}

func (m *MemoryEngine) Ping(ctx context.Context) error {
	return ctx.Err()
}
