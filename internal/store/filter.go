package store

import (
	"bytes"
	"reflect"
	"time"
)

// Cond is a single column equality. A nil Value matches NULL.
type Cond struct {
	Column string
	Value  any
}

// Filter is a conjunction of equality conditions. The zero Filter matches every row.
type Filter struct {
	conds []Cond
}

// Where starts a filter with column == value.
func Where(column string, value any) Filter {
	return Filter{}.And(column, value)
}

// And returns a new filter with column == value added.
func (f Filter) And(column string, value any) Filter {
	conds := make([]Cond, len(f.conds), len(f.conds)+1)
	copy(conds, f.conds)
	return Filter{conds: append(conds, Cond{Column: column, Value: value})}
}

// Conds returns the conditions in the order they were added.
func (f Filter) Conds() []Cond {
	out := make([]Cond, len(f.conds))
	copy(out, f.conds)
	return out
}

func (f Filter) Empty() bool { return len(f.conds) == 0 }

// Match evaluates the filter against an in-memory row.
func (f Filter) Match(row Row) bool {
	for _, c := range f.conds {
		if !valuesEqual(row[c.Column], c.Value) {
			return false
		}
	}
	return true
}

func valuesEqual(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	switch av := a.(type) {
	case time.Time:
		bv, ok := b.(time.Time)
		return ok && av.Equal(bv)
	case []byte:
		bv, ok := b.([]byte)
		return ok && bytes.Equal(av, bv)
	}
	return reflect.DeepEqual(a, b)
}
