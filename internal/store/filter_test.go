package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFilterAndDoesNotAlias(t *testing.T) {
	base := Where("a", 1)
	left := base.And("b", 2)
	right := base.And("b", 3)

	assert.Len(t, base.Conds(), 1)
	assert.Equal(t, Cond{Column: "b", Value: 2}, left.Conds()[1])
	assert.Equal(t, Cond{Column: "b", Value: 3}, right.Conds()[1])
}

func TestFilterMatch(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	row := Row{"name": "Widget", "at": now, "deleted": nil}

	assert.True(t, Filter{}.Match(row))
	assert.True(t, Filter{}.Empty())
	assert.True(t, Where("name", "Widget").And("deleted", nil).Match(row))
	assert.True(t, Where("at", now.In(time.FixedZone("x", 3600))).Match(row))
	assert.False(t, Where("name", "Gadget").Match(row))
	assert.False(t, Where("name", nil).Match(row))
	assert.False(t, Where("missing", "x").Match(row))
}
