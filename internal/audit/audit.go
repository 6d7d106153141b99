// internal/audit/audit.go
package audit

import (
	"fmt"
	"time"
)

// Operation is the kind of mutation being stamped.
type Operation int

const (
	Created Operation = iota + 1
	Modified
)

func (o Operation) String() string {
	switch o {
	case Created:
		return "created"
	case Modified:
		return "modified"
	default:
		return fmt.Sprintf("operation(%d)", int(o))
	}
}

// Fields carries creation and modification metadata. Embed it in an entity
// to make the entity Auditable.
type Fields struct {
	CreatedAt  time.Time  `json:"created_at"`
	CreatedBy  string     `json:"created_by"`
	ModifiedAt *time.Time `json:"modified_at,omitempty"`
	ModifiedBy *string    `json:"modified_by,omitempty"`
}

// AuditFields exposes the embedded metadata.
func (f *Fields) AuditFields() *Fields { return f }

// Auditable is implemented by any entity embedding Fields.
type Auditable interface {
	AuditFields() *Fields
}

// Stamp records who touched the entity and when.
// Created only sets the creation pair, Modified only sets the modification pair.
func Stamp(entity Auditable, op Operation, actor string, now time.Time) {
	f := entity.AuditFields()
	if f == nil {
		return
	}

	switch op {
	case Created:
		f.CreatedAt = now
		f.CreatedBy = actor
	case Modified:
		at, by := now, actor
		f.ModifiedAt = &at
		f.ModifiedBy = &by
	}
}
