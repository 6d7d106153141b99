package store

import (
	"errors"
	"fmt"
)

var (
	// ErrForeignCollection is returned when a collection handle comes from another registry.
	ErrForeignCollection = errors.New("collection not registered with this store")

	// ErrAlreadyTracked is returned when the same entity is added twice to one session.
	ErrAlreadyTracked = errors.New("entity already tracked")

	ErrNilEntity = errors.New("nil entity")
	ErrMissingID = errors.New("entity has no id")
)

// CrossTenantWriteError rejects a write whose entity belongs to a tenant
// other than the one bound to the operation.
type CrossTenantWriteError struct {
	Collection string
	Bound      string
	Entity     string
}

func (e *CrossTenantWriteError) Error() string {
	return fmt.Sprintf("cross-tenant write to %s: entity belongs to %q, operation bound to %q",
		e.Collection, e.Entity, e.Bound)
}

// IsCrossTenantWrite reports whether err is or wraps a CrossTenantWriteError.
func IsCrossTenantWrite(err error) bool {
	var target *CrossTenantWriteError
	return errors.As(err, &target)
}
