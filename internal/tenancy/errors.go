package tenancy

import "errors"

var (
	// ErrTenantNotFound is returned by a Lookup when no tenant has the identifier.
	ErrTenantNotFound = errors.New("tenant not found")

	// ErrNoBinding is returned when the context was not prepared with NewContext.
	ErrNoBinding = errors.New("no tenant binding in context")

	// ErrAlreadyBound is returned when a different tenant is bound twice in one operation.
	ErrAlreadyBound = errors.New("operation already bound to another tenant")

	// ErrTenantRequired is reported by RequireTenant when nothing was bound.
	ErrTenantRequired = errors.New("tenant required")
)
