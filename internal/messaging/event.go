package messaging

import (
	"context"
	"time"

	"github.com/google/uuid"

	"saas-tenancy/internal/model"
	"saas-tenancy/internal/store"
)

// Event announces a change to a tenant record.
type Event struct {
	Type       string     `json:"type"`
	TenantID   uuid.UUID  `json:"tenant_id"`
	Tenant     string     `json:"tenant"`
	Active     bool       `json:"active"`
	Plan       model.Plan `json:"plan"`
	ValidUntil time.Time  `json:"valid_until"`
	OccurredAt time.Time  `json:"occurred_at"`
}

func (e Event) RoutingKey() string { return "tenant." + e.Type }

// TenantEvent builds the event for a committed directory change.
func TenantEvent(change store.TenantChange, at time.Time) Event {
	return Event{
		Type:       change.Kind.String(),
		TenantID:   change.Tenant.ID,
		Tenant:     change.Tenant.Identifier,
		Active:     change.Tenant.Active,
		Plan:       change.Tenant.Plan,
		ValidUntil: change.Tenant.ValidUntil,
		OccurredAt: at.UTC(),
	}
}

// Publisher delivers tenant lifecycle events.
type Publisher interface {
	PublishEvent(ctx context.Context, event Event) error
}

// NoopPublisher drops events; used when no broker is configured.
type NoopPublisher struct{}

func (NoopPublisher) PublishEvent(context.Context, Event) error { return nil }

// JobPublisher enqueues background jobs.
type JobPublisher interface {
	PublishJob(ctx context.Context, job Job) error
}
