// Package tenancy binds inbound operations to a tenant.
//
// Each operation (HTTP request, job delivery) gets its own binding through
// NewContext; the binding lives only in that operation's context.Context and
// is never stored in package or struct state shared between operations.
// Resolver fills the binding from a hint such as the X-Tenant-ID header,
// using a Lookup that reads tenants without tenant filtering.
package tenancy
