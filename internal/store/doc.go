// Package store is the tenant-scoped persistence layer.
//
// Collections are registered once at startup in a Registry, either as global
// or as tenant-owned with an accessor for the tenant key field. A Session
// works only with registered collections:
//
//   - reads on tenant-owned collections are narrowed to the tenant bound to
//     the operation, and return nothing when no tenant is bound;
//   - writes stamp the bound tenant key on new entities and reject entities
//     that already belong to another tenant;
//   - SaveChanges applies audit metadata and commits all pending changes in
//     one Engine transaction.
//
// Tenant records themselves are reached only through Directory, which is not
// scoped and is never handed to application code working on tenant data.
package store
