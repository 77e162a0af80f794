// Package iam implements the IAM service inside Keystone: permissions,
// tenant-scoped policies and roles, and flattened permission resolution.
//
// Layering:
// - domain: core entities, invariants, errors
// - application: permission/policy/role services using explicit ports
// - ports: stable boundaries for persistence and time
// - adapters: concrete HTTP, memory, and postgres implementations
// - transport: module-private DTOs for HTTP contracts
//
// Boundary notes:
// - Keep this module self-contained under the identity-access context.
// - Do not import adapters into domain/application.
// - Principal tables (admins, vendor users, employees) are read-only here;
//   this service only counts assignments when guarding role deletion.
package iam
