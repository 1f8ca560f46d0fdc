// Package driving defines the interfaces through which the outside world
// drives the core (primary/inbound ports in hexagonal architecture).
//
// The CLI adapter depends on these interfaces; core services implement
// them. Services may also depend on each other's driving ports rather
// than concrete types, keeping them independently replaceable in tests.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: any adapter or service package
package driving
