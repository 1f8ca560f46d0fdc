// Package domain contains the core business entities for brief.
//
// The central entities are:
//
//   - ConnectorDefinition: a declarative description of how to reach one
//     external data source (transport, auth, fetch operations)
//   - SourceRef: a caller's request to invoke one fetch on one connector
//   - ExecutionContext: the fully resolved bundle needed to perform one fetch
//   - ResultRecord: the uniform success/failure outcome of one fetch
//   - Briefing: the persisted output of one briefing run
//
// Domain types have no dependencies on adapters or infrastructure.
package domain
