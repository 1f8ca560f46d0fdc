// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
//   - Executor: runs one resolved execution context over its transport
//   - DirectExecutor: runs a legacy inline subprocess invocation
//   - CredentialsStore: credential resolution and persistence
//   - ConfigStore: application configuration
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - LLMService: language model generation. Without it, "brief gather"
//     still works but "brief run" is disabled.
//   - BriefingStore: briefing history persistence. Without it, runs are
//     not recorded.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: any adapter package
package driven
