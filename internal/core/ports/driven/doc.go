// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
//   - SearchGateway: Executes one page of a content search
//   - ContentSource: Fetches pages and attachment content from the source
//   - Destination: The knowledge-base service receiving uploads
//   - ConfigStore: Application configuration
//
// # Optional Interfaces
//
//   - RunStore: Run-outcome history. Nil disables persistence; the run
//     outcome is still returned to the caller.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter or connector package
package driven
