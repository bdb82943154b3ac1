// Package services implements the export pipeline behind the driving
// port interfaces: query normalisation, paginated search, metadata
// enrichment, attachment filtering, upload dispatch and run
// orchestration. Services contain the core business logic and call out
// through driven ports (adapters).
//
// Services depend only on the domain, the ports, the retry controller,
// run-ID generation and front-matter rendering.
package services
