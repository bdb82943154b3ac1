// Package connectors provides clients for the external content sources
// the export pipeline reads from. Each connector implements the driven
// search and content ports for one source service.
package connectors
