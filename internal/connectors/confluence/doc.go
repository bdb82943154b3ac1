// Package confluence is the source-side connector: a Confluence REST
// client implementing the SearchGateway and ContentSource ports. It
// performs single requests with proactive throttling and classifies API
// failures; retry decisions belong to the core.
package confluence
