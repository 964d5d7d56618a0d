// Package api exposes herald over HTTP.
//
// Public routes, served on the main port:
//
//	GET  /api/v1/events          Server-Sent Events stream of domain events
//	POST /api/v1/signals/{name}  signal ingestion from the content service
//	GET  /api/v1/authorization   the caller's allowed and denied categories
//
// Operational routes, served on the health port:
//
//	GET /health, /health/live, /health/ready
//	GET /metrics
//
// Signal ingestion is guarded by a shared secret sent in the
// X-Herald-Signal-Secret header.
package api
