// Package transport delivers events to live client connections.
//
// Broadcaster is the group abstraction the rest of herald talks to: join and
// leave named groups, send to a group, send to one connection. Hub is the
// in-process implementation. Every connection owns a bounded queue and sends
// never block; when a queue is full the event is dropped for that connection
// and counted in herald_events_dropped_total.
//
// StreamHandler exposes a Hub over Server-Sent Events:
//
//	event: Updated
//	data: {"eventType":"Updated","eventSource":"Document","key":"..."}
//
// Idle streams receive a comment line at the keep-alive interval so proxies
// do not time them out.
package transport
