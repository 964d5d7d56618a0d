// Package events defines the outbound event vocabulary shared with clients.
//
// # Overview
//
// An Event tells a connected client that an entity of some category changed:
//
//	evt := events.New(events.EventUpdated, events.CategoryDocument, key)
//
// The wire form is:
//
//	{"eventType":"Updated","eventSource":"Document","key":"6f0c..."}
//
// Every category maps 1:1 to a transport group:
//
//	group, _ := events.GroupName(events.CategoryMedia) // "group:Media"
//
// # Related Packages
//
//   - pkg/router: Sends events to groups and identities
//   - pkg/translator: Builds events from domain change signals
package events
