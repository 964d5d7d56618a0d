// Package registry tracks which live connections belong to which identity.
//
// The registry is in-memory only. A restart drops every entry and clients
// reconnect.
//
//	reg := registry.New()
//	reg.Add(principal.Identity(), connID)
//	for _, conn := range reg.Get(identity) {
//		// send directly to conn
//	}
//	reg.Remove(identity, connID)
package registry
