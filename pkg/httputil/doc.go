// Package httputil provides HTTP helpers shared by herald's handlers:
// JSON responses, request parsing and the common middleware chain.
//
//	handler := httputil.Chain(
//		httputil.RequestIDMiddleware(logger),
//		httputil.RecoveryMiddleware(logger),
//		httputil.LoggingMiddleware(logger),
//		httputil.CORSMiddleware(origins),
//	)(router)
//
// Every wrapper keeps http.Flusher available so event streams pass through.
package httputil
