// Package middleware holds the echo middleware shared by every route:
// request ids, the request-scoped logger, New Relic tracing, CORS, body
// limits, panic recovery, access logging and the global error handler.
package middleware
