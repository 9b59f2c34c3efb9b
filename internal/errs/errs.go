// Package errs defines the error shape every API failure is rendered in.
//
// Handlers and services return *HTTPError; the global error handler writes it
// as JSON. Field-level problems travel in Errors so form clients can attach
// them to inputs.
package errs
