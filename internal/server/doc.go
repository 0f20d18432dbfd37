// Package server provides the HTTP read API over the alignment caches, used by `alignx serve`.
//
// # Routing
//
// [NewRouter] builds a chi router with request id, real IP, panic recovery and request logging middleware.
// Every list endpoint returns a [ProjectionView] with the items, the active key and an explicit empty flag, so
// clients can keep their selection across reloads by passing it back as ?selected=.
//
// # Refresh
//
// POST /alignments/{id}/refresh goes through a [Checker], normally tasks.Workflow, so the refreshed task is both
// cached and recorded.
//
// [Serve] runs the handler until its context is cancelled and then shuts the listener down gracefully.
package server
