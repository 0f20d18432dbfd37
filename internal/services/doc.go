// Package services implements the HTTP clients of the alignment client.
//
// # API Service
//
// [APIService] sends raw requests to the alignment API. Every request carries the x-api-key header and a
// fresh X-Request-Id, and the response comes back whole with its JSON sniffed. The `alignx api` debug
// commands use it directly.
//
// # Alignment Service
//
// [AlignmentService] wraps [APIService] with the task endpoints:
//   - POST /tasks : submit an audio URL with a single alignment target producing JSON
//   - GET /tasks/{id} : fetch one task
//   - GET /tasks?limit=N : list recent tasks, with the array under tasks, data, results or at the root
//
// Alignment result documents are fetched from the signed output URL.
//
// # Manifest Service
//
// [ManifestService] reads the demo asset manifest from a URL or a local path.
//
// # Error Handling
//
// Services use typed errors from shared package:
//   - [shared.ErrNotAuthenticated] : no API key configured, or the server rejected it
//   - [shared.ErrTaskNotFound] : the task id is unknown
//   - [shared.ErrAPIRequest] : transport failure or non-2xx response, with the server's message
package services
