// Package models defines the domain records exchanged with the alignment API and the local demo asset manifest.
//
// The package contains three categories of types:
//
// 1. Remote records, decoded tolerantly from loosely-typed JSON:
//   - [Task] : an alignment job with its [Target] sub-jobs, [Output] artifacts and audio sources
//   - [Transcript] : the word-timed lyrics produced by a finished alignment
//
// 2. Local references:
//   - [Asset] : a playable demo media file listed in an asset manifest
//
// 3. Persisted projections:
//   - [AlignmentRecord] : a denormalized snapshot of a task for offline listing
//
// Remote payloads put the same semantic field in several places (status on the task and on every target,
// outputs at the top level and per target, audio URLs in half a dozen keys). Rather than probing optional
// fields at every call site, the accessors on [Task] ([Task.StatusInfo], [Task.AudioURL], [Task.CollectOutputs])
// and [FindAlignmentOutput] are total functions that never fail: missing or mistyped data yields zero values.
package models
