// Package tasks drives alignment jobs from submission to completion and keeps the local caches consistent with
// the remote API and the demo asset manifest.
//
// # Core Operations
//
// The [Workflow] type exposes the operations behind the CLI, the TUI and the HTTP server:
//
//  1. [Workflow.Submit] : create an alignment task and poll it to a terminal status
//     - The [Poller] fetches the task every interval and reports progress (+10 per round, capped at 95)
//     - Completed tasks report 100; failed tasks return shared.ErrTaskFailed and are not retried
//
//  2. [Workflow.Check] / [Workflow.RefreshAll] : re-fetch one task, or every non-terminal task through a
//     rate-limited worker pool
//
//  3. [Workflow.Sync] / [Workflow.LoadAssets] : replace the task cache with recent tasks, or the asset cache
//     with the manifest
//
//  4. [Workflow.Load] : resolve the alignment output of a task, fetch its transcript and pick playable audio
//
// # Caches and Projections
//
// The [Reconciler] owns the task cache and the asset cache. Only tasks with an alignment target are admitted.
// Every mutation re-runs the task/asset matcher so each task's matched asset stays current. Reads go through
// projections that carry their own selection:
//   - [Reconciler.RankedAlignments] : tasks newest first
//   - [Reconciler.AlignmentsForAsset] : tasks whose audio shares the asset's base name
//   - [Reconciler.AssetsForTask] : assets whose base name fuzzily matches the task's audio
//
// # Progress Reporting
//
// All long-running operations use non-blocking channels for progress updates. The [ProgressUpdate] struct
// contains phase, step counters, a percentage and a message. Updates use select with default to prevent blocking.
//
// # Persistence
//
// The optional [RecordStore] receives an alignment record for every stored task. Record failures are logged
// and never abort an operation.
package tasks
