// Package repositories implements SQLite persistence for the alignment client.
//
// Key Implementations:
//   - [RecordRepository] : [models.AlignmentRecord] snapshots keyed by task id, written by upsert or replace-all
//   - [SettingsRepository] : a key/value store for the API credential and UI selections
//   - [SelectionStore] : typed access to the last selected asset and alignment on top of [SettingsRepository]
//
// Records are never updated column by column: a newer snapshot of a task replaces the stored row whole.
// Schemas live in the embedded migrations of the shared package; callers run them before use.
package repositories
