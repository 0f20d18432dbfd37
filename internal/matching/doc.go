// Package matching links remote alignment tasks to local demo assets.
//
// Two kinds of equality are used:
//   - exact: the query-stripped, lowercased trailing path segment of two URLs ([ExtractFilename]).
//     [MatchTasksToAssets] uses it to decide which asset a task processed.
//   - fuzzy: a permissive cleaned/token comparison of extension-stripped names ([FuzzyMatcher]).
//     It backs the task to asset cross-reference, where curated demo titles drift from source filenames.
//
// Every function here is total: malformed input yields an empty result, never an error.
package matching
