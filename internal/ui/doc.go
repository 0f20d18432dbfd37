// Package ui implements an interactive terminal interface using bubbletea's Elm architecture.
//
// The TUI browses the alignment caches:
//  1. [AlignmentListView] : cached alignments, newest first
//  2. [AssetListView] : demo assets in manifest order
//  3. [RelatedAssetsView] : demo assets whose filename resembles the selected alignment's audio
//  4. [RelatedAlignmentsView] : alignments whose audio shares the selected asset's filename
//  5. [PreviewView] : karaoke-style lyrics driven by a simulated playback clock
//
// The [Model] implements bubbletea/Elm's standard Init/Update/View pattern, receiving messages via the Msg union type.
// Sync progress flows through a channel from tasks.Workflow, providing non-blocking status reporting.
//
// Selections survive rebuilds of every list: the previously selected item stays selected when still present, and
// the last selections are persisted through [Selections] between sessions.
//
// Keyboard navigation uses vim-style bindings (j/k, h/l, enter, esc, tab, q) with contextual help displayed via
// charmbracelet/bubbles/help.
package ui
