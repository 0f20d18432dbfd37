package models

import "strings"

// Canonical status values, lowercased.
const (
	StatusCompleted  = "completed"
	StatusComplete   = "complete"
	StatusFailed     = "failed"
	StatusProcessing = "processing"
	StatusRunning    = "running"
	StatusPending    = "pending"
)

// statusPriority orders terminal statuses ahead of transient ones so field order never decides.
var statusPriority = []string{
	StatusCompleted,
	StatusComplete,
	StatusFailed,
	StatusProcessing,
	StatusRunning,
	StatusPending,
}

// StatusInfo pairs the raw status string with its lowercased form.
type StatusInfo struct {
	Raw        string `json:"raw"`
	Normalized string `json:"normalized"`
}

// StatusInfo collapses the task status and every target status into one.
//
// Entries are collected task-first, then in target order. The first entry matching the priority list wins;
// otherwise the first entry; otherwise the zero StatusInfo.
func (t *Task) StatusInfo() StatusInfo {
	if t == nil {
		return StatusInfo{}
	}

	entries := make([]StatusInfo, 0, len(t.Targets)+1)
	add := func(raw string) {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			return
		}
		entries = append(entries, StatusInfo{Raw: raw, Normalized: strings.ToLower(raw)})
	}

	add(t.Status)
	for _, target := range t.Targets {
		add(target.Status)
	}

	if len(entries) == 0 {
		return StatusInfo{}
	}

	for _, want := range statusPriority {
		for _, e := range entries {
			if e.Normalized == want {
				return e
			}
		}
	}
	return entries[0]
}

// IsCompleted reports a completed or complete status.
func (s StatusInfo) IsCompleted() bool {
	return s.Normalized == StatusCompleted || s.Normalized == StatusComplete
}

func (s StatusInfo) IsFailed() bool {
	return s.Normalized == StatusFailed
}

// IsTerminal reports whether polling should stop.
func (s StatusInfo) IsTerminal() bool {
	return s.IsCompleted() || s.IsFailed()
}

// Label returns the raw status for display, "unknown" when absent.
func (s StatusInfo) Label() string {
	if s.Raw == "" {
		return "unknown"
	}
	return s.Raw
}
