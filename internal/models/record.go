package models

import "time"

// AlignmentRecord is a denormalized snapshot of a task, keyed by TaskID.
//
// Records are written whole; a newer snapshot replaces the older one.
type AlignmentRecord struct {
	TaskID    string    `json:"taskId"`
	AudioURL  string    `json:"audioUrl"`
	JSONURL   string    `json:"jsonUrl"`
	SourceURL string    `json:"sourceUrl"`
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

// RecordFromTask snapshots a task.
//
// sourceURL is the URL the job was submitted with, if known; otherwise the matched asset is used.
func RecordFromTask(task *Task, sourceURL string) AlignmentRecord {
	rec := AlignmentRecord{
		TaskID:    task.ID,
		AudioURL:  firstNonEmpty(task.AudioURL(), task.ValidSrc),
		SourceURL: firstNonEmpty(sourceURL, task.ValidSrc, task.AudioURL()),
		Status:    task.StatusInfo().Raw,
		Timestamp: task.Timestamp(),
	}
	if out := FindAlignmentOutput(task, nil); out != nil {
		rec.JSONURL = out.Location()
	}
	return rec
}

// Task rebuilds a minimal alignment task from the snapshot so offline listings can flow through the same
// projections as live tasks.
func (r AlignmentRecord) Task() *Task {
	t := &Task{
		ID:          r.TaskID,
		Status:      r.Status,
		RawAudioURL: r.AudioURL,
		Targets:     []Target{{Model: ModelAlignment, URL: r.SourceURL}},
	}
	if r.JSONURL != "" {
		t.Outputs = []Output{{Name: "alignment", Format: "json", Link: r.JSONURL}}
	}
	if !r.Timestamp.IsZero() && r.Timestamp.Unix() != 0 {
		t.UpdatedAt = r.Timestamp.UTC().Format(time.RFC3339Nano)
	}
	return t
}
