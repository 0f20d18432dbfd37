package tasks

import (
	"fmt"

	"github.com/desertthunder/alignx/internal/models"
)

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase, 0 when open-ended
	Percent int    // Completion estimate, 0-100
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Operation phase enumeration
type Phase int

const (
	Submit Phase = iota
	Poll
	Persist
	Sync
	LoadAssets
	LoadTranscript
	Refresh
)

func (p Phase) String() string {
	switch p {
	case Submit:
		return "submit"
	case Poll:
		return "poll"
	case Persist:
		return "persist"
	case Sync:
		return "sync"
	case LoadAssets:
		return "load_assets"
	case LoadTranscript:
		return "load_transcript"
	case Refresh:
		return "refresh"
	default:
		return ""
	}
}

// sendProgress sends a progress update through the channel without blocking.
func sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

func submitUpdate(audioURL string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Submit,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Creating alignment task for %s...", audioURL),
	}
}

func submittedUpdate(task *models.Task) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Submit,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Task %s created", task.ID),
		Data:    task,
	}
}

func pollUpdate(attempt, percent int, task *models.Task) ProgressUpdate {
	info := task.StatusInfo()
	return ProgressUpdate{
		Phase:   Poll,
		Step:    attempt,
		Percent: percent,
		Message: fmt.Sprintf("Task %s is %s... (%d%%)", task.ID, info.Label(), percent),
		Data:    task,
	}
}

func completedUpdate(attempt int, task *models.Task) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Poll,
		Step:    attempt,
		Percent: 100,
		Message: fmt.Sprintf("Task %s completed", task.ID),
		Data:    task,
	}
}

func failedUpdate(attempt, percent int, task *models.Task) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Poll,
		Step:    attempt,
		Percent: percent,
		Message: fmt.Sprintf("Task %s failed", task.ID),
		Data:    task,
	}
}

func syncUpdate(step, total int, message string) ProgressUpdate {
	return ProgressUpdate{Phase: Sync, Step: step, Total: total, Message: message}
}

func assetsUpdate(kept, total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   LoadAssets,
		Step:    kept,
		Total:   total,
		Message: fmt.Sprintf("Loaded %d of %d demo assets", kept, total),
	}
}

func transcriptUpdate(task *models.Task, jsonURL string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   LoadTranscript,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Fetching alignment for %s...", task.ID),
		Data:    jsonURL,
	}
}

func refreshUpdate(step, total int, res RefreshItem) ProgressUpdate {
	if res.Err != nil {
		return ProgressUpdate{
			Phase:   Refresh,
			Step:    step,
			Total:   total,
			Message: fmt.Sprintf("[%d/%d] ✗ %s: %v", step, total, res.TaskID, res.Err),
			Data:    res,
		}
	}
	return ProgressUpdate{
		Phase:   Refresh,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✓ %s (%s)", step, total, res.TaskID, res.Status.Label()),
		Data:    res,
	}
}
