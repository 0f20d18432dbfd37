package formatter

import (
	"fmt"
	"strings"
	"time"

	"github.com/desertthunder/alignx/internal/models"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const noFile = "(no file)"

var title = cases.Title(language.Und)

// ShortFilename returns the last path segment of url without its query, preserving case.
func ShortFilename(url string) string {
	clean, _, _ := strings.Cut(strings.TrimSpace(url), "?")
	if clean == "" {
		return noFile
	}
	idx := strings.LastIndex(clean, "/")
	if idx == -1 {
		return clean
	}
	if name := clean[idx+1:]; name != "" {
		return name
	}
	return noFile
}

// StatusLabel title-cases a raw status for display, e.g. "processing" → "Processing".
func StatusLabel(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "Unknown"
	}
	return title.String(strings.ToLower(raw))
}

// FormatTimestamp renders a time in local time, or "-" for zero and epoch values.
func FormatTimestamp(ts time.Time) string {
	if ts.IsZero() || ts.Unix() == 0 {
		return "-"
	}
	return ts.Local().Format("2006-01-02 15:04")
}

// AlignmentLabel is the one-line summary of a task: file | id | status | time.
func AlignmentLabel(task *models.Task) string {
	info := task.StatusInfo()
	status := firstNonEmpty(info.Raw, info.Normalized, "unknown")
	return fmt.Sprintf("%s | %s | %s | %s",
		ShortFilename(firstNonEmpty(task.AudioURL(), task.ValidSrc)),
		task.ID,
		status,
		FormatTimestamp(task.Timestamp()),
	)
}

// AssetLabel returns the asset title, falling back to its filename.
func AssetLabel(a models.Asset) string {
	if t := strings.TrimSpace(a.Title); t != "" {
		return t
	}
	return ShortFilename(a.Src)
}

// Position identifies a word in a transcript.
type Position struct {
	Line int
	Word int
}

// ActiveWord returns the word being sung at t seconds: the first word with start <= t < end.
func ActiveWord(tr *models.Transcript, t float64) (Position, bool) {
	if tr == nil {
		return Position{}, false
	}
	for i, line := range tr.Lines {
		for j, w := range line.Words {
			if t >= w.Start && t < w.End {
				return Position{Line: i, Word: j}, true
			}
		}
	}
	return Position{}, false
}

// RenderKaraoke renders the transcript as text lines, wrapping the active word with highlight.
func RenderKaraoke(tr *models.Transcript, t float64, highlight func(string) string) []string {
	if tr == nil {
		return nil
	}
	pos, ok := ActiveWord(tr, t)
	lines := make([]string, 0, len(tr.Lines))
	for i, line := range tr.Lines {
		words := make([]string, 0, len(line.Words))
		for j, w := range line.Words {
			text := strings.TrimSpace(w.Text)
			if text == "" {
				continue
			}
			if ok && highlight != nil && pos.Line == i && pos.Word == j {
				text = highlight(text)
			}
			words = append(words, text)
		}
		lines = append(lines, strings.Join(words, " "))
	}
	return lines
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}
