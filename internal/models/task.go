package models

import (
	"encoding/json"
	"strings"
	"time"
)

// ModelAlignment is the target model that marks a task as an alignment job.
const ModelAlignment = "alignment"

// Task is a remote alignment job.
//
// ValidSrc and AssetTitle are derived: they are never decoded from a remote payload and are written only by
// the task/asset matcher.
type Task struct {
	ID                string        `json:"id"`
	Status            string        `json:"status,omitempty"`
	Targets           []Target      `json:"targets,omitempty"`
	Outputs           []Output      `json:"outputs,omitempty"`
	RawAudioURL       string        `json:"audioUrl,omitempty"`
	PreferredAudioURL string        `json:"preferredAudioUrl,omitempty"`
	AudioSources      []AudioSource `json:"audioSources,omitempty"`
	RawTask           *RawTask      `json:"rawTask,omitempty"`
	CreatedAt         string        `json:"createdAt,omitempty"`
	UpdatedAt         string        `json:"updatedAt,omitempty"`
	CompletedAt       string        `json:"completedAt,omitempty"`

	ValidSrc   string `json:"validSrc,omitempty"`
	AssetTitle string `json:"assetTitle,omitempty"`
}

// Target is a sub-job of a [Task] scoped to one model.
type Target struct {
	Model    string   `json:"model,omitempty"`
	Status   string   `json:"status,omitempty"`
	Language string   `json:"language,omitempty"`
	Duration *float64 `json:"duration,omitempty"`
	URL      string   `json:"url,omitempty"`
	AudioURL string   `json:"audioUrl,omitempty"`
	Output   []Output `json:"output,omitempty"`
}

// Output is an artifact produced by a task or one of its targets.
type Output struct {
	Name   string `json:"name,omitempty"`
	Format string `json:"format,omitempty"`
	Type   string `json:"type,omitempty"`
	Link   string `json:"link,omitempty"`
	URL    string `json:"url,omitempty"`
	Status string `json:"status,omitempty"`
}

// AudioSource is one entry of a task's audioSources list.
type AudioSource struct {
	URL string `json:"url,omitempty"`
}

// RawTask is the nested original request some payloads echo back.
type RawTask struct {
	Targets []Target `json:"targets,omitempty"`
}

// UnmarshalJSON decodes a task without failing on mistyped fields.
//
// A payload that is not a JSON object decodes to the zero Task.
func (t *Task) UnmarshalJSON(data []byte) error {
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		*t = Task{}
		return nil
	}
	*t = taskFromMap(m)
	return nil
}

// UnmarshalJSON decodes a target without failing on mistyped fields.
func (tg *Target) UnmarshalJSON(data []byte) error {
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		*tg = Target{}
		return nil
	}
	*tg = targetFromMap(m)
	return nil
}

// UnmarshalJSON decodes an output without failing on mistyped fields.
func (o *Output) UnmarshalJSON(data []byte) error {
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		*o = Output{}
		return nil
	}
	*o = outputFromMap(m)
	return nil
}

func taskFromMap(m map[string]any) Task {
	task := Task{
		ID:                idField(m, "id"),
		Status:            stringField(m, "status"),
		RawAudioURL:       stringField(m, "audioUrl"),
		PreferredAudioURL: stringField(m, "preferredAudioUrl"),
		CreatedAt:         stringField(m, "createdAt"),
		UpdatedAt:         stringField(m, "updatedAt"),
		CompletedAt:       stringField(m, "completedAt"),
	}

	for _, obj := range objectList(m, "targets") {
		task.Targets = append(task.Targets, targetFromMap(obj))
	}
	for _, obj := range objectList(m, "outputs") {
		task.Outputs = append(task.Outputs, outputFromMap(obj))
	}
	for _, obj := range objectList(m, "audioSources") {
		task.AudioSources = append(task.AudioSources, AudioSource{URL: stringField(obj, "url")})
	}
	if raw, ok := m["rawTask"].(map[string]any); ok {
		rt := &RawTask{}
		for _, obj := range objectList(raw, "targets") {
			rt.Targets = append(rt.Targets, targetFromMap(obj))
		}
		task.RawTask = rt
	}

	return task
}

func targetFromMap(m map[string]any) Target {
	target := Target{
		Model:    stringField(m, "model"),
		Status:   stringField(m, "status"),
		Language: stringField(m, "language"),
		Duration: numberField(m, "duration"),
		URL:      stringField(m, "url"),
		AudioURL: stringField(m, "audioUrl"),
	}
	for _, obj := range objectList(m, "output") {
		target.Output = append(target.Output, outputFromMap(obj))
	}
	return target
}

func outputFromMap(m map[string]any) Output {
	return Output{
		Name:   stringField(m, "name"),
		Format: stringField(m, "format"),
		Type:   stringField(m, "type"),
		Link:   stringField(m, "link"),
		URL:    stringField(m, "url"),
		Status: stringField(m, "status"),
	}
}

// HasModel reports whether any target of the task runs the given model.
func (t *Task) HasModel(model string) bool {
	if t == nil {
		return false
	}
	for _, target := range t.Targets {
		if target.Model == model {
			return true
		}
	}
	return false
}

// IsAlignment reports whether the task carries an alignment target, the admission rule for the task cache.
func (t *Task) IsAlignment() bool {
	return t.HasModel(ModelAlignment)
}

// AudioURL returns the task's primary audio URL: the top-level audioUrl, else the first target url or audioUrl.
func (t *Task) AudioURL() string {
	if t == nil {
		return ""
	}
	if u := strings.TrimSpace(t.RawAudioURL); u != "" {
		return u
	}
	for _, target := range t.Targets {
		if u := strings.TrimSpace(target.URL); u != "" {
			return u
		}
		if u := strings.TrimSpace(target.AudioURL); u != "" {
			return u
		}
	}
	return ""
}

// PrimaryTarget returns the first target, or the zero Target when there are none.
func (t *Task) PrimaryTarget() Target {
	if t == nil || len(t.Targets) == 0 {
		return Target{}
	}
	return t.Targets[0]
}

// Timestamp resolves updatedAt, then completedAt, then createdAt.
//
// The first non-empty field is parsed; a missing or unparseable value yields the Unix epoch.
func (t *Task) Timestamp() time.Time {
	if t == nil {
		return time.Unix(0, 0).UTC()
	}
	raw := firstNonEmpty(t.UpdatedAt, t.CompletedAt, t.CreatedAt)
	if ts, ok := ParseTime(raw); ok {
		return ts
	}
	return time.Unix(0, 0).UTC()
}

// Clone returns a copy of the task that shares no slices with the original.
func (t *Task) Clone() *Task {
	if t == nil {
		return nil
	}
	c := *t
	c.Targets = cloneTargets(t.Targets)
	c.Outputs = append([]Output(nil), t.Outputs...)
	c.AudioSources = append([]AudioSource(nil), t.AudioSources...)
	if t.RawTask != nil {
		c.RawTask = &RawTask{Targets: cloneTargets(t.RawTask.Targets)}
	}
	return &c
}

func cloneTargets(targets []Target) []Target {
	if targets == nil {
		return nil
	}
	out := make([]Target, len(targets))
	for i, tg := range targets {
		out[i] = tg
		out[i].Output = append([]Output(nil), tg.Output...)
		if tg.Duration != nil {
			d := *tg.Duration
			out[i].Duration = &d
		}
	}
	return out
}

var timeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.000",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseTime parses the ISO-8601 shapes the API and asset manifests emit.
func ParseTime(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	for _, layout := range timeLayouts {
		if ts, err := time.Parse(layout, raw); err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
