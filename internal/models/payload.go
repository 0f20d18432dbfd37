package models

import (
	"encoding/json"
	"fmt"
)

// taskListKeys are the top-level keys a task list may arrive under, in lookup order.
var taskListKeys = []string{"tasks", "data", "results"}

// ParseTaskList extracts the task array from a list payload.
//
// The array may be the payload itself or live under tasks, data or results. A payload with none of these
// yields an empty list. Only invalid JSON is an error.
func ParseTaskList(data []byte) ([]*Task, error) {
	var payload any
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("failed to decode task list: %w", err)
	}

	var items []any
	switch v := payload.(type) {
	case []any:
		items = v
	case map[string]any:
		for _, key := range taskListKeys {
			if list, ok := v[key].([]any); ok {
				items = list
				break
			}
		}
	}

	tasks := make([]*Task, 0, len(items))
	for _, obj := range objects(items) {
		t := taskFromMap(obj)
		tasks = append(tasks, &t)
	}
	return tasks, nil
}

// ParseTask decodes a single task payload.
func ParseTask(data []byte) (*Task, error) {
	var payload any
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("failed to decode task: %w", err)
	}
	obj, _ := payload.(map[string]any)
	t := taskFromMap(obj)
	return &t, nil
}

// ParseAssetManifest extracts the asset array from a manifest, either the payload itself or under assets.
//
// Entries are decoded leniently; filtering is left to [FilterAssets].
func ParseAssetManifest(data []byte) ([]Asset, error) {
	var payload any
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("failed to decode asset manifest: %w", err)
	}

	var items []any
	switch v := payload.(type) {
	case []any:
		items = v
	case map[string]any:
		items, _ = v["assets"].([]any)
	}

	assets := make([]Asset, 0, len(items))
	for _, obj := range objects(items) {
		assets = append(assets, Asset{
			Src:    stringField(obj, "src"),
			Title:  stringField(obj, "title"),
			Format: stringField(obj, "format"),
			Expiry: stringField(obj, "expiry"),
		})
	}
	return assets, nil
}
