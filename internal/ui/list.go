package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	"github.com/desertthunder/alignx/internal/formatter"
	"github.com/desertthunder/alignx/internal/models"
)

var (
	_ list.Item = alignmentItem{}
	_ list.Item = assetItem{}
)

// alignmentItem wraps [models.Task] to implement [list.Item].
type alignmentItem struct {
	task *models.Task
}

func (i alignmentItem) FilterValue() string { return i.task.ID }
func (i alignmentItem) Title() string {
	return formatter.ShortFilename(firstNonEmpty(i.task.AudioURL(), i.task.ValidSrc))
}
func (i alignmentItem) Description() string {
	info := i.task.StatusInfo()
	status := styles.StatusStyle(info.Normalized).Render(formatter.StatusLabel(info.Raw))
	desc := fmt.Sprintf("%s • %s • %s", i.task.ID, status, formatter.FormatTimestamp(i.task.Timestamp()))
	if i.task.AssetTitle != "" {
		desc = fmt.Sprintf("%s • ♪ %s", desc, i.task.AssetTitle)
	}
	return desc
}

// assetItem wraps [models.Asset] to implement [list.Item].
type assetItem struct {
	asset models.Asset
}

func (i assetItem) FilterValue() string { return formatter.AssetLabel(i.asset) }
func (i assetItem) Title() string       { return formatter.AssetLabel(i.asset) }
func (i assetItem) Description() string {
	desc := formatter.ShortFilename(i.asset.Src)
	if i.asset.Format != "" {
		desc = fmt.Sprintf("%s • %s", desc, i.asset.Format)
	}
	return desc
}

func alignmentItems(tasks []*models.Task) []list.Item {
	items := make([]list.Item, len(tasks))
	for i, t := range tasks {
		items[i] = alignmentItem{task: t}
	}
	return items
}

func assetItems(assets []models.Asset) []list.Item {
	items := make([]list.Item, len(assets))
	for i, a := range assets {
		items[i] = assetItem{asset: a}
	}
	return items
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
