package matching

import "github.com/desertthunder/alignx/internal/models"

// MatchTasksToAssets links each task to the first asset sharing one of its candidate filenames.
//
// Tasks are updated in place and returned. Asset order decides ties. A matched task gets ValidSrc set to the
// asset's src and AssetTitle to the asset title, or the shared filename when the asset is untitled.
//
// Derived fields are cleared before matching so that a task whose asset disappeared does not keep a stale link.
func MatchTasksToAssets(tasks []*models.Task, assets []models.Asset) []*models.Task {
	names := make([]string, len(assets))
	for i, a := range assets {
		names[i] = ExtractFilename(a.Src)
	}

	for _, task := range tasks {
		if task == nil {
			continue
		}
		task.ValidSrc, task.AssetTitle = "", ""

		filenames := make(map[string]struct{})
		for _, u := range CandidateAudioURLs(task) {
			if f := ExtractFilename(u); f != "" {
				filenames[f] = struct{}{}
			}
		}
		if len(filenames) == 0 {
			continue
		}

		for i, a := range assets {
			if names[i] == "" {
				continue
			}
			if _, ok := filenames[names[i]]; !ok {
				continue
			}
			task.ValidSrc = a.Src
			task.AssetTitle = a.Title
			if task.AssetTitle == "" {
				task.AssetTitle = names[i]
			}
			break
		}
	}
	return tasks
}
