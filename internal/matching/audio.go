package matching

import (
	"strings"

	"github.com/desertthunder/alignx/internal/models"
)

// ChoosePlayableAudio returns the first non-empty candidate from primary followed by fallback.
//
// Candidates are trimmed and deduplicated by exact value. ok is false when no candidate survives.
func ChoosePlayableAudio(primary string, fallback ...string) (string, bool) {
	candidates := dedupe(append([]string{primary}, fallback...))
	if len(candidates) == 0 {
		return "", false
	}
	return candidates[0], true
}

// CandidateAudioURLs lists every URL the remote payload offers for the task's media.
//
// The order is audioUrl, each target's url and audioUrl, each raw target's url and audioUrl, the audioSources
// and finally preferredAudioUrl. Duplicates and blanks are removed.
func CandidateAudioURLs(task *models.Task) []string {
	if task == nil {
		return nil
	}

	urls := []string{task.RawAudioURL}
	for _, t := range task.Targets {
		urls = append(urls, t.URL, t.AudioURL)
	}
	if task.RawTask != nil {
		for _, t := range task.RawTask.Targets {
			urls = append(urls, t.URL, t.AudioURL)
		}
	}
	for _, s := range task.AudioSources {
		urls = append(urls, s.URL)
	}
	urls = append(urls, task.PreferredAudioURL)

	return dedupe(urls)
}

// ResolvedAudioURLs lists the URLs used for cross-referencing: the matched asset, the primary audio URL and the
// audioSources.
func ResolvedAudioURLs(task *models.Task) []string {
	if task == nil {
		return nil
	}
	urls := []string{task.ValidSrc, task.AudioURL()}
	for _, s := range task.AudioSources {
		urls = append(urls, s.URL)
	}
	return dedupe(urls)
}

// ResolvedBaseNames maps [ResolvedAudioURLs] through [BaseNameFromURL], dropping empty names.
func ResolvedBaseNames(task *models.Task) []string {
	var names []string
	for _, u := range ResolvedAudioURLs(task) {
		if name := BaseNameFromURL(u); name != "" {
			names = append(names, name)
		}
	}
	return dedupe(names)
}

func dedupe(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
