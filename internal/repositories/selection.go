package repositories

// SelectionStore remembers the last selected asset and alignment across sessions.
//
// Read failures are reported as "no selection" so a broken settings table never blocks browsing.
type SelectionStore struct {
	repo *SettingsRepository
}

// NewSelectionStore creates a new SelectionStore with the given repository
func NewSelectionStore(repo *SettingsRepository) *SelectionStore {
	return &SelectionStore{repo: repo}
}

// LastAsset returns the src of the last selected asset, or "".
func (s *SelectionStore) LastAsset() string {
	return s.get(SettingLastSelectedAsset)
}

// LastAlignment returns the id of the last selected alignment task, or "".
func (s *SelectionStore) LastAlignment() string {
	return s.get(SettingLastSelectedTaskID)
}

// SetLastAsset records src as the selected asset; an empty src clears it.
func (s *SelectionStore) SetLastAsset(src string) error {
	return s.set(SettingLastSelectedAsset, src)
}

// SetLastAlignment records taskID as the selected alignment; an empty id clears it.
func (s *SelectionStore) SetLastAlignment(taskID string) error {
	return s.set(SettingLastSelectedTaskID, taskID)
}

func (s *SelectionStore) get(key string) string {
	v, ok, err := s.repo.Get(key)
	if err != nil || !ok {
		return ""
	}
	return v
}

func (s *SelectionStore) set(key, value string) error {
	if value == "" {
		return s.repo.Delete(key)
	}
	return s.repo.Set(key, value)
}
