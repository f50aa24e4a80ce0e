package dto

// SettingItem represents a feature toggle exposed via API.
type SettingItem struct {
	Key         string `json:"key"`
	Value       string `json:"value"`
	Enabled     bool   `json:"enabled"`
	Description string `json:"description"`
	Persisted   bool   `json:"persisted"`
}

// UpdateSettingRequest describes payload for updating a single setting.
type UpdateSettingRequest struct {
	Value string `json:"value" validate:"required,max=255"`
}
