package models

// ModelDescriptor identifies a selectable provider/model pair. Descriptors
// are uniquely keyed by (Provider, Model); Display is what the UI shows.
type ModelDescriptor struct {
	Provider     string `json:"provider" yaml:"provider"`
	Model        string `json:"model" yaml:"model"`
	Display      string `json:"display" yaml:"display"`
	ToolsSupport bool   `json:"tools_support" yaml:"tools_support"`
}

// Key returns the registry key for the descriptor.
func (d ModelDescriptor) Key() string {
	return d.Provider + "/" + d.Model
}

// ModelListResponse wraps the model list for GET /api/models.
type ModelListResponse struct {
	Models []ModelDescriptor `json:"models"`
}

// DiscoveredModel is a candidate descriptor produced by provider discovery,
// annotated with whether it already exists in the registry.
type DiscoveredModel struct {
	ModelDescriptor `yaml:",inline"`
	Registered      bool              `json:"registered"`
	Metadata        map[string]string `json:"metadata,omitempty"`
}
