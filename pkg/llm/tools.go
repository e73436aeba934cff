package llm

// ToolDefinition defines a tool that can be called by the LLM.
type ToolDefinition struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

// ParameterProperty defines a parameter property in JSON Schema format.
type ParameterProperty struct {
	Type        string   `json:"type"`
	Description string   `json:"description,omitempty"`
	Enum        []string `json:"enum,omitempty"`
}

// NewToolDefinition creates a new tool definition with standard JSON Schema parameters.
func NewToolDefinition(name, description string, properties map[string]ParameterProperty, required []string) ToolDefinition {
	props := make(map[string]any)
	for k, v := range properties {
		props[k] = map[string]any{
			"type":        v.Type,
			"description": v.Description,
		}
		if len(v.Enum) > 0 {
			props[k].(map[string]any)["enum"] = v.Enum
		}
	}

	return ToolDefinition{
		Name:        name,
		Description: description,
		Parameters: map[string]any{
			"type":       "object",
			"properties": props,
			"required":   required,
		},
	}
}

// Feature association tool names.
const (
	ToolFeatureSearch     = "feature_search"
	ToolCreateFeature     = "create_feature"
	ToolFeatureDetermined = "feature_determined"
)

// GetFeatureAssociationTools returns the tool definitions for the
// feature-association agent: search existing features by meaning, create a
// new one, and declare the final decision.
func GetFeatureAssociationTools() []ToolDefinition {
	return []ToolDefinition{
		NewToolDefinition(
			ToolFeatureSearch,
			"Search the project's existing features by semantic similarity. Returns the closest matches with id, name, and description. Call repeatedly with different phrasings before deciding to create a new feature.",
			map[string]ParameterProperty{
				"query": {
					Type:        "string",
					Description: "A short phrase describing the product feature the feedback is about",
				},
			},
			[]string{"query"},
		),
		NewToolDefinition(
			ToolCreateFeature,
			"Create a new feature for this project. If a feature with the same name already exists it is returned unchanged instead of creating a duplicate.",
			map[string]ParameterProperty{
				"title": {
					Type:        "string",
					Description: "A short, human-readable feature name, e.g. \"Dark Mode\"",
				},
				"description": {
					Type:        "string",
					Description: "One or two sentences describing what the feature covers",
				},
			},
			[]string{"title", "description"},
		),
		NewToolDefinition(
			ToolFeatureDetermined,
			"Declare the final feature this feedback belongs to. This ends the task. Must be called exactly once, after searching and, if needed, creating a feature.",
			map[string]ParameterProperty{
				"feature_id": {
					Type:        "string",
					Description: "The id of the chosen feature, as returned by feature_search or create_feature",
				},
			},
			[]string{"feature_id"},
		),
	}
}
