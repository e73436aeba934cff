package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewToolDefinition(t *testing.T) {
	def := NewToolDefinition(
		"feature_search",
		"search features",
		map[string]ParameterProperty{
			"query": {Type: "string", Description: "search phrase"},
			"mode":  {Type: "string", Enum: []string{"exact", "fuzzy"}},
		},
		[]string{"query"},
	)

	assert.Equal(t, "feature_search", def.Name)
	assert.Equal(t, "object", def.Parameters["type"])
	assert.Equal(t, []string{"query"}, def.Parameters["required"])

	props, ok := def.Parameters["properties"].(map[string]any)
	require.True(t, ok)
	query, ok := props["query"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "string", query["type"])
	mode, ok := props["mode"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, []string{"exact", "fuzzy"}, mode["enum"])
}

func TestGetFeatureAssociationTools(t *testing.T) {
	tools := GetFeatureAssociationTools()
	require.Len(t, tools, 3)

	names := make([]string, len(tools))
	for i, tool := range tools {
		names[i] = tool.Name
	}
	assert.Equal(t, []string{ToolFeatureSearch, ToolCreateFeature, ToolFeatureDetermined}, names)
}
