package proxy

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/toolmux/toolmux/internal/toolproto"
	"github.com/toolmux/toolmux/internal/truncate"
)

func TestCanonicalText_FullTool(t *testing.T) {
	tool := toolproto.Tool{
		Description: "Returns the forecast for a city.",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"units": map[string]any{"type": "string", "description": "Measurement units"},
				"city":  map[string]any{"type": "string", "description": "City name"},
			},
		},
	}

	got := canonicalText("get_forecast", tool, truncate.DefaultConfig())
	want := "get_forecast: Returns the forecast for a city.\nParameters: City name\nMeasurement units"
	assert.Equal(t, want, got)
}

func TestCanonicalText_Placeholders(t *testing.T) {
	got := canonicalText("ping", toolproto.Tool{}, truncate.DefaultConfig())
	assert.Equal(t, "ping: No description\nParameters: none", got)
}

func TestCanonicalText_WhitespaceDescriptionUsesPlaceholder(t *testing.T) {
	tool := toolproto.Tool{Description: "   \n  "}
	got := canonicalText("ping", tool, truncate.DefaultConfig())
	assert.Equal(t, "ping: No description\nParameters: none", got)
}

func TestCanonicalText_TruncatesDescription(t *testing.T) {
	tool := toolproto.Tool{
		Description: "Reads a file from disk.\n\nFull JSON schema dump follows here...",
	}

	got := canonicalText("read_file", tool, truncate.DefaultConfig())
	assert.Equal(t, "read_file: Reads a file from disk.\nParameters: none", got)
}

func TestCanonicalText_TruncationDisabledKeepsFullDescription(t *testing.T) {
	cfg := truncate.DefaultConfig()
	cfg.Enabled = false
	tool := toolproto.Tool{Description: "Line one.\nLine two."}

	got := canonicalText("read_file", tool, cfg)
	assert.Equal(t, "read_file: Line one.\nLine two.\nParameters: none", got)
}

func TestCanonicalText_StableUnderIrrelevantSchemaChange(t *testing.T) {
	tool := toolproto.Tool{
		Description: "Adds two numbers.",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"a": map[string]any{"type": "number", "description": "First operand"},
			},
		},
	}
	before := canonicalText("add", tool, truncate.DefaultConfig())

	// Changing a type (but no description) must not change the text, so
	// no embedding is regenerated for it.
	tool.InputSchema["properties"].(map[string]any)["a"].(map[string]any)["type"] = "integer"
	after := canonicalText("add", tool, truncate.DefaultConfig())

	assert.Equal(t, before, after)
}

func TestParameterDescriptions_SortedAndFiltered(t *testing.T) {
	schema := map[string]any{
		"properties": map[string]any{
			"zeta":  map[string]any{"description": "Last by name"},
			"alpha": map[string]any{"description": "First by name"},
			"blank": map[string]any{"description": "   "},
			"none":  map[string]any{"type": "string"},
		},
	}

	got := parameterDescriptions(schema)
	assert.Equal(t, "First by name\nLast by name", got)
}

func TestParameterDescriptions_EmptySchema(t *testing.T) {
	assert.Equal(t, "", parameterDescriptions(nil))
	assert.Equal(t, "", parameterDescriptions(map[string]any{"type": "object"}))
	assert.Equal(t, "", parameterDescriptions(map[string]any{"properties": map[string]any{}}))
}
