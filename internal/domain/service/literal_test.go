package service

import (
	"testing"

	domainerrors "evalops/internal/domain/errors/domain"
	"evalops/internal/domain/valueobject"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvaluateObjectLiteral(t *testing.T) {
	t.Run("should evaluate a flat object with mixed value types", func(t *testing.T) {
		raw, err := EvaluateObjectLiteral(`{
			description: 'First test',
			weight: 0.5,
			count: 3,
			enabled: true,
			missing: null,
		}`)
		require.NoError(t, err)

		assert.Equal(t, "First test", raw["description"])
		assert.InDelta(t, 0.5, raw["weight"], 1e-9)
		assert.InDelta(t, 3.0, raw["count"], 1e-9)
		assert.Equal(t, true, raw["enabled"])
		assert.Contains(t, raw, "missing")
		assert.Nil(t, raw["missing"])
	})

	t.Run("should evaluate nested objects and arrays", func(t *testing.T) {
		raw, err := EvaluateObjectLiteral(`{
			vars: { language: 'python', depth: 2 },
			assert: [
				{ type: 'contains', value: 'def' },
				{ type: 'llm-judge', value: 'Is the code readable?', threshold: 0.7 },
			],
		}`)
		require.NoError(t, err)

		vars, ok := raw["vars"].(map[string]interface{})
		require.True(t, ok)
		assert.Equal(t, "python", vars["language"])

		asserts, ok := raw["assert"].([]interface{})
		require.True(t, ok)
		require.Len(t, asserts, 2)
	})

	t.Run("should accept all three quote styles", func(t *testing.T) {
		raw, err := EvaluateObjectLiteral("{ a: 'single', b: \"double\", c: `back` }")
		require.NoError(t, err)
		assert.Equal(t, "single", raw["a"])
		assert.Equal(t, "double", raw["b"])
		assert.Equal(t, "back", raw["c"])
	})

	t.Run("should accept quoted keys and comments", func(t *testing.T) {
		raw, err := EvaluateObjectLiteral(`{
			// leading comment
			'quoted-key': 1, /* inline */ plain: 2,
		}`)
		require.NoError(t, err)
		assert.InDelta(t, 1.0, raw["quoted-key"], 1e-9)
		assert.InDelta(t, 2.0, raw["plain"], 1e-9)
	})

	t.Run("should decode escape sequences", func(t *testing.T) {
		raw, err := EvaluateObjectLiteral(`{ text: 'line1\nline2\t\'quoted\'' }`)
		require.NoError(t, err)
		assert.Equal(t, "line1\nline2\t'quoted'", raw["text"])
	})

	t.Run("should accept negative and scientific numbers", func(t *testing.T) {
		raw, err := EvaluateObjectLiteral(`{ a: -1.5, b: 2e3 }`)
		require.NoError(t, err)
		assert.InDelta(t, -1.5, raw["a"], 1e-9)
		assert.InDelta(t, 2000.0, raw["b"], 1e-9)
	})

	t.Run("should reject identifiers in value position", func(t *testing.T) {
		_, err := EvaluateObjectLiteral(`{ value: someVariable }`)
		require.Error(t, err)
		assert.ErrorIs(t, err, domainerrors.ErrDeclarationMalformed)
		assert.Contains(t, err.Error(), "someVariable")
	})

	t.Run("should reject template interpolation", func(t *testing.T) {
		_, err := EvaluateObjectLiteral("{ text: `value ${expr}` }")
		require.Error(t, err)
		assert.ErrorIs(t, err, domainerrors.ErrDeclarationMalformed)
	})

	t.Run("should reject unbalanced literals", func(t *testing.T) {
		_, err := EvaluateObjectLiteral(`{ a: 1`)
		require.Error(t, err)
	})

	t.Run("should reject trailing content after the literal", func(t *testing.T) {
		_, err := EvaluateObjectLiteral(`{ a: 1 } extra`)
		require.Error(t, err)
	})

	t.Run("should reject non-object input", func(t *testing.T) {
		_, err := EvaluateObjectLiteral(`[1, 2, 3]`)
		require.Error(t, err)
	})

	t.Run("should report the failing line inside multi-line literals", func(t *testing.T) {
		_, err := EvaluateObjectLiteral("{\n a: 1,\n b: oops,\n}")
		require.Error(t, err)

		var parseErr *domainerrors.DeclarationParseError
		require.ErrorAs(t, err, &parseErr)
		assert.Equal(t, 3, parseErr.Line)
	})
}

func TestDecodeDeclarationConfig(t *testing.T) {
	t.Run("should decode a full declaration", func(t *testing.T) {
		raw, err := EvaluateObjectLiteral(`{
			description: 'Review the diff',
			tags: ['review', 'fast'],
			skip: false,
			vars: { language: 'go' },
			prompt: 'Review this code: {{code}}',
			assert: [
				{ type: 'contains', value: 'LGTM', weight: 2 },
				{ type: 'llm-judge', value: 'Is the review actionable?', threshold: 0.8 },
			],
		}`)
		require.NoError(t, err)

		config, err := DecodeDeclarationConfig(raw)
		require.NoError(t, err)

		assert.Equal(t, "Review the diff", config.Description)
		assert.Equal(t, []string{"review", "fast"}, config.Tags)
		require.NotNil(t, config.Skip)
		assert.False(t, *config.Skip)
		assert.Equal(t, "go", config.Variables["language"])
		assert.Equal(t, "Review this code: {{code}}", config.Prompt.Value())

		require.Len(t, config.Assertions, 2)
		assert.Equal(t, valueobject.AssertionContains, config.Assertions[0].Kind)
		require.NotNil(t, config.Assertions[0].Weight)
		assert.InDelta(t, 2.0, *config.Assertions[0].Weight, 1e-9)
		require.NotNil(t, config.Assertions[1].Threshold)
		assert.InDelta(t, 0.8, *config.Assertions[1].Threshold, 1e-9)
	})

	t.Run("should accept the variables and assertions aliases", func(t *testing.T) {
		config, err := DecodeDeclarationConfig(map[string]interface{}{
			"variables":  map[string]interface{}{"x": 1.0},
			"assertions": []interface{}{map[string]interface{}{"type": "equals", "value": "y"}},
		})
		require.NoError(t, err)
		assert.Equal(t, 1.0, config.Variables["x"])
		require.Len(t, config.Assertions, 1)
		assert.Equal(t, valueobject.AssertionEquals, config.Assertions[0].Kind)
	})

	t.Run("should prefer vars over variables when both are present", func(t *testing.T) {
		config, err := DecodeDeclarationConfig(map[string]interface{}{
			"vars":      map[string]interface{}{"winner": "vars"},
			"variables": map[string]interface{}{"winner": "variables"},
		})
		require.NoError(t, err)
		assert.Equal(t, "vars", config.Variables["winner"])
	})

	t.Run("should decode a message-array prompt", func(t *testing.T) {
		config, err := DecodeDeclarationConfig(map[string]interface{}{
			"prompt": []interface{}{
				map[string]interface{}{"role": "system", "content": "You are a reviewer."},
				map[string]interface{}{"role": "user", "content": "{{code}}"},
			},
		})
		require.NoError(t, err)

		messages, ok := config.Prompt.Value().([]valueobject.PromptMessage)
		require.True(t, ok)
		require.Len(t, messages, 2)
		assert.Equal(t, "system", messages[0].Role)
	})

	t.Run("should ignore unknown top-level keys", func(t *testing.T) {
		config, err := DecodeDeclarationConfig(map[string]interface{}{
			"description": "kept",
			"timeout":     30.0,
			"retries":     2.0,
		})
		require.NoError(t, err)
		assert.Equal(t, "kept", config.Description)
	})

	t.Run("should reject an unknown assertion type", func(t *testing.T) {
		_, err := DecodeDeclarationConfig(map[string]interface{}{
			"assert": []interface{}{map[string]interface{}{"type": "fuzzy-vibes", "value": "x"}},
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "fuzzy-vibes")
	})

	t.Run("should reject wrongly typed known fields", func(t *testing.T) {
		tests := []struct {
			name string
			raw  map[string]interface{}
		}{
			{"numeric description", map[string]interface{}{"description": 1.0}},
			{"scalar tags", map[string]interface{}{"tags": "fast"}},
			{"string skip", map[string]interface{}{"skip": "yes"}},
			{"array vars", map[string]interface{}{"vars": []interface{}{}}},
			{"numeric prompt", map[string]interface{}{"prompt": 1.0}},
			{"object assert", map[string]interface{}{"assert": map[string]interface{}{}}},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				_, err := DecodeDeclarationConfig(tt.raw)
				assert.Error(t, err)
			})
		}
	})
}
