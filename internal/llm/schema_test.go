package llm

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSchema() *Schema {
	return &Schema{
		Name:        "test-feedback",
		Description: "Pronunciation feedback",
		Definition: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"score":    map[string]any{"type": "integer", "minimum": 0, "maximum": 100},
				"feedback": map[string]any{"type": "string"},
				"level":    map[string]any{"type": "string", "enum": []any{"good", "fair", "poor"}},
				"tips": map[string]any{
					"type":  "array",
					"items": map[string]any{"type": "string"},
				},
			},
			"required": []any{"score", "feedback"},
		},
	}
}

func TestSchemaCheck(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		ok   bool
	}{
		{"valid", `{"score":90,"feedback":"Clear","level":"good","tips":["slow down"]}`, true},
		{"without optional", `{"score":60,"feedback":"Okay"}`, true},
		{"missing required", `{"score":60}`, false},
		{"wrong type", `{"score":"sixty","feedback":"Okay"}`, false},
		{"out of range", `{"score":101,"feedback":"Okay"}`, false},
		{"bad enum", `{"score":50,"feedback":"Okay","level":"great"}`, false},
		{"bad array item", `{"score":50,"feedback":"Okay","tips":[1]}`, false},
		{"malformed", `{not json}`, false},
		{"empty", ``, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := testSchema().Check(json.RawMessage(tt.raw))
			if tt.ok {
				assert.NoError(t, err)
				return
			}
			var inv *ErrInvalidResponse
			require.ErrorAs(t, err, &inv)
			assert.Equal(t, tt.raw, string(inv.Content))
		})
	}
}

func TestNilSchemaAcceptsAnything(t *testing.T) {
	var s *Schema
	assert.NoError(t, s.Check(json.RawMessage(`ಯಾವುದಾದರೂ`)))
}
