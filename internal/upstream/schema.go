package upstream

// CheatSheetSchema returns the JSON schema the structured call constrains
// the model to. It mirrors domain.StructuredDocument: every field required,
// additional properties forbidden, note nullable but present.
func CheatSheetSchema() map[string]any {
	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"required": []string{
			"title", "overview", "sections", "formulas",
			"common_mistakes", "mini_examples", "practice",
		},
		"properties": map[string]any{
			"title":    map[string]any{"type": "string"},
			"overview": map[string]any{"type": "string"},
			"sections": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type":                 "object",
					"additionalProperties": false,
					"required":             []string{"heading", "bullets"},
					"properties": map[string]any{
						"heading": map[string]any{"type": "string"},
						"bullets": map[string]any{
							"type":  "array",
							"items": map[string]any{"type": "string"},
						},
					},
				},
			},
			"formulas": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type":                 "object",
					"additionalProperties": false,
					"required":             []string{"name", "expression", "note"},
					"properties": map[string]any{
						"name":       map[string]any{"type": "string"},
						"expression": map[string]any{"type": "string"},
						"note":       map[string]any{"type": []string{"string", "null"}},
					},
				},
			},
			"common_mistakes": map[string]any{
				"type":  "array",
				"items": map[string]any{"type": "string"},
			},
			"mini_examples": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type":                 "object",
					"additionalProperties": false,
					"required":             []string{"prompt", "steps", "answer"},
					"properties": map[string]any{
						"prompt": map[string]any{"type": "string"},
						"steps": map[string]any{
							"type":  "array",
							"items": map[string]any{"type": "string"},
						},
						"answer": map[string]any{"type": "string"},
					},
				},
			},
			"practice": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type":                 "object",
					"additionalProperties": false,
					"required":             []string{"question", "answer"},
					"properties": map[string]any{
						"question": map[string]any{"type": "string"},
						"answer":   map[string]any{"type": "string"},
					},
				},
			},
		},
	}
}
