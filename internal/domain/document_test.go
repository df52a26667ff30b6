package domain

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

const validDocument = `{
	"title": "Derivatives",
	"overview": "Rates of change.",
	"sections": [
		{"heading": "Rules", "bullets": ["Power rule", "Chain rule"]}
	],
	"formulas": [
		{"name": "Power rule", "expression": "d/dx x^n = n x^(n-1)", "note": "n != 0"},
		{"name": "Constant", "expression": "d/dx c = 0", "note": null}
	],
	"common_mistakes": ["Forgetting the chain rule"],
	"mini_examples": [
		{"prompt": "Differentiate x^2", "steps": ["Apply power rule"], "answer": "2x"}
	],
	"practice": [
		{"question": "d/dx x^3?", "answer": "3x^2"}
	]
}`

func TestParseDocumentValid(t *testing.T) {
	doc, err := ParseDocument([]byte(validDocument))
	if err != nil {
		t.Fatalf("ParseDocument failed: %v", err)
	}

	if doc.Title != "Derivatives" {
		t.Errorf("Expected title Derivatives, got %q", doc.Title)
	}
	if len(doc.Sections) != 1 || doc.Sections[0].Heading != "Rules" {
		t.Errorf("Unexpected sections: %+v", doc.Sections)
	}
	if len(doc.Formulas) != 2 {
		t.Fatalf("Expected 2 formulas, got %d", len(doc.Formulas))
	}
	if doc.Formulas[0].Note == nil || *doc.Formulas[0].Note != "n != 0" {
		t.Errorf("Expected note on first formula, got %v", doc.Formulas[0].Note)
	}
	if doc.Formulas[1].Note != nil {
		t.Errorf("Expected nil note on second formula, got %q", *doc.Formulas[1].Note)
	}
}

func TestParseDocumentRoundTrip(t *testing.T) {
	// Empty lists and an explicit null note must survive a full cycle.
	doc := &StructuredDocument{
		Title:          "Empty topic",
		Overview:       "",
		Sections:       []Section{},
		Formulas:       []Formula{{Name: "f", Expression: "x", Note: nil}},
		CommonMistakes: []string{},
		MiniExamples:   []MiniExample{},
		Practice:       []PracticeItem{},
	}

	data, err := json.Marshal(doc)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	for _, key := range []string{"title", "overview", "sections", "formulas", "common_mistakes", "mini_examples", "practice"} {
		if !strings.Contains(string(data), `"`+key+`"`) {
			t.Errorf("Serialized document missing %q: %s", key, data)
		}
	}
	if !strings.Contains(string(data), `"note":null`) {
		t.Errorf("Null note should serialize explicitly: %s", data)
	}

	parsed, err := ParseDocument(data)
	if err != nil {
		t.Fatalf("Round-trip validation failed: %v", err)
	}
	if parsed.Title != doc.Title || len(parsed.Sections) != 0 || len(parsed.Formulas) != 1 {
		t.Errorf("Round-trip lost fields: %+v", parsed)
	}
}

func TestParseDocumentRejections(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(map[string]json.RawMessage)
		payload string
	}{
		{name: "not JSON", payload: "not json"},
		{name: "not an object", payload: `["a"]`},
		{name: "null", payload: `null`},
		{name: "missing title", mutate: func(m map[string]json.RawMessage) { delete(m, "title") }},
		{name: "missing practice", mutate: func(m map[string]json.RawMessage) { delete(m, "practice") }},
		{name: "unknown key", mutate: func(m map[string]json.RawMessage) { m["extra"] = json.RawMessage(`1`) }},
		{name: "title not a string", mutate: func(m map[string]json.RawMessage) { m["title"] = json.RawMessage(`7`) }},
		{name: "sections null", mutate: func(m map[string]json.RawMessage) { m["sections"] = json.RawMessage(`null`) }},
		{name: "section missing bullets", mutate: func(m map[string]json.RawMessage) {
			m["sections"] = json.RawMessage(`[{"heading": "h"}]`)
		}},
		{name: "formula missing note key", mutate: func(m map[string]json.RawMessage) {
			m["formulas"] = json.RawMessage(`[{"name": "f", "expression": "x"}]`)
		}},
		{name: "mistake not a string", mutate: func(m map[string]json.RawMessage) {
			m["common_mistakes"] = json.RawMessage(`[1]`)
		}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			payload := tc.payload
			if tc.mutate != nil {
				var m map[string]json.RawMessage
				if err := json.Unmarshal([]byte(validDocument), &m); err != nil {
					t.Fatalf("Failed to decode fixture: %v", err)
				}
				tc.mutate(m)
				data, err := json.Marshal(m)
				if err != nil {
					t.Fatalf("Failed to re-encode fixture: %v", err)
				}
				payload = string(data)
			}

			if _, err := ParseDocument([]byte(payload)); !errors.Is(err, ErrSchemaMismatch) {
				t.Errorf("Expected ErrSchemaMismatch, got %v", err)
			}
		})
	}
}
