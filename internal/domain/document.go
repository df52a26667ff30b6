package domain

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrSchemaMismatch reports a payload that does not conform to the cheat
// sheet schema. Callers treat it as recoverable, not fatal.
var ErrSchemaMismatch = errors.New("payload does not match cheat sheet schema")

// StructuredDocument is the cheat sheet shape. Every field is mandatory:
// lists may be empty but must be present, and a formula's note may be null
// but the key itself is required.
type StructuredDocument struct {
	Title          string         `json:"title"`
	Overview       string         `json:"overview"`
	Sections       []Section      `json:"sections"`
	Formulas       []Formula      `json:"formulas"`
	CommonMistakes []string       `json:"common_mistakes"`
	MiniExamples   []MiniExample  `json:"mini_examples"`
	Practice       []PracticeItem `json:"practice"`
}

// Section is one titled bullet group of the cheat sheet.
type Section struct {
	Heading string   `json:"heading"`
	Bullets []string `json:"bullets"`
}

// Formula is a named expression with an optional note.
type Formula struct {
	Name       string  `json:"name"`
	Expression string  `json:"expression"`
	Note       *string `json:"note"`
}

// MiniExample is a worked example with intermediate steps.
type MiniExample struct {
	Prompt string   `json:"prompt"`
	Steps  []string `json:"steps"`
	Answer string   `json:"answer"`
}

// PracticeItem is a self-test question.
type PracticeItem struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// ParseDocument validates data against the cheat sheet schema and returns
// the decoded document. Any missing key, unknown key, or wrong type at any
// nesting level yields ErrSchemaMismatch.
func ParseDocument(data []byte) (*StructuredDocument, error) {
	obj, err := objectFields(data, "document",
		"title", "overview", "sections", "formulas", "common_mistakes", "mini_examples", "practice")
	if err != nil {
		return nil, err
	}

	doc := &StructuredDocument{
		Sections:       []Section{},
		Formulas:       []Formula{},
		CommonMistakes: []string{},
		MiniExamples:   []MiniExample{},
		Practice:       []PracticeItem{},
	}

	if doc.Title, err = stringField(obj, "title", "document"); err != nil {
		return nil, err
	}
	if doc.Overview, err = stringField(obj, "overview", "document"); err != nil {
		return nil, err
	}
	if doc.CommonMistakes, err = stringListField(obj, "common_mistakes", "document"); err != nil {
		return nil, err
	}

	sections, err := listField(obj, "sections", "document")
	if err != nil {
		return nil, err
	}
	for i, raw := range sections {
		where := fmt.Sprintf("sections[%d]", i)
		fields, err := objectFields(raw, where, "heading", "bullets")
		if err != nil {
			return nil, err
		}
		var s Section
		if s.Heading, err = stringField(fields, "heading", where); err != nil {
			return nil, err
		}
		if s.Bullets, err = stringListField(fields, "bullets", where); err != nil {
			return nil, err
		}
		doc.Sections = append(doc.Sections, s)
	}

	formulas, err := listField(obj, "formulas", "document")
	if err != nil {
		return nil, err
	}
	for i, raw := range formulas {
		where := fmt.Sprintf("formulas[%d]", i)
		fields, err := objectFields(raw, where, "name", "expression", "note")
		if err != nil {
			return nil, err
		}
		var f Formula
		if f.Name, err = stringField(fields, "name", where); err != nil {
			return nil, err
		}
		if f.Expression, err = stringField(fields, "expression", where); err != nil {
			return nil, err
		}
		// note is nullable, but the key must be present (checked above).
		if !isNull(fields["note"]) {
			note, err := stringField(fields, "note", where)
			if err != nil {
				return nil, err
			}
			f.Note = &note
		}
		doc.Formulas = append(doc.Formulas, f)
	}

	examples, err := listField(obj, "mini_examples", "document")
	if err != nil {
		return nil, err
	}
	for i, raw := range examples {
		where := fmt.Sprintf("mini_examples[%d]", i)
		fields, err := objectFields(raw, where, "prompt", "steps", "answer")
		if err != nil {
			return nil, err
		}
		var m MiniExample
		if m.Prompt, err = stringField(fields, "prompt", where); err != nil {
			return nil, err
		}
		if m.Steps, err = stringListField(fields, "steps", where); err != nil {
			return nil, err
		}
		if m.Answer, err = stringField(fields, "answer", where); err != nil {
			return nil, err
		}
		doc.MiniExamples = append(doc.MiniExamples, m)
	}

	practice, err := listField(obj, "practice", "document")
	if err != nil {
		return nil, err
	}
	for i, raw := range practice {
		where := fmt.Sprintf("practice[%d]", i)
		fields, err := objectFields(raw, where, "question", "answer")
		if err != nil {
			return nil, err
		}
		var p PracticeItem
		if p.Question, err = stringField(fields, "question", where); err != nil {
			return nil, err
		}
		if p.Answer, err = stringField(fields, "answer", where); err != nil {
			return nil, err
		}
		doc.Practice = append(doc.Practice, p)
	}

	return doc, nil
}

func isNull(raw json.RawMessage) bool {
	return string(bytes.TrimSpace(raw)) == "null"
}

// objectFields decodes raw as a JSON object with exactly the given keys.
func objectFields(raw []byte, where string, keys ...string) (map[string]json.RawMessage, error) {
	if isNull(raw) {
		return nil, fmt.Errorf("%w: %s is null", ErrSchemaMismatch, where)
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil, fmt.Errorf("%w: %s is not an object", ErrSchemaMismatch, where)
	}
	for _, key := range keys {
		if _, ok := obj[key]; !ok {
			return nil, fmt.Errorf("%w: %s missing %q", ErrSchemaMismatch, where, key)
		}
	}
	if len(obj) != len(keys) {
		return nil, fmt.Errorf("%w: %s has unexpected keys", ErrSchemaMismatch, where)
	}
	return obj, nil
}

func stringField(obj map[string]json.RawMessage, key, where string) (string, error) {
	raw := obj[key]
	if isNull(raw) {
		return "", fmt.Errorf("%w: %s.%s is null", ErrSchemaMismatch, where, key)
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", fmt.Errorf("%w: %s.%s is not a string", ErrSchemaMismatch, where, key)
	}
	return s, nil
}

func listField(obj map[string]json.RawMessage, key, where string) ([]json.RawMessage, error) {
	raw := obj[key]
	if isNull(raw) {
		return nil, fmt.Errorf("%w: %s.%s is null", ErrSchemaMismatch, where, key)
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("%w: %s.%s is not a list", ErrSchemaMismatch, where, key)
	}
	return items, nil
}

func stringListField(obj map[string]json.RawMessage, key, where string) ([]string, error) {
	items, err := listField(obj, key, where)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(items))
	for i, raw := range items {
		var s string
		if isNull(raw) || json.Unmarshal(raw, &s) != nil {
			return nil, fmt.Errorf("%w: %s.%s[%d] is not a string", ErrSchemaMismatch, where, key, i)
		}
		out = append(out, s)
	}
	return out, nil
}
