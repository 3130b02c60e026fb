package question

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

const entrySchemaURL = "schema://question-entry.json"

// entrySchema describes one pool entry as stored on disk.
var entrySchema = map[string]any{
	"type":     "object",
	"required": []any{"id", "type", "question_text", "options", "correct_answer"},
	"properties": map[string]any{
		"id":                      map[string]any{"type": "string", "minLength": 1},
		"topic":                   map[string]any{"type": "string"},
		"type":                    map[string]any{"enum": []any{"SingleChoice", "MultipleChoice", "DragDrop", "Hotspot", "Simulation"}},
		"question_text":           map[string]any{"type": "string", "minLength": 1},
		"allow_randomize_options": map[string]any{"type": "boolean"},
		"code_snippet":            map[string]any{"type": []any{"string", "null"}},
		"options": map[string]any{
			"type": "array",
			"items": map[string]any{
				"type":     "object",
				"required": []any{"id", "text"},
				"properties": map[string]any{
					"id":    map[string]any{"type": "string", "minLength": 1},
					"text":  map[string]any{"type": "string"},
					"group": map[string]any{"type": "integer"},
				},
			},
		},
		"text_map": map[string]any{
			"type":                 []any{"object", "null"},
			"additionalProperties": map[string]any{"type": "string"},
		},
		"correct_answer": map[string]any{
			"type": "array",
			"items": map[string]any{
				"oneOf": []any{
					map[string]any{"type": "string"},
					map[string]any{
						"type":     "object",
						"required": []any{"option_id"},
						"properties": map[string]any{
							"slot":      map[string]any{"type": "integer", "minimum": 0},
							"order":     map[string]any{"type": "integer", "minimum": 0},
							"target":    map[string]any{"type": "string"},
							"option_id": map[string]any{"type": "string"},
						},
					},
				},
			},
		},
		"explanation": map[string]any{"type": []any{"string", "null"}},
		"images": map[string]any{
			"type":  []any{"array", "null"},
			"items": map[string]any{"type": "string"},
		},
	},
}

var (
	compileOnce sync.Once
	compiled    *jsonschema.Schema
	compileErr  error
)

func compiledEntrySchema() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		// The compiler wants a plain decoded JSON value.
		defBytes, err := json.Marshal(entrySchema)
		if err != nil {
			compileErr = fmt.Errorf("marshal entry schema: %w", err)
			return
		}
		var def any
		if err := json.Unmarshal(defBytes, &def); err != nil {
			compileErr = fmt.Errorf("parse entry schema: %w", err)
			return
		}

		c := jsonschema.NewCompiler()
		if err := c.AddResource(entrySchemaURL, def); err != nil {
			compileErr = fmt.Errorf("add resource: %w", err)
			return
		}
		compiled, compileErr = c.Compile(entrySchemaURL)
	})
	return compiled, compileErr
}

// ValidateEntry checks raw JSON of a single pool entry against the entry
// schema.
func ValidateEntry(raw json.RawMessage) error {
	schema, err := compiledEntrySchema()
	if err != nil {
		return fmt.Errorf("compile entry schema: %w", err)
	}

	var parsed any
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	if err := schema.Validate(parsed); err != nil {
		return fmt.Errorf("schema validation failed: %w", err)
	}
	return nil
}
