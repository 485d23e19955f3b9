package ai

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// Numeric fields may arrive as numeric strings ("4"); scoring.Number reads both.
const flatEvaluationSchema = `{
  "$defs": {
    "numeric": {"type": ["number", "string"], "pattern": "^\\s*-?[0-9]+(\\.[0-9]+)?\\s*$"}
  },
  "type": "object",
  "required": ["score"],
  "properties": {
    "score": {"$ref": "#/$defs/numeric"},
    "explanation": {"type": "string"}
  }
}`

const rubricEvaluationSchema = `{
  "$defs": {
    "numeric": {"type": ["number", "string"], "pattern": "^\\s*-?[0-9]+(\\.[0-9]+)?\\s*$"}
  },
  "type": "object",
  "minProperties": 1,
  "properties": {
    "total": {},
    "error": {}
  },
  "additionalProperties": {
    "type": "object",
    "required": ["score"],
    "properties": {
      "score": {"$ref": "#/$defs/numeric"},
      "scale": {"$ref": "#/$defs/numeric"},
      "weight": {"$ref": "#/$defs/numeric"},
      "result": {"$ref": "#/$defs/numeric"},
      "explanation": {"type": "string"}
    }
  }
}`

// ErrNoJSONObject indicates the model reply did not contain a JSON object.
var ErrNoJSONObject = errors.New("no json object in model reply")

type shapeValidator struct {
	flat   *jsonschema.Schema
	rubric *jsonschema.Schema
}

func newShapeValidator() (*shapeValidator, error) {
	flat, err := jsonschema.CompileString("flat_evaluation.json", flatEvaluationSchema)
	if err != nil {
		return nil, fmt.Errorf("compile flat evaluation schema: %w", err)
	}
	rubric, err := jsonschema.CompileString("rubric_evaluation.json", rubricEvaluationSchema)
	if err != nil {
		return nil, fmt.Errorf("compile rubric evaluation schema: %w", err)
	}
	return &shapeValidator{flat: flat, rubric: rubric}, nil
}

func (v *shapeValidator) validate(evaluation Evaluation, withRubric bool) error {
	schema := v.flat
	if withRubric {
		schema = v.rubric
	}
	if err := schema.Validate(map[string]interface{}(evaluation)); err != nil {
		return fmt.Errorf("unexpected evaluation shape: %w", err)
	}
	return nil
}

// ExtractJSONObject isolates the outermost JSON object of a model reply,
// tolerating code fences and surrounding prose.
func ExtractJSONObject(content string) (string, error) {
	trimmed := strings.TrimSpace(content)
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSuffix(trimmed, "```")

	start := strings.Index(trimmed, "{")
	end := strings.LastIndex(trimmed, "}")
	if start < 0 || end < start {
		return "", ErrNoJSONObject
	}
	return trimmed[start : end+1], nil
}

// ParseEvaluation decodes a model reply into an Evaluation.
func ParseEvaluation(content string) (Evaluation, error) {
	object, err := ExtractJSONObject(content)
	if err != nil {
		return nil, err
	}

	var evaluation Evaluation
	if err := json.Unmarshal([]byte(object), &evaluation); err != nil {
		return nil, fmt.Errorf("parse evaluation json: %w", err)
	}
	return evaluation, nil
}
