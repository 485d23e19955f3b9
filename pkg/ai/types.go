package ai

import "context"

// Rubric is a scoring table; the first cell of every row names a criterion.
type Rubric struct {
	Headers []string   `json:"headers"`
	Rows    [][]string `json:"rows"`
}

// PromptSpec describes how a single free-text answer should be scored.
type PromptSpec struct {
	Instruction string  `json:"instruction"`
	Context     string  `json:"context,omitempty"`
	Rubric      *Rubric `json:"rubric,omitempty"`
	Examples    string  `json:"examples,omitempty"`
}

// HasRubric reports whether the spec carries at least one rubric row.
func (p PromptSpec) HasRubric() bool {
	return p.Rubric != nil && len(p.Rubric.Rows) > 0
}

// Evaluation is the decoded JSON object returned by the model.
//
// It is either flat ({score, explanation}) or keyed by criterion name with
// {score, scale, weight, result, explanation} entries. Failed evaluations are flat with error=true.
type Evaluation map[string]interface{}

// Failed reports whether the evaluation is the fallback produced after exhausting retries.
func (e Evaluation) Failed() bool {
	failed, _ := e["error"].(bool)
	return failed
}

// Evaluator scores free-text answers. Implementations never return an error: failures are
// reported inside the Evaluation so callers cannot break the outer submission flow.
type Evaluator interface {
	Evaluate(ctx context.Context, spec PromptSpec, answer string) Evaluation
}
