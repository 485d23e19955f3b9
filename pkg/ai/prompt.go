package ai

import (
	"fmt"
	"strings"
)

// CriterionNames returns the criteria declared by the rubric rows, in row order.
func CriterionNames(rubric *Rubric) []string {
	if rubric == nil {
		return nil
	}
	names := make([]string, 0, len(rubric.Rows))
	for _, row := range rubric.Rows {
		if len(row) == 0 {
			continue
		}
		name := strings.TrimSpace(row[0])
		if name != "" {
			names = append(names, name)
		}
	}
	return names
}

// BuildSystemPrompt renders the evaluator instruction for a prompt spec.
func BuildSystemPrompt(spec PromptSpec) string {
	builder := strings.Builder{}
	builder.WriteString("You evaluate answers submitted by applicants to a selection programme.\n\n")
	builder.WriteString("## Instruction\n")
	builder.WriteString(strings.TrimSpace(spec.Instruction))

	if context := strings.TrimSpace(spec.Context); context != "" {
		builder.WriteString("\n\n## Context\n")
		builder.WriteString(context)
	}

	if spec.HasRubric() {
		builder.WriteString("\n\n## Rubric\n")
		builder.WriteString(renderRubric(spec.Rubric))
		builder.WriteString("\n\n## Output\n")
		builder.WriteString("Return a JSON object with exactly one entry per criterion, keyed by the criterion name as written: ")
		builder.WriteString(strings.Join(quoteAll(CriterionNames(spec.Rubric)), ", "))
		builder.WriteString(".\nEach entry must be an object with:\n")
		builder.WriteString("- \"score\": the score on the criterion's own scale, as stated in its row\n")
		builder.WriteString("- \"scale\": the maximum value of that scale as a number\n")
		builder.WriteString("- \"explanation\": a justification in Arabic of fewer than 20 words\n")
		builder.WriteString("- \"weight\": the criterion weight from its row as a fraction (for example 0.25)\n")
		builder.WriteString("- \"result\": score × weight × 10\n")
	} else {
		builder.WriteString("\n\n## Output\n")
		builder.WriteString("Return a JSON object {\"score\": <number from 0 to 1000>, \"explanation\": \"<Arabic justification of fewer than 20 words>\"}.\n")
	}

	if examples := strings.TrimSpace(spec.Examples); examples != "" {
		builder.WriteString("\n## Examples\n")
		builder.WriteString(examples)
		builder.WriteString("\n")
	}

	builder.WriteString("\nRespond with JSON only.")
	return builder.String()
}

// BuildUserPrompt wraps the applicant answer.
func BuildUserPrompt(answer string) string {
	return fmt.Sprintf("Applicant answer:\n%s", strings.TrimSpace(answer))
}

func renderRubric(rubric *Rubric) string {
	lines := make([]string, 0, len(rubric.Rows)+2)
	if len(rubric.Headers) > 0 {
		lines = append(lines, "| "+strings.Join(rubric.Headers, " | ")+" |")
		separators := make([]string, len(rubric.Headers))
		for i := range separators {
			separators[i] = "---"
		}
		lines = append(lines, "| "+strings.Join(separators, " | ")+" |")
	}
	for _, row := range rubric.Rows {
		lines = append(lines, "| "+strings.Join(row, " | ")+" |")
	}
	return strings.Join(lines, "\n")
}

func quoteAll(values []string) []string {
	quoted := make([]string, len(values))
	for i, value := range values {
		quoted[i] = fmt.Sprintf("%q", value)
	}
	return quoted
}
