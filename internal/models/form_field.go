package models

import (
	"time"

	"gorm.io/datatypes"
)

// Supported form field input types.
const (
	FieldTypeText     = "text"
	FieldTypeEmail    = "email"
	FieldTypeTel      = "tel"
	FieldTypeSelect   = "select"
	FieldTypeRadio    = "radio"
	FieldTypeTextarea = "textarea"
	FieldTypeDate     = "date"
	FieldTypeNumber   = "number"
)

// FieldOption is a selectable answer. Weight is only meaningful when the owning field has HasWeight set.
type FieldOption struct {
	Value  string   `json:"value"`
	Label  string   `json:"label"`
	Weight *float64 `json:"weight,omitempty"`
}

// RubricTable is the admin-authored scoring table attached to an AI prompt.
type RubricTable struct {
	Headers []string   `json:"headers"`
	Rows    [][]string `json:"rows"`
}

// AIPrompt instructs the AI evaluator how to score a free-text answer.
type AIPrompt struct {
	Instruction string       `json:"instruction"`
	Context     string       `json:"context,omitempty"`
	Rubric      *RubricTable `json:"rubric,omitempty"`
	Examples    string       `json:"examples,omitempty"`
}

// FormField describes a single question of a stage form.
type FormField struct {
	ID             uint                             `gorm:"primaryKey" json:"id"`
	Name           string                           `gorm:"size:128;not null;uniqueIndex:idx_form_fields_stage_name" json:"name"`
	Label          string                           `gorm:"size:512;not null" json:"label"`
	Type           string                           `gorm:"size:32;not null" json:"type"`
	Options        datatypes.JSONSlice[FieldOption] `json:"options"`
	HasWeight      bool                             `gorm:"not null;default:false" json:"has_weight"`
	IsAICalculated bool                             `gorm:"column:is_ai_calculated;not null;default:false" json:"is_ai_calculated"`
	AIPrompt       datatypes.JSONType[AIPrompt]     `gorm:"column:ai_prompt" json:"ai_prompt"`
	QuestionTitle  string                           `gorm:"size:512" json:"question_title"`
	DisplayOrder   int                              `gorm:"not null;default:0" json:"display_order"`
	Required       bool                             `gorm:"not null;default:false" json:"required"`
	Stage          int                              `gorm:"not null;default:1;uniqueIndex:idx_form_fields_stage_name" json:"stage"`
	CreatedAt      time.Time                        `json:"created_at"`
	UpdatedAt      time.Time                        `json:"updated_at"`
}

// EvaluationKey is the key under which AI evaluation results for this field are stored.
func (f FormField) EvaluationKey() string {
	if f.QuestionTitle != "" {
		return f.QuestionTitle
	}
	if f.Label != "" {
		return f.Label
	}
	return f.Name
}

// IsValidFieldType reports whether t is a supported input type.
func IsValidFieldType(t string) bool {
	switch t {
	case FieldTypeText, FieldTypeEmail, FieldTypeTel, FieldTypeSelect, FieldTypeRadio, FieldTypeTextarea, FieldTypeDate, FieldTypeNumber:
		return true
	default:
		return false
	}
}
