package dto

import (
	"time"

	"github.com/noah-isme/registration-api/internal/models"
)

// FormFieldRequest creates or replaces a form field.
type FormFieldRequest struct {
	Name           string               `json:"name" validate:"required,max=128"`
	Label          string               `json:"label" validate:"required,max=512"`
	Type           string               `json:"type" validate:"required"`
	Options        []models.FieldOption `json:"options" validate:"omitempty,dive"`
	HasWeight      bool                 `json:"has_weight"`
	IsAICalculated bool                 `json:"is_ai_calculated"`
	AIPrompt       *models.AIPrompt     `json:"ai_prompt"`
	QuestionTitle  string               `json:"question_title" validate:"omitempty,max=512"`
	DisplayOrder   int                  `json:"display_order"`
	Required       bool                 `json:"required"`
	Stage          int                  `json:"stage" validate:"required,min=1,max=3"`
}

// FormFieldResponse serializes a form field.
type FormFieldResponse struct {
	ID             uint                 `json:"id"`
	Name           string               `json:"name"`
	Label          string               `json:"label"`
	Type           string               `json:"type"`
	Options        []models.FieldOption `json:"options"`
	HasWeight      bool                 `json:"has_weight"`
	IsAICalculated bool                 `json:"is_ai_calculated"`
	AIPrompt       *models.AIPrompt     `json:"ai_prompt,omitempty"`
	QuestionTitle  string               `json:"question_title"`
	DisplayOrder   int                  `json:"display_order"`
	Required       bool                 `json:"required"`
	Stage          int                  `json:"stage"`
	UpdatedAt      time.Time            `json:"updated_at"`
}

// PublicFormFieldResponse hides scoring configuration from applicants.
type PublicFormFieldResponse struct {
	ID            uint                `json:"id"`
	Name          string              `json:"name"`
	Label         string              `json:"label"`
	Type          string              `json:"type"`
	Options       []PublicFieldOption `json:"options"`
	QuestionTitle string              `json:"question_title"`
	DisplayOrder  int                 `json:"display_order"`
	Required      bool                `json:"required"`
}

// PublicFieldOption is an option without its weight.
type PublicFieldOption struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// NewFormFieldResponse converts a model into its admin response.
func NewFormFieldResponse(field models.FormField) FormFieldResponse {
	response := FormFieldResponse{
		ID:             field.ID,
		Name:           field.Name,
		Label:          field.Label,
		Type:           field.Type,
		Options:        []models.FieldOption(field.Options),
		HasWeight:      field.HasWeight,
		IsAICalculated: field.IsAICalculated,
		QuestionTitle:  field.QuestionTitle,
		DisplayOrder:   field.DisplayOrder,
		Required:       field.Required,
		Stage:          field.Stage,
		UpdatedAt:      field.UpdatedAt,
	}
	if response.Options == nil {
		response.Options = []models.FieldOption{}
	}
	if field.IsAICalculated {
		prompt := field.AIPrompt.Data()
		response.AIPrompt = &prompt
	}
	return response
}

// NewFormFieldResponses converts a slice of models.
func NewFormFieldResponses(fields []models.FormField) []FormFieldResponse {
	responses := make([]FormFieldResponse, 0, len(fields))
	for _, field := range fields {
		responses = append(responses, NewFormFieldResponse(field))
	}
	return responses
}

// NewPublicFormFieldResponses converts fields for the applicant form.
func NewPublicFormFieldResponses(fields []models.FormField) []PublicFormFieldResponse {
	responses := make([]PublicFormFieldResponse, 0, len(fields))
	for _, field := range fields {
		options := make([]PublicFieldOption, 0, len(field.Options))
		for _, option := range field.Options {
			options = append(options, PublicFieldOption{Value: option.Value, Label: option.Label})
		}
		responses = append(responses, PublicFormFieldResponse{
			ID:            field.ID,
			Name:          field.Name,
			Label:         field.Label,
			Type:          field.Type,
			Options:       options,
			QuestionTitle: field.QuestionTitle,
			DisplayOrder:  field.DisplayOrder,
			Required:      field.Required,
		})
	}
	return responses
}
