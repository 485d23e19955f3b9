package models

import (
	"time"

	"gorm.io/datatypes"
)

// FilteringDecision is the admin classification consumed by the stage-closing workflow.
type FilteringDecision string

const (
	// DecisionAuto is the default; such submissions are neither messaged nor promoted on close.
	DecisionAuto FilteringDecision = "auto"
	// DecisionNominated marks a submission as passing the stage.
	DecisionNominated FilteringDecision = "nominated"
	// DecisionExclude marks a submission as failing the stage.
	DecisionExclude FilteringDecision = "exclude"
)

// Valid reports whether d is one of the known decisions.
func (d FilteringDecision) Valid() bool {
	switch d {
	case DecisionAuto, DecisionNominated, DecisionExclude:
		return true
	default:
		return false
	}
}

// Applicant pipeline stages. Stages 1-3 are scored, 4 is confirmation and 5 is terminal.
const (
	StageFirst        = 1
	StageLastScored   = 3
	StageConfirmation = 4
	StageFinal        = 5
)

// AIEvaluationRecord is one stored AI evaluation of a single answer.
type AIEvaluationRecord struct {
	FieldName   string                 `json:"field_name"`
	UserAnswer  string                 `json:"user_answer"`
	Evaluation  map[string]interface{} `json:"evaluation"`
	EvaluatedAt time.Time              `json:"evaluated_at"`
}

// AIEvaluations maps a question title to its evaluation record.
type AIEvaluations map[string]AIEvaluationRecord

// Submission is the single applicant record, keyed naturally by email.
type Submission struct {
	ID                  uint                              `gorm:"primaryKey" json:"id"`
	UserEmail           string                            `gorm:"size:255;uniqueIndex;not null" json:"user_email"`
	Stage               int                               `gorm:"not null;default:1;index" json:"stage"`
	Data                datatypes.JSONMap                 `gorm:"column:data" json:"data"`
	DataStage2          datatypes.JSONMap                 `gorm:"column:data_stage_2" json:"data_stage_2"`
	DataStage3          datatypes.JSONMap                 `gorm:"column:data_stage_3" json:"data_stage_3"`
	AIEvaluations       datatypes.JSONType[AIEvaluations] `gorm:"column:ai_evaluations" json:"ai_evaluations"`
	AIEvaluationsStage2 datatypes.JSONType[AIEvaluations] `gorm:"column:ai_evaluations_stage_2" json:"ai_evaluations_stage_2"`
	AIEvaluationsStage3 datatypes.JSONType[AIEvaluations] `gorm:"column:ai_evaluations_stage_3" json:"ai_evaluations_stage_3"`
	FilteringDecision   FilteringDecision                 `gorm:"size:16;not null;default:auto;index" json:"filtering_decision"`
	Channel             string                            `gorm:"size:128;index" json:"channel"`
	Note                string                            `gorm:"type:text" json:"note"`
	CreatedAt           time.Time                         `json:"created_at"`
	UpdatedAt           time.Time                         `json:"updated_at"`
}

// Decision returns the filtering decision, treating an unset value as auto.
func (s Submission) Decision() FilteringDecision {
	if s.FilteringDecision == "" {
		return DecisionAuto
	}
	return s.FilteringDecision
}

// StageAnswers returns the answer map for a scored stage; unknown or missing stages yield an empty map.
func (s Submission) StageAnswers(stage int) map[string]interface{} {
	var data datatypes.JSONMap
	switch stage {
	case 1:
		data = s.Data
	case 2:
		data = s.DataStage2
	case 3:
		data = s.DataStage3
	}
	if data == nil {
		return map[string]interface{}{}
	}
	return map[string]interface{}(data)
}

// StageEvaluations returns the AI evaluation map for a scored stage.
func (s Submission) StageEvaluations(stage int) AIEvaluations {
	var evaluations AIEvaluations
	switch stage {
	case 1:
		evaluations = s.AIEvaluations.Data()
	case 2:
		evaluations = s.AIEvaluationsStage2.Data()
	case 3:
		evaluations = s.AIEvaluationsStage3.Data()
	}
	if evaluations == nil {
		return AIEvaluations{}
	}
	return evaluations
}

// HasStageAnswers reports whether the answers of a stage have already been submitted.
func (s Submission) HasStageAnswers(stage int) bool {
	return len(s.StageAnswers(stage)) > 0
}

// SetStageAnswers assigns the answers of a scored stage.
func (s *Submission) SetStageAnswers(stage int, answers map[string]interface{}) {
	switch stage {
	case 1:
		s.Data = datatypes.JSONMap(answers)
	case 2:
		s.DataStage2 = datatypes.JSONMap(answers)
	case 3:
		s.DataStage3 = datatypes.JSONMap(answers)
	}
}

// SetStageEvaluations assigns the AI evaluations of a scored stage.
func (s *Submission) SetStageEvaluations(stage int, evaluations AIEvaluations) {
	value := datatypes.NewJSONType(evaluations)
	switch stage {
	case 1:
		s.AIEvaluations = value
	case 2:
		s.AIEvaluationsStage2 = value
	case 3:
		s.AIEvaluationsStage3 = value
	}
}

// StageAnswersColumn returns the column holding the answers of a scored stage.
func StageAnswersColumn(stage int) string {
	switch stage {
	case 2:
		return "data_stage_2"
	case 3:
		return "data_stage_3"
	default:
		return "data"
	}
}

// StageEvaluationsColumn returns the column holding the AI evaluations of a scored stage.
func StageEvaluationsColumn(stage int) string {
	switch stage {
	case 2:
		return "ai_evaluations_stage_2"
	case 3:
		return "ai_evaluations_stage_3"
	default:
		return "ai_evaluations"
	}
}

// IsScoredStage reports whether stage carries answers and scores.
func IsScoredStage(stage int) bool {
	return stage >= StageFirst && stage <= StageLastScored
}
