package dto

// StageSubmissionRequest carries an applicant's answers for one stage.
type StageSubmissionRequest struct {
	Answers map[string]interface{} `json:"answers" validate:"required,min=1"`
}

// StageSubmissionResponse acknowledges a stored stage.
type StageSubmissionResponse struct {
	SubmissionID     uint `json:"submission_id"`
	Stage            int  `json:"stage"`
	EvaluationQueued bool `json:"evaluation_queued"`
}

// StageCopy is the applicant-facing text of a stage.
type StageCopy struct {
	WelcomeText   string `json:"welcome_text"`
	SuccessText   string `json:"success_text"`
	AgreementText string `json:"agreement_text"`
}

// ApplicantStatusResponse describes where an applicant is in the pipeline.
type ApplicantStatusResponse struct {
	Email        string     `json:"email"`
	Registered   bool       `json:"registered"`
	Stage        int        `json:"stage"`
	ActiveStage  int        `json:"active_stage"`
	PortalStatus string     `json:"portal_status"`
	CanSubmit    bool       `json:"can_submit"`
	LockedStages []int      `json:"locked_stages"`
	Copy         *StageCopy `json:"copy,omitempty"`
}
