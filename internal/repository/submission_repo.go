package repository

import (
	"context"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/noah-isme/registration-api/internal/models"
)

// SubmissionFilter allows narrowing submission queries.
type SubmissionFilter struct {
	Stage    *int
	Channels []string
	Decision *models.FilteringDecision
}

// SubmissionRepository defines data operations for applicant submissions.
type SubmissionRepository interface {
	List(ctx context.Context, filter SubmissionFilter) ([]models.Submission, error)
	GetByID(ctx context.Context, id uint) (models.Submission, error)
	GetByEmail(ctx context.Context, email string) (models.Submission, error)
	Create(ctx context.Context, submission *models.Submission) error
	SetStageAnswers(ctx context.Context, id uint, stage int, answers map[string]interface{}) error
	SetStageEvaluations(ctx context.Context, id uint, stage int, evaluations models.AIEvaluations) error
	SetDecision(ctx context.Context, id uint, decision models.FilteringDecision) error
	BulkSetDecision(ctx context.Context, ids []uint, decision models.FilteringDecision) (int64, error)
	PromoteNominated(ctx context.Context, stage int, emails []string) (int64, error)
	AdvanceStage(ctx context.Context, id uint, from, to int) (int64, error)
}

type submissionRepository struct {
	db *gorm.DB
}

// NewSubmissionRepository instantiates the repository.
func NewSubmissionRepository(db *gorm.DB) SubmissionRepository {
	return &submissionRepository{db: db}
}

func (r *submissionRepository) baseQuery(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Model(&models.Submission{})
}

func (r *submissionRepository) List(ctx context.Context, filter SubmissionFilter) ([]models.Submission, error) {
	query := r.baseQuery(ctx)

	if filter.Stage != nil {
		query = query.Where("stage = ?", *filter.Stage)
	}

	if len(filter.Channels) > 0 {
		query = query.Where("channel IN ?", filter.Channels)
	}

	if filter.Decision != nil {
		if *filter.Decision == models.DecisionAuto {
			query = query.Where("(filtering_decision = ? OR filtering_decision = '' OR filtering_decision IS NULL)", models.DecisionAuto)
		} else {
			query = query.Where("filtering_decision = ?", *filter.Decision)
		}
	}

	var submissions []models.Submission
	if err := query.Order("created_at ASC").Order("id ASC").Find(&submissions).Error; err != nil {
		return nil, err
	}

	return submissions, nil
}

func (r *submissionRepository) GetByID(ctx context.Context, id uint) (models.Submission, error) {
	var submission models.Submission
	if err := r.baseQuery(ctx).First(&submission, id).Error; err != nil {
		return models.Submission{}, err
	}

	return submission, nil
}

func (r *submissionRepository) GetByEmail(ctx context.Context, email string) (models.Submission, error) {
	var submission models.Submission
	if err := r.baseQuery(ctx).Where("user_email = ?", email).First(&submission).Error; err != nil {
		return models.Submission{}, err
	}

	return submission, nil
}

func (r *submissionRepository) Create(ctx context.Context, submission *models.Submission) error {
	return r.db.WithContext(ctx).Create(submission).Error
}

func (r *submissionRepository) SetStageAnswers(ctx context.Context, id uint, stage int, answers map[string]interface{}) error {
	result := r.baseQuery(ctx).Where("id = ?", id).Update(models.StageAnswersColumn(stage), datatypes.JSONMap(answers))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *submissionRepository) SetStageEvaluations(ctx context.Context, id uint, stage int, evaluations models.AIEvaluations) error {
	result := r.baseQuery(ctx).Where("id = ?", id).Update(models.StageEvaluationsColumn(stage), datatypes.NewJSONType(evaluations))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *submissionRepository) SetDecision(ctx context.Context, id uint, decision models.FilteringDecision) error {
	result := r.baseQuery(ctx).Where("id = ?", id).Update("filtering_decision", decision)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *submissionRepository) BulkSetDecision(ctx context.Context, ids []uint, decision models.FilteringDecision) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	result := r.baseQuery(ctx).Where("id IN ?", ids).Update("filtering_decision", decision)
	return result.RowsAffected, result.Error
}

// PromoteNominated moves the listed nominated submissions of stage to the next stage. The stage and
// decision filters are re-applied so rows changed since they were read are left untouched.
func (r *submissionRepository) PromoteNominated(ctx context.Context, stage int, emails []string) (int64, error) {
	if len(emails) == 0 {
		return 0, nil
	}

	result := r.baseQuery(ctx).
		Where("stage = ?", stage).
		Where("filtering_decision = ?", models.DecisionNominated).
		Where("user_email IN ?", emails).
		Update("stage", stage+1)
	return result.RowsAffected, result.Error
}

func (r *submissionRepository) AdvanceStage(ctx context.Context, id uint, from, to int) (int64, error) {
	result := r.baseQuery(ctx).Where("id = ? AND stage = ?", id, from).Update("stage", to)
	return result.RowsAffected, result.Error
}
