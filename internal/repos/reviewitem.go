package repos

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/lessonloop/scenario-backend/internal/logger"
	"github.com/lessonloop/scenario-backend/internal/types"
)

type ReviewItemRepo interface {
	CreateFromMissed(ctx context.Context, tx *gorm.DB, sessionID uuid.UUID, subject string, missed []types.MissedQuestion) ([]*types.ReviewItem, error)
	GetBySubject(ctx context.Context, tx *gorm.DB, subject string) ([]*types.ReviewItem, error)
	FullDeleteBySessionID(ctx context.Context, tx *gorm.DB, sessionID uuid.UUID) error
}

type reviewItemRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewReviewItemRepo(db *gorm.DB, baseLog *logger.Logger) ReviewItemRepo {
	return &reviewItemRepo{db: db, log: baseLog.With("repo", "ReviewItemRepo")}
}

func (r *reviewItemRepo) CreateFromMissed(ctx context.Context, tx *gorm.DB, sessionID uuid.UUID, subject string, missed []types.MissedQuestion) ([]*types.ReviewItem, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if len(missed) == 0 {
		return []*types.ReviewItem{}, nil
	}

	items := make([]*types.ReviewItem, 0, len(missed))
	for _, m := range missed {
		options, err := json.Marshal(m.Options)
		if err != nil {
			return nil, err
		}
		items = append(items, &types.ReviewItem{
			ID:            uuid.New(),
			SessionID:     sessionID,
			Subject:       subject,
			QuestionID:    m.QuestionID,
			Prompt:        m.Prompt,
			ChosenOption:  m.ChosenOption,
			CorrectOption: m.CorrectOption,
			Options:       datatypes.JSON(options),
		})
	}

	if err := transaction.WithContext(ctx).Create(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *reviewItemRepo) GetBySubject(ctx context.Context, tx *gorm.DB, subject string) ([]*types.ReviewItem, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.ReviewItem
	if err := transaction.WithContext(ctx).
		Where("subject = ?", subject).
		Order("created_at DESC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *reviewItemRepo) FullDeleteBySessionID(ctx context.Context, tx *gorm.DB, sessionID uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Delete(&types.ReviewItem{}).Error
}
