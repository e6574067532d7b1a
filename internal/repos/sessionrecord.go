package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/lessonloop/scenario-backend/internal/logger"
	"github.com/lessonloop/scenario-backend/internal/types"
)

type SessionRecordRepo interface {
	Create(ctx context.Context, tx *gorm.DB, record *types.SessionRecord) (*types.SessionRecord, error)
	GetBySubject(ctx context.Context, tx *gorm.DB, subject string) ([]*types.SessionRecord, error)
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.SessionRecord, error)
}

type sessionRecordRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewSessionRecordRepo(db *gorm.DB, baseLog *logger.Logger) SessionRecordRepo {
	return &sessionRecordRepo{db: db, log: baseLog.With("repo", "SessionRecordRepo")}
}

func (r *sessionRecordRepo) Create(ctx context.Context, tx *gorm.DB, record *types.SessionRecord) (*types.SessionRecord, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	if err := transaction.WithContext(ctx).Create(record).Error; err != nil {
		return nil, err
	}
	return record, nil
}

func (r *sessionRecordRepo) GetBySubject(ctx context.Context, tx *gorm.DB, subject string) ([]*types.SessionRecord, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.SessionRecord
	if err := transaction.WithContext(ctx).
		Where("subject = ?", subject).
		Order("created_at DESC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *sessionRecordRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.SessionRecord, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var record types.SessionRecord
	if err := transaction.WithContext(ctx).
		Where("id = ?", id).
		First(&record).Error; err != nil {
		return nil, err
	}
	return &record, nil
}
