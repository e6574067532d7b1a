package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// SessionRecord persists a completed playback session's summary.
type SessionRecord struct {
	ID                uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Subject           string    `gorm:"column:subject;not null;index" json:"subject"`
	Topic             string    `gorm:"column:topic;not null;index" json:"topic"`
	DurationSeconds   int       `gorm:"column:duration_seconds;not null" json:"duration_seconds"`
	QuestionsAnswered int       `gorm:"column:questions_answered;not null" json:"questions_answered"`
	CorrectAnswers    int       `gorm:"column:correct_answers;not null" json:"correct_answers"`
	CreatedAt         time.Time `gorm:"not null" json:"created_at"`
}

// ReviewItem is a missed quiz question queued for spaced review.
type ReviewItem struct {
	ID            uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	SessionID     uuid.UUID      `gorm:"type:uuid;not null;index" json:"session_id"`
	Subject       string         `gorm:"column:subject;not null;index" json:"subject"`
	QuestionID    string         `gorm:"column:question_id;not null" json:"question_id"`
	Prompt        string         `gorm:"column:prompt;not null" json:"prompt"`
	ChosenOption  string         `gorm:"column:chosen_option" json:"chosen_option"`
	CorrectOption string         `gorm:"column:correct_option" json:"correct_option"`
	Options       datatypes.JSON `gorm:"column:options" json:"options"`
	CreatedAt     time.Time      `gorm:"not null" json:"created_at"`
}
