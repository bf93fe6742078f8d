package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/voxhire/backend/internal/models"
)

// InterviewRepo is the durable sink behind non-demo sessions. When no
// database is configured every method is a no-op, so the service can run
// entirely in demo mode.
type InterviewRepo interface {
	Configured() bool

	// CreateSession inserts a session row and returns its id, or "" when
	// the store is unconfigured or the insert failed.
	CreateSession(ctx context.Context, row *models.InterviewSessionRow) (string, error)

	AppendTurn(ctx context.Context, row *models.ConversationTurnRow) error
	CompleteSession(ctx context.Context, sessionID string, endTime time.Time) error
	SaveRecording(ctx context.Context, row *models.InterviewRecordingRow) error
}

type interviewRepo struct {
	db *gorm.DB
}

// NewInterviewRepo accepts a nil db for unconfigured deployments.
func NewInterviewRepo(db *gorm.DB) InterviewRepo {
	return &interviewRepo{db: db}
}

func (r *interviewRepo) Configured() bool { return r.db != nil }

func (r *interviewRepo) CreateSession(ctx context.Context, row *models.InterviewSessionRow) (string, error) {
	if r.db == nil {
		return "", nil
	}
	if row.ID == "" {
		row.ID = uuid.NewString()
	}
	if row.StartTime.IsZero() {
		row.StartTime = time.Now().UTC()
	}
	if err := r.db.WithContext(ctx).Create(row).Error; err != nil {
		return "", err
	}
	return row.ID, nil
}

func (r *interviewRepo) AppendTurn(ctx context.Context, row *models.ConversationTurnRow) error {
	if r.db == nil {
		return nil
	}
	if row.ID == "" {
		row.ID = uuid.NewString()
	}
	if row.Timestamp.IsZero() {
		row.Timestamp = time.Now().UTC()
	}
	return r.db.WithContext(ctx).Create(row).Error
}

func (r *interviewRepo) CompleteSession(ctx context.Context, sessionID string, endTime time.Time) error {
	if r.db == nil {
		return nil
	}
	return r.db.WithContext(ctx).
		Model(&models.InterviewSessionRow{}).
		Where("id = ?", sessionID).
		Updates(map[string]any{
			"status":   "completed",
			"end_time": endTime.UTC(),
		}).Error
}

func (r *interviewRepo) SaveRecording(ctx context.Context, row *models.InterviewRecordingRow) error {
	if r.db == nil {
		return nil
	}
	if row.ID == "" {
		row.ID = uuid.NewString()
	}
	if row.UploadedAt.IsZero() {
		row.UploadedAt = time.Now().UTC()
	}
	return r.db.WithContext(ctx).Create(row).Error
}
