package models

import (
	"time"

	"github.com/lib/pq"
	"gorm.io/datatypes"
)

// InterviewSessionRow is the durable record behind a non-demo session.
type InterviewSessionRow struct {
	ID        string         `gorm:"column:id;type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	UserID    string         `gorm:"column:user_id;type:uuid;index" json:"user_id"`
	Type      string         `gorm:"column:type;type:text" json:"type"`
	TechStack pq.StringArray `gorm:"column:tech_stack;type:text[]" json:"tech_stack"`
	Duration  int            `gorm:"column:duration" json:"duration"`
	Status    string         `gorm:"column:status;type:text" json:"status"` // active|completed
	StartTime time.Time      `gorm:"column:start_time;type:timestamptz" json:"start_time"`
	EndTime   *time.Time     `gorm:"column:end_time;type:timestamptz" json:"end_time,omitempty"`
}

func (InterviewSessionRow) TableName() string { return "interview_sessions" }

// ConversationTurnRow mirrors one Turn into the durable sink.
type ConversationTurnRow struct {
	ID          string         `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	SessionID   string         `gorm:"column:session_id;type:uuid;index" json:"session_id"`
	SpeakerType string         `gorm:"column:speaker_type;type:text" json:"speaker_type"` // user|ai
	Text        string         `gorm:"column:text;type:text" json:"text"`
	Confidence  float64        `gorm:"column:confidence" json:"confidence"`
	Timestamp   time.Time      `gorm:"column:timestamp;type:timestamptz;index" json:"timestamp"`
	Metadata    datatypes.JSON `gorm:"column:metadata;type:jsonb" json:"metadata"`
}

func (ConversationTurnRow) TableName() string { return "conversation_turns" }

// InterviewRecordingRow points at an uploaded candidate recording.
type InterviewRecordingRow struct {
	ID         string    `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	SessionID  string    `gorm:"column:session_id;type:uuid;index" json:"session_id"`
	FileName   string    `gorm:"column:file_name;type:text" json:"file_name"`
	FilePath   string    `gorm:"column:file_path;type:text" json:"file_path"`
	MimeType   string    `gorm:"column:mime_type;type:text" json:"mime_type"`
	SizeBytes  int64     `gorm:"column:size_bytes" json:"size_bytes"`
	UploadedAt time.Time `gorm:"column:uploaded_at;type:timestamptz" json:"uploaded_at"`
}

func (InterviewRecordingRow) TableName() string { return "interview_recordings" }
