package models

import "time"

// Phase is the state of the interview conversation machine.
// Transitions only move forward: greeting -> questions -> ending.
type Phase string

const (
	PhaseGreeting  Phase = "greeting"
	PhaseQuestions Phase = "questions"
	PhaseEnding    Phase = "ending"
)

type Speaker string

const (
	SpeakerUser Speaker = "user"
	SpeakerAI   Speaker = "ai"
)

// Turn is one utterance in the conversation. Text may be empty for a
// user turn the recognizer could not make sense of.
type Turn struct {
	Speaker Speaker `json:"speaker"`
	Text    string  `json:"text"`
}

// InterviewConfig is immutable for the session's lifetime.
type InterviewConfig struct {
	Field            string   `json:"field"`
	Difficulty       string   `json:"difficulty"` // beginner|intermediate|advanced
	QuestionCount    int      `json:"questionCount"`
	TimeLimitMinutes int      `json:"timeLimit"`
	InterviewType    string   `json:"interviewType"`
	TechStack        []string `json:"techStack"`
}

// InterviewSession is the per-session conversational state. The session
// repository is its sole owner; handlers and services work on snapshots.
type InterviewSession struct {
	SessionID string          `json:"session_id"`
	UserID    string          `json:"user_id,omitempty"`
	Config    InterviewConfig `json:"config"`

	History        []Turn `json:"conversation_history"`
	Phase          Phase  `json:"phase"`
	QuestionNumber int    `json:"question_number"`

	StartTime  time.Time `json:"start_time"`
	LastActive time.Time `json:"last_active"`
}

// Clone returns a deep copy so an in-flight turn can be assembled and
// committed atomically without exposing partial state.
func (s *InterviewSession) Clone() *InterviewSession {
	cp := *s
	cp.History = make([]Turn, len(s.History))
	copy(cp.History, s.History)
	cp.Config.TechStack = append([]string(nil), s.Config.TechStack...)
	return &cp
}

// IsDemo reports whether the session was started without a durable
// backing row. Demo sessions are never persisted.
func (s *InterviewSession) IsDemo() bool {
	return len(s.SessionID) >= 5 && s.SessionID[:5] == "demo-"
}

// ElapsedSeconds returns whole seconds since session creation.
func (s *InterviewSession) ElapsedSeconds(now time.Time) float64 {
	return now.Sub(s.StartTime).Seconds()
}
