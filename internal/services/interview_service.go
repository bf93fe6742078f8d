package services

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/sirupsen/logrus"

	"github.com/voxhire/backend/internal/interview"
	"github.com/voxhire/backend/internal/models"
	"github.com/voxhire/backend/internal/providers/llm"
	"github.com/voxhire/backend/internal/providers/stt"
	"github.com/voxhire/backend/internal/providers/tts"
	pgrepo "github.com/voxhire/backend/internal/repositories/postgres"
	"github.com/voxhire/backend/internal/session"
	"github.com/voxhire/backend/internal/storage"
	"github.com/voxhire/backend/internal/utils"
)

// generateTimeout caps every generation call so a stuck model backend
// cannot hold a turn open indefinitely.
const generateTimeout = 120 * time.Second

type StartParams struct {
	UserID           string
	InterviewType    string
	Field            string
	Difficulty       string
	QuestionCount    int
	TimeLimitMinutes int
	TechStack        []string
	DurationMinutes  int
}

type StartResult struct {
	SessionID        string
	InitialGreeting  string
	InitialAudioData string // base64
	Config           models.InterviewConfig
}

// TurnResult is the outcome of one blocking conversational turn.
type TurnResult struct {
	UserTranscript string
	AIResponse     string
	AudioData      string // base64
	History        []models.Turn
	QuestionNumber int
	TotalQuestions int
	Phase          models.Phase
	ShouldEnd      bool
	TimeRemaining  int // whole seconds, floored at 0
}

// TextEvent is one incremental fragment of a streamed response.
type TextEvent struct {
	Type string `json:"type"` // "text"
	Text string `json:"text"`
}

// FinalEvent terminates a streamed turn and carries the full payload.
type FinalEvent struct {
	Type           string       `json:"type"` // "final"
	AIResponse     string       `json:"aiResponse"`
	AudioData      string       `json:"audioData"`
	QuestionNumber int          `json:"questionNumber"`
	TotalQuestions int          `json:"totalQuestions"`
	Phase          models.Phase `json:"phase"`
	ShouldEnd      bool         `json:"shouldEnd"`
	TimeRemaining  int          `json:"timeRemaining"`
}

type InterviewService interface {
	Start(ctx context.Context, p StartParams) (*StartResult, error)

	// ProcessVoice runs one blocking turn: STT, gate, phase advance,
	// generation, synthesis, persistence. It degrades to scripted
	// fallbacks instead of failing; the only returned errors are context
	// cancellation and session-store failures.
	ProcessVoice(ctx context.Context, sessionID, interviewType, audioData string) (*TurnResult, error)

	// StreamVoice is the incremental variant: emit receives zero or more
	// TextEvent values followed by exactly one FinalEvent.
	StreamVoice(ctx context.Context, sessionID, interviewType, audioData string, emit func(event any) error) error

	// Caption transcribes audio without touching session state. The
	// transcript is empty for undersized or undecodable payloads.
	Caption(ctx context.Context, audioData string) (string, error)

	Evaluate(ctx context.Context, sessionID string) (*models.Evaluation, error)
	End(ctx context.Context, sessionID string) error

	// SaveRecording archives an uploaded candidate recording.
	SaveRecording(ctx context.Context, sessionID, fileName, mimeType string, size int64, r io.Reader) (storedPath string, err error)
}

type interviewService struct {
	sessions  session.Repository
	store     pgrepo.InterviewRepo
	stt       stt.Provider
	tts       tts.Provider
	llm       llm.Provider
	uploader  storage.Uploader
	log       *logrus.Logger
	fallbacks interview.FallbackSelector
}

func NewInterviewService(
	sessions session.Repository,
	store pgrepo.InterviewRepo,
	sttProvider stt.Provider,
	ttsProvider tts.Provider,
	llmProvider llm.Provider,
	uploader storage.Uploader,
	log *logrus.Logger,
) InterviewService {
	if log == nil {
		log = logrus.New()
	}
	return &interviewService{
		sessions: sessions,
		store:    store,
		stt:      sttProvider,
		tts:      ttsProvider,
		llm:      llmProvider,
		uploader: uploader,
		log:      log,
	}
}

func (s *interviewService) Start(ctx context.Context, p StartParams) (*StartResult, error) {
	const op = "InterviewService.Start"

	cfg := models.InterviewConfig{
		Field:            p.Field,
		Difficulty:       p.Difficulty,
		QuestionCount:    p.QuestionCount,
		TimeLimitMinutes: p.TimeLimitMinutes,
		InterviewType:    p.InterviewType,
		TechStack:        p.TechStack,
	}
	if cfg.Field == "" {
		cfg.Field = "general"
	}
	if cfg.Difficulty == "" {
		cfg.Difficulty = "intermediate"
	}
	if cfg.QuestionCount <= 0 {
		cfg.QuestionCount = 5
	}
	if cfg.TimeLimitMinutes <= 0 {
		cfg.TimeLimitMinutes = 10
	}
	if cfg.TechStack == nil {
		cfg.TechStack = []string{}
	}

	sessionID := s.createBackingRow(ctx, p, cfg)
	demo := len(sessionID) >= 5 && sessionID[:5] == "demo-"

	greeting := s.generate(ctx, interview.GreetingPrompt(cfg.Field, cfg.Difficulty))
	if greeting == "" {
		greeting = interview.FallbackGreeting(cfg.Field)
	}

	audio := s.synthesize(ctx, greeting)

	now := time.Now().UTC()
	sess := &models.InterviewSession{
		SessionID:      sessionID,
		UserID:         p.UserID,
		Config:         cfg,
		History:        []models.Turn{{Speaker: models.SpeakerAI, Text: greeting}},
		Phase:          models.PhaseGreeting,
		QuestionNumber: 0,
		StartTime:      now,
		LastActive:     now,
	}
	if err := s.sessions.Put(ctx, sess); err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to store session", err)
	}

	if !demo {
		s.persistTurn(ctx, sessionID, models.SpeakerAI, greeting, 1.0)
	}

	return &StartResult{
		SessionID:        sessionID,
		InitialGreeting:  greeting,
		InitialAudioData: audio,
		Config:           cfg,
	}, nil
}

// createBackingRow inserts the durable session row when a user and a
// store are present; otherwise, or on insert failure, it falls back to a
// transient demo id.
func (s *interviewService) createBackingRow(ctx context.Context, p StartParams, cfg models.InterviewConfig) string {
	demoID := fmt.Sprintf("demo-%d", time.Now().UnixMilli())

	if p.UserID == "" || s.store == nil || !s.store.Configured() {
		return demoID
	}

	duration := p.DurationMinutes
	if duration <= 0 {
		duration = 30
	}
	id, err := s.store.CreateSession(ctx, &models.InterviewSessionRow{
		UserID:    p.UserID,
		Type:      cfg.InterviewType,
		TechStack: pq.StringArray(cfg.TechStack),
		Duration:  duration,
		Status:    "active",
	})
	if err != nil || id == "" {
		if err != nil {
			s.log.WithError(err).Warn("session row insert failed, starting demo session")
		}
		return demoID
	}
	return id
}

func (s *interviewService) ProcessVoice(ctx context.Context, sessionID, interviewType, audioData string) (*TurnResult, error) {
	const op = "InterviewService.ProcessVoice"

	unlock := s.sessions.Lock(sessionID)
	defer unlock()

	sess, err := s.sessions.GetOrDefault(ctx, sessionID)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to load session", err)
	}

	now := time.Now().UTC()
	timeLimit := float64(sess.Config.TimeLimitMinutes * 60)
	remaining := timeLimit - sess.ElapsedSeconds(now)

	// Byte-level gate: undecodable or undersized audio is a soft miss
	// that must not touch the state machine.
	audio, decodeErr := interview.DecodeAudio(audioData)
	if decodeErr != nil {
		return s.softMiss(sess, interview.BadAudioPrompt, remaining), nil
	}
	if len(audio) < interview.MinVoiceBytes {
		return s.softMiss(sess, interview.DidNotCatchPrompt, remaining), nil
	}

	res, sttErr := s.stt.Transcribe(ctx, audio)
	if sttErr != nil {
		s.log.WithError(sttErr).WithField("session_id", sessionID).Error("stt failed")
		res = stt.Result{}
	}
	transcript := res.Transcript

	// Semantic gate: record the attempt but ask to repeat without
	// advancing phase or question number.
	if interview.Unintelligible(transcript) {
		sess.History = append(sess.History, models.Turn{Speaker: models.SpeakerUser, Text: transcript})
		if err := s.commit(ctx, sess); err != nil {
			return nil, utils.E(utils.CodeInternal, op, "failed to store session", err)
		}
		out := s.softMiss(sess, interview.RepeatPrompt, remaining)
		out.UserTranscript = transcript
		out.AudioData = s.synthesize(ctx, interview.RepeatPrompt)
		return out, nil
	}

	sess.History = append(sess.History, models.Turn{Speaker: models.SpeakerUser, Text: transcript})

	tr := interview.Advance(sess.Phase, sess.QuestionNumber, sess.Config.QuestionCount, sess.ElapsedSeconds(now), timeLimit)
	sess.Phase = tr.Phase
	sess.QuestionNumber = tr.QuestionNumber

	gc := interview.GenerationContext{
		SessionID:      sessionID,
		InterviewType:  interviewType,
		Field:          sess.Config.Field,
		Difficulty:     sess.Config.Difficulty,
		QuestionNumber: tr.QuestionNumber,
		TotalQuestions: sess.Config.QuestionCount,
		Phase:          tr.Phase,
		TimeRemaining:  tr.TimeRemaining,
		History:        sess.History,
	}

	aiText := s.generate(ctx, interview.ResponsePrompt(transcript, gc))
	if aiText == "" {
		aiText = s.fallbacks.Next()
	}

	sess.History = append(sess.History, models.Turn{Speaker: models.SpeakerAI, Text: aiText})

	if err := s.commit(ctx, sess); err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to store session", err)
	}

	audioOut := s.synthesize(ctx, aiText)

	if !sess.IsDemo() {
		s.persistTurn(ctx, sessionID, models.SpeakerUser, transcript, res.Confidence)
		s.persistTurn(ctx, sessionID, models.SpeakerAI, aiText, 1.0)
	}

	return &TurnResult{
		UserTranscript: transcript,
		AIResponse:     aiText,
		AudioData:      audioOut,
		History:        sess.History,
		QuestionNumber: tr.QuestionNumber,
		TotalQuestions: sess.Config.QuestionCount,
		Phase:          tr.Phase,
		ShouldEnd:      tr.ShouldEnd,
		TimeRemaining:  interview.RemainingSeconds(tr.TimeRemaining),
	}, nil
}

func (s *interviewService) StreamVoice(ctx context.Context, sessionID, interviewType, audioData string, emit func(event any) error) error {
	const op = "InterviewService.StreamVoice"

	unlock := s.sessions.Lock(sessionID)
	defer unlock()

	sess, err := s.sessions.GetOrDefault(ctx, sessionID)
	if err != nil {
		return utils.E(utils.CodeInternal, op, "failed to load session", err)
	}

	now := time.Now().UTC()
	timeLimit := float64(sess.Config.TimeLimitMinutes * 60)

	transcript := ""
	confidence := 0.0
	if audio, ok := interview.GateAudio(audioData, interview.MinVoiceBytes); ok {
		res, sttErr := s.stt.Transcribe(ctx, audio)
		if sttErr != nil {
			s.log.WithError(sttErr).WithField("session_id", sessionID).Error("stt failed")
		} else {
			transcript = res.Transcript
			confidence = res.Confidence
		}
	}

	// Gate miss: record the attempt and emit only the terminal repeat
	// event, leaving phase and question number alone.
	if interview.Unintelligible(transcript) {
		sess.History = append(sess.History, models.Turn{Speaker: models.SpeakerUser, Text: transcript})
		if err := s.commit(ctx, sess); err != nil {
			return utils.E(utils.CodeInternal, op, "failed to store session", err)
		}
		return emit(FinalEvent{
			Type:           "final",
			AIResponse:     interview.RepeatPrompt,
			AudioData:      s.synthesize(ctx, interview.RepeatPrompt),
			QuestionNumber: sess.QuestionNumber,
			TotalQuestions: sess.Config.QuestionCount,
			Phase:          sess.Phase,
			ShouldEnd:      false,
			TimeRemaining:  interview.RemainingSeconds(timeLimit - sess.ElapsedSeconds(now)),
		})
	}

	sess.History = append(sess.History, models.Turn{Speaker: models.SpeakerUser, Text: transcript})

	tr := interview.Advance(sess.Phase, sess.QuestionNumber, sess.Config.QuestionCount, sess.ElapsedSeconds(now), timeLimit)
	sess.Phase = tr.Phase
	sess.QuestionNumber = tr.QuestionNumber

	gc := interview.GenerationContext{
		SessionID:      sessionID,
		InterviewType:  interviewType,
		Field:          sess.Config.Field,
		Difficulty:     sess.Config.Difficulty,
		QuestionNumber: tr.QuestionNumber,
		TotalQuestions: sess.Config.QuestionCount,
		Phase:          tr.Phase,
		TimeRemaining:  tr.TimeRemaining,
		History:        sess.History,
	}

	genCtx, cancel := context.WithTimeout(ctx, generateTimeout)
	defer cancel()

	chunks, errs := s.llm.Stream(genCtx, interview.ResponsePrompt(transcript, gc))

	aiText := ""
	for chunk := range chunks {
		aiText += chunk
		if err := emit(TextEvent{Type: "text", Text: chunk}); err != nil {
			// client is gone; abandon the turn without committing
			return err
		}
	}

	var streamErr error
	select {
	case streamErr = <-errs:
	default:
	}
	if streamErr != nil {
		s.log.WithError(streamErr).WithField("session_id", sessionID).Error("llm stream failed")
	}
	// A stream that died mid-answer keeps the text the client already
	// rendered, so history and the final event match the fragments. Only
	// a stream that produced nothing falls back to a scripted line.
	if aiText == "" {
		aiText = s.fallbacks.Next()
		if err := emit(TextEvent{Type: "text", Text: aiText}); err != nil {
			return err
		}
	}
	aiText = interview.CleanResponse(aiText)

	sess.History = append(sess.History, models.Turn{Speaker: models.SpeakerAI, Text: aiText})

	if err := s.commit(ctx, sess); err != nil {
		return utils.E(utils.CodeInternal, op, "failed to store session", err)
	}

	audioOut := s.synthesize(ctx, aiText)

	if !sess.IsDemo() {
		s.persistTurn(ctx, sessionID, models.SpeakerUser, transcript, confidence)
		s.persistTurn(ctx, sessionID, models.SpeakerAI, aiText, 1.0)
	}

	return emit(FinalEvent{
		Type:           "final",
		AIResponse:     aiText,
		AudioData:      audioOut,
		QuestionNumber: tr.QuestionNumber,
		TotalQuestions: sess.Config.QuestionCount,
		Phase:          tr.Phase,
		ShouldEnd:      tr.ShouldEnd,
		TimeRemaining:  interview.RemainingSeconds(tr.TimeRemaining),
	})
}

func (s *interviewService) Caption(ctx context.Context, audioData string) (string, error) {
	audio, ok := interview.GateAudio(audioData, interview.MinCaptionBytes)
	if !ok {
		return "", nil
	}
	res, err := s.stt.Transcribe(ctx, audio)
	if err != nil {
		s.log.WithError(err).Debug("caption stt failed")
		return "", nil
	}
	return res.Transcript, nil
}

func (s *interviewService) Evaluate(ctx context.Context, sessionID string) (*models.Evaluation, error) {
	sess, err := s.sessions.GetOrDefault(ctx, sessionID)
	if err != nil {
		return interview.DefaultEvaluation(), nil
	}

	// Nothing to grade: the session ended or never spoke. The default
	// scorecard keeps the endpoint infallible.
	if len(sess.History) == 0 {
		return interview.DefaultEvaluation(), nil
	}

	raw := s.generate(ctx, interview.EvaluationPrompt(sess.History, sess.Config))
	if raw == "" {
		return interview.DefaultEvaluation(), nil
	}

	ev, err := interview.ParseEvaluation(raw)
	if err != nil {
		s.log.WithError(err).WithField("session_id", sessionID).Warn("evaluation parse failed, using default scorecard")
		return interview.DefaultEvaluation(), nil
	}
	return ev, nil
}

func (s *interviewService) End(ctx context.Context, sessionID string) error {
	const op = "InterviewService.End"

	unlock := s.sessions.Lock(sessionID)
	defer unlock()

	if err := s.sessions.Delete(ctx, sessionID); err != nil {
		return utils.E(utils.CodeInternal, op, "failed to delete session", err)
	}

	demo := len(sessionID) >= 5 && sessionID[:5] == "demo-"
	if !demo && s.store != nil && s.store.Configured() {
		if err := s.store.CompleteSession(ctx, sessionID, time.Now().UTC()); err != nil {
			s.log.WithError(err).WithField("session_id", sessionID).Error("failed to complete session row")
		}
	}
	return nil
}

func (s *interviewService) SaveRecording(ctx context.Context, sessionID, fileName, mimeType string, size int64, r io.Reader) (string, error) {
	const op = "InterviewService.SaveRecording"

	if s.uploader == nil {
		return "", utils.E(utils.CodeUnavailable, op, "recording storage is not configured", nil)
	}

	objectName := fmt.Sprintf("%s_%s.webm", sessionID, uuid.NewString())
	storedPath, err := s.uploader.Upload(ctx, objectName, mimeType, r)
	if err != nil {
		return "", utils.E(utils.CodeUnavailable, op, "failed to upload recording", err)
	}

	if s.store != nil && s.store.Configured() {
		if err := s.store.SaveRecording(ctx, &models.InterviewRecordingRow{
			SessionID: sessionID,
			FileName:  fileName,
			FilePath:  storedPath,
			MimeType:  mimeType,
			SizeBytes: size,
		}); err != nil {
			s.log.WithError(err).WithField("session_id", sessionID).Error("failed to save recording row")
		}
	}
	return storedPath, nil
}

// softMiss is the no-mutation reply for a failed byte-level gate.
func (s *interviewService) softMiss(sess *models.InterviewSession, prompt string, remaining float64) *TurnResult {
	return &TurnResult{
		UserTranscript: "",
		AIResponse:     prompt,
		AudioData:      "",
		History:        sess.History,
		QuestionNumber: sess.QuestionNumber,
		TotalQuestions: sess.Config.QuestionCount,
		Phase:          sess.Phase,
		ShouldEnd:      false,
		TimeRemaining:  interview.RemainingSeconds(remaining),
	}
}

// commit replaces the stored session, but never with the partial result
// of a cancelled request.
func (s *interviewService) commit(ctx context.Context, sess *models.InterviewSession) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.sessions.Put(ctx, sess)
}

// generate runs one blocking generation call under the standard timeout,
// returning "" on failure so callers can fall back.
func (s *interviewService) generate(ctx context.Context, prompt string) string {
	genCtx, cancel := context.WithTimeout(ctx, generateTimeout)
	defer cancel()

	text, err := s.llm.Generate(genCtx, prompt)
	if err != nil {
		s.log.WithError(err).Error("generation failed")
		return ""
	}
	return interview.CleanResponse(text)
}

// synthesize returns base64 audio for the text, or "" when synthesis
// fails: the conversation continues without audio.
func (s *interviewService) synthesize(ctx context.Context, text string) string {
	syn, err := s.tts.Synthesize(ctx, text)
	if err != nil {
		s.log.WithError(err).Error("synthesis failed")
		return ""
	}
	if len(syn.Audio) == 0 {
		return ""
	}
	return base64.StdEncoding.EncodeToString(syn.Audio)
}

func (s *interviewService) persistTurn(ctx context.Context, sessionID string, speaker models.Speaker, text string, confidence float64) {
	if s.store == nil || !s.store.Configured() {
		return
	}
	if err := s.store.AppendTurn(ctx, &models.ConversationTurnRow{
		SessionID:   sessionID,
		SpeakerType: string(speaker),
		Text:        text,
		Confidence:  confidence,
	}); err != nil {
		s.log.WithError(err).WithField("session_id", sessionID).Error("failed to persist turn")
	}
}
