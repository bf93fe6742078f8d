package services

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voxhire/backend/internal/interview"
	"github.com/voxhire/backend/internal/models"
	"github.com/voxhire/backend/internal/providers/stt"
	"github.com/voxhire/backend/internal/providers/tts"
	pgrepo "github.com/voxhire/backend/internal/repositories/postgres"
	"github.com/voxhire/backend/internal/session"
)

type fakeSTT struct {
	result stt.Result
	err    error
	calls  int
}

func (f *fakeSTT) Transcribe(_ context.Context, _ []byte) (stt.Result, error) {
	f.calls++
	return f.result, f.err
}
func (f *fakeSTT) Close() error { return nil }

type fakeTTS struct {
	err error
}

func (f *fakeTTS) Synthesize(_ context.Context, text string) (tts.Synthesis, error) {
	if f.err != nil {
		return tts.Synthesis{}, f.err
	}
	return tts.Synthesis{Audio: []byte("spoken:" + text), Encoding: "MP3", SampleRate: 24000}, nil
}
func (f *fakeTTS) Close() error { return nil }

type fakeLLM struct {
	text      string
	err       error
	chunks    []string
	streamErr error
}

func (f *fakeLLM) Generate(_ context.Context, _ string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.text, nil
}

func (f *fakeLLM) Stream(_ context.Context, _ string) (<-chan string, <-chan error) {
	out := make(chan string, len(f.chunks)+1)
	errs := make(chan error, 1)
	for _, c := range f.chunks {
		out <- c
	}
	if f.streamErr != nil {
		errs <- f.streamErr
	}
	close(out)
	close(errs)
	return out, errs
}
func (f *fakeLLM) Close() error { return nil }

func testLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func audioPayload(n int) string {
	return base64.StdEncoding.EncodeToString(bytes.Repeat([]byte{0x7F}, n))
}

type fixture struct {
	svc      InterviewService
	sessions *session.MemoryRepository
	sttp     *fakeSTT
	llmp     *fakeLLM
}

func newFixture(sttp *fakeSTT, llmp *fakeLLM) *fixture {
	sessions := session.NewMemoryRepository(0)
	svc := NewInterviewService(sessions, pgrepo.NewInterviewRepo(nil), sttp, &fakeTTS{}, llmp, nil, testLogger())
	return &fixture{svc: svc, sessions: sessions, sttp: sttp, llmp: llmp}
}

func startSession(t *testing.T, f *fixture, questions, timeLimit int) string {
	t.Helper()
	out, err := f.svc.Start(context.Background(), StartParams{
		InterviewType:    "technical",
		Field:            "go",
		Difficulty:       "intermediate",
		QuestionCount:    questions,
		TimeLimitMinutes: timeLimit,
	})
	require.NoError(t, err)
	return out.SessionID
}

func TestStartCreatesDemoSession(t *testing.T) {
	f := newFixture(&fakeSTT{}, &fakeLLM{text: "Welcome to your interview! Tell me about yourself."})

	out, err := f.svc.Start(context.Background(), StartParams{InterviewType: "technical", Field: "go"})
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(out.SessionID, "demo-"), "no store configured means demo id")
	assert.Equal(t, "Welcome to your interview! Tell me about yourself.", out.InitialGreeting)
	assert.NotEmpty(t, out.InitialAudioData)
	assert.Equal(t, 5, out.Config.QuestionCount)
	assert.Equal(t, 10, out.Config.TimeLimitMinutes)

	sess, found, err := f.sessions.Get(context.Background(), out.SessionID)
	require.NoError(t, err)
	require.True(t, found)
	require.Len(t, sess.History, 1)
	assert.Equal(t, models.SpeakerAI, sess.History[0].Speaker)
	assert.Equal(t, models.PhaseGreeting, sess.Phase)
	assert.Equal(t, 0, sess.QuestionNumber)
}

func TestStartFallsBackWhenGenerationFails(t *testing.T) {
	f := newFixture(&fakeSTT{}, &fakeLLM{err: errors.New("backend down")})

	out, err := f.svc.Start(context.Background(), StartParams{InterviewType: "technical", Field: "databases"})
	require.NoError(t, err)
	assert.Equal(t, interview.FallbackGreeting("databases"), out.InitialGreeting)
}

func TestVoiceShortAudioDoesNotMutateState(t *testing.T) {
	f := newFixture(
		&fakeSTT{result: stt.Result{Transcript: "should never be reached"}},
		&fakeLLM{text: "Nice. Next question?"},
	)
	id := startSession(t, f, 5, 10)

	out, err := f.svc.ProcessVoice(context.Background(), id, "technical", audioPayload(100))
	require.NoError(t, err)

	assert.Equal(t, "", out.UserTranscript)
	assert.Equal(t, interview.DidNotCatchPrompt, out.AIResponse)
	assert.Equal(t, "", out.AudioData)
	assert.Equal(t, models.PhaseGreeting, out.Phase)
	assert.Equal(t, 0, out.QuestionNumber)
	assert.False(t, out.ShouldEnd)
	assert.Equal(t, 0, f.sttp.calls, "undersized audio never reaches the recognizer")

	sess, _, _ := f.sessions.Get(context.Background(), id)
	assert.Len(t, sess.History, 1, "history untouched")
}

func TestVoiceUndecodableAudioIsSoftMiss(t *testing.T) {
	f := newFixture(&fakeSTT{}, &fakeLLM{text: "ok"})
	id := startSession(t, f, 5, 10)

	out, err := f.svc.ProcessVoice(context.Background(), id, "technical", "%%%not base64%%%")
	require.NoError(t, err)

	assert.Equal(t, interview.BadAudioPrompt, out.AIResponse)
	assert.Equal(t, models.PhaseGreeting, out.Phase)
	assert.Equal(t, 0, out.QuestionNumber)
	assert.False(t, out.ShouldEnd)
}

func TestVoiceShortTranscriptAsksToRepeat(t *testing.T) {
	f := newFixture(
		&fakeSTT{result: stt.Result{Transcript: "hm", Confidence: 0.4}},
		&fakeLLM{text: "should not be called"},
	)
	id := startSession(t, f, 5, 10)

	out, err := f.svc.ProcessVoice(context.Background(), id, "technical", audioPayload(5000))
	require.NoError(t, err)

	assert.Equal(t, "hm", out.UserTranscript)
	assert.Equal(t, interview.RepeatPrompt, out.AIResponse)
	assert.NotEmpty(t, out.AudioData, "repeat prompt is still spoken")
	assert.Equal(t, models.PhaseGreeting, out.Phase)
	assert.Equal(t, 0, out.QuestionNumber)
	assert.False(t, out.ShouldEnd)

	// the attempt is recorded even though nothing advanced
	sess, _, _ := f.sessions.Get(context.Background(), id)
	require.Len(t, sess.History, 2)
	assert.Equal(t, models.SpeakerUser, sess.History[1].Speaker)
	assert.Equal(t, "hm", sess.History[1].Text)
	assert.Equal(t, models.PhaseGreeting, sess.Phase)
}

func TestVoiceQuestionBudgetScenario(t *testing.T) {
	f := newFixture(
		&fakeSTT{result: stt.Result{Transcript: "Here is my considered answer.", Confidence: 0.9}},
		&fakeLLM{text: "Good answer. Next question?"},
	)
	id := startSession(t, f, 2, 10)

	out, err := f.svc.ProcessVoice(context.Background(), id, "technical", audioPayload(5000))
	require.NoError(t, err)
	assert.Equal(t, models.PhaseQuestions, out.Phase)
	assert.Equal(t, 1, out.QuestionNumber)
	assert.False(t, out.ShouldEnd)

	out, err = f.svc.ProcessVoice(context.Background(), id, "technical", audioPayload(5000))
	require.NoError(t, err)
	assert.Equal(t, 2, out.QuestionNumber)
	assert.False(t, out.ShouldEnd)

	out, err = f.svc.ProcessVoice(context.Background(), id, "technical", audioPayload(5000))
	require.NoError(t, err)
	assert.Equal(t, 3, out.QuestionNumber)
	assert.Equal(t, models.PhaseEnding, out.Phase)
	assert.True(t, out.ShouldEnd)

	// ending is terminal
	out, err = f.svc.ProcessVoice(context.Background(), id, "technical", audioPayload(5000))
	require.NoError(t, err)
	assert.Equal(t, models.PhaseEnding, out.Phase)
	assert.Equal(t, 3, out.QuestionNumber)
	assert.True(t, out.ShouldEnd)
}

func TestVoiceTimeExhaustionEnds(t *testing.T) {
	f := newFixture(
		&fakeSTT{result: stt.Result{Transcript: "A perfectly fine answer.", Confidence: 0.9}},
		&fakeLLM{text: "Thanks for your time, goodbye!"},
	)
	id := startSession(t, f, 5, 1)

	// backdate the session past its one-minute limit
	sess, _, _ := f.sessions.Get(context.Background(), id)
	sess.StartTime = time.Now().UTC().Add(-61 * time.Second)
	require.NoError(t, f.sessions.Put(context.Background(), sess))

	out, err := f.svc.ProcessVoice(context.Background(), id, "technical", audioPayload(5000))
	require.NoError(t, err)

	assert.Equal(t, models.PhaseEnding, out.Phase)
	assert.True(t, out.ShouldEnd)
	assert.Equal(t, 0, out.TimeRemaining)
}

func TestVoiceGenerationFailureUsesRoundRobinFallback(t *testing.T) {
	f := newFixture(
		&fakeSTT{result: stt.Result{Transcript: "An answer worth hearing.", Confidence: 0.9}},
		&fakeLLM{err: errors.New("unreachable")},
	)
	id := startSession(t, f, 5, 10)

	first, err := f.svc.ProcessVoice(context.Background(), id, "technical", audioPayload(5000))
	require.NoError(t, err)
	second, err := f.svc.ProcessVoice(context.Background(), id, "technical", audioPayload(5000))
	require.NoError(t, err)

	assert.NotEmpty(t, first.AIResponse)
	assert.NotEmpty(t, second.AIResponse)
	assert.NotEqual(t, first.AIResponse, second.AIResponse, "fallbacks rotate deterministically")
	assert.Equal(t, 1, first.QuestionNumber)
	assert.Equal(t, 2, second.QuestionNumber, "a fallback reply still advances the interview")
}

func TestVoiceUnknownSessionSynthesizesDefaults(t *testing.T) {
	f := newFixture(
		&fakeSTT{result: stt.Result{Transcript: "Answering into the void.", Confidence: 0.9}},
		&fakeLLM{text: "Let's begin. First question?"},
	)

	out, err := f.svc.ProcessVoice(context.Background(), "ghost-session", "technical", audioPayload(5000))
	require.NoError(t, err)

	assert.Equal(t, 5, out.TotalQuestions)
	assert.Equal(t, models.PhaseQuestions, out.Phase)
	assert.Equal(t, 1, out.QuestionNumber)

	// the synthesized session is committed under the unknown id
	sess, found, _ := f.sessions.Get(context.Background(), "ghost-session")
	require.True(t, found)
	assert.Len(t, sess.History, 2)
}

func TestVoiceCancelledContextDoesNotCommit(t *testing.T) {
	f := newFixture(
		&fakeSTT{result: stt.Result{Transcript: "This answer arrives too late.", Confidence: 0.9}},
		&fakeLLM{text: "Response."},
	)
	id := startSession(t, f, 5, 10)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.svc.ProcessVoice(ctx, id, "technical", audioPayload(5000))
	require.Error(t, err)

	sess, _, _ := f.sessions.Get(context.Background(), id)
	assert.Len(t, sess.History, 1, "cancelled turn must not commit partial state")
	assert.Equal(t, models.PhaseGreeting, sess.Phase)
}

func TestStreamVoiceEmitsTextsThenFinal(t *testing.T) {
	f := newFixture(
		&fakeSTT{result: stt.Result{Transcript: "Streaming my answer now.", Confidence: 0.9}},
		&fakeLLM{chunks: []string{"Good ", "answer. ", "Next question?"}},
	)
	id := startSession(t, f, 5, 10)

	var events []any
	err := f.svc.StreamVoice(context.Background(), id, "technical", audioPayload(5000), func(e any) error {
		events = append(events, e)
		return nil
	})
	require.NoError(t, err)

	require.Len(t, events, 4)
	for _, e := range events[:3] {
		_, ok := e.(TextEvent)
		assert.True(t, ok, "all but the last event are text fragments")
	}

	final, ok := events[3].(FinalEvent)
	require.True(t, ok)
	assert.Equal(t, "Good answer. Next question?", final.AIResponse)
	assert.NotEmpty(t, final.AudioData)
	assert.Equal(t, models.PhaseQuestions, final.Phase)
	assert.Equal(t, 1, final.QuestionNumber)
	assert.False(t, final.ShouldEnd)

	sess, _, _ := f.sessions.Get(context.Background(), id)
	require.Len(t, sess.History, 3)
	assert.Equal(t, "Good answer. Next question?", sess.History[2].Text)
}

func TestStreamVoiceGateMissEmitsSingleFinal(t *testing.T) {
	f := newFixture(
		&fakeSTT{result: stt.Result{Transcript: "eh", Confidence: 0.2}},
		&fakeLLM{chunks: []string{"should not stream"}},
	)
	id := startSession(t, f, 5, 10)

	var events []any
	err := f.svc.StreamVoice(context.Background(), id, "technical", audioPayload(5000), func(e any) error {
		events = append(events, e)
		return nil
	})
	require.NoError(t, err)

	require.Len(t, events, 1, "no incremental events on a failed gate")
	final, ok := events[0].(FinalEvent)
	require.True(t, ok)
	assert.Equal(t, interview.RepeatPrompt, final.AIResponse)
	assert.False(t, final.ShouldEnd)
	assert.Equal(t, models.PhaseGreeting, final.Phase)

	// the attempt is still recorded, same as the blocking variant
	sess, _, _ := f.sessions.Get(context.Background(), id)
	require.Len(t, sess.History, 2)
	assert.Equal(t, "eh", sess.History[1].Text)
	assert.Equal(t, 0, sess.QuestionNumber)
}

func TestStreamVoiceStreamErrorFallsBack(t *testing.T) {
	f := newFixture(
		&fakeSTT{result: stt.Result{Transcript: "A long and thoughtful answer.", Confidence: 0.9}},
		&fakeLLM{streamErr: errors.New("stream died")},
	)
	id := startSession(t, f, 5, 10)

	var events []any
	err := f.svc.StreamVoice(context.Background(), id, "technical", audioPayload(5000), func(e any) error {
		events = append(events, e)
		return nil
	})
	require.NoError(t, err)

	require.Len(t, events, 2, "one fallback text event plus the final")
	text, ok := events[0].(TextEvent)
	require.True(t, ok)
	final, ok := events[1].(FinalEvent)
	require.True(t, ok)
	assert.Equal(t, text.Text, final.AIResponse)
	assert.Equal(t, 1, final.QuestionNumber)
}

func TestStreamVoiceKeepsPartialTextOnStreamError(t *testing.T) {
	f := newFixture(
		&fakeSTT{result: stt.Result{Transcript: "A long and thoughtful answer.", Confidence: 0.9}},
		&fakeLLM{chunks: []string{"Interesting. ", "Tell me"}, streamErr: errors.New("stream died")},
	)
	id := startSession(t, f, 5, 10)

	var events []any
	err := f.svc.StreamVoice(context.Background(), id, "technical", audioPayload(5000), func(e any) error {
		events = append(events, e)
		return nil
	})
	require.NoError(t, err)

	// the two rendered fragments plus the final; no extra fallback event
	require.Len(t, events, 3)
	final, ok := events[2].(FinalEvent)
	require.True(t, ok)
	assert.Equal(t, "Interesting. Tell me", final.AIResponse,
		"final must match the concatenation the client already rendered")

	sess, found, err := f.sessions.Get(context.Background(), id)
	require.NoError(t, err)
	require.True(t, found)
	last := sess.History[len(sess.History)-1]
	assert.Equal(t, models.SpeakerAI, last.Speaker)
	assert.Equal(t, "Interesting. Tell me", last.Text)
}

func TestCaptionGate(t *testing.T) {
	f := newFixture(
		&fakeSTT{result: stt.Result{Transcript: "live caption text", Confidence: 0.8}},
		&fakeLLM{},
	)

	got, err := f.svc.Caption(context.Background(), audioPayload(2000))
	require.NoError(t, err)
	assert.Equal(t, "", got, "below the caption threshold")

	got, err = f.svc.Caption(context.Background(), audioPayload(3500))
	require.NoError(t, err)
	assert.Equal(t, "live caption text", got, "caption gate sits at 3000 bytes")

	got, err = f.svc.Caption(context.Background(), "not base64///")
	require.NoError(t, err)
	assert.Equal(t, "", got)
}

func TestEvaluateParsesScorecard(t *testing.T) {
	scorecard := `{
		"overallScore": 88,
		"categories": [
			{"name": "Technical Knowledge", "score": 90, "feedback": "f"},
			{"name": "Communication", "score": 85, "feedback": "f"},
			{"name": "Problem Solving", "score": 88, "feedback": "f"},
			{"name": "Depth of Understanding", "score": 89, "feedback": "f"}
		],
		"strengths": ["a", "b", "c"],
		"improvements": ["x", "y", "z"],
		"summary": "Excellent."
	}`
	f := newFixture(
		&fakeSTT{result: stt.Result{Transcript: "My detailed final answer.", Confidence: 0.9}},
		&fakeLLM{text: scorecard},
	)
	id := startSession(t, f, 5, 10)

	ev, err := f.svc.Evaluate(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, 88, ev.OverallScore)
	assert.Len(t, ev.Categories, 4)
}

func TestEvaluateFallsBackOnUnparseableOutput(t *testing.T) {
	f := newFixture(&fakeSTT{}, &fakeLLM{text: "the candidate was fine I guess"})
	id := startSession(t, f, 5, 10)

	ev, err := f.svc.Evaluate(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, interview.DefaultEvaluation(), ev)
}

func TestEndThenEvaluateReturnsDefaultScorecard(t *testing.T) {
	f := newFixture(
		&fakeSTT{result: stt.Result{Transcript: "A fine answer indeed.", Confidence: 0.9}},
		&fakeLLM{text: "Follow-up question?"},
	)
	id := startSession(t, f, 5, 10)

	_, err := f.svc.ProcessVoice(context.Background(), id, "technical", audioPayload(5000))
	require.NoError(t, err)

	require.NoError(t, f.svc.End(context.Background(), id))

	_, found, _ := f.sessions.Get(context.Background(), id)
	assert.False(t, found, "end destroys the session record")

	ev, err := f.svc.Evaluate(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, interview.DefaultEvaluation(), ev, "empty history yields the fallback scorecard")
}

func TestSaveRecordingRequiresUploader(t *testing.T) {
	f := newFixture(&fakeSTT{}, &fakeLLM{})

	_, err := f.svc.SaveRecording(context.Background(), "s1", "clip.webm", "video/webm", 12, strings.NewReader("data"))
	assert.Error(t, err)
}
