package interview

import "github.com/voxhire/backend/internal/models"

// EndingFloorSeconds is the hard floor on remaining time: once fewer than
// this many seconds are left, the interview wraps up so the goodbye
// response and its audio can still be produced before the client times out.
const EndingFloorSeconds = 30

// Transition is the outcome of one accepted (intelligible) turn.
type Transition struct {
	Phase          models.Phase
	QuestionNumber int
	ShouldEnd      bool
	TimeRemaining  float64 // seconds, may be negative
}

// Advance computes the next phase and question number for an accepted turn.
// It is a pure function; callers apply the result to the session.
//
// Rules, in order: the single transition out of greeting sets question 1;
// each accepted turn in questions increments the counter; ending is
// terminal. Question-count exhaustion and the time floor are each
// sufficient to end the interview.
func Advance(phase models.Phase, questionNumber, totalQuestions int, elapsedSeconds, timeLimitSeconds float64) Transition {
	switch phase {
	case models.PhaseGreeting:
		phase = models.PhaseQuestions
		questionNumber = 1
	case models.PhaseQuestions:
		questionNumber++
	}

	t := Transition{
		Phase:          phase,
		QuestionNumber: questionNumber,
		TimeRemaining:  timeLimitSeconds - elapsedSeconds,
	}

	if questionNumber > totalQuestions || t.TimeRemaining < EndingFloorSeconds {
		t.Phase = models.PhaseEnding
		t.ShouldEnd = true
	}
	return t
}

// RemainingSeconds floors a possibly negative remainder to a non-negative
// whole-second value for the wire.
func RemainingSeconds(timeRemaining float64) int {
	if timeRemaining < 0 {
		return 0
	}
	return int(timeRemaining)
}
