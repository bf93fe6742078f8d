package interview

import (
	"fmt"
	"strings"

	"github.com/voxhire/backend/internal/models"
)

// GenerationContext carries everything the response generator needs to
// know about the turn being answered.
type GenerationContext struct {
	SessionID      string
	InterviewType  string
	Field          string
	Difficulty     string
	QuestionNumber int
	TotalQuestions int
	Phase          models.Phase
	TimeRemaining  float64 // seconds
	History        []models.Turn
}

// recentTurns keeps prompts short: only the tail of the conversation is
// replayed to the model on each turn.
const recentTurns = 6

var difficultyInstructions = map[string]string{
	"beginner":     "Ask fundamental, conceptual questions. Focus on basic understanding and definitions.",
	"intermediate": "Ask applied questions that test practical knowledge and common patterns.",
	"advanced":     "Ask deep, nuanced questions about edge cases, performance, architecture, and trade-offs.",
}

func transcriptOf(history []models.Turn, limit int) string {
	if limit > 0 && len(history) > limit {
		history = history[len(history)-limit:]
	}
	var b strings.Builder
	for _, turn := range history {
		speaker := "Interviewer"
		if turn.Speaker == models.SpeakerUser {
			speaker = "Candidate"
		}
		b.WriteString(speaker)
		b.WriteString(": ")
		b.WriteString(turn.Text)
		b.WriteString("\n")
	}
	return b.String()
}

// GreetingPrompt asks the model for the opening message of a session.
func GreetingPrompt(field, difficulty string) string {
	return fmt.Sprintf(`You are an AI interviewer conducting a %s-level interview about %s.

Start by greeting the candidate warmly and professionally. Introduce yourself briefly, mention the interview topic (%s), and ask the candidate to introduce themselves.

Keep it natural and friendly, 2-3 sentences max. Don't ask any technical questions yet - just greet and ask for their introduction.`, difficulty, field, field)
}

// ResponsePrompt builds the per-turn prompt. The ending phase gets a
// goodbye prompt; every other accepted turn gets the next question.
func ResponsePrompt(transcript string, gc GenerationContext) string {
	conversation := transcriptOf(gc.History, recentTurns)

	if gc.Phase == models.PhaseEnding {
		return fmt.Sprintf(`You are an AI interviewer wrapping up an interview about %s.

Previous conversation:
%s

The candidate just said: "%s"

The interview is now ending (time is almost up or all questions are done).
Thank the candidate for their time, give them a brief positive note about the interview, and let them know they will receive their results shortly.

Keep it warm and professional, 2-3 sentences. This is a goodbye message.`, gc.Field, conversation, transcript)
	}

	instructions, ok := difficultyInstructions[gc.Difficulty]
	if !ok {
		instructions = difficultyInstructions["intermediate"]
	}

	return fmt.Sprintf(`You are an AI interviewer conducting a %s-level technical interview about %s.

Current question: %d of %d
Difficulty: %s
Time remaining: %d minutes

%s

Previous conversation:
%s

The candidate just said: "%s"

Instructions:
1. Briefly acknowledge their answer (1 sentence)
2. Ask the next interview question related to %s
3. Keep it conversational and concise
4. Total response MUST be <= 2 sentences

Don't repeat questions already asked. Progress logically through topics.`,
		gc.Difficulty, gc.Field,
		gc.QuestionNumber, gc.TotalQuestions,
		gc.Difficulty,
		int(gc.TimeRemaining/60),
		instructions,
		conversation,
		transcript,
		gc.Field)
}

// EvaluationPrompt asks for the fixed-shape JSON scorecard over the full
// conversation.
func EvaluationPrompt(history []models.Turn, cfg models.InterviewConfig) string {
	return fmt.Sprintf(`You are evaluating a %s-level technical interview about %s.

Full conversation:
%s

Provide a comprehensive evaluation in the following JSON format (and ONLY JSON, no markdown):
{
    "overallScore": <number 0-100>,
    "categories": [
        {"name": "Technical Knowledge", "score": <number 0-100>, "feedback": "<1 sentence>"},
        {"name": "Communication", "score": <number 0-100>, "feedback": "<1 sentence>"},
        {"name": "Problem Solving", "score": <number 0-100>, "feedback": "<1 sentence>"},
        {"name": "Depth of Understanding", "score": <number 0-100>, "feedback": "<1 sentence>"}
    ],
    "strengths": ["<strength 1>", "<strength 2>", "<strength 3>"],
    "improvements": ["<area 1>", "<area 2>", "<area 3>"],
    "summary": "<2-3 sentence overall assessment>"
}

Be fair but constructive. Base scores on the actual responses given.`, cfg.Difficulty, cfg.Field, transcriptOf(history, 0))
}

// CleanResponse strips the markdown emphasis the model tends to sprinkle
// into spoken replies.
func CleanResponse(text string) string {
	return strings.TrimSpace(strings.ReplaceAll(text, "**", ""))
}
