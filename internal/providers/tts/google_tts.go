package tts

import (
	"context"
	"os"

	texttospeech "cloud.google.com/go/texttospeech/apiv1"
	texttospeechpb "cloud.google.com/go/texttospeech/apiv1/texttospeechpb"
)

// GoogleTTS speaks interviewer replies with Cloud Text-to-Speech.
// A professional male voice suits the interview setting.
type GoogleTTS struct {
	c *texttospeech.Client

	Voice        string
	SampleRateHz int32
}

func NewGoogleTTS(ctx context.Context) (*GoogleTTS, error) {
	c, err := texttospeech.NewClient(ctx)
	if err != nil {
		return nil, err
	}

	voice := os.Getenv("TTS_VOICE")
	if voice == "" {
		voice = "en-US-Standard-D"
	}
	return &GoogleTTS{c: c, Voice: voice, SampleRateHz: 24000}, nil
}

func (g *GoogleTTS) Close() error { return g.c.Close() }

func (g *GoogleTTS) Synthesize(ctx context.Context, text string) (Synthesis, error) {
	resp, err := g.c.SynthesizeSpeech(ctx, &texttospeechpb.SynthesizeSpeechRequest{
		Input: &texttospeechpb.SynthesisInput{
			InputSource: &texttospeechpb.SynthesisInput_Text{Text: text},
		},
		Voice: &texttospeechpb.VoiceSelectionParams{
			LanguageCode: "en-US",
			Name:         g.Voice,
		},
		AudioConfig: &texttospeechpb.AudioConfig{
			AudioEncoding:   texttospeechpb.AudioEncoding_MP3,
			SampleRateHertz: g.SampleRateHz,
		},
	})
	if err != nil {
		return Synthesis{}, err
	}

	return Synthesis{
		Audio:      resp.AudioContent,
		Encoding:   "MP3",
		SampleRate: g.SampleRateHz,
	}, nil
}
