package ports

import (
	"context"
	"io"

	"prepdeck/internal/domain"
)

// StreamGenerator sends a prompt to a text-generation service and delivers the
// response incrementally. onDelta is invoked zero or more times with substrings;
// concatenation of all deltas in call order equals the returned full text. The
// call returns only after the full response has been delivered, or with a single
// terminal error. No retries are performed.
type StreamGenerator interface {
	Generate(ctx context.Context, prompt string, provider string, onDelta func(chunk string)) (string, error)
}

// SpeechConfig describes provider-agnostic recognition settings.
type SpeechConfig struct {
	SampleRate     int
	Channels       int
	Encoding       string
	Language       string
	InterimResults bool
}

// SpeechSession is an active streaming recognition session.
type SpeechSession interface {
	SendAudio(chunk []byte) error
	CloseSend() error
	Events() <-chan domain.TranscriptEvent
	Wait() error
	Close() error
}

// SpeechProvider starts streaming recognition sessions.
type SpeechProvider interface {
	StartStreaming(ctx context.Context, cfg SpeechConfig) (SpeechSession, error)
}

// AudioConfig describes how the microphone should be captured.
type AudioConfig struct {
	SampleRate  int
	Channels    int
	InputFormat string
	InputDevice string
}

// AudioSession is a live microphone capture session.
type AudioSession interface {
	io.ReadCloser
	Stop() error
}

// AudioCapture creates microphone capture sessions.
type AudioCapture interface {
	Start(ctx context.Context, cfg AudioConfig) (AudioSession, error)
}

// VoiceHandlers receive voice-capture events. OnTranscript always carries the
// full accumulated transcript for the capture session, never a delta.
type VoiceHandlers struct {
	OnTranscript func(text string, isFinal bool)
	OnAutoSubmit func(text string)
	OnError      func(reason string)
	OnEnded      func()
}

// VoiceCapture is a single owned voice-input adapter. Handlers are bound once;
// Start/Stop guard the capture lifecycle.
type VoiceCapture interface {
	Bind(h VoiceHandlers) error
	Start(ctx context.Context) error
	Stop() error
	Supported() bool
	Listening() bool
}

// TranscriptCleaner applies deterministic substitutions to recognized text.
type TranscriptCleaner interface {
	Clean(text string) string
}

// Clipboard writes text into the system clipboard.
type Clipboard interface {
	SetText(ctx context.Context, text string) error
}

// EventSink emits backend state and streaming output to the UI.
type EventSink interface {
	SessionStateChanged(flow domain.Flow, state domain.SessionState, reason domain.StateReason)
	StreamDelta(flow domain.Flow, text string)
	TranscriptUpdate(flow domain.Flow, text string, isFinal bool)
	QuestionReady(number int, total int, text string)
	FeedbackReady(turn domain.InterviewTurn)
	AnswerReady(record domain.QuestionRecord)
	SessionError(code domain.ErrorCode, detail string)
}
