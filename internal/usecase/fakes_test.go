package usecase

import (
	"context"
	"errors"
	"sync"

	"prepdeck/internal/domain"
	"prepdeck/internal/ports"
)

// genResponse scripts one Generate call. full defaults to the concatenation
// of chunks; gate, when set, blocks the call until the test releases it.
type genResponse struct {
	chunks []string
	full   string
	err    error
	gate   chan struct{}
}

type fakeGenerator struct {
	mu        sync.Mutex
	responses []genResponse
	prompts   []string
	providers []string
}

func (g *fakeGenerator) Generate(_ context.Context, prompt string, provider string, onDelta func(string)) (string, error) {
	g.mu.Lock()
	g.prompts = append(g.prompts, prompt)
	g.providers = append(g.providers, provider)
	if len(g.responses) == 0 {
		g.mu.Unlock()
		return "", errors.New("no scripted response")
	}
	resp := g.responses[0]
	g.responses = g.responses[1:]
	g.mu.Unlock()

	if resp.gate != nil {
		<-resp.gate
	}
	if resp.err != nil {
		return "", resp.err
	}

	full := resp.full
	if full == "" {
		for _, chunk := range resp.chunks {
			full += chunk
		}
	}
	for _, chunk := range resp.chunks {
		if onDelta != nil {
			onDelta(chunk)
		}
	}
	return full, nil
}

func (g *fakeGenerator) callCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.prompts)
}

type fakeVoice struct {
	mu        sync.Mutex
	handlers  ports.VoiceHandlers
	bound     bool
	listening bool
	starts    int
	stops     int
	startErr  error

	unsupported bool
}

func (v *fakeVoice) Bind(h ports.VoiceHandlers) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.bound {
		return errors.New("voice handlers are already bound")
	}
	v.handlers = h
	v.bound = true
	return nil
}

func (v *fakeVoice) Start(context.Context) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.startErr != nil {
		return v.startErr
	}
	v.listening = true
	v.starts++
	return nil
}

func (v *fakeVoice) Stop() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.listening {
		v.listening = false
	}
	v.stops++
	return nil
}

func (v *fakeVoice) Supported() bool { return !v.unsupported }

func (v *fakeVoice) Listening() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.listening
}

func (v *fakeVoice) startCount() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.starts
}

type stateChange struct {
	flow   domain.Flow
	state  domain.SessionState
	reason domain.StateReason
}

type recordingSink struct {
	mu        sync.Mutex
	states    []stateChange
	deltas    []string
	questions []string
	feedbacks []domain.InterviewTurn
	answers   []domain.QuestionRecord
	errCodes  []domain.ErrorCode
}

func (s *recordingSink) SessionStateChanged(flow domain.Flow, state domain.SessionState, reason domain.StateReason) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.states = append(s.states, stateChange{flow: flow, state: state, reason: reason})
}

func (s *recordingSink) StreamDelta(_ domain.Flow, text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deltas = append(s.deltas, text)
}

func (s *recordingSink) TranscriptUpdate(domain.Flow, string, bool) {}

func (s *recordingSink) QuestionReady(_ int, _ int, text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.questions = append(s.questions, text)
}

func (s *recordingSink) FeedbackReady(turn domain.InterviewTurn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.feedbacks = append(s.feedbacks, turn)
}

func (s *recordingSink) AnswerReady(record domain.QuestionRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.answers = append(s.answers, record)
}

func (s *recordingSink) SessionError(code domain.ErrorCode, _ string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errCodes = append(s.errCodes, code)
}

func (s *recordingSink) lastState() stateChange {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.states) == 0 {
		return stateChange{}
	}
	return s.states[len(s.states)-1]
}

func (s *recordingSink) hasErrorCode(code domain.ErrorCode) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.errCodes {
		if c == code {
			return true
		}
	}
	return false
}

func (s *recordingSink) questionCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.questions)
}

type fakeClipboard struct {
	mu   sync.Mutex
	text string
	err  error
}

func (c *fakeClipboard) SetText(_ context.Context, text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return c.err
	}
	c.text = text
	return nil
}
