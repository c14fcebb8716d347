package voice

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"prepdeck/internal/domain"
	"prepdeck/internal/ports"
)

type fakeAudioSession struct {
	ctx     context.Context
	stopped chan struct{}
	once    sync.Once
}

func (s *fakeAudioSession) Read(p []byte) (int, error) {
	select {
	case <-s.ctx.Done():
	case <-s.stopped:
	}
	return 0, io.EOF
}

func (s *fakeAudioSession) Close() error { return s.Stop() }

func (s *fakeAudioSession) Stop() error {
	s.once.Do(func() { close(s.stopped) })
	return nil
}

type fakeCapture struct {
	mu     sync.Mutex
	starts int
	err    error
}

func (c *fakeCapture) Start(ctx context.Context, _ ports.AudioConfig) (ports.AudioSession, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return nil, c.err
	}
	c.starts++
	return &fakeAudioSession{ctx: ctx, stopped: make(chan struct{})}, nil
}

func (c *fakeCapture) startCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.starts
}

type fakeSpeechSession struct {
	events chan domain.TranscriptEvent
	done   chan struct{}

	mu  sync.Mutex
	err error

	finishOnce sync.Once
}

func newFakeSpeechSession() *fakeSpeechSession {
	return &fakeSpeechSession{
		events: make(chan domain.TranscriptEvent, 16),
		done:   make(chan struct{}),
	}
}

func (s *fakeSpeechSession) emit(kind domain.TranscriptKind, text string) {
	s.events <- domain.TranscriptEvent{Kind: kind, Text: text}
}

func (s *fakeSpeechSession) finish(err error) {
	s.finishOnce.Do(func() {
		s.mu.Lock()
		s.err = err
		s.mu.Unlock()
		close(s.events)
		close(s.done)
	})
}

func (s *fakeSpeechSession) SendAudio([]byte) error { return nil }

func (s *fakeSpeechSession) CloseSend() error {
	s.finish(nil)
	return nil
}

func (s *fakeSpeechSession) Events() <-chan domain.TranscriptEvent { return s.events }

func (s *fakeSpeechSession) Wait() error {
	<-s.done
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

func (s *fakeSpeechSession) Close() error {
	s.finish(nil)
	return nil
}

type fakeProvider struct {
	mu       sync.Mutex
	sessions []*fakeSpeechSession
	starts   int
}

func (p *fakeProvider) StartStreaming(context.Context, ports.SpeechConfig) (ports.SpeechSession, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.sessions) == 0 {
		return nil, errors.New("no more sessions")
	}
	session := p.sessions[0]
	p.sessions = p.sessions[1:]
	p.starts++
	return session, nil
}

func (p *fakeProvider) startCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.starts
}

type unavailableProvider struct{ fakeProvider }

func (*unavailableProvider) Available() bool { return false }

type recorder struct {
	transcripts chan string
	submits     chan string
	errs        chan string
	ended       chan struct{}
}

func newRecorder() *recorder {
	return &recorder{
		transcripts: make(chan string, 32),
		submits:     make(chan string, 4),
		errs:        make(chan string, 4),
		ended:       make(chan struct{}, 4),
	}
}

func (r *recorder) handlers() ports.VoiceHandlers {
	return ports.VoiceHandlers{
		OnTranscript: func(text string, _ bool) { r.transcripts <- text },
		OnAutoSubmit: func(text string) { r.submits <- text },
		OnError:      func(reason string) { r.errs <- reason },
		OnEnded:      func() { r.ended <- struct{}{} },
	}
}

func waitFor[T any](t *testing.T, ch <-chan T, what string) T {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(3 * time.Second):
		t.Fatalf("timed out waiting for %s", what)
		panic("unreachable")
	}
}

func newTestAdapter(t *testing.T, provider ports.SpeechProvider, sessions ...*fakeSpeechSession) (*Adapter, *fakeCapture, *recorder) {
	t.Helper()
	capture := &fakeCapture{}
	if provider == nil {
		provider = &fakeProvider{sessions: sessions}
	}
	adapter := NewAdapter(Options{
		Provider:        provider,
		Capture:         capture,
		AutoSubmitDelay: minAutoSubmitDelay,
	})
	rec := newRecorder()
	if err := adapter.Bind(rec.handlers()); err != nil {
		t.Fatalf("bind failed: %v", err)
	}
	return adapter, capture, rec
}

func TestAdapterUnsupportedProvider(t *testing.T) {
	t.Parallel()

	adapter, _, _ := newTestAdapter(t, &unavailableProvider{})
	if adapter.Supported() {
		t.Fatalf("expected adapter to be unsupported")
	}
	if err := adapter.Start(context.Background()); !errors.Is(err, ErrUnsupported) {
		t.Fatalf("expected ErrUnsupported, got %v", err)
	}
}

func TestAdapterBindsOnce(t *testing.T) {
	t.Parallel()

	adapter, _, _ := newTestAdapter(t, nil, newFakeSpeechSession())
	if err := adapter.Bind(ports.VoiceHandlers{}); err == nil {
		t.Fatalf("expected second bind to fail")
	}
}

func TestAdapterAccumulatesTranscript(t *testing.T) {
	t.Parallel()

	session := newFakeSpeechSession()
	adapter, _, rec := newTestAdapter(t, nil, session)

	if err := adapter.Start(context.Background()); err != nil {
		t.Fatalf("start failed: %v", err)
	}

	session.emit(domain.TranscriptKindPartial, "hello")
	if got := waitFor(t, rec.transcripts, "partial transcript"); got != "hello" {
		t.Fatalf("unexpected transcript: %q", got)
	}

	session.emit(domain.TranscriptKindFinal, "hello world")
	if got := waitFor(t, rec.transcripts, "final transcript"); got != "hello world" {
		t.Fatalf("unexpected transcript: %q", got)
	}

	session.emit(domain.TranscriptKindPartial, "it")
	if got := waitFor(t, rec.transcripts, "second partial"); got != "hello world it" {
		t.Fatalf("expected finals to be kept, got %q", got)
	}

	session.emit(domain.TranscriptKindFinal, "it works")
	if got := waitFor(t, rec.transcripts, "second final"); got != "hello world it works" {
		t.Fatalf("unexpected transcript: %q", got)
	}

	if err := adapter.Stop(); err != nil {
		t.Fatalf("stop failed: %v", err)
	}
	waitFor(t, rec.ended, "ended signal")
	if adapter.Listening() {
		t.Fatalf("expected adapter to stop listening")
	}
}

func TestAdapterAutoSubmitsAfterSilence(t *testing.T) {
	t.Parallel()

	session := newFakeSpeechSession()
	adapter, _, rec := newTestAdapter(t, nil, session)

	if err := adapter.Start(context.Background()); err != nil {
		t.Fatalf("start failed: %v", err)
	}

	session.emit(domain.TranscriptKindFinal, "a binary tree is a tree")
	waitFor(t, rec.transcripts, "final transcript")

	if got := waitFor(t, rec.submits, "auto submit"); got != "a binary tree is a tree" {
		t.Fatalf("unexpected submitted text: %q", got)
	}
	waitFor(t, rec.ended, "ended signal")
	if adapter.Listening() {
		t.Fatalf("expected listening to end after auto submit")
	}
}

func TestAdapterRestartsWhenRecognizerEnds(t *testing.T) {
	t.Parallel()

	first := newFakeSpeechSession()
	second := newFakeSpeechSession()
	provider := &fakeProvider{sessions: []*fakeSpeechSession{first, second}}
	adapter, capture, rec := newTestAdapter(t, provider)

	if err := adapter.Start(context.Background()); err != nil {
		t.Fatalf("start failed: %v", err)
	}

	first.emit(domain.TranscriptKindFinal, "part one")
	waitFor(t, rec.transcripts, "first transcript")

	first.finish(nil)

	deadline := time.After(3 * time.Second)
	for provider.startCount() < 2 {
		select {
		case <-deadline:
			t.Fatalf("recognizer was not restarted")
		case <-time.After(10 * time.Millisecond):
		}
	}
	if capture.startCount() < 2 {
		t.Fatalf("expected audio capture to restart, got %d starts", capture.startCount())
	}
	if !adapter.Listening() {
		t.Fatalf("expected adapter to keep listening across restart")
	}

	second.emit(domain.TranscriptKindPartial, "part two")
	if got := waitFor(t, rec.transcripts, "post-restart transcript"); got != "part one part two" {
		t.Fatalf("expected transcript to survive restart, got %q", got)
	}

	_ = adapter.Stop()
	waitFor(t, rec.ended, "ended signal")
}

func TestAdapterSurfacesRecognizerError(t *testing.T) {
	t.Parallel()

	session := newFakeSpeechSession()
	provider := &fakeProvider{sessions: []*fakeSpeechSession{session}}
	adapter, _, rec := newTestAdapter(t, provider)

	if err := adapter.Start(context.Background()); err != nil {
		t.Fatalf("start failed: %v", err)
	}

	session.finish(errors.New("recognition service returned an unknown error"))

	if got := waitFor(t, rec.errs, "error signal"); got == "" {
		t.Fatalf("expected a non-empty error reason")
	}
	waitFor(t, rec.ended, "ended signal")
	if adapter.Listening() {
		t.Fatalf("expected listening to end on error")
	}
	if provider.startCount() != 1 {
		t.Fatalf("expected no restart after an error, got %d starts", provider.startCount())
	}
}

func TestAdapterStartWhileListeningIsNoop(t *testing.T) {
	t.Parallel()

	session := newFakeSpeechSession()
	adapter, capture, _ := newTestAdapter(t, nil, session)

	if err := adapter.Start(context.Background()); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	if err := adapter.Start(context.Background()); err != nil {
		t.Fatalf("second start failed: %v", err)
	}
	if capture.startCount() != 1 {
		t.Fatalf("expected a single capture start, got %d", capture.startCount())
	}
	_ = adapter.Stop()
}

func TestAdapterStartFailsWhenCaptureFails(t *testing.T) {
	t.Parallel()

	capture := &fakeCapture{err: errors.New("device busy")}
	adapter := NewAdapter(Options{
		Provider: &fakeProvider{sessions: []*fakeSpeechSession{newFakeSpeechSession()}},
		Capture:  capture,
	})
	if err := adapter.Bind(newRecorder().handlers()); err != nil {
		t.Fatalf("bind failed: %v", err)
	}

	if err := adapter.Start(context.Background()); err == nil {
		t.Fatalf("expected start to fail")
	}
	if adapter.Listening() {
		t.Fatalf("expected adapter to remain idle after failed start")
	}
}
