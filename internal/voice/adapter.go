// Package voice turns microphone capture plus streaming recognition into a
// single dictation device: an accumulated transcript, silence-based auto
// submission, and automatic restart when the recognizer ends on its own.
package voice

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/bep/debounce"

	"prepdeck/internal/domain"
	"prepdeck/internal/ports"
)

const (
	defaultAutoSubmitDelay = 1500 * time.Millisecond
	minAutoSubmitDelay     = 500 * time.Millisecond
	maxAutoSubmitDelay     = 1500 * time.Millisecond
	defaultChunkSize       = 3200
)

// ErrUnsupported is returned by Start when no recognition capability is
// configured. Support is decided once, at construction.
var ErrUnsupported = errors.New("voice input is not supported in this environment")

// Options wires an Adapter to its audio source and recognition provider.
type Options struct {
	Provider ports.SpeechProvider
	Capture  ports.AudioCapture
	Cleaner  ports.TranscriptCleaner

	Speech ports.SpeechConfig
	Audio  ports.AudioConfig

	AutoSubmitDelay time.Duration
	ChunkSize       int
}

// Adapter implements ports.VoiceCapture.
type Adapter struct {
	opts      Options
	supported bool
	debounced func(func())

	mu        sync.Mutex
	handlers  ports.VoiceHandlers
	bound     bool
	listening bool
	gen       uint64
	cancel    context.CancelFunc
	finals    []string
	partial   string
}

func NewAdapter(opts Options) *Adapter {
	if opts.AutoSubmitDelay <= 0 {
		opts.AutoSubmitDelay = defaultAutoSubmitDelay
	}
	if opts.AutoSubmitDelay < minAutoSubmitDelay {
		opts.AutoSubmitDelay = minAutoSubmitDelay
	}
	if opts.AutoSubmitDelay > maxAutoSubmitDelay {
		opts.AutoSubmitDelay = maxAutoSubmitDelay
	}
	if opts.ChunkSize <= 0 {
		opts.ChunkSize = defaultChunkSize
	}

	supported := opts.Provider != nil && opts.Capture != nil
	if checker, ok := opts.Provider.(interface{ Available() bool }); ok && !checker.Available() {
		supported = false
	}

	return &Adapter{
		opts:      opts,
		supported: supported,
		debounced: debounce.New(opts.AutoSubmitDelay),
	}
}

// Bind installs the event handlers. Handlers are bound exactly once, before
// the first Start.
func (a *Adapter) Bind(h ports.VoiceHandlers) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.bound {
		return errors.New("voice handlers are already bound")
	}
	a.handlers = h
	a.bound = true
	return nil
}

func (a *Adapter) Supported() bool {
	return a.supported
}

func (a *Adapter) Listening() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.listening
}

// Start begins a fresh capture session. The transcript always starts empty;
// starting while already listening is a no-op.
func (a *Adapter) Start(ctx context.Context) error {
	a.mu.Lock()
	if !a.bound {
		a.mu.Unlock()
		return errors.New("voice handlers are not bound")
	}
	if !a.supported {
		a.mu.Unlock()
		return ErrUnsupported
	}
	if a.listening {
		a.mu.Unlock()
		return nil
	}

	a.gen++
	gen := a.gen
	a.listening = true
	a.finals = nil
	a.partial = ""
	runCtx, cancel := context.WithCancel(ctx)
	a.cancel = cancel
	a.mu.Unlock()

	if err := a.launch(runCtx, gen); err != nil {
		a.endRun(gen)
		return err
	}
	return nil
}

// Stop ends the current capture session without submitting. Stopping while
// idle is a no-op.
func (a *Adapter) Stop() error {
	a.mu.Lock()
	if !a.listening {
		a.mu.Unlock()
		return nil
	}
	a.listening = false
	cancel := a.cancel
	a.cancel = nil
	a.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	return nil
}

// launch starts one audio+recognition pipeline. Failures here surface
// synchronously so Start can report them.
func (a *Adapter) launch(ctx context.Context, gen uint64) error {
	audioSession, err := a.opts.Capture.Start(ctx, a.opts.Audio)
	if err != nil {
		return fmt.Errorf("failed to start audio capture: %w", err)
	}

	speechSession, err := a.opts.Provider.StartStreaming(ctx, a.opts.Speech)
	if err != nil {
		_ = audioSession.Stop()
		return fmt.Errorf("failed to start speech recognition: %w", err)
	}

	go a.run(ctx, gen, audioSession, speechSession)
	return nil
}

func (a *Adapter) run(ctx context.Context, gen uint64, audioSession ports.AudioSession, speechSession ports.SpeechSession) {
	defer func() {
		_ = audioSession.Stop()
		_ = speechSession.Close()
	}()

	go pumpAudio(audioSession, speechSession, a.opts.ChunkSize)

	for event := range speechSession.Events() {
		a.handleEvent(gen, event)
	}
	err := speechSession.Wait()

	a.mu.Lock()
	active := a.gen == gen && a.listening && ctx.Err() == nil
	h := a.handlers
	a.mu.Unlock()

	switch {
	case !active:
		// Stopped, submitted, or superseded by a newer session.
	case err != nil:
		a.endRun(gen)
		if h.OnError != nil {
			h.OnError(err.Error())
		}
	default:
		// The recognizer ended on its own mid-session. Keep listening by
		// restarting the pipeline; the accumulated transcript survives.
		if rerr := a.launch(ctx, gen); rerr != nil {
			a.endRun(gen)
			if h.OnError != nil {
				h.OnError(fmt.Sprintf("failed to restart voice capture: %v", rerr))
			}
		} else {
			return
		}
	}

	if h.OnEnded != nil {
		h.OnEnded()
	}
}

func pumpAudio(src ports.AudioSession, dst ports.SpeechSession, chunkSize int) {
	buf := make([]byte, chunkSize)
	for {
		n, err := src.Read(buf)
		if n > 0 {
			if sendErr := dst.SendAudio(buf[:n]); sendErr != nil {
				break
			}
		}
		if err != nil {
			break
		}
	}
	_ = dst.CloseSend()
}

func (a *Adapter) handleEvent(gen uint64, event domain.TranscriptEvent) {
	text := strings.TrimSpace(event.Text)
	if a.opts.Cleaner != nil {
		text = a.opts.Cleaner.Clean(text)
	}

	a.mu.Lock()
	if a.gen != gen || !a.listening {
		a.mu.Unlock()
		return
	}

	isFinal := event.Kind == domain.TranscriptKindFinal
	if isFinal {
		if text != "" {
			a.finals = append(a.finals, text)
		}
		a.partial = ""
	} else {
		a.partial = text
	}
	full := a.transcriptLocked()
	h := a.handlers
	a.mu.Unlock()

	if h.OnTranscript != nil {
		h.OnTranscript(full, isFinal)
	}
	if isFinal && full != "" {
		a.debounced(func() { a.autoSubmit(gen) })
	}
}

// autoSubmit fires after the debounce window of silence following a final
// transcript. A session that was stopped or restarted in the meantime is
// left alone.
func (a *Adapter) autoSubmit(gen uint64) {
	a.mu.Lock()
	if a.gen != gen || !a.listening {
		a.mu.Unlock()
		return
	}
	text := a.transcriptLocked()
	if strings.TrimSpace(text) == "" {
		a.mu.Unlock()
		return
	}
	a.listening = false
	cancel := a.cancel
	a.cancel = nil
	h := a.handlers
	a.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if h.OnAutoSubmit != nil {
		h.OnAutoSubmit(text)
	}
}

func (a *Adapter) endRun(gen uint64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.gen != gen {
		return
	}
	a.listening = false
	if a.cancel != nil {
		a.cancel()
		a.cancel = nil
	}
}

// transcriptLocked joins all final segments plus the trailing partial.
// Callers hold a.mu.
func (a *Adapter) transcriptLocked() string {
	parts := make([]string, 0, len(a.finals)+1)
	parts = append(parts, a.finals...)
	if a.partial != "" {
		parts = append(parts, a.partial)
	}
	return strings.Join(parts, " ")
}
