package usecase

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"prepdeck/internal/domain"
	"prepdeck/internal/parse"
	"prepdeck/internal/ports"
	"prepdeck/internal/prompts"
)

var (
	ErrEmptyQuestion  = errors.New("question is empty")
	ErrRecordNotFound = errors.New("record not found")
	ErrNotConfirmed   = errors.New("history clear requires confirmation")
	ErrNothingToCopy  = errors.New("no answer to copy")
)

type questionHistory interface {
	Prepend(record domain.QuestionRecord) error
	Get(id string) (domain.QuestionRecord, bool)
	ToggleBookmark(id string) (bool, error)
	Delete(id string) (bool, error)
	Clear() error
	All() []domain.QuestionRecord
}

// PrepConfig controls one prep controller instance.
type PrepConfig struct {
	Provider string
}

// PrepController runs the technical Q&A flow: dictate or type a question,
// stream a generated answer, keep the result in browsable history.
type PrepController struct {
	generator ports.StreamGenerator
	voice     ports.VoiceCapture
	history   questionHistory
	clipboard ports.Clipboard
	events    ports.EventSink
	cfg       PrepConfig

	newID func() string
	now   func() time.Time

	gen atomic.Uint64

	mu         sync.Mutex
	state      domain.SessionState
	recordID   string
	question   string
	answer     string
	domainTag  string
	answerType domain.AnswerType
}

func NewPrepController(
	generator ports.StreamGenerator,
	voice ports.VoiceCapture,
	history questionHistory,
	clipboard ports.Clipboard,
	events ports.EventSink,
	cfg PrepConfig,
) (*PrepController, error) {
	c := &PrepController{
		generator:  generator,
		voice:      voice,
		history:    history,
		clipboard:  clipboard,
		events:     events,
		cfg:        cfg,
		newID:      uuid.NewString,
		now:        time.Now,
		state:      domain.SessionStateIdle,
		answerType: domain.AnswerDetailed,
	}

	err := voice.Bind(ports.VoiceHandlers{
		OnTranscript: c.onTranscript,
		OnAutoSubmit: c.onAutoSubmit,
		OnError:      c.onVoiceError,
		OnEnded:      func() {},
	})
	if err != nil {
		return nil, err
	}
	return c, nil
}

// GenerateAnswer streams an answer for the question at the requested
// verbosity, detects the technical domain from the full response and prepends
// the record to history. Generation failures surface through the event sink;
// an empty question is rejected before any network call.
func (c *PrepController) GenerateAnswer(ctx context.Context, question string, answerType string) error {
	trimmed := strings.TrimSpace(question)
	if trimmed == "" {
		c.events.SessionError(domain.ErrorCodeValidation, "Please enter a question first.")
		return ErrEmptyQuestion
	}

	token := c.gen.Add(1)
	_ = c.voice.Stop()
	kind := domain.ParseAnswerType(answerType)

	c.mu.Lock()
	c.recordID = ""
	c.question = trimmed
	c.answer = ""
	c.domainTag = ""
	c.answerType = kind
	c.state = domain.SessionStateAwaiting
	c.mu.Unlock()

	c.events.SessionStateChanged(domain.FlowPrep, domain.SessionStateAwaiting, domain.ReasonAnswerRequested)

	prompt := prompts.TechnicalAnswer(trimmed, kind)
	full, err := c.generator.Generate(ctx, prompt, c.cfg.Provider, c.streamCallback(token))
	if c.gen.Load() != token {
		return nil
	}
	if err != nil {
		c.mu.Lock()
		c.answer = answerFailedMessage
		c.state = domain.SessionStateIdle
		c.mu.Unlock()
		c.events.SessionError(domain.ErrorCodeGeneration, err.Error())
		c.events.SessionStateChanged(domain.FlowPrep, domain.SessionStateIdle, domain.ReasonAnswerFailed)
		return nil
	}

	record := domain.QuestionRecord{
		ID:             c.newID(),
		Question:       trimmed,
		Answer:         full,
		DetectedDomain: parse.DetectDomain(full),
		AnswerType:     kind,
		Timestamp:      c.now().UnixMilli(),
	}
	if err := c.history.Prepend(record); err != nil {
		c.events.SessionError(domain.ErrorCodeHistory, err.Error())
	}

	c.mu.Lock()
	if c.gen.Load() != token {
		c.mu.Unlock()
		return nil
	}
	c.recordID = record.ID
	c.answer = record.Answer
	c.domainTag = record.DetectedDomain
	c.state = domain.SessionStateIdle
	c.mu.Unlock()

	c.events.AnswerReady(record)
	c.events.SessionStateChanged(domain.FlowPrep, domain.SessionStateIdle, domain.ReasonAnswerReady)
	return nil
}

// LoadRecord copies a history record into the active display. History is
// never mutated by a load.
func (c *PrepController) LoadRecord(id string) error {
	record, ok := c.history.Get(id)
	if !ok {
		return ErrRecordNotFound
	}

	c.mu.Lock()
	c.recordID = record.ID
	c.question = record.Question
	c.answer = record.Answer
	c.domainTag = record.DetectedDomain
	c.answerType = record.AnswerType
	c.state = domain.SessionStateIdle
	c.mu.Unlock()

	c.events.AnswerReady(record)
	c.events.SessionStateChanged(domain.FlowPrep, domain.SessionStateIdle, domain.ReasonRecordLoaded)
	return nil
}

// ToggleBookmark flips the bookmark flag, reporting the record's new value.
// Unknown ids are a no-op.
func (c *PrepController) ToggleBookmark(id string) (bool, error) {
	toggled, err := c.history.ToggleBookmark(id)
	if err != nil {
		c.events.SessionError(domain.ErrorCodeHistory, err.Error())
		return false, err
	}
	if !toggled {
		return false, nil
	}
	record, ok := c.history.Get(id)
	return ok && record.Bookmarked, nil
}

// DeleteRecord removes a record. Deleting the currently displayed record
// clears the active display; deleting any other record leaves it alone.
func (c *PrepController) DeleteRecord(id string) error {
	deleted, err := c.history.Delete(id)
	if err != nil {
		c.events.SessionError(domain.ErrorCodeHistory, err.Error())
		return err
	}
	if !deleted {
		return nil
	}

	c.mu.Lock()
	cleared := c.recordID == id
	if cleared {
		c.clearDisplayLocked()
	}
	c.mu.Unlock()

	if cleared {
		c.events.SessionStateChanged(domain.FlowPrep, domain.SessionStateIdle, domain.ReasonRecordDeleted)
	}
	return nil
}

// ClearHistory empties the saved Q&A list. The confirmation flag must be set
// by an explicit user choice.
func (c *PrepController) ClearHistory(confirmed bool) error {
	if !confirmed {
		return ErrNotConfirmed
	}
	if err := c.history.Clear(); err != nil {
		c.events.SessionError(domain.ErrorCodeHistory, err.Error())
		return err
	}

	c.mu.Lock()
	c.clearDisplayLocked()
	c.mu.Unlock()

	c.events.SessionStateChanged(domain.FlowPrep, domain.SessionStateIdle, domain.ReasonHistoryCleared)
	return nil
}

// CopyAnswer writes the displayed answer to the system clipboard.
func (c *PrepController) CopyAnswer(ctx context.Context) error {
	c.mu.Lock()
	answer := c.answer
	c.mu.Unlock()

	if strings.TrimSpace(answer) == "" {
		return ErrNothingToCopy
	}
	if err := c.clipboard.SetText(ctx, answer); err != nil {
		c.events.SessionError(domain.ErrorCodeClipboard, err.Error())
		return err
	}
	return nil
}

// StartDictation begins voice capture for the question field.
func (c *PrepController) StartDictation(ctx context.Context) error {
	c.mu.Lock()
	c.state = domain.SessionStateListening
	c.mu.Unlock()

	if err := c.voice.Start(ctx); err != nil {
		c.mu.Lock()
		c.state = domain.SessionStateIdle
		c.mu.Unlock()
		return err
	}
	c.events.SessionStateChanged(domain.FlowPrep, domain.SessionStateListening, domain.ReasonCaptureStarted)
	return nil
}

// StopDictation ends voice capture without generating.
func (c *PrepController) StopDictation() error {
	if err := c.voice.Stop(); err != nil {
		return err
	}

	c.mu.Lock()
	if c.state == domain.SessionStateListening {
		c.state = domain.SessionStateIdle
	}
	c.mu.Unlock()

	c.events.SessionStateChanged(domain.FlowPrep, domain.SessionStateIdle, domain.ReasonCaptureStopped)
	return nil
}

// Status snapshots the prep flow for the UI.
func (c *PrepController) Status() domain.PrepStatus {
	c.mu.Lock()
	defer c.mu.Unlock()
	return domain.PrepStatus{
		State:      c.state,
		RecordID:   c.recordID,
		Question:   c.question,
		Answer:     c.answer,
		Domain:     c.domainTag,
		AnswerType: c.answerType,
		Listening:  c.voice.Listening(),
	}
}

// History returns the saved records, most recent first.
func (c *PrepController) History() []domain.QuestionRecord {
	return c.history.All()
}

func (c *PrepController) streamCallback(token uint64) func(string) {
	var once sync.Once
	return func(chunk string) {
		if c.gen.Load() != token {
			return
		}
		once.Do(func() {
			c.mu.Lock()
			c.state = domain.SessionStateStreaming
			c.mu.Unlock()
			c.events.SessionStateChanged(domain.FlowPrep, domain.SessionStateStreaming, domain.ReasonAnswerStreaming)
		})
		c.events.StreamDelta(domain.FlowPrep, chunk)
	}
}

func (c *PrepController) onTranscript(text string, isFinal bool) {
	c.mu.Lock()
	if c.state == domain.SessionStateListening {
		c.question = text
	}
	c.mu.Unlock()
	c.events.TranscriptUpdate(domain.FlowPrep, text, isFinal)
}

func (c *PrepController) onAutoSubmit(text string) {
	c.mu.Lock()
	ready := c.state == domain.SessionStateListening
	kind := c.answerType
	c.mu.Unlock()
	if !ready {
		return
	}
	_ = c.GenerateAnswer(context.Background(), text, string(kind))
}

func (c *PrepController) onVoiceError(reason string) {
	c.mu.Lock()
	if c.state == domain.SessionStateListening {
		c.state = domain.SessionStateIdle
	}
	c.mu.Unlock()
	c.events.SessionError(domain.ErrorCodeSpeechCapture, reason)
}

func (c *PrepController) clearDisplayLocked() {
	c.recordID = ""
	c.question = ""
	c.answer = ""
	c.domainTag = ""
	c.answerType = domain.AnswerDetailed
	c.state = domain.SessionStateIdle
}
