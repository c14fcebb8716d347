// Package usecase holds the session controllers that sequence prompts,
// streamed responses, voice capture and history writes for both flows.
package usecase

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"

	"prepdeck/internal/config"
	"prepdeck/internal/domain"
	"prepdeck/internal/parse"
	"prepdeck/internal/ports"
	"prepdeck/internal/prompts"
)

// Fixed user-facing fallback strings. Shown in place of the question, answer
// or feedback when generation fails or input is missing.
const (
	questionFailedMessage = "Failed to generate question. Please try again."
	feedbackFailedMessage = "Failed to analyze your response. Please try again."
	emptyAnswerMessage    = "I didn't catch your response. Please try again."
	answerFailedMessage   = "Failed to generate an answer. Please try again."
)

// recentQuestionWindow is how many prior questions a follow-up prompt embeds
// to bias the model away from repetition.
const recentQuestionWindow = 3

var ErrInterviewActive = errors.New("an interview is already in progress")

type interviewHistory interface {
	Append(turn domain.InterviewTurn) error
	All() []domain.InterviewTurn
}

// InterviewConfig controls one interview controller instance.
type InterviewConfig struct {
	Provider       string
	TotalQuestions int
}

// InterviewController runs the mock-interview loop: generate a question,
// collect an answer (typed or spoken), score it, repeat.
type InterviewController struct {
	generator ports.StreamGenerator
	voice     ports.VoiceCapture
	history   interviewHistory
	events    ports.EventSink
	cfg       InterviewConfig

	// gen is the generation token. Start and Reset advance it; streamed
	// callbacks and completions that carry a stale token are discarded.
	gen atomic.Uint64

	mu             sync.Mutex
	state          domain.SessionState
	jobTitle       string
	question       string
	answer         string
	feedback       string
	score          int
	questionNumber int
	totalQuestions int
	asked          []string
}

func NewInterviewController(
	generator ports.StreamGenerator,
	voice ports.VoiceCapture,
	history interviewHistory,
	events ports.EventSink,
	cfg InterviewConfig,
) (*InterviewController, error) {
	if cfg.TotalQuestions == 0 {
		cfg.TotalQuestions = 5
	}
	cfg.TotalQuestions = config.ClampTotalQuestions(cfg.TotalQuestions)

	c := &InterviewController{
		generator:      generator,
		voice:          voice,
		history:        history,
		events:         events,
		cfg:            cfg,
		state:          domain.SessionStateIdle,
		totalQuestions: cfg.TotalQuestions,
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

// StartInterview begins a fresh session for the given role id. Generation
// failures are reported through the event sink and leave the session
// input-ready; they are not returned.
func (c *InterviewController) StartInterview(ctx context.Context, jobRole string) error {
	c.mu.Lock()
	if c.state != domain.SessionStateIdle && c.state != domain.SessionStateCompleted {
		c.mu.Unlock()
		return ErrInterviewActive
	}
	token := c.gen.Add(1)
	c.jobTitle = prompts.FormatJobTitle(jobRole)
	c.questionNumber = 1
	c.question = ""
	c.answer = ""
	c.feedback = ""
	c.score = 0
	c.asked = nil
	c.state = domain.SessionStateAwaiting
	prompt := prompts.FirstQuestion(c.jobTitle)
	c.mu.Unlock()

	_ = c.voice.Stop()
	c.events.SessionStateChanged(domain.FlowInterview, domain.SessionStateAwaiting, domain.ReasonInterviewStarted)
	c.requestQuestion(ctx, token, prompt)
	return nil
}

// NextQuestion advances to the next turn, or completes the interview once the
// configured question count has been reached.
func (c *InterviewController) NextQuestion(ctx context.Context) error {
	token := c.gen.Load()
	_ = c.voice.Stop()

	c.mu.Lock()
	if c.state == domain.SessionStateIdle {
		c.mu.Unlock()
		return errors.New("no interview in progress")
	}
	if c.questionNumber >= c.totalQuestions {
		c.state = domain.SessionStateCompleted
		c.mu.Unlock()
		c.events.SessionStateChanged(domain.FlowInterview, domain.SessionStateCompleted, domain.ReasonInterviewCompleted)
		return nil
	}

	c.questionNumber++
	c.question = ""
	c.answer = ""
	c.feedback = ""
	c.score = 0
	c.state = domain.SessionStateAwaiting
	prompt := prompts.FollowUpQuestion(c.jobTitle, c.questionNumber, c.totalQuestions, recentAsked(c.asked))
	c.mu.Unlock()

	c.events.SessionStateChanged(domain.FlowInterview, domain.SessionStateAwaiting, domain.ReasonQuestionRequested)
	c.requestQuestion(ctx, token, prompt)
	return nil
}

// SubmitAnswer scores the answer against the current question. An empty
// answer never reaches the network; it surfaces a fixed message instead.
func (c *InterviewController) SubmitAnswer(ctx context.Context, answer string) error {
	token := c.gen.Load()
	_ = c.voice.Stop()

	trimmed := strings.TrimSpace(answer)
	if trimmed == "" {
		c.mu.Lock()
		c.feedback = emptyAnswerMessage
		c.mu.Unlock()
		c.events.SessionError(domain.ErrorCodeValidation, emptyAnswerMessage)
		c.events.SessionStateChanged(domain.FlowInterview, domain.SessionStateListening, domain.ReasonAnswerEmpty)
		return nil
	}

	c.mu.Lock()
	question := c.question
	jobTitle := c.jobTitle
	c.answer = trimmed
	c.feedback = ""
	c.state = domain.SessionStateScoring
	c.mu.Unlock()

	c.events.SessionStateChanged(domain.FlowInterview, domain.SessionStateScoring, domain.ReasonAnswerSubmitted)

	prompt := prompts.AnswerFeedback(jobTitle, question, trimmed)
	full, err := c.generator.Generate(ctx, prompt, c.cfg.Provider, c.streamCallback(token, domain.ReasonFeedbackStreaming))
	if c.gen.Load() != token {
		return nil
	}
	if err != nil {
		c.mu.Lock()
		c.feedback = feedbackFailedMessage
		c.state = domain.SessionStateListening
		c.mu.Unlock()
		c.events.SessionError(domain.ErrorCodeGeneration, err.Error())
		c.events.SessionStateChanged(domain.FlowInterview, domain.SessionStateListening, domain.ReasonFeedbackFailed)
		return nil
	}

	parsed := parse.ParseFeedback(full)
	body := parsed.Body
	if body == "" {
		body = strings.TrimSpace(full)
	}
	turn := domain.InterviewTurn{
		Question: question,
		Answer:   trimmed,
		Feedback: body,
		Score:    parsed.HistoryScore(),
	}
	if err := c.history.Append(turn); err != nil {
		c.events.SessionError(domain.ErrorCodeHistory, err.Error())
	}

	c.mu.Lock()
	if c.gen.Load() != token {
		c.mu.Unlock()
		return nil
	}
	c.feedback = body
	c.score = parsed.DisplayScore()
	c.state = domain.SessionStateFeedback
	c.mu.Unlock()

	c.events.FeedbackReady(turn)
	c.events.SessionStateChanged(domain.FlowInterview, domain.SessionStateFeedback, domain.ReasonFeedbackReady)
	return nil
}

// Reset discards the session from any state. Transient fields return to their
// initial values, capture stops and in-flight streaming output is discarded.
func (c *InterviewController) Reset() error {
	c.gen.Add(1)
	_ = c.voice.Stop()

	c.mu.Lock()
	c.state = domain.SessionStateIdle
	c.jobTitle = ""
	c.question = ""
	c.answer = ""
	c.feedback = ""
	c.score = 0
	c.questionNumber = 0
	c.asked = nil
	c.totalQuestions = c.cfg.TotalQuestions
	c.mu.Unlock()

	c.events.SessionStateChanged(domain.FlowInterview, domain.SessionStateIdle, domain.ReasonInterviewReset)
	return nil
}

// SetTotalQuestions adjusts the question count for the next session. Only
// valid while idle; the value is clamped to the supported range.
func (c *InterviewController) SetTotalQuestions(n int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != domain.SessionStateIdle && c.state != domain.SessionStateCompleted {
		return ErrInterviewActive
	}
	c.totalQuestions = config.ClampTotalQuestions(n)
	return nil
}

// StartListening begins voice capture for the current answer.
func (c *InterviewController) StartListening(ctx context.Context) error {
	c.mu.Lock()
	ready := c.state == domain.SessionStateListening
	c.mu.Unlock()
	if !ready {
		return errors.New("no question is awaiting an answer")
	}
	return c.voice.Start(ctx)
}

// StopListening ends voice capture without submitting.
func (c *InterviewController) StopListening() error {
	return c.voice.Stop()
}

// Status snapshots the interview flow for the UI.
func (c *InterviewController) Status() domain.InterviewStatus {
	c.mu.Lock()
	defer c.mu.Unlock()
	return domain.InterviewStatus{
		State:          c.state,
		JobRole:        c.jobTitle,
		Question:       c.question,
		Answer:         c.answer,
		Feedback:       c.feedback,
		Score:          c.score,
		QuestionNumber: c.questionNumber,
		TotalQuestions: c.totalQuestions,
		Listening:      c.voice.Listening(),
	}
}

// History returns every recorded turn, oldest first.
func (c *InterviewController) History() []domain.InterviewTurn {
	return c.history.All()
}

func (c *InterviewController) requestQuestion(ctx context.Context, token uint64, prompt string) {
	full, err := c.generator.Generate(ctx, prompt, c.cfg.Provider, c.streamCallback(token, domain.ReasonQuestionStreaming))
	if c.gen.Load() != token {
		return
	}

	if err != nil {
		c.mu.Lock()
		c.question = questionFailedMessage
		c.state = domain.SessionStateListening
		c.mu.Unlock()
		c.events.SessionError(domain.ErrorCodeGeneration, err.Error())
		c.events.SessionStateChanged(domain.FlowInterview, domain.SessionStateListening, domain.ReasonQuestionFailed)
		return
	}

	question := strings.TrimSpace(full)

	c.mu.Lock()
	if c.gen.Load() != token {
		c.mu.Unlock()
		return
	}
	c.question = question
	c.asked = append(c.asked, question)
	number, total := c.questionNumber, c.totalQuestions
	c.state = domain.SessionStateListening
	c.mu.Unlock()

	c.events.QuestionReady(number, total, question)
	c.events.SessionStateChanged(domain.FlowInterview, domain.SessionStateListening, domain.ReasonQuestionReady)

	if c.voice.Supported() {
		if err := c.voice.Start(ctx); err != nil {
			c.events.SessionError(domain.ErrorCodeSpeechCapture, err.Error())
		}
	}
}

func (c *InterviewController) streamCallback(token uint64, reason domain.StateReason) func(string) {
	var once sync.Once
	return func(chunk string) {
		if c.gen.Load() != token {
			return
		}
		once.Do(func() {
			c.mu.Lock()
			c.state = domain.SessionStateStreaming
			c.mu.Unlock()
			c.events.SessionStateChanged(domain.FlowInterview, domain.SessionStateStreaming, reason)
		})
		c.events.StreamDelta(domain.FlowInterview, chunk)
	}
}

func (c *InterviewController) onTranscript(text string, isFinal bool) {
	c.mu.Lock()
	if c.state == domain.SessionStateListening {
		c.answer = text
	}
	c.mu.Unlock()
	c.events.TranscriptUpdate(domain.FlowInterview, text, isFinal)
}

func (c *InterviewController) onAutoSubmit(text string) {
	c.mu.Lock()
	ready := c.state == domain.SessionStateListening
	c.mu.Unlock()
	if !ready {
		return
	}
	_ = c.SubmitAnswer(context.Background(), text)
}

func (c *InterviewController) onVoiceError(reason string) {
	c.events.SessionError(domain.ErrorCodeSpeechCapture, reason)
}

func recentAsked(asked []string) []string {
	if len(asked) <= recentQuestionWindow {
		return asked
	}
	return asked[len(asked)-recentQuestionWindow:]
}
