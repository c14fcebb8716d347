package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/wailsapp/wails/v2/pkg/runtime"

	"prepdeck/internal/bootstrap"
	"prepdeck/internal/config"
	"prepdeck/internal/domain"
	"prepdeck/internal/stats"
	"prepdeck/internal/usecase"
	"prepdeck/internal/voice"
)

const (
	eventSession    = "prepdeck:session"
	eventStream     = "prepdeck:stream"
	eventTranscript = "prepdeck:transcript"
	eventQuestion   = "prepdeck:question"
	eventFeedback   = "prepdeck:feedback"
	eventAnswer     = "prepdeck:answer"
	eventError      = "prepdeck:error"
)

// App is the Wails application root.
type App struct {
	ctx context.Context

	interview *usecase.InterviewController
	prep      *usecase.PrepController
	cfg       config.Config
	bootErr   error
}

func NewApp() *App {
	return &App{}
}

func (a *App) startup(ctx context.Context) {
	a.ctx = ctx

	services, err := bootstrap.Build(a, &wailsClipboard{})
	if err != nil {
		a.bootErr = err
		a.SessionError(domain.ErrorCodeStartup, err.Error())
		return
	}

	a.cfg = services.Config
	a.interview = services.Interview
	a.prep = services.Prep
	a.SessionStateChanged(domain.FlowInterview, domain.SessionStateIdle, domain.ReasonAppReady)
}

// StartInterview begins a mock interview for the given role id.
func (a *App) StartInterview(jobRole string) (domain.InterviewStatus, error) {
	if err := a.requireReady(); err != nil {
		return domain.InterviewStatus{}, err
	}
	if err := a.interview.StartInterview(a.ctx, jobRole); err != nil {
		a.SessionError(domain.ErrorCodeValidation, err.Error())
		return domain.InterviewStatus{}, err
	}
	return a.interview.Status(), nil
}

// SubmitAnswer scores the candidate answer for the current question.
func (a *App) SubmitAnswer(answer string) (domain.InterviewStatus, error) {
	if err := a.requireReady(); err != nil {
		return domain.InterviewStatus{}, err
	}
	if err := a.interview.SubmitAnswer(a.ctx, answer); err != nil {
		return domain.InterviewStatus{}, err
	}
	return a.interview.Status(), nil
}

// NextQuestion advances the interview, or completes it.
func (a *App) NextQuestion() (domain.InterviewStatus, error) {
	if err := a.requireReady(); err != nil {
		return domain.InterviewStatus{}, err
	}
	if err := a.interview.NextQuestion(a.ctx); err != nil {
		return domain.InterviewStatus{}, err
	}
	return a.interview.Status(), nil
}

// ResetInterview discards the session from any state.
func (a *App) ResetInterview() error {
	if err := a.requireReady(); err != nil {
		return err
	}
	return a.interview.Reset()
}

// SetTotalQuestions adjusts the question count for the next interview.
func (a *App) SetTotalQuestions(n int) error {
	if err := a.requireReady(); err != nil {
		return err
	}
	return a.interview.SetTotalQuestions(n)
}

// StartListening begins voice capture for the interview answer.
func (a *App) StartListening() error {
	if err := a.requireReady(); err != nil {
		return err
	}
	if err := a.interview.StartListening(a.ctx); err != nil {
		a.SessionError(speechErrorCode(err), err.Error())
		return err
	}
	return nil
}

// StopListening ends interview voice capture without submitting.
func (a *App) StopListening() error {
	if err := a.requireReady(); err != nil {
		return err
	}
	return a.interview.StopListening()
}

// GetInterviewStatus returns the interview flow snapshot.
func (a *App) GetInterviewStatus() domain.InterviewStatus {
	if a.interview == nil {
		return domain.InterviewStatus{State: domain.SessionStateIdle}
	}
	return a.interview.Status()
}

// GetInterviewStats aggregates all recorded turns for the stats panel.
func (a *App) GetInterviewStats() stats.Summary {
	if a.interview == nil {
		return stats.Summarize(nil)
	}
	return stats.Summarize(a.interview.History())
}

// GenerateAnswer streams a technical answer at the requested verbosity.
func (a *App) GenerateAnswer(question string, answerType string) (domain.PrepStatus, error) {
	if err := a.requireReady(); err != nil {
		return domain.PrepStatus{}, err
	}
	if err := a.prep.GenerateAnswer(a.ctx, question, answerType); err != nil {
		return domain.PrepStatus{}, err
	}
	return a.prep.Status(), nil
}

// LoadRecord shows a saved Q&A record.
func (a *App) LoadRecord(id string) (domain.PrepStatus, error) {
	if err := a.requireReady(); err != nil {
		return domain.PrepStatus{}, err
	}
	if err := a.prep.LoadRecord(id); err != nil {
		return domain.PrepStatus{}, err
	}
	return a.prep.Status(), nil
}

// ToggleBookmark flips the bookmark flag on a saved record.
func (a *App) ToggleBookmark(id string) (bool, error) {
	if err := a.requireReady(); err != nil {
		return false, err
	}
	return a.prep.ToggleBookmark(id)
}

// DeleteRecord removes a saved record.
func (a *App) DeleteRecord(id string) error {
	if err := a.requireReady(); err != nil {
		return err
	}
	return a.prep.DeleteRecord(id)
}

// ClearQuestionHistory empties the saved Q&A list after user confirmation.
func (a *App) ClearQuestionHistory(confirmed bool) error {
	if err := a.requireReady(); err != nil {
		return err
	}
	return a.prep.ClearHistory(confirmed)
}

// CopyAnswer writes the displayed answer to the clipboard.
func (a *App) CopyAnswer() error {
	if err := a.requireReady(); err != nil {
		return err
	}
	return a.prep.CopyAnswer(a.ctx)
}

// StartDictation begins voice capture for the question field.
func (a *App) StartDictation() error {
	if err := a.requireReady(); err != nil {
		return err
	}
	if err := a.prep.StartDictation(a.ctx); err != nil {
		a.SessionError(speechErrorCode(err), err.Error())
		return err
	}
	return nil
}

// StopDictation ends prep voice capture without generating.
func (a *App) StopDictation() error {
	if err := a.requireReady(); err != nil {
		return err
	}
	return a.prep.StopDictation()
}

// GetPrepStatus returns the technical Q&A flow snapshot.
func (a *App) GetPrepStatus() domain.PrepStatus {
	if a.prep == nil {
		return domain.PrepStatus{State: domain.SessionStateIdle}
	}
	return a.prep.Status()
}

// GetQuestionHistory returns saved Q&A records, most recent first.
func (a *App) GetQuestionHistory() []domain.QuestionRecord {
	if a.prep == nil {
		return nil
	}
	return a.prep.History()
}

// GetInterviewHistory returns all recorded interview turns, oldest first.
func (a *App) GetInterviewHistory() []domain.InterviewTurn {
	if a.interview == nil {
		return nil
	}
	return a.interview.History()
}

// GetJobRoles returns the selectable interview role catalog.
func (a *App) GetJobRoles() []domain.JobRole {
	if a.bootErr != nil {
		return config.DefaultRoles()
	}
	if a.cfg.Roles == nil {
		return config.DefaultRoles()
	}
	return a.cfg.Roles
}

// GetRuntimeInfo returns non-sensitive config for the UI.
func (a *App) GetRuntimeInfo() map[string]string {
	if a.bootErr != nil {
		return map[string]string{"error": a.bootErr.Error()}
	}

	return map[string]string{
		"provider":    a.cfg.Generation.Provider,
		"deployment":  a.cfg.Generation.Deployment,
		"speechModel": a.cfg.Speech.Model,
		"language":    a.cfg.Speech.Language,
		"dataDir":     a.cfg.Storage.DataDir,
		"rulesFile":   a.cfg.Storage.RulesFile,
	}
}

func (a *App) requireReady() error {
	if a.bootErr != nil {
		return a.bootErr
	}
	if a.interview == nil || a.prep == nil {
		return fmt.Errorf("application is not initialized")
	}
	return nil
}

func speechErrorCode(err error) domain.ErrorCode {
	if errors.Is(err, voice.ErrUnsupported) {
		return domain.ErrorCodeSpeechUnsupported
	}
	return domain.ErrorCodeSpeechCapture
}

// SessionStateChanged emits session lifecycle updates to the frontend.
func (a *App) SessionStateChanged(flow domain.Flow, state domain.SessionState, reason domain.StateReason) {
	if a.ctx == nil {
		return
	}
	runtime.EventsEmit(a.ctx, eventSession, map[string]string{
		"flow":    string(flow),
		"state":   string(state),
		"reason":  string(reason),
		"message": stateReasonMessage(reason),
	})
}

// StreamDelta emits one streamed generation chunk for live display.
func (a *App) StreamDelta(flow domain.Flow, text string) {
	if a.ctx == nil {
		return
	}
	runtime.EventsEmit(a.ctx, eventStream, map[string]string{
		"flow": string(flow),
		"text": text,
	})
}

// TranscriptUpdate emits the accumulated voice transcript.
func (a *App) TranscriptUpdate(flow domain.Flow, text string, isFinal bool) {
	if a.ctx == nil {
		return
	}
	runtime.EventsEmit(a.ctx, eventTranscript, map[string]any{
		"flow":    string(flow),
		"text":    text,
		"isFinal": isFinal,
	})
}

// QuestionReady emits a fully generated interview question.
func (a *App) QuestionReady(number int, total int, text string) {
	if a.ctx == nil {
		return
	}
	runtime.EventsEmit(a.ctx, eventQuestion, map[string]any{
		"number": number,
		"total":  total,
		"text":   text,
	})
}

// FeedbackReady emits a scored interview turn.
func (a *App) FeedbackReady(turn domain.InterviewTurn) {
	if a.ctx == nil {
		return
	}
	runtime.EventsEmit(a.ctx, eventFeedback, turn)
}

// AnswerReady emits a completed technical Q&A record.
func (a *App) AnswerReady(record domain.QuestionRecord) {
	if a.ctx == nil {
		return
	}
	runtime.EventsEmit(a.ctx, eventAnswer, record)
}

// SessionError emits backend errors to the UI.
func (a *App) SessionError(code domain.ErrorCode, detail string) {
	if a.ctx == nil {
		return
	}
	runtime.EventsEmit(a.ctx, eventError, map[string]string{
		"code":    string(code),
		"message": errorMessage(code, detail),
		"detail":  detail,
	})
}

func stateReasonMessage(reason domain.StateReason) string {
	switch reason {
	case domain.ReasonAppReady:
		return "Ready"
	case domain.ReasonInterviewStarted:
		return "Interview started"
	case domain.ReasonQuestionRequested:
		return "Generating next question..."
	case domain.ReasonQuestionStreaming:
		return "Generating question..."
	case domain.ReasonQuestionReady:
		return "Question ready"
	case domain.ReasonQuestionFailed:
		return "Failed to generate question. Please try again."
	case domain.ReasonAnswerSubmitted:
		return "Analyzing your response..."
	case domain.ReasonAnswerEmpty:
		return "I didn't catch your response. Please try again."
	case domain.ReasonFeedbackStreaming:
		return "Analyzing your response..."
	case domain.ReasonFeedbackReady:
		return "Feedback ready"
	case domain.ReasonFeedbackFailed:
		return "Failed to analyze your response. Please try again."
	case domain.ReasonInterviewCompleted:
		return "Interview complete"
	case domain.ReasonInterviewReset:
		return "Interview reset"
	case domain.ReasonAnswerRequested:
		return "Generating answer..."
	case domain.ReasonAnswerStreaming:
		return "Generating answer..."
	case domain.ReasonAnswerReady:
		return "Answer ready"
	case domain.ReasonAnswerFailed:
		return "Failed to generate an answer. Please try again."
	case domain.ReasonRecordLoaded:
		return "Loaded from history"
	case domain.ReasonRecordDeleted:
		return "Record deleted"
	case domain.ReasonHistoryCleared:
		return "History cleared"
	case domain.ReasonCaptureStarted:
		return "Listening..."
	case domain.ReasonCaptureStopped:
		return "Stopped listening"
	default:
		return ""
	}
}

func errorMessage(code domain.ErrorCode, detail string) string {
	switch code {
	case domain.ErrorCodeStartup:
		return "Startup failed"
	case domain.ErrorCodeGeneration:
		return "Generation failed"
	case domain.ErrorCodeValidation:
		return detail
	case domain.ErrorCodeSpeechUnsupported:
		return "Voice input is not supported on this system"
	case domain.ErrorCodeSpeechCapture:
		return "Voice capture error"
	case domain.ErrorCodeHistory:
		return "Failed to save history"
	case domain.ErrorCodeClipboard:
		return "Clipboard write failed"
	default:
		if detail == "" {
			return "Unknown error"
		}
		return detail
	}
}

type wailsClipboard struct{}

func (c *wailsClipboard) SetText(ctx context.Context, text string) error {
	return runtime.ClipboardSetText(ctx, text)
}
