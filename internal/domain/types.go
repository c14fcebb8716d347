package domain

// Flow identifies which of the two session flows an event belongs to.
type Flow string

const (
	FlowInterview Flow = "interview"
	FlowPrep      Flow = "prep"
)

// SessionState models the lifecycle of one rehearsal or Q&A session.
type SessionState string

const (
	SessionStateIdle      SessionState = "idle"
	SessionStateAwaiting  SessionState = "awaiting_response"
	SessionStateStreaming SessionState = "streaming"
	SessionStateListening SessionState = "listening"
	SessionStateScoring   SessionState = "scoring_feedback"
	SessionStateFeedback  SessionState = "feedback"
	SessionStateCompleted SessionState = "completed"
)

// StateReason provides a structured reason for state transitions.
type StateReason string

const (
	ReasonAppReady           StateReason = "app_ready"
	ReasonInterviewStarted   StateReason = "interview_started"
	ReasonQuestionRequested  StateReason = "question_requested"
	ReasonQuestionStreaming  StateReason = "question_streaming"
	ReasonQuestionReady      StateReason = "question_ready"
	ReasonQuestionFailed     StateReason = "question_failed"
	ReasonAnswerSubmitted    StateReason = "answer_submitted"
	ReasonAnswerEmpty        StateReason = "answer_empty"
	ReasonFeedbackStreaming  StateReason = "feedback_streaming"
	ReasonFeedbackReady      StateReason = "feedback_ready"
	ReasonFeedbackFailed     StateReason = "feedback_failed"
	ReasonInterviewCompleted StateReason = "interview_completed"
	ReasonInterviewReset     StateReason = "interview_reset"
	ReasonAnswerRequested    StateReason = "answer_requested"
	ReasonAnswerStreaming    StateReason = "answer_streaming"
	ReasonAnswerReady        StateReason = "answer_ready"
	ReasonAnswerFailed       StateReason = "answer_failed"
	ReasonRecordLoaded       StateReason = "record_loaded"
	ReasonRecordDeleted      StateReason = "record_deleted"
	ReasonHistoryCleared     StateReason = "history_cleared"
	ReasonCaptureStarted     StateReason = "capture_started"
	ReasonCaptureStopped     StateReason = "capture_stopped"
)

// ErrorCode identifies non-fatal backend errors surfaced to the UI.
type ErrorCode string

const (
	ErrorCodeStartup           ErrorCode = "startup"
	ErrorCodeGeneration        ErrorCode = "generation"
	ErrorCodeValidation        ErrorCode = "validation"
	ErrorCodeSpeechUnsupported ErrorCode = "speech_unsupported"
	ErrorCodeSpeechCapture     ErrorCode = "speech_capture"
	ErrorCodeHistory           ErrorCode = "history"
	ErrorCodeClipboard         ErrorCode = "clipboard"
)

// TranscriptKind identifies whether a speech event carries partial or final text.
type TranscriptKind string

const (
	TranscriptKindPartial TranscriptKind = "partial"
	TranscriptKindFinal   TranscriptKind = "final"
)

// TranscriptEvent represents incremental recognition output from a speech provider.
type TranscriptEvent struct {
	Kind          TranscriptKind `json:"kind"`
	Text          string         `json:"text"`
	IsSpeechFinal bool           `json:"isSpeechFinal"`
}

// AnswerType selects the verbosity of a generated technical answer.
type AnswerType string

const (
	AnswerDetailed AnswerType = "detailed"
	AnswerBrief    AnswerType = "brief"
	AnswerCodeOnly AnswerType = "code-only"
)

// ParseAnswerType maps a raw string onto a known answer type, defaulting to detailed.
func ParseAnswerType(raw string) AnswerType {
	switch AnswerType(raw) {
	case AnswerBrief:
		return AnswerBrief
	case AnswerCodeOnly:
		return AnswerCodeOnly
	default:
		return AnswerDetailed
	}
}

// InterviewTurn is one completed question/answer/feedback round of a mock
// interview. Turns are append-only; they are never edited or deleted.
type InterviewTurn struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
	Feedback string `json:"feedback"`
	Score    int    `json:"score"`
}

// QuestionRecord is one saved technical Q&A lookup. Only the bookmark flag is
// ever mutated after creation.
type QuestionRecord struct {
	ID             string     `json:"id"`
	Question       string     `json:"question"`
	Answer         string     `json:"answer"`
	DetectedDomain string     `json:"detectedDomain"`
	AnswerType     AnswerType `json:"answerType"`
	Timestamp      int64      `json:"timestamp"`
	Bookmarked     bool       `json:"isBookmarked"`
}

// InterviewStatus summarizes the interview flow for the UI.
type InterviewStatus struct {
	State          SessionState `json:"state"`
	JobRole        string       `json:"jobRole"`
	Question       string       `json:"question"`
	Answer         string       `json:"answer"`
	Feedback       string       `json:"feedback"`
	Score          int          `json:"score"`
	QuestionNumber int          `json:"questionNumber"`
	TotalQuestions int          `json:"totalQuestions"`
	Listening      bool         `json:"listening"`
}

// PrepStatus summarizes the technical Q&A flow for the UI.
type PrepStatus struct {
	State      SessionState `json:"state"`
	RecordID   string       `json:"recordId"`
	Question   string       `json:"question"`
	Answer     string       `json:"answer"`
	Domain     string       `json:"domain"`
	AnswerType AnswerType   `json:"answerType"`
	Listening  bool         `json:"listening"`
}

// JobRole is one selectable interview target from the role catalog.
type JobRole struct {
	ID          string `json:"id" yaml:"id"`
	Title       string `json:"title" yaml:"title"`
	Description string `json:"description" yaml:"description"`
}
