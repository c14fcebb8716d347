package usecase

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"prepdeck/internal/domain"
	"prepdeck/internal/history"
)

func newPrepForTest(t *testing.T, gen *fakeGenerator) (*PrepController, *fakeVoice, *fakeClipboard, *recordingSink, *history.QuestionStore) {
	t.Helper()

	store, err := history.NewQuestionStore(filepath.Join(t.TempDir(), "questions.json"))
	if err != nil {
		t.Fatalf("store failed: %v", err)
	}

	voice := &fakeVoice{}
	clipboard := &fakeClipboard{}
	sink := &recordingSink{}
	controller, err := NewPrepController(gen, voice, store, clipboard, sink, PrepConfig{Provider: "azure-gpt-4o"})
	if err != nil {
		t.Fatalf("controller failed: %v", err)
	}
	controller.newID = sequentialIDs()
	return controller, voice, clipboard, sink, store
}

func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return []string{"id-1", "id-2", "id-3", "id-4"}[n-1]
	}
}

func TestGenerateAnswerDetectsDomainAndPrepends(t *testing.T) {
	t.Parallel()

	gen := &fakeGenerator{responses: []genResponse{
		{full: "## Domain: Data Structures\nA hash map stores key/value pairs..."},
	}}
	controller, _, _, sink, store := newPrepForTest(t, gen)

	if err := controller.GenerateAnswer(context.Background(), "What is a hash map?", "brief"); err != nil {
		t.Fatalf("generate failed: %v", err)
	}

	status := controller.Status()
	if status.Domain != "Data Structures" {
		t.Fatalf("unexpected detected domain: %q", status.Domain)
	}
	if status.AnswerType != domain.AnswerBrief {
		t.Fatalf("unexpected answer type: %q", status.AnswerType)
	}
	if status.RecordID != "id-1" {
		t.Fatalf("unexpected record id: %q", status.RecordID)
	}

	records := store.All()
	if len(records) != 1 {
		t.Fatalf("expected one record, got %d", len(records))
	}
	if records[0].DetectedDomain != "Data Structures" || records[0].Question != "What is a hash map?" {
		t.Fatalf("unexpected record: %+v", records[0])
	}
	if len(sink.answers) != 1 {
		t.Fatalf("expected one answer event")
	}
}

func TestGenerateAnswerOrdersMostRecentFirst(t *testing.T) {
	t.Parallel()

	gen := &fakeGenerator{responses: []genResponse{
		{full: "Domain: Go\nfirst answer"},
		{full: "Domain: Go\nsecond answer"},
	}}
	controller, _, _, _, store := newPrepForTest(t, gen)

	if err := controller.GenerateAnswer(context.Background(), "first?", "detailed"); err != nil {
		t.Fatalf("generate failed: %v", err)
	}
	if err := controller.GenerateAnswer(context.Background(), "second?", "detailed"); err != nil {
		t.Fatalf("generate failed: %v", err)
	}

	records := store.All()
	if len(records) != 2 || records[0].Question != "second?" {
		t.Fatalf("expected most-recent-first ordering, got %+v", records)
	}
}

func TestGenerateAnswerRejectsEmptyQuestion(t *testing.T) {
	t.Parallel()

	gen := &fakeGenerator{}
	controller, _, _, sink, store := newPrepForTest(t, gen)

	if err := controller.GenerateAnswer(context.Background(), "  ", "detailed"); !errors.Is(err, ErrEmptyQuestion) {
		t.Fatalf("expected ErrEmptyQuestion, got %v", err)
	}
	if gen.callCount() != 0 {
		t.Fatalf("empty question must not reach the generator")
	}
	if !sink.hasErrorCode(domain.ErrorCodeValidation) {
		t.Fatalf("expected a validation error event")
	}
	if store.Len() != 0 {
		t.Fatalf("nothing should be recorded")
	}
}

func TestGenerateAnswerFailureSetsFixedMessage(t *testing.T) {
	t.Parallel()

	gen := &fakeGenerator{responses: []genResponse{{err: errors.New("boom")}}}
	controller, _, _, sink, store := newPrepForTest(t, gen)

	if err := controller.GenerateAnswer(context.Background(), "What is TCP?", "detailed"); err != nil {
		t.Fatalf("generation errors must not propagate, got %v", err)
	}

	if got := controller.Status().Answer; got != answerFailedMessage {
		t.Fatalf("unexpected answer: %q", got)
	}
	if !sink.hasErrorCode(domain.ErrorCodeGeneration) {
		t.Fatalf("expected a generation error event")
	}
	if store.Len() != 0 {
		t.Fatalf("failed generations must not be recorded")
	}
}

func TestLoadRecordCopiesWithoutMutatingHistory(t *testing.T) {
	t.Parallel()

	gen := &fakeGenerator{responses: []genResponse{
		{full: "Domain: Networking\nTCP is a reliable transport."},
	}}
	controller, _, _, _, store := newPrepForTest(t, gen)

	if err := controller.GenerateAnswer(context.Background(), "What is TCP?", "detailed"); err != nil {
		t.Fatalf("generate failed: %v", err)
	}
	before := store.All()

	if err := controller.LoadRecord("id-1"); err != nil {
		t.Fatalf("load failed: %v", err)
	}
	status := controller.Status()
	if status.Question != "What is TCP?" || status.Domain != "Networking" {
		t.Fatalf("unexpected display: %+v", status)
	}

	after := store.All()
	if len(after) != len(before) || after[0] != before[0] {
		t.Fatalf("load must not mutate history")
	}

	if err := controller.LoadRecord("missing"); !errors.Is(err, ErrRecordNotFound) {
		t.Fatalf("expected ErrRecordNotFound, got %v", err)
	}
}

func TestToggleBookmarkUnknownIDIsNoop(t *testing.T) {
	t.Parallel()

	gen := &fakeGenerator{responses: []genResponse{{full: "Domain: Go\nanswer"}}}
	controller, _, _, _, store := newPrepForTest(t, gen)

	if err := controller.GenerateAnswer(context.Background(), "q?", "detailed"); err != nil {
		t.Fatalf("generate failed: %v", err)
	}

	bookmarked, err := controller.ToggleBookmark("id-1")
	if err != nil || !bookmarked {
		t.Fatalf("expected bookmark on, got %v %v", bookmarked, err)
	}
	bookmarked, err = controller.ToggleBookmark("id-1")
	if err != nil || bookmarked {
		t.Fatalf("expected bookmark off, got %v %v", bookmarked, err)
	}

	if _, err := controller.ToggleBookmark("missing"); err != nil {
		t.Fatalf("unknown id must be a no-op, got %v", err)
	}
	if store.All()[0].Bookmarked {
		t.Fatalf("double toggle must restore the original value")
	}
}

func TestDeleteRecordClearsDisplayOnlyForCurrent(t *testing.T) {
	t.Parallel()

	gen := &fakeGenerator{responses: []genResponse{
		{full: "Domain: Go\nfirst"},
		{full: "Domain: Go\nsecond"},
	}}
	controller, _, _, _, store := newPrepForTest(t, gen)

	if err := controller.GenerateAnswer(context.Background(), "first?", "detailed"); err != nil {
		t.Fatalf("generate failed: %v", err)
	}
	if err := controller.GenerateAnswer(context.Background(), "second?", "detailed"); err != nil {
		t.Fatalf("generate failed: %v", err)
	}

	// Deleting a non-displayed record leaves the display alone.
	if err := controller.DeleteRecord("id-1"); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if got := controller.Status().Question; got != "second?" {
		t.Fatalf("display should be untouched, got %q", got)
	}

	// Deleting the displayed record clears it.
	if err := controller.DeleteRecord("id-2"); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	status := controller.Status()
	if status.RecordID != "" || status.Question != "" || status.Answer != "" {
		t.Fatalf("display should be cleared, got %+v", status)
	}
	if store.Len() != 0 {
		t.Fatalf("expected empty store, got %d", store.Len())
	}

	if err := controller.DeleteRecord("missing"); err != nil {
		t.Fatalf("deleting an unknown id must be a no-op, got %v", err)
	}
}

func TestClearHistoryRequiresConfirmation(t *testing.T) {
	t.Parallel()

	gen := &fakeGenerator{responses: []genResponse{{full: "Domain: Go\nanswer"}}}
	controller, _, _, _, store := newPrepForTest(t, gen)

	if err := controller.GenerateAnswer(context.Background(), "q?", "detailed"); err != nil {
		t.Fatalf("generate failed: %v", err)
	}

	if err := controller.ClearHistory(false); !errors.Is(err, ErrNotConfirmed) {
		t.Fatalf("expected ErrNotConfirmed, got %v", err)
	}
	if store.Len() != 1 {
		t.Fatalf("unconfirmed clear must not touch history")
	}

	if err := controller.ClearHistory(true); err != nil {
		t.Fatalf("clear failed: %v", err)
	}
	if store.Len() != 0 {
		t.Fatalf("expected empty history")
	}
	if got := controller.Status().Question; got != "" {
		t.Fatalf("display should be cleared, got %q", got)
	}
}

func TestCopyAnswer(t *testing.T) {
	t.Parallel()

	gen := &fakeGenerator{responses: []genResponse{{full: "Domain: Go\nthe answer"}}}
	controller, _, clipboard, _, _ := newPrepForTest(t, gen)

	if err := controller.CopyAnswer(context.Background()); !errors.Is(err, ErrNothingToCopy) {
		t.Fatalf("expected ErrNothingToCopy, got %v", err)
	}

	if err := controller.GenerateAnswer(context.Background(), "q?", "detailed"); err != nil {
		t.Fatalf("generate failed: %v", err)
	}
	if err := controller.CopyAnswer(context.Background()); err != nil {
		t.Fatalf("copy failed: %v", err)
	}
	if clipboard.text != "Domain: Go\nthe answer" {
		t.Fatalf("unexpected clipboard text: %q", clipboard.text)
	}
}

func TestDictationTranscriptFeedsQuestionAndAutoGenerates(t *testing.T) {
	t.Parallel()

	gen := &fakeGenerator{responses: []genResponse{{full: "Domain: Go\nslices grow by reallocation"}}}
	controller, voice, _, _, store := newPrepForTest(t, gen)

	if err := controller.StartDictation(context.Background()); err != nil {
		t.Fatalf("start dictation failed: %v", err)
	}

	voice.handlers.OnTranscript("how do slices grow", false)
	if got := controller.Status().Question; got != "how do slices grow" {
		t.Fatalf("unexpected question: %q", got)
	}

	voice.handlers.OnAutoSubmit("how do slices grow in go")
	if store.Len() != 1 {
		t.Fatalf("expected auto-generated record")
	}
	if got := controller.Status().Question; got != "how do slices grow in go" {
		t.Fatalf("unexpected question: %q", got)
	}
}
