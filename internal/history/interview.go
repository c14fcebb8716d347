package history

import (
	"sync"

	"prepdeck/internal/domain"
)

// InterviewStore is the append-only list of completed interview turns.
type InterviewStore struct {
	path string

	mu    sync.Mutex
	turns []domain.InterviewTurn
}

// NewInterviewStore loads any previously persisted turns from path.
func NewInterviewStore(path string) (*InterviewStore, error) {
	turns, err := readList[domain.InterviewTurn](path)
	if err != nil {
		return nil, err
	}
	return &InterviewStore{path: path, turns: turns}, nil
}

// Append records one finished turn and persists the full list.
func (s *InterviewStore) Append(turn domain.InterviewTurn) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.turns = append(s.turns, turn)
	return writeList(s.path, s.turns)
}

// All returns the turns in original order, oldest first.
func (s *InterviewStore) All() []domain.InterviewTurn {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]domain.InterviewTurn, len(s.turns))
	copy(out, s.turns)
	return out
}

// RecentQuestions returns up to n of the most recently asked questions,
// oldest of the window first.
func (s *InterviewStore) RecentQuestions(n int) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	start := len(s.turns) - n
	if start < 0 {
		start = 0
	}

	questions := make([]string, 0, len(s.turns)-start)
	for _, turn := range s.turns[start:] {
		questions = append(questions, turn.Question)
	}
	return questions
}

// Len reports how many turns have been recorded.
func (s *InterviewStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.turns)
}
