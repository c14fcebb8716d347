package history

import (
	"sync"

	"prepdeck/internal/domain"
)

// QuestionStore is the most-recent-first list of saved technical Q&A records.
type QuestionStore struct {
	path string

	mu    sync.Mutex
	items []domain.QuestionRecord
}

// NewQuestionStore loads any previously persisted records from path.
func NewQuestionStore(path string) (*QuestionStore, error) {
	items, err := readList[domain.QuestionRecord](path)
	if err != nil {
		return nil, err
	}
	return &QuestionStore{path: path, items: items}, nil
}

// Prepend inserts a new record at the front and persists the full list.
func (s *QuestionStore) Prepend(record domain.QuestionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.items = append([]domain.QuestionRecord{record}, s.items...)
	return writeList(s.path, s.items)
}

// Get returns the record with the given id.
func (s *QuestionStore) Get(id string) (domain.QuestionRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, item := range s.items {
		if item.ID == id {
			return item, true
		}
	}
	return domain.QuestionRecord{}, false
}

// ToggleBookmark flips the bookmark flag on the matching record. It reports
// false, without persisting, when the id is unknown.
func (s *QuestionStore) ToggleBookmark(id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.items {
		if s.items[i].ID == id {
			s.items[i].Bookmarked = !s.items[i].Bookmarked
			return true, writeList(s.path, s.items)
		}
	}
	return false, nil
}

// Delete removes the record with the given id, reporting whether it existed.
func (s *QuestionStore) Delete(id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.items {
		if s.items[i].ID == id {
			s.items = append(s.items[:i], s.items[i+1:]...)
			return true, writeList(s.path, s.items)
		}
	}
	return false, nil
}

// Clear empties the list.
func (s *QuestionStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.items = nil
	return writeList(s.path, s.items)
}

// All returns the records, most recent first.
func (s *QuestionStore) All() []domain.QuestionRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]domain.QuestionRecord, len(s.items))
	copy(out, s.items)
	return out
}

// Len reports how many records are stored.
func (s *QuestionStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}
