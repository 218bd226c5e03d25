package state

import (
	"sync"
	"time"
)

// Snapshot is a point-in-time copy of the form surfaces for rendering.
type Snapshot struct {
	// The single saved-answer record. Empty Name means nothing is saved.
	SavedName   string
	SavedGender string

	// The three text-output regions.
	ErrorText      string
	PredictionText string
	SavedText      string

	UpdatedAt time.Time
}

// FormState holds the one mutable saved-answer record and the display
// surfaces. The source relied on a single-threaded event loop for race
// freedom; here a single mutex stands in for it. Overlapping prediction
// fetches still race on the surfaces on purpose: last write wins.
type FormState struct {
	mu   sync.RWMutex
	snap Snapshot
}

func New() *FormState {
	return &FormState{}
}

func (s *FormState) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap
}

// SetError overwrites the error surface. Only the most recent error is
// visible; callers pass "" to clear it on success.
func (s *FormState) SetError(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap.ErrorText = msg
	s.snap.UpdatedAt = time.Now()
}

func (s *FormState) SetPrediction(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap.PredictionText = text
	s.snap.UpdatedAt = time.Now()
}

func (s *FormState) SetSavedText(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap.SavedText = text
	s.snap.UpdatedAt = time.Now()
}

// SetAnswer overwrites the saved-answer record.
func (s *FormState) SetAnswer(name, gender string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap.SavedName = name
	s.snap.SavedGender = gender
	s.snap.UpdatedAt = time.Now()
}

// ClearAnswer blanks the record's name and returns the name it held, so the
// caller can remove the matching store entry.
func (s *FormState) ClearAnswer() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	name := s.snap.SavedName
	s.snap.SavedName = ""
	s.snap.SavedGender = ""
	s.snap.UpdatedAt = time.Now()
	return name
}
