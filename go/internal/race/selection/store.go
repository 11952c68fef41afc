// Package selection holds the user's current track and racer choice.
package selection

import (
	"sync"

	"github.com/mcdev12/racer/go/internal/models"
)

// Store keeps one track and one racer; choosing again replaces the
// previous value.
type Store struct {
	mu  sync.RWMutex
	sel models.Selection
}

func NewStore() *Store {
	return &Store{}
}

func (s *Store) SetTrack(id int, label string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sel.TrackID = id
	s.sel.TrackName = label
}

func (s *Store) SetRacer(id int, label string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sel.RacerID = id
	s.sel.RacerName = label
}

// Selection returns a copy of the current choice
func (s *Store) Selection() models.Selection {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sel
}

func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sel = models.Selection{}
}
