package state

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/five82/loglens/internal/logpage"
)

// Snapshot is the fetch health shown in the status bar.
type Snapshot struct {
	LastDirection       logpage.Direction
	LastAdded           int
	TotalFetched        int
	LastUpdated         time.Time
	LastSuccess         time.Time
	LastError           error
	AnchorMissing       bool
	ConsecutiveFailures int // Number of consecutive fetch failures
}

// IsOffline returns true when the source has failed several fetches in a row.
func (s Snapshot) IsOffline() bool {
	return s.ConsecutiveFailures >= 2
}

// Store coordinates concurrent updates to the snapshot.
type Store struct {
	mu       sync.RWMutex
	snapshot Snapshot
}

// Record stores the outcome of one fetch. When err is non-nil the counters of
// previous successes are kept and the error is recorded for visibility.
func (s *Store) Record(dir logpage.Direction, added int, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	s.snapshot.LastDirection = dir
	s.snapshot.LastUpdated = now
	if err != nil {
		s.snapshot.LastError = err
		if errors.Is(err, logpage.ErrAnchorNotFound) {
			s.snapshot.AnchorMissing = true
			return
		}
		s.snapshot.ConsecutiveFailures++
		return
	}

	s.snapshot.LastAdded = added
	s.snapshot.TotalFetched += added
	s.snapshot.LastError = nil
	s.snapshot.LastSuccess = now
	s.snapshot.AnchorMissing = false
	s.snapshot.ConsecutiveFailures = 0
}

// Reset forgets everything, used when the viewer opens a new anchor.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshot = Snapshot{}
}

// Snapshot returns a copy of the current snapshot.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := s.snapshot
	if s.snapshot.LastError != nil {
		snap.LastError = fmt.Errorf("%w", s.snapshot.LastError)
	}
	return snap
}
