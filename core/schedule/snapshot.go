package schedule

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// Snapshot is the result of one successful load. It is never modified
// after NewSnapshot returns.
type Snapshot struct {
	ID       string      `json:"id"`
	LoadedAt time.Time   `json:"loadedAt"`
	Records  []Record    `json:"records"`
	Merged   []MergedRow `json:"merged"`
}

// NewSnapshot builds a snapshot and its merged league-skin rows.
func NewSnapshot(records []Record, now time.Time) *Snapshot {
	if records == nil {
		records = []Record{}
	}
	return &Snapshot{
		ID:       uuid.NewString(),
		LoadedAt: now,
		Records:  records,
		Merged:   MergeLeagueSkins(records),
	}
}

// Store holds the current snapshot and the last load failure. Both are
// published together: readers see either the previous or the new state in
// full, never a new snapshot with a stale error.
type Store struct {
	mu  sync.Mutex // serializes writers
	cur atomic.Pointer[storeState]
}

type storeState struct {
	snap *Snapshot
	err  error
}

// NewStore returns an empty store.
func NewStore() *Store {
	s := &Store{}
	s.cur.Store(&storeState{})
	return s
}

// Current returns the latest snapshot or nil before the first load.
func (s *Store) Current() *Snapshot { return s.cur.Load().snap }

// State returns the snapshot and the last failure as one consistent pair.
func (s *Store) State() (*Snapshot, error) {
	st := s.cur.Load()
	return st.snap, st.err
}

// Replace installs snap and clears the last failure.
func (s *Store) Replace(snap *Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cur.Store(&storeState{snap: snap})
}

// Fail records a load failure. The current snapshot is kept.
func (s *Store) Fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cur.Store(&storeState{snap: s.cur.Load().snap, err: err})
}

// Err returns the last load failure, if the latest attempt failed.
func (s *Store) Err() error { return s.cur.Load().err }
