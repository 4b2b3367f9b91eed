// Package history maintains the bounded ring of recent schedule snapshots
// that the RPC server reads from: the newest full schedule plus, for each
// retained older snapshot, the delta that brings it up to the newest one.
package history

import (
	"log"
	"sync"

	"github.com/pkg/errors"

	"github.com/transitdb/scheduled/diffengine"
	"github.com/transitdb/scheduled/ir"
	"github.com/transitdb/scheduled/wire"
)

// MaxHistory bounds the number of retained snapshots.
const MaxHistory = 10

// ErrNotReady is returned by Read/GetLastUpdate before the first commit.
var ErrNotReady = errors.New("history store has no committed snapshot yet")

type entry struct {
	timestamp  uint32
	snapshot   *ir.ScheduleIR
	lastUpdate *diffengine.Update // empty for the newest entry until the next commit
}

// Store holds the schedule history behind a single reader-writer lock, per
// the concurrency model's "one lock, not three" simplification: history,
// the delta catalog, and the cached current full schedule are all fields
// of this one struct, so there is exactly one lock-acquisition order to
// reason about.
type Store struct {
	mu sync.RWMutex

	entries     []entry
	currentFull *wire.FullSchedule
	deltas      map[uint32][]byte
}

// NewStore returns an empty, not-yet-ready Store.
func NewStore() *Store {
	return &Store{
		deltas: map[uint32][]byte{},
	}
}

// ReadResult is what a client receives from Read: exactly one of Full or
// Delta is set, alongside the newest origin timestamp.
type ReadResult struct {
	Full     *wire.FullSchedule
	Delta    []byte
	NewestTS uint32
}

// Commit records a newly built IR as the current snapshot at time t,
// evicting the oldest entry if the ring is full, and recomputes every
// retained entry's delta to the new snapshot.
func (s *Store) Commit(n *ir.ScheduleIR, t uint32) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Work against a local copy of the ring until every fatal check below
	// has passed: on a data-invariant violation the commit aborts and the
	// previous History state must remain exactly as it was, so nothing is
	// written to s.entries/s.deltas/s.currentFull before that point.
	working := s.entries
	if len(working) == MaxHistory {
		working = working[1:]
	}

	var prev *ir.ScheduleIR
	if len(working) > 0 {
		prev = working[len(working)-1].snapshot
	} else {
		prev = n
	}
	prevDiff, err := diffengine.Diff(n, prev)
	if err != nil {
		log.Printf("history: commit aborted, data invariant violated: %v", err)
		return errors.Wrap(err, "diffing against previous newest snapshot")
	}

	working = append(working, entry{
		timestamp:  t,
		snapshot:   n,
		lastUpdate: diffengine.NewUpdate(),
	})

	newDeltas := map[uint32][]byte{}
	newEntries := make([]entry, len(working))
	for i, e := range working {
		direct, err := diffengine.Diff(n, e.snapshot)
		if err != nil {
			log.Printf("history: commit aborted, data invariant violated for entry ts=%d: %v", e.timestamp, err)
			return errors.Wrapf(err, "diffing against retained snapshot ts=%d", e.timestamp)
		}

		// Consistency check: combining this entry's last outgoing
		// update with the diff from the previous newest snapshot to
		// the new one should reproduce the same delta. A mismatch
		// never aborts the commit already in progress for the newest
		// entry; it is logged and the directly computed delta is
		// used regardless.
		alt, err := diffengine.Combine(e.lastUpdate, prevDiff)
		if err != nil {
			log.Printf("history: consistency check combine failed for entry ts=%d: %v", e.timestamp, err)
		} else if got, err := diffengine.Apply(alt, e.snapshot); err != nil {
			log.Printf("history: consistency check apply failed for entry ts=%d: %v", e.timestamp, err)
		} else if eq, err := scheduleEqual(got, n); err != nil {
			log.Printf("history: consistency check diff failed for entry ts=%d: %v", e.timestamp, err)
		} else if !eq {
			log.Printf("history: consistency check mismatch for entry ts=%d: combine(last_update, prev_diff) != direct diff", e.timestamp)
		}

		serialized, err := wire.Marshal(wire.FromUpdate(direct))
		if err != nil {
			return errors.Wrapf(err, "serializing delta for entry ts=%d", e.timestamp)
		}

		newDeltas[e.timestamp] = serialized
		newEntries[i] = entry{
			timestamp:  e.timestamp,
			snapshot:   e.snapshot,
			lastUpdate: direct,
		}
	}

	if len(newDeltas) != len(newEntries) {
		return errors.Errorf("history invariant violated: %d deltas for %d entries", len(newDeltas), len(newEntries))
	}

	s.entries = newEntries
	s.deltas = newDeltas
	s.currentFull = wire.FromScheduleIR(n)

	return nil
}

// Read returns the full schedule or a delta for clientTS, whichever the
// store holds, plus the newest known timestamp.
func (s *Store) Read(clientTS uint32) (*ReadResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.entries) == 0 || s.currentFull == nil {
		return nil, ErrNotReady
	}

	newest := s.entries[len(s.entries)-1].timestamp

	if delta, ok := s.deltas[clientTS]; ok {
		return &ReadResult{Delta: delta, NewestTS: newest}, nil
	}

	return &ReadResult{Full: s.currentFull, NewestTS: newest}, nil
}

// GetLastUpdate returns the newest committed timestamp.
func (s *Store) GetLastUpdate() (uint32, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.entries) == 0 {
		return 0, ErrNotReady
	}
	return s.entries[len(s.entries)-1].timestamp, nil
}

// scheduleEqual reports whether a and b carry identical content, for the
// non-fatal §4.3 consistency check above. It is not the path that enforces
// Data Model invariant 2: a route-set mismatch here is reported through err
// like any other diff failure, and the caller logs it without aborting.
func scheduleEqual(a, b *ir.ScheduleIR) (bool, error) {
	if len(a.Routes) != len(b.Routes) || len(a.Shapes) != len(b.Shapes) || len(a.Stops) != len(b.Stops) {
		return false, nil
	}
	d, err := diffengine.Diff(b, a)
	if err != nil {
		return false, err
	}
	return d.IsEmpty(), nil
}
