// Package progress aggregates scan counters and results across workers.
package progress

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/s3tools/s3grep/scantypes"
)

// Aggregator collects counters, matches, and per-object errors from
// concurrently running workers. Counter reads never block writers, so a
// consumer may poll Snapshot while a scan is in flight.
type Aggregator struct {
	objectsScanned atomic.Int64
	bytesScanned   atomic.Int64
	matchesFound   atomic.Int64
	errorsSeen     atomic.Int64
	binarySkipped  atomic.Int64

	mu      sync.Mutex
	matches []scantypes.MatchRecord
	errs    []scantypes.ObjectError
}

// New returns an empty aggregator.
func New() *Aggregator {
	return &Aggregator{}
}

// ObjectScanned records one fully processed object.
func (a *Aggregator) ObjectScanned() {
	a.objectsScanned.Add(1)
}

// AddBytes records n decoded bytes scanned.
func (a *Aggregator) AddBytes(n int64) {
	a.bytesScanned.Add(n)
}

// AddMatch records one matching line.
func (a *Aggregator) AddMatch(rec scantypes.MatchRecord) {
	a.matchesFound.Add(1)
	a.mu.Lock()
	a.matches = append(a.matches, rec)
	a.mu.Unlock()
}

// AddError records one per-object failure.
func (a *Aggregator) AddError(key string, err error) {
	a.errorsSeen.Add(1)
	a.mu.Lock()
	a.errs = append(a.errs, scantypes.ObjectError{Key: key, Err: err})
	a.mu.Unlock()
}

// BinarySkipped records one object skipped by the binary heuristic.
// Skips are not errors and do not count toward ObjectsScanned.
func (a *Aggregator) BinarySkipped() {
	a.binarySkipped.Add(1)
}

// Snapshot returns the current counter values. Individual counters are
// each internally consistent; the set as a whole is a point-in-time
// approximation while workers are still running.
func (a *Aggregator) Snapshot() scantypes.ProgressSnapshot {
	return scantypes.ProgressSnapshot{
		ObjectsScanned: a.objectsScanned.Load(),
		BytesScanned:   a.bytesScanned.Load(),
		MatchesFound:   a.matchesFound.Load(),
		ErrorsSeen:     a.errorsSeen.Load(),
		BinarySkipped:  a.binarySkipped.Load(),
	}
}

// Outcome assembles the final result after all workers have stopped.
// Matches and errors are returned in the order they were recorded.
func (a *Aggregator) Outcome(elapsed time.Duration) *scantypes.ScanOutcome {
	snap := a.Snapshot()

	a.mu.Lock()
	matches := make([]scantypes.MatchRecord, len(a.matches))
	copy(matches, a.matches)
	errs := make([]scantypes.ObjectError, len(a.errs))
	copy(errs, a.errs)
	a.mu.Unlock()

	return &scantypes.ScanOutcome{
		ObjectsScanned: snap.ObjectsScanned,
		BytesScanned:   snap.BytesScanned,
		MatchesFound:   snap.MatchesFound,
		BinarySkipped:  snap.BinarySkipped,
		Matches:        matches,
		Errors:         errs,
		Duration:       elapsed,
	}
}
