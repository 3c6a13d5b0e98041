package memstore

import "sync"

// TimeRangeTracker keeps a rolling [min, max] timestamp window over every
// cell inserted while it is live. MemStore keeps one per live set and one
// per snapshot set; shouldSeek unions the two to decide whether a scan can
// skip the memstore entirely.
type TimeRangeTracker struct {
	mu      sync.Mutex
	min     int64
	max     int64
	nonZero bool
}

// NewTimeRangeTracker returns an empty tracker. An empty tracker contains no
// timestamps and Intersects always reports false against it.
func NewTimeRangeTracker() *TimeRangeTracker {
	return &TimeRangeTracker{}
}

// Update widens the tracked window to include ts.
func (t *TimeRangeTracker) Update(ts int64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.nonZero {
		t.min, t.max = ts, ts
		t.nonZero = true
		return
	}
	if ts < t.min {
		t.min = ts
	}
	if ts > t.max {
		t.max = ts
	}
}

// Min returns the smallest timestamp observed, or 0 if the tracker is empty.
func (t *TimeRangeTracker) Min() int64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.min
}

// Max returns the largest timestamp observed, or 0 if the tracker is empty.
func (t *TimeRangeTracker) Max() int64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.max
}

// Empty reports whether Update has never been called.
func (t *TimeRangeTracker) Empty() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return !t.nonZero
}

// Intersects reports whether [lo, hi] overlaps the tracked window. An empty
// tracker never intersects anything.
func (t *TimeRangeTracker) Intersects(lo, hi int64) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.nonZero {
		return false
	}
	return lo <= t.max && hi >= t.min
}

// unionMax returns the larger of two trackers' Max(), treating an empty
// tracker as having no contribution.
func unionMax(a, b *TimeRangeTracker) int64 {
	aEmpty, bEmpty := a.Empty(), b.Empty()
	switch {
	case aEmpty && bEmpty:
		return 0
	case aEmpty:
		return b.Max()
	case bEmpty:
		return a.Max()
	default:
		am, bm := a.Max(), b.Max()
		if am > bm {
			return am
		}
		return bm
	}
}
