package memstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTimeRangeTrackerEmptyNeverIntersects(t *testing.T) {
	tr := NewTimeRangeTracker()
	assert.True(t, tr.Empty())
	assert.False(t, tr.Intersects(0, 1000))
}

func TestTimeRangeTrackerWidensOnUpdate(t *testing.T) {
	tr := NewTimeRangeTracker()
	tr.Update(10)
	tr.Update(5)
	tr.Update(20)
	assert.Equal(t, int64(5), tr.Min())
	assert.Equal(t, int64(20), tr.Max())
}

func TestTimeRangeTrackerIntersects(t *testing.T) {
	tr := NewTimeRangeTracker()
	tr.Update(10)
	tr.Update(20)

	assert.True(t, tr.Intersects(15, 25))
	assert.True(t, tr.Intersects(0, 10))
	assert.False(t, tr.Intersects(21, 30))
	assert.False(t, tr.Intersects(0, 9))
}

func TestUnionMaxTreatsEmptyTrackerAsNoContribution(t *testing.T) {
	empty := NewTimeRangeTracker()
	full := NewTimeRangeTracker()
	full.Update(42)

	assert.Equal(t, int64(42), unionMax(empty, full))
	assert.Equal(t, int64(42), unionMax(full, empty))
	assert.Equal(t, int64(0), unionMax(empty, empty))
}
