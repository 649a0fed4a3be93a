package portal

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSubmissionTrackerLatestWins(t *testing.T) {
	tracker := NewSubmissionTracker()

	first := tracker.Begin("browser-1", "sign-in")
	assert.True(t, tracker.IsCurrent(first))

	second := tracker.Begin("browser-1", "sign-in")
	assert.False(t, tracker.IsCurrent(first))
	assert.True(t, tracker.IsCurrent(second))
	assert.Greater(t, second.Generation, first.Generation)
}

func TestSubmissionTrackerPairsAreIndependent(t *testing.T) {
	tracker := NewSubmissionTracker()

	signIn := tracker.Begin("browser-1", "sign-in")
	tracker.Begin("browser-1", "sign-up")
	tracker.Begin("browser-2", "sign-in")

	assert.True(t, tracker.IsCurrent(signIn))
	assert.Equal(t, 3, tracker.Len())
}

func TestSubmissionTrackerUnknownTicket(t *testing.T) {
	tracker := NewSubmissionTracker()
	assert.False(t, tracker.IsCurrent(Ticket{Key: "nope|sign-in", Generation: 1}))
}

func TestSubmissionTrackerPrune(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	tracker := NewSubmissionTracker(
		WithTrackerClock(func() time.Time { return now }),
		WithTrackerLimits(time.Minute, 2),
	)

	old := tracker.Begin("browser-1", "sign-in")
	tracker.Begin("browser-2", "sign-in")

	now = now.Add(2 * time.Minute)
	fresh := tracker.Begin("browser-3", "sign-in")

	assert.Equal(t, 1, tracker.Len())
	assert.False(t, tracker.IsCurrent(old))
	assert.True(t, tracker.IsCurrent(fresh))
	assert.Zero(t, tracker.Prune())
}

func TestSubmissionTrackerConcurrentBegin(t *testing.T) {
	tracker := NewSubmissionTracker()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tracker.Begin("browser-1", "sign-in")
		}()
	}
	wg.Wait()

	last := tracker.Begin("browser-1", "sign-in")
	assert.Equal(t, uint64(51), last.Generation)
	assert.True(t, tracker.IsCurrent(last))
}
