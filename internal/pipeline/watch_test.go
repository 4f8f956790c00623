package pipeline

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestWatcher_DebounceCoalescesRapidSchedulesIntoOneFire(t *testing.T) {
	var mu sync.Mutex
	var fires [][]string

	w := NewWatcher(20, func(paths []string) {
		mu.Lock()
		defer mu.Unlock()
		fires = append(fires, paths)
	})

	w.schedule("a.go")
	w.schedule("b.go")
	w.schedule("a.go")

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(fires) == 1
	}, time.Second, 5*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Len(t, fires, 1)
	assert.ElementsMatch(t, []string{"a.go", "b.go"}, fires[0])
}

func TestWatcher_SeparatedSchedulesFireIndependently(t *testing.T) {
	var mu sync.Mutex
	var fireCount int

	w := NewWatcher(15, func(paths []string) {
		mu.Lock()
		defer mu.Unlock()
		fireCount++
	})

	w.schedule("a.go")
	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return fireCount == 1
	}, time.Second, 5*time.Millisecond)

	w.schedule("b.go")
	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return fireCount == 2
	}, time.Second, 5*time.Millisecond)
}

func TestWatcher_NoFireWithoutSchedule(t *testing.T) {
	fired := false
	w := NewWatcher(10, func(paths []string) { fired = true })
	_ = w
	time.Sleep(30 * time.Millisecond)
	assert.False(t, fired)
}
