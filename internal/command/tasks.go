package command

import (
	"sort"
	"sync"
	"time"
)

// pollInterval bounds how long a background loop may take to observe
// its stop signal.
const pollInterval = 250 * time.Millisecond

// Task is the handle a background loop polls for cancellation.
type Task struct {
	kind string
	stop chan struct{}
}

// Stopped reports whether the task has been cancelled or superseded.
func (t *Task) Stopped() bool {
	select {
	case <-t.stop:
		return true
	default:
		return false
	}
}

// Wait sleeps for d or until the task is stopped, whichever comes
// first. Returns true when stopped.
func (t *Task) Wait(d time.Duration) bool {
	select {
	case <-t.stop:
		return true
	case <-time.After(d):
		return false
	}
}

// Tracker keeps the named background-action slots. At most one
// logically-active task per kind: starting a new one supersedes the
// prior instance, which observes the closed stop channel and exits on
// its next poll.
type Tracker struct {
	mu    sync.Mutex
	slots map[string]*Task
}

func NewTracker() *Tracker {
	return &Tracker{slots: map[string]*Task{}}
}

// Begin activates kind and returns the handle the loop must poll. Any
// prior instance of the same kind is cancelled; ownership of the slot
// transfers to the new task immediately.
func (t *Tracker) Begin(kind string) *Task {
	t.mu.Lock()
	defer t.mu.Unlock()
	if prev, ok := t.slots[kind]; ok {
		close(prev.stop)
	}
	task := &Task{kind: kind, stop: make(chan struct{})}
	t.slots[kind] = task
	return task
}

// End clears the slot when the loop exits naturally. A stale instance
// that was superseded must not clear its successor's slot.
func (t *Tracker) End(task *Task) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if cur, ok := t.slots[task.kind]; ok && cur == task {
		delete(t.slots, task.kind)
	}
}

// Cancel stops one kind. Reports whether anything was active.
func (t *Tracker) Cancel(kind string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	task, ok := t.slots[kind]
	if !ok {
		return false
	}
	close(task.stop)
	delete(t.slots, kind)
	return true
}

// CancelAll stops every active slot and returns the kinds it found,
// sorted for stable reporting.
func (t *Tracker) CancelAll() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	kinds := make([]string, 0, len(t.slots))
	for kind, task := range t.slots {
		close(task.stop)
		kinds = append(kinds, kind)
	}
	t.slots = map[string]*Task{}
	sort.Strings(kinds)
	return kinds
}

// Active reports whether a kind currently owns a slot.
func (t *Tracker) Active(kind string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.slots[kind]
	return ok
}
