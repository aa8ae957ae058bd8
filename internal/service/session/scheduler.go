package session

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// scheduler runs one deferred task per key. Scheduling a key again replaces
// its pending task; a replaced or cancelled task never runs even if its
// timer has already fired.
type scheduler struct {
	clock clockwork.Clock

	mu     sync.Mutex
	tasks  map[string]*task
	next   uint64
	closed bool
}

type task struct {
	timer clockwork.Timer
	token uint64
}

func newScheduler(clock clockwork.Clock) *scheduler {
	return &scheduler{clock: clock, tasks: make(map[string]*task)}
}

// Schedule runs fn at or after at. The timer is armed outside the lock so
// a clock that fires zero delays inline cannot deadlock.
func (s *scheduler) Schedule(key string, at time.Time, fn func()) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	if prev, ok := s.tasks[key]; ok && prev.timer != nil {
		prev.timer.Stop()
	}
	s.next++
	token := s.next
	t := &task{token: token}
	s.tasks[key] = t
	delay := at.Sub(s.clock.Now())
	s.mu.Unlock()

	if delay < 0 {
		delay = 0
	}
	timer := s.clock.AfterFunc(delay, func() { s.fire(key, token, fn) })

	s.mu.Lock()
	defer s.mu.Unlock()
	if cur, ok := s.tasks[key]; ok && cur.token == token {
		cur.timer = timer
		return
	}
	// replaced or cancelled while arming
	timer.Stop()
}

func (s *scheduler) fire(key string, token uint64, fn func()) {
	s.mu.Lock()
	t, ok := s.tasks[key]
	if !ok || t.token != token || s.closed {
		s.mu.Unlock()
		return
	}
	delete(s.tasks, key)
	s.mu.Unlock()
	fn()
}

// Cancel drops the pending task for key, if any.
func (s *scheduler) Cancel(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.tasks[key]; ok {
		if t.timer != nil {
			t.timer.Stop()
		}
		delete(s.tasks, key)
	}
}

func (s *scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tasks)
}

// Close cancels everything and refuses new tasks.
func (s *scheduler) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	for key, t := range s.tasks {
		if t.timer != nil {
			t.timer.Stop()
		}
		delete(s.tasks, key)
	}
}
