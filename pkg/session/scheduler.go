package session

import (
	"sort"
	"time"
)

// Task is a function scheduled on a Scheduler. A cancelled task never runs.
type Task struct {
	seq       uint64
	at        time.Duration
	fn        func()
	done      bool
	cancelled bool
}

func (t *Task) Cancel() {
	if t != nil {
		t.cancelled = true
	}
}

func (t *Task) Cancelled() bool {
	return t.cancelled
}

// Done reports whether the task has run
func (t *Task) Done() bool {
	return t.done
}

// At returns the scheduler time the task is due
func (t *Task) At() time.Duration {
	return t.at
}

// Scheduler runs tasks against simulation time instead of wall clock time.
// Time only moves forward through Advance.
type Scheduler struct {
	now   time.Duration
	seq   uint64
	tasks []*Task
}

func NewScheduler() *Scheduler {
	return &Scheduler{}
}

func (s *Scheduler) Now() time.Duration {
	return s.now
}

// After schedules fn to run once d has elapsed
func (s *Scheduler) After(d time.Duration, fn func()) *Task {
	s.seq++
	t := &Task{seq: s.seq, at: s.now + max(d, 0), fn: fn}
	s.tasks = append(s.tasks, t)
	return t
}

// Advance moves the time forward and runs all due tasks ordered by due time.
// Tasks scheduled by running tasks are considered as well.
func (s *Scheduler) Advance(dt time.Duration) {
	if dt > 0 {
		s.now += dt
	}
	for {
		t := s.nextDue()
		if t == nil {
			break
		}
		t.done = true
		t.fn()
	}
	s.compact()
}

func (s *Scheduler) nextDue() *Task {
	var ret *Task
	for _, t := range s.tasks {
		if t.done || t.cancelled || t.at > s.now {
			continue
		}
		if ret == nil || t.at < ret.at || (t.at == ret.at && t.seq < ret.seq) {
			ret = t
		}
	}
	return ret
}

func (s *Scheduler) compact() {
	pending := s.tasks[:0]
	for _, t := range s.tasks {
		if !t.done && !t.cancelled {
			pending = append(pending, t)
		}
	}
	for i := len(pending); i < len(s.tasks); i++ {
		s.tasks[i] = nil
	}
	s.tasks = pending
}

// CancelAll cancels every pending task
func (s *Scheduler) CancelAll() {
	for _, t := range s.tasks {
		t.cancelled = true
	}
	s.tasks = s.tasks[:0]
}

// Pending returns the due times of the tasks not yet run
func (s *Scheduler) Pending() []time.Duration {
	ret := make([]time.Duration, 0, len(s.tasks))
	for _, t := range s.tasks {
		if !t.done && !t.cancelled {
			ret = append(ret, t.at)
		}
	}
	sort.Slice(ret, func(i, j int) bool { return ret[i] < ret[j] })
	return ret
}
