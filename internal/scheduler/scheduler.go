// Package scheduler runs deferred and recurring tasks on a single background
// loop. Tasks are ordered by next run time in a heap; the loop sleeps until
// the earliest task is due, never busy-spinning.
package scheduler

import (
	"container/heap"
	"runtime/debug"
	"sync"
	"time"

	"github.com/google/uuid"

	"aura/internal/logging"
)

// Task is one scheduled unit of work. Interval zero means run once.
type Task struct {
	ID       string
	Name     string
	Interval time.Duration
	NextRun  time.Time
	Action   func()

	index int // heap bookkeeping
}

// taskHeap orders tasks by NextRun, earliest first.
type taskHeap []*Task

func (h taskHeap) Len() int            { return len(h) }
func (h taskHeap) Less(i, j int) bool  { return h[i].NextRun.Before(h[j].NextRun) }
func (h taskHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i]; h[i].index = i; h[j].index = j }
func (h *taskHeap) Push(x interface{}) { t := x.(*Task); t.index = len(*h); *h = append(*h, t) }
func (h *taskHeap) Pop() interface{} {
	old := *h
	n := len(old)
	t := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return t
}

// Metrics is a point-in-time snapshot of scheduler activity.
type Metrics struct {
	Pending    int
	Executed   int64
	Recovered  int64
	Cancelled  int64
	Running    bool
	LastRunAt  time.Time
	LastTaskID string
}

// Scheduler owns the task heap and its worker loop.
type Scheduler struct {
	mu    sync.Mutex
	tasks taskHeap
	byID  map[string]*Task
	wake  chan struct{}

	pollInterval time.Duration
	stopTimeout  time.Duration

	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}

	executed   int64
	recovered  int64
	cancelled  int64
	lastRunAt  time.Time
	lastTaskID string
}

// New builds a stopped scheduler. PollInterval caps how long the loop sleeps
// with an empty queue; stopTimeout bounds how long Stop waits for the loop.
func New(pollInterval, stopTimeout time.Duration) *Scheduler {
	if pollInterval <= 0 {
		pollInterval = 250 * time.Millisecond
	}
	if stopTimeout <= 0 {
		stopTimeout = 2 * time.Second
	}
	return &Scheduler{
		byID:         make(map[string]*Task),
		wake:         make(chan struct{}, 1),
		pollInterval: pollInterval,
		stopTimeout:  stopTimeout,
	}
}

// Start launches the worker loop. Calling Start on a running scheduler is a
// no-op.
func (s *Scheduler) Start() {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	s.running = true
	s.stopCh = make(chan struct{})
	s.doneCh = make(chan struct{})
	stopCh, doneCh := s.stopCh, s.doneCh
	s.mu.Unlock()

	logging.Scheduler("worker loop starting")
	go s.loop(stopCh, doneCh)
}

// Stop signals the loop and waits up to stopTimeout for it to drain. A task
// already executing finishes; nothing new starts. Stop is idempotent.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	close(s.stopCh)
	doneCh := s.doneCh
	timeout := s.stopTimeout
	s.mu.Unlock()

	select {
	case <-doneCh:
		logging.Scheduler("worker loop stopped")
	case <-time.After(timeout):
		logging.Get(logging.CategoryScheduler).Warn("stop timed out after %v with a task still running", timeout)
	}
}

// Schedule enqueues a task and returns its ID. Interval zero runs once;
// a positive interval re-enqueues the task after each execution.
func (s *Scheduler) Schedule(name string, firstRun time.Time, interval time.Duration, action func()) string {
	if action == nil {
		return ""
	}
	task := &Task{
		ID:       uuid.NewString(),
		Name:     name,
		Interval: interval,
		NextRun:  firstRun,
		Action:   action,
	}

	s.mu.Lock()
	heap.Push(&s.tasks, task)
	s.byID[task.ID] = task
	s.mu.Unlock()

	logging.Scheduler("scheduled %s (%s) for %s interval=%v", name, task.ID, firstRun.Format(time.RFC3339), interval)
	s.kick()
	return task.ID
}

// ScheduleOnce enqueues a one-shot task delay from now.
func (s *Scheduler) ScheduleOnce(name string, delay time.Duration, action func()) {
	s.Schedule(name, time.Now().Add(delay), 0, action)
}

// ScheduleEvery enqueues a recurring task whose first run is one interval
// from now.
func (s *Scheduler) ScheduleEvery(name string, interval time.Duration, action func()) string {
	return s.Schedule(name, time.Now().Add(interval), interval, action)
}

// Cancel removes a pending task by ID. Returns false if the ID is unknown
// (including tasks that already ran to completion).
func (s *Scheduler) Cancel(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	task, ok := s.byID[id]
	if !ok {
		return false
	}
	delete(s.byID, id)
	if task.index >= 0 && task.index < len(s.tasks) && s.tasks[task.index] == task {
		heap.Remove(&s.tasks, task.index)
	}
	s.cancelled++
	logging.Scheduler("cancelled %s (%s)", task.Name, id)
	return true
}

// Snapshot returns current metrics.
func (s *Scheduler) Snapshot() Metrics {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Metrics{
		Pending:    len(s.tasks),
		Executed:   s.executed,
		Recovered:  s.recovered,
		Cancelled:  s.cancelled,
		Running:    s.running,
		LastRunAt:  s.lastRunAt,
		LastTaskID: s.lastTaskID,
	}
}

// kick nudges the loop so a newly scheduled task is considered immediately.
func (s *Scheduler) kick() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (s *Scheduler) loop(stopCh, doneCh chan struct{}) {
	defer close(doneCh)

	for {
		select {
		case <-stopCh:
			return
		default:
		}

		task, wait := s.nextDue()
		if task != nil {
			s.execute(task)
			continue
		}

		timer := time.NewTimer(wait)
		select {
		case <-stopCh:
			timer.Stop()
			return
		case <-s.wake:
			timer.Stop()
		case <-timer.C:
		}
	}
}

// nextDue pops the earliest task if it is due. Otherwise it returns how long
// the loop should sleep before looking again.
func (s *Scheduler) nextDue() (*Task, time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.tasks) == 0 {
		return nil, s.pollInterval
	}

	head := s.tasks[0]
	now := time.Now()
	if head.NextRun.After(now) {
		wait := head.NextRun.Sub(now)
		if wait > s.pollInterval {
			wait = s.pollInterval
		}
		return nil, wait
	}

	task := heap.Pop(&s.tasks).(*Task)
	if task.Interval > 0 {
		// Recurring: the next occurrence goes straight back on the heap.
		next := &Task{
			ID:       task.ID,
			Name:     task.Name,
			Interval: task.Interval,
			NextRun:  now.Add(task.Interval),
			Action:   task.Action,
		}
		heap.Push(&s.tasks, next)
		s.byID[task.ID] = next
	} else {
		delete(s.byID, task.ID)
	}
	return task, 0
}

// execute runs one task, containing panics so a broken action cannot kill
// the loop.
func (s *Scheduler) execute(task *Task) {
	defer func() {
		if r := recover(); r != nil {
			s.mu.Lock()
			s.recovered++
			s.mu.Unlock()
			logging.Get(logging.CategoryScheduler).Error("task %s (%s) panicked: %v\n%s",
				task.Name, task.ID, r, debug.Stack())
		}
	}()

	logging.SchedulerDebug("running %s (%s)", task.Name, task.ID)
	task.Action()

	s.mu.Lock()
	s.executed++
	s.lastRunAt = time.Now()
	s.lastTaskID = task.ID
	s.mu.Unlock()
}
