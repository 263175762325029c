package render

import (
	"sort"
	"sync"
	"time"
)

// Scheduler runs the work of a renderer. All functions posted to a scheduler
// run one after another, never concurrently.
type Scheduler interface {
	Post(f func())                                       // run f as soon as possible
	AfterFunc(d time.Duration, f func()) (cancel func()) // run f after d
	Now() time.Time
}

// --- Loop ------------------------------------------------------------------

// Loop is a scheduler draining a queue of functions on one goroutine.
// Timers are real timers.
type Loop struct {
	mu     sync.Mutex
	queue  []func()
	wake   chan struct{}
	done   chan struct{}
	closed bool
}

// NewLoop creates a loop and starts its goroutine.
func NewLoop() *Loop {
	l := &Loop{
		wake: make(chan struct{}, 1),
		done: make(chan struct{}),
	}
	go l.run()
	return l
}

func (l *Loop) run() {
	defer close(l.done)
	for {
		l.mu.Lock()
		for len(l.queue) == 0 && !l.closed {
			l.mu.Unlock()
			<-l.wake
			l.mu.Lock()
		}
		if len(l.queue) == 0 && l.closed {
			l.mu.Unlock()
			return
		}
		f := l.queue[0]
		l.queue[0] = nil
		l.queue = l.queue[1:]
		l.mu.Unlock()
		f()
	}
}

// Post is part of interface Scheduler. Functions posted after Close are
// dropped.
func (l *Loop) Post(f func()) {
	if f == nil {
		return
	}
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		tracer().Debugf("loop closed, dropping function")
		return
	}
	l.queue = append(l.queue, f)
	l.mu.Unlock()
	select {
	case l.wake <- struct{}{}:
	default:
	}
}

// AfterFunc is part of interface Scheduler.
func (l *Loop) AfterFunc(d time.Duration, f func()) (cancel func()) {
	var mu sync.Mutex
	canceled := false
	t := time.AfterFunc(d, func() {
		l.Post(func() {
			mu.Lock()
			c := canceled
			mu.Unlock()
			if !c {
				f()
			}
		})
	})
	return func() {
		mu.Lock()
		canceled = true
		mu.Unlock()
		t.Stop()
	}
}

// Now is part of interface Scheduler.
func (l *Loop) Now() time.Time {
	return time.Now()
}

// Do runs f on the loop and waits for it to complete. Hosts use Do to edit
// documents which are projected by a renderer running on l. Do must not be
// called from functions running on l.
func (l *Loop) Do(f func()) {
	ch := make(chan struct{})
	l.Post(func() {
		defer close(ch)
		f()
	})
	select {
	case <-ch:
	case <-l.done:
	}
}

// Close stops the loop after all queued functions have run.
func (l *Loop) Close() {
	l.mu.Lock()
	l.closed = true
	l.mu.Unlock()
	select {
	case l.wake <- struct{}{}:
	default:
	}
	<-l.done
}

// --- Manual scheduler ------------------------------------------------------

// ManualScheduler is a deterministic scheduler for tests. Posted functions
// run on calls to RunPending, timers fire on calls to Advance. Time does not
// pass unless advanced.
type ManualScheduler struct {
	now    time.Time
	queue  []func()
	timers []*manualTimer
	seq    int
}

type manualTimer struct {
	at       time.Time
	seq      int
	f        func()
	canceled bool
}

// NewManualScheduler creates a scheduler with its clock set to start.
func NewManualScheduler(start time.Time) *ManualScheduler {
	return &ManualScheduler{now: start}
}

// Post is part of interface Scheduler.
func (m *ManualScheduler) Post(f func()) {
	if f != nil {
		m.queue = append(m.queue, f)
	}
}

// AfterFunc is part of interface Scheduler.
func (m *ManualScheduler) AfterFunc(d time.Duration, f func()) (cancel func()) {
	m.seq++
	t := &manualTimer{at: m.now.Add(d), seq: m.seq, f: f}
	m.timers = append(m.timers, t)
	return func() { t.canceled = true }
}

// Now is part of interface Scheduler.
func (m *ManualScheduler) Now() time.Time {
	return m.now
}

// RunPending runs posted functions, including those posted while running,
// until the queue is empty. It returns the number of functions run.
func (m *ManualScheduler) RunPending() int {
	n := 0
	for len(m.queue) > 0 {
		f := m.queue[0]
		m.queue = m.queue[1:]
		f()
		n++
	}
	return n
}

// Pending returns the number of queued functions and active timers.
func (m *ManualScheduler) Pending() (queued, timers int) {
	for _, t := range m.timers {
		if !t.canceled {
			timers++
		}
	}
	return len(m.queue), timers
}

// Advance moves the clock forward by d, firing due timers in order. Posted
// functions are run before and after each timer.
func (m *ManualScheduler) Advance(d time.Duration) {
	m.RunPending()
	end := m.now.Add(d)
	for {
		t := m.nextTimer(end)
		if t == nil {
			break
		}
		m.now = t.at
		t.f()
		m.RunPending()
	}
	m.now = end
}

// nextTimer removes and returns the earliest timer due at or before end.
func (m *ManualScheduler) nextTimer(end time.Time) *manualTimer {
	live := m.timers[:0]
	for _, t := range m.timers {
		if !t.canceled {
			live = append(live, t)
		}
	}
	m.timers = live
	if len(m.timers) == 0 {
		return nil
	}
	sort.Slice(m.timers, func(i, j int) bool {
		if m.timers[i].at.Equal(m.timers[j].at) {
			return m.timers[i].seq < m.timers[j].seq
		}
		return m.timers[i].at.Before(m.timers[j].at)
	})
	t := m.timers[0]
	if t.at.After(end) {
		return nil
	}
	m.timers = m.timers[1:]
	return t
}

var _ Scheduler = &Loop{}
var _ Scheduler = &ManualScheduler{}
