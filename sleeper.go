package taskloop

import (
	"container/heap"
	"sync/atomic"
	"time"
)

// sleeperSet is the unordered set of pending waiters:
// duration waiters ordered by deadline in a min-heap, and flag waiters
// checked linearly on every maturity sweep. Not safe for concurrent use
// by itself — flag waiters' producing side only ever touches the shared
// *atomic.Bool, never the sleeperSet.
type sleeperSet struct {
	durations durationHeap
	flags     []flagWaiter
}

type durationWaiter struct {
	entry    Entry
	deadline time.Time
}

type flagWaiter struct {
	entry Entry
	flag  *FlagWaiter
}

// durationHeap implements container/heap.Interface, ordered by the
// nearest deadline first.
type durationHeap []durationWaiter

func (h durationHeap) Len() int            { return len(h) }
func (h durationHeap) Less(i, j int) bool  { return h[i].deadline.Before(h[j].deadline) }
func (h durationHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *durationHeap) Push(x any)         { *h = append(*h, x.(durationWaiter)) }
func (h *durationHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

func newSleeperSet() *sleeperSet {
	return &sleeperSet{}
}

// FlagWaiter pairs a shared boolean with acquire/release semantics,
// letting one goroutine wake a task blocked on another's executor: a
// task body calls ExecutorHandle.SleepOnFlag with one of these before
// returning StepPending, and any goroutine may later call Signal to
// mature it.
type FlagWaiter struct {
	flag atomic.Bool
}

// NewFlagWaiter returns an unset FlagWaiter.
func NewFlagWaiter() *FlagWaiter {
	return &FlagWaiter{}
}

// Signal sets the flag with release-store semantics, maturing any
// sleeper registered against it on the next Matured sweep.
func (w *FlagWaiter) Signal() {
	w.flag.Store(true)
}

// Ready reports the flag's current value with acquire-load semantics.
func (w *FlagWaiter) Ready() bool {
	return w.flag.Load()
}

// InsertDuration registers entry as asleep until at least deadline.
func (s *sleeperSet) InsertDuration(entry Entry, deadline time.Time) {
	heap.Push(&s.durations, durationWaiter{entry: entry, deadline: deadline})
}

// InsertFlag registers entry as asleep until flag reads true. The
// producing side must set flag with Store (release semantics); Matured
// reads it with Load (acquire semantics), a standard release/acquire pair.
func (s *sleeperSet) InsertFlag(entry Entry, flag *FlagWaiter) {
	s.flags = append(s.flags, flagWaiter{entry: entry, flag: flag})
}

// Matured drains and returns every waiter ready as of now: duration
// waiters whose deadline has passed, and flag waiters whose flag reads
// true. Matured waiters are removed; this call is not idempotent.
func (s *sleeperSet) Matured(now time.Time) []Entry {
	var ready []Entry
	for s.durations.Len() > 0 && !s.durations[0].deadline.After(now) {
		w := heap.Pop(&s.durations).(durationWaiter)
		ready = append(ready, w.entry)
	}
	if len(s.flags) > 0 {
		remaining := s.flags[:0]
		for _, w := range s.flags {
			if w.flag.Ready() {
				ready = append(ready, w.entry)
			} else {
				remaining = append(remaining, w)
			}
		}
		s.flags = remaining
	}
	return ready
}

// Count returns the total number of outstanding waiters, duration and
// flag combined.
func (s *sleeperSet) Count() int {
	return s.durations.Len() + len(s.flags)
}

// HasPending reports whether any waiter is outstanding.
func (s *sleeperSet) HasPending() bool {
	return s.Count() > 0
}

// NextDeadline returns the nearest duration-waiter deadline and true, or
// the zero time and false if there are no duration waiters. Flag
// waiters have no deadline and do not participate.
func (s *sleeperSet) NextDeadline() (time.Time, bool) {
	if s.durations.Len() == 0 {
		return time.Time{}, false
	}
	return s.durations[0].deadline, true
}
