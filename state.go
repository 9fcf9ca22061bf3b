package taskloop

import "time"

// maxDependencyChainLength bounds ancestor-chain walks; a chain this
// long is treated as proof of a cycle rather than a legitimately deep
// forest.
const maxDependencyChainLength = 1 << 20

// spawnOpKind records which spawn primitive the currently-stepping task
// last called, consulted by DoWork's StepSpawnFinished row.
// spawnOpUnset is distinct from every real marker so an unexpected
// StepSpawnFinished with no marker set is detectable as a bug rather
// than silently skipped.
type spawnOpKind uint8

const (
	spawnOpUnset spawnOpKind = iota
	spawnOpLifted
	spawnOpLiftedWithParent
	spawnOpScheduled
	spawnOpBroadcast
)

// scheduleOutcome is the internal result of scheduleNext.
type scheduleOutcome uint8

const (
	scheduleOutcomeLocalTaskRunning scheduleOutcome = iota
	scheduleOutcomeGlobalTaskAcquired
	scheduleOutcomeNoTaskRunningOrAcquired
)

// Executor holds every sub-state a single-threaded cooperative scheduler needs:
// the shared global intake queue, the local entry table, the processing
// deque, the dependency map, the packed set, the current-task marker,
// the sleeper set, the idle controller, the RNG, and the priority
// policy. It owns schedule/lift/broadcast, wake-up, and the single-step
// do-work routine. An Executor is exclusively owned by one goroutine;
// see deque.go and queue.go for the one object (BroadcastQueue) that is
// safe to share.
type Executor struct {
	queue *BroadcastQueue

	entries *entryTable
	proc    *deque
	deps    map[Entry]Entry
	packed  map[Entry]struct{}

	current      Entry
	currentValid bool
	spawnOp      spawnOpKind

	sleepers *sleeperSet
	idle     *idleController
	rng      RNG
	priority Priority

	logger  *logger
	metrics *Metrics
	clock   func() time.Time
}

// New constructs an Executor sharing queue, the global intake queue
// multiple Executor/Driver pairs may use to hand work to one another.
func New(queue *BroadcastQueue, opts ...Option) (*Executor, error) {
	if queue == nil {
		return nil, wrapInvariant(Entry{}, errNilQueue)
	}
	c, err := resolveOptions(opts)
	if err != nil {
		return nil, err
	}
	return &Executor{
		queue:    queue,
		entries:  newEntryTable(),
		proc:     newDeque(),
		deps:     make(map[Entry]Entry),
		packed:   make(map[Entry]struct{}),
		sleepers: newSleeperSet(),
		idle:     newIdleController(c.idleMaxTicks, c.idleInitialBackoff, c.idleGrowthFactor, c.idleMaxBackoff),
		rng:      newPCGRNG(c.rngSeed),
		priority: c.priority,
		logger:   c.logger,
		metrics:  c.metrics,
		clock:    time.Now,
	}, nil
}

// Metrics returns the Metrics sink attached via WithMetrics, or nil if
// none was configured.
func (e *Executor) Metrics() *Metrics {
	return e.metrics
}

var errNilQueue = &invariantCause{"taskloop: broadcast queue must not be nil"}

type invariantCause struct{ msg string }

func (e *invariantCause) Error() string { return e.msg }

// Lift implements ExecutorHandle.Lift.
func (e *Executor) Lift(body TaskBody, parent ParentOption) (Entry, error) {
	if parent.has {
		if !e.currentValid || parent.entry != e.current {
			return Entry{}, ErrParentMustBeExecuting
		}
	}
	entry := e.entries.Insert(body)
	if parent.has {
		e.proc.PushFront(parent.entry)
		e.proc.PushFront(entry)
		e.deps[entry] = parent.entry
		e.spawnOp = spawnOpLiftedWithParent
	} else {
		e.proc.PushFront(entry)
		e.spawnOp = spawnOpLifted
	}
	e.logger.Debug().Str("category", logCategoryLift).Stringer("entry", entry).Bool("has_parent", parent.has).Log("lift")
	return entry, nil
}

// Schedule implements ExecutorHandle.Schedule.
func (e *Executor) Schedule(body TaskBody) Entry {
	entry := e.entries.Insert(body)
	e.proc.PushBack(entry)
	e.spawnOp = spawnOpScheduled
	e.logger.Debug().Str("category", logCategorySchedule).Stringer("entry", entry).Log("schedule")
	return entry
}

// Broadcast implements ExecutorHandle.Broadcast.
func (e *Executor) Broadcast(body TaskBody) error {
	if err := e.queue.Push(body); err != nil {
		return err
	}
	e.spawnOp = spawnOpBroadcast
	e.logger.Debug().Str("category", logCategoryBroadcast).Log("broadcast")
	return nil
}

// RNG implements ExecutorHandle.RNG.
func (e *Executor) RNG() RNG {
	return e.rng
}

// Queue implements ExecutorHandle.Queue.
func (e *Executor) Queue() *BroadcastQueue {
	return e.queue
}

// SleepOnFlag implements ExecutorHandle.SleepOnFlag.
func (e *Executor) SleepOnFlag(entry Entry, w *FlagWaiter) error {
	if !e.entries.IsLive(entry) {
		return wrapInvariant(entry, ErrStaleEntry)
	}
	if err := e.packTaskAndDependents(entry); err != nil {
		return err
	}
	e.sleepers.InsertFlag(entry, w)
	e.logger.Debug().Str("category", logCategorySleep).Stringer("entry", entry).Str("kind", "flag").Log("sleep")
	return nil
}

// ancestors walks the dependency chain from entry, nearest ancestor
// first, terminating at the first entry with no recorded parent.
// Exceeding maxDependencyChainLength is treated as a cycle.
func (e *Executor) ancestors(entry Entry) ([]Entry, error) {
	var chain []Entry
	cur := entry
	for i := 0; i < maxDependencyChainLength; i++ {
		parent, ok := e.deps[cur]
		if !ok {
			return chain, nil
		}
		chain = append(chain, parent)
		cur = parent
	}
	return nil, wrapInvariant(entry, ErrDependencyCycle)
}

// packTaskAndDependents packs entry and every entry in its ancestor
// chain.
func (e *Executor) packTaskAndDependents(entry Entry) error {
	chain, err := e.ancestors(entry)
	if err != nil {
		return err
	}
	e.packed[entry] = struct{}{}
	for _, a := range chain {
		e.packed[a] = struct{}{}
	}
	return nil
}

// isPacked reports whether entry is currently packed.
func (e *Executor) isPacked(entry Entry) bool {
	_, ok := e.packed[entry]
	return ok
}

// WakeUp removes entry (and every ancestor reachable via the dependency
// map) from the packed set, and re-queues them per the priority policy.
func (e *Executor) WakeUp(entry Entry) error {
	chain, err := e.ancestors(entry)
	if err != nil {
		return err
	}
	delete(e.packed, entry)
	switch e.priority {
	case PriorityTop:
		for i := len(chain) - 1; i >= 0; i-- {
			delete(e.packed, chain[i])
			e.proc.PushFront(chain[i])
		}
		e.proc.PushFront(entry)
	default: // PriorityBottom
		e.proc.PushBack(entry)
		for _, a := range chain {
			delete(e.packed, a)
			e.proc.PushBack(a)
		}
	}
	e.logger.Debug().Str("category", logCategoryWake).Stringer("entry", entry).Int("ancestors", len(chain)).Log("wake_up")
	return nil
}

// WakeupReadySleepers calls WakeUp for every sleeper.Matured waiter as
// of now.
func (e *Executor) WakeupReadySleepers(now time.Time) error {
	for _, entry := range e.sleepers.Matured(now) {
		if err := e.WakeUp(entry); err != nil {
			return err
		}
	}
	return nil
}

// scheduleNext acquires a local or global task to run, if any is available.
func (e *Executor) scheduleNext() scheduleOutcome {
	if e.entries.Live() > 0 && e.proc.Len() > 0 {
		return scheduleOutcomeLocalTaskRunning
	}
	body, ok, _ := e.queue.Pop()
	if !ok {
		return scheduleOutcomeNoTaskRunningOrAcquired
	}
	entry := e.entries.Insert(body)
	e.proc.PushFront(entry)
	return scheduleOutcomeGlobalTaskAcquired
}

// ActiveTaskCount is an advisory metric only: live entries minus
// sleeping ones. Never gate control flow on it beyond the
// has-active-tasks check below.
func (e *Executor) ActiveTaskCount() int {
	return e.entries.Live() - e.sleepers.Count()
}

func (e *Executor) hasActiveTasks() bool {
	return e.ActiveTaskCount() > 0
}

func (e *Executor) hasInflightTask() bool {
	return e.proc.Len() > 0
}

// requestGlobalTask reports whether local or global work is available,
// pulling one task off the shared queue if the local deque is empty.
func (e *Executor) requestGlobalTask() ProgressIndicator {
	if e.hasActiveTasks() {
		return ProgressIndicator{Kind: ProgressCanProgress}
	}
	switch e.scheduleNext() {
	case scheduleOutcomeGlobalTaskAcquired:
		return ProgressIndicator{Kind: ProgressCanProgress}
	case scheduleOutcomeNoTaskRunningOrAcquired:
		if e.sleepers.HasPending() {
			return ProgressIndicator{Kind: ProgressCanProgress}
		}
		return ProgressIndicator{Kind: ProgressNoWork}
	default: // scheduleOutcomeLocalTaskRunning: the deque still holds entries (e.g. a packed flag sleeper)
		return ProgressIndicator{Kind: ProgressCanProgress}
	}
}

// checkProcessingQueue is a read-only pre-check: it never mutates the
// deque or sleeper set. decided is true when it has already settled the
// outcome (deque empty).
func (e *Executor) checkProcessingQueue() (result ProgressIndicator, decided bool) {
	if e.proc.Len() == 0 {
		if e.sleepers.HasPending() {
			return ProgressIndicator{Kind: ProgressCanProgress}, true
		}
		return ProgressIndicator{Kind: ProgressNoWork}, true
	}
	return ProgressIndicator{}, false
}

// DoWork performs exactly one step of one task.
// Precondition: WakeupReadySleepers was just called.
func (e *Executor) DoWork() (result ProgressIndicator, err error) {
	if e.metrics != nil {
		e.metrics.RecordDepth(e.proc.Len())
	}
	if pi, decided := e.checkProcessingQueue(); decided {
		return pi, nil
	}

	entry, _ := e.proc.PopFront()
	remaining := e.proc.Len()

	if e.isPacked(entry) {
		return ProgressIndicator{Kind: ProgressCanProgress}, nil
	}

	e.current = entry
	e.currentValid = true
	if err := e.entries.Park(entry); err != nil {
		e.currentValid = false
		return ProgressIndicator{}, wrapInvariant(entry, err)
	}

	body, ok := e.entries.Lookup(entry)
	if !ok {
		e.currentValid = false
		return ProgressIndicator{}, wrapInvariant(entry, ErrDoneEntryMissing)
	}

	start := e.clock()
	result, stepErr := e.step(entry, body, remaining)
	e.currentValid = false
	if e.metrics != nil {
		e.metrics.RecordStep(stepErr == nil && result.Kind == ProgressCanProgress, e.clock().Sub(start), e.clock())
	}
	return result, stepErr
}

// step calls body.Step with panic recovery and maps the returned state
// to a ProgressIndicator, one case per StepKind (see task.go).
func (e *Executor) step(entry Entry, body TaskBody, remaining int) (result ProgressIndicator, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = wrapInvariant(entry, &recoveredPanicError{value: r})
		}
	}()

	sr, ok := body.Step(entry, e)
	if !ok {
		// Iterator exhaustion is treated identically to StepDone.
		return e.finishDone(entry, remaining)
	}

	switch sr.Kind {
	case StepDone:
		return e.finishDone(entry, remaining)

	case StepProgressed:
		if err := e.entries.Unpark(entry); err != nil {
			return ProgressIndicator{}, wrapInvariant(entry, err)
		}
		e.proc.PushFront(entry)
		return ProgressIndicator{Kind: ProgressCanProgress}, nil

	case StepPending:
		if err := e.entries.Unpark(entry); err != nil {
			return ProgressIndicator{}, wrapInvariant(entry, err)
		}
		e.proc.PushFront(entry)
		return ProgressIndicator{Kind: ProgressCanProgress}, nil

	case StepDelayed:
		if err := e.entries.Unpark(entry); err != nil {
			return ProgressIndicator{}, wrapInvariant(entry, err)
		}
		if err := e.packTaskAndDependents(entry); err != nil {
			return ProgressIndicator{}, err
		}
		e.sleepers.InsertDuration(entry, e.clock().Add(sr.Delay))
		e.logger.Debug().Str("category", logCategorySleep).Stringer("entry", entry).Dur("delay", sr.Delay).Log("delayed")
		if e.proc.Len() > 0 {
			return ProgressIndicator{Kind: ProgressCanProgress}, nil
		}
		return ProgressIndicator{Kind: ProgressSpinWait, Delay: sr.Delay}, nil

	case StepReschedule:
		if err := e.entries.Unpark(entry); err != nil {
			return ProgressIndicator{}, wrapInvariant(entry, err)
		}
		e.proc.PushBack(entry)
		return ProgressIndicator{Kind: ProgressCanProgress}, nil

	case StepSpawnFinished:
		if err := e.entries.Unpark(entry); err != nil {
			return ProgressIndicator{}, wrapInvariant(entry, err)
		}
		op := e.spawnOp
		e.spawnOp = spawnOpUnset
		if op == spawnOpUnset {
			return ProgressIndicator{}, wrapInvariant(entry, ErrSpawnFailed)
		}
		if op != spawnOpLiftedWithParent {
			e.proc.PushFront(entry)
		}
		return ProgressIndicator{Kind: ProgressCanProgress}, nil

	case StepSpawnFailed:
		return ProgressIndicator{}, wrapInvariant(entry, ErrSpawnFailed)

	default:
		return ProgressIndicator{}, wrapInvariant(entry, ErrSpawnFailed)
	}
}

// finishDone implements the Done/None cleanup row: unpark, take from
// the entry table, drop the dependency edge and packed-set membership.
func (e *Executor) finishDone(entry Entry, remaining int) (ProgressIndicator, error) {
	if err := e.entries.Unpark(entry); err != nil {
		return ProgressIndicator{}, wrapInvariant(entry, err)
	}
	if err := e.entries.Take(entry); err != nil {
		return ProgressIndicator{}, wrapInvariant(entry, err)
	}
	delete(e.deps, entry)
	delete(e.packed, entry)
	if remaining == 0 {
		return ProgressIndicator{Kind: ProgressNoWork}, nil
	}
	return ProgressIndicator{Kind: ProgressCanProgress}, nil
}

// ScheduleAndDoWork acquires a task if needed, wakes matured sleepers,
// and performs one DoWork step, folding the idle controller into the
// result.
func (e *Executor) ScheduleAndDoWork() (ProgressIndicator, error) {
	switch pi := e.requestGlobalTask(); pi.Kind {
	case ProgressNoWork:
		return ProgressIndicator{Kind: ProgressNoWork}, nil
	case ProgressCanProgress:
		// fall through to DoWork
	default:
		return ProgressIndicator{}, wrapInvariant(Entry{}, &invariantCause{"taskloop: requestGlobalTask must never spin-wait"})
	}

	if err := e.WakeupReadySleepers(e.clock()); err != nil {
		return ProgressIndicator{}, err
	}

	result, err := e.DoWork()
	if err != nil {
		return ProgressIndicator{}, err
	}

	switch result.Kind {
	case ProgressCanProgress:
		e.idle.Reset()
		return result, nil

	case ProgressNoWork:
		if d, ok := e.idle.Increment(); ok {
			return ProgressIndicator{Kind: ProgressSpinWait, Delay: d}, nil
		}
		return ProgressIndicator{Kind: ProgressNoWork}, nil

	default: // ProgressSpinWait
		if e.hasInflightTask() {
			return ProgressIndicator{Kind: ProgressCanProgress}, nil
		}
		switch e.scheduleNext() {
		case scheduleOutcomeGlobalTaskAcquired:
			e.idle.Reset()
			return ProgressIndicator{Kind: ProgressCanProgress}, nil
		default:
			return result, nil
		}
	}
}
