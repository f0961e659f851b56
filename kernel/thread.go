package kernel

// Entry is a thread's main function. Its return value is the thread's exit
// code, delivered through the exit-code out pointer and the exit hook.
type Entry func() int

// Flags control how a thread starts up and shuts down.
type Flags uint16

const (
	// FlagReady queues the thread to run as soon as the scheduler allows.
	FlagReady Flags = 1 << iota

	// FlagPool marks the thread as pool-resident: on exit its descriptor and
	// stack are retained and reanimated for the next job.
	FlagPool

	// FlagSelfDestruct releases the descriptor and stack pages when the
	// thread's entry returns. Set by default for non-pool threads.
	FlagSelfDestruct
)

// Duration is a span of kernel time in milliseconds.
type Duration uint32

// Thread is the per-thread control block.
//
// A thread appears in exactly one of: the active ready list, the expired
// ready list, the timeout list, the pool list, or the currently-running slot.
type Thread struct {
	prev, next *Thread     // intrusive list links
	owner      *threadList // list currently holding this thread, nil if none

	id   uint16
	name string

	stackBase  int    // byte offset of the stack region in the arena
	stack      []byte // the owned stack region
	sp         int    // saved top-of-stack, relative to stackBase
	lowSP      int    // lowest saved SP ever observed
	overflowed bool   // below-bounds already reported for this breach

	ticksRemaining uint8
	timeoutOffset  uint32 // ms relative to the predecessor in the timeout list

	flags Flags

	allocated Sigs // signals currently allocated; superset of waiting
	waiting   Sigs // signals the thread is blocked on
	current   Sigs // signals that have been delivered

	ticks uint32 // total preemption ticks received (instrumentation)

	ctx ctx
	k   *Kernel
}

// ID returns the thread's id. Reanimation assigns a fresh id.
func (t *Thread) ID() uint16 { return t.id }

// Name returns the thread's name.
func (t *Thread) Name() string {
	t.k.gate.enter()
	defer t.k.gate.leave()
	return t.name
}

// StackSizeBytes returns the size of the thread's stack region.
func (t *Thread) StackSizeBytes() int { return len(t.stack) }

// StackPeakBytes returns the peak recorded stack usage in bytes.
func (t *Thread) StackPeakBytes() int {
	t.k.gate.enter()
	defer t.k.gate.leave()
	return len(t.stack) - t.lowSP
}

// Ticks returns the total number of preemption ticks the thread has
// received. Always zero unless instrumentation is enabled.
func (t *Thread) Ticks() uint32 {
	t.k.gate.enter()
	defer t.k.gate.leave()
	return t.ticks
}

// reanimate rewrites a descriptor's bookkeeping and stack prelude so that
// the next context restore launches it at a new entry. Caller holds the gate.
func (k *Kernel) reanimate(t *Thread, name string, entry Entry, flags Flags, termSyn *Synapse, exitOut *int) {
	t.id = k.nextID
	k.nextID++
	t.name = name
	t.flags = flags

	// signal defaults
	t.allocated = k.reservedMask
	t.waiting = 0
	t.current = 0

	// sleeping time
	t.timeoutOffset = 0

	k.prepare(t, prelude{entry: entry, flags: flags, termSyn: termSyn, exitOut: exitOut})
}

// NewThread creates a thread with its own freshly allocated stack.
//
// Stacks are carved top-down from the dynamic arena so they sit away from
// heap data. Threads carrying FlagReady are queued immediately; pool threads
// are parked in the pool with no entry until FromPool claims them. Returns
// nil when no stack memory is available.
func (k *Kernel) NewThread(name string, stackBytes int, entry Entry, flags Flags, termSyn *Synapse, exitOut *int) *Thread {
	if stackBytes < MinStackBytes {
		stackBytes = MinStackBytes
	}

	k.gate.enter()
	defer k.gate.leave()

	base, size := k.alloc.Allocate(stackBytes, k.stackStrategy)
	if size == 0 {
		return nil
	}

	t := &Thread{
		k:         k,
		stackBase: base,
		stack:     k.alloc.Slice(base, size),
	}
	k.register(t)
	k.trace(TraceCreate, t)

	if flags&FlagPool != 0 {
		t.id = k.nextID
		k.nextID++
		t.name = name
		t.flags = flags
		t.allocated = k.reservedMask
		k.pool.append(t)
		return t
	}

	k.reanimate(t, name, entry, flags|FlagSelfDestruct, termSyn, exitOut)
	if flags&FlagReady != 0 {
		k.active().append(t)
	}
	return t
}

// FromPool claims a dormant thread from the pool and reanimates it with new
// execution parameters, placing it at the head of the active ready list.
// Returns nil when the pool is empty.
func (k *Kernel) FromPool(name string, entry Entry, termSyn *Synapse, exitOut *int) *Thread {
	k.gate.enter()
	defer k.gate.leave()

	t := k.pool.getHead()
	if t == nil {
		return nil
	}
	k.pool.remove(t)

	k.reanimate(t, name, entry, FlagReady|FlagPool, termSyn, exitOut)
	k.active().prepend(t)
	return t
}

// destroy releases a terminated thread's stack pages and forgets it.
// Caller holds the gate.
func (k *Kernel) destroy(t *Thread) {
	k.unregister(t)
	k.alloc.Free(t.stackBase, len(t.stack))
	t.stack = nil
}

// threadEntry is the global trampoline: every thread starts and ends life
// here. It waits for its first dispatch, runs the user entry, then performs
// end-of-life cleanup and hands the CPU onward.
func (k *Kernel) threadEntry(t *Thread, p prelude) {
	<-t.ctx.run

	code := 0
	if p.entry != nil {
		code = p.entry()
	}

	// no interruptions while cleaning up
	k.gate.enter()

	// A pool thread must not exit with user signals still allocated: a
	// remaining signal means a live Synapse out there still references this
	// descriptor, and the next job to occupy it could be signalled in error.
	// The descriptor is recycled regardless; reanimation resets the fields.
	if t.flags&FlagPool != 0 {
		debugAssert(t.allocated&^k.reservedMask == 0, "pool thread exited with signals allocated")
		k.trace(TraceRecycle, t)
	}

	if p.exitOut != nil {
		*p.exitOut = code
	}
	if p.termSyn != nil {
		p.termSyn.signal()
	}

	k.active().remove(t)

	// forget us so that no context is remembered superfluously in the yield
	k.current = nil

	k.trace(TraceExit, t)
	if k.cfg.OnThreadExit != nil {
		k.cfg.OnThreadExit(t, code)
	}

	if t.flags&FlagPool != 0 {
		k.pool.append(t)
	} else if t.flags&FlagSelfDestruct != 0 {
		k.destroy(t)
	}

	k.yield()
	k.gate.leave()
}

// Stop asks the thread to suspend cooperatively. It has effect only while
// the thread is waiting with STOP armed (the default for every wait that is
// not already waiting on START).
func (t *Thread) Stop() {
	k := t.k
	k.gate.enter()
	defer k.gate.leave()
	// waiting keeps the last wait's mask, so also require that the thread is
	// blocked: not running and not queued to run
	blocked := k.current != t && !k.active().contains(t) && !k.expired().contains(t)
	if blocked && t.waiting&SigStop != 0 {
		t.signal(SigStop)
	}
}

// Restart resumes a thread previously suspended by Stop.
func (t *Thread) Restart() {
	t.k.gate.enter()
	defer t.k.gate.leave()
	if t.waiting&SigStart != 0 {
		t.signal(SigStart)
	}
}
