package kernel

// Scheduler internals. Two ready queues swap active/expired roles when the
// active one drains; the idle thread never enters either. Both timer ISRs
// and the cooperative yield path converge on the same save/restore
// primitive (context.go). All functions here run with the gate held.

func (k *Kernel) active() *threadList  { return &k.ready[k.activeList] }
func (k *Kernel) expired() *threadList { return &k.ready[k.activeList^1] }

func (k *Kernel) swapReadyLists() { k.activeList ^= 1 }

// selectNext chooses the thread to run: the head of the active list, else
// the head after an active/expired swap, else the idle thread.
func (k *Kernel) selectNext() *Thread {
	next := k.active().getHead()
	if next == nil {
		k.swapReadyLists()
		next = k.active().getHead()
		if next == nil {
			next = k.idle
		}
	}
	return next
}

// saveContext records the switch-point stack state for t and runs the
// overflow check: the just-saved SP is compared against the stack's lower
// bound, and on a fresh breach the overflow hook is invoked on a safe stack.
func (k *Kernel) saveContext(t *Thread) {
	if t.sp < t.lowSP {
		t.lowSP = t.sp
	}

	if t.sp >= 0 {
		t.overflowed = false
		return
	}
	if t.overflowed {
		return
	}
	t.overflowed = true
	k.trace(TraceOverflow, t)
	if k.cfg.OnStackOverflow != nil {
		// swap to a safe stack top for the handler's duration
		oldSP := t.sp
		t.sp = len(t.stack)
		k.cfg.OnStackOverflow(t)
		t.sp = oldSP
	}
}

// yield voluntarily hands the CPU to another thread. Called by wait, the
// trampoline, and boot. The current thread (if any) is saved, taken out of
// the running set, parked on the timeout list when it asked to sleep, and
// the next thread is restored. Execution resumes here when the caller is
// next dispatched.
func (k *Kernel) yield() {
	cur := k.current
	if cur != nil {
		k.saveContext(cur)

		// take it out of the running
		k.active().remove(cur)

		// see if it wanted to sleep
		if cur.timeoutOffset != 0 {
			k.timeouts.insertByOffset(cur, cur.timeoutOffset)
		}
	}

	next := k.selectNext()
	k.current = next
	k.pendingSwitch = false

	k.dispatch(next)
	if cur != nil && cur != next {
		k.park(cur)
	} else if cur == next {
		// self-handoff: consume our own token and continue
		<-cur.ctx.run
	}
}

// rotate performs the preemptive switch decided by the quantum ISR: the
// current thread expires to the back of the other list, the next thread is
// topped up and restored. Runs in the preempted thread's context at its next
// interruptible point.
func (k *Kernel) rotate() {
	cur := k.current
	if cur == nil {
		return
	}
	k.pendingSwitch = false

	k.saveContext(cur)

	// send it to the expired list; idle is never queued
	if cur != k.idle {
		k.active().remove(cur)
		k.expired().append(cur)
	}

	next := k.selectNext()

	// top up the thread's quantum if it has none left
	if next.ticksRemaining == 0 {
		next.ticksRemaining = k.cfg.QuantumTicks
	}

	if next == cur {
		return
	}
	k.current = next
	k.dispatch(next)
	k.park(cur)
}

// deliverPending honors a switch decision recorded by the quantum ISR.
// Caller holds the gate and runs in the current thread's context.
func (k *Kernel) deliverPending() {
	if k.pendingSwitch {
		k.rotate()
	}
}

// Checkpoint gives the scheduler an interruptible point: any preemption
// decided since the last one is delivered here. Kernel blocking calls are
// interruptible on their own; compute-bound stretches should checkpoint.
func (k *Kernel) Checkpoint() {
	k.gate.enter()
	k.deliverPending()
	k.gate.leave()
}

// timeTick is the millisecond ISR: it advances the clock and drives the
// timeout list, decrementing only the head and signalling TIMEOUT to every
// sleeper whose offset has reached zero.
func (k *Kernel) timeTick() {
	k.milliseconds++

	sleeper := k.timeouts.getHead()
	if sleeper == nil {
		return
	}
	if sleeper.timeoutOffset != 0 {
		sleeper.timeoutOffset--
	}
	for sleeper != nil && sleeper.timeoutOffset == 0 {
		k.timeouts.remove(sleeper)
		sleeper.signal(SigTimeout)
		sleeper = k.timeouts.getHead()
	}
}

// quantumTick is the preemption ISR: quantum accounting plus the
// head-of-active preference. A signalled thread is prepended to the active
// list, so the running thread's quantum is forfeited as soon as it is no
// longer the head. The switch itself is delivered at the current thread's
// next interruptible point.
func (k *Kernel) quantumTick() {
	t := k.current
	if t == nil {
		return
	}

	if k.cfg.Instrumentation {
		t.ticks++
	}

	if t.ticksRemaining != 0 {
		t.ticksRemaining--
	}

	// faux priorities - if we're not the head of the active list, a switch
	// is required so that we run the current head instead
	if k.switching && t != k.active().getHead() {
		t.ticksRemaining = 0
	}

	if t.ticksRemaining != 0 || !k.switching {
		return
	}

	k.pendingSwitch = true
}

// Forbid suppresses preemptive context switching. Time ticks, signal
// delivery, and cooperative yields continue. Forbid/Permit is not
// reentrant; callers must pair them exactly.
func (k *Kernel) Forbid() {
	k.gate.enter()
	k.switching = false
	k.gate.leave()
}

// Permit re-enables preemptive context switching.
func (k *Kernel) Permit() {
	k.gate.enter()
	k.switching = true
	k.gate.leave()
}

// SwitchingEnabled reports whether preemptive switching is enabled.
func (k *Kernel) SwitchingEnabled() bool {
	k.gate.enter()
	defer k.gate.leave()
	return k.switching
}

// Now returns the number of milliseconds since the kernel started. Wraps
// after roughly 49 continuous days.
func (k *Kernel) Now() Duration {
	k.gate.enter()
	defer k.gate.leave()
	return Duration(k.milliseconds)
}

// Me returns the currently executing thread. Thread context only.
func (k *Kernel) Me() *Thread {
	k.gate.enter()
	defer k.gate.leave()
	return k.current
}

// Delay sleeps the calling thread for the given number of milliseconds.
func (k *Kernel) Delay(d Duration) {
	k.gate.enter()
	defer k.gate.leave()
	if t := k.current; t != nil {
		t.wait(0, d)
	}
}
