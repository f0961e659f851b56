package kernel

// ctx is a thread's virtual CPU context. A prepared context is a parked
// goroutine holding the bound trampoline arguments; the run channel carries
// the single CPU token. Handing the token to a context is the privileged
// restore primitive, parking on it is the save; both ISRs and the
// cooperative yield path converge on these two operations.
type ctx struct {
	run chan struct{}
}

// prelude holds the arguments bound by prepare, read by the trampoline on
// first dispatch.
type prelude struct {
	entry   Entry
	flags   Flags
	termSyn *Synapse
	exitOut *int
}

// prepare rewrites t's stack top for a fresh launch and parks a new context
// so that a restore followed by an interrupt-return arrives in the global
// thread entry with the supplied arguments bound. Caller holds the gate.
func (k *Kernel) prepare(t *Thread, p prelude) {
	k.resumeToken++
	t.sp = writePrelude(t, k.resumeToken)
	t.lowSP = t.sp
	t.overflowed = false

	t.ctx.run = make(chan struct{}, 1)
	go k.threadEntry(t, p)
}

// dispatch hands the CPU token to t. Caller holds the gate; t must be parked
// (or freshly prepared) so the buffered send cannot block.
func (k *Kernel) dispatch(t *Thread) {
	t.ctx.run <- struct{}{}
}

// park suspends the calling thread's context until it is next dispatched.
// The gate is fully released while parked and reacquired at the saved
// nesting depth on resume, like a context switch preserving the interrupt
// state of each side.
func (k *Kernel) park(t *Thread) {
	depth := k.gate.release()
	<-t.ctx.run
	k.gate.reacquire(depth)
}
