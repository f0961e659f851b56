package kernel

import (
	"runtime"
	"sync"
	"sync/atomic"
)

// irqGate models the interrupt-disable discipline of the target: entering an
// atomic section "disables interrupts" by serializing against every other
// kernel context (threads and the timer ISRs alike), and nested sections
// stack state correctly — only the outermost exit re-enables.
//
// Reentrancy is tracked by goroutine identity so that a context which already
// holds the gate can nest freely, exactly like the target's save-SREG /
// restore-SREG pairs.
type irqGate struct {
	mu    sync.Mutex
	owner atomic.Uint64 // goroutine id of the holder, 0 when open
	depth int
}

// goid returns the calling goroutine's id, parsed from the runtime's stack
// header ("goroutine N [...]").
func goid() uint64 {
	var buf [32]byte
	n := runtime.Stack(buf[:], false)

	const prefix = len("goroutine ")
	var id uint64
	for _, c := range buf[prefix:n] {
		if c < '0' || c > '9' {
			break
		}
		id = id*10 + uint64(c-'0')
	}
	return id
}

func (g *irqGate) enter() {
	id := goid()
	if g.owner.Load() == id {
		g.depth++
		return
	}
	g.mu.Lock()
	g.owner.Store(id)
	g.depth = 1
}

func (g *irqGate) leave() {
	debugAssert(g.depth > 0, "gate: unbalanced leave")
	g.depth--
	if g.depth == 0 {
		g.owner.Store(0)
		g.mu.Unlock()
	}
}

// release fully opens the gate regardless of nesting depth and returns the
// saved depth. Used around a context park: the suspended context's interrupt
// state is restored when it resumes, like a context switch restoring the
// status register.
func (g *irqGate) release() int {
	depth := g.depth
	g.depth = 0
	g.owner.Store(0)
	g.mu.Unlock()
	return depth
}

// reacquire closes the gate again at the saved nesting depth.
func (g *irqGate) reacquire(depth int) {
	g.mu.Lock()
	g.owner.Store(goid())
	g.depth = depth
}

// Atomic runs fn with the kernel's interrupt gate held. Atomic sections nest:
// the gate is released only when the outermost section exits. Do not block in
// fn; use Forbid/Permit for long critical sections that must keep receiving
// time ticks.
func (k *Kernel) Atomic(fn func()) {
	k.gate.enter()
	defer k.gate.leave()
	fn()
}
