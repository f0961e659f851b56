// Package kernel implements a preemptive multitasking microkernel for small
// machines: a time-sliced thread scheduler, a signal-based synchronization
// primitive with bounded waits, a recycling thread pool, and the boot
// lifecycle that ties them together. Thread stacks come from the paged
// allocator in package mem.
package kernel

import (
	"errors"

	"ember/mem"
)

// Config carries the compile-time options of the target build.
type Config struct {
	// QuantumTicks is the number of milliseconds in a thread's quantum.
	// Must be two or more.
	QuantumTicks uint8

	// PageBytes is the allocator granularity.
	PageBytes int

	// DynamicBytes is the size of the dynamic memory region. Must be a
	// multiple of PageBytes.
	DynamicBytes int

	// NumPoolThreads and PoolThreadStackBytes dimension the thread pool.
	// Their product must be strictly less than DynamicBytes.
	NumPoolThreads       int
	PoolThreadStackBytes int

	// NumReservedSigs is the count of reserved signal bits. At least 3, for
	// START, STOP and TIMEOUT.
	NumReservedSigs int

	// Instrumentation enables per-thread CPU-time accounting.
	Instrumentation bool

	// IdleEntry runs when no thread is ready. It must never block in
	// Wait/Delay: always be busy, or rest in the port's idle hook. Nil
	// installs a default that does exactly that.
	IdleEntry Entry

	// OnThreadExit is invoked in thread context, interrupts disabled, when
	// a thread's entry returns.
	OnThreadExit func(t *Thread, exitCode int)

	// OnStackOverflow is invoked on a safe stack, interrupts disabled, when
	// a context save finds the thread's stack breached. Execution continues
	// afterwards, but the violating thread's state is unreliable.
	OnStackOverflow func(t *Thread)

	// Idle is the port's rest hook, called by the default idle entry
	// between checkpoints. Nil spins.
	Idle func()

	// Trace receives kernel lifecycle events, for the port's debug path.
	Trace func(ev TraceEvent, t *Thread)
}

// DefaultConfig returns the stock build options.
func DefaultConfig() Config {
	return Config{
		QuantumTicks:         15,
		PageBytes:            16,
		DynamicBytes:         16 * 1024,
		NumPoolThreads:       2,
		PoolThreadStackBytes: 256,
		NumReservedSigs:      3,
		Instrumentation:      true,
	}
}

// TraceEvent identifies a kernel lifecycle event on the debug path.
type TraceEvent uint8

const (
	TraceCreate TraceEvent = iota + 1
	TraceExit
	TraceRecycle
	TraceOverflow
)

func (e TraceEvent) String() string {
	switch e {
	case TraceCreate:
		return "create"
	case TraceExit:
		return "exit"
	case TraceRecycle:
		return "recycle"
	case TraceOverflow:
		return "stack-overflow"
	default:
		return "unknown"
	}
}

var (
	ErrQuantum     = errors.New("kernel: QuantumTicks must be 2 or more")
	ErrGeometry    = errors.New("kernel: DynamicBytes must be a positive multiple of PageBytes")
	ErrPoolBudget  = errors.New("kernel: thread pool would consume the entire heap")
	ErrReservedSig = errors.New("kernel: NumReservedSigs out of range")
)

// Kernel is the system singleton: scheduler state, the timeout machinery,
// the thread pool, and the allocator. Construct one with New during the
// pre-main phase, create the first threads, then call Start.
type Kernel struct {
	gate irqGate
	cfg  Config

	alloc         *mem.Allocator
	stackStrategy mem.Strategy

	ready      [2]threadList
	activeList uint8
	pool       threadList
	timeouts   offsetList

	current *Thread
	idle    *Thread

	threads []*Thread // every live descriptor, for enumeration

	nextID       uint16
	resumeToken  uint16
	milliseconds uint32

	switching     bool
	pendingSwitch bool

	reservedMask Sigs
}

// New validates the configuration and performs the pre-main phase: the
// allocator is initialized and the idle and pool threads are created. The
// caller then instantiates at least one thread of its own and calls Start.
func New(cfg Config) (*Kernel, error) {
	if cfg.QuantumTicks < 2 {
		return nil, ErrQuantum
	}
	if cfg.PageBytes <= 0 || cfg.DynamicBytes <= 0 || cfg.DynamicBytes%cfg.PageBytes != 0 {
		return nil, ErrGeometry
	}
	if cfg.NumReservedSigs < 3 || cfg.NumReservedSigs >= signalBits {
		return nil, ErrReservedSig
	}
	if cfg.NumPoolThreads < 0 || cfg.NumPoolThreads*cfg.PoolThreadStackBytes >= cfg.DynamicBytes {
		return nil, ErrPoolBudget
	}

	k := &Kernel{
		cfg:           cfg,
		alloc:         mem.New(cfg.PageBytes, cfg.DynamicBytes),
		stackStrategy: mem.TopDown,
		switching:     true,
		reservedMask:  Sigs(1)<<cfg.NumReservedSigs - 1,
	}

	if cfg.IdleEntry == nil {
		k.cfg.IdleEntry = k.defaultIdleEntry
	}

	k.idle = k.NewThread("idle", 0, k.cfg.IdleEntry, 0, nil, nil)
	if k.idle == nil {
		return nil, ErrGeometry
	}

	for i := 0; i < cfg.NumPoolThreads; i++ {
		if p := k.NewThread("", cfg.PoolThreadStackBytes, nil, FlagPool, nil, nil); p == nil {
			return nil, ErrPoolBudget
		}
	}

	return k, nil
}

// defaultIdleEntry rests in the port's idle hook and gives the scheduler an
// interruptible point each pass. It never blocks in Wait/Delay.
func (k *Kernel) defaultIdleEntry() int {
	for {
		if k.cfg.Idle != nil {
			k.cfg.Idle()
		}
		k.Checkpoint()
	}
}

// Start is the post-main phase: the first yield transfers control into the
// highest-priority ready thread, and the caller's goroutine becomes the
// timer: each tick received drives the millisecond ISR and the preemption
// ISR, in that order. Start returns only if the tick source is closed; a
// real port never closes it.
func (k *Kernel) Start(ticks <-chan uint64) {
	k.gate.enter()
	k.yield()
	k.gate.leave()

	var last uint64
	for seq := range ticks {
		if seq <= last {
			seq = last + 1
		}
		// catch up if the port coalesced ticks
		for last < seq {
			last++
			k.gate.enter()
			k.timeTick()
			k.quantumTick()
			k.gate.leave()
		}
	}
}

// PageStats reports the allocator's page counts: total, used, free.
func (k *Kernel) PageStats() (total, used, free int) {
	k.gate.enter()
	defer k.gate.leave()
	return k.alloc.Pages(), k.alloc.PagesUsed(), k.alloc.PagesFree()
}

// PoolCount returns the number of dormant threads resident in the pool.
func (k *Kernel) PoolCount() int {
	k.gate.enter()
	defer k.gate.leave()

	n := 0
	for t := k.pool.getHead(); t != nil; t = t.next {
		n++
	}
	return n
}

func (k *Kernel) trace(ev TraceEvent, t *Thread) {
	if k.cfg.Trace != nil {
		k.cfg.Trace(ev, t)
	}
}
