package kernel

// The named-object registry: every live descriptor is enumerable so that
// diagnostic surfaces (the monitor's ps, the front panel) can walk the
// system without touching scheduler internals.

// State describes what a thread is doing right now.
type State uint8

const (
	StateReady State = iota
	StateRunning
	StateWaiting
	StateStopped
	StatePool
)

func (s State) String() string {
	switch s {
	case StateReady:
		return "ready"
	case StateRunning:
		return "running"
	case StateWaiting:
		return "waiting"
	case StateStopped:
		return "stopped"
	case StatePool:
		return "pool"
	default:
		return "unknown"
	}
}

// Info is a point-in-time snapshot of one thread, safe to hold outside the
// kernel's atomic sections.
type Info struct {
	ID         uint16
	Name       string
	State      State
	StackBytes int
	StackUsed  int
	StackPeak  int
	Ticks      uint32
}

// register adds a descriptor to the registry. Caller holds the gate.
func (k *Kernel) register(t *Thread) {
	k.threads = append(k.threads, t)
}

// unregister forgets a destroyed descriptor. Caller holds the gate.
func (k *Kernel) unregister(t *Thread) {
	for i, v := range k.threads {
		if v == t {
			k.threads = append(k.threads[:i], k.threads[i+1:]...)
			return
		}
	}
}

// state derives a thread's current status. Caller holds the gate.
func (k *Kernel) state(t *Thread) State {
	switch {
	case k.current == t:
		return StateRunning
	case k.pool.contains(t):
		return StatePool
	case t.waiting&SigStart != 0:
		return StateStopped
	case t.waiting != 0 && !k.active().contains(t) && !k.expired().contains(t):
		return StateWaiting
	default:
		return StateReady
	}
}

// Status returns the thread's current state.
func (t *Thread) Status() State {
	t.k.gate.enter()
	defer t.k.gate.leave()
	return t.k.state(t)
}

// FindThread returns the live thread with the given id, or nil.
func (k *Kernel) FindThread(id uint16) *Thread {
	k.gate.enter()
	defer k.gate.leave()
	for _, t := range k.threads {
		if t.id == id {
			return t
		}
	}
	return nil
}

// Threads snapshots every live thread in creation order.
func (k *Kernel) Threads() []Info {
	k.gate.enter()
	defer k.gate.leave()

	out := make([]Info, 0, len(k.threads))
	for _, t := range k.threads {
		used := len(t.stack) - t.sp
		if used < 0 {
			used = len(t.stack)
		}
		out = append(out, Info{
			ID:         t.id,
			Name:       t.name,
			State:      k.state(t),
			StackBytes: len(t.stack),
			StackUsed:  used,
			StackPeak:  len(t.stack) - t.lowSP,
			Ticks:      t.ticks,
		})
	}
	return out
}
