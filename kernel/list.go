package kernel

// threadList is an intrusive doubly-linked FIFO of Thread descriptors. The
// links live in the Thread itself, so a thread can be a member of at most one
// list at a time; inserting an already-linked thread is a contract violation
// (asserted in debug builds).
type threadList struct {
	head *Thread
	tail *Thread
}

func (l *threadList) getHead() *Thread { return l.head }

func (l *threadList) empty() bool { return l.head == nil }

// contains reports membership by ownership, not by walking.
func (l *threadList) contains(t *Thread) bool { return t.owner == l }

func (l *threadList) append(t *Thread) {
	debugAssert(t.owner == nil, "append: thread already linked")

	t.owner = l
	t.prev = l.tail
	t.next = nil
	if l.tail != nil {
		l.tail.next = t
	} else {
		l.head = t
	}
	l.tail = t
}

func (l *threadList) prepend(t *Thread) {
	debugAssert(t.owner == nil, "prepend: thread already linked")

	t.owner = l
	t.prev = nil
	t.next = l.head
	if l.head != nil {
		l.head.prev = t
	} else {
		l.tail = t
	}
	l.head = t
}

// remove unlinks t if it is a member; removing a non-member is a no-op so
// that callers can unconditionally pull a thread out of the running set.
func (l *threadList) remove(t *Thread) {
	if t.owner != l {
		return
	}

	if t.prev != nil {
		t.prev.next = t.next
	} else {
		l.head = t.next
	}
	if t.next != nil {
		t.next.prev = t.prev
	} else {
		l.tail = t.prev
	}
	t.prev = nil
	t.next = nil
	t.owner = nil
}

// offsetList is an ordered intrusive list keyed by time-to-expire, where each
// node stores its delta from the predecessor's expiration instead of an
// absolute time. The head's offset is the time to the next expiration, so the
// clock ISR only ever touches the head.
type offsetList struct {
	list threadList
}

func (l *offsetList) getHead() *Thread { return l.list.head }

func (l *offsetList) contains(t *Thread) bool { return l.list.contains(t) }

// insertByOffset places t so that the running sum of offsets from the head
// equals the supplied absolute offset, then deducts t's delta from its
// successor to keep downstream expirations unchanged.
func (l *offsetList) insertByOffset(t *Thread, offset uint32) {
	debugAssert(t.owner == nil, "insertByOffset: thread already linked")

	running := uint32(0)
	var prev *Thread
	next := l.list.head
	for next != nil && running+next.timeoutOffset <= offset {
		running += next.timeoutOffset
		prev = next
		next = next.next
	}

	t.timeoutOffset = offset - running
	t.owner = &l.list
	t.prev = prev
	t.next = next
	if prev != nil {
		prev.next = t
	} else {
		l.list.head = t
	}
	if next != nil {
		next.prev = t
		next.timeoutOffset -= t.timeoutOffset
	} else {
		l.list.tail = t
	}
}

// remove unlinks t and folds its remaining delta into the successor so that
// later absolute expirations are preserved.
func (l *offsetList) remove(t *Thread) {
	if t.owner != &l.list {
		return
	}
	if t.next != nil {
		t.next.timeoutOffset += t.timeoutOffset
	}
	l.list.remove(t)
}
