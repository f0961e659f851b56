package kernel

// debugAssert panics on a broken kernel invariant. Assertions compile to
// no-ops when the kernel is built with the embernoassert tag.
func debugAssert(cond bool, msg string) {
	if assertEnabled && !cond {
		panic("kernel: " + msg)
	}
}
