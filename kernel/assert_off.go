//go:build embernoassert

package kernel

const assertEnabled = false
