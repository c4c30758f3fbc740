package localize

import "sync/atomic"

// Gate lets exactly one caller through until it is reset. A page session
// uses one to inject the widget scripts a single time.
type Gate struct {
	passed atomic.Bool
}

// Pass reports true for the first caller and false for every later one.
func (g *Gate) Pass() bool {
	return g.passed.CompareAndSwap(false, true)
}

// Passed reports whether the gate has already let a caller through.
func (g *Gate) Passed() bool {
	return g.passed.Load()
}

// Reset re-arms the gate.
func (g *Gate) Reset() {
	g.passed.Store(false)
}
